// model/permission_test.go
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusmesh/campus/api/model"
)

func TestResolveSlug(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		action   model.Action
		want     string
	}{
		{"lower cases", "Institution", model.ActionWrite, "institution:write"},
		{"read action", "Academic", model.ActionRead, "academic:read"},
		{"collapses whitespace", "Student Enrollment", model.ActionUpdate, "student-enrollment:update"},
		{"collapses runs of whitespace", "Student  \t Enrollment", model.ActionDelete, "student-enrollment:delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.ResolveSlug(tt.resource, tt.action))
		})
	}
}

func TestResolveSlugIsIdempotentOverInputs(t *testing.T) {
	first := model.ResolveSlug("InstitutionRole", model.ActionRead)
	second := model.ResolveSlug("InstitutionRole", model.ActionRead)
	assert.Equal(t, first, second)
}

func TestParseAction(t *testing.T) {
	action, ok := model.ParseAction("read")
	assert.True(t, ok)
	assert.Equal(t, model.ActionRead, action)

	action, ok = model.ParseAction("WRITE")
	assert.True(t, ok)
	assert.Equal(t, model.ActionWrite, action)

	_, ok = model.ParseAction("EXECUTE")
	assert.False(t, ok)

	_, ok = model.ParseAction("")
	assert.False(t, ok)
}
