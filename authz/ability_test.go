// authz/ability_test.go
package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/resource"
)

func TestEmptyAbilityDeniesEverything(t *testing.T) {
	ability := NewAbilityBuilder().Build()

	assert.False(t, ability.Can(model.ActionRead, resource.Institution))
	assert.False(t, ability.Can(model.ActionWrite, resource.Academic))
	assert.False(t, ability.CanRecord(model.ActionRead, resource.Academic, map[string]interface{}{}))
}

func TestNilAbilityDenies(t *testing.T) {
	var ability *Ability

	assert.False(t, ability.Can(model.ActionRead, resource.Institution))
	assert.False(t, ability.CanRecord(model.ActionRead, resource.Institution, nil))
	assert.Nil(t, ability.ConditionFor(model.ActionRead, resource.Institution))
}

func TestGrantAllowsExactPairOnly(t *testing.T) {
	builder := NewAbilityBuilder()
	builder.Grant(model.ActionRead, resource.Academic, nil)
	ability := builder.Build()

	assert.True(t, ability.Can(model.ActionRead, resource.Academic))
	assert.False(t, ability.Can(model.ActionWrite, resource.Academic))
	assert.False(t, ability.Can(model.ActionRead, resource.Institution))
}

func TestDuplicateGrantIsIdempotent(t *testing.T) {
	builder := NewAbilityBuilder()
	builder.Grant(model.ActionRead, resource.Academic, nil)
	builder.Grant(model.ActionRead, resource.Academic, nil)
	ability := builder.Build()

	assert.True(t, ability.Can(model.ActionRead, resource.Academic))
}

func TestCanIgnoresCondition(t *testing.T) {
	builder := NewAbilityBuilder()
	builder.Grant(model.ActionRead, resource.Academic, map[string]interface{}{"institutionId": "inst::a"})
	ability := builder.Build()

	// Capability-level query succeeds regardless of the attached condition.
	assert.True(t, ability.Can(model.ActionRead, resource.Academic))
}

func TestCanRecordHonorsCondition(t *testing.T) {
	builder := NewAbilityBuilder()
	builder.Grant(model.ActionRead, resource.Academic, map[string]interface{}{"institutionId": "inst::a"})
	ability := builder.Build()

	assert.True(t, ability.CanRecord(model.ActionRead, resource.Academic, map[string]interface{}{
		"institutionId": "inst::a",
		"name":          "Physics",
	}))
	assert.False(t, ability.CanRecord(model.ActionRead, resource.Academic, map[string]interface{}{
		"institutionId": "inst::b",
	}))
	assert.False(t, ability.CanRecord(model.ActionRead, resource.Academic, map[string]interface{}{}))
}

func TestCanRecordWithoutConditionMatchesAnyRecord(t *testing.T) {
	builder := NewAbilityBuilder()
	builder.Grant(model.ActionDelete, resource.Institution, nil)
	ability := builder.Build()

	assert.True(t, ability.CanRecord(model.ActionDelete, resource.Institution, map[string]interface{}{
		"institutionId": "inst::anything",
	}))
	assert.True(t, ability.CanRecord(model.ActionDelete, resource.Institution, nil))
}

func TestTenantIsolationAcrossAbilities(t *testing.T) {
	grant := func(institutionID string) *Ability {
		b := NewAbilityBuilder()
		b.Grant(model.ActionUpdate, resource.InstitutionRole, map[string]interface{}{"institutionId": institutionID})
		return b.Build()
	}
	abilityA := grant("inst::a")
	abilityB := grant("inst::b")

	recordA := map[string]interface{}{"institutionId": "inst::a"}
	recordB := map[string]interface{}{"institutionId": "inst::b"}

	assert.True(t, abilityA.CanRecord(model.ActionUpdate, resource.InstitutionRole, recordA))
	assert.False(t, abilityA.CanRecord(model.ActionUpdate, resource.InstitutionRole, recordB))
	assert.True(t, abilityB.CanRecord(model.ActionUpdate, resource.InstitutionRole, recordB))
	assert.False(t, abilityB.CanRecord(model.ActionUpdate, resource.InstitutionRole, recordA))
}

func TestConditionFor(t *testing.T) {
	builder := NewAbilityBuilder()
	builder.Grant(model.ActionRead, resource.Academic, map[string]interface{}{"institutionId": "inst::a"})
	builder.Grant(model.ActionRead, resource.Institution, nil)
	ability := builder.Build()

	assert.Equal(t, map[string]interface{}{"institutionId": "inst::a"},
		ability.ConditionFor(model.ActionRead, resource.Academic))
	assert.Nil(t, ability.ConditionFor(model.ActionRead, resource.Institution))
	assert.Nil(t, ability.ConditionFor(model.ActionWrite, resource.Academic))
}
