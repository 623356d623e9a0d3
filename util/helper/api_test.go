package helper_util_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helper_util "github.com/campusmesh/campus/api/util/helper"
)

func paginationContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		limit, offset, err := helper_util.GetPaginationParams(paginationContext(t, ""))

		require.NoError(t, err)
		assert.Equal(t, 10, limit)
		assert.Equal(t, 0, offset)
	})

	t.Run("ExplicitValues", func(t *testing.T) {
		limit, offset, err := helper_util.GetPaginationParams(paginationContext(t, "limit=25&offset=50"))

		require.NoError(t, err)
		assert.Equal(t, 25, limit)
		assert.Equal(t, 50, offset)
	})

	t.Run("RejectsNonNumeric", func(t *testing.T) {
		_, _, err := helper_util.GetPaginationParams(paginationContext(t, "limit=ten"))

		assert.Error(t, err)
	})

	t.Run("RejectsOversizedLimit", func(t *testing.T) {
		_, _, err := helper_util.GetPaginationParams(paginationContext(t, "limit=1000"))

		assert.Error(t, err)
	})

	t.Run("RejectsNegativeOffset", func(t *testing.T) {
		_, _, err := helper_util.GetPaginationParams(paginationContext(t, "offset=-1"))

		assert.Error(t, err)
	})
}
