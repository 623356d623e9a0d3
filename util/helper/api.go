package helper_util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// maxPageSize caps how many records a single list request may ask for.
const maxPageSize = 100

// GetPaginationParams reads the limit and offset query parameters every
// listing endpoint accepts. Missing parameters default to a page of 10 from
// the start; out-of-range values are rejected so callers can answer 400.
func GetPaginationParams(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > maxPageSize {
		return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, fmt.Errorf("offset must not be negative")
	}

	return limit, offset, nil
}
