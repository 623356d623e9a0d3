// dao/common.go
package dao

import (
	"context"

	"github.com/campusmesh/campus/api/model"
	helper_util "github.com/campusmesh/campus/api/util/helper"
)

// requestingUserID extracts the acting user from the request context. Writes
// performed outside a request (seeding, jobs) are attributed to "system".
func requestingUserID(ctx context.Context) string {
	if v := ctx.Value("requestingUserID"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "system"
}

// mapAuditable reads the shared activation and audit fields back from node
// properties.
func mapAuditable(props map[string]interface{}, a *model.Auditable) {
	if v, ok := props["isActive"].(bool); ok {
		a.IsActive = v
	}
	if v, ok := props["createdBy"].(string); ok {
		a.CreatedBy = v
	}
	if v, ok := props["lastUpdatedBy"].(string); ok {
		a.LastUpdatedBy = v
	}
	if v, ok := props["deletedBy"].(string); ok {
		a.DeletedBy = v
	}
	if v, ok := props["createdAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			a.CreatedAt = t
		}
	}
	if v, ok := props["updatedAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			a.UpdatedAt = t
		}
	}
	if v, ok := props["deletedAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			a.DeletedAt = &t
		}
	}
}

func stringValue(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
