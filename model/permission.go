package model

import (
	"regexp"
	"strings"
	"time"
)

// Action is the closed set of operations a permission can grant.
type Action string

const (
	ActionRead   Action = "READ"
	ActionWrite  Action = "WRITE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ParseAction normalizes a raw action string against the known set.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(s)) {
	case ActionRead:
		return ActionRead, true
	case ActionWrite:
		return ActionWrite, true
	case ActionUpdate:
		return ActionUpdate, true
	case ActionDelete:
		return ActionDelete, true
	}
	return "", false
}

// Permission names one allowed operation on a protected resource category.
type Permission struct {
	ID       string `json:"id"`
	Action   Action `json:"action" binding:"required"`
	Resource string `json:"resource" binding:"required"`

	// Slug is derived from resource and action and recomputed on every
	// create and update. It is never accepted from the client.
	Slug string `json:"slug"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var slugWhitespace = regexp.MustCompile(`\s+`)

// ResolveSlug derives the canonical "resource:action" slug: lower-cased,
// with any run of whitespace collapsed to a single hyphen. Seeding and
// auditing tooling rely on this string staying stable.
func ResolveSlug(resource string, action Action) string {
	slug := strings.ToLower(resource + ":" + string(action))
	return slugWhitespace.ReplaceAllString(slug, "-")
}
