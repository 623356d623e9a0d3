// authz/ability.go
package authz

import (
	"github.com/campusmesh/campus/api/model"
)

// Rule is a single granted (action, resource) pair. Condition, when set,
// is an attribute-equality constraint on the records the grant applies to
// (e.g. {"institutionId": "inst::..."} for tenant-scoped principals).
type Rule struct {
	Action    model.Action
	Resource  string
	Condition map[string]interface{}
}

type ruleKey struct {
	action   model.Action
	resource string
}

// Ability is the request-scoped decision object for one principal. It is
// read-only once built and rebuilt on every request.
//
// Can answers the capability question only; it never evaluates conditions.
// A caller that fetches or mutates records on behalf of the principal MUST
// additionally apply the filter returned by ConditionFor; the guard does
// not provide row-level tenant isolation by itself.
type Ability struct {
	rules map[ruleKey]Rule
}

// Can reports whether the principal may perform action on resource.
func (a *Ability) Can(action model.Action, resource string) bool {
	if a == nil {
		return false
	}
	_, ok := a.rules[ruleKey{action: action, resource: resource}]
	return ok
}

// CanRecord reports whether the principal may perform action on the given
// record. Every attribute of the rule's condition must match the record
// exactly; a rule without a condition matches any record.
func (a *Ability) CanRecord(action model.Action, resource string, record map[string]interface{}) bool {
	if a == nil {
		return false
	}
	rule, ok := a.rules[ruleKey{action: action, resource: resource}]
	if !ok {
		return false
	}
	for attr, want := range rule.Condition {
		if record[attr] != want {
			return false
		}
	}
	return true
}

// ConditionFor returns the record filter attached to the grant, or nil when
// the grant is unconditioned or absent. Callers executing the authorized
// operation must apply this filter to their queries.
func (a *Ability) ConditionFor(action model.Action, resource string) map[string]interface{} {
	if a == nil {
		return nil
	}
	rule, ok := a.rules[ruleKey{action: action, resource: resource}]
	if !ok {
		return nil
	}
	return rule.Condition
}

// AbilityBuilder accumulates grants and produces an immutable Ability.
// Building with no grants yields an ability that denies everything. There
// are no deny rules: absence of a grant is the only way to deny.
type AbilityBuilder struct {
	rules map[ruleKey]Rule
}

func NewAbilityBuilder() *AbilityBuilder {
	return &AbilityBuilder{rules: make(map[ruleKey]Rule)}
}

// Grant allows (action, resource), optionally constrained by condition.
// Granting the same pair twice is idempotent.
func (b *AbilityBuilder) Grant(action model.Action, resource string, condition map[string]interface{}) {
	b.rules[ruleKey{action: action, resource: resource}] = Rule{
		Action:    action,
		Resource:  resource,
		Condition: condition,
	}
}

func (b *AbilityBuilder) Build() *Ability {
	return &Ability{rules: b.rules}
}
