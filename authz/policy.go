// authz/policy.go
package authz

import (
	"sync"

	"github.com/campusmesh/campus/api/model"
)

// Policy is one declared requirement on a route: the capability a principal
// must hold before the handler runs.
type Policy struct {
	Action   model.Action
	Resource string
}

type routeEntry struct {
	public   bool
	policies []Policy
}

// Registry is the explicit table of route policies. Routes are keyed by
// "METHOD /full/path" using the route template as registered with gin
// (path parameters included, e.g. "GET /api/v1/institutions/:id"). The
// table is populated at startup and read per request by the guards.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]routeEntry
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]routeEntry)}
}

// Require declares the policies a route demands. All of them must pass.
func (r *Registry) Require(method, path string, policies ...Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey(method, path)] = routeEntry{policies: policies}
}

// MarkPublic exempts a route from enforcement entirely.
func (r *Registry) MarkPublic(method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey(method, path)] = routeEntry{public: true}
}

// Lookup returns the declared policies for a route and whether the route is
// public. A route with no entry returns (nil, false): the guards let such
// requests through, enforcement applies only to declared routes.
func (r *Registry) Lookup(method, path string) ([]Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.routes[routeKey(method, path)]
	if !ok {
		return nil, false
	}
	return entry.policies, entry.public
}

func routeKey(method, path string) string {
	return method + " " + path
}
