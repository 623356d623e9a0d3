// authz/router.go
package authz

import (
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// Router binds gin routes and their policy metadata in a single call so a
// route can never be registered without its authorization intent being
// declared alongside it. The full path recorded in the registry matches
// what gin reports via Context.FullPath at request time.
type Router struct {
	group    *gin.RouterGroup
	registry *Registry
}

func NewRouter(group *gin.RouterGroup, registry *Registry) *Router {
	return &Router{group: group, registry: registry}
}

// Group derives a sub-router sharing the same registry.
func (r *Router) Group(relativePath string, handlers ...gin.HandlerFunc) *Router {
	return &Router{
		group:    r.group.Group(relativePath, handlers...),
		registry: r.registry,
	}
}

func (r *Router) GET(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	r.handle("GET", relativePath, handler, policies)
}

func (r *Router) POST(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	r.handle("POST", relativePath, handler, policies)
}

func (r *Router) PUT(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	r.handle("PUT", relativePath, handler, policies)
}

func (r *Router) PATCH(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	r.handle("PATCH", relativePath, handler, policies)
}

func (r *Router) DELETE(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	r.handle("DELETE", relativePath, handler, policies)
}

// Public registers a route explicitly exempt from enforcement.
func (r *Router) Public(method, relativePath string, handler gin.HandlerFunc) {
	r.registry.MarkPublic(method, r.fullPath(relativePath))
	r.group.Handle(method, relativePath, handler)
}

func (r *Router) handle(method, relativePath string, handler gin.HandlerFunc, policies []Policy) {
	r.registry.Require(method, r.fullPath(relativePath), policies...)
	r.group.Handle(method, relativePath, handler)
}

func (r *Router) fullPath(relativePath string) string {
	return joinPaths(r.group.BasePath(), relativePath)
}

func joinPaths(basePath, relativePath string) string {
	if relativePath == "" {
		return basePath
	}
	finalPath := path.Join(basePath, relativePath)
	if strings.HasSuffix(relativePath, "/") && !strings.HasSuffix(finalPath, "/") {
		finalPath += "/"
	}
	return finalPath
}
