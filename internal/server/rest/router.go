// Package rest is the HTTP API of the auth server.
package rest

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
)

// Route describes one registered endpoint.
type Route struct {
	Method  string
	Path    string
	Summary string
	Tag     string
	Exempt  bool
	Hidden  bool
}

type RouteOption func(*Route)

// Exempt marks a route as reachable without an access token. Only literal
// paths can be exempt.
func Exempt() RouteOption {
	return func(r *Route) { r.Exempt = true }
}

func Summary(s string) RouteOption {
	return func(r *Route) { r.Summary = s }
}

func Tag(t string) RouteOption {
	return func(r *Route) { r.Tag = t }
}

// Hidden keeps a route out of the OpenAPI document.
func Hidden() RouteOption {
	return func(r *Route) { r.Hidden = true }
}

// Router is a net/http ServeMux that remembers its routes. After Freeze
// every Handle call panics with *authgate.FrozenError.
type Router struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	routes []Route
	frozen bool
}

func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

func (rt *Router) Handle(method, path string, h http.HandlerFunc, opts ...RouteOption) {
	route := Route{Method: method, Path: path}
	for _, opt := range opts {
		opt(&route)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.frozen {
		panic(&authgate.FrozenError{Route: method + " " + path})
	}
	if route.Exempt && strings.ContainsAny(path, "{}") {
		panic(fmt.Sprintf("rest: exempt route %s %s must be a literal path", method, path))
	}

	pattern := method + " " + path
	if path == "/" {
		pattern = method + " /{$}"
	}
	rt.mux.HandleFunc(pattern, h)
	rt.routes = append(rt.routes, route)
}

// ExemptRoutes returns the paths registered with Exempt.
func (rt *Router) ExemptRoutes() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var out []string
	for _, r := range rt.routes {
		if r.Exempt {
			out = append(out, r.Path)
		}
	}
	return out
}

func (rt *Router) Freeze() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.frozen = true
}

// Routes returns a copy of the registered routes in registration order.
func (rt *Router) Routes() []Route {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]Route(nil), rt.routes...)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}
