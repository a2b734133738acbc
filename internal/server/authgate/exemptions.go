// Package authgate enforces authentication on every request that is not
// explicitly exempt. The exemption set is assembled once at startup by a
// Builder and is read-only afterwards.
package authgate

import (
	"fmt"
	"slices"
	"sync"
)

// Paths that never require authentication: the health root and the gRPC
// health service.
var AlwaysExempt = []string{
	"/",
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/List",
	"/grpc.health.v1.Health/Watch",
}

// Paths that are exempt only in debug mode: documentation and gRPC server
// reflection.
var DebugExempt = []string{
	"/docs",
	"/redoc",
	"/openapi.json",
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo",
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo",
}

// RouteSource is a router that can report its exempt routes. Freeze must
// make any later route registration panic.
type RouteSource interface {
	ExemptRoutes() []string
	Freeze()
}

// ExemptionSet is an immutable set of exact request paths (HTTP paths or
// gRPC full method names).
type ExemptionSet struct {
	paths map[string]struct{}
}

func (s *ExemptionSet) Contains(path string) bool {
	if s == nil {
		return false
	}
	_, ok := s.paths[path]
	return ok
}

// Paths returns the sorted members.
func (s *ExemptionSet) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Builder collects exemptions. Build may be called once; afterwards the
// builder and every collected RouteSource are frozen.
type Builder struct {
	mu      sync.Mutex
	debug   bool
	paths   map[string]struct{}
	sources []RouteSource
	built   bool
}

func NewBuilder(debug bool) *Builder {
	b := &Builder{debug: debug, paths: make(map[string]struct{})}
	b.add(AlwaysExempt...)
	if debug {
		b.add(DebugExempt...)
	}
	return b
}

func (b *Builder) add(paths ...string) {
	for _, p := range paths {
		b.paths[p] = struct{}{}
	}
}

func (b *Builder) mustBeOpen() {
	if b.built {
		panic("authgate: exemption set already built")
	}
}

// Exempt adds literal paths.
func (b *Builder) Exempt(paths ...string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	b.add(paths...)
	return b
}

// ExemptInDebug adds paths only when the builder runs in debug mode.
func (b *Builder) ExemptInDebug(paths ...string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	if b.debug {
		b.add(paths...)
	}
	return b
}

// Collect registers a router; its exempt routes are read at Build time.
func (b *Builder) Collect(src RouteSource) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	b.sources = append(b.sources, src)
	return b
}

// Build freezes every collected router and returns the final set.
func (b *Builder) Build() *ExemptionSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeOpen()
	for _, src := range b.sources {
		b.add(src.ExemptRoutes()...)
		src.Freeze()
	}
	b.built = true

	paths := make(map[string]struct{}, len(b.paths))
	for p := range b.paths {
		paths[p] = struct{}{}
	}
	return &ExemptionSet{paths: paths}
}

// FrozenError is the panic value of a route registered after Build.
type FrozenError struct {
	Route string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("routes are frozen: %s registered after the auth gate was built", e.Route)
}
