// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Registry, a caller-owned record of constructed
// entities keyed by their path in the tree (e.g. "demo/main/c0/blink").
//
// Why not a package-level registry?
//
// Several topologies may be assembled in one process, for example one per
// test. Each owner creates its own Registry and hands it to whatever needs
// to enumerate entities, so nothing leaks between assemblies.
package topology

import (
	"context"
	"strings"
)

// PathSeparator joins entity names into registry paths.
const PathSeparator = "/"

// JoinPath builds a registry path from its segments.
func JoinPath(segments ...string) string {
	return strings.Join(segments, PathSeparator)
}

// Registry tracks entities by path and notifies its extensions.
type Registry struct {
	entries    map[string]Entity
	order      []string
	extensions []Extension
}

// NewRegistry returns an empty Registry dispatching to exts.
func NewRegistry(exts ...Extension) *Registry {
	return &Registry{
		entries:    make(map[string]Entity),
		extensions: exts,
	}
}

// Add registers e under path. A path can only be registered once.
func (r *Registry) Add(ctx context.Context, path string, e Entity) error {
	if e == nil {
		return &TypeMismatchError{Want: "topology.Entity", Got: "nil"}
	}
	if err := requireName(path); err != nil {
		return &InvalidConfigError{Field: "path", Reason: err.Error()}
	}
	if _, dup := r.entries[path]; dup {
		return &DuplicateNameError{Kind: e.Kind(), Name: path}
	}
	r.entries[path] = e
	r.order = append(r.order, path)
	for _, ext := range r.extensions {
		ext.OnAdd(ctx, path, e)
	}
	return nil
}

// Remove unregisters the entity at path and reports whether it existed.
func (r *Registry) Remove(ctx context.Context, path string) bool {
	e, ok := r.entries[path]
	if !ok {
		return false
	}
	delete(r.entries, path)
	for i, p := range r.order {
		if p == path {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for _, ext := range r.extensions {
		ext.OnRemove(ctx, path, e)
	}
	return true
}

// Lookup returns the entity registered at path.
func (r *Registry) Lookup(path string) (Entity, bool) {
	e, ok := r.entries[path]
	return e, ok
}

// Paths returns every registered path in registration order.
func (r *Registry) Paths() []string { return cloneStrings(r.order) }

// Len returns the number of registered entities.
func (r *Registry) Len() int { return len(r.order) }

// Loaded notifies extensions that a configuration source was read.
func (r *Registry) Loaded(ctx context.Context, source string) {
	for _, ext := range r.extensions {
		ext.OnLoad(ctx, source)
	}
}

// Built notifies extensions that app is fully assembled.
func (r *Registry) Built(ctx context.Context, app *Application) {
	for _, ext := range r.extensions {
		ext.OnBuild(ctx, app)
	}
}
