// Package uri assigns the globally-unique-within-one-cache record
// identity (spec §3), combining a configured cache prefix with a
// UUID as suggested in spec §9 ("UUID + cache prefix").
package uri

import "github.com/google/uuid"

// Generator mints record URIs for one cache instance.
type Generator struct {
	prefix string
}

// New builds a Generator. prefix typically identifies the cache
// instance (e.g. "lookup.example.org") so URIs are distinguishable
// across a federation even though uniqueness is only guaranteed
// within one cache.
func New(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// Next mints a fresh URI. Collisions are astronomically unlikely
// (UUIDv4) but the Registration Service still retries once on a
// Store DUPLICATE, per spec §4.4.
func (g *Generator) Next() string {
	id := uuid.New().String()
	if g.prefix == "" {
		return id
	}
	return g.prefix + ":" + id
}
