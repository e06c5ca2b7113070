package assembler

import (
	"sort"
	"sync"

	"github.com/snmpfleet/snmpsim/internal/mib"
	"github.com/snmpfleet/snmpsim/internal/mogroup"
	"github.com/snmpfleet/snmpsim/internal/oid"
)

// Registry is the engine's Managed Object registry: the set of groups
// currently installed, keyed by context. register is the only mutating
// entry point and is where registration collisions are detected, per
// spec §4.7 step 2.c and §7 ("registration: duplicate or overlapping
// scope → per-OID fallback, else skip with a warning; never fatal").
type Registry struct {
	mu     sync.RWMutex
	groups map[string][]*mogroup.Group
}

// NewRegistry returns an empty Registry, corresponding to spec §4.7 step 3
// ("unregister all default managed objects the engine auto-installs") —
// this implementation never auto-installs anything, so there is nothing
// to unregister; a fresh Registry already satisfies that precondition.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string][]*mogroup.Group)}
}

// collides reports whether scope overlaps any group already registered
// in scope.Context.
func (r *Registry) collides(scope oid.MOScope) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.groups[scope.Context] {
		if g.Scope().Intersects(scope) {
			return true
		}
	}
	return false
}

// register installs g if its scope does not collide with an
// already-registered group in the same context, returning whether it was
// installed. Per spec §9's second open question, a group that loses to a
// collision is never appended here — only successfully registered groups
// are ever tracked.
func (r *Registry) register(g *mogroup.Group) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	scope := g.Scope()
	for _, existing := range r.groups[scope.Context] {
		if existing.Scope().Intersects(scope) {
			return false
		}
	}
	r.groups[scope.Context] = append(r.groups[scope.Context], g)
	return true
}

// GroupsFor returns the groups registered under context, in registration
// order.
func (r *Registry) GroupsFor(context string) []*mogroup.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*mogroup.Group, len(r.groups[context]))
	copy(out, r.groups[context])
	return out
}

// Contexts returns every context that has at least one registered group.
func (r *Registry) Contexts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.groups))
	for c := range r.groups {
		out = append(out, c)
	}
	return out
}

// Lookup finds the group in context whose scope contains o, if any — the
// dispatch step a request handler needs before calling get/find/prepare.
func (r *Registry) Lookup(context string, o oid.OID) *mogroup.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.groups[context] {
		if g.Scope().Contains(o) {
			return g
		}
	}
	return nil
}

// Next performs a GETNEXT across every group registered in context,
// ordered by root, so a walk crosses from one registered subtree into the
// next without the caller needing to know the group boundaries — spec §8
// scenario 3. handled is false only when no group in context has any key
// at or past lower (the caller then reports endOfMibView).
func (r *Registry) Next(context string, lower oid.OID, lowerInclusive bool) (oid.OID, mib.Variable, bool) {
	r.mu.RLock()
	groups := make([]*mogroup.Group, len(r.groups[context]))
	copy(groups, r.groups[context])
	r.mu.RUnlock()

	sort.Slice(groups, func(i, j int) bool { return groups[i].Scope().Lower.Less(groups[j].Scope().Lower) })
	for _, g := range groups {
		if key, value, handled := g.Next(lower, lowerInclusive); handled {
			return key, value, true
		}
	}
	return oid.OID{}, mib.Variable{}, false
}
