// Package mogroup implements the Managed Object group of spec §4.6: a
// sorted OID-to-Variable map with GET/GETNEXT semantics and two-phase-
// commit SET, one per registered subtree root.
package mogroup

import (
	"errors"
	"reflect"
	"sort"
	"sync"

	radix "github.com/armon/go-radix"
	"github.com/gosnmp/gosnmp"
	"github.com/snmpfleet/snmpsim/internal/mib"
	"github.com/snmpfleet/snmpsim/internal/oid"
)

// Errors surfaced as SNMP error statuses per spec §4.6.1/§7.
var (
	ErrNoCreation        = errors.New("mogroup: oid not eligible for creation")
	ErrInconsistentValue = errors.New("mogroup: new value's syntax does not match the stored value's")
	ErrCommitFailed      = errors.New("mogroup: commit failed")
)

// Readable is anything a Group can store as a binding's value: a plain
// mib.Variable (whose Clone is a value copy) or a *modifier.ModifiedVariable
// (whose Clone advances its modifier chain). Both types already expose
// this exact method set, so no adapter wrapping is needed at call sites.
type Readable interface {
	Clone() mib.Variable
	Syntax() gosnmp.Asn1BER
}

// Group is a Managed Object group: a root-scoped, sorted collection of
// OID bindings. The radix tree gives O(k) point lookups by dotted-string
// key; GETNEXT ordering is served from a separately maintained slice
// sorted by internal/oid.OID.Compare, because armon/go-radix orders keys
// by raw byte comparison, which diverges from SNMP's numeric subidentifier
// order (e.g. "9" sorts after "10" lexically but must sort before it
// numerically). See DESIGN.md for the the full rationale.
type Group struct {
	mu sync.RWMutex

	root  oid.OID
	scope oid.MOScope

	tree       *radix.Tree
	sortedKeys []oid.OID
}

// New builds a Group rooted at root, scoped to context, with the given
// initial bindings. Every key in initial must lie within the group's
// scope; callers (the Agent Assembler) are responsible for partitioning
// bindings by root before calling New.
func New(root oid.OID, context string, initial map[oid.OID]Readable) *Group {
	g := &Group{
		root:  root,
		scope: oid.RootScope(root, context),
		tree:  radix.New(),
	}
	keys := make([]oid.OID, 0, len(initial))
	for o, v := range initial {
		g.tree.Insert(o.String(), v)
		keys = append(keys, o)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	g.sortedKeys = keys
	return g
}

// Scope returns the group's half-open OID range, per spec §4.6.
func (g *Group) Scope() oid.MOScope { return g.scope }

// Len reports the number of bindings currently held.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sortedKeys)
}

// Get looks up o. A missing key yields mib.NoSuchInstance without
// mutating the group, per spec §8's universal invariant; a present key
// yields a defensive clone of the stored value.
func (g *Group) Get(o oid.OID) mib.Variable {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.tree.Get(o.String())
	if !ok {
		return mib.NoSuchInstance
	}
	return v.(Readable).Clone()
}

// Find returns the smallest stored OID that is >= lower, per spec §4.6's
// find(query). If lower itself is present but lowerInclusive is false,
// find advances past it. The second return value is false if no such OID
// exists.
func (g *Group) Find(lower oid.OID, lowerInclusive bool) (oid.OID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findLocked(lower, lowerInclusive)
}

func (g *Group) findLocked(lower oid.OID, lowerInclusive bool) (oid.OID, bool) {
	idx := sort.Search(len(g.sortedKeys), func(i int) bool { return !g.sortedKeys[i].Less(lower) })
	if idx < len(g.sortedKeys) && g.sortedKeys[idx].Equal(lower) && !lowerInclusive {
		idx++
	}
	if idx >= len(g.sortedKeys) {
		return oid.OID{}, false
	}
	return g.sortedKeys[idx], true
}

// Next is find plus a defensive-clone read of the chosen binding, per
// spec §4.6's next(sub). handled is false when the walk runs off the end
// of the group (the caller's GETNEXT must then consult the next group or
// report endOfMibView).
func (g *Group) Next(lower oid.OID, lowerInclusive bool) (key oid.OID, value mib.Variable, handled bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	k, ok := g.findLocked(lower, lowerInclusive)
	if !ok {
		return oid.OID{}, mib.Variable{}, false
	}
	v, _ := g.tree.Get(k.String())
	return k, v.(Readable).Clone(), true
}

// Prepare is phase one of SET two-phase commit (spec §4.6.1): o must be
// an existing key within scope, and newSyntax must match the stored
// value's syntax tag. On success it returns the pre-SET value so the
// caller can hold it as that transaction's own undo snapshot — the
// snapshot belongs to the caller's in-flight PDU, not to the Group,
// so two SET PDUs interleaving on the same group (spec §5) never see
// or clobber each other's stashed values.
func (g *Group) Prepare(o oid.OID, newSyntax gosnmp.Asn1BER) (Readable, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.scope.Contains(o) {
		return nil, ErrNoCreation
	}
	existing, ok := g.tree.Get(o.String())
	if !ok {
		return nil, ErrNoCreation
	}
	r := existing.(Readable)
	if r.Syntax() != newSyntax {
		return nil, ErrInconsistentValue
	}
	return r, nil
}

// Commit is phase two: it re-checks that the value Prepare returned for
// o (prepared) is still the one stored — if a different transaction
// committed to o in between, that mismatch aborts this one with
// ErrCommitFailed instead of silently overwriting a write it never saw —
// and, only then, writes newValue into the map, replacing whatever was
// there, including any modifier chain, which a SET always supersedes.
func (g *Group) Commit(o oid.OID, prepared Readable, newValue mib.Variable) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, ok := g.tree.Get(o.String())
	if !ok || !reflect.DeepEqual(current, prepared) {
		return ErrCommitFailed
	}
	g.tree.Insert(o.String(), newValue)
	return nil
}

// Undo restores every entry in saved, the caller's own per-transaction
// snapshot of values this group returned from Prepare. Per spec §9's open
// question, this unconditionally replays saved even when it is empty
// (i.e. when prepare never stashed anything) — a safe no-op in that case,
// not a special error.
func (g *Group) Undo(saved map[string]Readable) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, prev := range saved {
		g.tree.Insert(key, prev)
	}
}
