// Package modifier implements the per-type value mutators of spec §4.3
// (the "modifier pipeline") and the lazy ModifiedVariable wrapper of
// spec §4.4 that chains them on read.
package modifier

import (
	"log"

	"github.com/gosnmp/gosnmp"
	"github.com/snmpfleet/snmpsim/internal/mib"
)

// ModifiedVariable is an opaque Variable-typed wrapper holding a base
// Variable and an ordered list of modifiers applicable to its OID. Clone
// sequentially applies the modifiers to the last produced value, storing
// and returning the result. The syntax tag always equals the base's; a
// modifier that returns an unexpected tag is skipped and logged.
type ModifiedVariable struct {
	key       string
	base      mib.Variable
	modifiers []Modifier
	last      mib.Variable
}

// NewModifiedVariable builds a ModifiedVariable for one binding identified
// by key, the per-binding state key each Modifier tracks internally (the
// Agent Assembler passes the context name and the dotted OID joined by
// "|").
func NewModifiedVariable(key string, base mib.Variable, modifiers []Modifier) *ModifiedVariable {
	return &ModifiedVariable{key: key, base: base, modifiers: modifiers, last: base}
}

// Clone produces the next value: each modifier is applied in order to the
// previously produced value, and the result is stored as the new "last
// value" for the next read.
func (m *ModifiedVariable) Clone() mib.Variable {
	current := m.last
	for _, mod := range m.modifiers {
		next := mod.Modify(m.key, current)
		if next.Syntax() != m.base.Syntax() {
			log.Printf("modifier: dropped result with syntax %v for oid %s (base syntax %v)", next.Syntax(), m.key, m.base.Syntax())
			continue
		}
		current = next
	}
	m.last = current
	return current.Clone()
}

// Syntax returns the base variable's syntax tag, which a ModifiedVariable
// never changes.
func (m *ModifiedVariable) Syntax() gosnmp.Asn1BER { return m.base.Syntax() }
