package modifier

import (
	"github.com/snmpfleet/snmpsim/internal/mib"
	"github.com/snmpfleet/snmpsim/internal/oid"
)

// ContextExpander is the CommunityContextModifier contract of spec §4.3:
// rather than producing one modified Variable, it explodes a single walk
// OID into the per-context bindings the Agent Assembler merges into each
// context's variable map (§4.7 step 2.a).
type ContextExpander interface {
	Expand(context string, o oid.OID, base mib.Variable) map[oid.OID]mib.Variable
}

// communityContextModifier maps a context name (the stringified VLAN, or
// "" for the default context) to the last subidentifier the base OID
// should carry in that context, optionally overriding the value too —
// e.g. one ifDescr OID in the walk stands in for one row per VLAN.
type communityContextModifier struct {
	indexByContext map[string]uint32
	valueByContext map[string]string
}

func newCommunityContextModifier(props Properties) *communityContextModifier {
	m := &communityContextModifier{
		indexByContext: map[string]uint32{},
		valueByContext: map[string]string{},
	}
	if raw, ok := props["indexByContext"]; ok {
		if asMap, ok := raw.(map[string]interface{}); ok {
			for ctx, v := range asMap {
				if n, ok := toInt64(v); ok && n >= 0 {
					m.indexByContext[ctx] = uint32(n)
				}
			}
		}
	}
	if raw, ok := props["valueByContext"]; ok {
		if asMap, ok := raw.(map[string]interface{}); ok {
			for ctx, v := range asMap {
				if s, ok := v.(string); ok {
					m.valueByContext[ctx] = s
				}
			}
		}
	}
	return m
}

// Expand implements ContextExpander. When context has no configured index,
// the binding passes through under its original OID — still "expanded"
// bindings per §4.7's contract, just a single unchanged entry.
func (m *communityContextModifier) Expand(context string, o oid.OID, base mib.Variable) map[oid.OID]mib.Variable {
	idx, ok := m.indexByContext[context]
	if !ok {
		return map[oid.OID]mib.Variable{o: base}
	}

	target := o
	if o.Len() > 0 {
		target = o.Prefix(o.Len() - 1).Append(idx)
	}

	value := base
	if s, ok := m.valueByContext[context]; ok {
		value = mib.OctetStringValue(s)
	}
	return map[oid.OID]mib.Variable{target: value}
}
