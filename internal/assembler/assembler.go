// Package assembler implements the Agent Assembler of spec §4.7: for one
// agent's walk and device, build a per-context variable map, compute
// subtree roots, and register one MO Group per root (or fall back to
// per-OID groups on a scope collision), then expose the community-string
// bindings the transport layer listens under.
package assembler

import (
	"fmt"
	"log"
	"sort"

	"github.com/snmpfleet/snmpsim/internal/device"
	"github.com/snmpfleet/snmpsim/internal/modifier"
	"github.com/snmpfleet/snmpsim/internal/mogroup"
	"github.com/snmpfleet/snmpsim/internal/oid"
	"github.com/snmpfleet/snmpsim/internal/rootextract"
	"github.com/snmpfleet/snmpsim/internal/walk"
)

// CommunityBinding pairs a community string with the context it selects,
// per spec §6: "<community>" -> empty context, "<community>@<vlan>" ->
// context <vlan>.
type CommunityBinding struct {
	Community string
	Context   string
}

// Agent is one assembled virtual agent: its community bindings and the
// Managed Object registry backing them.
type Agent struct {
	Name        string
	Community   string
	Device      *device.Device
	Registry    *Registry
	Communities []CommunityBinding
}

// ContextFor resolves an incoming request's community string to the
// context it was registered under, per the community bindings built at
// Assemble time. ok is false for a community the agent never bound —
// the transport layer drops such a request rather than answering it.
func (a *Agent) ContextFor(community string) (ctx string, ok bool) {
	for _, cb := range a.Communities {
		if cb.Community == community {
			return cb.Context, true
		}
	}
	return "", false
}

// Assemble runs the full §4.7 algorithm for one agent: a walk already
// read once (rawBindings), and the device whose modifier bindings and
// VLAN list drive per-context assembly.
func Assemble(name, community string, rawBindings []walk.Binding, dev *device.Device) *Agent {
	if dev == nil {
		dev = device.Default()
	}
	registry := NewRegistry()

	for _, c := range contextsFor(dev) {
		assembleContext(registry, c, rawBindings, dev)
	}

	return &Agent{
		Name:        name,
		Community:   community,
		Device:      dev,
		Registry:    registry,
		Communities: communityBindings(community, dev),
	}
}

// contextsFor returns [""] plus the stringified decimal form of each VLAN,
// per spec §3's Context glossary entry.
func contextsFor(dev *device.Device) []string {
	contexts := make([]string, 0, 1+len(dev.VLANs))
	contexts = append(contexts, "")
	for _, vlan := range dev.VLANs {
		contexts = append(contexts, fmt.Sprintf("%d", vlan))
	}
	return contexts
}

func communityBindings(community string, dev *device.Device) []CommunityBinding {
	out := make([]CommunityBinding, 0, 1+len(dev.VLANs))
	out = append(out, CommunityBinding{Community: community, Context: ""})
	for _, vlan := range dev.VLANs {
		ctx := fmt.Sprintf("%d", vlan)
		out = append(out, CommunityBinding{Community: fmt.Sprintf("%s@%s", community, ctx), Context: ctx})
	}
	return out
}

// assembleContext builds one context's variable map (step 2.a), computes
// its roots (step 2.b), and registers groups with per-OID fallback on
// collision (step 2.c).
func assembleContext(registry *Registry, context string, rawBindings []walk.Binding, dev *device.Device) {
	contextBindings := buildContextBindings(context, rawBindings, dev)
	if len(contextBindings) == 0 {
		return // empty walk (or nothing survived expansion): register nothing, per spec §4.7.
	}

	keys := make([]oid.OID, 0, len(contextBindings))
	for o := range contextBindings {
		keys = append(keys, o)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	roots := rootextract.Extract(keys)
	for _, root := range roots {
		registerRoot(registry, context, root, contextBindings)
	}
}

// buildContextBindings implements spec §4.7 step 2.a.
func buildContextBindings(context string, rawBindings []walk.Binding, dev *device.Device) map[oid.OID]mogroup.Readable {
	out := make(map[oid.OID]mogroup.Readable, len(rawBindings))
	for _, b := range rawBindings {
		applicable := dev.BindingsFor(b.OID)
		if len(applicable) == 0 {
			out[b.OID] = b.Variable
			continue
		}

		if expander := firstExpander(applicable); expander != nil {
			for expandedOID, v := range expander.Expand(context, b.OID, b.Variable) {
				out[expandedOID] = v
			}
			continue
		}

		mods := make([]modifier.Modifier, 0, len(applicable))
		for _, bind := range applicable {
			if m := bind.Modifier(); m != nil {
				mods = append(mods, m)
			}
		}
		if len(mods) == 0 {
			out[b.OID] = b.Variable
			continue
		}
		out[b.OID] = modifier.NewModifiedVariable(modifiedVariableKey(context, b.OID), b.Variable, mods)
	}
	return out
}

func modifiedVariableKey(context string, o oid.OID) string {
	return context + "|" + o.String()
}

func firstExpander(bindings []device.ModifierBinding) modifier.ContextExpander {
	for _, b := range bindings {
		if ce := b.ContextExpander(); ce != nil {
			return ce
		}
	}
	return nil
}

// registerRoot implements spec §4.7 step 2.c: try the whole-subtree
// group first, and only fall back to per-OID registration on a scope
// collision. A group that loses to collision is discarded, never tracked
// (spec §9's second open question).
func registerRoot(registry *Registry, context string, root oid.OID, contextBindings map[oid.OID]mogroup.Readable) {
	scope := oid.RootScope(root, context)
	if !registry.collides(scope) {
		group := mogroup.New(root, context, bindingsUnder(root, contextBindings))
		if registry.register(group) {
			return
		}
		// lost a race against a concurrent registration; fall through to
		// per-OID fallback below.
	}

	for leaf, v := range bindingsUnder(root, contextBindings) {
		leafScope := oid.RootScope(leaf, context)
		if registry.collides(leafScope) {
			log.Printf("assembler: skipping %s in context %q: scope collision", leaf, context)
			continue
		}
		group := mogroup.New(leaf, context, map[oid.OID]mogroup.Readable{leaf: v})
		if !registry.register(group) {
			log.Printf("assembler: skipping %s in context %q: lost registration race", leaf, context)
		}
	}
}

func bindingsUnder(root oid.OID, all map[oid.OID]mogroup.Readable) map[oid.OID]mogroup.Readable {
	out := make(map[oid.OID]mogroup.Readable)
	for o, v := range all {
		if o.HasPrefix(root) {
			out[o] = v
		}
	}
	return out
}
