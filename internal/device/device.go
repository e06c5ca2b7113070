// Package device implements the Device model of spec §3/§9: a named,
// immutable collection of modifier bindings and VLAN identifiers, built
// once at startup and read concurrently thereafter by the Agent Assembler.
package device

import (
	"fmt"

	"github.com/snmpfleet/snmpsim/internal/modifier"
	"github.com/snmpfleet/snmpsim/internal/oid"
)

// ModifierBinding pairs an OID prefix with the modifier or context expander
// it activates for every OID beneath it, per spec §3's ModifierBinding.
// The underlying Modifier/ContextExpander is built once, at New, not on
// every lookup — §9 rejects lazy/reflective device init in favor of eager
// construction right after the descriptor is parsed.
type ModifierBinding struct {
	OIDPrefix  oid.OID
	Kind       string
	Properties modifier.Properties

	built interface{} // *modifier.boundedStepModifier, *counter64Modifier, *octetStringModifier, or a modifier.ContextExpander
}

// Applicable reports whether o lies under this binding's prefix, per spec
// §3: "Each ModifierBinding is applicable to an OID iff the OID lies under
// oidPrefix."
func (b ModifierBinding) Applicable(o oid.OID) bool {
	return o.HasPrefix(b.OIDPrefix)
}

// Modifier returns the binding's built modifier.Modifier, or nil if this
// binding is a CommunityContext expander (which ModifiedVariable does not
// chain — see ContextExpander).
func (b ModifierBinding) Modifier() modifier.Modifier {
	m, _ := b.built.(modifier.Modifier)
	return m
}

// ContextExpander returns the binding's built modifier.ContextExpander, or
// nil if this binding is an ordinary value modifier.
func (b ModifierBinding) ContextExpander() modifier.ContextExpander {
	c, _ := b.built.(modifier.ContextExpander)
	return c
}

// Device is the named collection of spec §3: a list of ModifierBindings
// and a list of VLAN identifiers. Once constructed by New, a Device is
// immutable and safe for unsynchronized concurrent reads, matching the
// Lifecycle guarantee ("devices ... are built at startup and never
// mutate").
type Device struct {
	Name     string
	VLANs    []uint64
	Bindings []ModifierBinding
}

// Descriptor is the parsed shape of a device descriptor YAML document
// (spec §6), the input New consumes. internal/config is responsible for
// unmarshaling a file into this shape; New holds no YAML dependency of its
// own, keeping the modifier-construction logic testable without a file on
// disk.
type Descriptor struct {
	Name      string
	VLANs     []uint64
	Modifiers []ModifierDescriptor
}

// ModifierDescriptor is one entry of a device descriptor's modifiers list.
type ModifierDescriptor struct {
	OID        string
	Class      string
	Properties map[string]interface{}
}

// New builds a Device from a descriptor, constructing every modifier
// binding's underlying Modifier/ContextExpander eagerly. A binding naming
// an unrecognized modifier kind is logged by the caller via the returned
// per-binding error and omitted from the Device, per spec §7's Config
// error-taxonomy entry ("unknown modifier kind. Logged; modifier or
// device falls back to defaults; other agents continue.").
func New(desc Descriptor) (*Device, []error) {
	d := &Device{Name: desc.Name, VLANs: desc.VLANs}
	var errs []error
	for _, md := range desc.Modifiers {
		prefix, err := oid.Parse(md.OID)
		if err != nil {
			errs = append(errs, fmt.Errorf("device %s: modifier oid %q: %w", desc.Name, md.OID, err))
			continue
		}
		props := modifier.Properties(md.Properties)
		built, err := modifier.Build(md.Class, props)
		if err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", desc.Name, err))
			continue
		}
		d.Bindings = append(d.Bindings, ModifierBinding{
			OIDPrefix:  prefix,
			Kind:       md.Class,
			Properties: props,
			built:      built,
		})
	}
	return d, errs
}

// BindingsFor returns, in descriptor order, every binding applicable to o.
// ModifiedVariable chains the returned modifiers in this same order, so
// descriptor order is the modifier application order.
func (d *Device) BindingsFor(o oid.OID) []ModifierBinding {
	var out []ModifierBinding
	for _, b := range d.Bindings {
		if b.Applicable(o) {
			out = append(out, b)
		}
	}
	return out
}

// Default returns the zero-value device named DEFAULT_DEVICE: no
// modifiers, no VLANs, matching the Agent config's documented default
// (spec §6: "device: <path?> # defaults to DEFAULT_DEVICE (no modifiers,
// no vlans)").
func Default() *Device {
	return &Device{Name: "DEFAULT_DEVICE"}
}
