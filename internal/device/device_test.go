package device

import (
	"testing"

	"github.com/snmpfleet/snmpsim/internal/oid"
)

func TestNewBuildsModifierBindingsEagerly(t *testing.T) {
	desc := Descriptor{
		Name:  "switch-24port",
		VLANs: []uint64{10, 20},
		Modifiers: []ModifierDescriptor{
			{OID: "1.3.6.1.2.1.2.2.1.10", Class: "Counter32", Properties: map[string]interface{}{
				"minimum": 0, "maximum": 100, "minimumStep": 1, "maximumStep": 1,
			}},
		},
	}
	d, errs := New(desc)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(d.Bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(d.Bindings))
	}
	if d.Bindings[0].Modifier() == nil {
		t.Fatalf("expected a built Modifier, got nil")
	}
}

func TestNewOmitsUnknownModifierKindWithError(t *testing.T) {
	desc := Descriptor{
		Name: "broken",
		Modifiers: []ModifierDescriptor{
			{OID: "1.3.6.1.2.1.2.2.1.10", Class: "NotARealKind"},
		},
	}
	d, errs := New(desc)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if len(d.Bindings) != 0 {
		t.Fatalf("expected device to fall back to no bindings, got %d", len(d.Bindings))
	}
}

func TestBindingsForMatchesByPrefix(t *testing.T) {
	desc := Descriptor{
		Name: "d",
		Modifiers: []ModifierDescriptor{
			{OID: "1.3.6.1.2.1.2.2.1.10", Class: "Counter32"},
			{OID: "1.3.6.1.2.1.1", Class: "OctetString", Properties: map[string]interface{}{
				"values": []interface{}{"a", "b"},
			}},
		},
	}
	d, errs := New(desc)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	under := oid.MustParse("1.3.6.1.2.1.2.2.1.10.1")
	if got := d.BindingsFor(under); len(got) != 1 {
		t.Fatalf("got %d bindings for %s, want 1", len(got), under)
	}

	outside := oid.MustParse("1.3.6.1.4.1.9.1.0")
	if got := d.BindingsFor(outside); len(got) != 0 {
		t.Fatalf("got %d bindings for %s, want 0", len(got), outside)
	}
}

func TestDefaultDeviceHasNoBindingsOrVLANs(t *testing.T) {
	d := Default()
	if d.Name != "DEFAULT_DEVICE" || len(d.Bindings) != 0 || len(d.VLANs) != 0 {
		t.Fatalf("unexpected default device: %+v", d)
	}
}
