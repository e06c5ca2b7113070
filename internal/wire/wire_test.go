package wire

import (
	"testing"

	"github.com/gosnmp/gosnmp"

	"github.com/snmpfleet/snmpsim/internal/assembler"
	"github.com/snmpfleet/snmpsim/internal/device"
	"github.com/snmpfleet/snmpsim/internal/mib"
	"github.com/snmpfleet/snmpsim/internal/oid"
	"github.com/snmpfleet/snmpsim/internal/walk"
)

func binding(o string, v mib.Variable) walk.Binding {
	return walk.Binding{OID: oid.MustParse(o), Variable: v}
}

func agentFor(raw []walk.Binding) *assembler.Agent {
	return assembler.Assemble("agent1", "public", raw, device.Default())
}

func TestHandleGetBasicScenario1(t *testing.T) {
	// spec §8 scenario 1.
	raw := []walk.Binding{binding("1.3.6.1.2.1.1.1.0", mib.OctetStringValue("x"))}
	a := agentFor(raw)
	r := NewResponder(a.Registry)

	req := &gosnmp.SnmpPacket{
		Version:   gosnmp.Version2c,
		PDUType:   gosnmp.GetRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0"}},
	}
	resp := r.Handle("", req)
	if resp.Error != gosnmp.NoError {
		t.Fatalf("unexpected error status %v", resp.Error)
	}
	if string(resp.Variables[0].Value.([]byte)) != "x" {
		t.Fatalf("got %v, want x", resp.Variables[0].Value)
	}
}

func TestHandleGetNextPastEndScenario2(t *testing.T) {
	raw := []walk.Binding{binding("1.3.6.1.2.1.1.1.0", mib.OctetStringValue("x"))}
	a := agentFor(raw)
	r := NewResponder(a.Registry)

	req := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.GetNextRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0"}},
	}
	resp := r.Handle("", req)
	if resp.Variables[0].Type != gosnmp.EndOfMibView {
		t.Fatalf("got type %v, want endOfMibView", resp.Variables[0].Type)
	}
}

func TestHandleGetNextAcrossSubtreeBoundaryScenario3(t *testing.T) {
	// spec §8 scenario 3: GETNEXT must walk correctly across a boundary
	// between two OIDs under unrelated subtrees, whether the assembler
	// placed them in one root-extracted group or several.
	raw := []walk.Binding{
		binding("1.3.6.1.2.1.1.1.0", mib.OctetStringValue("x")),
		binding("1.3.6.1.2.1.25.1.0", mib.Integer32(3)),
	}
	a := agentFor(raw)
	r := NewResponder(a.Registry)

	req := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.GetNextRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1"}},
	}
	resp := r.Handle("", req)
	if resp.Variables[0].Name != "1.3.6.1.2.1.1.1.0" {
		t.Fatalf("got next oid %s, want 1.3.6.1.2.1.1.1.0", resp.Variables[0].Name)
	}

	req2 := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.GetNextRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0"}},
	}
	resp2 := r.Handle("", req2)
	if resp2.Variables[0].Name != "1.3.6.1.2.1.25.1.0" {
		t.Fatalf("got next oid %s, want crossing into the second root 1.3.6.1.2.1.25.1.0", resp2.Variables[0].Name)
	}
}

func TestHandleGetBulkChainsRepeaters(t *testing.T) {
	raw := []walk.Binding{
		binding("1.3.6.1.2.1.2.2.1.10.1", mib.Counter32Value(1)),
		binding("1.3.6.1.2.1.2.2.1.10.2", mib.Counter32Value(2)),
		binding("1.3.6.1.2.1.2.2.1.10.3", mib.Counter32Value(3)),
	}
	a := agentFor(raw)
	r := NewResponder(a.Registry)

	req := &gosnmp.SnmpPacket{
		PDUType:        gosnmp.GetBulkRequest,
		NonRepeaters:   0,
		MaxRepetitions: 2,
		Variables:      []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.10"}},
	}
	resp := r.Handle("", req)
	if len(resp.Variables) != 2 {
		t.Fatalf("got %d vars, want 2", len(resp.Variables))
	}
	if resp.Variables[0].Name != "1.3.6.1.2.1.2.2.1.10.1" || resp.Variables[1].Name != "1.3.6.1.2.1.2.2.1.10.2" {
		t.Fatalf("unexpected bulk sequence: %v", resp.Variables)
	}
}

func TestHandleGetBulkStopsAtEndOfMibView(t *testing.T) {
	raw := []walk.Binding{binding("1.3.6.1.2.1.2.2.1.10.1", mib.Counter32Value(1))}
	a := agentFor(raw)
	r := NewResponder(a.Registry)

	req := &gosnmp.SnmpPacket{
		PDUType:        gosnmp.GetBulkRequest,
		MaxRepetitions: 5,
		Variables:      []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.2.2.1.10"}},
	}
	resp := r.Handle("", req)
	if len(resp.Variables) != 2 {
		t.Fatalf("got %d vars, want 2 (one value, one endOfMibView)", len(resp.Variables))
	}
	if resp.Variables[1].Type != gosnmp.EndOfMibView {
		t.Fatalf("expected the chain to stop at endOfMibView, got %v", resp.Variables[1].Type)
	}
}

func TestHandleSetTwoPhaseCommitScenario6(t *testing.T) {
	raw := []walk.Binding{binding("1.3.6.1.2.1.1.9.0", mib.Integer32(5))}
	a := agentFor(raw)
	r := NewResponder(a.Registry)

	// SET with mismatched syntax must fail and leave the value unchanged.
	badReq := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.SetRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.9.0", Type: gosnmp.OctetString, Value: []byte("hello")}},
	}
	resp := r.Handle("", badReq)
	if resp.Error == gosnmp.NoError {
		t.Fatalf("expected a non-success error status for a mismatched-syntax SET")
	}

	getReq := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.GetRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.9.0"}},
	}
	resp = r.Handle("", getReq)
	if resp.Variables[0].Value.(int) != 5 {
		t.Fatalf("failed SET must not change the value: got %v, want 5", resp.Variables[0].Value)
	}

	// a well-formed SET succeeds and is visible to a subsequent GET.
	goodReq := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.SetRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.9.0", Type: gosnmp.Integer, Value: 7}},
	}
	resp = r.Handle("", goodReq)
	if resp.Error != gosnmp.NoError {
		t.Fatalf("got error %v, want NoError", resp.Error)
	}

	resp = r.Handle("", getReq)
	if resp.Variables[0].Value.(int) != 7 {
		t.Fatalf("got %v, want 7", resp.Variables[0].Value)
	}
}

func TestHandleSetMissingOIDIsNoCreation(t *testing.T) {
	a := agentFor(nil)
	r := NewResponder(a.Registry)
	req := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.SetRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.9.0", Type: gosnmp.Integer, Value: 7}},
	}
	resp := r.Handle("", req)
	if resp.Error != gosnmp.NoCreation {
		t.Fatalf("got error %v, want NoCreation", resp.Error)
	}
}

func TestHandleGetMissingOIDIsNoSuchObject(t *testing.T) {
	a := agentFor(nil)
	r := NewResponder(a.Registry)
	req := &gosnmp.SnmpPacket{
		PDUType:   gosnmp.GetRequest,
		Variables: []gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.1.0"}},
	}
	resp := r.Handle("", req)
	if resp.Variables[0].Type != gosnmp.NoSuchObject {
		t.Fatalf("got type %v, want noSuchObject", resp.Variables[0].Type)
	}
}
