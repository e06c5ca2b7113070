// Package wire answers decoded SNMP PDUs against an assembler.Registry:
// GET, GETNEXT, GETBULK (as repeated GETNEXT per spec's §4 supplement),
// and two-phase-commit SET. It has no socket or v3 cryptography concerns
// of its own — internal/transport decodes/decrypts a packet down to a
// *gosnmp.SnmpPacket plus a resolved context string before calling
// Responder.Handle, and re-encrypts/marshals the *gosnmp.SnmpPacket this
// package returns.
package wire

import (
	"fmt"
	"log"

	"github.com/gosnmp/gosnmp"

	"github.com/snmpfleet/snmpsim/internal/assembler"
	"github.com/snmpfleet/snmpsim/internal/metrics"
	"github.com/snmpfleet/snmpsim/internal/mib"
	"github.com/snmpfleet/snmpsim/internal/mogroup"
	"github.com/snmpfleet/snmpsim/internal/oid"
)

// defaultMaxRepetitions mirrors the teacher's handleGetBulkRequest
// fallback when a requester sends MaxRepetitions <= 0.
const defaultMaxRepetitions = 10

// Responder answers PDUs against one agent's Managed Object registry.
type Responder struct {
	registry *assembler.Registry
	agent    string
	metrics  *metrics.Metrics
}

// NewResponder builds a Responder backed by registry.
func NewResponder(registry *assembler.Registry) *Responder {
	return &Responder{registry: registry}
}

// WithMetrics attaches a metrics.Metrics, recording a PDU counter per
// request and a failure counter per non-NoError response, labeled with
// agentName.
func (r *Responder) WithMetrics(agentName string, m *metrics.Metrics) *Responder {
	r.agent = agentName
	r.metrics = m
	return r
}

// Handle dispatches req by PDU type and returns the GetResponse PDU. context
// is the already-resolved community/VLAN context (spec §6: community ->
// "", community@vlan -> the VLAN's decimal string).
func (r *Responder) Handle(context string, req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket {
	var resp *gosnmp.SnmpPacket
	switch req.PDUType {
	case gosnmp.GetNextRequest:
		resp = r.handleGetNext(context, req)
	case gosnmp.GetBulkRequest:
		resp = r.handleGetBulk(context, req)
	case gosnmp.SetRequest:
		resp = r.handleSet(context, req)
	default:
		resp = r.handleGet(context, req)
	}
	r.record(req.PDUType, resp)
	return resp
}

func (r *Responder) record(pduType gosnmp.PDUType, resp *gosnmp.SnmpPacket) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordPDU(r.agent, pduTypeLabel(pduType))
	if resp.Error != gosnmp.NoError {
		r.metrics.RecordFailure(r.agent, fmt.Sprintf("%v", resp.Error))
	}
}

func pduTypeLabel(t gosnmp.PDUType) string {
	switch t {
	case gosnmp.GetNextRequest:
		return "getnext"
	case gosnmp.GetBulkRequest:
		return "getbulk"
	case gosnmp.SetRequest:
		return "set"
	default:
		return "get"
	}
}

func (r *Responder) handleGet(context string, req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket {
	vars := make([]gosnmp.SnmpPDU, 0, len(req.Variables))
	for _, v := range req.Variables {
		o, err := oid.Parse(v.Name)
		if err != nil {
			log.Printf("wire: GET: malformed oid %q: %v", v.Name, err)
			vars = append(vars, pduFor(v.Name, mib.NoSuchObject))
			continue
		}
		group := r.registry.Lookup(context, o)
		if group == nil {
			vars = append(vars, pduFor(v.Name, mib.NoSuchObject))
			continue
		}
		vars = append(vars, pduFor(v.Name, group.Get(o)))
	}
	return response(req, vars, gosnmp.NoError, 0)
}

func (r *Responder) handleGetNext(context string, req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket {
	vars := make([]gosnmp.SnmpPDU, 0, len(req.Variables))
	for _, v := range req.Variables {
		vars = append(vars, r.nextPDU(context, v.Name))
	}
	return response(req, vars, gosnmp.NoError, 0)
}

// handleGetBulk implements GETBULK purely as repeated GETNEXT, per
// SPEC_FULL.md §4's supplement: non-repeaters get one next() each;
// repeaters get MaxRepetitions chained next() calls, stopping early at
// endOfMibView.
func (r *Responder) handleGetBulk(context string, req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket {
	nonRepeaters := int(req.NonRepeaters)
	if nonRepeaters < 0 {
		nonRepeaters = 0
	}
	maxRepetitions := int(req.MaxRepetitions)
	if maxRepetitions <= 0 {
		maxRepetitions = defaultMaxRepetitions
	}

	vars := make([]gosnmp.SnmpPDU, 0, len(req.Variables)*maxRepetitions)
	for i, v := range req.Variables {
		if i < nonRepeaters {
			vars = append(vars, r.nextPDU(context, v.Name))
			continue
		}
		current := v.Name
		for rep := 0; rep < maxRepetitions; rep++ {
			pdu := r.nextPDU(context, current)
			vars = append(vars, pdu)
			if pdu.Type == gosnmp.EndOfMibView {
				break
			}
			current = pdu.Name
		}
	}
	return response(req, vars, gosnmp.NoError, 0)
}

// nextPDU resolves one GETNEXT step, walking across Managed Object group
// boundaries within context via Registry.Next.
func (r *Responder) nextPDU(context, name string) gosnmp.SnmpPDU {
	lower, err := oid.Parse(name)
	if err != nil {
		log.Printf("wire: GETNEXT: malformed oid %q: %v", name, err)
		return pduFor(name, mib.EndOfMibView)
	}
	key, value, handled := r.registry.Next(context, lower, false)
	if !handled {
		return pduFor(name, mib.EndOfMibView)
	}
	return pduFor(key.String(), value)
}

// handleSet runs the two-phase commit of spec §4.6.1 across every
// sub-request in the PDU: every Prepare must succeed before any Commit is
// attempted; a single failure aborts the whole PDU and undoes every
// binding already prepared, per RFC 3416 atomic-SET semantics. The undo
// snapshot (txn) is owned entirely by this call, not by the groups
// themselves, so a second SET PDU interleaving on the same group (spec
// §5 allows concurrent PDUs) can never see or overwrite this one's
// stashed pre-SET values.
func (r *Responder) handleSet(context string, req *gosnmp.SnmpPacket) *gosnmp.SnmpPacket {
	groups := make([]*mogroup.Group, len(req.Variables))
	oids := make([]oid.OID, len(req.Variables))
	values := make([]mib.Variable, len(req.Variables))
	prepared := make([]mogroup.Readable, len(req.Variables))
	txn := make(map[*mogroup.Group]map[string]mogroup.Readable)

	for i, v := range req.Variables {
		o, err := oid.Parse(v.Name)
		if err != nil {
			return response(req, nil, gosnmp.NoCreation, uint8(i+1))
		}
		oids[i] = o
		value, err := mib.FromGoValue(v.Type, v.Value)
		if err != nil {
			undoAll(txn)
			return response(req, nil, gosnmp.WrongValue, uint8(i+1))
		}
		values[i] = value

		group := r.registry.Lookup(context, o)
		if group == nil {
			undoAll(txn)
			return response(req, nil, gosnmp.NoCreation, uint8(i+1))
		}
		groups[i] = group

		prev, err := group.Prepare(o, values[i].Syntax())
		if err != nil {
			undoAll(txn)
			return response(req, nil, statusFor(err), uint8(i+1))
		}
		prepared[i] = prev
		if txn[group] == nil {
			txn[group] = map[string]mogroup.Readable{}
		}
		txn[group][o.String()] = prev
	}

	for i, group := range groups {
		if err := group.Commit(oids[i], prepared[i], values[i]); err != nil {
			undoAll(txn)
			return response(req, nil, gosnmp.CommitFailed, uint8(i+1))
		}
	}

	vars := make([]gosnmp.SnmpPDU, len(req.Variables))
	for i := range req.Variables {
		vars[i] = pduFor(oids[i].String(), values[i])
	}
	return response(req, vars, gosnmp.NoError, 0)
}

func undoAll(txn map[*mogroup.Group]map[string]mogroup.Readable) {
	for g, saved := range txn {
		g.Undo(saved)
	}
}

func statusFor(err error) gosnmp.SNMPError {
	switch err {
	case mogroup.ErrNoCreation:
		return gosnmp.NoCreation
	case mogroup.ErrInconsistentValue:
		return gosnmp.InconsistentValue
	case mogroup.ErrCommitFailed:
		return gosnmp.CommitFailed
	default:
		return gosnmp.GenErr
	}
}

func response(req *gosnmp.SnmpPacket, vars []gosnmp.SnmpPDU, errCode gosnmp.SNMPError, errIndex uint8) *gosnmp.SnmpPacket {
	resp := *req
	resp.PDUType = gosnmp.GetResponse
	resp.Variables = vars
	resp.Error = errCode
	resp.ErrorIndex = errIndex
	return &resp
}

func pduFor(name string, v mib.Variable) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: name, Type: v.Syntax(), Value: v.GoValue()}
}
