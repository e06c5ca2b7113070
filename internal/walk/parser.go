// Package walk parses SNMP walk dumps (the textual OID/type/value triples
// captured from a real or simulated agent) into an ordered OID→Variable
// map, per spec §4.1. Parsing is permissive: a record that cannot be
// understood is logged and skipped rather than aborting the whole file,
// matching the "network operators' dumps are irregular" policy of spec §7.
package walk

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
	"github.com/snmpfleet/snmpsim/internal/mib"
	"github.com/snmpfleet/snmpsim/internal/oid"
)

// Binding pairs an OID with its Variable, per spec §3.
type Binding struct {
	OID      oid.OID
	Variable mib.Variable
}

// Walk is an ordered collection of bindings as read from a walk file.
// Insertion order is preserved except that a duplicate OID overwrites the
// value at its original position, per spec §4.1 ("tolerate duplicate OIDs
// by keeping the last occurrence").
type Walk struct {
	order []string // dotted-OID keys, in first-seen order
	index map[string]int
	vals  map[string]Binding
}

// New returns an empty Walk.
func New() *Walk {
	return &Walk{index: map[string]int{}, vals: map[string]Binding{}}
}

// Put inserts or overwrites a binding, keeping the last occurrence's value.
func (w *Walk) Put(b Binding) {
	key := b.OID.String()
	if _, ok := w.index[key]; !ok {
		w.index[key] = len(w.order)
		w.order = append(w.order, key)
	}
	w.vals[key] = b
}

// Len reports the number of distinct OIDs in the walk.
func (w *Walk) Len() int { return len(w.order) }

// Bindings returns the bindings in first-seen order.
func (w *Walk) Bindings() []Binding {
	out := make([]Binding, 0, len(w.order))
	for _, key := range w.order {
		out = append(out, w.vals[key])
	}
	return out
}

// SortedBindings returns the bindings sorted by OID, the order the Root
// Extractor and Agent Assembler require.
func (w *Walk) SortedBindings() []Binding {
	out := w.Bindings()
	sortBindings(out)
	return out
}

func sortBindings(bs []Binding) {
	// insertion sort is adequate for typical per-agent walk sizes and keeps
	// this package dependency-free; callers with very large walks sort once
	// at load time, not per-request.
	for i := 1; i < len(bs); i++ {
		j := i
		for j > 0 && bs[j].OID.Less(bs[j-1].OID) {
			bs[j], bs[j-1] = bs[j-1], bs[j]
			j--
		}
	}
}

// ParseFile reads and parses a walk file. A missing file is a fatal error
// for the caller (spec §7: "File-missing is fatal for that agent").
func ParseFile(path string) (*Walk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("walk: read %q: %w", path, err)
	}
	return Parse(data)
}

var oidLineRe = regexp.MustCompile(`^\.?[0-9]+(\.[0-9]+)*\s*=\s*(.*)$`)

// Parse parses walk-dump text into a Walk. Per-line errors (unparsable
// records, unknown type tokens) are logged and skipped; only a structurally
// empty input yields an empty, non-error Walk.
func Parse(data []byte) (*Walk, error) {
	w := New()

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pendingOID string
	var pendingType string
	var hexBuf strings.Builder
	flushHex := func() {
		if pendingOID == "" {
			return
		}
		o, err := oid.Parse(pendingOID)
		if err != nil {
			log.Printf("walk: skipping unparsable oid %q: %v", pendingOID, err)
		} else {
			w.Put(Binding{OID: o, Variable: mib.OctetStringValue(decodeHexDump(hexBuf.String()))})
		}
		pendingOID = ""
		pendingType = ""
		hexBuf.Reset()
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		if trimmed == "" {
			continue
		}

		// Continuation lines for a multi-line hex dump are indented and do
		// not match the "<oid> = " record start.
		if pendingType == "Hex-STRING" && (raw[0] == ' ' || raw[0] == '\t') && !oidLineRe.MatchString(trimmed) {
			hexBuf.WriteString(" ")
			hexBuf.WriteString(trimmed)
			continue
		}
		flushHex()

		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		m := oidLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			log.Printf("walk: line %d: unrecognized record, skipping: %q", lineNum, trimmed)
			continue
		}

		oidPart := strings.TrimSuffix(strings.SplitN(trimmed, "=", 2)[0], " ")
		oidPart = strings.TrimSpace(oidPart)
		rhs := strings.TrimSpace(m[2])

		o, err := oid.Parse(oidPart)
		if err != nil {
			log.Printf("walk: line %d: invalid oid %q, skipping: %v", lineNum, oidPart, err)
			continue
		}

		typeTag, remainder := splitType(rhs)
		if typeTag == "Hex-STRING" {
			pendingOID = oidPart
			pendingType = typeTag
			hexBuf.Reset()
			hexBuf.WriteString(remainder)
			continue
		}

		v, ok := parseTypedValue(typeTag, remainder)
		if !ok {
			log.Printf("walk: line %d: unknown type %q for oid %s, skipping", lineNum, typeTag, oidPart)
			continue
		}
		w.Put(Binding{OID: o, Variable: v})
	}
	flushHex()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("walk: scan: %w", err)
	}

	return w, nil
}

// splitType splits "TYPE: rest" or "TYPE rest" into its type token and the
// remaining value text. Quoted-string types ("STRING \"x\"") have no colon.
func splitType(rhs string) (string, string) {
	rhs = strings.TrimSpace(rhs)
	if rhs == `""` {
		return `""`, ""
	}
	if idx := strings.Index(rhs, ":"); idx >= 0 {
		tag := strings.TrimSpace(rhs[:idx])
		// Guard against a colon inside a quoted value, e.g. STRING "a:b".
		if !strings.Contains(tag, `"`) && !strings.Contains(tag, " ") {
			return tag, strings.TrimSpace(rhs[idx+1:])
		}
	}
	fields := strings.SplitN(rhs, " ", 2)
	if len(fields) == 2 {
		return fields[0], fields[1]
	}
	return fields[0], ""
}

func parseTypedValue(typeTag, value string) (mib.Variable, bool) {
	value = strings.TrimSpace(value)
	switch typeTag {
	case "INTEGER":
		n, err := strconv.ParseInt(firstField(value), 10, 32)
		if err != nil {
			return mib.Variable{}, false
		}
		return mib.Integer32(int32(n)), true
	case "Gauge32":
		n, err := strconv.ParseUint(firstField(value), 10, 32)
		if err != nil {
			return mib.Variable{}, false
		}
		return mib.UInt32(uint32(n)), true
	case "Counter32":
		n, err := strconv.ParseUint(firstField(value), 10, 32)
		if err != nil {
			return mib.Variable{}, false
		}
		return mib.Counter32Value(uint32(n)), true
	case "Counter64":
		n, err := strconv.ParseUint(firstField(value), 10, 64)
		if err != nil {
			return mib.Variable{}, false
		}
		return mib.Counter64Value(n), true
	case "Timeticks":
		n := extractParenInt(value)
		return mib.TimeTicksValue(uint32(n)), true
	case "STRING":
		return mib.OctetStringValue(extractQuoted(value)), true
	case `""`:
		return mib.OctetStringValue(""), true
	case "OID":
		return mib.OIDValue(strings.TrimPrefix(firstField(value), ".")), true
	case "IpAddress", "Network", "Network Address":
		return mib.IPAddressValue(firstField(value)), true
	case "Hex-STRING":
		return mib.OctetStringValue(decodeHexDump(value)), true
	case "BITS":
		return mib.BitStringValue(decodeHexDump(value)), true
	default:
		return mib.Variable{}, false
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func extractQuoted(s string) string {
	start := strings.Index(s, "\"")
	end := strings.LastIndex(s, "\"")
	if start >= 0 && end > start {
		return s[start+1 : end]
	}
	return s
}

func extractParenInt(s string) int64 {
	start := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if start >= 0 && end > start {
		n, err := strconv.ParseInt(strings.TrimSpace(s[start+1:end]), 10, 64)
		if err == nil {
			return n
		}
	}
	n, err := strconv.ParseInt(firstField(s), 10, 64)
	if err == nil {
		return n
	}
	return 0
}

// decodeHexDump turns a net-snmp style "4C 69 6E 75 78" hex byte dump
// (possibly spanning continuation lines, already space-joined) into the
// raw byte string it represents. Non-hex tokens are dropped.
func decodeHexDump(s string) string {
	var b strings.Builder
	for _, tok := range strings.Fields(s) {
		tok = strings.TrimSuffix(tok, ":")
		if len(tok) != 2 {
			continue
		}
		n, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			continue
		}
		b.WriteByte(byte(n))
	}
	return b.String()
}

// Serialize renders bindings back to the single-line walk-dump form this
// package parses, for round-trip testing and debug tooling. Octet strings,
// including values parsed from Hex-STRING records, are always emitted as
// STRING records quoted with Go's %q; the Hex-STRING form is never emitted.
func Serialize(bindings []Binding) []byte {
	var b strings.Builder
	for _, bind := range bindings {
		b.WriteString(bind.OID.String())
		b.WriteString(" = ")
		b.WriteString(serializeTyped(bind.Variable))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func serializeTyped(v mib.Variable) string {
	switch v.Syntax() {
	case gosnmp.Integer:
		return fmt.Sprintf("INTEGER: %d", v.Int64())
	case gosnmp.Gauge32:
		return fmt.Sprintf("Gauge32: %d", v.Uint64())
	case gosnmp.Counter32:
		return fmt.Sprintf("Counter32: %d", v.Uint64())
	case gosnmp.Counter64:
		return fmt.Sprintf("Counter64: %d", v.Uint64())
	case gosnmp.TimeTicks:
		return fmt.Sprintf("Timeticks: (%d)", v.Uint64())
	case gosnmp.ObjectIdentifier:
		return fmt.Sprintf("OID: .%s", v.String())
	case gosnmp.IPAddress:
		return fmt.Sprintf("IpAddress: %s", v.String())
	case gosnmp.OctetString:
		if v.String() == "" {
			return `""`
		}
		return fmt.Sprintf("STRING: %q", v.String())
	case gosnmp.BitString:
		return fmt.Sprintf("BITS: %s", encodeHexDump(v.String()))
	default:
		return fmt.Sprintf("STRING: %q", v.String())
	}
}

func encodeHexDump(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", s[i])
	}
	return b.String()
}
