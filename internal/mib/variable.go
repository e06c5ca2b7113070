// Package mib implements the tagged SNMP value type (Variable) that
// backs every binding in a Managed Object group. The syntax tag is the
// gosnmp ASN.1 BER tag so values round-trip through the real wire codec
// at the transport boundary without a translation layer.
package mib

import (
	"bytes"
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// Variable is a tagged SNMP value: one of Integer32, UInt32 (Gauge32),
// Counter32, Counter64, TimeTicks, OctetString, OID, IpAddress, Null,
// Opaque, BitString. Equality is by tag+payload; Clone returns an
// independent deep copy safe to hand back to a caller that may mutate it.
type Variable struct {
	syntax gosnmp.Asn1BER
	// int64Val backs Integer32, UInt32, Counter32, TimeTicks.
	int64Val int64
	// uint64Val backs Counter64 precisely (int64Val cannot hold the full
	// unsigned range).
	uint64Val uint64
	// strVal backs OctetString, IpAddress, Opaque, BitString (bytes as
	// string) and OID (dotted-string form).
	strVal string
}

// Distinguished Null singletons, per spec §4.2.
var (
	NoSuchObject   = Variable{syntax: gosnmp.NoSuchObject}
	NoSuchInstance = Variable{syntax: gosnmp.NoSuchInstance}
	EndOfMibView   = Variable{syntax: gosnmp.EndOfMibView}
)

// Integer32 builds a signed 32-bit INTEGER variable.
func Integer32(v int32) Variable {
	return Variable{syntax: gosnmp.Integer, int64Val: int64(v)}
}

// UInt32 builds an unsigned 32-bit Gauge32 variable.
func UInt32(v uint32) Variable {
	return Variable{syntax: gosnmp.Gauge32, int64Val: int64(v)}
}

// Counter32Value builds a Counter32 variable.
func Counter32Value(v uint32) Variable {
	return Variable{syntax: gosnmp.Counter32, int64Val: int64(v)}
}

// Counter64Value builds a Counter64 variable.
func Counter64Value(v uint64) Variable {
	return Variable{syntax: gosnmp.Counter64, uint64Val: v}
}

// TimeTicksValue builds a TimeTicks (centiseconds) variable.
func TimeTicksValue(v uint32) Variable {
	return Variable{syntax: gosnmp.TimeTicks, int64Val: int64(v)}
}

// OctetStringValue builds an OctetString variable.
func OctetStringValue(v string) Variable {
	return Variable{syntax: gosnmp.OctetString, strVal: v}
}

// OIDValue builds an OBJECT IDENTIFIER-typed variable whose payload is the
// dotted-string OID it names.
func OIDValue(v string) Variable {
	return Variable{syntax: gosnmp.ObjectIdentifier, strVal: v}
}

// IPAddressValue builds an IpAddress variable (dotted-quad string payload).
func IPAddressValue(v string) Variable {
	return Variable{syntax: gosnmp.IPAddress, strVal: v}
}

// OpaqueValue builds an Opaque variable.
func OpaqueValue(v string) Variable {
	return Variable{syntax: gosnmp.Opaque, strVal: v}
}

// BitStringValue builds a BITS variable.
func BitStringValue(v string) Variable {
	return Variable{syntax: gosnmp.BitString, strVal: v}
}

// Syntax returns the variable's ASN.1 BER type tag.
func (v Variable) Syntax() gosnmp.Asn1BER { return v.syntax }

// IsNull reports whether v is one of the distinguished Null singletons.
func (v Variable) IsNull() bool {
	return v.syntax == gosnmp.NoSuchObject || v.syntax == gosnmp.NoSuchInstance || v.syntax == gosnmp.EndOfMibView
}

// Int64 returns the signed integer payload for Integer32/UInt32/Counter32/
// TimeTicks-typed variables.
func (v Variable) Int64() int64 { return v.int64Val }

// Uint64 returns the unsigned payload, valid for Counter64, and for the
// smaller unsigned types via their Int64 representation.
func (v Variable) Uint64() uint64 {
	switch v.syntax {
	case gosnmp.Counter64:
		return v.uint64Val
	default:
		if v.int64Val < 0 {
			return 0
		}
		return uint64(v.int64Val)
	}
}

// String returns the string payload for OctetString/OID/IpAddress/Opaque/
// BitString-typed variables.
func (v Variable) String() string {
	switch v.syntax {
	case gosnmp.Integer:
		return fmt.Sprintf("%d", v.int64Val)
	case gosnmp.Gauge32, gosnmp.Counter32, gosnmp.TimeTicks:
		return fmt.Sprintf("%d", uint32(v.int64Val))
	case gosnmp.Counter64:
		return fmt.Sprintf("%d", v.uint64Val)
	case gosnmp.NoSuchObject:
		return "noSuchObject"
	case gosnmp.NoSuchInstance:
		return "noSuchInstance"
	case gosnmp.EndOfMibView:
		return "endOfMibView"
	default:
		return v.strVal
	}
}

// Clone returns a deep, independent copy. Variable's payload fields are all
// value types (no shared backing arrays), so Clone is a plain value copy —
// named explicitly per spec §4.2 so call sites read as the spec's clone
// semantics rather than an implicit struct copy.
func (v Variable) Clone() Variable { return v }

// Equal reports tag+payload equality, per spec §4.2.
func (v Variable) Equal(other Variable) bool {
	if v.syntax != other.syntax {
		return false
	}
	switch v.syntax {
	case gosnmp.Counter64:
		return v.uint64Val == other.uint64Val
	case gosnmp.OctetString, gosnmp.ObjectIdentifier, gosnmp.IPAddress, gosnmp.Opaque, gosnmp.BitString:
		return v.strVal == other.strVal
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return true
	default:
		return v.int64Val == other.int64Val
	}
}

// GoValue returns the payload in the representation gosnmp.SnmpPDU.Value
// expects for this variable's syntax, for use at the wire boundary.
func (v Variable) GoValue() interface{} {
	switch v.syntax {
	case gosnmp.Integer:
		return int(v.int64Val)
	case gosnmp.Gauge32, gosnmp.Counter32, gosnmp.TimeTicks:
		return uint32(v.int64Val)
	case gosnmp.Counter64:
		return v.uint64Val
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return nil
	case gosnmp.IPAddress:
		return v.strVal
	case gosnmp.OctetString, gosnmp.Opaque, gosnmp.BitString:
		return []byte(v.strVal)
	case gosnmp.ObjectIdentifier:
		return v.strVal
	default:
		return v.strVal
	}
}

// FromGoValue builds a Variable for the given syntax tag from a raw Go
// value as produced by a decoded gosnmp.SnmpPDU, used when accepting
// incoming SET requests off the wire.
func FromGoValue(syntax gosnmp.Asn1BER, value interface{}) (Variable, error) {
	switch syntax {
	case gosnmp.Integer:
		n, err := toInt64(value)
		if err != nil {
			return Variable{}, err
		}
		return Integer32(int32(n)), nil
	case gosnmp.Gauge32:
		n, err := toInt64(value)
		if err != nil {
			return Variable{}, err
		}
		return UInt32(uint32(n)), nil
	case gosnmp.Counter32:
		n, err := toInt64(value)
		if err != nil {
			return Variable{}, err
		}
		return Counter32Value(uint32(n)), nil
	case gosnmp.TimeTicks:
		n, err := toInt64(value)
		if err != nil {
			return Variable{}, err
		}
		return TimeTicksValue(uint32(n)), nil
	case gosnmp.Counter64:
		n, err := toUint64(value)
		if err != nil {
			return Variable{}, err
		}
		return Counter64Value(n), nil
	case gosnmp.OctetString:
		return OctetStringValue(toString(value)), nil
	case gosnmp.ObjectIdentifier:
		return OIDValue(toString(value)), nil
	case gosnmp.IPAddress:
		return IPAddressValue(toString(value)), nil
	case gosnmp.Opaque:
		return OpaqueValue(toString(value)), nil
	case gosnmp.BitString:
		return BitStringValue(toString(value)), nil
	default:
		return Variable{}, fmt.Errorf("mib: unsupported syntax %v for SET value", syntax)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("mib: cannot coerce %T to integer", v)
	}
}

func toUint64(v interface{}) (uint64, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("mib: negative value not valid for unsigned type")
	}
	return uint64(n), nil
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%v", x)
		return buf.String()
	}
}
