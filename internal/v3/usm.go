package v3

import (
	"encoding/asn1"
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// Well-known USM report varbind OIDs, sent back as the sole varbind of a
// Report PDU when discovery or time-window validation fails (RFC 3414 §5).
const (
	USMStatsNotInTimeWindowOID = ".1.3.6.1.6.3.15.1.1.2.0"
	USMStatsUnknownEngineIDOID = ".1.3.6.1.6.3.15.1.1.4.0"
	USMStatsWrongDigestOID     = ".1.3.6.1.6.3.15.1.1.5.0"
)

// SecurityParams is the ASN.1 shape of a message's USM security
// parameters, used when this package needs to encode/decode them outside
// of gosnmp's own UsmSecurityParameters (e.g. engine-side inspection).
type SecurityParams struct {
	AuthoritativeEngineID    []byte
	AuthoritativeEngineBoots int
	AuthoritativeEngineTime  int
	UserName                 string
	AuthenticationParameters []byte
	PrivacyParameters        []byte
}

// EncodeUSMSecurityParameters BER-encodes params.
func EncodeUSMSecurityParameters(params SecurityParams) ([]byte, error) {
	raw, err := asn1.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("v3: encode usm params: %w", err)
	}
	return raw, nil
}

// DecodeUSMSecurityParameters decodes a BER-encoded USM security
// parameters structure.
func DecodeUSMSecurityParameters(data []byte) (SecurityParams, error) {
	var params SecurityParams
	if _, err := asn1.Unmarshal(data, &params); err != nil {
		return SecurityParams{}, fmt.Errorf("v3: decode usm params: %w", err)
	}
	return params, nil
}

// BuildUSMReportVar builds the single varbind of a USM Report PDU.
func BuildUSMReportVar(oid string) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Counter32, Value: uint(1)}
}
