package v3

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateEngineID derives a deterministic 16-byte SNMPv3 engineID from
// seed (e.g. an agent name), per RFC 3411 §5's enterprise-specific
// format: a 0x80 high bit plus enterprise number, followed by arbitrary
// engine-specific octets.
func GenerateEngineID(seed string) string {
	if seed == "" {
		seed = fmt.Sprintf("snmpfleet-%d", time.Now().UnixNano())
	}
	h := sha1.Sum([]byte(seed))
	return string(append([]byte{0x80, 0x00, 0x1F, 0x88}, h[:12]...))
}

// ParseEngineID accepts either a raw string or a hex-encoded ("0x...")
// engineID, as device config YAML may supply either form.
func ParseEngineID(input string) (string, error) {
	if input == "" {
		return "", nil
	}
	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(input)), "0x")
	if decoded, err := hex.DecodeString(clean); err == nil {
		return string(decoded), nil
	}
	return input, nil
}
