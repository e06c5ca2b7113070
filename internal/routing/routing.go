// Package routing selects which on-disk walk file answers a given
// request when an agent's fleet entry names a route file (SPEC_FULL.md
// §4): the community/context an inbound PDU carries, the SNMPv3 engineID
// a session decoded it under, or the UDP endpoint it arrived on can all
// steer a request at a second dataset instead of the agent's default
// one. Matching follows the same specificity order the teacher's Router
// used (engineID+context beats context beats community beats endpoint
// beats the wildcard default), generalized here to compare engineIDs in
// the same decoded raw-byte form internal/v3 itself works with, and to
// accept a source CIDR block instead of only a single exact address.
package routing

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/snmpfleet/snmpsim/internal/v3"
)

// DatasetMatch is the set of optional conditions a rule tests against an
// inbound request. A zero-value field always matches.
type DatasetMatch struct {
	Community string `yaml:"community"`
	Context   string `yaml:"context"`
	EngineID  string `yaml:"engineID"`
	SrcCIDR   string `yaml:"srcCIDR"`
	DstPort   int    `yaml:"dstPort"`
}

// DatasetRule binds one DatasetMatch to the walk file that should answer
// a request it matches.
type DatasetRule struct {
	Match    DatasetMatch `yaml:"match"`
	WalkFile string       `yaml:"walkFile"`
}

// RoutingTable is a route file's on-disk shape: an ordered list of rules,
// re-sorted by specificity once loaded.
type RoutingTable struct {
	Routes []DatasetRule `yaml:"routes"`
}

// RequestKey carries the request-derived fields a Router matches
// against. EngineID, when set, must already be in internal/v3's decoded
// raw-byte form (as v3.Session's Config.EngineID holds it) rather than
// hex text — the same form NewRouter normalizes rule engineIDs into.
type RequestKey struct {
	Community string
	Context   string
	EngineID  string
	SrcIP     net.IP
	DstPort   int
}

// compiledRule is a DatasetRule after load-time normalization: its
// engineID decoded to raw bytes and its source address parsed into a
// net.IPNet, so Select never re-parses either on the request path.
type compiledRule struct {
	match    DatasetMatch
	srcNet   *net.IPNet
	walkFile string
	priority int
}

// Router holds one route file's compiled rules, sorted most-specific
// first.
type Router struct {
	rules []compiledRule
}

// NewRouter compiles and priority-sorts rules. An EngineID matcher is
// normalized through v3.ParseEngineID so a hex-text rule (the form an
// operator would hand-write) compares equal to the raw-byte engineID a
// live v3 session carries. SrcCIDR accepts either a bare address
// (matched as a /32 or /128) or a CIDR block.
func NewRouter(rules []DatasetRule) (*Router, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.WalkFile) == "" {
			return nil, fmt.Errorf("route %d: walkFile is required", i)
		}

		match := rule.Match
		if match.EngineID != "" {
			normalized, err := v3.ParseEngineID(match.EngineID)
			if err != nil {
				return nil, fmt.Errorf("route %d: engineID: %w", i, err)
			}
			match.EngineID = normalized
		}

		var srcNet *net.IPNet
		if match.SrcCIDR != "" {
			n, err := parseCIDROrIP(match.SrcCIDR)
			if err != nil {
				return nil, fmt.Errorf("route %d: srcCIDR: %w", i, err)
			}
			srcNet = n
		}

		compiled = append(compiled, compiledRule{
			match:    match,
			srcNet:   srcNet,
			walkFile: rule.WalkFile,
			priority: rulePriority(match),
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].priority > compiled[j].priority
	})

	return &Router{rules: compiled}, nil
}

func parseCIDROrIP(s string) (*net.IPNet, error) {
	if !strings.Contains(s, "/") {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		s = fmt.Sprintf("%s/%d", s, bits)
	}
	_, ipNet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, err
	}
	return ipNet, nil
}

// LoadFromFile reads a route file's YAML RoutingTable and compiles it.
func LoadFromFile(path string) (*Router, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}

	var table RoutingTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse route yaml: %w", err)
	}

	return NewRouter(table.Routes)
}

// Select returns the walk file path of the most specific matching rule,
// or "" when nothing matches (or r is nil, meaning the agent has no
// route file at all).
func (r *Router) Select(key RequestKey) string {
	if r == nil {
		return ""
	}
	for _, rule := range r.rules {
		if rule.matches(key) {
			return rule.walkFile
		}
	}
	return ""
}

// DatasetPaths lists every distinct walk file a rule names, in rule
// order, so a caller can pre-load every alternate dataset up front.
func (r *Router) DatasetPaths() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.rules))
	out := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		if _, ok := seen[rule.walkFile]; ok {
			continue
		}
		seen[rule.walkFile] = struct{}{}
		out = append(out, rule.walkFile)
	}
	return out
}

func (c compiledRule) matches(key RequestKey) bool {
	m := c.match
	if m.Community != "" && m.Community != key.Community {
		return false
	}
	if m.Context != "" && m.Context != key.Context {
		return false
	}
	if m.EngineID != "" && m.EngineID != key.EngineID {
		return false
	}
	if c.srcNet != nil && (key.SrcIP == nil || !c.srcNet.Contains(key.SrcIP)) {
		return false
	}
	if m.DstPort != 0 && m.DstPort != key.DstPort {
		return false
	}
	return true
}

func rulePriority(m DatasetMatch) int {
	if m.EngineID != "" && m.Context != "" {
		return 5
	}
	if m.Context != "" {
		return 4
	}
	if m.Community != "" {
		return 3
	}
	if m.SrcCIDR != "" || m.DstPort != 0 {
		return 2
	}
	return 1
}
