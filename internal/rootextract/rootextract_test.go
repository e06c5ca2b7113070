package rootextract

import (
	"testing"

	"github.com/snmpfleet/snmpsim/internal/oid"
)

func parseAll(t *testing.T, ss ...string) []oid.OID {
	t.Helper()
	out := make([]oid.OID, len(ss))
	for i, s := range ss {
		out[i] = oid.MustParse(s)
	}
	return out
}

func assertInvariants(t *testing.T, input, result []oid.OID) {
	t.Helper()
	for i := 1; i < len(result); i++ {
		if !result[i-1].Less(result[i]) {
			t.Fatalf("result not strictly lex-sorted at %d: %s >= %s", i, result[i-1], result[i])
		}
	}
	for i, a := range result {
		for j, b := range result {
			if i == j {
				continue
			}
			if a.HasPrefix(b) {
				t.Fatalf("result not prefix-free: %s has prefix %s", a, b)
			}
		}
	}
	for _, o := range input {
		count := 0
		for _, r := range result {
			if o.HasPrefix(r) {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("oid %s has %d prefixes in result, want exactly 1 (result=%v)", o, count, result)
		}
	}
}

func TestRootExtractScenario4Invariants(t *testing.T) {
	input := parseAll(t,
		"1.3.6.1.2.1.1.1.0",
		"1.3.6.1.2.1.1.2.0",
		"1.3.6.1.4.1.9.1.0",
	)
	result := Extract(input)
	assertInvariants(t, input, result)
}

func TestRootExtractTwoSiblingsOneRoot(t *testing.T) {
	input := parseAll(t, "1.3.6.1.2.1.1.1.0", "1.3.6.1.2.1.1.2.0")
	result := Extract(input)
	if len(result) != 1 {
		t.Fatalf("got %d roots, want 1: %v", len(result), result)
	}
	if got, want := result[0].String(), "1.3.6.1.2.1.1"; got != want {
		t.Fatalf("root = %s, want %s", got, want)
	}
	assertInvariants(t, input, result)
}

func TestRootExtractEmpty(t *testing.T) {
	if got := Extract(nil); got != nil {
		t.Fatalf("expected nil result for empty input, got %v", got)
	}
}

func TestRootExtractSingleton(t *testing.T) {
	input := parseAll(t, "1.3.6.1.2.1.1.1.0")
	result := Extract(input)
	if len(result) != 1 || !result[0].Equal(input[0]) {
		t.Fatalf("expected singleton's own oid as its root, got %v", result)
	}
	assertInvariants(t, input, result)
}

func TestRootExtractThreeDisjointSubtrees(t *testing.T) {
	input := parseAll(t,
		"1.3.6.1.2.1.1.1.0",
		"1.3.6.1.2.1.2.2.1.10.1",
		"1.3.6.1.2.1.2.2.1.10.2",
		"1.3.6.1.4.1.8072.3.2.10",
	)
	result := Extract(input)
	assertInvariants(t, input, result)
}

func TestRootExtractDuplicateOIDsTolerated(t *testing.T) {
	input := parseAll(t,
		"1.3.6.1.2.1.1.1.0",
		"1.3.6.1.2.1.1.1.0",
		"1.3.6.1.2.1.1.2.0",
	)
	result := Extract(input)
	assertInvariants(t, input, result)
}
