// Package walkdiff compares two walk files OID-by-OID, reporting
// additions, removals, and value mismatches. It backs the `diff-walks`
// debug subcommand: a quick way to see what changed between two
// recordings of the same device, or between a hand-edited walk file and
// its original.
package walkdiff

import (
	"fmt"

	"github.com/snmpfleet/snmpsim/internal/oid"
	"github.com/snmpfleet/snmpsim/internal/walk"
)

// Difference describes one OID whose presence or value differs between
// the left and right walk files.
type Difference struct {
	OID        string
	Kind       string // "missing-in-right", "missing-in-left", or "value-mismatch"
	LeftValue  string
	RightValue string
}

// Result is the outcome of comparing two walk files.
type Result struct {
	LeftCount  int
	RightCount int
	Diffs      []Difference
}

// Identical reports whether the two walks held exactly the same OIDs
// with exactly the same values.
func (r Result) Identical() bool {
	return len(r.Diffs) == 0
}

// CompareFiles parses leftPath and rightPath as walk files and diffs
// their bindings, sorted by OID so the output reads like a merged walk.
func CompareFiles(leftPath, rightPath string) (Result, error) {
	left, err := walk.ParseFile(leftPath)
	if err != nil {
		return Result{}, fmt.Errorf("walkdiff: read left file: %w", err)
	}
	right, err := walk.ParseFile(rightPath)
	if err != nil {
		return Result{}, fmt.Errorf("walkdiff: read right file: %w", err)
	}
	return Compare(left, right), nil
}

// Compare diffs two already-parsed walks.
func Compare(left, right *walk.Walk) Result {
	leftMap := bindingMap(left)
	rightMap := bindingMap(right)

	keys := mergedKeys(leftMap, rightMap)

	diffs := make([]Difference, 0)
	for _, key := range keys {
		l, leftOK := leftMap[key]
		r, rightOK := rightMap[key]

		switch {
		case leftOK && !rightOK:
			diffs = append(diffs, Difference{OID: key, Kind: "missing-in-right", LeftValue: l.Variable.String()})
		case !leftOK && rightOK:
			diffs = append(diffs, Difference{OID: key, Kind: "missing-in-left", RightValue: r.Variable.String()})
		case l.Variable.String() != r.Variable.String():
			diffs = append(diffs, Difference{OID: key, Kind: "value-mismatch", LeftValue: l.Variable.String(), RightValue: r.Variable.String()})
		}
	}

	return Result{LeftCount: left.Len(), RightCount: right.Len(), Diffs: diffs}
}

func bindingMap(w *walk.Walk) map[string]walk.Binding {
	out := make(map[string]walk.Binding, w.Len())
	for _, b := range w.Bindings() {
		out[b.OID.String()] = b
	}
	return out
}

func mergedKeys(left, right map[string]walk.Binding) []string {
	oids := make([]oid.OID, 0, len(left)+len(right))
	seen := make(map[string]struct{}, len(left)+len(right))
	add := func(m map[string]walk.Binding) {
		for key, b := range m {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			oids = append(oids, b.OID)
		}
	}
	add(left)
	add(right)

	for i := 1; i < len(oids); i++ {
		j := i
		for j > 0 && oids[j].Less(oids[j-1]) {
			oids[j], oids[j-1] = oids[j-1], oids[j]
			j--
		}
	}

	keys := make([]string, len(oids))
	for i, o := range oids {
		keys[i] = o.String()
	}
	return keys
}
