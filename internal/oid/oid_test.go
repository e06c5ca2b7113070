package oid

import "testing"

func TestParseAndString(t *testing.T) {
	o, err := Parse(".1.3.6.1.2.1.1.1.0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := o.String(), "1.3.6.1.2.1.1.1.0"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestCompareNumericNotLexical(t *testing.T) {
	nine := MustParse("1.3.6.9")
	ten := MustParse("1.3.6.10")
	if !nine.Less(ten) {
		t.Fatalf("expected 1.3.6.9 < 1.3.6.10 numerically")
	}
}

func TestComparePrefixShorterFirst(t *testing.T) {
	short := MustParse("1.3.6")
	long := MustParse("1.3.6.1")
	if !short.Less(long) {
		t.Fatalf("expected shorter prefix to sort first")
	}
}

func TestLeftMostCompare(t *testing.T) {
	a := MustParse("1.3.6.1.2.1.1.1.0")
	b := MustParse("1.3.6.1.2.99.99")
	if !a.LeftMostCompare(5, b) {
		t.Fatalf("expected first 5 subids to match")
	}
	if a.LeftMostCompare(6, b) {
		t.Fatalf("expected 6th subid to differ")
	}
}

func TestNextPeer(t *testing.T) {
	o := MustParse("1.3.6.1.1")
	next := o.NextPeer()
	if got, want := next.String(), "1.3.6.1.2"; got != want {
		t.Fatalf("NextPeer() = %q, want %q", got, want)
	}
	if !o.Less(next) {
		t.Fatalf("NextPeer must be strictly greater")
	}
	if next.Len() != o.Len() {
		t.Fatalf("NextPeer must preserve length")
	}
}

func TestHasPrefix(t *testing.T) {
	root := MustParse("1.3.6.1.2.1.1")
	child := MustParse("1.3.6.1.2.1.1.1.0")
	if !child.HasPrefix(root) {
		t.Fatalf("expected child to have root as prefix")
	}
	if root.HasPrefix(child) {
		t.Fatalf("root should not have the longer child as prefix")
	}
}

func TestMOScopeContainsHalfOpen(t *testing.T) {
	root := MustParse("1.3.6.1.2.1.1")
	scope := RootScope(root, "")
	if !scope.Contains(root) {
		t.Fatalf("lower bound should be inclusive")
	}
	if !scope.Contains(MustParse("1.3.6.1.2.1.1.99.99")) {
		t.Fatalf("descendant should be in scope")
	}
	if scope.Contains(scope.Upper) {
		t.Fatalf("upper bound must be exclusive")
	}
}

func TestMOScopeIntersects(t *testing.T) {
	a := RootScope(MustParse("1.3.6.1.2.1.1"), "")
	b := RootScope(MustParse("1.3.6.1.2.1.1.1"), "")
	if !a.Intersects(b) {
		t.Fatalf("nested scopes should intersect")
	}
	c := RootScope(MustParse("1.3.6.1.2.1.2"), "")
	if a.Intersects(c) {
		t.Fatalf("disjoint scopes should not intersect")
	}
	d := RootScope(MustParse("1.3.6.1.2.1.1"), "vlan10")
	if a.Intersects(d) {
		t.Fatalf("same interval but different context must not intersect")
	}
}
