// Package oid implements the immutable Object Identifier type and the
// half-open OID range (MOScope) that the managed-object store is built on.
package oid

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is an immutable, ordered sequence of non-negative 32-bit
// subidentifiers. Values are compared lexicographically subidentifier by
// subidentifier, with a shorter sequence ordering before a longer one that
// shares its prefix.
type OID struct {
	sub []uint32
}

// New builds an OID from subidentifiers, copying the slice so the result is
// safe to share.
func New(sub ...uint32) OID {
	cp := make([]uint32, len(sub))
	copy(cp, sub)
	return OID{sub: cp}
}

// Parse converts a dotted-decimal string ("1.3.6.1.2.1.1.1.0") into an OID.
// A leading '.' is tolerated and stripped, matching walk-file and
// command-line conventions.
func Parse(s string) (OID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return OID{}, nil
	}
	parts := strings.Split(s, ".")
	sub := make([]uint32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return OID{}, fmt.Errorf("invalid subidentifier %q in oid %q: %w", p, s, err)
		}
		sub[i] = uint32(n)
	}
	return OID{sub: sub}, nil
}

// MustParse is Parse but panics on error; intended for constant OIDs built
// at init time.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// String renders the OID in dotted-decimal form, without a leading dot.
func (o OID) String() string {
	if len(o.sub) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range o.sub {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(s), 10))
	}
	return b.String()
}

// Len returns the number of subidentifiers.
func (o OID) Len() int { return len(o.sub) }

// SubIdentifiers returns a defensive copy of the subidentifier slice.
func (o OID) SubIdentifiers() []uint32 {
	cp := make([]uint32, len(o.sub))
	copy(cp, o.sub)
	return cp
}

// IsZero reports whether the OID has no subidentifiers.
func (o OID) IsZero() bool { return len(o.sub) == 0 }

// Compare returns -1, 0, or 1 as o is less than, equal to, or greater than
// other, comparing subidentifiers left to right; a shorter OID that is a
// strict prefix of a longer one sorts first.
func (o OID) Compare(other OID) int {
	n := len(o.sub)
	if len(other.sub) < n {
		n = len(other.sub)
	}
	for i := 0; i < n; i++ {
		if o.sub[i] != other.sub[i] {
			if o.sub[i] < other.sub[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(o.sub) < len(other.sub):
		return -1
	case len(o.sub) > len(other.sub):
		return 1
	default:
		return 0
	}
}

// Less reports whether o sorts strictly before other.
func (o OID) Less(other OID) bool { return o.Compare(other) < 0 }

// Equal reports whether o and other have identical subidentifiers.
func (o OID) Equal(other OID) bool { return o.Compare(other) == 0 }

// LeftMostCompare compares only the first n subidentifiers of o and other,
// per spec §3. Reports true iff they are equal over that prefix; an OID
// shorter than n is padded conceptually by comparing only up to its own
// length, so a shorter OID matches iff it is itself a prefix of the
// comparison up to min(len, n).
func (o OID) LeftMostCompare(n int, other OID) bool {
	if n > len(o.sub) {
		n = len(o.sub)
	}
	if n > len(other.sub) {
		return false
	}
	for i := 0; i < n; i++ {
		if o.sub[i] != other.sub[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix's subidentifiers are a prefix of o's.
func (o OID) HasPrefix(prefix OID) bool {
	if prefix.Len() > o.Len() {
		return false
	}
	return o.LeftMostCompare(prefix.Len(), prefix)
}

// Prefix returns the first n subidentifiers of o as a new OID. Panics if n
// is out of range, mirroring slice semantics.
func (o OID) Prefix(n int) OID {
	return New(o.sub[:n]...)
}

// NextPeer returns the smallest OID strictly greater than o under
// lexicographic order that shares o's prefix of length Len()-1 — i.e. the
// same length with the last subidentifier incremented by one. For the
// empty OID, NextPeer returns an OID with a single subidentifier of 1 (the
// smallest OID strictly greater than nothing at the root).
func (o OID) NextPeer() OID {
	if len(o.sub) == 0 {
		return New(1)
	}
	cp := o.SubIdentifiers()
	cp[len(cp)-1]++
	return New(cp...)
}

// Append returns a new OID formed by concatenating additional
// subidentifiers onto o.
func (o OID) Append(sub ...uint32) OID {
	cp := make([]uint32, 0, len(o.sub)+len(sub))
	cp = append(cp, o.sub...)
	cp = append(cp, sub...)
	return New(cp...)
}

// MOScope is a half-open OID interval [Lower, Upper) optionally qualified
// by a context name, per spec §3.
type MOScope struct {
	Lower          OID
	Upper          OID
	LowerInclusive bool
	UpperInclusive bool
	Context        string
}

// RootScope builds the canonical [root, root.NextPeer()) scope a
// registered MO Group occupies, lower-inclusive, upper-exclusive.
func RootScope(root OID, context string) MOScope {
	return MOScope{
		Lower:          root,
		Upper:          root.NextPeer(),
		LowerInclusive: true,
		UpperInclusive: false,
		Context:        context,
	}
}

// Contains reports whether o falls within the scope.
func (s MOScope) Contains(o OID) bool {
	cl := o.Compare(s.Lower)
	if cl < 0 || (cl == 0 && !s.LowerInclusive) {
		return false
	}
	cu := o.Compare(s.Upper)
	if cu > 0 || (cu == 0 && !s.UpperInclusive) {
		return false
	}
	return true
}

// Intersects reports whether two scopes overlap and share a context, per
// spec §3: "Two scopes intersect iff their intervals overlap and contexts
// match."
func (s MOScope) Intersects(other MOScope) bool {
	if s.Context != other.Context {
		return false
	}
	// Intervals [s.Lower, s.Upper) and [other.Lower, other.Upper) with
	// inclusion flags at their respective boundaries only (the far bound of
	// a registered scope is always exclusive in practice, but the general
	// interval test below does not assume that).
	loCmp := s.Lower.Compare(other.Upper)
	if loCmp > 0 || (loCmp == 0 && !(s.LowerInclusive && other.UpperInclusive)) {
		return false
	}
	hiCmp := other.Lower.Compare(s.Upper)
	if hiCmp > 0 || (hiCmp == 0 && !(other.LowerInclusive && s.UpperInclusive)) {
		return false
	}
	return true
}
