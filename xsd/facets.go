package xsd

import (
	"encoding/xml"
	"fmt"
	"math/big"
	"strings"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

// FacetKind identifies a constraining facet.
type FacetKind int

const (
	FacetLength FacetKind = iota
	FacetMinLength
	FacetMaxLength
	FacetPattern
	FacetEnumeration
	FacetWhiteSpace
	FacetMaxInclusive
	FacetMaxExclusive
	FacetMinInclusive
	FacetMinExclusive
	FacetTotalDigits
	FacetFractionDigits
	FacetAssertions
	FacetExplicitTimezone
	numFacets
)

var facetNames = [numFacets]string{
	"length", "minLength", "maxLength", "pattern", "enumeration",
	"whiteSpace", "maxInclusive", "maxExclusive", "minInclusive",
	"minExclusive", "totalDigits", "fractionDigits", "assertion",
	"explicitTimezone",
}

func (k FacetKind) String() string {
	if k < 0 || k >= numFacets {
		return "unknown facet"
	}
	return facetNames[k]
}

func parseFacetKind(local string) (FacetKind, bool) {
	for i, name := range facetNames {
		if name == local {
			return FacetKind(i), true
		}
	}
	return -1, false
}

// multiValued facets may be declared several times in one restriction,
// and have no fixed attribute.
func (k FacetKind) multiValued() bool {
	return k == FacetPattern || k == FacetEnumeration || k == FacetAssertions
}

// A Facet constrains the values of a simple type. A marker Facet carries
// no value; it records that facets of its kind may be applied by further
// restriction.
type Facet struct {
	node   *xmltree.Element
	Kind   FacetKind
	Marker bool
	Fixed  bool
	// The value of single-valued kinds.
	Value string
	// The alternatives of a pattern, each a regular expression a value
	// must match, or the values of an enumeration.
	Values     []string
	Assertions []*Assertion
}

func (f *Facet) Node() *xmltree.Element { return f.node }

func (f *Facet) String() string {
	switch {
	case f.Marker:
		return f.Kind.String() + "=?"
	case f.Kind == FacetPattern || f.Kind == FacetEnumeration:
		return fmt.Sprintf("%s=%q", f.Kind, f.Values)
	case f.Kind == FacetAssertions:
		tests := make([]string, len(f.Assertions))
		for i, a := range f.Assertions {
			tests[i] = a.Test
		}
		return fmt.Sprintf("%s=%q", f.Kind, tests)
	case f.Fixed:
		return fmt.Sprintf("%s=%s (fixed)", f.Kind, f.Value)
	}
	return fmt.Sprintf("%s=%s", f.Kind, f.Value)
}

// Facets is an ordered set of facets with at most one entry per kind.
type Facets []*Facet

// Get returns the facet of the given kind, concrete or marker, or nil.
func (fs Facets) Get(kind FacetKind) *Facet {
	for _, f := range fs {
		if f.Kind == kind {
			return f
		}
	}
	return nil
}

// Value returns the value of a concrete single-valued facet.
func (fs Facets) Value(kind FacetKind) (string, bool) {
	if f := fs.Get(kind); f != nil && !f.Marker {
		return f.Value, true
	}
	return "", false
}

// Allows reports whether facets of the given kind may be applied when
// restricting a type with these facets.
func (fs Facets) Allows(kind FacetKind) bool { return fs.Get(kind) != nil }

func (fs Facets) String() string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func markers(kinds ...FacetKind) Facets {
	fs := make(Facets, len(kinds))
	for i, k := range kinds {
		fs[i] = &Facet{Kind: k, Marker: true}
	}
	return fs
}

// combineFacets restricts the facets of a base type with the facets
// declared on a restriction. Declared facets come first, in declaration
// order, followed by the base facets of every kind not redeclared.
//
// All patterns of one restriction are joined into one alternative that
// is kept next to the base's patterns. All enumeration values, mapped
// through lexical, form one facet. Assertions are appended to those of
// the base. Every other facet must be allowed by base, must not change
// a fixed value, and must not widen the base's value space.
func combineFacets(base Facets, declared []*Facet, baseName xml.Name, lexical func(string, *xmltree.Element) string) (Facets, error) {
	var (
		result   Facets
		consumed = make(map[FacetKind]bool)
		patterns []string
		enums    []string
		asserts  []*Assertion
		seen     = make(map[string]bool)
		first    = make(map[FacetKind]*xmltree.Element)
	)
	for _, d := range declared {
		if _, ok := first[d.Kind]; !ok {
			first[d.Kind] = d.node
		}
		switch d.Kind {
		case FacetPattern:
			patterns = append(patterns, d.Value)
		case FacetEnumeration:
			v := d.Value
			if lexical != nil {
				v = lexical(v, d.node)
			}
			if !seen[v] {
				seen[v] = true
				enums = append(enums, v)
			}
		case FacetAssertions:
			asserts = append(asserts, d.Assertions...)
		}
	}

	for _, d := range declared {
		if consumed[d.Kind] {
			if d.Kind.multiValued() {
				continue
			}
			return nil, grammarError(d.node, "%s may only be given once in a restriction", d.Kind)
		}
		consumed[d.Kind] = true
		b := base.Get(d.Kind)

		switch d.Kind {
		case FacetPattern:
			f := &Facet{node: first[FacetPattern], Kind: FacetPattern}
			if b != nil && !b.Marker {
				f.Values = append(f.Values, b.Values...)
			}
			f.Values = append(f.Values, strings.Join(patterns, "|"))
			result = append(result, f)
			continue
		case FacetEnumeration:
			result = append(result, &Facet{node: first[FacetEnumeration], Kind: FacetEnumeration, Values: enums})
			continue
		case FacetAssertions:
			f := &Facet{node: first[FacetAssertions], Kind: FacetAssertions}
			if b != nil && !b.Marker {
				f.Assertions = append(f.Assertions, b.Assertions...)
			}
			f.Assertions = append(f.Assertions, asserts...)
			result = append(result, f)
			continue
		}

		if b == nil {
			return nil, &DisallowedFacetError{Site: at(d.node), Facet: d.Kind, Base: baseName}
		}
		f := &Facet{node: d.node, Kind: d.Kind, Value: d.Value, Fixed: d.Fixed}
		if !b.Marker {
			if b.Fixed && !sameFacetValue(b.Value, d.Value) {
				return nil, &FixedFacetViolationError{Site: at(d.node), Facet: d.Kind, Base: b.Value, Value: d.Value}
			}
			f.Fixed = f.Fixed || b.Fixed
		}
		if err := checkNarrowing(f, base); err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	for _, b := range base {
		if !consumed[b.Kind] {
			result = append(result, b)
		}
	}
	return result, nil
}

func sameFacetValue(a, b string) bool {
	if x, ok := decimal(a); ok {
		if y, ok := decimal(b); ok {
			return x.Cmp(y) == 0
		}
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func decimal(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "/eE") {
		return nil, false
	}
	return new(big.Rat).SetString(strings.TrimPrefix(s, "+"))
}

var whiteSpaceOrder = map[string]int{"preserve": 0, "replace": 1, "collapse": 2}

// checkNarrowing reports a FacetRestrictionError if f admits values
// that base does not.
func checkNarrowing(f *Facet, base Facets) error {
	widens := func(b *Facet, msg string) error {
		return &FacetRestrictionError{Site: at(f.node), Facet: f.Kind, Base: b.Value, Value: f.Value, Message: msg}
	}
	concrete := func(kind FacetKind) *Facet {
		if b := base.Get(kind); b != nil && !b.Marker {
			return b
		}
		return nil
	}
	cmp := func(a, b string) (int, bool) {
		x, ok1 := decimal(a)
		y, ok2 := decimal(b)
		if !ok1 || !ok2 {
			return 0, false
		}
		return x.Cmp(y), true
	}

	switch f.Kind {
	case FacetWhiteSpace:
		if b := concrete(FacetWhiteSpace); b != nil && whiteSpaceOrder[f.Value] < whiteSpaceOrder[b.Value] {
			return widens(b, "is less restrictive than")
		}
	case FacetExplicitTimezone:
		if b := concrete(FacetExplicitTimezone); b != nil && b.Value != "optional" && b.Value != f.Value {
			return widens(b, "conflicts with")
		}
	case FacetLength:
		if b := concrete(FacetLength); b != nil {
			if c, ok := cmp(f.Value, b.Value); ok && c != 0 {
				return widens(b, "differs from")
			}
		}
		if b := concrete(FacetMaxLength); b != nil {
			if c, ok := cmp(f.Value, b.Value); ok && c > 0 {
				return widens(b, "exceeds the maxLength")
			}
		}
		if b := concrete(FacetMinLength); b != nil {
			if c, ok := cmp(f.Value, b.Value); ok && c < 0 {
				return widens(b, "is below the minLength")
			}
		}
	case FacetMaxLength, FacetTotalDigits, FacetFractionDigits:
		if b := concrete(f.Kind); b != nil {
			if c, ok := cmp(f.Value, b.Value); ok && c > 0 {
				return widens(b, "exceeds")
			}
		}
		if f.Kind == FacetMaxLength {
			if b := concrete(FacetLength); b != nil {
				if c, ok := cmp(f.Value, b.Value); ok && c > 0 {
					return widens(b, "exceeds the length")
				}
			}
		}
	case FacetMinLength:
		if b := concrete(FacetMinLength); b != nil {
			if c, ok := cmp(f.Value, b.Value); ok && c < 0 {
				return widens(b, "is below")
			}
		}
		if b := concrete(FacetLength); b != nil {
			if c, ok := cmp(f.Value, b.Value); ok && c < 0 {
				return widens(b, "is below the length")
			}
		}
	case FacetMaxInclusive, FacetMaxExclusive:
		inclusive := f.Kind == FacetMaxInclusive
		for _, kind := range []FacetKind{FacetMaxInclusive, FacetMaxExclusive} {
			b := concrete(kind)
			if b == nil {
				continue
			}
			if c, ok := cmp(f.Value, b.Value); ok && (c > 0 || c == 0 && inclusive && kind == FacetMaxExclusive) {
				return widens(b, "exceeds the upper bound")
			}
		}
	case FacetMinInclusive, FacetMinExclusive:
		inclusive := f.Kind == FacetMinInclusive
		for _, kind := range []FacetKind{FacetMinInclusive, FacetMinExclusive} {
			b := concrete(kind)
			if b == nil {
				continue
			}
			if c, ok := cmp(f.Value, b.Value); ok && (c < 0 || c == 0 && inclusive && kind == FacetMinExclusive) {
				return widens(b, "is below the lower bound")
			}
		}
	}
	return nil
}

// normalizeSpace applies a whiteSpace facet value to s.
func normalizeSpace(s, mode string) string {
	switch mode {
	case "replace":
		return strings.Map(func(r rune) rune {
			if r == '\t' || r == '\n' || r == '\r' {
				return ' '
			}
			return r
		}, s)
	case "collapse":
		return strings.Join(strings.Fields(s), " ")
	}
	return s
}

// Ordered is the ordered fundamental facet.
type Ordered int

const (
	OrderedFalse Ordered = iota
	OrderedPartial
	OrderedTotal
)

func (o Ordered) String() string {
	return [...]string{"false", "partial", "total"}[o]
}

// FundamentalFacets are the read-only properties of a simple type's value
// space.
type FundamentalFacets struct {
	Ordered Ordered
	Bounded bool
	// Finite is false for countably infinite value spaces.
	Finite  bool
	Numeric bool
}
