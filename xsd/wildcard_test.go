package xsd

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var testNamespaces = []string{"", "urn:a", "urn:b", "urn:c", "urn:d"}

func genConstraint() *rapid.Generator[NamespaceConstraint] {
	return rapid.Custom(func(t *rapid.T) NamespaceConstraint {
		v := NamespaceVariety(rapid.IntRange(0, 2).Draw(t, "variety"))
		var ns []string
		if v != NamespaceAny {
			ns = rapid.SliceOfDistinct(rapid.SampledFrom(testNamespaces), rapid.ID[string]).Draw(t, "namespaces")
		}
		return NamespaceConstraint{Variety: v, Namespaces: ns}.normalize()
	})
}

func enum(ns ...string) NamespaceConstraint {
	return NamespaceConstraint{Variety: NamespaceEnumeration, Namespaces: ns}.normalize()
}

func not(ns ...string) NamespaceConstraint {
	return NamespaceConstraint{Variety: NamespaceNot, Namespaces: ns}.normalize()
}

var anyNS = NamespaceConstraint{Variety: NamespaceAny}

func TestUnionIdentities(t *testing.T) {
	assert.True(t, Union(not(), not()).Equal(anyNS), "not() ∪ not()")
	assert.True(t, Union(enum("urn:a"), enum("urn:b")).Equal(enum("urn:a", "urn:b")))
	assert.True(t, Union(not("urn:a", "urn:b"), enum("urn:a")).Equal(not("urn:b")))
	assert.True(t, Union(not("urn:a"), enum("urn:a")).Equal(anyNS))
	assert.True(t, Union(not("urn:a", "urn:b"), not("urn:b", "urn:c")).Equal(not("urn:b")))
	assert.True(t, Union(not("urn:a"), not("urn:b")).Equal(anyNS))
}

func TestIntersectIdentities(t *testing.T) {
	assert.True(t, Intersect(anyNS, enum("urn:a")).Equal(enum("urn:a")))
	assert.True(t, Intersect(not("urn:a"), enum("urn:a", "urn:b")).Equal(enum("urn:b")))
	assert.True(t, Intersect(not("urn:a"), not("urn:b")).Equal(not("urn:a", "urn:b")))
	assert.True(t, Intersect(enum("urn:a"), enum("urn:b")).Equal(enum()))
}

func TestUnionWithAny(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := genConstraint().Draw(t, "x")
		if !Union(anyNS, x).Equal(anyNS) || !Union(x, anyNS).Equal(anyNS) {
			t.Fatalf("any ∪ %s is not any", x)
		}
	})
}

func TestUnionAllowsEither(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genConstraint().Draw(t, "a")
		b := genConstraint().Draw(t, "b")
		u := Union(a, b)
		i := Intersect(a, b)
		for _, ns := range append(testNamespaces, "urn:elsewhere") {
			if got, want := u.AllowsNamespace(ns), a.AllowsNamespace(ns) || b.AllowsNamespace(ns); got != want {
				t.Fatalf("%s ∪ %s = %s; allows %q: %v, want %v", a, b, u, ns, got, want)
			}
			if got, want := i.AllowsNamespace(ns), a.AllowsNamespace(ns) && b.AllowsNamespace(ns); got != want {
				t.Fatalf("%s ∩ %s = %s; allows %q: %v, want %v", a, b, i, ns, got, want)
			}
		}
		if !u.Equal(Union(b, a)) {
			t.Fatalf("union of %s and %s is not commutative", a, b)
		}
	})
}

func TestUnionDisallowedNames(t *testing.T) {
	x := xml.Name{Space: "urn:a", Local: "x"}
	y := xml.Name{Space: "urn:a", Local: "y"}
	a := enum("urn:a")
	a.Disallowed = DisallowedNames{Names: []xml.Name{x, y}, Defined: true}
	b := enum("urn:a")
	b.Disallowed = DisallowedNames{Names: []xml.Name{x}}

	u := Union(a, b)
	assert.Equal(t, []xml.Name{x}, u.Disallowed.Names)
	assert.False(t, u.Disallowed.Defined)

	i := Intersect(a, b)
	assert.Equal(t, []xml.Name{x, y}, i.Disallowed.Names)
	assert.True(t, i.Disallowed.Defined)
}

func TestUnionWildcardKeepsProcessContents(t *testing.T) {
	local := &Wildcard{Namespace: enum("urn:a"), ProcessContents: ProcessSkip}
	base := &Wildcard{Namespace: enum("urn:b"), ProcessContents: ProcessStrict}
	w := unionWildcard(local, base)
	assert.Equal(t, ProcessSkip, w.ProcessContents)
	assert.True(t, w.Namespace.Equal(enum("urn:a", "urn:b")))
	assert.Same(t, base, unionWildcard(nil, base))
	assert.Nil(t, intersectWildcards(nil, nil))
}
