package xsd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRestrictionKeepsInheritedFacets(t *testing.T) {
	s := mustCompile(t, `
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	  <xs:simpleType name="A">
	    <xs:restriction base="xs:string"><xs:maxLength value="5"/></xs:restriction>
	  </xs:simpleType>
	</xs:schema>`)

	types := s.Types()
	require.Len(t, types, 1)
	a, ok := s.FindType(name("", "A"))
	require.True(t, ok)
	st := a.(*SimpleType)
	assert.Same(t, String.Type(), st.BaseType())
	assert.Equal(t, VarietyAtomic, st.Variety())
	assert.Same(t, String.Type(), st.Primitive())

	v, ok := st.Facets().Value(FacetMaxLength)
	assert.True(t, ok)
	assert.Equal(t, "5", v)
	v, ok = st.Facets().Value(FacetWhiteSpace)
	assert.True(t, ok)
	assert.Equal(t, "preserve", v)
	assert.True(t, st.Facets().Allows(FacetMinLength), "minLength marker is inherited")
}

func TestPatternsAreKeptApart(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:simpleType name="code">
	    <xs:restriction base="xs:string"><xs:pattern value="[a-z]+"/></xs:restriction>
	  </xs:simpleType>
	  <xs:simpleType name="short">
	    <xs:restriction base="code">
	      <xs:pattern value="a.*"/>
	      <xs:pattern value="b.*"/>
	    </xs:restriction>
	  </xs:simpleType>`))

	st := simpleType(t, s, "short")
	f := st.Facets().Get(FacetPattern)
	require.NotNil(t, f)
	assert.Equal(t, []string{"[a-z]+", "a.*|b.*"}, f.Values)
}

func TestEnumerationUsesLexicalMapping(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:simpleType name="words">
	    <xs:restriction base="xs:token">
	      <xs:enumeration value="  red   apple "/>
	      <xs:enumeration value="red apple"/>
	      <xs:enumeration value="pear"/>
	    </xs:restriction>
	  </xs:simpleType>
	  <xs:simpleType name="names">
	    <xs:restriction base="xs:QName">
	      <xs:enumeration value="tns:thing"/>
	    </xs:restriction>
	  </xs:simpleType>`))

	f := simpleType(t, s, "words").Facets().Get(FacetEnumeration)
	require.NotNil(t, f)
	assert.Equal(t, []string{"red apple", "pear"}, f.Values)
	assert.True(t, simpleType(t, s, "words").Fundamental().Finite)

	f = simpleType(t, s, "names").Facets().Get(FacetEnumeration)
	require.NotNil(t, f)
	assert.Equal(t, []string{"{urn:test}thing"}, f.Values)
}

func TestAssertionsAreOrdered(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:simpleType name="even">
	    <xs:restriction base="xs:int"><xs:assertion test="$value mod 2 = 0"/></xs:restriction>
	  </xs:simpleType>
	  <xs:simpleType name="small">
	    <xs:restriction base="even">
	      <xs:assertion test="$value lt 10"/>
	      <xs:assertion test="$value gt -10"/>
	    </xs:restriction>
	  </xs:simpleType>`))

	f := simpleType(t, s, "small").Facets().Get(FacetAssertions)
	require.NotNil(t, f)
	var tests []string
	for _, a := range f.Assertions {
		tests = append(tests, a.Test)
	}
	assert.Equal(t, []string{"$value mod 2 = 0", "$value lt 10", "$value gt -10"}, tests)
}

func TestFixedFacet(t *testing.T) {
	doc := func(value string) string {
		return testSchema(fmt.Sprintf(`
		  <xs:simpleType name="base">
		    <xs:restriction base="xs:string"><xs:maxLength value="5" fixed="true"/></xs:restriction>
		  </xs:simpleType>
		  <xs:simpleType name="derived">
		    <xs:restriction base="base"><xs:maxLength value="%s"/></xs:restriction>
		  </xs:simpleType>`, value))
	}

	_, err := compile(t, doc("3"))
	var fixed *FixedFacetViolationError
	require.True(t, errors.As(err, &fixed), "got %v", err)
	assert.Equal(t, FacetMaxLength, fixed.Facet)
	assert.Equal(t, "5", fixed.Base)
	assert.Equal(t, "maxLength", fixed.Node.Name.Local)
	assert.NotEmpty(t, fixed.Path)

	s := mustCompile(t, doc("5"))
	f := simpleType(t, s, "derived").Facets().Get(FacetMaxLength)
	assert.True(t, f.Fixed)

	// whiteSpace is fixed on every primitive but string
	_, err = compile(t, testSchema(`
	  <xs:simpleType name="spaced">
	    <xs:restriction base="xs:decimal"><xs:whiteSpace value="preserve"/></xs:restriction>
	  </xs:simpleType>`))
	require.True(t, errors.As(err, &fixed), "got %v", err)
}

func TestDisallowedFacet(t *testing.T) {
	_, err := compile(t, testSchema(`
	  <xs:simpleType name="n">
	    <xs:restriction base="xs:decimal"><xs:maxLength value="3"/></xs:restriction>
	  </xs:simpleType>`))
	var disallowed *DisallowedFacetError
	require.True(t, errors.As(err, &disallowed), "got %v", err)
	assert.Equal(t, FacetMaxLength, disallowed.Facet)
	assert.Equal(t, Decimal.Name(), disallowed.Base)

	// lists take length facets, but not bounds
	_, err = compile(t, testSchema(`
	  <xs:simpleType name="ints"><xs:list itemType="xs:int"/></xs:simpleType>
	  <xs:simpleType name="few">
	    <xs:restriction base="ints"><xs:maxInclusive value="3"/></xs:restriction>
	  </xs:simpleType>`))
	require.True(t, errors.As(err, &disallowed), "got %v", err)
}

func TestFacetsNeverWiden(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(-50, 50).Draw(rt, "lo")
		hi := rapid.IntRange(lo, 100).Draw(rt, "hi")
		min := rapid.IntRange(-100, 100).Draw(rt, "min")
		max := rapid.IntRange(min, 150).Draw(rt, "max")
		digits := rapid.IntRange(1, 6).Draw(rt, "digits")
		narrower := rapid.IntRange(1, 8).Draw(rt, "narrower")

		_, err := compile(t, testSchema(fmt.Sprintf(`
		  <xs:simpleType name="range">
		    <xs:restriction base="xs:integer">
		      <xs:minInclusive value="%d"/>
		      <xs:maxInclusive value="%d"/>
		      <xs:totalDigits value="%d"/>
		    </xs:restriction>
		  </xs:simpleType>
		  <xs:simpleType name="sub">
		    <xs:restriction base="range">
		      <xs:minInclusive value="%d"/>
		      <xs:maxInclusive value="%d"/>
		      <xs:totalDigits value="%d"/>
		    </xs:restriction>
		  </xs:simpleType>`, lo, hi, digits, min, max, narrower)))

		within := min >= lo && max <= hi && narrower <= digits
		if within && err != nil {
			rt.Fatalf("[%d,%d]/%d within [%d,%d]/%d rejected: %v", min, max, narrower, lo, hi, digits, err)
		}
		var widened *FacetRestrictionError
		if !within && !errors.As(err, &widened) {
			rt.Fatalf("[%d,%d]/%d outside [%d,%d]/%d accepted (err %v)", min, max, narrower, lo, hi, digits, err)
		}
	})
}

func TestListAndUnion(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:simpleType name="ints"><xs:list itemType="xs:int"/></xs:simpleType>
	  <xs:simpleType name="three">
	    <xs:restriction base="ints"><xs:length value="3"/></xs:restriction>
	  </xs:simpleType>
	  <xs:simpleType name="numOrDate">
	    <xs:union memberTypes="xs:int">
	      <xs:simpleType><xs:restriction base="xs:date"/></xs:simpleType>
	    </xs:union>
	  </xs:simpleType>
	  <xs:simpleType name="wide">
	    <xs:union memberTypes="numOrDate xs:boolean"/>
	  </xs:simpleType>`))

	ints := simpleType(t, s, "ints")
	assert.Equal(t, VarietyList, ints.Variety())
	assert.Same(t, Int.Type(), ints.ItemType())
	assert.Same(t, AnySimpleType.Type(), ints.BaseType())
	ws := ints.Facets().Get(FacetWhiteSpace)
	require.NotNil(t, ws)
	assert.Equal(t, "collapse", ws.Value)
	assert.True(t, ws.Fixed)

	three := simpleType(t, s, "three")
	assert.Equal(t, VarietyList, three.Variety())
	assert.Same(t, Int.Type(), three.ItemType())
	assert.True(t, three.Fundamental().Finite)

	wide := simpleType(t, s, "wide")
	assert.Equal(t, VarietyUnion, wide.Variety())
	members := wide.MemberTypes()
	require.Len(t, members, 3)
	assert.Same(t, Int.Type(), members[0])
	assert.True(t, members[1].Anonymous())
	assert.Same(t, Boolean.Type(), members[2])
}
