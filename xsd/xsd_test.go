package xsd

import (
	"encoding/xml"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger testing.T

func (t *testLogger) Printf(format string, v ...interface{}) {
	t.Logf(format, v...)
}

func compile(t *testing.T, doc string, opts ...Option) (*Schema, error) {
	t.Helper()
	c := NewCompiler(LogOutput((*testLogger)(t)), LogLevel(5))
	c.Option(opts...)
	return c.Parse([]byte(doc))
}

func mustCompile(t *testing.T, doc string, opts ...Option) *Schema {
	t.Helper()
	s, err := compile(t, doc, opts...)
	require.NoError(t, err)
	return s
}

func testSchema(body string) string {
	return `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
	  xmlns:tns="urn:test" xmlns="urn:test" targetNamespace="urn:test">` + body + `</xs:schema>`
}

func name(space, local string) xml.Name { return xml.Name{Space: space, Local: local} }

func complexType(t *testing.T, s *Schema, local string) *ComplexType {
	t.Helper()
	typ, ok := s.FindType(name("urn:test", local))
	require.True(t, ok, "no type %s", local)
	ct, ok := typ.(*ComplexType)
	require.True(t, ok, "%s is not a complex type", local)
	return ct
}

func simpleType(t *testing.T, s *Schema, local string) *SimpleType {
	t.Helper()
	typ, ok := s.FindType(name("urn:test", local))
	require.True(t, ok, "no type %s", local)
	st, ok := typ.(*SimpleType)
	require.True(t, ok, "%s is not a simple type", local)
	return st
}

func modelGroup(t *testing.T, p *Particle) *ModelGroup {
	t.Helper()
	require.NotNil(t, p)
	mg, ok := p.Term().(*ModelGroup)
	require.True(t, ok, "term is %T", p.Term())
	return mg
}

func elementNames(mg *ModelGroup) []string {
	var names []string
	for _, p := range mg.Particles {
		if e, ok := p.Term().(*Element); ok {
			names = append(names, e.Name().Local)
		}
	}
	return names
}

func TestBuiltins(t *testing.T) {
	for b := AnyType; b < numBuiltins; b++ {
		parsed, err := ParseBuiltin(b.Name())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
		require.NotNil(t, b.Type(), "%s", b)
		assert.Equal(t, b.Name(), b.Type().Name())
	}
	assert.Nil(t, anyType.BaseType())
	assert.Same(t, anyType, AnySimpleType.Type().BaseType())
	assert.Same(t, Decimal.Type(), Integer.Type().BaseType())
	assert.Same(t, Decimal.Type(), Byte.Type().(*SimpleType).Primitive())
	assert.Same(t, NMTOKEN.Type(), NMTOKENS.Type().(*SimpleType).ItemType())

	v, ok := Int.Type().(*SimpleType).Facets().Value(FacetMaxInclusive)
	assert.True(t, ok)
	assert.Equal(t, "2147483647", v)
	v, _ = Token.Type().(*SimpleType).Facets().Value(FacetWhiteSpace)
	assert.Equal(t, "collapse", v)

	_, err := ParseBuiltin(name(schemaNS, "nosuchtype"))
	assert.Error(t, err)
}

func TestEveryTypeReachesAnyType(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:simpleType name="s"><xs:restriction base="xs:byte"/></xs:simpleType>
	  <xs:complexType name="c"><xs:simpleContent><xs:extension base="s"/></xs:simpleContent></xs:complexType>
	  <xs:complexType name="e"><xs:sequence><xs:element name="x"/></xs:sequence></xs:complexType>
	  <xs:complexType name="d"><xs:complexContent><xs:extension base="e"/></xs:complexContent></xs:complexType>`))
	for n, typ := range s.Types() {
		steps := 0
		for typ.BaseType() != nil {
			typ = typ.BaseType()
			steps++
			require.Less(t, steps, 100, "%s does not reach anyType", n.Local)
		}
		assert.Same(t, anyType, typ)
	}
}

func TestExtensionMergesAllGroups(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:complexType name="base">
	    <xs:all minOccurs="0">
	      <xs:element name="a" type="xs:string"/>
	      <xs:element name="b" type="xs:string"/>
	    </xs:all>
	  </xs:complexType>
	  <xs:complexType name="derived">
	    <xs:complexContent>
	      <xs:extension base="base">
	        <xs:all><xs:element name="c" type="xs:string"/></xs:all>
	      </xs:extension>
	    </xs:complexContent>
	  </xs:complexType>`))

	ct := complexType(t, s, "derived")
	content := ct.Content()
	assert.Equal(t, ContentElementOnly, content.Variety)
	mg := modelGroup(t, content.Particle)
	assert.Equal(t, CompositorAll, mg.Compositor)
	assert.Equal(t, []string{"a", "b", "c"}, elementNames(mg))
	assert.Equal(t, 0, content.Particle.MinOccurs, "minOccurs comes from the base")
	assert.Equal(t, DerivationExtension, ct.Derivation())
}

func TestExtensionWrapsInSequence(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:complexType name="base">
	    <xs:all><xs:element name="a" type="xs:string"/></xs:all>
	  </xs:complexType>
	  <xs:complexType name="derived">
	    <xs:complexContent>
	      <xs:extension base="base">
	        <xs:sequence><xs:element name="b" type="xs:string"/></xs:sequence>
	      </xs:extension>
	    </xs:complexContent>
	  </xs:complexType>
	  <xs:complexType name="same">
	    <xs:complexContent><xs:extension base="base"/></xs:complexContent>
	  </xs:complexType>`))

	content := complexType(t, s, "derived").Content()
	mg := modelGroup(t, content.Particle)
	assert.Equal(t, CompositorSequence, mg.Compositor)
	require.Len(t, mg.Particles, 2)
	assert.Equal(t, CompositorAll, modelGroup(t, mg.Particles[0]).Compositor)
	assert.Equal(t, CompositorSequence, modelGroup(t, mg.Particles[1]).Compositor)
	assert.Equal(t, 1, content.Particle.MinOccurs)
	assert.Equal(t, 1, content.Particle.MaxOccurs)

	// an extension without a particle keeps the base content
	base := complexType(t, s, "base").Content()
	same := complexType(t, s, "same").Content()
	assert.Same(t, base.Particle, same.Particle)
}

func TestEmptyAndMixedContent(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:complexType name="empty"/>
	  <xs:complexType name="emptySeq"><xs:sequence/></xs:complexType>
	  <xs:complexType name="text" mixed="true"/>
	  <xs:complexType name="never">
	    <xs:sequence minOccurs="0" maxOccurs="0"><xs:element name="x"/></xs:sequence>
	  </xs:complexType>`))

	assert.Equal(t, ContentEmpty, complexType(t, s, "empty").Content().Variety)
	assert.Equal(t, ContentEmpty, complexType(t, s, "emptySeq").Content().Variety)
	assert.Equal(t, ContentEmpty, complexType(t, s, "never").Content().Variety)

	text := complexType(t, s, "text").Content()
	assert.Equal(t, ContentMixed, text.Variety)
	mg := modelGroup(t, text.Particle)
	assert.Equal(t, CompositorSequence, mg.Compositor)
	assert.Empty(t, mg.Particles)
	assert.Same(t, anyType, complexType(t, s, "text").BaseType())
}

func TestCircularElementAndGroup(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:element name="node" type="tree"/>
	  <xs:complexType name="tree">
	    <xs:sequence>
	      <xs:element name="label" type="xs:string"/>
	      <xs:group ref="children"/>
	    </xs:sequence>
	  </xs:complexType>
	  <xs:group name="children">
	    <xs:sequence>
	      <xs:element name="child" type="tree" minOccurs="0" maxOccurs="unbounded"/>
	      <xs:element ref="node" minOccurs="0"/>
	    </xs:sequence>
	  </xs:group>`))

	tree := complexType(t, s, "tree")
	node := s.Elements()[name("urn:test", "node")]
	require.NotNil(t, node)
	assert.Same(t, tree, node.Type())

	outer := modelGroup(t, tree.Content().Particle)
	require.Len(t, outer.Particles, 2)
	ref := outer.Particles[1]
	group := s.Groups()[name("urn:test", "children")]
	assert.Same(t, group, ref.GroupRef())
	inner := modelGroup(t, ref)
	assert.Same(t, group.ModelGroup(), inner)

	child := inner.Particles[0].Term().(*Element)
	assert.Same(t, tree, child.Type())
	assert.Same(t, node, inner.Particles[1].Term())
	assert.Equal(t, Unbounded, tree.Content().Particle.EffectiveMax())
}

func TestCircularGroup(t *testing.T) {
	_, err := compile(t, testSchema(`
	  <xs:group name="a"><xs:sequence><xs:group ref="b"/></xs:sequence></xs:group>
	  <xs:group name="b"><xs:choice><xs:group ref="a" minOccurs="0"/></xs:choice></xs:group>`))
	var cyclic *CyclicResolutionError
	require.True(t, errors.As(err, &cyclic), "got %v", err)
	assert.Contains(t, cyclic.Label, "group")
}

func TestCircularTypes(t *testing.T) {
	_, err := compile(t, testSchema(`
	  <xs:simpleType name="a"><xs:restriction base="b"/></xs:simpleType>
	  <xs:simpleType name="b"><xs:restriction base="a"/></xs:simpleType>`))
	var cyclic *CyclicResolutionError
	require.True(t, errors.As(err, &cyclic), "got %v", err)

	_, err = compile(t, testSchema(`
	  <xs:complexType name="a">
	    <xs:complexContent><xs:extension base="a"/></xs:complexContent>
	  </xs:complexType>`))
	require.True(t, errors.As(err, &cyclic), "got %v", err)
}

func TestUnresolvedReference(t *testing.T) {
	_, err := compile(t, testSchema(`
	  <xs:complexType name="c">
	    <xs:sequence><xs:element name="e" type="missing"/></xs:sequence>
	  </xs:complexType>`))
	var unresolved *UnresolvedReferenceError
	require.True(t, errors.As(err, &unresolved), "got %v", err)
	assert.Equal(t, name("urn:test", "missing"), unresolved.Name)
	assert.Equal(t, KindType, unresolved.Kind)
	assert.Equal(t, "element", unresolved.Node.Name.Local)
	require.NotEmpty(t, unresolved.Path)
	assert.Equal(t, "schema", unresolved.Path[0].Name.Local)
	assert.Contains(t, err.Error(), "complexType(c)>sequence>element(e)")

	_, err = compile(t, testSchema(`<xs:element name="e" type="xs:notatype"/>`))
	require.True(t, errors.As(err, &unresolved), "got %v", err)
}

func TestGrammarViolations(t *testing.T) {
	for _, tt := range []struct{ name, body string }{
		{"unnamed top-level element", `<xs:element type="xs:string"/>`},
		{"unknown child", `<xs:complexType name="c"><xs:bogus/></xs:complexType>`},
		{"type and anonymous type", `<xs:element name="e" type="xs:string"><xs:simpleType><xs:restriction base="xs:int"/></xs:simpleType></xs:element>`},
		{"default and fixed", `<xs:attribute name="a" default="1" fixed="1"/>`},
		{"min greater than max", `<xs:group name="g"><xs:sequence><xs:element name="x" minOccurs="3" maxOccurs="2"/></xs:sequence></xs:group>`},
		{"maxOccurs zero with default minOccurs", `<xs:complexType name="c"><xs:sequence maxOccurs="0"/></xs:complexType>`},
		{"restriction without base", `<xs:simpleType name="s"><xs:restriction/></xs:simpleType>`},
		{"notation without identifier", `<xs:notation name="n"/>`},
		{"ref and name", `<xs:attributeGroup name="g"><xs:attribute name="a" ref="b"/></xs:attributeGroup>`},
		{"keyref to keyref", `<xs:element name="e"><xs:keyref name="k" refer="tns:k"><xs:selector xpath="."/><xs:field xpath="@a"/></xs:keyref></xs:element>`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, testSchema(tt.body))
			var violation *GrammarViolationError
			require.True(t, errors.As(err, &violation), "got %v", err)
			assert.NotNil(t, violation.Node)
		})
	}

	_, err := compile(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace=""/>`)
	var violation *GrammarViolationError
	assert.True(t, errors.As(err, &violation), "empty targetNamespace: got %v", err)

	_, err = compile(t, `<schema/>`)
	assert.True(t, errors.As(err, &violation), "not a schema: got %v", err)
}

func TestDuplicateComponent(t *testing.T) {
	_, err := compile(t, testSchema(`
	  <xs:simpleType name="t"><xs:restriction base="xs:string"/></xs:simpleType>
	  <xs:complexType name="t"/>`))
	var dup *DuplicateComponentError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, name("urn:test", "t"), dup.Name)
	assert.Equal(t, KindType, dup.Kind)

	// different kinds have separate symbol spaces
	mustCompile(t, testSchema(`
	  <xs:simpleType name="t"><xs:restriction base="xs:string"/></xs:simpleType>
	  <xs:element name="t" type="t"/>
	  <xs:attribute name="t" type="t"/>`))
}

func attributeNames(uses []*AttributeUse) []string {
	var names []string
	for _, u := range uses {
		names = append(names, u.Name().Local)
	}
	return names
}

func TestAttributeUses(t *testing.T) {
	s := mustCompile(t, `
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns="urn:test"
	  targetNamespace="urn:test" defaultAttributes="common">
	  <xs:attributeGroup name="common">
	    <xs:attribute name="id" type="xs:ID"/>
	  </xs:attributeGroup>
	  <xs:attributeGroup name="ping">
	    <xs:attribute name="p" type="xs:string"/>
	    <xs:attributeGroup ref="pong"/>
	  </xs:attributeGroup>
	  <xs:attributeGroup name="pong">
	    <xs:attribute name="q" type="xs:string" use="required"/>
	    <xs:attributeGroup ref="ping"/>
	  </xs:attributeGroup>
	  <xs:complexType name="base">
	    <xs:attribute name="a" type="xs:string"/>
	    <xs:attribute name="b" type="xs:int" default="4"/>
	  </xs:complexType>
	  <xs:complexType name="restricted">
	    <xs:complexContent>
	      <xs:restriction base="base">
	        <xs:attribute name="b" use="prohibited"/>
	      </xs:restriction>
	    </xs:complexContent>
	  </xs:complexType>
	  <xs:complexType name="extended" defaultAttributesApply="false">
	    <xs:complexContent>
	      <xs:extension base="base">
	        <xs:attributeGroup ref="ping"/>
	      </xs:extension>
	    </xs:complexContent>
	  </xs:complexType>
	</xs:schema>`)

	base := complexType(t, s, "base")
	assert.Equal(t, []string{"a", "b", "id"}, attributeNames(base.AttributeUses()))
	b := base.AttributeUses()[1]
	assert.Equal(t, "4", b.ValueConstraint().Normalized)
	assert.Same(t, Int.Type(), b.Attribute().Type())

	restricted := complexType(t, s, "restricted")
	assert.Equal(t, []string{"a", "id"}, attributeNames(restricted.AttributeUses()))

	extended := complexType(t, s, "extended")
	assert.ElementsMatch(t, []string{"a", "b", "id", "p", "q"}, attributeNames(extended.AttributeUses()))

	ping := s.AttributeGroups()[name("urn:test", "ping")]
	assert.Equal(t, []string{"p", "q"}, attributeNames(ping.AttributeUses()))
	assert.True(t, ping.AttributeUses()[1].Required())
}

func TestAttributeWildcards(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:attributeGroup name="g">
	    <xs:anyAttribute namespace="urn:a urn:b"/>
	  </xs:attributeGroup>
	  <xs:complexType name="base">
	    <xs:anyAttribute namespace="urn:c" processContents="lax"/>
	  </xs:complexType>
	  <xs:complexType name="narrow">
	    <xs:attributeGroup ref="g"/>
	    <xs:anyAttribute namespace="urn:b urn:c"/>
	  </xs:complexType>
	  <xs:complexType name="wide">
	    <xs:complexContent>
	      <xs:extension base="base">
	        <xs:anyAttribute namespace="##targetNamespace" processContents="skip"/>
	      </xs:extension>
	    </xs:complexContent>
	  </xs:complexType>`))

	narrow := complexType(t, s, "narrow").AttributeWildcard()
	require.NotNil(t, narrow)
	assert.True(t, narrow.Namespace.Equal(enum("urn:b")), "%s", narrow.Namespace)

	wide := complexType(t, s, "wide").AttributeWildcard()
	require.NotNil(t, wide)
	assert.True(t, wide.Namespace.Equal(enum("urn:c", "urn:test")), "%s", wide.Namespace)
	assert.Equal(t, ProcessSkip, wide.ProcessContents)

	assert.True(t, anyType.AttributeWildcard().Namespace.Equal(anyNS))
}

func TestSimpleContent(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:complexType name="price">
	    <xs:simpleContent>
	      <xs:extension base="xs:decimal">
	        <xs:attribute name="currency" type="xs:string"/>
	      </xs:extension>
	    </xs:simpleContent>
	  </xs:complexType>
	  <xs:complexType name="smallPrice">
	    <xs:simpleContent>
	      <xs:restriction base="price">
	        <xs:maxInclusive value="100"/>
	      </xs:restriction>
	    </xs:simpleContent>
	  </xs:complexType>
	  <xs:complexType name="loose" mixed="true">
	    <xs:sequence><xs:element name="x" minOccurs="0"/></xs:sequence>
	  </xs:complexType>
	  <xs:complexType name="tight">
	    <xs:simpleContent>
	      <xs:restriction base="loose">
	        <xs:simpleType><xs:restriction base="xs:token"/></xs:simpleType>
	      </xs:restriction>
	    </xs:simpleContent>
	  </xs:complexType>`))

	price := complexType(t, s, "price").Content()
	assert.Equal(t, ContentSimple, price.Variety)
	assert.Same(t, Decimal.Type(), price.SimpleType)

	small := complexType(t, s, "smallPrice")
	content := small.Content()
	assert.True(t, content.SimpleType.Anonymous())
	assert.Same(t, small, content.SimpleType.Context())
	assert.Same(t, Decimal.Type(), content.SimpleType.BaseType())
	v, _ := content.SimpleType.Facets().Value(FacetMaxInclusive)
	assert.Equal(t, "100", v)
	assert.Equal(t, []string{"currency"}, attributeNames(small.AttributeUses()))

	tight := complexType(t, s, "tight").Content()
	assert.Equal(t, ContentSimple, tight.Variety)
	assert.Same(t, Token.Type(), tight.SimpleType.BaseType().(*SimpleType).BaseType())
}

func TestOpenContent(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:defaultOpenContent mode="suffix">
	    <xs:any namespace="##other"/>
	  </xs:defaultOpenContent>
	  <xs:complexType name="empty"/>
	  <xs:complexType name="full">
	    <xs:sequence><xs:element name="a"/></xs:sequence>
	  </xs:complexType>
	  <xs:complexType name="closed">
	    <xs:openContent mode="none"/>
	    <xs:sequence><xs:element name="a"/></xs:sequence>
	  </xs:complexType>
	  <xs:complexType name="own">
	    <xs:openContent><xs:any namespace="urn:x"/></xs:openContent>
	  </xs:complexType>`))

	assert.Equal(t, ContentEmpty, complexType(t, s, "empty").Content().Variety)
	assert.Nil(t, complexType(t, s, "empty").Content().OpenContent)

	full := complexType(t, s, "full").Content()
	require.NotNil(t, full.OpenContent)
	assert.Equal(t, OpenSuffix, full.OpenContent.Mode)
	assert.Nil(t, complexType(t, s, "closed").Content().OpenContent)

	own := complexType(t, s, "own").Content()
	assert.Equal(t, ContentElementOnly, own.Variety, "open content turns empty content into element-only")
	assert.Equal(t, OpenInterleave, own.OpenContent.Mode)
	assert.Empty(t, modelGroup(t, own.Particle).Particles)
}

func TestElementDeclarations(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:element name="head" type="xs:token" abstract="true"/>
	  <xs:element name="member" substitutionGroup="head" fixed="  a  b "/>
	  <xs:element name="any"/>
	  <xs:element name="doc">
	    <xs:complexType>
	      <xs:sequence>
	        <xs:element name="item" maxOccurs="unbounded">
	          <xs:complexType><xs:attribute name="id" type="xs:string"/></xs:complexType>
	        </xs:element>
	        <xs:element name="use" minOccurs="0" maxOccurs="unbounded">
	          <xs:complexType><xs:attribute name="ref" type="xs:string"/></xs:complexType>
	        </xs:element>
	      </xs:sequence>
	    </xs:complexType>
	    <xs:key name="itemKey"><xs:selector xpath="item"/><xs:field xpath="@id"/></xs:key>
	    <xs:keyref name="itemRef" refer="tns:itemKey"><xs:selector xpath="use"/><xs:field xpath="@ref"/></xs:keyref>
	  </xs:element>
	  <xs:element name="shape" type="xs:anyType">
	    <xs:alternative test="@kind = 'circle'" type="xs:string"/>
	    <xs:alternative type="xs:int"/>
	  </xs:element>`))

	elements := s.Elements()
	head := elements[name("urn:test", "head")]
	member := elements[name("urn:test", "member")]
	assert.True(t, head.Abstract)
	assert.Equal(t, []*Element{head}, member.SubstitutionGroups())
	assert.Same(t, Token.Type(), member.Type())
	vc := member.ValueConstraint()
	require.NotNil(t, vc)
	assert.True(t, vc.Fixed)
	assert.Equal(t, "a b", vc.Normalized)
	assert.Same(t, anyType, elements[name("urn:test", "any")].Type())
	assert.True(t, head.Scope().Global)

	doc := elements[name("urn:test", "doc")]
	constraints := doc.IdentityConstraints()
	require.Len(t, constraints, 2)
	assert.Equal(t, ConstraintKeyRef, constraints[1].Category)
	assert.Same(t, constraints[0], constraints[1].Refer())
	assert.Len(t, s.IdentityConstraints(), 2)

	item := modelGroup(t, doc.Type().(*ComplexType).Content().Particle).Particles[0].Term().(*Element)
	assert.Equal(t, name("", "item"), item.Name(), "local elements are unqualified by default")
	assert.Same(t, doc.Type(), item.Scope().Parent)

	table := elements[name("urn:test", "shape")].TypeTable()
	require.NotNil(t, table)
	require.Len(t, table.Alternatives, 1)
	assert.Same(t, String.Type(), table.Alternatives[0].Type())
	assert.Same(t, Int.Type(), table.Default.Type())
}

func TestSubstitutionGroupCycle(t *testing.T) {
	_, err := compile(t, testSchema(`
	  <xs:element name="a" type="xs:string" substitutionGroup="b"/>
	  <xs:element name="b" type="xs:string" substitutionGroup="a"/>`))
	var cyclic *CyclicResolutionError
	require.True(t, errors.As(err, &cyclic), "got %v", err)
}

func TestQualifiedLocals(t *testing.T) {
	s := mustCompile(t, `
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:test"
	  elementFormDefault="qualified">
	  <xs:complexType name="c">
	    <xs:sequence>
	      <xs:element name="q" type="xs:string"/>
	      <xs:element name="u" type="xs:string" form="unqualified"/>
	      <xs:element name="o" type="xs:string" targetNamespace="urn:other"/>
	    </xs:sequence>
	    <xs:attribute name="a" type="xs:string"/>
	    <xs:attribute name="b" type="xs:string" form="qualified"/>
	  </xs:complexType>
	</xs:schema>`)

	ct := complexType(t, s, "c")
	var names []xml.Name
	for _, p := range modelGroup(t, ct.Content().Particle).Particles {
		names = append(names, p.Term().(*Element).Name())
	}
	assert.Equal(t, []xml.Name{name("urn:test", "q"), name("", "u"), name("urn:other", "o")}, names)

	var attrs []xml.Name
	for _, u := range ct.AttributeUses() {
		attrs = append(attrs, u.Name())
	}
	assert.Equal(t, []xml.Name{name("", "a"), name("urn:test", "b")}, attrs)
}

func TestImportOwnNamespace(t *testing.T) {
	_, err := compile(t, testSchema(`<xs:import namespace="urn:test"/>`))
	var mismatch *NamespaceMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)

	_, err = compile(t, testSchema(`<xs:import namespace=""/>`))
	var violation *GrammarViolationError
	require.True(t, errors.As(err, &violation), "got %v", err)
}

func TestAnnotations(t *testing.T) {
	s := mustCompile(t, testSchema(`
	  <xs:annotation><xs:documentation>A test schema.</xs:documentation></xs:annotation>
	  <xs:simpleType name="s">
	    <xs:annotation>
	      <xs:appinfo><x xmlns="urn:x"/></xs:appinfo>
	      <xs:documentation>First.</xs:documentation>
	    </xs:annotation>
	    <xs:restriction base="xs:string"/>
	  </xs:simpleType>`))

	assert.Equal(t, "A test schema.", s.Doc())
	st := simpleType(t, s, "s")
	assert.Equal(t, "First.", st.Doc())
	require.Len(t, st.Annotations(), 1)
	assert.Len(t, st.Annotations()[0].AppInfo, 1)
}
