package rewrite

import (
	"encoding/xml"
	"errors"
	"testing"

	"github.com/CognitoIQ/go-xsd/xmltree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, doc string) *xmltree.Element {
	t.Helper()
	el, err := xmltree.Parse([]byte(doc))
	require.NoError(t, err)
	return el
}

func child(t *testing.T, doc *xmltree.Element, local, name string) *xmltree.Element {
	t.Helper()
	idx := topLevel(doc, local, name)
	require.True(t, idx >= 0, "no %s %q", local, name)
	return &doc.Children[idx]
}

const included = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:simpleType name="code">
    <xs:restriction base="xs:string"/>
  </xs:simpleType>
  <xs:complexType name="item">
    <xs:sequence>
      <xs:element name="code" type="code"/>
    </xs:sequence>
  </xs:complexType>
  <xs:group name="parts">
    <xs:sequence><xs:element name="part" type="xs:string"/></xs:sequence>
  </xs:group>
  <xs:include schemaLocation="more.xsd"/>
</xs:schema>`

func TestChameleon(t *testing.T) {
	doc := parse(t, included)
	out, err := Engine{}.Transform(doc, Chameleon, Params{Namespace: "urn:a"})
	require.NoError(t, err)

	assert.Equal(t, "urn:a", out.Attr("", "targetNamespace"))
	el := out.Search(schemaNS, "element")[0]
	assert.Equal(t, xml.Name{Space: "urn:a", Local: "code"}, el.Resolve(el.Attr("", "type")))
	assert.Equal(t, xml.Name{Space: schemaNS, Local: "string"},
		out.Search(schemaNS, "restriction")[0].Resolve("xs:string"))

	// the input is untouched
	assert.Equal(t, "", doc.Attr("", "targetNamespace"))
	el = doc.Search(schemaNS, "element")[0]
	assert.Equal(t, xml.Name{Local: "code"}, el.Resolve(el.Attr("", "type")))
}

func TestRedefine(t *testing.T) {
	doc := parse(t, included)
	directive := parse(t, `
<xs:redefine xmlns:xs="http://www.w3.org/2001/XMLSchema" schemaLocation="included.xsd">
  <xs:simpleType name="code">
    <xs:restriction base="code"><xs:maxLength value="4"/></xs:restriction>
  </xs:simpleType>
  <xs:group name="parts">
    <xs:sequence>
      <xs:group ref="parts"/>
      <xs:element name="extra" type="xs:string"/>
    </xs:sequence>
  </xs:group>
</xs:redefine>`)

	out, err := Engine{}.Transform(doc, Redefine, Params{Directive: directive})
	require.NoError(t, err)

	orig := child(t, out, "simpleType", "code_redefined")
	declared, ok := Original(orig)
	assert.True(t, ok)
	assert.Equal(t, "code", declared)
	code := child(t, out, "simpleType", "code")
	r := code.Search(schemaNS, "restriction")[0]
	assert.Equal(t, xml.Name{Local: "code_redefined"}, r.Resolve(r.Attr("", "base")))
	assert.Len(t, code.Search(schemaNS, "maxLength"), 1)

	parts := child(t, out, "group", "parts")
	ref := parts.Search(schemaNS, "group")[0]
	assert.Equal(t, "parts_redefined", ref.Attr("", "ref"))
	child(t, out, "group", "parts_redefined")

	// components that are not redefined are kept
	_, ok = Original(child(t, out, "complexType", "item"))
	assert.False(t, ok)
	_, ok = Original(code)
	assert.False(t, ok)

	// the input is untouched
	assert.Equal(t, -1, topLevel(doc, "simpleType", "code_redefined"))
}

func TestRedefineNamespaced(t *testing.T) {
	doc := parse(t, `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:a" xmlns:a="urn:a">
  <xs:complexType name="T"><xs:sequence/></xs:complexType>
  <xs:complexType name="T_redefined"><xs:sequence/></xs:complexType>
</xs:schema>`)
	directive := parse(t, `
<xs:redefine xmlns:xs="http://www.w3.org/2001/XMLSchema" schemaLocation="a.xsd">
  <xs:complexType name="T">
    <xs:complexContent>
      <xs:extension base="b:T" xmlns:b="urn:a"/>
    </xs:complexContent>
  </xs:complexType>
</xs:redefine>`)

	out, err := Engine{}.Transform(doc, Redefine, Params{Namespace: "urn:a", Directive: directive})
	require.NoError(t, err)
	child(t, out, "complexType", "T_redefined_2")
	ext := child(t, out, "complexType", "T").Search(schemaNS, "extension")[0]
	assert.Equal(t, xml.Name{Space: "urn:a", Local: "T_redefined_2"}, ext.Resolve(ext.Attr("", "base")))
}

func TestRedefineMissing(t *testing.T) {
	doc := parse(t, included)
	directive := parse(t, `
<xs:redefine xmlns:xs="http://www.w3.org/2001/XMLSchema" schemaLocation="included.xsd">
  <xs:attributeGroup name="nope"/>
</xs:redefine>`)
	_, err := Engine{}.Transform(doc, Redefine, Params{Namespace: "urn:a", Directive: directive})
	var missing *MissingError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "attributeGroup", missing.Kind)
	assert.Equal(t, xml.Name{Space: "urn:a", Local: "nope"}, missing.Name)
}

func TestOverride(t *testing.T) {
	doc := parse(t, included)
	directive := parse(t, `
<xs:override xmlns:xs="http://www.w3.org/2001/XMLSchema" schemaLocation="included.xsd">
  <xs:simpleType name="code">
    <xs:restriction base="xs:token"/>
  </xs:simpleType>
  <xs:element name="absent" type="xs:string"/>
</xs:override>`)

	out, err := Engine{}.Transform(doc, Override, Params{Directive: directive})
	require.NoError(t, err)

	code := child(t, out, "simpleType", "code")
	assert.Equal(t, "xs:token", code.Search(schemaNS, "restriction")[0].Attr("", "base"))
	assert.Equal(t, -1, topLevel(out, "simpleType", "code_redefined"))
	// overriding an absent component does nothing
	assert.Equal(t, -1, topLevel(out, "element", "absent"))
	assert.Len(t, out.Children, len(doc.Children))

	// includes become overrides carrying the same components
	assert.Empty(t, out.ChildrenNamed(schemaNS, "include"))
	ov := out.ChildrenNamed(schemaNS, "override")
	require.Len(t, ov, 1)
	assert.Equal(t, "more.xsd", ov[0].Attr("", "schemaLocation"))
	assert.Len(t, ov[0].Children, 2)
}

func TestNotASchema(t *testing.T) {
	_, err := Engine{}.Transform(parse(t, `<foo/>`), Chameleon, Params{Namespace: "urn:a"})
	assert.Error(t, err)
}
