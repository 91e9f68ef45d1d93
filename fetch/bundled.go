package fetch

// Schemas for namespaces every schema processor is expected to know.
// They are served under the "bundled:" scheme.
var bundled = map[string][]byte{
	"xml.xsd": xmlnsxsd,
}

// wellKnown maps namespaces to bundled documents, for imports without
// a schemaLocation.
var wellKnown = map[string]string{
	"http://www.w3.org/XML/1998/namespace": "xml.xsd",
}

// bundledURLs are the published locations of the bundled documents.
var bundledURLs = map[string]string{
	"http://www.w3.org/2001/xml.xsd":    "xml.xsd",
	"http://www.w3.org/2009/01/xml.xsd": "xml.xsd",
	"https://www.w3.org/2001/xml.xsd":   "xml.xsd",
}

// The schema document for the XML namespace, without its prose.
var xmlnsxsd = []byte(`<?xml version='1.0'?>
<xs:schema targetNamespace="http://www.w3.org/XML/1998/namespace"
  xmlns:xs="http://www.w3.org/2001/XMLSchema"
  xml:lang="en">
 <xs:attribute name="lang">
  <xs:annotation>
   <xs:documentation>
    A language code for the natural language of the content of any
    element; its value is inherited. The union allows for the
    un-declaration of xml:lang with the empty string.
   </xs:documentation>
  </xs:annotation>
  <xs:simpleType>
   <xs:union memberTypes="xs:language">
    <xs:simpleType>
     <xs:restriction base="xs:string">
      <xs:enumeration value=""/>
     </xs:restriction>
    </xs:simpleType>
   </xs:union>
  </xs:simpleType>
 </xs:attribute>
 <xs:attribute name="space">
  <xs:annotation>
   <xs:documentation>
    The white space processing discipline intended for the content of
    the element; its value is inherited.
   </xs:documentation>
  </xs:annotation>
  <xs:simpleType>
   <xs:restriction base="xs:NCName">
    <xs:enumeration value="default"/>
    <xs:enumeration value="preserve"/>
   </xs:restriction>
  </xs:simpleType>
 </xs:attribute>
 <xs:attribute name="base" type="xs:anyURI">
  <xs:annotation>
   <xs:documentation>
    A URI to be used as the base for interpreting any relative URIs in
    the scope of the element on which it appears; its value is inherited.
   </xs:documentation>
  </xs:annotation>
 </xs:attribute>
 <xs:attribute name="id" type="xs:ID">
  <xs:annotation>
   <xs:documentation>
    An attribute whose value should be interpreted as if declared to be
    of type ID.
   </xs:documentation>
  </xs:annotation>
 </xs:attribute>
 <xs:attributeGroup name="specialAttrs">
  <xs:attribute ref="xml:base"/>
  <xs:attribute ref="xml:lang"/>
  <xs:attribute ref="xml:space"/>
  <xs:attribute ref="xml:id"/>
 </xs:attributeGroup>
</xs:schema>
`)
