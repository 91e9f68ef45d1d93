package xmltree_test

import (
	"fmt"
	"log"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

func ExampleElement_Search() {
	data := `
	<schema xmlns="http://www.w3.org/2001/XMLSchema">
	  <element name="order"/>
	  <complexType name="Item">
	    <sequence>
	      <element name="sku"/>
	      <element name="qty"/>
	    </sequence>
	  </complexType>
	</schema>
	`
	root, err := xmltree.Parse([]byte(data))
	if err != nil {
		log.Fatal(err)
	}
	for _, el := range root.Search("http://www.w3.org/2001/XMLSchema", "element") {
		fmt.Println(el.Attr("", "name"))
	}

	// Output:
	// order
	// sku
	// qty
}

func ExampleElement_Resolve() {
	data := `
	<schema xmlns:t="urn:one" xmlns="http://www.w3.org/2001/XMLSchema">
	  <element name="a" type="t:A"/>
	  <element name="b" type="t:B" xmlns:t="urn:two"/>
	  <element name="c" type="string"/>
	</schema>
	`
	root, err := xmltree.Parse([]byte(data))
	if err != nil {
		log.Fatal(err)
	}
	for _, el := range root.Search("", "element") {
		fmt.Println(el.Resolve(el.Attr("", "type")))
	}

	// Output:
	// {urn:one A}
	// {urn:two B}
	// {http://www.w3.org/2001/XMLSchema string}
}

func ExampleElement_Location() {
	data := "<schema>\n  <element name=\"a\"/>\n</schema>"
	root, err := xmltree.ParseLocation("file:///tmp/a.xsd", []byte(data))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(root.Children[0].Location())

	// Output:
	// file:///tmp/a.xsd:2
}
