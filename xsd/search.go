package xsd

import "github.com/CognitoIQ/go-xsd/xmltree"

// Search predicates for the xmltree.Element.SearchFunc method
type predicate func(el *xmltree.Element) bool

func or(fns ...predicate) predicate {
	return func(el *xmltree.Element) bool {
		for _, f := range fns {
			if f(el) {
				return true
			}
		}
		return false
	}
}

func isElem(space, local string) predicate {
	return func(el *xmltree.Element) bool {
		if el.Name.Local != local {
			return false
		}
		return space == "" || el.Name.Space == space
	}
}

var (
	isSchema    = isElem(schemaNS, "schema")
	isDirective = or(
		isElem(schemaNS, "include"),
		isElem(schemaNS, "import"),
		isElem(schemaNS, "redefine"),
		isElem(schemaNS, "override"))
)
