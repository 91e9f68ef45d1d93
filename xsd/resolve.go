package xsd

import (
	"encoding/xml"
	"strings"

	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// find returns a cell holding the component of the given kind and name.
// The lookup happens when the cell is forced; it does not force any
// property of the component found.
func (s *Schema) find(name xml.Name, kind Kind, node *xmltree.Element) *lazy.Cell[Named] {
	return newCell(kind.String()+" "+name.Local, node, func() Named {
		if name.Space == schemaNS && kind == KindType {
			b, err := ParseBuiltin(name)
			if err != nil {
				stop(&UnresolvedReferenceError{Site: at(node), Name: name, Kind: kind})
			}
			return b.Type()
		}
		if c, ok := must(s.assembled)[kind][name]; ok {
			return c
		}
		stop(&UnresolvedReferenceError{Site: at(node), Name: name, Kind: kind})
		return nil
	})
}

// lookup is find for a component of type T.
func lookup[T Named](s *Schema, kind Kind, name xml.Name, node *xmltree.Element) *lazy.Cell[T] {
	found := s.find(name, kind, node)
	return newCell(found.Label(), node, func() T {
		c, ok := must(found).(T)
		if !ok {
			stop(grammarError(node, "%s {%s}%s has the wrong kind", kind, name.Space, name.Local))
		}
		return c
	})
}

// qname resolves a QName-valued attribute in the scope of el.
func qname(el *xmltree.Element, value string) xml.Name {
	name, ok := el.ResolveNS(value)
	if !ok {
		stop(grammarError(el, "cannot resolve namespace prefix of %q", value))
	}
	return name
}

// qnames resolves a whitespace-separated list of QNames.
func qnames(el *xmltree.Element, value string) []xml.Name {
	var names []xml.Name
	for _, v := range strings.Fields(value) {
		names = append(names, qname(el, v))
	}
	return names
}

// resolveType returns a cell holding the type named by a QName.
func (s *Schema) resolveType(el *xmltree.Element, value string) *lazy.Cell[Type] {
	return lookup[Type](s, KindType, qname(el, value), el)
}

// resolveSimpleType is resolveType for a reference that must name a
// simple type.
func (s *Schema) resolveSimpleType(el *xmltree.Element, value string) *lazy.Cell[*SimpleType] {
	name := qname(el, value)
	return lazy.Map(lookup[Type](s, KindType, name, el), func(t Type) (*SimpleType, error) {
		st, ok := t.(*SimpleType)
		if !ok {
			return nil, grammarError(el, "%s is a complex type; a simple type is required", name.Local)
		}
		return st, nil
	})
}
