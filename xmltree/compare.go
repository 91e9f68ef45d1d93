package xmltree

import (
	"bytes"
	"encoding/xml"
	"sort"
)

// Equal returns true if two xmltree.Elements are equal, ignoring
// differences in white space, sub-element order, namespace prefixes
// and source locations. Neither tree is modified.
func Equal(a, b *Element) bool {
	return equal(a, b, 0)
}

func sortedChildren(el *Element) []*Element {
	children := make([]*Element, len(el.Children))
	for i := range el.Children {
		children[i] = &el.Children[i]
	}
	sort.SliceStable(children, func(i, j int) bool {
		ni, nj := children[i].Name, children[j].Name
		if ni.Space != nj.Space {
			return ni.Space < nj.Space
		}
		if ni.Local != nj.Local {
			return ni.Local < nj.Local
		}
		return children[i].Attr("", "name") < children[j].Attr("", "name")
	})
	return children
}

func equal(a, b *Element, depth int) bool {
	const maxDepth = 1000
	if depth > maxDepth {
		return false
	}
	if !equalElement(a, b) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	if len(a.Children) == 0 {
		return bytes.Equal(bytes.TrimSpace(a.Content), bytes.TrimSpace(b.Content))
	}
	ac, bc := sortedChildren(a), sortedChildren(b)
	for i := range ac {
		if !equal(ac[i], bc[i], depth+1) {
			return false
		}
	}
	return true
}

func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}

func equalElement(a, b *Element) bool {
	if a.Name != b.Name {
		return false
	}
	attrs := make(map[xml.Name]string)
	for _, attr := range a.StartElement.Attr {
		if isNamespaceDecl(attr.Name) {
			continue
		}
		attrs[attr.Name] = attr.Value
	}

	n := 0
	for _, attr := range b.StartElement.Attr {
		if isNamespaceDecl(attr.Name) {
			continue
		}
		if v, ok := attrs[attr.Name]; !ok || v != attr.Value {
			return false
		}
		n++
	}
	return n == len(attrs)
}
