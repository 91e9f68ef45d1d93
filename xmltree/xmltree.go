// Package xmltree reads an XML document into a tree of Elements that
// keep their namespace bindings, so that QName values found in
// attributes can be resolved anywhere in the tree. Every Element remembers the
// location of the document it was read from and the line it started
// on, so that consumers can point at the source of a problem.
package xmltree // import "github.com/CognitoIQ/go-xsd/xmltree"

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const recursionLimit = 3000

// XMLNS is the namespace bound to the reserved "xml" prefix.
const XMLNS = "http://www.w3.org/XML/1998/namespace"

var errDeepXML = errors.New("xmltree: xml document too deeply nested")

// An Element is one element of a document with its attributes and
// children. Content slices share the bytes of the parsed document and
// must not be modified.
type Element struct {
	xml.StartElement
	// The raw content between the start and end tags.
	Content  []byte
	Children []Element
	// Namespace prefixes in scope at this element.
	Scope
	// Location of the document containing the element.
	Base string
	// Line on which the start tag ends, starting at 1.
	Line int
}

// A Scope is the list of XML namespace prefixes in effect at an element,
// from least specific to most specific. The Space field of each binding
// is the canonical xml namespace, and the Local field is the prefix.
type Scope struct {
	ns []xml.Name
}

// Bindings returns the namespace bindings in the scope, from least to
// most specific.
func (scope *Scope) Bindings() []xml.Name {
	return scope.ns
}

// Bind adds a namespace binding to the scope. The new binding takes
// precedence over any earlier binding for the same prefix. Bind never
// modifies the backing array of a scope shared with other elements.
func (scope *Scope) Bind(prefix, namespace string) {
	ns := make([]xml.Name, len(scope.ns), len(scope.ns)+1)
	copy(ns, scope.ns)
	scope.ns = append(ns, xml.Name{Space: namespace, Local: prefix})
}

// Lookup returns the namespace bound to prefix.
func (scope *Scope) Lookup(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNS, true
	}
	for i := len(scope.ns) - 1; i >= 0; i-- {
		if scope.ns[i].Local == prefix {
			return scope.ns[i].Space, true
		}
	}
	return "", false
}

// Resolve expands a QName such as "xs:string" into an xml.Name whose
// Space is the bound namespace. If qname does not have a prefix, the default namespace is used.
// If a namespace prefix cannot be resolved, the returned value's Space
// field will be the unresolved prefix. Use the ResolveNS method to detect
// when a namespace prefix cannot be resolved.
func (scope *Scope) Resolve(qname string) xml.Name {
	name, _ := scope.ResolveNS(qname)
	return name
}

// ResolveNS is like Resolve, but returns false for its second
// return value if a namespace prefix cannot be resolved. An unprefixed
// name with no default namespace in scope resolves to the empty
// namespace and true.
func (scope *Scope) ResolveNS(qname string) (xml.Name, bool) {
	qname = strings.TrimSpace(qname)
	prefix, local := "", qname
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		prefix, local = qname[:i], qname[i+1:]
	}
	if space, ok := scope.Lookup(prefix); ok {
		return xml.Name{Space: space, Local: local}, true
	}
	if prefix == "" {
		return xml.Name{Local: local}, true
	}
	return xml.Name{Space: prefix, Local: local}, false
}

// ResolveDefault is like Resolve, except that an unprefixed name is
// placed in defaultns when defaultns is not empty.
func (scope *Scope) ResolveDefault(qname, defaultns string) xml.Name {
	if defaultns == "" || strings.Contains(qname, ":") {
		return scope.Resolve(qname)
	}
	return xml.Name{Space: defaultns, Local: strings.TrimSpace(qname)}
}

// Prefix turns name back into a QName using the closest prefix bound
// to its namespace, or returns "" when no prefix is bound.
func (scope *Scope) Prefix(name xml.Name) (qname string) {
	if name.Space == XMLNS {
		return "xml:" + name.Local
	}
	for i := len(scope.ns) - 1; i >= 0; i-- {
		if scope.ns[i].Space != name.Space {
			continue
		}
		// the prefix may have been shadowed by a closer binding
		if space, _ := scope.Lookup(scope.ns[i].Local); space != name.Space {
			continue
		}
		if scope.ns[i].Local == "" {
			return name.Local
		}
		return scope.ns[i].Local + ":" + name.Local
	}
	return ""
}

func (scope *Scope) pushNS(tag xml.StartElement) {
	var add []xml.Name
	for _, attr := range tag.Attr {
		if attr.Name.Space == "xmlns" {
			add = append(add, xml.Name{Space: attr.Value, Local: attr.Name.Local})
		} else if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			add = append(add, xml.Name{Space: attr.Value})
		}
	}
	if len(add) > 0 {
		scope.ns = append(scope.ns, add...)
		// children appending to their scope must not share our array
		scope.ns = scope.ns[:len(scope.ns):len(scope.ns)]
	}
}

// Attr returns the value of the attribute named {space}local, or ""
// if there is none. An empty space matches unqualified attributes only.
func (el *Element) Attr(space, local string) string {
	v, _ := el.LookupAttr(space, local)
	return v
}

// LookupAttr is like Attr, but reports whether the attribute is present.
func (el *Element) LookupAttr(space, local string) (string, bool) {
	for _, v := range el.StartElement.Attr {
		if v.Name.Local != local || v.Name.Space != space {
			continue
		}
		return v.Value, true
	}
	return "", false
}

// SetAttr sets an attribute, replacing its value if it is present.
func (el *Element) SetAttr(space, local, value string) {
	for i, a := range el.StartElement.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			el.StartElement.Attr[i].Value = value
			return
		}
	}
	el.StartElement.Attr = append(el.StartElement.Attr, xml.Attr{
		Name:  xml.Name{Space: space, Local: local},
		Value: value,
	})
}

// RemoveAttr removes an attribute, if present.
func (el *Element) RemoveAttr(space, local string) {
	attrs := el.StartElement.Attr[:0]
	for _, a := range el.StartElement.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			continue
		}
		attrs = append(attrs, a)
	}
	el.StartElement.Attr = attrs
}

// Location describes where the element came from, in the form
// "base:line". Elements created in memory report an empty string.
func (el *Element) Location() string {
	switch {
	case el.Base == "" && el.Line == 0:
		return ""
	case el.Line == 0:
		return el.Base
	}
	return fmt.Sprintf("%s:%d", el.Base, el.Line)
}

// Copy returns a deep copy of the element tree rooted at el. The
// Content bytes are shared, since they are never modified.
func (el *Element) Copy() *Element {
	cp := *el
	cp.StartElement = el.StartElement.Copy()
	if el.Children != nil {
		cp.Children = make([]Element, len(el.Children))
		for i := range el.Children {
			cp.Children[i] = *el.Children[i].Copy()
		}
	}
	return &cp
}

type scanner struct {
	*xml.Decoder
	tok xml.Token
	err error
}

func (s *scanner) scan() bool {
	if s.err != nil {
		return false
	}
	s.tok, s.err = s.Token()
	return s.err == nil
}

// Parse reads a document with a single root element into a tree.
func Parse(doc []byte) (*Element, error) {
	return ParseLocation("", doc)
}

// ParseLocation is like Parse, but records base as the location of
// every Element in the document. Documents declaring an encoding other
// than UTF-8 are transcoded.
func ParseLocation(base string, doc []byte) (*Element, error) {
	doc, err := toUTF8(doc)
	if err != nil {
		return nil, fmt.Errorf("xmltree: %s: %w", base, err)
	}
	d := xml.NewDecoder(bytes.NewReader(doc))
	// Content slices index into doc, so the whole document is
	// transcoded up front and the decoder must not convert again.
	d.CharsetReader = keepBytes
	scanner := scanner{Decoder: d}
	root := &Element{Base: base}

	for scanner.scan() {
		if start, ok := scanner.tok.(xml.StartElement); ok {
			root.StartElement = start.Copy()
			root.Line, _ = d.InputPos()
			break
		}
	}
	if scanner.err != nil {
		return nil, fmt.Errorf("xmltree: %s: %w", base, scanner.err)
	}
	if err := root.parse(&scanner, doc, 0); err != nil {
		return nil, fmt.Errorf("xmltree: %s: %w", base, err)
	}
	return root, nil
}

// toUTF8 transcodes doc to UTF-8 if its XML declaration names
// another encoding.
func toUTF8(doc []byte) ([]byte, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))
	d.CharsetReader = keepBytes
	tok, err := d.RawToken()
	if err != nil {
		return doc, nil
	}
	inst, ok := tok.(xml.ProcInst)
	if !ok || inst.Target != "xml" {
		return doc, nil
	}
	label := procInstParam(string(inst.Inst), "encoding")
	switch strings.ToLower(label) {
	case "", "utf-8", "utf8":
		return doc, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// keepBytes lets the decoder read past an encoding declaration
// without converting anything.
func keepBytes(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func procInstParam(inst, param string) string {
	for _, field := range strings.Fields(inst) {
		k, v, ok := strings.Cut(field, "=")
		if !ok || k != param {
			continue
		}
		return strings.Trim(v, `"'`)
	}
	return ""
}

func (el *Element) parse(scanner *scanner, data []byte, depth int) error {
	if depth > recursionLimit {
		return errDeepXML
	}
	el.pushNS(el.StartElement)

	begin := scanner.InputOffset()
	end := begin
walk:
	for scanner.scan() {
		switch tok := scanner.tok.(type) {
		case xml.StartElement:
			child := Element{StartElement: tok.Copy(), Scope: el.Scope, Base: el.Base}
			child.Line, _ = scanner.InputPos()
			if err := child.parse(scanner, data, depth+1); err != nil {
				return err
			}
			el.Children = append(el.Children, child)
		case xml.EndElement:
			if tok.Name != el.Name {
				return fmt.Errorf("Expecting </%s>, got </%s>", el.Prefix(el.Name), el.Prefix(tok.Name))
			}
			if begin <= end && int(end) <= len(data) {
				el.Content = data[int(begin):int(end)]
			}
			break walk
		}
		end = scanner.InputOffset()
	}
	return scanner.err
}

// Text returns the character data directly inside the element,
// ignoring markup of child elements.
func (el *Element) Text() string {
	var buf bytes.Buffer
	d := xml.NewDecoder(bytes.NewReader(el.Content))
	depth := 0
	for {
		tok, err := d.RawToken()
		if err != nil {
			break
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 {
				buf.Write(tok)
			}
		}
	}
	return buf.String()
}

// SearchFunc returns the descendants of el, in depth-first document
// order, for which fn returns true. Matching elements are searched too;
// el itself is never part of the result.
func (el *Element) SearchFunc(fn func(*Element) bool) []*Element {
	var found []*Element
	var visit func(*Element)
	visit = func(parent *Element) {
		for i := range parent.Children {
			c := &parent.Children[i]
			if fn(c) {
				found = append(found, c)
			}
			visit(c)
		}
	}
	visit(el)
	return found
}

// Search returns the descendants of el named {space}local. An empty
// space matches any namespace.
func (el *Element) Search(space, local string) []*Element {
	return el.SearchFunc(func(el *Element) bool {
		if local != el.Name.Local {
			return false
		}
		return space == "" || space == el.Name.Space
	})
}

// ChildrenNamed returns the direct children of el with the given
// name, in document order.
func (el *Element) ChildrenNamed(space, local string) []*Element {
	var result []*Element
	for i := range el.Children {
		c := &el.Children[i]
		if c.Name.Local == local && c.Name.Space == space {
			result = append(result, c)
		}
	}
	return result
}
