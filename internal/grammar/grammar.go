// Package grammar describes the shape of every element of the XML Schema
// vocabulary: which attributes it carries, which of them are required,
// what their values look like, and how many of each child element it may
// contain. The schema compiler checks an element against its shape before
// building a component from it.
//
// The table is fixed by the XSD 1.1 recommendation; it is built once and
// never modified.
package grammar // import "github.com/CognitoIQ/go-xsd/internal/grammar"

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

// Namespace is the XML Schema namespace.
const Namespace = "http://www.w3.org/2001/XMLSchema"

// Unbounded is used as the maximum of a child group without an upper
// limit.
const Unbounded = -1

// A Kind describes the lexical space of an attribute value.
type Kind int

const (
	String Kind = iota
	Boolean
	NonNegativeInteger
	PositiveInteger
	// nonNegativeInteger or "unbounded"
	MaxOccurs
	// one of Attr.Values
	Token
	// whitespace-separated subset of Attr.Values, or "#all"
	Set
	QName
	QNameList
	AnyURI
	NCName
)

// An Attr describes one unqualified attribute.
type Attr struct {
	Name     string
	Required bool
	Kind     Kind
	Values   []string
}

// A Child describes a group of child elements: the number of schema
// namespace children whose local name is one of Names must lie in
// [Min, Max].
type Child struct {
	Names    []string
	Min, Max int
}

// A Shape is the grammar of one element.
type Shape struct {
	Name     string
	Attrs    []Attr
	Children []Child
	// Content is not checked, as for <appinfo> and <documentation>.
	Open bool
}

func (s *Shape) attr(name string) (Attr, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

func (s *Shape) group(local string) int {
	for i, c := range s.Children {
		for _, n := range c.Names {
			if n == local {
				return i
			}
		}
	}
	return -1
}

// A Violation describes an element that does not match its shape.
type Violation struct {
	Element *xmltree.Element
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

func violation(el *xmltree.Element, format string, args ...interface{}) *Violation {
	return &Violation{Element: el, Message: fmt.Sprintf(format, args...)}
}

// A Form is an element that has been checked against its shape, with its
// attributes and children indexed for construction.
type Form struct {
	Element  *xmltree.Element
	attrs    map[string]string
	children []*xmltree.Element
}

// Attr returns the value of an unqualified attribute, with surrounding
// white space removed for every kind other than String.
func (f *Form) Attr(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

// Value is like Attr, returning def when the attribute is absent.
func (f *Form) Value(name, def string) string {
	if v, ok := f.attrs[name]; ok {
		return v
	}
	return def
}

// Bool returns the value of a Boolean attribute, or def.
func (f *Form) Bool(name string, def bool) bool {
	v, ok := f.attrs[name]
	if !ok {
		return def
	}
	return v == "true" || v == "1"
}

// Children returns the schema namespace children whose local name is one
// of names, in document order. With no names, all schema namespace
// children are returned.
func (f *Form) Children(names ...string) []*xmltree.Element {
	if len(names) == 0 {
		return f.children
	}
	var result []*xmltree.Element
	for _, c := range f.children {
		for _, n := range names {
			if c.Name.Local == n {
				result = append(result, c)
				break
			}
		}
	}
	return result
}

// Child returns the first child matching one of names, or nil.
func (f *Form) Child(names ...string) *xmltree.Element {
	if c := f.Children(names...); len(c) > 0 {
		return c[0]
	}
	return nil
}

// Check validates el against the shape of rule. Attributes and children
// outside of the XML Schema namespace are not checked; unqualified
// attributes must be declared by the shape. The first problem found is
// returned as a *Violation.
func Check(el *xmltree.Element, rule Rule) (*Form, error) {
	shape := shapes[rule]
	if shape == nil {
		panic(fmt.Sprintf("grammar: no shape for rule %d", rule))
	}
	if el.Name.Space != Namespace || el.Name.Local != shape.Name {
		return nil, violation(el, "expected <%s>, found <%s>", shape.Name, el.Name.Local)
	}
	form := &Form{Element: el, attrs: make(map[string]string, len(el.StartElement.Attr))}

	for _, a := range el.StartElement.Attr {
		if a.Name.Space != "" || a.Name.Local == "xmlns" {
			continue
		}
		spec, ok := shape.attr(a.Name.Local)
		if !ok {
			return nil, violation(el, "attribute %q is not allowed on <%s>", a.Name.Local, shape.Name)
		}
		value := a.Value
		if spec.Kind != String {
			value = strings.TrimSpace(value)
		}
		if err := checkValue(spec, value); err != nil {
			return nil, violation(el, "invalid value %q for attribute %q of <%s>: %v",
				a.Value, a.Name.Local, shape.Name, err)
		}
		form.attrs[a.Name.Local] = value
	}
	for _, spec := range shape.Attrs {
		if _, ok := form.attrs[spec.Name]; spec.Required && !ok {
			return nil, violation(el, "<%s> is missing required attribute %q", shape.Name, spec.Name)
		}
	}

	if shape.Open {
		return form, nil
	}
	counts := make([]int, len(shape.Children))
	for i := range el.Children {
		c := &el.Children[i]
		if c.Name.Space != Namespace {
			continue
		}
		g := shape.group(c.Name.Local)
		if g < 0 {
			return nil, violation(c, "<%s> is not allowed in <%s>", c.Name.Local, shape.Name)
		}
		counts[g]++
		if max := shape.Children[g].Max; max != Unbounded && counts[g] > max {
			return nil, violation(c, "too many %s in <%s> (at most %d allowed)",
				describe(shape.Children[g].Names), shape.Name, max)
		}
		form.children = append(form.children, c)
	}
	for g, n := range counts {
		if min := shape.Children[g].Min; n < min {
			return nil, violation(el, "<%s> requires at least %d of %s",
				shape.Name, min, describe(shape.Children[g].Names))
		}
	}
	return form, nil
}

func describe(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "<" + n + ">"
	}
	return strings.Join(quoted, "|")
}

func checkValue(spec Attr, v string) error {
	switch spec.Kind {
	case Boolean:
		switch v {
		case "true", "false", "1", "0":
			return nil
		}
		return fmt.Errorf("not a boolean")
	case NonNegativeInteger:
		return checkInteger(v, 0)
	case PositiveInteger:
		return checkInteger(v, 1)
	case MaxOccurs:
		if v == "unbounded" {
			return nil
		}
		return checkInteger(v, 0)
	case Token:
		for _, allowed := range spec.Values {
			if v == allowed {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(spec.Values, ", "))
	case Set:
		if v == "#all" {
			return nil
		}
	next:
		for _, tok := range strings.Fields(v) {
			for _, allowed := range spec.Values {
				if tok == allowed {
					continue next
				}
			}
			return fmt.Errorf("%q is not one of %s", tok, strings.Join(spec.Values, ", "))
		}
		return nil
	case QName:
		if !isQName(v) {
			return fmt.Errorf("not a QName")
		}
	case QNameList:
		for _, tok := range strings.Fields(v) {
			if !isQName(tok) {
				return fmt.Errorf("%q is not a QName", tok)
			}
		}
	case NCName:
		if !isNCName(v) {
			return fmt.Errorf("not an NCName")
		}
	}
	return nil
}

func checkInteger(v string, min int) error {
	n, err := strconv.ParseUint(strings.TrimPrefix(v, "+"), 10, 64)
	if err != nil {
		return fmt.Errorf("not a non-negative integer")
	}
	if n < uint64(min) {
		return fmt.Errorf("must be at least %d", min)
	}
	return nil
}

func isQName(v string) bool {
	prefix, local, ok := strings.Cut(v, ":")
	if !ok {
		return isNCName(v)
	}
	return isNCName(prefix) && isNCName(local)
}

func isNCName(v string) bool {
	if v == "" {
		return false
	}
	for i, r := range v {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= 0xC0:
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9' || r == 0xB7):
		default:
			return false
		}
	}
	return true
}
