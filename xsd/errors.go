package xsd

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

// Every fatal compilation error carries the schema document element it
// was found at. Path lists the elements from the document root down to
// Node, and is filled in before the error is returned from Compile.
type Site struct {
	Node *xmltree.Element
	Path []*xmltree.Element
}

func (s *Site) site() *Site { return s }

type sited interface {
	error
	site() *Site
}

func at(node *xmltree.Element) Site { return Site{Node: node} }

// prefix renders the location of the error as
// "file:line: schema>complexType(T)>sequence: ".
func (s *Site) prefix() string {
	var b strings.Builder
	if s.Node != nil {
		if loc := s.Node.Location(); loc != "" {
			b.WriteString(loc)
			b.WriteString(": ")
		}
	}
	if len(s.Path) > 0 {
		crumbs := make([]string, 0, len(s.Path))
		for _, el := range s.Path {
			piece := el.Name.Local
			if name := el.Attr("", "name"); name != "" {
				piece = fmt.Sprintf("%s(%s)", piece, name)
			}
			crumbs = append(crumbs, piece)
		}
		b.WriteString(strings.Join(crumbs, ">"))
		b.WriteString(": ")
	}
	return b.String()
}

// A GrammarViolationError reports an element or attribute of a schema
// document that does not have the shape the XML Schema recommendation
// requires of it.
type GrammarViolationError struct {
	Site
	Message string
}

func (e *GrammarViolationError) Error() string { return e.prefix() + e.Message }

func grammarError(node *xmltree.Element, format string, args ...interface{}) *GrammarViolationError {
	return &GrammarViolationError{Site: at(node), Message: fmt.Sprintf(format, args...)}
}

// An UnresolvedReferenceError reports a QName that does not name a
// component of the expected kind.
type UnresolvedReferenceError struct {
	Site
	Name xml.Name
	Kind Kind
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%scould not find %s {%s}%s", e.prefix(), e.Kind, e.Name.Space, e.Name.Local)
}

// A CyclicResolutionError reports a component whose definition depends
// on itself, such as a type derived from itself or a group that contains
// itself.
type CyclicResolutionError struct {
	Site
	Label string
}

func (e *CyclicResolutionError) Error() string {
	return fmt.Sprintf("%scircular definition of %s", e.prefix(), e.Label)
}

// A NamespaceMismatchError reports an import, include, redefine or
// override whose namespace does not agree with the document it names.
type NamespaceMismatchError struct {
	Site
	Expected, Actual string
	Message          string
}

func (e *NamespaceMismatchError) Error() string {
	return fmt.Sprintf("%s%s (expected %q, found %q)", e.prefix(), e.Message, e.Expected, e.Actual)
}

// A FixedFacetViolationError reports a restriction that changes the value
// of a facet its base type fixed.
type FixedFacetViolationError struct {
	Site
	Facet       FacetKind
	Base, Value string
}

func (e *FixedFacetViolationError) Error() string {
	return fmt.Sprintf("%s%s is fixed to %q in the base type and cannot be changed to %q",
		e.prefix(), e.Facet, e.Base, e.Value)
}

// A DisallowedFacetError reports a facet that does not apply to the base
// type of a restriction, such as maxLength on a decimal.
type DisallowedFacetError struct {
	Site
	Facet FacetKind
	Base  xml.Name
}

func (e *DisallowedFacetError) Error() string {
	base := e.Base.Local
	if base == "" {
		base = "an anonymous type"
	}
	return fmt.Sprintf("%s%s is not allowed for restrictions of %s", e.prefix(), e.Facet, base)
}

// A FacetRestrictionError reports a facet that would allow values the
// base type does not, such as a larger maxLength.
type FacetRestrictionError struct {
	Site
	Facet       FacetKind
	Base, Value string
	Message     string
}

func (e *FacetRestrictionError) Error() string {
	return fmt.Sprintf("%s%s %q %s %q of the base type", e.prefix(), e.Facet, e.Value, e.Message, e.Base)
}

// A DuplicateComponentError reports two distinct components with the same
// name in one component set.
type DuplicateComponentError struct {
	Site
	Name  xml.Name
	Kind  Kind
	Other *xmltree.Element
}

func (e *DuplicateComponentError) Error() string {
	msg := fmt.Sprintf("%sduplicate %s {%s}%s", e.prefix(), e.Kind, e.Name.Space, e.Name.Local)
	if e.Other != nil && e.Other.Location() != "" {
		msg += " (also declared at " + e.Other.Location() + ")"
	}
	return msg
}

// A TransformUnavailableError is returned when a document has to be
// rewritten for chameleon inclusion, redefine or override and the
// Compiler has no Transformer.
type TransformUnavailableError struct {
	Site
	Directive string
}

func (e *TransformUnavailableError) Error() string {
	return fmt.Sprintf("%s%s requires a document transformer, but none is configured", e.prefix(), e.Directive)
}
