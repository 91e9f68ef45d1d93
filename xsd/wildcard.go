package xsd

import (
	"encoding/xml"
	"strings"

	"github.com/CognitoIQ/go-xsd/internal/ordered"
	"github.com/CognitoIQ/go-xsd/xmltree"
	"golang.org/x/exp/slices"
)

// NamespaceVariety is the variety of a wildcard's namespace constraint.
type NamespaceVariety int

const (
	NamespaceAny NamespaceVariety = iota
	// Any namespace except those listed.
	NamespaceNot
	// Only the namespaces listed.
	NamespaceEnumeration
)

func (v NamespaceVariety) String() string {
	return [...]string{"any", "not", "enumeration"}[v]
}

// DisallowedNames are the names a wildcard does not match even though
// their namespace is allowed. Defined excludes names of global
// declarations, Sibling those of sibling elements.
type DisallowedNames struct {
	Names   []xml.Name
	Defined bool
	Sibling bool
}

func (d DisallowedNames) has(name xml.Name) bool {
	for _, n := range d.Names {
		if n == name {
			return true
		}
	}
	return false
}

// A NamespaceConstraint describes the names a wildcard matches. The
// absent namespace is the empty string in Namespaces; namespaces are
// kept sorted and without duplicates.
type NamespaceConstraint struct {
	Variety    NamespaceVariety
	Namespaces []string
	Disallowed DisallowedNames
}

// AllowsNamespace reports whether names in ns can match.
func (c NamespaceConstraint) AllowsNamespace(ns string) bool {
	_, found := slices.BinarySearch(c.Namespaces, ns)
	switch c.Variety {
	case NamespaceNot:
		return !found
	case NamespaceEnumeration:
		return found
	}
	return true
}

// Allows reports whether name matches. The Defined and Sibling
// sentinels depend on the instance and are not considered.
func (c NamespaceConstraint) Allows(name xml.Name) bool {
	return c.AllowsNamespace(name.Space) && !c.Disallowed.has(name)
}

// Equal reports whether two constraints are identical.
func (c NamespaceConstraint) Equal(o NamespaceConstraint) bool {
	c, o = c.normalize(), o.normalize()
	if c.Variety != o.Variety || !slices.Equal(c.Namespaces, o.Namespaces) {
		return false
	}
	if c.Disallowed.Defined != o.Disallowed.Defined || c.Disallowed.Sibling != o.Disallowed.Sibling {
		return false
	}
	return slices.Equal(sortNames(c.Disallowed.Names), sortNames(o.Disallowed.Names))
}

func (c NamespaceConstraint) String() string {
	var b strings.Builder
	b.WriteString(c.Variety.String())
	if c.Variety != NamespaceAny {
		b.WriteString("(")
		for i, ns := range c.Namespaces {
			if i > 0 {
				b.WriteString(" ")
			}
			if ns == "" {
				ns = "##local"
			}
			b.WriteString(ns)
		}
		b.WriteString(")")
	}
	return b.String()
}

// normalize replaces not() by any and sorts the namespace set.
func (c NamespaceConstraint) normalize() NamespaceConstraint {
	c.Namespaces = namespaceSet(c.Namespaces)
	if c.Variety == NamespaceNot && len(c.Namespaces) == 0 {
		c.Variety = NamespaceAny
		c.Namespaces = nil
	}
	if c.Variety == NamespaceAny {
		c.Namespaces = nil
	}
	return c
}

func namespaceSet(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	m := make(map[string]bool, len(list))
	for _, ns := range list {
		m[ns] = true
	}
	return ordered.Keys(m)
}

func sortNames(names []xml.Name) []xml.Name {
	if len(names) == 0 {
		return nil
	}
	m := make(map[xml.Name]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return ordered.Names(m)
}

func setOp(a, b []string, keep func(inA, inB bool) bool) []string {
	m := make(map[string]bool)
	for _, ns := range a {
		m[ns] = true
	}
	var result []string
	for _, ns := range namespaceSet(append(append([]string(nil), a...), b...)) {
		_, inB := slices.BinarySearch(namespaceSet(b), ns)
		if keep(m[ns], inB) {
			result = append(result, ns)
		}
	}
	return result
}

// Union returns a constraint allowing every name either a or b allows.
func Union(a, b NamespaceConstraint) NamespaceConstraint {
	a, b = a.normalize(), b.normalize()
	var result NamespaceConstraint
	switch {
	case a.Variety == b.Variety && slices.Equal(a.Namespaces, b.Namespaces):
		result = NamespaceConstraint{Variety: a.Variety, Namespaces: a.Namespaces}
	case a.Variety == NamespaceAny || b.Variety == NamespaceAny:
		result = NamespaceConstraint{Variety: NamespaceAny}
	case a.Variety == NamespaceEnumeration && b.Variety == NamespaceEnumeration:
		result = NamespaceConstraint{
			Variety:    NamespaceEnumeration,
			Namespaces: setOp(a.Namespaces, b.Namespaces, func(x, y bool) bool { return x || y }),
		}
	case a.Variety == NamespaceNot && b.Variety == NamespaceNot:
		result = NamespaceConstraint{
			Variety:    NamespaceNot,
			Namespaces: setOp(a.Namespaces, b.Namespaces, func(x, y bool) bool { return x && y }),
		}
	default:
		not, enum := a, b
		if not.Variety != NamespaceNot {
			not, enum = b, a
		}
		result = NamespaceConstraint{
			Variety:    NamespaceNot,
			Namespaces: setOp(not.Namespaces, enum.Namespaces, func(x, y bool) bool { return x && !y }),
		}
	}

	// a name stays disallowed only if the other side disallows it too
	for _, pair := range [2][2]NamespaceConstraint{{a, b}, {b, a}} {
		for _, n := range pair[0].Disallowed.Names {
			if !pair[1].Allows(n) && !result.Disallowed.has(n) {
				result.Disallowed.Names = append(result.Disallowed.Names, n)
			}
		}
	}
	result.Disallowed.Names = sortNames(result.Disallowed.Names)
	result.Disallowed.Defined = a.Disallowed.Defined && b.Disallowed.Defined
	result.Disallowed.Sibling = a.Disallowed.Sibling && b.Disallowed.Sibling
	return result.normalize()
}

// Intersect returns a constraint allowing the names both a and b allow.
func Intersect(a, b NamespaceConstraint) NamespaceConstraint {
	a, b = a.normalize(), b.normalize()
	var result NamespaceConstraint
	switch {
	case a.Variety == NamespaceAny:
		result = NamespaceConstraint{Variety: b.Variety, Namespaces: b.Namespaces}
	case b.Variety == NamespaceAny:
		result = NamespaceConstraint{Variety: a.Variety, Namespaces: a.Namespaces}
	case a.Variety == NamespaceEnumeration && b.Variety == NamespaceEnumeration:
		result = NamespaceConstraint{
			Variety:    NamespaceEnumeration,
			Namespaces: setOp(a.Namespaces, b.Namespaces, func(x, y bool) bool { return x && y }),
		}
	case a.Variety == NamespaceNot && b.Variety == NamespaceNot:
		result = NamespaceConstraint{
			Variety:    NamespaceNot,
			Namespaces: setOp(a.Namespaces, b.Namespaces, func(x, y bool) bool { return x || y }),
		}
	default:
		not, enum := a, b
		if not.Variety != NamespaceNot {
			not, enum = b, a
		}
		result = NamespaceConstraint{
			Variety:    NamespaceEnumeration,
			Namespaces: setOp(enum.Namespaces, not.Namespaces, func(x, y bool) bool { return x && !y }),
		}
	}
	names := append(append([]xml.Name(nil), a.Disallowed.Names...), b.Disallowed.Names...)
	result.Disallowed.Names = sortNames(names)
	result.Disallowed.Defined = a.Disallowed.Defined || b.Disallowed.Defined
	result.Disallowed.Sibling = a.Disallowed.Sibling || b.Disallowed.Sibling
	return result.normalize()
}

// ProcessContents tells a validator how to treat content matched by a
// wildcard.
type ProcessContents int

const (
	ProcessStrict ProcessContents = iota
	ProcessLax
	ProcessSkip
)

func (p ProcessContents) String() string {
	return [...]string{"strict", "lax", "skip"}[p]
}

// A Wildcard matches elements or attributes by namespace rather than
// by name.
type Wildcard struct {
	annotated
	Namespace       NamespaceConstraint
	ProcessContents ProcessContents
}

func (*Wildcard) isTerm() {}

// unionWildcard is the wildcard of an extension: the namespaces of both,
// with the process contents and annotations of w.
func unionWildcard(w, base *Wildcard) *Wildcard {
	switch {
	case w == nil:
		return base
	case base == nil:
		return w
	}
	u := *w
	u.Namespace = Union(w.Namespace, base.Namespace)
	return &u
}

// intersectWildcards computes the complete wildcard of a complex type or
// attribute group from its local wildcard and those of the groups it
// references. The process contents is that of local, or of the first
// group wildcard if there is no local one.
func intersectWildcards(local *Wildcard, others []*Wildcard) *Wildcard {
	result := local
	for _, w := range others {
		if w == nil {
			continue
		}
		if result == nil {
			result = w
			continue
		}
		i := *result
		i.Namespace = Intersect(result.Namespace, w.Namespace)
		result = &i
	}
	return result
}

// parseNamespaceConstraint reads the namespace, notNamespace and notQName
// attributes of <any> and <anyAttribute>.
func parseNamespaceConstraint(el *xmltree.Element, tns string, namespace, notNamespace, notQName string, hasNamespace, hasNot bool) NamespaceConstraint {
	if hasNamespace && hasNot {
		stop(grammarError(el, "namespace and notNamespace cannot both be given"))
	}
	token := func(tok string) string {
		switch tok {
		case "##targetNamespace":
			return tns
		case "##local":
			return ""
		}
		if strings.HasPrefix(tok, "##") {
			stop(grammarError(el, "invalid namespace token %q", tok))
		}
		return tok
	}
	var c NamespaceConstraint
	switch {
	case hasNot:
		c.Variety = NamespaceNot
		for _, tok := range strings.Fields(notNamespace) {
			c.Namespaces = append(c.Namespaces, token(tok))
		}
	case !hasNamespace || strings.TrimSpace(namespace) == "##any":
		c.Variety = NamespaceAny
	case strings.TrimSpace(namespace) == "##other":
		c.Variety = NamespaceNot
		c.Namespaces = []string{"", tns}
	default:
		c.Variety = NamespaceEnumeration
		for _, tok := range strings.Fields(namespace) {
			if tok == "##any" || tok == "##other" {
				stop(grammarError(el, "%s cannot be combined with other namespaces", tok))
			}
			c.Namespaces = append(c.Namespaces, token(tok))
		}
	}
	for _, tok := range strings.Fields(notQName) {
		switch tok {
		case "##defined":
			c.Disallowed.Defined = true
		case "##definedSibling":
			if el.Name.Local != "any" {
				stop(grammarError(el, "##definedSibling is only allowed on <any>"))
			}
			c.Disallowed.Sibling = true
		default:
			name, ok := el.ResolveNS(tok)
			if !ok {
				stop(grammarError(el, "cannot resolve prefix of %q", tok))
			}
			c.Disallowed.Names = append(c.Disallowed.Names, name)
		}
	}
	c.Disallowed.Names = sortNames(c.Disallowed.Names)
	return c.normalize()
}
