package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/CognitoIQ/go-xsd/internal/ordered"
	"github.com/CognitoIQ/go-xsd/xsd"
)

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

func typeName(t xsd.Type) string {
	if t == nil {
		return "-"
	}
	if t.Anonymous() {
		return "(anonymous)"
	}
	return qname(t.Name())
}

// declared lists the facets that constrain t, leaving out those that
// only mark a facet as applicable.
func declared(fs xsd.Facets) string {
	var parts []string
	for _, f := range fs {
		if !f.Marker {
			parts = append(parts, f.String())
		}
	}
	return strings.Join(parts, ", ")
}

func describeType(t xsd.Type) string {
	var b strings.Builder
	switch t := t.(type) {
	case *xsd.SimpleType:
		fmt.Fprintf(&b, "simpleType %s base=%s variety=%s", qname(t.Name()), typeName(t.BaseType()), t.Variety())
		switch t.Variety() {
		case xsd.VarietyList:
			fmt.Fprintf(&b, " item=%s", typeName(t.ItemType()))
		case xsd.VarietyUnion:
			members := make([]string, len(t.MemberTypes()))
			for i, m := range t.MemberTypes() {
				members[i] = typeName(m)
			}
			fmt.Fprintf(&b, " members=[%s]", strings.Join(members, " "))
		}
		if fs := declared(t.Facets()); fs != "" {
			fmt.Fprintf(&b, " facets={%s}", fs)
		}
	case *xsd.ComplexType:
		method := "restriction"
		if t.Derivation() == xsd.DerivationExtension {
			method = "extension"
		}
		content := t.Content()
		fmt.Fprintf(&b, "complexType %s %s of %s content=%s", qname(t.Name()), method, typeName(t.BaseType()), content.Variety)
		if content.SimpleType != nil {
			fmt.Fprintf(&b, " value=%s", typeName(content.SimpleType))
		}
		if p := content.Particle; p != nil {
			max := "unbounded"
			if m := p.EffectiveMax(); m != xsd.Unbounded {
				max = fmt.Sprint(m)
			}
			fmt.Fprintf(&b, " elements=%d..%s", p.EffectiveMin(), max)
		}
		if uses := t.AttributeUses(); len(uses) > 0 {
			names := make([]string, len(uses))
			for i, u := range uses {
				names[i] = qname(u.Name())
				if u.Required() {
					names[i] += "!"
				}
			}
			fmt.Fprintf(&b, " attributes=[%s]", strings.Join(names, " "))
		}
		if w := t.AttributeWildcard(); w != nil {
			fmt.Fprintf(&b, " anyAttribute=%s", w.Namespace)
		}
	}
	return b.String()
}

// printSchema writes one line per top-level component of s, sorted by
// kind, then by name.
func printSchema(w io.Writer, s *xsd.Schema) {
	fmt.Fprintf(w, "schema %s (namespace %q)\n", s.Location, s.TargetNS)
	ordered.RangeNames(s.Types(), func(_ xml.Name, t xsd.Type) {
		fmt.Fprintln(w, describeType(t))
	})
	ordered.RangeNames(s.Attributes(), func(n xml.Name, a *xsd.Attribute) {
		fmt.Fprintf(w, "attribute %s type=%s\n", qname(n), typeName(a.Type()))
	})
	ordered.RangeNames(s.AttributeGroups(), func(n xml.Name, g *xsd.AttributeGroup) {
		fmt.Fprintf(w, "attributeGroup %s uses=%d\n", qname(n), len(g.AttributeUses()))
	})
	ordered.RangeNames(s.Groups(), func(n xml.Name, g *xsd.Group) {
		mg := g.ModelGroup()
		fmt.Fprintf(w, "group %s %s of %d\n", qname(n), mg.Compositor, len(mg.Particles))
	})
	ordered.RangeNames(s.Elements(), func(n xml.Name, e *xsd.Element) {
		fmt.Fprintf(w, "element %s type=%s", qname(n), typeName(e.Type()))
		if heads := e.SubstitutionGroups(); len(heads) > 0 {
			names := make([]string, len(heads))
			for i, h := range heads {
				names[i] = qname(h.Name())
			}
			fmt.Fprintf(w, " substitutes=[%s]", strings.Join(names, " "))
		}
		fmt.Fprintln(w)
	})
	ordered.RangeNames(s.Notations(), func(n xml.Name, no *xsd.Notation) {
		fmt.Fprintf(w, "notation %s public=%q system=%q\n", qname(n), no.Public, no.System)
	})
	ordered.RangeNames(s.IdentityConstraints(), func(n xml.Name, c *xsd.IdentityConstraint) {
		fmt.Fprintf(w, "%s %s selector=%q\n", c.Category, qname(n), c.Selector)
	})
}
