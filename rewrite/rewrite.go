// Package rewrite transforms XML Schema documents before they are
// compiled as part of another schema. Three templates are provided:
// chameleon inclusion of a document without a target namespace,
// redefinition of components with <redefine>, and replacement of
// components with <override>.
//
// The input tree is never modified; every transform works on a copy.
package rewrite // import "github.com/CognitoIQ/go-xsd/rewrite"

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

const schemaNS = "http://www.w3.org/2001/XMLSchema"

// OriginalNS is the namespace of the attribute that Redefine sets on
// each original it renames. Its local name is "name" and its value is
// the name the component was declared with.
const OriginalNS = "urn:x-go-xsd:redefine"

// Original reports the declared name of a component that Redefine
// renamed, and whether el is such a component.
func Original(el *xmltree.Element) (string, bool) {
	return el.LookupAttr(OriginalNS, "name")
}

// A Template selects one of the transforms of an Engine.
type Template int

const (
	// Chameleon makes a document without a target namespace adopt
	// Params.Namespace.
	Chameleon Template = iota
	// Redefine splices in the components of the <redefine> element
	// Params.Directive, keeping the originals under a new name.
	Redefine
	// Override replaces components with those of the <override>
	// element Params.Directive.
	Override
)

func (t Template) String() string {
	switch t {
	case Chameleon:
		return "chameleon"
	case Redefine:
		return "redefine"
	case Override:
		return "override"
	}
	return "Template(" + strconv.Itoa(int(t)) + ")"
}

// Params are the inputs of a transform.
type Params struct {
	// The target namespace of the including document.
	Namespace string
	// The <redefine> or <override> element, for the Redefine and
	// Override templates.
	Directive *xmltree.Element
}

// A MissingError is returned by the Redefine template when a component
// to be redefined is not declared in the document.
type MissingError struct {
	// The local name of the component's element, such as "complexType".
	Kind string
	Name xml.Name
	// The redefining element.
	Node *xmltree.Element
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("cannot redefine %s %q: no such component", e.Kind, e.Name.Local)
}

// An Engine applies templates to schema documents. The zero value is
// ready to use.
type Engine struct{}

// Transform applies template t to the <schema> element doc, returning
// the transformed copy.
func (Engine) Transform(doc *xmltree.Element, t Template, p Params) (*xmltree.Element, error) {
	if doc.Name.Space != schemaNS || doc.Name.Local != "schema" {
		return nil, fmt.Errorf("rewrite: %s is not a schema document", doc.Location())
	}
	switch t {
	case Chameleon:
		return chameleon(doc, p.Namespace), nil
	case Redefine:
		if p.Directive == nil {
			return nil, fmt.Errorf("rewrite: redefine needs a directive")
		}
		return redefine(doc, p)
	case Override:
		if p.Directive == nil {
			return nil, fmt.Errorf("rewrite: override needs a directive")
		}
		return override(doc, p), nil
	}
	return nil, fmt.Errorf("rewrite: unknown template %v", t)
}

func walkAll(el *xmltree.Element, fn func(*xmltree.Element)) {
	fn(el)
	for i := range el.Children {
		walkAll(&el.Children[i], fn)
	}
}

// chameleon binds the default namespace to ns wherever it is unbound,
// so that unprefixed QNames in the document refer to ns.
func chameleon(doc *xmltree.Element, ns string) *xmltree.Element {
	out := doc.Copy()
	out.SetAttr("", "targetNamespace", ns)
	walkAll(out, func(el *xmltree.Element) {
		if def, ok := el.Lookup(""); !ok || def == "" {
			el.Bind("", ns)
		}
	})
	return out
}

// components are the top-level children that redefine and override
// may refer to.
var (
	redefinable = map[string]bool{
		"simpleType": true, "complexType": true, "group": true, "attributeGroup": true,
	}
	overridable = map[string]bool{
		"simpleType": true, "complexType": true, "group": true, "attributeGroup": true,
		"element": true, "attribute": true, "notation": true,
	}
)

func isSchemaElem(el *xmltree.Element, local string) bool {
	return el.Name.Space == schemaNS && el.Name.Local == local
}

// topLevel returns the index of the top-level component of doc with the
// given element name and name attribute, or -1.
func topLevel(doc *xmltree.Element, local, name string) int {
	for i := range doc.Children {
		c := &doc.Children[i]
		if isSchemaElem(c, local) && c.Attr("", "name") == name {
			return i
		}
	}
	return -1
}

func redefine(doc *xmltree.Element, p Params) (*xmltree.Element, error) {
	out := doc.Copy()
	for i := range p.Directive.Children {
		r := &p.Directive.Children[i]
		if r.Name.Space != schemaNS || !redefinable[r.Name.Local] {
			continue
		}
		name := r.Attr("", "name")
		idx := topLevel(out, r.Name.Local, name)
		if idx < 0 {
			return nil, &MissingError{
				Kind: r.Name.Local,
				Name: xml.Name{Space: p.Namespace, Local: name},
				Node: r,
			}
		}
		renamed := freshName(out, r.Name.Local, name+"_redefined")
		orig := &out.Children[idx]
		orig.SetAttr("", "name", renamed)
		orig.SetAttr(OriginalNS, "name", name)

		repl := r.Copy()
		retarget(repl, xml.Name{Space: p.Namespace, Local: name}, xml.Name{Space: p.Namespace, Local: renamed})

		children := make([]xmltree.Element, 0, len(out.Children)+1)
		children = append(children, out.Children[:idx+1]...)
		children = append(children, *repl)
		children = append(children, out.Children[idx+1:]...)
		out.Children = children
	}
	return out, nil
}

func freshName(doc *xmltree.Element, local, name string) string {
	candidate := name
	for n := 2; topLevel(doc, local, candidate) >= 0; n++ {
		candidate = name + "_" + strconv.Itoa(n)
	}
	return candidate
}

// retarget makes the references to from inside a redefinition refer to
// to instead. Only the references a redefinition may make to itself are
// considered: the base of a type, and group or attribute group refs.
func retarget(el *xmltree.Element, from, to xml.Name) {
	walkAll(el, func(e *xmltree.Element) {
		var attr string
		switch {
		case e.Name.Space != schemaNS:
			return
		case e.Name.Local == "restriction" || e.Name.Local == "extension":
			if !isSchemaElem(el, "simpleType") && !isSchemaElem(el, "complexType") {
				return
			}
			attr = "base"
		case e.Name.Local == "group" && isSchemaElem(el, "group"):
			attr = "ref"
		case e.Name.Local == "attributeGroup" && isSchemaElem(el, "attributeGroup"):
			attr = "ref"
		default:
			return
		}
		v, ok := e.LookupAttr("", attr)
		if !ok {
			return
		}
		if name, ok := e.ResolveNS(v); !ok || name != from {
			return
		}
		e.SetAttr("", attr, qualify(e, to))
	})
}

// qualify returns a QName for name valid in the scope of el, binding a
// new prefix on el if none is in scope.
func qualify(el *xmltree.Element, name xml.Name) string {
	if q := el.Prefix(name); q != "" {
		if resolved, ok := el.ResolveNS(q); ok && resolved == name {
			return q
		}
	}
	if name.Space == "" {
		if def, ok := el.Lookup(""); !ok || def == "" {
			return name.Local
		}
	}
	prefix := "redef"
	for n := 2; ; n++ {
		if _, taken := el.Lookup(prefix); !taken {
			break
		}
		prefix = "redef" + strconv.Itoa(n)
	}
	el.Bind(prefix, name.Space)
	el.SetAttr("xmlns", prefix, name.Space)
	return prefix + ":" + name.Local
}

func override(doc *xmltree.Element, p Params) *xmltree.Element {
	out := doc.Copy()
	var repl []*xmltree.Element
	for i := range p.Directive.Children {
		c := &p.Directive.Children[i]
		if c.Name.Space == schemaNS && overridable[c.Name.Local] {
			repl = append(repl, c)
		}
	}
	for _, r := range repl {
		if idx := topLevel(out, r.Name.Local, r.Attr("", "name")); idx >= 0 {
			out.Children[idx] = *r.Copy()
		}
	}

	// Overriding applies to the documents this one includes, too.
	for i := range out.Children {
		c := &out.Children[i]
		switch {
		case isSchemaElem(c, "include"):
			c.Name.Local = "override"
			for _, r := range repl {
				c.Children = append(c.Children, *r.Copy())
			}
		case isSchemaElem(c, "override"):
			for _, r := range repl {
				if topLevel(c, r.Name.Local, r.Attr("", "name")) < 0 {
					c.Children = append(c.Children, *r.Copy())
				}
			}
		}
	}
	return out
}
