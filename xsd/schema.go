package xsd

import (
	"encoding/xml"

	"github.com/CognitoIQ/go-xsd/internal/dependency"
	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/internal/ordered"
	"github.com/CognitoIQ/go-xsd/rewrite"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// A Schema is the compiled form of one <schema> element. Its component
// sets hold the top-level components of the document together with
// those of every schema it includes, imports, redefines or overrides,
// directly or indirectly.
type Schema struct {
	annotated
	// The absent namespace is the empty string.
	TargetNS string
	// Where the document was retrieved from, if known.
	Location              string
	ElementFormDefault    Form
	AttributeFormDefault  Form
	BlockDefault          DerivationSet
	FinalDefault          DerivationSet
	XPathDefaultNamespace string
	DefaultOpenContent    *OpenContent
	// The include, import, redefine and override directives of the
	// document, in document order.
	Directives []*Directive

	defaultAttributes *lazy.Cell[*AttributeGroup]
	own               registry
	assembled         *lazy.Cell[*registry]
	session           *session
	id                int
	// cells forced by the resolve pass, in creation order
	pending []func() error
}

// DefaultAttributes returns the attribute group applied to the complex
// types of the schema that do not opt out, or nil.
func (s *Schema) DefaultAttributes() *AttributeGroup { return s.defaultAttributes.Value() }

// DirectiveKind is the kind of a Directive.
type DirectiveKind int

const (
	DirectiveInclude DirectiveKind = iota
	DirectiveImport
	DirectiveRedefine
	DirectiveOverride
)

func (k DirectiveKind) String() string {
	return [...]string{"include", "import", "redefine", "override"}[k]
}

// A Directive pulls the components of another schema document into a
// schema.
type Directive struct {
	node *xmltree.Element
	Kind DirectiveKind
	// The namespace attribute of an import.
	Namespace string
	// The schemaLocation attribute.
	Location string

	schema *lazy.Cell[*Schema]
}

func (d *Directive) Node() *xmltree.Element { return d.node }

// Schema returns the schema the directive refers to. It is nil for
// imports of the XML Schema namespace, whose components are built in,
// and for documents that could not be retrieved.
func (d *Directive) Schema() *Schema { return d.schema.Value() }

// A registry holds one set of named components per Kind.
type registry [numKinds]map[xml.Name]Named

func (r *registry) init() {
	for i := range r {
		r[i] = make(map[xml.Name]Named)
	}
}

// add stops with a DuplicateComponentError if name is bound to another
// component.
func (r *registry) add(kind Kind, c Named) {
	name := c.Name()
	if other, ok := r[kind][name]; ok && other != c {
		stop(&DuplicateComponentError{Site: at(c.Node()), Name: name, Kind: kind, Other: other.Node()})
	}
	r[kind][name] = c
}

// assemble computes the union of the component sets of s and every
// schema reachable from it. Reachability is computed on the graph of
// directives, so schemas that include each other are merged once.
func (s *Schema) assemble() *registry {
	var (
		graph   dependency.Graph[int]
		schemas = map[int]*Schema{s.id: s}
		queue   = []*Schema{s}
	)
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for _, d := range x.Directives {
			c := must(d.schema)
			if c == nil {
				continue
			}
			graph.Add(x.id, c.id)
			if _, seen := schemas[c.id]; !seen {
				schemas[c.id] = c
				queue = append(queue, c)
			}
		}
	}

	r := new(registry)
	r.init()
	graph.Reachable(s.id, func(id int) {
		x := schemas[id]
		for kind := range x.own {
			ordered.RangeNames(x.own[kind], func(_ xml.Name, c Named) {
				r.add(Kind(kind), c)
			})
		}
	})
	return r
}

func (s *Schema) components() *registry { return s.assembled.Value() }

// collect converts one component set for the public accessors. The
// originals of redefined components are left out; they stay reachable
// through Lookup under their generated names.
func collect[T Named](m map[xml.Name]Named) map[xml.Name]T {
	result := make(map[xml.Name]T, len(m))
	for name, c := range m {
		if superseded(c) {
			continue
		}
		result[name] = c.(T)
	}
	return result
}

func superseded(c Named) bool {
	n := c.Node()
	if n == nil {
		return false
	}
	_, ok := rewrite.Original(n)
	return ok
}

// Types returns the type definitions of the schema. Built-in types are
// not included, and neither are the definitions a redefine replaced.
func (s *Schema) Types() map[xml.Name]Type { return collect[Type](s.components()[KindType]) }

// Elements returns the global element declarations of the schema.
func (s *Schema) Elements() map[xml.Name]*Element {
	return collect[*Element](s.components()[KindElement])
}

// Attributes returns the global attribute declarations of the schema.
func (s *Schema) Attributes() map[xml.Name]*Attribute {
	return collect[*Attribute](s.components()[KindAttribute])
}

// AttributeGroups returns the attribute group definitions of the schema.
func (s *Schema) AttributeGroups() map[xml.Name]*AttributeGroup {
	return collect[*AttributeGroup](s.components()[KindAttributeGroup])
}

// Groups returns the model group definitions of the schema.
func (s *Schema) Groups() map[xml.Name]*Group {
	return collect[*Group](s.components()[KindGroup])
}

func (s *Schema) Notations() map[xml.Name]*Notation {
	return collect[*Notation](s.components()[KindNotation])
}

// IdentityConstraints returns the named identity constraints declared
// anywhere in the schema, including inside local element declarations.
func (s *Schema) IdentityConstraints() map[xml.Name]*IdentityConstraint {
	return collect[*IdentityConstraint](s.components()[KindIdentityConstraint])
}

// Lookup returns the component of the given kind and name. Type names
// in the XML Schema namespace return built-in types.
func (s *Schema) Lookup(kind Kind, name xml.Name) (Named, bool) {
	if kind == KindType && name.Space == schemaNS {
		if b, err := ParseBuiltin(name); err == nil {
			return b.Type(), true
		}
		return nil, false
	}
	c, ok := s.components()[kind][name]
	return c, ok
}

// FindType looks up a type definition by name.
func (s *Schema) FindType(name xml.Name) (Type, bool) {
	c, ok := s.Lookup(KindType, name)
	if !ok {
		return nil, false
	}
	return c.(Type), true
}

// Own reports whether c was declared in the schema's own document,
// rather than in one of its constituents.
func (s *Schema) Own(kind Kind, c Named) bool {
	return s.own[kind][c.Name()] == c
}

// Constituents returns the schemas directly referenced by the
// directives of s, without duplicates, in document order.
func (s *Schema) Constituents() []*Schema {
	var result []*Schema
	seen := make(map[*Schema]bool)
	for _, d := range s.Directives {
		if c := d.Schema(); c != nil && !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	return result
}
