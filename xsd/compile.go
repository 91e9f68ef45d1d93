package xsd

import (
	"errors"
	"fmt"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

// Compile retrieves the schema document at location, along with every
// document it refers to, and compiles them with the DefaultOptions.
func Compile(location string) (*Schema, error) {
	return NewCompiler().Compile(location)
}

// Parse compiles a schema document held in memory with the
// DefaultOptions. Relative schemaLocations are resolved against the
// working directory.
func Parse(data []byte) (*Schema, error) {
	return NewCompiler().Parse(data)
}

// Compile retrieves the schema document at location and compiles it.
// Documents named by its directives that cannot be retrieved are
// reported to the Logger and skipped; any other problem is returned
// as one of the error types of this package. The document at location
// itself must be retrievable.
func (c *Compiler) Compile(location string) (*Schema, error) {
	if c.resolver == nil {
		return nil, errors.New("xsd: Compile needs a Resolver")
	}
	loc, err := c.resolver.ResolveLocation("", "", location)
	if err != nil {
		return nil, err
	}
	sess := newSession(c)
	root, err := sess.fetch(loc)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", location, err)
	}
	return sess.compile(root)
}

// Parse compiles a schema document held in memory.
func (c *Compiler) Parse(data []byte) (*Schema, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	return c.CompileTree(root)
}

// CompileTree compiles a parsed schema document. The Base of root is
// used to resolve relative schemaLocations. root must not be modified
// afterwards; the returned Schema refers to its elements.
func (c *Compiler) CompileTree(root *xmltree.Element) (*Schema, error) {
	return newSession(c).compile(root)
}

func (sess *session) compile(root *xmltree.Element) (*Schema, error) {
	if !isSchema(root) {
		return nil, grammarError(root, "document element is <%s>, not an XML Schema <schema>", root.Name.Local)
	}
	s, err := sess.schema(root)
	if err == nil {
		err = sess.resolveAll()
	}
	if err != nil {
		sess.locate(err)
		return nil, err
	}
	sess.logf("compiled %s: %d schema documents", root.Location(), len(sess.all()))
	return s, nil
}

// resolveAll forces every cell of every schema in the session, in the
// order the schemas and their components were created, so that the
// first error reported does not depend on map iteration. Schemas that
// are discovered along the way are visited too.
func (sess *session) resolveAll() error {
	for i := 0; ; i++ {
		schemas := sess.all()
		if i >= len(schemas) {
			return nil
		}
		s := schemas[i]
		if _, err := s.assembled.Get(); err != nil {
			return err
		}
		// forcing a cell may append to pending
		for j := 0; j < len(s.pending); j++ {
			if err := s.pending[j](); err != nil {
				return err
			}
		}
		s.pending = nil
	}
}

// locate fills in the Path of an error's Site, searching the schema
// documents of the session for its Node.
func (sess *session) locate(err error) {
	var e sited
	if !errors.As(err, &e) {
		return
	}
	site := e.site()
	if site.Node == nil || site.Path != nil {
		return
	}
	for _, s := range sess.all() {
		if path := pathTo(s.node, site.Node); path != nil {
			site.Path = path
			return
		}
	}
}

// pathTo returns the elements from root down to target, inclusive, or
// nil if target is not in the tree.
func pathTo(root, target *xmltree.Element) []*xmltree.Element {
	if root == target {
		return []*xmltree.Element{root}
	}
	for i := range root.Children {
		if path := pathTo(&root.Children[i], target); path != nil {
			return append([]*xmltree.Element{root}, path...)
		}
	}
	return nil
}

// A Ref is an include, import, redefine or override directive found by
// Imports.
type Ref struct {
	Kind      DirectiveKind
	Namespace string
	Location  string
}

// Imports lists the directives of the <schema> elements in data, without
// retrieving the documents they name.
func Imports(data []byte) ([]Ref, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	schemas := root.SearchFunc(isSchema)
	if isSchema(root) {
		schemas = append([]*xmltree.Element{root}, schemas...)
	}
	var result []Ref
	for _, s := range schemas {
		for i := range s.Children {
			el := &s.Children[i]
			if !isDirective(el) {
				continue
			}
			ref := Ref{
				Namespace: el.Attr("", "namespace"),
				Location:  el.Attr("", "schemaLocation"),
			}
			switch el.Name.Local {
			case "import":
				ref.Kind = DirectiveImport
			case "redefine":
				ref.Kind = DirectiveRedefine
			case "override":
				ref.Kind = DirectiveOverride
			}
			result = append(result, ref)
		}
	}
	return result, nil
}
