package xsd

import (
	"errors"
	"fmt"
	"sync"

	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/rewrite"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// A session holds the documents and schemas of one compilation. Every
// document is retrieved once, and every tree compiled once, so that a
// resource reached through several directives yields the same *Schema.
type session struct {
	*Compiler

	mu      sync.Mutex
	fetched map[string]*lazy.Cell[*xmltree.Element]
	trees   map[docKey]*lazy.Cell[*xmltree.Element]
	schemas map[*xmltree.Element]*lazy.Cell[*Schema]
	// in order of creation
	order []*Schema
}

// A docKey identifies a document rewritten for inclusion. Chameleon
// rewrites depend only on the adopted namespace; redefine and override
// rewrites also depend on the directive.
type docKey struct {
	namespace string
	location  string
	directive *xmltree.Element
}

func newSession(c *Compiler) *session {
	return &session{
		Compiler: c,
		fetched:  make(map[string]*lazy.Cell[*xmltree.Element]),
		trees:    make(map[docKey]*lazy.Cell[*xmltree.Element]),
		schemas:  make(map[*xmltree.Element]*lazy.Cell[*Schema]),
	}
}

// getOrCreate returns the cell for key in m, creating it with fn. The
// cell is forced by the caller, outside of the lock, so that a slow
// fetch does not block unrelated ones while concurrent requests for
// the same key wait for a single computation.
func getOrCreate[K comparable, V any](sess *session, m map[K]*lazy.Cell[V], key K, fn func() *lazy.Cell[V]) *lazy.Cell[V] {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c, ok := m[key]
	if !ok {
		c = fn()
		m[key] = c
	}
	return c
}

func (sess *session) fetch(location string) (*xmltree.Element, error) {
	c := getOrCreate(sess, sess.fetched, location, func() *lazy.Cell[*xmltree.Element] {
		return lazy.New("fetch "+location, func() (*xmltree.Element, error) {
			sess.debugf("fetching %s", location)
			return sess.resolver.Fetch(location)
		})
	})
	if c.Forced() {
		sess.debugf("using cached %s", location)
	}
	return c.Get()
}

// schema returns the Schema compiled from the <schema> element root.
func (sess *session) schema(root *xmltree.Element) (*Schema, error) {
	c := getOrCreate(sess, sess.schemas, root, func() *lazy.Cell[*Schema] {
		return lazy.New("schema "+root.Base, func() (s *Schema, err error) {
			defer catchParseError(&err)
			return sess.parseSchema(root), nil
		})
	})
	return c.Get()
}

func (sess *session) register(s *Schema) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.id = len(sess.order)
	sess.order = append(sess.order, s)
}

func (sess *session) all() []*Schema {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]*Schema(nil), sess.order...)
}

// resolveDirective retrieves and compiles the schema a directive refers
// to. Documents that cannot be found or read are reported to the
// logger and contribute nothing; structural problems are fatal.
func (sess *session) resolveDirective(s *Schema, d *Directive) *Schema {
	if d.Kind == DirectiveImport && d.Namespace == schemaNS {
		return nil
	}
	if sess.resolver == nil {
		sess.logf("%s: no resolver configured, skipping %s of %q", d.node.Location(), d.Kind, d.Location)
		return nil
	}
	loc, err := sess.resolver.ResolveLocation(s.Location, d.Namespace, d.Location)
	if err != nil {
		sess.errorf("%s: %s: %v", d.node.Location(), d.Kind, err)
		return nil
	}
	if loc == "" {
		sess.logf("%s: no location known for %s of namespace %q", d.node.Location(), d.Kind, d.Namespace)
		return nil
	}
	tree, err := sess.fetch(loc)
	if err != nil {
		sess.errorf("%s: could not %s %s: %v", d.node.Location(), d.Kind, loc, err)
		return nil
	}
	if !isSchema(tree) {
		sess.errorf("%s: %s is not a schema document", d.node.Location(), loc)
		return nil
	}
	actual := tree.Attr("", "targetNamespace")

	if d.Kind == DirectiveImport {
		if actual != d.Namespace {
			stop(&NamespaceMismatchError{
				Site:     at(d.node),
				Expected: d.Namespace,
				Actual:   actual,
				Message:  "imported document " + loc + " has a different target namespace",
			})
		}
		return sess.build(tree)
	}

	if actual != "" && actual != s.TargetNS {
		stop(&NamespaceMismatchError{
			Site:     at(d.node),
			Expected: s.TargetNS,
			Actual:   actual,
			Message:  fmt.Sprintf("%s of %s from a different target namespace", d.Kind, loc),
		})
	}
	chameleon := actual == "" && s.TargetNS != ""
	splice := d.Kind != DirectiveInclude && hasComponents(d.node)
	if !chameleon && !splice {
		return sess.build(tree)
	}
	if sess.transformer == nil {
		stop(&TransformUnavailableError{Site: at(d.node), Directive: d.Kind.String()})
	}

	key := docKey{namespace: s.TargetNS, location: loc}
	if splice {
		key.directive = d.node
	}
	c := getOrCreate(sess, sess.trees, key, func() *lazy.Cell[*xmltree.Element] {
		return lazy.New(d.Kind.String()+" "+loc, func() (*xmltree.Element, error) {
			return sess.transform(tree, s, d, chameleon, splice)
		})
	})
	doc, err := c.Get()
	if err != nil {
		stop(err)
	}
	return sess.build(doc)
}

func (sess *session) build(tree *xmltree.Element) *Schema {
	s, err := sess.schema(tree)
	if err != nil {
		stop(err)
	}
	return s
}

func hasComponents(directive *xmltree.Element) bool {
	for i := range directive.Children {
		c := &directive.Children[i]
		if c.Name.Space == schemaNS && c.Name.Local != "annotation" {
			return true
		}
	}
	return false
}

func (sess *session) transform(tree *xmltree.Element, s *Schema, d *Directive, chameleon, splice bool) (*xmltree.Element, error) {
	doc := tree
	params := rewrite.Params{Namespace: s.TargetNS, Directive: d.node}
	if chameleon {
		sess.debugf("%s: %s adopts namespace %q", d.node.Location(), tree.Base, s.TargetNS)
		out, err := sess.transformer.Transform(doc, rewrite.Chameleon, params)
		if err != nil {
			return nil, err
		}
		doc = out
	}
	if !splice {
		return doc, nil
	}
	template := rewrite.Redefine
	if d.Kind == DirectiveOverride {
		template = rewrite.Override
	}
	out, err := sess.transformer.Transform(doc, template, params)
	var missing *rewrite.MissingError
	if errors.As(err, &missing) {
		return nil, &UnresolvedReferenceError{
			Site: at(missing.Node),
			Name: missing.Name,
			Kind: redefinedKinds[missing.Kind],
		}
	}
	return out, err
}

var redefinedKinds = map[string]Kind{
	"simpleType":     KindType,
	"complexType":    KindType,
	"group":          KindGroup,
	"attributeGroup": KindAttributeGroup,
}
