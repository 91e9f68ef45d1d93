// Package xsd compiles XML Schema 1.1 documents into a graph of schema
// components.
//
// A compiled Schema mirrors the abstract component model of the XML Schema
// recommendation: type definitions, element and attribute declarations,
// model groups, wildcards, facets and identity constraints, with every
// reference between them (base, type, ref, substitutionGroup, itemType,
// memberTypes, ...) resolved to the component it names. Documents pulled
// in through include, import, redefine and override are compiled once
// and shared.
//
// References are resolved lazily, so declarations may appear in any order
// and may refer to each other circularly. By the time Compile returns,
// every reference has been resolved and every derived property computed;
// the accessors of a compiled Schema never fail.
package xsd // import "github.com/CognitoIQ/go-xsd/xsd"

import (
	"encoding/xml"
	"strings"

	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

const (
	schemaNS         = "http://www.w3.org/2001/XMLSchema"
	schemaInstanceNS = "http://www.w3.org/2001/XMLSchema-instance"
)

// A Component is any object of the schema component model. Node returns
// the schema document element the component was built from, or nil for
// built-in components.
type Component interface {
	Node() *xmltree.Element
}

// Named components can be stored in a Schema's component sets.
type Named interface {
	Component
	Name() xml.Name
}

// An Annotation holds the contents of one <annotation> element.
type Annotation struct {
	node          *xmltree.Element
	AppInfo       []*xmltree.Element
	Documentation []*xmltree.Element
}

func (a *Annotation) Node() *xmltree.Element { return a.node }

// Doc returns the text of the <documentation> elements, separated
// with blank lines.
func (a *Annotation) Doc() string {
	var parts []string
	for _, d := range a.Documentation {
		if text := strings.TrimSpace(d.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

type annotated struct {
	node        *xmltree.Element
	annotations []*Annotation
}

func (a *annotated) Node() *xmltree.Element { return a.node }

// Annotations returns the annotations of a component in document order.
func (a *annotated) Annotations() []*Annotation { return a.annotations }

// Doc joins the documentation of all annotations with blank lines.
func (a *annotated) Doc() string {
	var parts []string
	for _, an := range a.annotations {
		if doc := an.Doc(); doc != "" {
			parts = append(parts, doc)
		}
	}
	return strings.Join(parts, "\n\n")
}

// A Kind identifies one of the named component sets of a Schema.
type Kind int

const (
	KindType Kind = iota
	KindAttribute
	KindAttributeGroup
	KindGroup
	KindElement
	KindNotation
	KindIdentityConstraint
	numKinds
)

var kindNames = [numKinds]string{
	"type definition",
	"attribute declaration",
	"attribute group definition",
	"model group definition",
	"element declaration",
	"notation declaration",
	"identity-constraint definition",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown component"
	}
	return kindNames[k]
}

// A DerivationSet is a set of derivation methods, used for final, block
// and the blockDefault and finalDefault schema properties. The
// Extension and Restriction bits are also used on their own, as the
// derivation method of a complex type.
type DerivationSet uint8

const (
	DerivationExtension DerivationSet = 1 << iota
	DerivationRestriction
	DerivationList
	DerivationUnion
	DerivationSubstitution
)

// Has reports whether every method in x is in the set.
func (d DerivationSet) Has(x DerivationSet) bool { return d&x == x }

func (d DerivationSet) String() string {
	var parts []string
	for _, m := range []struct {
		bit  DerivationSet
		name string
	}{
		{DerivationExtension, "extension"},
		{DerivationRestriction, "restriction"},
		{DerivationList, "list"},
		{DerivationUnion, "union"},
		{DerivationSubstitution, "substitution"},
	} {
		if d.Has(m.bit) {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(parts, " ")
}

// parseDerivationSet reads a block or final attribute; "#all" selects
// every method in all.
func parseDerivationSet(v string, all DerivationSet) DerivationSet {
	if strings.TrimSpace(v) == "#all" {
		return all
	}
	var d DerivationSet
	for _, tok := range strings.Fields(v) {
		switch tok {
		case "extension":
			d |= DerivationExtension
		case "restriction":
			d |= DerivationRestriction
		case "list":
			d |= DerivationList
		case "union":
			d |= DerivationUnion
		case "substitution":
			d |= DerivationSubstitution
		}
	}
	return d & all
}

// Form is the value of the form attributes and their schema defaults.
type Form int

const (
	Unqualified Form = iota
	Qualified
)

// Types in XML Schema documents are derived from one of the built-in
// types by restricting or extending it. A Type is either a *SimpleType
// or a *ComplexType. Following BaseType from any type always ends at
// the built-in anyType, whose BaseType is nil.
type Type interface {
	Named
	// Anonymous types have no name; Context returns the declaration
	// or type that owns them.
	Anonymous() bool
	Context() Component
	BaseType() Type
	Final() DerivationSet
	isType()
}

// Variety is the variety of a simple type.
type Variety int

const (
	// Only anySimpleType has no variety.
	VarietyAbsent Variety = iota
	VarietyAtomic
	VarietyList
	VarietyUnion
)

func (v Variety) String() string {
	return [...]string{"absent", "atomic", "list", "union"}[v]
}

// A SimpleType describes character data without elements or attributes.
// It is atomic, a white-space separated list of an item type, or a union
// of member types, and carries the constraining facets that restrict its
// values.
type SimpleType struct {
	annotated
	name      xml.Name
	anonymous bool
	context   Component
	final     DerivationSet
	builtin   Builtin

	base        *lazy.Cell[Type]
	variety     *lazy.Cell[Variety]
	primitive   *lazy.Cell[*SimpleType]
	itemType    *lazy.Cell[*SimpleType]
	members     *lazy.Cell[[]*SimpleType]
	facets      *lazy.Cell[Facets]
	fundamental *lazy.Cell[FundamentalFacets]
}

func (*SimpleType) isType() {}

func (t *SimpleType) Name() xml.Name       { return t.name }
func (t *SimpleType) Anonymous() bool      { return t.anonymous }
func (t *SimpleType) Context() Component   { return t.context }
func (t *SimpleType) Final() DerivationSet { return t.final }
func (t *SimpleType) BaseType() Type       { return t.base.Value() }
func (t *SimpleType) Variety() Variety     { return t.variety.Value() }

// Builtin returns the built-in type t stands for, if any.
func (t *SimpleType) Builtin() (Builtin, bool) { return t.builtin, t.builtin >= 0 }

// Primitive returns the primitive ancestor of an atomic type, or nil.
func (t *SimpleType) Primitive() *SimpleType { return t.primitive.Value() }

// ItemType returns the item type of a list type, or nil.
func (t *SimpleType) ItemType() *SimpleType { return t.itemType.Value() }

// MemberTypes returns the member types of a union type.
func (t *SimpleType) MemberTypes() []*SimpleType { return t.members.Value() }

// Facets returns the constraining facets of t, including those inherited
// from its base type.
func (t *SimpleType) Facets() Facets { return t.facets.Value() }

func (t *SimpleType) Fundamental() FundamentalFacets { return t.fundamental.Value() }

// ContentVariety is the variety of a complex type's content.
type ContentVariety int

const (
	ContentEmpty ContentVariety = iota
	ContentSimple
	ContentElementOnly
	ContentMixed
)

func (v ContentVariety) String() string {
	return [...]string{"empty", "simple", "element-only", "mixed"}[v]
}

// A ContentType describes what may appear between the tags of an element
// of a complex type.
type ContentType struct {
	Variety ContentVariety
	// Present for element-only and mixed content.
	Particle    *Particle
	OpenContent *OpenContent
	// Present for simple content.
	SimpleType *SimpleType
}

// A ComplexType describes an element that may carry attributes and
// element content.
type ComplexType struct {
	annotated
	name       xml.Name
	anonymous  bool
	context    Component
	final      DerivationSet
	derivation DerivationSet
	Abstract   bool
	// Prohibited substitutions.
	Block DerivationSet

	base       *lazy.Cell[Type]
	content    *lazy.Cell[*ContentType]
	uses       *lazy.Cell[[]*AttributeUse]
	wildcard   *lazy.Cell[*Wildcard]
	assertions *lazy.Cell[[]*Assertion]
}

func (*ComplexType) isType() {}

func (t *ComplexType) Name() xml.Name       { return t.name }
func (t *ComplexType) Anonymous() bool      { return t.anonymous }
func (t *ComplexType) Context() Component   { return t.context }
func (t *ComplexType) Final() DerivationSet { return t.final }
func (t *ComplexType) BaseType() Type       { return t.base.Value() }

// Derivation is DerivationExtension or DerivationRestriction.
func (t *ComplexType) Derivation() DerivationSet { return t.derivation }

func (t *ComplexType) Content() *ContentType { return t.content.Value() }

// AttributeUses returns the attributes an element of the type may carry,
// inherited ones included. Prohibited uses are never present.
func (t *ComplexType) AttributeUses() []*AttributeUse { return t.uses.Value() }

// AttributeWildcard returns the wildcard for attributes not declared by
// the type, or nil.
func (t *ComplexType) AttributeWildcard() *Wildcard { return t.wildcard.Value() }

// Assertions returns the assertions of the base type followed by those
// declared on t.
func (t *ComplexType) Assertions() []*Assertion { return t.assertions.Value() }

// A Term is the content of a Particle: an *Element, a *ModelGroup or a
// *Wildcard.
type Term interface {
	Component
	isTerm()
}

// Unbounded is the MaxOccurs of a particle without an upper bound.
const Unbounded = -1

// A Particle contributes MinOccurs to MaxOccurs occurrences of its term to
// a content model.
type Particle struct {
	node      *xmltree.Element
	MinOccurs int
	MaxOccurs int
	term      *lazy.Cell[Term]
	// set when the particle is a group reference
	group *lazy.Cell[*Group]
}

func (p *Particle) Node() *xmltree.Element { return p.node }
func (p *Particle) Term() Term             { return p.term.Value() }

// GroupRef returns the model group definition a particle refers to, or
// nil if its term was declared in place.
func (p *Particle) GroupRef() *Group {
	if p.group == nil {
		return nil
	}
	return p.group.Value()
}

// Compositor is the kind of a model group.
type Compositor int

const (
	CompositorSequence Compositor = iota
	CompositorChoice
	CompositorAll
)

func (c Compositor) String() string {
	return [...]string{"sequence", "choice", "all"}[c]
}

// A ModelGroup is a sequence, choice or all group of particles.
type ModelGroup struct {
	annotated
	Compositor Compositor
	Particles  []*Particle
}

func (*ModelGroup) isTerm() {}

// A Group is a named model group definition.
type Group struct {
	annotated
	name  xml.Name
	model *ModelGroup
}

func (g *Group) Name() xml.Name          { return g.name }
func (g *Group) ModelGroup() *ModelGroup { return g.model }

// A ValueConstraint is the default or fixed value of a declaration.
type ValueConstraint struct {
	Fixed bool
	// The value as written in the schema document.
	Lexical string
	// The value after white space normalization by the declaration's type.
	Normalized string
}

// Scope describes where a declaration is visible. Global declarations
// have no Parent.
type Scope struct {
	Global bool
	Parent Component
}

// An Element is an element declaration.
type Element struct {
	annotated
	name     xml.Name
	scope    Scope
	Nillable bool
	Abstract bool
	Block    DerivationSet
	Final    DerivationSet

	typ         *lazy.Cell[Type]
	value       *lazy.Cell[*ValueConstraint]
	substitutes *lazy.Cell[[]*Element]
	constraints *lazy.Cell[[]*IdentityConstraint]
	table       *TypeTable
}

func (*Element) isTerm() {}

func (e *Element) Name() xml.Name { return e.name }
func (e *Element) Scope() Scope   { return e.scope }

// Type returns the element's type; it is anyType if none was given.
func (e *Element) Type() Type { return e.typ.Value() }

func (e *Element) ValueConstraint() *ValueConstraint { return e.value.Value() }

// SubstitutionGroups returns the heads of the substitution groups the
// element is a member of.
func (e *Element) SubstitutionGroups() []*Element { return e.substitutes.Value() }

// IdentityConstraints returns the unique, key and keyref constraints of
// the element, with ref constraints resolved.
func (e *Element) IdentityConstraints() []*IdentityConstraint { return e.constraints.Value() }

// TypeTable returns the type alternatives of the element, or nil.
func (e *Element) TypeTable() *TypeTable { return e.table }

// An Attribute is an attribute declaration.
type Attribute struct {
	annotated
	name        xml.Name
	scope       Scope
	Inheritable bool

	typ   *lazy.Cell[*SimpleType]
	value *lazy.Cell[*ValueConstraint]
}

func (a *Attribute) Name() xml.Name                    { return a.name }
func (a *Attribute) Scope() Scope                      { return a.scope }
func (a *Attribute) Type() *SimpleType                 { return a.typ.Value() }
func (a *Attribute) ValueConstraint() *ValueConstraint { return a.value.Value() }

// Use is the use attribute of a local attribute declaration.
type Use int

const (
	UseOptional Use = iota
	UseRequired
	UseProhibited
)

func (u Use) String() string {
	return [...]string{"optional", "required", "prohibited"}[u]
}

// An AttributeUse is the occurrence of an attribute declaration in a
// complex type or attribute group. Its name, annotations and, unless
// given on the use itself, value constraint are those of the declaration.
type AttributeUse struct {
	node        *xmltree.Element
	Use         Use
	Inheritable bool

	attribute *lazy.Cell[*Attribute]
	value     *lazy.Cell[*ValueConstraint]
}

func (u *AttributeUse) Node() *xmltree.Element     { return u.node }
func (u *AttributeUse) Attribute() *Attribute      { return u.attribute.Value() }
func (u *AttributeUse) Name() xml.Name             { return u.Attribute().Name() }
func (u *AttributeUse) Required() bool             { return u.Use == UseRequired }
func (u *AttributeUse) Annotations() []*Annotation { return u.Attribute().Annotations() }

func (u *AttributeUse) ValueConstraint() *ValueConstraint {
	if v := u.value.Value(); v != nil {
		return v
	}
	return u.Attribute().ValueConstraint()
}

// An AttributeGroup is a named attribute group definition.
type AttributeGroup struct {
	annotated
	name xml.Name

	declared []*AttributeUse
	refs     []*lazy.Cell[*AttributeGroup]
	local    *Wildcard

	uses     *lazy.Cell[[]*AttributeUse]
	wildcard *lazy.Cell[*Wildcard]
}

func (g *AttributeGroup) Name() xml.Name { return g.name }

// AttributeUses returns the uses declared in the group and in the groups
// it references, transitively.
func (g *AttributeGroup) AttributeUses() []*AttributeUse { return g.uses.Value() }

// AttributeWildcard returns the intersection of the group's own wildcard
// with those of the groups it references, or nil.
func (g *AttributeGroup) AttributeWildcard() *Wildcard { return g.wildcard.Value() }

// A Notation is a notation declaration.
type Notation struct {
	annotated
	name   xml.Name
	Public string
	System string
}

func (n *Notation) Name() xml.Name { return n.name }

// ConstraintCategory is the kind of an identity constraint.
type ConstraintCategory int

const (
	ConstraintUnique ConstraintCategory = iota
	ConstraintKey
	ConstraintKeyRef
)

func (c ConstraintCategory) String() string {
	return [...]string{"unique", "key", "keyref"}[c]
}

// An IdentityConstraint is a unique, key or keyref definition. The XPath
// expressions are not evaluated.
type IdentityConstraint struct {
	annotated
	name     xml.Name
	Category ConstraintCategory
	Selector string
	Fields   []string

	refer *lazy.Cell[*IdentityConstraint]
}

func (c *IdentityConstraint) Name() xml.Name { return c.name }

// Refer returns the key or unique constraint a keyref refers to.
func (c *IdentityConstraint) Refer() *IdentityConstraint { return c.refer.Value() }

// An Assertion is an assert or assertion, kept as an unevaluated XPath
// expression.
type Assertion struct {
	annotated
	Test                  string
	XPathDefaultNamespace string
}

// A TypeTable holds the conditional type alternatives of an element.
type TypeTable struct {
	Alternatives []*TypeAlternative
	// The alternative without a test, if any.
	Default *TypeAlternative
}

// A TypeAlternative selects a type when its test holds.
type TypeAlternative struct {
	annotated
	Test string
	typ  *lazy.Cell[Type]
}

func (a *TypeAlternative) Type() Type { return a.typ.Value() }

// OpenContentMode is the mode of an open content model.
type OpenContentMode int

const (
	OpenNone OpenContentMode = iota
	OpenInterleave
	OpenSuffix
)

func (m OpenContentMode) String() string {
	return [...]string{"none", "interleave", "suffix"}[m]
}

// OpenContent allows elements matching Wildcard in a content model in
// addition to those it declares.
type OpenContent struct {
	annotated
	Mode     OpenContentMode
	Wildcard *Wildcard
	// Only set on a schema's default open content.
	AppliesToEmpty bool
}
