package xsd

import (
	"encoding/xml"

	"github.com/CognitoIQ/go-xsd/internal/grammar"
	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// parseComplexType builds a complex type definition. context is nil for
// top-level definitions, and the owning component otherwise.
func (s *Schema) parseComplexType(el *xmltree.Element, context Component) *ComplexType {
	rule := grammar.TopComplexType
	if context != nil {
		rule = grammar.LocalComplexType
	}
	form := check(el, rule)
	t := &ComplexType{
		annotated: s.annotate(form),
		context:   context,
		Abstract:  form.Bool("abstract", false),
	}
	if context == nil {
		t.name = xml.Name{Space: s.TargetNS, Local: form.Value("name", "")}
	} else {
		t.anonymous = true
	}
	const complexSet = DerivationExtension | DerivationRestriction
	t.Block = s.BlockDefault & complexSet
	if v, ok := form.Attr("block"); ok {
		t.Block = parseDerivationSet(v, complexSet)
	}
	t.final = s.FinalDefault & complexSet
	if v, ok := form.Attr("final"); ok {
		t.final = parseDerivationSet(v, complexSet)
	}
	label := typeLabel("complex type", t.name, t.anonymous)
	mixed := form.Bool("mixed", false)

	// decls is the element carrying the attributes and assertions: the
	// complex type itself, or its restriction or extension.
	decls := form
	switch content := form.Child("simpleContent", "complexContent"); {
	case content == nil:
		t.derivation = DerivationRestriction
		t.base = lazy.Of[Type](anyType)
		s.deriveComplexContent(t, t.base, form, mixed)
	case content.Name.Local == "simpleContent":
		cf := check(content, grammar.SimpleContent)
		deriv := cf.Child("restriction", "extension")
		r := grammar.SimpleContentRestriction
		t.derivation = DerivationRestriction
		if deriv.Name.Local == "extension" {
			r = grammar.SimpleContentExtension
			t.derivation = DerivationExtension
		}
		decls = check(deriv, r)
		t.base = s.complexBase(t, decls, label)
		s.deriveSimpleContent(t, t.base, decls)
	default:
		cf := check(content, grammar.ComplexContent)
		if _, ok := cf.Attr("mixed"); ok {
			mixed = cf.Bool("mixed", false)
		}
		deriv := cf.Child("restriction", "extension")
		r := grammar.ComplexContentRestriction
		t.derivation = DerivationRestriction
		if deriv.Name.Local == "extension" {
			r = grammar.ComplexContentExtension
			t.derivation = DerivationExtension
		}
		decls = check(deriv, r)
		t.base = s.complexBase(t, decls, label)
		s.deriveComplexContent(t, t.base, decls, mixed)
	}

	applyDefault := form.Bool("defaultAttributesApply", true)
	declared, refs, local := s.parseAttributeDecls(decls, t)
	var asserts []*Assertion
	for _, a := range decls.Children("assert") {
		asserts = append(asserts, s.parseAssertion(check(a, grammar.Assert)))
	}
	var defaults *lazy.Cell[*AttributeGroup]
	if applyDefault {
		defaults = s.defaultAttributes
	}

	t.uses = cell(s, label, el, func() []*AttributeUse {
		own := gatherAttributes(declared, refs, defaults).uses
		redeclared := make(map[xml.Name]bool)
		for _, u := range own {
			redeclared[u.Name()] = true
		}
		var result []*AttributeUse
		if b, ok := t.BaseType().(*ComplexType); ok {
			for _, u := range b.AttributeUses() {
				if !redeclared[u.Name()] {
					result = append(result, u)
				}
			}
		}
		for _, u := range own {
			if u.Use != UseProhibited {
				result = append(result, u)
			}
		}
		return result
	})
	t.wildcard = cell(s, label, el, func() *Wildcard {
		w := gatherAttributes(nil, refs, defaults).wildcard(local)
		if t.derivation == DerivationExtension {
			if b, ok := t.BaseType().(*ComplexType); ok {
				return unionWildcard(w, b.AttributeWildcard())
			}
		}
		return w
	})
	t.assertions = cell(s, label, el, func() []*Assertion {
		var result []*Assertion
		if b, ok := t.BaseType().(*ComplexType); ok {
			result = append(result, b.Assertions()...)
		}
		return append(result, asserts...)
	})
	return t
}

// complexBase resolves the base attribute of a restriction or extension.
func (s *Schema) complexBase(t *ComplexType, form *grammar.Form, label string) *lazy.Cell[Type] {
	base := s.resolveType(form.Element, form.Value("base", ""))
	return cell(s, label, form.Element, func() Type {
		b := must(base)
		if b.Final().Has(t.derivation) {
			stop(grammarError(form.Element, "%s is final for %s", b.Name().Local, t.derivation))
		}
		return b
	})
}

// deriveComplexContent computes the content type of a complex type with
// complex content, or of the shorthand form with neither simpleContent
// nor complexContent.
func (s *Schema) deriveComplexContent(t *ComplexType, base *lazy.Cell[Type], form *grammar.Form, mixed bool) {
	var particle *Particle
	if el := form.Child("group", "all", "choice", "sequence"); el != nil {
		particle = s.parseParticle(el, t)
	}
	var open *OpenContent
	if el := form.Child("openContent"); el != nil {
		open = s.parseOpenContent(el)
	}
	node := form.Element
	t.content = cell(s, typeLabel("complex type", t.name, t.anonymous), node, func() *ContentType {
		var baseContent *ContentType
		if b, ok := must(base).(*ComplexType); ok {
			baseContent = b.Content()
		}
		explicit := particle
		if explicitlyEmpty(particle) {
			explicit = nil
		}
		variety := ContentElementOnly
		if mixed {
			variety = ContentMixed
		}

		var ct *ContentType
		switch {
		case t.derivation == DerivationExtension && baseContent != nil &&
			(baseContent.Variety == ContentElementOnly || baseContent.Variety == ContentMixed):
			if explicit == nil {
				ct = &ContentType{Variety: baseContent.Variety, Particle: baseContent.Particle}
			} else {
				ct = &ContentType{Variety: variety, Particle: extendParticle(baseContent.Particle, explicit)}
			}
		case explicit == nil && mixed:
			ct = &ContentType{Variety: ContentMixed, Particle: emptySequence(node)}
		case explicit == nil:
			ct = &ContentType{Variety: ContentEmpty}
		default:
			ct = &ContentType{Variety: variety, Particle: explicit}
		}
		s.applyOpenContent(t, ct, open, baseContent, node)
		return ct
	})
}

// explicitlyEmpty reports whether a declared particle contributes no
// content.
func explicitlyEmpty(p *Particle) bool {
	if p == nil || p.MaxOccurs == 0 {
		return true
	}
	mg, ok := p.Term().(*ModelGroup)
	if !ok {
		return false
	}
	switch mg.Compositor {
	case CompositorAll, CompositorSequence:
		return len(mg.Particles) == 0
	case CompositorChoice:
		return len(mg.Particles) == 0 && p.MinOccurs == 0
	}
	return false
}

func emptySequence(node *xmltree.Element) *Particle {
	return &Particle{
		node:      node,
		MinOccurs: 1,
		MaxOccurs: 1,
		term:      lazy.Of[Term](&ModelGroup{annotated: annotated{node: node}, Compositor: CompositorSequence}),
	}
}

func allGroup(p *Particle) (*ModelGroup, bool) {
	if p == nil {
		return nil, false
	}
	mg, ok := p.Term().(*ModelGroup)
	return mg, ok && mg.Compositor == CompositorAll
}

// extendParticle appends the particle of an extension to the content of
// its base. Two all groups merge into one, keeping the minOccurs of the
// base; anything else becomes a sequence of the two.
func extendParticle(base, ext *Particle) *Particle {
	baseAll, ok1 := allGroup(base)
	extAll, ok2 := allGroup(ext)
	if ok1 && ok2 {
		merged := &ModelGroup{annotated: baseAll.annotated, Compositor: CompositorAll}
		merged.Particles = append(merged.Particles, baseAll.Particles...)
		merged.Particles = append(merged.Particles, extAll.Particles...)
		return &Particle{node: base.node, MinOccurs: base.MinOccurs, MaxOccurs: 1, term: lazy.Of[Term](merged)}
	}
	seq := &ModelGroup{
		annotated:  annotated{node: ext.node},
		Compositor: CompositorSequence,
		Particles:  []*Particle{base, ext},
	}
	return &Particle{node: ext.node, MinOccurs: 1, MaxOccurs: 1, term: lazy.Of[Term](seq)}
}

// applyOpenContent sets the open content of ct from the type's own
// openContent, the schema's default, and the base type's, in that
// order of precedence. Empty content with open content becomes an
// empty element-only sequence.
func (s *Schema) applyOpenContent(t *ComplexType, ct *ContentType, own *OpenContent, baseContent *ContentType, node *xmltree.Element) {
	oc := own
	if own == nil && s.DefaultOpenContent != nil &&
		(ct.Variety != ContentEmpty || s.DefaultOpenContent.AppliesToEmpty) {
		oc = s.DefaultOpenContent
	}
	if oc != nil && oc.Mode == OpenNone {
		oc = nil
	}
	if t.derivation == DerivationExtension && baseContent != nil && baseContent.OpenContent != nil {
		if oc == nil {
			oc = baseContent.OpenContent
		} else {
			merged := *oc
			merged.Wildcard = unionWildcard(oc.Wildcard, baseContent.OpenContent.Wildcard)
			oc = &merged
		}
	}
	if oc == nil {
		return
	}
	if ct.Variety == ContentEmpty {
		ct.Variety = ContentElementOnly
		ct.Particle = emptySequence(node)
	}
	ct.OpenContent = oc
}

// deriveSimpleContent computes the content type of a complex type with
// simple content.
func (s *Schema) deriveSimpleContent(t *ComplexType, base *lazy.Cell[Type], form *grammar.Form) {
	var inline *SimpleType
	if el := form.Child("simpleType"); el != nil {
		inline = s.parseSimpleType(el, t)
	}
	declared := s.parseFacets(form)
	node := form.Element
	t.content = cell(s, typeLabel("complex type", t.name, t.anonymous), node, func() *ContentType {
		var st *SimpleType
		switch b := must(base).(type) {
		case *ComplexType:
			bc := b.Content()
			switch {
			case bc.Variety == ContentSimple && t.derivation == DerivationRestriction:
				from := bc.SimpleType
				if inline != nil {
					from = inline
				}
				st = s.restrictAnonymous(t, from, declared, node)
			case bc.Variety == ContentMixed && t.derivation == DerivationRestriction &&
				(bc.Particle == nil || bc.Particle.Emptiable()):
				from := builtinTypes[AnySimpleType]
				if inline != nil {
					from = inline
				}
				st = s.restrictAnonymous(t, from, declared, node)
			case bc.Variety == ContentSimple && t.derivation == DerivationExtension:
				st = bc.SimpleType
			}
		case *SimpleType:
			if t.derivation == DerivationExtension {
				st = b
			}
		}
		if st == nil {
			st = builtinTypes[AnySimpleType]
		}
		return &ContentType{Variety: ContentSimple, SimpleType: st}
	})
}

// restrictAnonymous builds the anonymous simple type of a simple
// content restriction. It is computed on the spot, since it may be
// created after the resolve pass has visited its schema.
func (s *Schema) restrictAnonymous(t *ComplexType, from *SimpleType, declared []*Facet, node *xmltree.Element) *SimpleType {
	st := &SimpleType{annotated: annotated{node: node}, anonymous: true, context: t, builtin: -1}
	s.deriveSimple(st, lazy.Of(from), declared, node)
	s.fundamentals(st, node)
	must(st.base)
	must(st.variety)
	must(st.primitive)
	must(st.itemType)
	must(st.members)
	must(st.facets)
	must(st.fundamental)
	return st
}

// attributeSet accumulates the attribute uses and wildcards of a set of
// declarations and the attribute groups they reference.
type attributeSet struct {
	uses      []*AttributeUse
	wildcards []*Wildcard
	byName    map[xml.Name]*AttributeUse
	visited   map[*AttributeGroup]bool
}

// gatherAttributes collects declared, and the uses of the groups refs
// and extra refer to, transitively. Each group is visited once, so
// circular attribute group references are harmless. Two different uses
// of the same attribute name are an error.
func gatherAttributes(declared []*AttributeUse, refs []*lazy.Cell[*AttributeGroup], extra *lazy.Cell[*AttributeGroup]) *attributeSet {
	set := &attributeSet{
		byName:  make(map[xml.Name]*AttributeUse),
		visited: make(map[*AttributeGroup]bool),
	}
	set.add(declared)
	set.follow(refs)
	if extra != nil {
		set.follow([]*lazy.Cell[*AttributeGroup]{extra})
	}
	return set
}

func (set *attributeSet) add(uses []*AttributeUse) {
	for _, u := range uses {
		name := u.Name()
		if prev, ok := set.byName[name]; ok {
			if prev != u {
				stop(grammarError(u.node, "attribute %s is declared more than once", name.Local))
			}
			continue
		}
		set.byName[name] = u
		set.uses = append(set.uses, u)
	}
}

func (set *attributeSet) follow(refs []*lazy.Cell[*AttributeGroup]) {
	for _, r := range refs {
		g := must(r)
		if g == nil || set.visited[g] {
			continue
		}
		set.visited[g] = true
		set.add(g.declared)
		if g.local != nil {
			set.wildcards = append(set.wildcards, g.local)
		}
		set.follow(g.refs)
	}
}

// wildcard returns the intersection of local with the wildcards of the
// groups gathered.
func (set *attributeSet) wildcard(local *Wildcard) *Wildcard {
	return intersectWildcards(local, set.wildcards)
}
