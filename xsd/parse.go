package xsd

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/CognitoIQ/go-xsd/internal/grammar"
	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// parseSchema builds the Schema of a <schema> element. The top-level
// components of the document are registered immediately; everything
// they refer to is looked up when their cells are forced.
func (sess *session) parseSchema(root *xmltree.Element) *Schema {
	form := check(root, grammar.Schema)
	s := &Schema{session: sess, Location: root.Base}
	s.annotated = annotated{node: root}
	s.own.init()

	if tns, ok := form.Attr("targetNamespace"); ok {
		if tns == "" {
			stop(grammarError(root, "targetNamespace cannot be empty; omit it for the absent namespace"))
		}
		s.TargetNS = tns
	}
	if form.Value("elementFormDefault", "") == "qualified" {
		s.ElementFormDefault = Qualified
	}
	if form.Value("attributeFormDefault", "") == "qualified" {
		s.AttributeFormDefault = Qualified
	}
	s.BlockDefault = parseDerivationSet(form.Value("blockDefault", ""),
		DerivationExtension|DerivationRestriction|DerivationSubstitution)
	s.FinalDefault = parseDerivationSet(form.Value("finalDefault", ""),
		DerivationExtension|DerivationRestriction|DerivationList|DerivationUnion)
	s.XPathDefaultNamespace = s.xpathNamespace(root, form.Value("xpathDefaultNamespace", "##local"))

	sess.register(s)
	sess.debugf("compiling %s (namespace %q)", root.Location(), s.TargetNS)
	s.assembled = newCell("components of "+root.Base, root, s.assemble)

	if v, ok := form.Attr("defaultAttributes"); ok {
		g := lookup[*AttributeGroup](s, KindAttributeGroup, qname(root, v), root)
		s.defaultAttributes = cell(s, "default attributes", root, func() *AttributeGroup { return must(g) })
	} else {
		s.defaultAttributes = lazy.Of[*AttributeGroup](nil)
	}

	walk(root, func(el *xmltree.Element) {
		sess.debugf("%s: %s", el.Location(), describeNode(el))
		switch el.Name.Local {
		case "annotation":
			s.annotations = append(s.annotations, s.parseAnnotation(el))
		case "include", "import", "redefine", "override":
			s.parseDirective(el)
		case "defaultOpenContent":
			s.DefaultOpenContent = s.parseDefaultOpenContent(el)
		case "simpleType":
			s.own.add(KindType, s.parseSimpleType(el, nil))
		case "complexType":
			s.own.add(KindType, s.parseComplexType(el, nil))
		case "group":
			s.own.add(KindGroup, s.parseGroupDef(el))
		case "attributeGroup":
			s.own.add(KindAttributeGroup, s.parseAttributeGroupDef(el))
		case "element":
			s.own.add(KindElement, s.parseElement(el, nil))
		case "attribute":
			s.own.add(KindAttribute, s.parseAttribute(el, nil))
		case "notation":
			s.own.add(KindNotation, s.parseNotation(el))
		}
	})
	return s
}

// xpathNamespace resolves the value of an xpathDefaultNamespace
// attribute.
func (s *Schema) xpathNamespace(el *xmltree.Element, v string) string {
	switch v {
	case "##defaultNamespace":
		ns, _ := el.Lookup("")
		return ns
	case "##targetNamespace":
		return s.TargetNS
	case "##local":
		return ""
	}
	return v
}

func (s *Schema) parseAnnotation(el *xmltree.Element) *Annotation {
	form := check(el, grammar.Annotation)
	a := &Annotation{node: el}
	for _, c := range form.Children() {
		switch c.Name.Local {
		case "appinfo":
			check(c, grammar.AppInfo)
			a.AppInfo = append(a.AppInfo, c)
		case "documentation":
			check(c, grammar.Documentation)
			a.Documentation = append(a.Documentation, c)
		}
	}
	return a
}

func (s *Schema) annotate(form *grammar.Form) annotated {
	a := annotated{node: form.Element}
	for _, c := range form.Children("annotation") {
		a.annotations = append(a.annotations, s.parseAnnotation(c))
	}
	return a
}

func (s *Schema) parseDirective(el *xmltree.Element) {
	d := &Directive{node: el}
	var form *grammar.Form
	switch el.Name.Local {
	case "include":
		d.Kind = DirectiveInclude
		form = check(el, grammar.Include)
	case "import":
		d.Kind = DirectiveImport
		form = check(el, grammar.Import)
		ns, ok := form.Attr("namespace")
		if ok && ns == "" {
			stop(grammarError(el, "the namespace of an import cannot be empty; omit it to import the absent namespace"))
		}
		if ns == s.TargetNS {
			stop(&NamespaceMismatchError{
				Site:     at(el),
				Expected: "a namespace other than " + strconv.Quote(s.TargetNS),
				Actual:   ns,
				Message:  "a schema cannot import its own target namespace",
			})
		}
		d.Namespace = ns
	case "redefine":
		d.Kind = DirectiveRedefine
		form = check(el, grammar.Redefine)
	case "override":
		d.Kind = DirectiveOverride
		form = check(el, grammar.Override)
	}
	d.Location = form.Value("schemaLocation", "")
	label := d.Kind.String() + " " + d.Location
	if d.Kind == DirectiveImport && d.Location == "" {
		label = "import of " + strconv.Quote(d.Namespace)
	}
	d.schema = cell(s, label, el, func() *Schema {
		return s.session.resolveDirective(s, d)
	})
	s.Directives = append(s.Directives, d)
}

func (s *Schema) parseDefaultOpenContent(el *xmltree.Element) *OpenContent {
	form := check(el, grammar.DefaultOpenContent)
	oc := &OpenContent{
		annotated:      s.annotate(form),
		Mode:           OpenInterleave,
		AppliesToEmpty: form.Bool("appliesToEmpty", false),
	}
	if form.Value("mode", "interleave") == "suffix" {
		oc.Mode = OpenSuffix
	}
	oc.Wildcard = s.parseOpenWildcard(form.Child("any"))
	return oc
}

func (s *Schema) parseOpenContent(el *xmltree.Element) *OpenContent {
	form := check(el, grammar.OpenContent)
	oc := &OpenContent{annotated: s.annotate(form), Mode: OpenInterleave}
	switch form.Value("mode", "interleave") {
	case "none":
		oc.Mode = OpenNone
	case "suffix":
		oc.Mode = OpenSuffix
	}
	w := form.Child("any")
	if w == nil {
		if oc.Mode != OpenNone {
			stop(grammarError(el, "openContent needs an <any> child unless its mode is none"))
		}
		return oc
	}
	oc.Wildcard = s.parseOpenWildcard(w)
	return oc
}

func (s *Schema) parseOpenWildcard(el *xmltree.Element) *Wildcard {
	form := check(el, grammar.Any)
	for _, a := range []string{"minOccurs", "maxOccurs"} {
		if _, ok := form.Attr(a); ok {
			stop(grammarError(el, "%s is not allowed on the wildcard of open content", a))
		}
	}
	return s.parseWildcard(form)
}

func (s *Schema) parseWildcard(form *grammar.Form) *Wildcard {
	w := &Wildcard{annotated: s.annotate(form)}
	switch form.Value("processContents", "strict") {
	case "lax":
		w.ProcessContents = ProcessLax
	case "skip":
		w.ProcessContents = ProcessSkip
	}
	ns, hasNS := form.Attr("namespace")
	not, hasNot := form.Attr("notNamespace")
	w.Namespace = parseNamespaceConstraint(form.Element, s.TargetNS,
		ns, not, form.Value("notQName", ""), hasNS, hasNot)
	return w
}

func typeLabel(kind string, name xml.Name, anonymous bool) string {
	if anonymous {
		return "anonymous " + kind
	}
	return kind + " " + name.Local
}

// parseSimpleType builds a simple type definition. context is nil for
// top-level definitions, and the owning component otherwise.
func (s *Schema) parseSimpleType(el *xmltree.Element, context Component) *SimpleType {
	rule := grammar.TopSimpleType
	if context != nil {
		rule = grammar.LocalSimpleType
	}
	form := check(el, rule)
	t := &SimpleType{annotated: s.annotate(form), context: context, builtin: -1}
	if context == nil {
		t.name = xml.Name{Space: s.TargetNS, Local: form.Value("name", "")}
	} else {
		t.anonymous = true
	}
	const simpleFinal = DerivationRestriction | DerivationList | DerivationUnion
	t.final = s.FinalDefault & simpleFinal
	if v, ok := form.Attr("final"); ok {
		t.final = parseDerivationSet(v, simpleFinal)
	}

	variety := form.Child("restriction", "list", "union")
	switch variety.Name.Local {
	case "restriction":
		vf := check(variety, grammar.SimpleRestriction)
		base := s.restrictionBase(t, vf)
		s.deriveSimple(t, base, s.parseFacets(vf), variety)
	case "list":
		s.deriveList(t, variety)
	case "union":
		s.deriveUnion(t, variety)
	}
	s.fundamentals(t, el)
	return t
}

func (s *Schema) restrictionBase(t *SimpleType, form *grammar.Form) *lazy.Cell[*SimpleType] {
	base, hasBase := form.Attr("base")
	inline := form.Child("simpleType")
	switch {
	case hasBase && inline != nil:
		stop(grammarError(form.Element, "restriction cannot have both a base attribute and a simpleType child"))
	case inline != nil:
		return lazy.Of(s.parseSimpleType(inline, t))
	case !hasBase:
		stop(grammarError(form.Element, "restriction needs a base attribute or a simpleType child"))
	}
	return s.resolveSimpleType(form.Element, base)
}

// deriveSimple fills in the properties of t, a restriction of base with
// the declared facets.
func (s *Schema) deriveSimple(t *SimpleType, base *lazy.Cell[*SimpleType], declared []*Facet, node *xmltree.Element) {
	label := typeLabel("simple type", t.name, t.anonymous)
	t.base = cell(s, label, node, func() Type {
		b := must(base)
		if b.Final().Has(DerivationRestriction) {
			stop(grammarError(node, "%s cannot be restricted; it is final for restriction", b.Name().Local))
		}
		return b
	})
	t.variety = cell(s, label, node, func() Variety {
		if v := must(base).Variety(); v != VarietyAbsent {
			return v
		}
		return VarietyAtomic
	})
	t.primitive = cell(s, label, node, func() *SimpleType {
		b := must(base)
		if b.Variety() == VarietyAbsent {
			return nil
		}
		return b.Primitive()
	})
	t.itemType = cell(s, label, node, func() *SimpleType { return must(base).ItemType() })
	t.members = cell(s, label, node, func() []*SimpleType { return must(base).MemberTypes() })
	t.facets = cell(s, label, node, func() Facets {
		b := must(base)
		fs, err := combineFacets(b.Facets(), declared, b.Name(), lexicalMapper(b))
		if err != nil {
			stop(err)
		}
		return fs
	})
}

func (s *Schema) deriveList(t *SimpleType, el *xmltree.Element) {
	form := check(el, grammar.List)
	label := typeLabel("simple type", t.name, t.anonymous)
	itemName, hasItem := form.Attr("itemType")
	inline := form.Child("simpleType")
	var item *lazy.Cell[*SimpleType]
	switch {
	case hasItem && inline != nil:
		stop(grammarError(el, "list cannot have both an itemType attribute and a simpleType child"))
	case inline != nil:
		item = lazy.Of(s.parseSimpleType(inline, t))
	case hasItem:
		item = s.resolveSimpleType(el, itemName)
	default:
		stop(grammarError(el, "list needs an itemType attribute or a simpleType child"))
	}
	t.base = lazy.Of[Type](builtinTypes[AnySimpleType])
	t.variety = lazy.Of(VarietyList)
	t.primitive = lazy.Of[*SimpleType](nil)
	t.members = lazy.Of[[]*SimpleType](nil)
	t.facets = lazy.Of(listFacets())
	t.itemType = cell(s, label, el, func() *SimpleType {
		it := must(item)
		if it.Variety() == VarietyList {
			stop(grammarError(el, "the item type of a list cannot itself be a list"))
		}
		if it.Final().Has(DerivationList) {
			stop(grammarError(el, "%s is final for list", it.Name().Local))
		}
		return it
	})
}

func (s *Schema) deriveUnion(t *SimpleType, el *xmltree.Element) {
	form := check(el, grammar.Union)
	label := typeLabel("simple type", t.name, t.anonymous)
	var members []*lazy.Cell[*SimpleType]
	if v, ok := form.Attr("memberTypes"); ok {
		for _, name := range strings.Fields(v) {
			members = append(members, s.resolveSimpleType(el, name))
		}
	}
	for _, c := range form.Children("simpleType") {
		members = append(members, lazy.Of(s.parseSimpleType(c, t)))
	}
	if len(members) == 0 {
		stop(grammarError(el, "union needs memberTypes or a simpleType child"))
	}
	t.base = lazy.Of[Type](builtinTypes[AnySimpleType])
	t.variety = lazy.Of(VarietyUnion)
	t.primitive = lazy.Of[*SimpleType](nil)
	t.itemType = lazy.Of[*SimpleType](nil)
	t.facets = lazy.Of(markers(unionFacetKinds...))
	t.members = cell(s, label, el, func() []*SimpleType {
		var result []*SimpleType
		for _, m := range members {
			mt := must(m)
			if mt.Final().Has(DerivationUnion) {
				stop(grammarError(el, "%s is final for union", mt.Name().Local))
			}
			// unions of unions are flattened
			if mt.Variety() == VarietyUnion {
				result = append(result, mt.MemberTypes()...)
			} else {
				result = append(result, mt)
			}
		}
		return result
	})
}

func (s *Schema) fundamentals(t *SimpleType, node *xmltree.Element) {
	t.fundamental = cell(s, typeLabel("simple type", t.name, t.anonymous), node, func() FundamentalFacets {
		return fundamentalFacets(t.Variety(), t.Primitive(), t.ItemType(), t.MemberTypes(), t.Facets())
	})
}

// lexicalMapper returns the mapping applied to enumeration values of a
// restriction of base: white space is normalized as base prescribes,
// and QName values are expanded in the scope of the facet.
func lexicalMapper(base *SimpleType) func(string, *xmltree.Element) string {
	ws := "preserve"
	if v, ok := base.Facets().Value(FacetWhiteSpace); ok {
		ws = v
	}
	qnameValued := false
	if p := base.Primitive(); p != nil {
		if b, ok := p.Builtin(); ok && (b == QName || b == NOTATION) {
			qnameValued = true
		}
	}
	return func(v string, node *xmltree.Element) string {
		v = normalizeSpace(v, ws)
		if qnameValued && node != nil {
			if name, ok := node.ResolveNS(v); ok {
				return "{" + name.Space + "}" + name.Local
			}
		}
		return v
	}
}

// parseFacets returns the facets declared by the children of a
// restriction, in document order.
func (s *Schema) parseFacets(form *grammar.Form) []*Facet {
	var result []*Facet
	for _, c := range form.Children() {
		rule, ok := grammar.FacetRules[c.Name.Local]
		if !ok {
			continue
		}
		ff := check(c, rule)
		kind, _ := parseFacetKind(c.Name.Local)
		f := &Facet{node: c, Kind: kind, Fixed: ff.Bool("fixed", false)}
		if kind == FacetAssertions {
			f.Assertions = []*Assertion{s.parseAssertion(ff)}
		} else {
			f.Value = ff.Value("value", "")
		}
		result = append(result, f)
	}
	return result
}

func (s *Schema) parseAssertion(form *grammar.Form) *Assertion {
	return &Assertion{
		annotated:             s.annotate(form),
		Test:                  form.Value("test", ""),
		XPathDefaultNamespace: s.localXPathNamespace(form),
	}
}

func (s *Schema) localXPathNamespace(form *grammar.Form) string {
	if v, ok := form.Attr("xpathDefaultNamespace"); ok {
		return s.xpathNamespace(form.Element, v)
	}
	return s.XPathDefaultNamespace
}

// localName computes the name of a local element or attribute
// declaration from its form and targetNamespace attributes and the
// schema default.
func (s *Schema) localName(form *grammar.Form, name string, def Form) xml.Name {
	f, hasForm := form.Attr("form")
	if ns, ok := form.Attr("targetNamespace"); ok {
		if hasForm {
			stop(grammarError(form.Element, "form and targetNamespace cannot both be given"))
		}
		return xml.Name{Space: ns, Local: name}
	}
	qualified := def == Qualified
	if hasForm {
		qualified = f == "qualified"
	}
	if qualified {
		return xml.Name{Space: s.TargetNS, Local: name}
	}
	return xml.Name{Local: name}
}

// valueConstraint reads the default and fixed attributes of a
// declaration whose type is t.
func valueConstraint(form *grammar.Form, t Type) *ValueConstraint {
	vc := new(ValueConstraint)
	if v, ok := form.Attr("fixed"); ok {
		vc.Fixed = true
		vc.Lexical = v
	} else if v, ok := form.Attr("default"); ok {
		vc.Lexical = v
	} else {
		return nil
	}
	vc.Normalized = normalizeSpace(vc.Lexical, whiteSpaceOf(t))
	return vc
}

func checkValueAttrs(form *grammar.Form) {
	_, hasDefault := form.Attr("default")
	_, hasFixed := form.Attr("fixed")
	if hasDefault && hasFixed {
		stop(grammarError(form.Element, "default and fixed cannot both be given"))
	}
}

// whiteSpaceOf returns the white space handling of character data of
// type t.
func whiteSpaceOf(t Type) string {
	switch t := t.(type) {
	case *SimpleType:
		if v, ok := t.Facets().Value(FacetWhiteSpace); ok {
			return v
		}
		if t.Variety() == VarietyList {
			return "collapse"
		}
	case *ComplexType:
		if c := t.Content(); c.Variety == ContentSimple && c.SimpleType != nil {
			return whiteSpaceOf(c.SimpleType)
		}
	}
	return "preserve"
}

// parseElement builds an element declaration. parent is nil for
// top-level declarations.
func (s *Schema) parseElement(el *xmltree.Element, parent Component) *Element {
	rule := grammar.LocalElement
	if parent == nil {
		rule = grammar.TopElement
	}
	form := check(el, rule)
	name := form.Value("name", "")
	e := &Element{
		annotated: s.annotate(form),
		Nillable:  form.Bool("nillable", false),
		Abstract:  form.Bool("abstract", false),
	}
	if parent == nil {
		e.name = xml.Name{Space: s.TargetNS, Local: name}
		e.scope = Scope{Global: true}
	} else {
		e.name = s.localName(form, name, s.ElementFormDefault)
		e.scope = Scope{Parent: parent}
	}
	const blockSet = DerivationExtension | DerivationRestriction | DerivationSubstitution
	const finalSet = DerivationExtension | DerivationRestriction
	e.Block = s.BlockDefault & blockSet
	if v, ok := form.Attr("block"); ok {
		e.Block = parseDerivationSet(v, blockSet)
	}
	e.Final = s.FinalDefault & finalSet
	if v, ok := form.Attr("final"); ok {
		e.Final = parseDerivationSet(v, finalSet)
	}
	checkValueAttrs(form)
	label := "element " + name

	var heads []*lazy.Cell[*Element]
	if v, ok := form.Attr("substitutionGroup"); ok {
		for _, n := range qnames(el, v) {
			heads = append(heads, lookup[*Element](s, KindElement, n, el))
		}
	}
	typeName, hasType := form.Attr("type")
	inline := form.Child("simpleType", "complexType")
	switch {
	case hasType && inline != nil:
		stop(grammarError(el, "element cannot have both a type attribute and an anonymous type"))
	case inline != nil && inline.Name.Local == "simpleType":
		e.typ = lazy.Of[Type](s.parseSimpleType(inline, e))
	case inline != nil:
		e.typ = lazy.Of[Type](s.parseComplexType(inline, e))
	case hasType:
		ref := s.resolveType(el, typeName)
		e.typ = cell(s, label, el, func() Type { return must(ref) })
	case len(heads) > 0:
		e.typ = cell(s, label, el, func() Type { return must(heads[0]).Type() })
	default:
		e.typ = lazy.Of[Type](anyType)
	}

	e.substitutes = cell(s, label, el, func() []*Element {
		var result []*Element
		for _, h := range heads {
			result = append(result, must(h))
		}
		checkSubstitutionCycle(e, result, el)
		return result
	})
	e.value = cell(s, label, el, func() *ValueConstraint { return valueConstraint(form, e.Type()) })
	constraints := s.parseIdentityConstraints(form)
	e.constraints = cell(s, label, el, func() []*IdentityConstraint {
		var result []*IdentityConstraint
		for _, c := range constraints {
			result = append(result, must(c))
		}
		return result
	})
	e.table = s.parseTypeTable(form, e)
	return e
}

// checkSubstitutionCycle stops if e is, transitively, a member of its
// own substitution group.
func checkSubstitutionCycle(e *Element, heads []*Element, node *xmltree.Element) {
	seen := make(map[*Element]bool)
	queue := append([]*Element(nil), heads...)
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if x == e {
			stop(&CyclicResolutionError{Site: at(node), Label: "substitution group of " + e.name.Local})
		}
		if seen[x] {
			continue
		}
		seen[x] = true
		queue = append(queue, x.SubstitutionGroups()...)
	}
}

var identityRules = map[string]grammar.Rule{
	"unique": grammar.Unique,
	"key":    grammar.Key,
	"keyref": grammar.KeyRef,
}

func (s *Schema) parseIdentityConstraints(form *grammar.Form) []*lazy.Cell[*IdentityConstraint] {
	var result []*lazy.Cell[*IdentityConstraint]
	for _, c := range form.Children("unique", "key", "keyref") {
		cf := check(c, identityRules[c.Name.Local])
		if ref, ok := cf.Attr("ref"); ok {
			if _, named := cf.Attr("name"); named || cf.Child("selector", "field") != nil {
				stop(grammarError(c, "a %s reference cannot have a name, selector or fields", c.Name.Local))
			}
			result = append(result, lookup[*IdentityConstraint](s, KindIdentityConstraint, qname(c, ref), c))
			continue
		}
		name, ok := cf.Attr("name")
		if !ok {
			stop(grammarError(c, "%s needs a name or a ref", c.Name.Local))
		}
		sel := cf.Child("selector")
		fields := cf.Children("field")
		if sel == nil || len(fields) == 0 {
			stop(grammarError(c, "%s %s needs a selector and at least one field", c.Name.Local, name))
		}
		ic := &IdentityConstraint{
			annotated: s.annotate(cf),
			name:      xml.Name{Space: s.TargetNS, Local: name},
			Selector:  check(sel, grammar.Selector).Value("xpath", ""),
		}
		for _, f := range fields {
			ic.Fields = append(ic.Fields, check(f, grammar.Field).Value("xpath", ""))
		}
		switch c.Name.Local {
		case "key":
			ic.Category = ConstraintKey
		case "keyref":
			ic.Category = ConstraintKeyRef
		}
		if ic.Category == ConstraintKeyRef {
			refer, ok := cf.Attr("refer")
			if !ok {
				stop(grammarError(c, "keyref %s needs a refer attribute", name))
			}
			target := lookup[*IdentityConstraint](s, KindIdentityConstraint, qname(c, refer), c)
			ic.refer = cell(s, "keyref "+name, c, func() *IdentityConstraint {
				r := must(target)
				if r.Category == ConstraintKeyRef {
					stop(grammarError(c, "keyref %s must refer to a key or unique constraint", name))
				}
				return r
			})
		} else {
			ic.refer = lazy.Of[*IdentityConstraint](nil)
		}
		s.own.add(KindIdentityConstraint, ic)
		result = append(result, lazy.Of(ic))
	}
	return result
}

func (s *Schema) parseTypeTable(form *grammar.Form, e *Element) *TypeTable {
	alts := form.Children("alternative")
	if len(alts) == 0 {
		return nil
	}
	table := new(TypeTable)
	for i, a := range alts {
		af := check(a, grammar.Alternative)
		alt := &TypeAlternative{annotated: s.annotate(af), Test: af.Value("test", "")}
		typeName, hasType := af.Attr("type")
		inline := af.Child("simpleType", "complexType")
		switch {
		case hasType && inline != nil:
			stop(grammarError(a, "alternative cannot have both a type attribute and an anonymous type"))
		case inline != nil && inline.Name.Local == "simpleType":
			alt.typ = lazy.Of[Type](s.parseSimpleType(inline, e))
		case inline != nil:
			alt.typ = lazy.Of[Type](s.parseComplexType(inline, e))
		case hasType:
			ref := s.resolveType(a, typeName)
			alt.typ = cell(s, "alternative of "+e.name.Local, a, func() Type { return must(ref) })
		default:
			stop(grammarError(a, "alternative needs a type attribute or an anonymous type"))
		}
		if _, hasTest := af.Attr("test"); hasTest {
			table.Alternatives = append(table.Alternatives, alt)
		} else if i == len(alts)-1 {
			table.Default = alt
		} else {
			stop(grammarError(a, "only the last alternative may omit its test"))
		}
	}
	return table
}

// parseAttribute builds an attribute declaration. parent is nil for
// top-level declarations.
func (s *Schema) parseAttribute(el *xmltree.Element, parent Component) *Attribute {
	rule := grammar.LocalAttribute
	if parent == nil {
		rule = grammar.TopAttribute
	}
	form := check(el, rule)
	name := form.Value("name", "")
	a := &Attribute{annotated: s.annotate(form), Inheritable: form.Bool("inheritable", false)}
	if parent == nil {
		a.name = xml.Name{Space: s.TargetNS, Local: name}
		a.scope = Scope{Global: true}
	} else {
		a.name = s.localName(form, name, s.AttributeFormDefault)
		a.scope = Scope{Parent: parent}
	}
	if a.name.Local == "xmlns" {
		stop(grammarError(el, "an attribute cannot be named xmlns"))
	}
	if a.name.Space == schemaInstanceNS {
		stop(grammarError(el, "attributes cannot be declared in the XML Schema instance namespace"))
	}
	checkValueAttrs(form)

	typeName, hasType := form.Attr("type")
	inline := form.Child("simpleType")
	switch {
	case hasType && inline != nil:
		stop(grammarError(el, "attribute cannot have both a type attribute and an anonymous type"))
	case inline != nil:
		a.typ = lazy.Of(s.parseSimpleType(inline, a))
	case hasType:
		a.typ = s.resolveSimpleType(el, typeName)
		s.pending = append(s.pending, func() error {
			_, err := a.typ.Get()
			return err
		})
	default:
		a.typ = lazy.Of(builtinTypes[AnySimpleType])
	}
	a.value = cell(s, "attribute "+name, el, func() *ValueConstraint {
		return valueConstraint(form, a.Type())
	})
	return a
}

// parseAttributeUse builds the use of a local attribute declaration or
// of a reference to a global one.
func (s *Schema) parseAttributeUse(el *xmltree.Element, parent Component) *AttributeUse {
	form := check(el, grammar.LocalAttribute)
	ref, hasRef := form.Attr("ref")
	if _, hasName := form.Attr("name"); hasRef == hasName {
		stop(grammarError(el, "attribute needs exactly one of name and ref"))
	}
	u := &AttributeUse{node: el}
	switch form.Value("use", "optional") {
	case "required":
		u.Use = UseRequired
	case "prohibited":
		u.Use = UseProhibited
	}
	if _, ok := form.Attr("default"); ok && u.Use != UseOptional {
		stop(grammarError(el, "an attribute with a default must be optional"))
	}
	if !hasRef {
		a := s.parseAttribute(el, parent)
		u.attribute = lazy.Of(a)
		u.value = lazy.Of[*ValueConstraint](nil)
		u.Inheritable = a.Inheritable
		return u
	}

	for _, name := range []string{"type", "form", "targetNamespace"} {
		if _, ok := form.Attr(name); ok {
			stop(grammarError(el, "%s is not allowed on an attribute reference", name))
		}
	}
	if form.Child("simpleType") != nil {
		stop(grammarError(el, "an attribute reference cannot have an anonymous type"))
	}
	checkValueAttrs(form)
	target := lookup[*Attribute](s, KindAttribute, qname(el, ref), el)
	label := "attribute " + ref
	u.attribute = cell(s, label, el, func() *Attribute { return must(target) })
	u.value = cell(s, label, el, func() *ValueConstraint {
		return valueConstraint(form, u.Attribute().Type())
	})
	if v, ok := form.Attr("inheritable"); ok {
		u.Inheritable = v == "true" || v == "1"
	} else {
		cell(s, label, el, func() struct{} {
			u.Inheritable = u.Attribute().Inheritable
			return struct{}{}
		})
	}
	return u
}

// parseAttributeDecls reads the attribute, attributeGroup and
// anyAttribute children of a complex type, its derivation, or an
// attribute group definition.
func (s *Schema) parseAttributeDecls(form *grammar.Form, parent Component) (declared []*AttributeUse, refs []*lazy.Cell[*AttributeGroup], local *Wildcard) {
	for _, c := range form.Children("attribute", "attributeGroup", "anyAttribute") {
		switch c.Name.Local {
		case "attribute":
			declared = append(declared, s.parseAttributeUse(c, parent))
		case "attributeGroup":
			rf := check(c, grammar.AttributeGroupRef)
			refs = append(refs, lookup[*AttributeGroup](s, KindAttributeGroup, qname(c, rf.Value("ref", "")), c))
		case "anyAttribute":
			local = s.parseWildcard(check(c, grammar.AnyAttribute))
		}
	}
	return declared, refs, local
}

func (s *Schema) parseAttributeGroupDef(el *xmltree.Element) *AttributeGroup {
	form := check(el, grammar.AttributeGroupDef)
	name := form.Value("name", "")
	g := &AttributeGroup{annotated: s.annotate(form), name: xml.Name{Space: s.TargetNS, Local: name}}
	g.declared, g.refs, g.local = s.parseAttributeDecls(form, g)
	label := "attribute group " + name
	g.uses = cell(s, label, el, func() []*AttributeUse {
		var result []*AttributeUse
		for _, u := range gatherAttributes(g.declared, g.refs, nil).uses {
			if u.Use != UseProhibited {
				result = append(result, u)
			}
		}
		return result
	})
	g.wildcard = cell(s, label, el, func() *Wildcard {
		return gatherAttributes(nil, g.refs, nil).wildcard(g.local)
	})
	return g
}

func (s *Schema) parseNotation(el *xmltree.Element) *Notation {
	form := check(el, grammar.Notation)
	n := &Notation{
		annotated: s.annotate(form),
		name:      xml.Name{Space: s.TargetNS, Local: form.Value("name", "")},
		Public:    form.Value("public", ""),
		System:    form.Value("system", ""),
	}
	_, hasPublic := form.Attr("public")
	_, hasSystem := form.Attr("system")
	if !hasPublic && !hasSystem {
		stop(grammarError(el, "notation %s needs a public or system identifier", n.name.Local))
	}
	return n
}

func parseOccurs(el *xmltree.Element, s string) int {
	if s == "unbounded" {
		return Unbounded
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		stop(grammarError(el, "invalid occurrence bound %q", s))
	}
	return n
}

// occurs returns a particle with the bounds of form and no term.
func occurs(form *grammar.Form) *Particle {
	p := &Particle{node: form.Element, MinOccurs: 1, MaxOccurs: 1}
	if v, ok := form.Attr("minOccurs"); ok {
		p.MinOccurs = parseOccurs(form.Element, v)
	}
	if v, ok := form.Attr("maxOccurs"); ok {
		p.MaxOccurs = parseOccurs(form.Element, v)
	}
	if p.MaxOccurs != Unbounded && p.MinOccurs > p.MaxOccurs {
		stop(grammarError(form.Element, "minOccurs %d is greater than maxOccurs %d", p.MinOccurs, p.MaxOccurs))
	}
	return p
}

var compositors = map[string]struct {
	rule       grammar.Rule
	compositor Compositor
}{
	"sequence": {grammar.Sequence, CompositorSequence},
	"choice":   {grammar.Choice, CompositorChoice},
	"all":      {grammar.All, CompositorAll},
}

// parseParticle builds the particle of an element, group reference,
// model group or wildcard inside a content model. Local declarations
// are scoped to parent.
func (s *Schema) parseParticle(el *xmltree.Element, parent Component) *Particle {
	switch el.Name.Local {
	case "element":
		return s.parseElementParticle(el, parent)
	case "group":
		return s.parseGroupRef(el)
	case "any":
		form := check(el, grammar.Any)
		p := occurs(form)
		p.term = lazy.Of[Term](s.parseWildcard(form))
		return p
	}
	c := compositors[el.Name.Local]
	form := check(el, c.rule)
	p := occurs(form)
	if c.compositor == CompositorAll && p.MaxOccurs != 1 {
		stop(grammarError(el, "maxOccurs of an all group must be 1"))
	}
	p.term = lazy.Of[Term](s.parseModelGroup(form, c.compositor, parent))
	return p
}

func (s *Schema) parseModelGroup(form *grammar.Form, compositor Compositor, parent Component) *ModelGroup {
	mg := &ModelGroup{annotated: s.annotate(form), Compositor: compositor}
	for _, c := range form.Children("element", "group", "choice", "sequence", "any") {
		mg.Particles = append(mg.Particles, s.parseParticle(c, parent))
	}
	return mg
}

func (s *Schema) parseElementParticle(el *xmltree.Element, parent Component) *Particle {
	form := check(el, grammar.LocalElement)
	p := occurs(form)
	ref, ok := form.Attr("ref")
	if !ok {
		if _, named := form.Attr("name"); !named {
			stop(grammarError(el, "local element needs a name or a ref"))
		}
		p.term = lazy.Of[Term](s.parseElement(el, parent))
		return p
	}
	for _, a := range []string{"name", "type", "nillable", "default", "fixed", "form", "block", "targetNamespace"} {
		if _, has := form.Attr(a); has {
			stop(grammarError(el, "%s is not allowed on an element reference", a))
		}
	}
	if form.Child("simpleType", "complexType", "alternative", "unique", "key", "keyref") != nil {
		stop(grammarError(el, "an element reference cannot have an anonymous type, alternatives or identity constraints"))
	}
	target := lookup[*Element](s, KindElement, qname(el, ref), el)
	p.term = cell(s, "element "+ref, el, func() Term { return must(target) })
	return p
}

func (s *Schema) parseGroupRef(el *xmltree.Element) *Particle {
	form := check(el, grammar.GroupRef)
	p := occurs(form)
	ref := form.Value("ref", "")
	g := lookup[*Group](s, KindGroup, qname(el, ref), el)
	p.group = cell(s, "group "+ref, el, func() *Group { return must(g) })
	p.term = cell(s, "group "+ref, el, func() Term {
		mg := must(p.group).model
		if mg.Compositor == CompositorAll && p.MaxOccurs != 1 {
			stop(grammarError(el, "maxOccurs of a reference to an all group must be 1"))
		}
		return mg
	})
	return p
}

func (s *Schema) parseGroupDef(el *xmltree.Element) *Group {
	form := check(el, grammar.GroupDef)
	name := form.Value("name", "")
	g := &Group{annotated: s.annotate(form), name: xml.Name{Space: s.TargetNS, Local: name}}
	model := form.Child("all", "choice", "sequence")
	c := compositors[model.Name.Local]
	mf := check(model, c.rule)
	for _, a := range []string{"minOccurs", "maxOccurs"} {
		if _, ok := mf.Attr(a); ok {
			stop(grammarError(model, "%s is not allowed on the model group of a group definition", a))
		}
	}
	g.model = s.parseModelGroup(mf, c.compositor, g)
	cell(s, "group "+name, el, func() struct{} {
		checkGroupCycle(g)
		return struct{}{}
	})
	return g
}

// checkGroupCycle stops if g refers to itself through group references,
// at any depth. Cycles through element declarations are allowed.
func checkGroupCycle(g *Group) {
	visited := make(map[*Group]bool)
	var visit func(mg *ModelGroup)
	visit = func(mg *ModelGroup) {
		for _, p := range mg.Particles {
			if p.group != nil {
				target := must(p.group)
				if target == g {
					stop(&CyclicResolutionError{Site: at(p.node), Label: "group " + g.name.Local})
				}
				if !visited[target] {
					visited[target] = true
					visit(target.model)
				}
				continue
			}
			if inner, ok := must(p.term).(*ModelGroup); ok {
				visit(inner)
			}
		}
	}
	visit(g.model)
}
