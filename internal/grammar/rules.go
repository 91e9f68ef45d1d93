package grammar

// A Rule names one entry of the shape table. Some elements have more
// than one shape depending on where they appear: a top-level <element>
// must have a name, a local one may use ref and occurrence bounds.
type Rule int

const (
	Schema Rule = iota
	Include
	Import
	Redefine
	Override
	Annotation
	AppInfo
	Documentation
	DefaultOpenContent
	OpenContent

	TopSimpleType
	LocalSimpleType
	SimpleRestriction
	List
	Union

	TopComplexType
	LocalComplexType
	SimpleContent
	ComplexContent
	SimpleContentRestriction
	SimpleContentExtension
	ComplexContentRestriction
	ComplexContentExtension

	GroupDef
	GroupRef
	All
	Choice
	Sequence
	Any
	AnyAttribute

	TopElement
	LocalElement
	TopAttribute
	LocalAttribute
	AttributeGroupDef
	AttributeGroupRef
	Notation

	Unique
	Key
	KeyRef
	Selector
	Field
	Alternative
	Assert

	Length
	MinLength
	MaxLength
	Pattern
	Enumeration
	WhiteSpace
	MaxInclusive
	MaxExclusive
	MinInclusive
	MinExclusive
	TotalDigits
	FractionDigits
	Assertion
	ExplicitTimezone

	numRules
)

// FacetRules maps the local name of each facet element to its rule.
var FacetRules = map[string]Rule{
	"length":           Length,
	"minLength":        MinLength,
	"maxLength":        MaxLength,
	"pattern":          Pattern,
	"enumeration":      Enumeration,
	"whiteSpace":       WhiteSpace,
	"maxInclusive":     MaxInclusive,
	"maxExclusive":     MaxExclusive,
	"minInclusive":     MinInclusive,
	"minExclusive":     MinExclusive,
	"totalDigits":      TotalDigits,
	"fractionDigits":   FractionDigits,
	"assertion":        Assertion,
	"explicitTimezone": ExplicitTimezone,
}

var facetNames = []string{
	"length", "minLength", "maxLength", "pattern", "enumeration",
	"whiteSpace", "maxInclusive", "maxExclusive", "minInclusive",
	"minExclusive", "totalDigits", "fractionDigits", "assertion",
	"explicitTimezone",
}

func one(names ...string) Child      { return Child{Names: names, Min: 1, Max: 1} }
func optional(names ...string) Child { return Child{Names: names, Max: 1} }
func many(names ...string) Child     { return Child{Names: names, Max: Unbounded} }

func required(name string, kind Kind, values ...string) Attr {
	return Attr{Name: name, Required: true, Kind: kind, Values: values}
}

func attr(name string, kind Kind, values ...string) Attr {
	return Attr{Name: name, Kind: kind, Values: values}
}

var (
	id         = attr("id", NCName)
	minOccurs  = attr("minOccurs", NonNegativeInteger)
	maxOccurs  = attr("maxOccurs", MaxOccurs)
	form       = attr("form", Token, "qualified", "unqualified")
	xpathNS    = attr("xpathDefaultNamespace", String)
	annotation = optional("annotation")

	fullDerivation = []string{"extension", "restriction", "list", "union"}
	simpleFinal    = []string{"list", "restriction", "union"}
	complexSet     = []string{"extension", "restriction"}
	blockSet       = []string{"extension", "restriction", "substitution"}

	particles   = []string{"element", "group", "choice", "sequence", "any"}
	attributes  = many("attribute", "attributeGroup")
	contentRefs = optional("group", "all", "choice", "sequence")
)

func facet(name string, value Kind, values ...string) *Shape {
	return &Shape{
		Name:     name,
		Attrs:    []Attr{id, required("value", value, values...), attr("fixed", Boolean)},
		Children: []Child{annotation},
	}
}

func wildcard(name string, occurs bool) *Shape {
	s := &Shape{
		Name: name,
		Attrs: []Attr{
			id,
			attr("namespace", String),
			attr("notNamespace", String),
			attr("notQName", String),
			attr("processContents", Token, "skip", "lax", "strict"),
		},
		Children: []Child{annotation},
	}
	if occurs {
		s.Attrs = append(s.Attrs, minOccurs, maxOccurs)
	}
	return s
}

func identity(name string, keyref bool) *Shape {
	s := &Shape{
		Name:     name,
		Attrs:    []Attr{id, attr("name", NCName), attr("ref", QName)},
		Children: []Child{annotation, optional("selector"), many("field")},
	}
	if keyref {
		s.Attrs = append(s.Attrs, attr("refer", QName))
	}
	return s
}

func complexType(top bool) *Shape {
	s := &Shape{
		Name: "complexType",
		Attrs: []Attr{
			id,
			attr("mixed", Boolean),
			attr("defaultAttributesApply", Boolean),
		},
		Children: []Child{
			annotation,
			optional("simpleContent", "complexContent", "group", "all", "choice", "sequence"),
			optional("openContent"),
			attributes,
			optional("anyAttribute"),
			many("assert"),
		},
	}
	if top {
		s.Attrs = append(s.Attrs,
			required("name", NCName),
			attr("abstract", Boolean),
			attr("block", Set, complexSet...),
			attr("final", Set, complexSet...))
	}
	return s
}

func element(top bool) *Shape {
	s := &Shape{
		Name: "element",
		Attrs: []Attr{
			id,
			attr("type", QName),
			attr("default", String),
			attr("fixed", String),
			attr("nillable", Boolean),
			attr("block", Set, blockSet...),
		},
		Children: []Child{
			annotation,
			optional("simpleType", "complexType"),
			many("alternative"),
			many("unique", "key", "keyref"),
		},
	}
	if top {
		s.Attrs = append(s.Attrs,
			required("name", NCName),
			attr("substitutionGroup", QNameList),
			attr("abstract", Boolean),
			attr("final", Set, complexSet...))
	} else {
		s.Attrs = append(s.Attrs,
			attr("name", NCName),
			attr("ref", QName),
			minOccurs, maxOccurs, form,
			attr("targetNamespace", AnyURI))
	}
	return s
}

func attribute(top bool) *Shape {
	s := &Shape{
		Name: "attribute",
		Attrs: []Attr{
			id,
			attr("type", QName),
			attr("default", String),
			attr("fixed", String),
			attr("inheritable", Boolean),
		},
		Children: []Child{annotation, optional("simpleType")},
	}
	if top {
		s.Attrs = append(s.Attrs, required("name", NCName))
	} else {
		s.Attrs = append(s.Attrs,
			attr("name", NCName),
			attr("ref", QName),
			attr("use", Token, "optional", "prohibited", "required"),
			form,
			attr("targetNamespace", AnyURI))
	}
	return s
}

func group(name string, particles ...string) *Shape {
	return &Shape{
		Name:     name,
		Attrs:    []Attr{id, minOccurs, maxOccurs},
		Children: []Child{annotation, many(particles...)},
	}
}

var shapes = [numRules]*Shape{
	Schema: {
		Name: "schema",
		Attrs: []Attr{
			id,
			attr("targetNamespace", AnyURI),
			attr("version", String),
			attr("finalDefault", Set, fullDerivation...),
			attr("blockDefault", Set, blockSet...),
			attr("attributeFormDefault", Token, "qualified", "unqualified"),
			attr("elementFormDefault", Token, "qualified", "unqualified"),
			attr("defaultAttributes", QName),
			xpathNS,
		},
		Children: []Child{
			many("include", "import", "redefine", "override"),
			optional("defaultOpenContent"),
			many("simpleType", "complexType", "group", "attributeGroup",
				"element", "attribute", "notation", "annotation"),
		},
	},
	Include: {
		Name:     "include",
		Attrs:    []Attr{id, required("schemaLocation", AnyURI)},
		Children: []Child{annotation},
	},
	Import: {
		Name:     "import",
		Attrs:    []Attr{id, attr("namespace", AnyURI), attr("schemaLocation", AnyURI)},
		Children: []Child{annotation},
	},
	Redefine: {
		Name:     "redefine",
		Attrs:    []Attr{id, required("schemaLocation", AnyURI)},
		Children: []Child{many("annotation", "simpleType", "complexType", "group", "attributeGroup")},
	},
	Override: {
		Name:  "override",
		Attrs: []Attr{id, required("schemaLocation", AnyURI)},
		Children: []Child{many("annotation", "simpleType", "complexType", "group",
			"attributeGroup", "element", "attribute", "notation")},
	},
	Annotation: {
		Name:     "annotation",
		Attrs:    []Attr{id},
		Children: []Child{many("appinfo", "documentation")},
	},
	AppInfo:       {Name: "appinfo", Attrs: []Attr{attr("source", AnyURI)}, Open: true},
	Documentation: {Name: "documentation", Attrs: []Attr{attr("source", AnyURI)}, Open: true},
	DefaultOpenContent: {
		Name: "defaultOpenContent",
		Attrs: []Attr{
			id,
			attr("appliesToEmpty", Boolean),
			attr("mode", Token, "interleave", "suffix"),
		},
		Children: []Child{annotation, one("any")},
	},
	OpenContent: {
		Name:     "openContent",
		Attrs:    []Attr{id, attr("mode", Token, "none", "interleave", "suffix")},
		Children: []Child{annotation, optional("any")},
	},

	TopSimpleType: {
		Name:     "simpleType",
		Attrs:    []Attr{id, required("name", NCName), attr("final", Set, simpleFinal...)},
		Children: []Child{annotation, one("restriction", "list", "union")},
	},
	LocalSimpleType: {
		Name:     "simpleType",
		Attrs:    []Attr{id},
		Children: []Child{annotation, one("restriction", "list", "union")},
	},
	SimpleRestriction: {
		Name:     "restriction",
		Attrs:    []Attr{id, attr("base", QName)},
		Children: []Child{annotation, optional("simpleType"), many(facetNames...)},
	},
	List: {
		Name:     "list",
		Attrs:    []Attr{id, attr("itemType", QName)},
		Children: []Child{annotation, optional("simpleType")},
	},
	Union: {
		Name:     "union",
		Attrs:    []Attr{id, attr("memberTypes", QNameList)},
		Children: []Child{annotation, many("simpleType")},
	},

	TopComplexType:   complexType(true),
	LocalComplexType: complexType(false),
	SimpleContent: {
		Name:     "simpleContent",
		Attrs:    []Attr{id},
		Children: []Child{annotation, one("restriction", "extension")},
	},
	ComplexContent: {
		Name:     "complexContent",
		Attrs:    []Attr{id, attr("mixed", Boolean)},
		Children: []Child{annotation, one("restriction", "extension")},
	},
	SimpleContentRestriction: {
		Name:  "restriction",
		Attrs: []Attr{id, required("base", QName)},
		Children: []Child{annotation, optional("simpleType"), many(facetNames...),
			attributes, optional("anyAttribute"), many("assert")},
	},
	SimpleContentExtension: {
		Name:     "extension",
		Attrs:    []Attr{id, required("base", QName)},
		Children: []Child{annotation, attributes, optional("anyAttribute"), many("assert")},
	},
	ComplexContentRestriction: {
		Name:  "restriction",
		Attrs: []Attr{id, required("base", QName)},
		Children: []Child{annotation, optional("openContent"), contentRefs,
			attributes, optional("anyAttribute"), many("assert")},
	},
	ComplexContentExtension: {
		Name:  "extension",
		Attrs: []Attr{id, required("base", QName)},
		Children: []Child{annotation, optional("openContent"), contentRefs,
			attributes, optional("anyAttribute"), many("assert")},
	},

	GroupDef: {
		Name:     "group",
		Attrs:    []Attr{id, required("name", NCName)},
		Children: []Child{annotation, one("all", "choice", "sequence")},
	},
	GroupRef: {
		Name:     "group",
		Attrs:    []Attr{id, required("ref", QName), minOccurs, maxOccurs},
		Children: []Child{annotation},
	},
	All:          group("all", "element", "any", "group"),
	Choice:       group("choice", particles...),
	Sequence:     group("sequence", particles...),
	Any:          wildcard("any", true),
	AnyAttribute: wildcard("anyAttribute", false),

	TopElement:     element(true),
	LocalElement:   element(false),
	TopAttribute:   attribute(true),
	LocalAttribute: attribute(false),
	AttributeGroupDef: {
		Name:     "attributeGroup",
		Attrs:    []Attr{id, required("name", NCName)},
		Children: []Child{annotation, attributes, optional("anyAttribute")},
	},
	AttributeGroupRef: {
		Name:     "attributeGroup",
		Attrs:    []Attr{id, required("ref", QName)},
		Children: []Child{annotation},
	},
	Notation: {
		Name: "notation",
		Attrs: []Attr{id, required("name", NCName),
			attr("public", String), attr("system", AnyURI)},
		Children: []Child{annotation},
	},

	Unique: identity("unique", false),
	Key:    identity("key", false),
	KeyRef: identity("keyref", true),
	Selector: {
		Name:     "selector",
		Attrs:    []Attr{id, required("xpath", String), xpathNS},
		Children: []Child{annotation},
	},
	Field: {
		Name:     "field",
		Attrs:    []Attr{id, required("xpath", String), xpathNS},
		Children: []Child{annotation},
	},
	Alternative: {
		Name:     "alternative",
		Attrs:    []Attr{id, attr("test", String), attr("type", QName), xpathNS},
		Children: []Child{annotation, optional("simpleType", "complexType")},
	},
	Assert: {
		Name:     "assert",
		Attrs:    []Attr{id, required("test", String), xpathNS},
		Children: []Child{annotation},
	},

	Length:         facet("length", NonNegativeInteger),
	MinLength:      facet("minLength", NonNegativeInteger),
	MaxLength:      facet("maxLength", NonNegativeInteger),
	WhiteSpace:     facet("whiteSpace", Token, "preserve", "replace", "collapse"),
	MaxInclusive:   facet("maxInclusive", String),
	MaxExclusive:   facet("maxExclusive", String),
	MinInclusive:   facet("minInclusive", String),
	MinExclusive:   facet("minExclusive", String),
	TotalDigits:    facet("totalDigits", PositiveInteger),
	FractionDigits: facet("fractionDigits", NonNegativeInteger),
	ExplicitTimezone: facet("explicitTimezone", Token,
		"optional", "required", "prohibited"),
	Pattern: {
		Name:     "pattern",
		Attrs:    []Attr{id, required("value", String)},
		Children: []Child{annotation},
	},
	Enumeration: {
		Name:     "enumeration",
		Attrs:    []Attr{id, required("value", String)},
		Children: []Child{annotation},
	},
	Assertion: {
		Name:     "assertion",
		Attrs:    []Attr{id, required("test", String), xpathNS},
		Children: []Child{annotation},
	},
}

// Lookup returns the shape of rule, for diagnostics and tests.
func Lookup(rule Rule) *Shape {
	if rule < 0 || rule >= numRules {
		return nil
	}
	return shapes[rule]
}
