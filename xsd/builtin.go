package xsd

import (
	"encoding/xml"
	"fmt"

	"github.com/CognitoIQ/go-xsd/internal/lazy"
)

// A Builtin is one of the built-in types of the XML Schema namespace, as
// defined in "XML Schema Definition Language (XSD) 1.1 Part 2: Datatypes".
//
// https://www.w3.org/TR/xmlschema11-2/#built-in-datatypes
type Builtin int

const (
	AnyType Builtin = iota
	AnySimpleType
	AnyAtomicType

	// primitive types
	String
	Boolean
	Decimal
	Float
	Double
	Duration
	DateTime
	Time
	Date
	GYearMonth
	GYear
	GMonthDay
	GDay
	GMonth
	HexBinary
	Base64Binary
	AnyURI
	QName
	NOTATION

	// derived types
	NormalizedString
	Token
	Language
	NMTOKEN
	NMTOKENS
	Name
	NCName
	ID
	IDREF
	IDREFS
	ENTITY
	ENTITIES
	Integer
	NonPositiveInteger
	NegativeInteger
	Long
	Int
	Short
	Byte
	NonNegativeInteger
	UnsignedLong
	UnsignedInt
	UnsignedShort
	UnsignedByte
	PositiveInteger
	YearMonthDuration
	DayTimeDuration
	DateTimeStamp

	numBuiltins
)

var builtinNames = [numBuiltins]string{
	"anyType", "anySimpleType", "anyAtomicType",
	"string", "boolean", "decimal", "float", "double", "duration",
	"dateTime", "time", "date", "gYearMonth", "gYear", "gMonthDay",
	"gDay", "gMonth", "hexBinary", "base64Binary", "anyURI", "QName",
	"NOTATION",
	"normalizedString", "token", "language", "NMTOKEN", "NMTOKENS",
	"Name", "NCName", "ID", "IDREF", "IDREFS", "ENTITY", "ENTITIES",
	"integer", "nonPositiveInteger", "negativeInteger", "long", "int",
	"short", "byte", "nonNegativeInteger", "unsignedLong", "unsignedInt",
	"unsignedShort", "unsignedByte", "positiveInteger",
	"yearMonthDuration", "dayTimeDuration", "dateTimeStamp",
}

func (b Builtin) String() string {
	if b < 0 || b >= numBuiltins {
		return fmt.Sprintf("Builtin(%d)", int(b))
	}
	return builtinNames[b]
}

// Name returns the canonical name of the built-in type. All built-in
// types are in the XML Schema namespace,
// http://www.w3.org/2001/XMLSchema.
func (b Builtin) Name() xml.Name {
	return xml.Name{Space: schemaNS, Local: b.String()}
}

// Primitive reports whether b is one of the 19 primitive types.
func (b Builtin) Primitive() bool { return b >= String && b <= NOTATION }

// Type returns the component for the built-in type: a *ComplexType for
// AnyType and a *SimpleType for everything else.
func (b Builtin) Type() Type {
	if b == AnyType {
		return anyType
	}
	return builtinTypes[b]
}

// ParseBuiltin looks up a Builtin by name. If qname
// does not name a built-in type, ParseBuiltin returns
// a non-nil error.
func ParseBuiltin(qname xml.Name) (Builtin, error) {
	if qname.Space == schemaNS {
		for i := AnyType; i < numBuiltins; i++ {
			if builtinNames[i] == qname.Local {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("xsd:%s is not a built-in", qname.Local)
}

var (
	anyType      *ComplexType
	builtinTypes [numBuiltins]*SimpleType
)

var (
	stringFacets = []FacetKind{FacetLength, FacetMinLength, FacetMaxLength,
		FacetPattern, FacetEnumeration, FacetWhiteSpace, FacetAssertions}
	orderedFacets = []FacetKind{FacetPattern, FacetEnumeration, FacetWhiteSpace,
		FacetMaxInclusive, FacetMaxExclusive, FacetMinInclusive, FacetMinExclusive,
		FacetAssertions}
	temporalFacets = append(append([]FacetKind(nil), orderedFacets...), FacetExplicitTimezone)
	decimalFacets  = append([]FacetKind{FacetTotalDigits, FacetFractionDigits}, orderedFacets...)
	booleanFacets  = []FacetKind{FacetPattern, FacetWhiteSpace, FacetAssertions}
	listFacetKinds = []FacetKind{FacetLength, FacetMinLength, FacetMaxLength,
		FacetPattern, FacetEnumeration, FacetWhiteSpace, FacetAssertions}
	unionFacetKinds = []FacetKind{FacetPattern, FacetEnumeration, FacetAssertions}
)

type primitiveDef struct {
	facets      []FacetKind
	whiteSpace  string
	fundamental FundamentalFacets
}

var primitives = map[Builtin]primitiveDef{
	String:       {stringFacets, "preserve", FundamentalFacets{}},
	Boolean:      {booleanFacets, "collapse", FundamentalFacets{Finite: true}},
	Decimal:      {decimalFacets, "collapse", FundamentalFacets{Ordered: OrderedTotal, Numeric: true}},
	Float:        {orderedFacets, "collapse", FundamentalFacets{OrderedPartial, true, true, true}},
	Double:       {orderedFacets, "collapse", FundamentalFacets{OrderedPartial, true, true, true}},
	Duration:     {orderedFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	DateTime:     {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	Time:         {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	Date:         {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	GYearMonth:   {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	GYear:        {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	GMonthDay:    {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	GDay:         {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	GMonth:       {temporalFacets, "collapse", FundamentalFacets{Ordered: OrderedPartial}},
	HexBinary:    {stringFacets, "collapse", FundamentalFacets{}},
	Base64Binary: {stringFacets, "collapse", FundamentalFacets{}},
	AnyURI:       {stringFacets, "collapse", FundamentalFacets{}},
	QName:        {stringFacets, "collapse", FundamentalFacets{}},
	NOTATION:     {stringFacets, "collapse", FundamentalFacets{}},
}

type derivedDef struct {
	base   Builtin
	item   Builtin
	facets []*Facet
}

func declare(kind FacetKind, value string) *Facet {
	f := &Facet{Kind: kind, Value: value}
	if kind == FacetPattern {
		f.Values = []string{value}
	}
	return f
}

func fixed(kind FacetKind, value string) *Facet {
	f := declare(kind, value)
	f.Fixed = true
	return f
}

func bounds(min, max string) []*Facet {
	return []*Facet{declare(FacetMinInclusive, min), declare(FacetMaxInclusive, max)}
}

var derived = map[Builtin]derivedDef{
	NormalizedString:   {base: String, facets: []*Facet{declare(FacetWhiteSpace, "replace")}},
	Token:              {base: NormalizedString, facets: []*Facet{declare(FacetWhiteSpace, "collapse")}},
	Language:           {base: Token, facets: []*Facet{declare(FacetPattern, `[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*`)}},
	NMTOKEN:            {base: Token, facets: []*Facet{declare(FacetPattern, `\c+`)}},
	NMTOKENS:           {item: NMTOKEN, facets: []*Facet{declare(FacetMinLength, "1")}},
	Name:               {base: Token, facets: []*Facet{declare(FacetPattern, `\i\c*`)}},
	NCName:             {base: Name, facets: []*Facet{declare(FacetPattern, `[\i-[:]][\c-[:]]*`)}},
	ID:                 {base: NCName},
	IDREF:              {base: NCName},
	IDREFS:             {item: IDREF, facets: []*Facet{declare(FacetMinLength, "1")}},
	ENTITY:             {base: NCName},
	ENTITIES:           {item: ENTITY, facets: []*Facet{declare(FacetMinLength, "1")}},
	Integer:            {base: Decimal, facets: []*Facet{fixed(FacetFractionDigits, "0"), declare(FacetPattern, `[\-+]?[0-9]+`)}},
	NonPositiveInteger: {base: Integer, facets: []*Facet{declare(FacetMaxInclusive, "0")}},
	NegativeInteger:    {base: NonPositiveInteger, facets: []*Facet{declare(FacetMaxInclusive, "-1")}},
	Long:               {base: Integer, facets: bounds("-9223372036854775808", "9223372036854775807")},
	Int:                {base: Long, facets: bounds("-2147483648", "2147483647")},
	Short:              {base: Int, facets: bounds("-32768", "32767")},
	Byte:               {base: Short, facets: bounds("-128", "127")},
	NonNegativeInteger: {base: Integer, facets: []*Facet{declare(FacetMinInclusive, "0")}},
	UnsignedLong:       {base: NonNegativeInteger, facets: []*Facet{declare(FacetMaxInclusive, "18446744073709551615")}},
	UnsignedInt:        {base: UnsignedLong, facets: []*Facet{declare(FacetMaxInclusive, "4294967295")}},
	UnsignedShort:      {base: UnsignedInt, facets: []*Facet{declare(FacetMaxInclusive, "65535")}},
	UnsignedByte:       {base: UnsignedShort, facets: []*Facet{declare(FacetMaxInclusive, "255")}},
	PositiveInteger:    {base: NonNegativeInteger, facets: []*Facet{declare(FacetMinInclusive, "1")}},
	YearMonthDuration:  {base: Duration, facets: []*Facet{declare(FacetPattern, `[^DT]*`)}},
	DayTimeDuration:    {base: Duration, facets: []*Facet{declare(FacetPattern, `[^YM]*(T.*)?`)}},
	DateTimeStamp:      {base: DateTime, facets: []*Facet{fixed(FacetExplicitTimezone, "required")}},
}

// listFacets is the facet set of a list type before restriction.
func listFacets() Facets {
	fs := markers(listFacetKinds...)
	for i, f := range fs {
		if f.Kind == FacetWhiteSpace {
			fs[i] = &Facet{Kind: FacetWhiteSpace, Value: "collapse", Fixed: true}
		}
	}
	return fs
}

func newBuiltinSimple(b Builtin, base Type, variety Variety) *SimpleType {
	return &SimpleType{
		name:      b.Name(),
		builtin:   b,
		base:      lazy.Of(base),
		variety:   lazy.Of(variety),
		primitive: lazy.Of[*SimpleType](nil),
		itemType:  lazy.Of[*SimpleType](nil),
		members:   lazy.Of[[]*SimpleType](nil),
	}
}

func init() {
	anyWildcard := &Wildcard{ProcessContents: ProcessLax}
	anyType = &ComplexType{
		name:       AnyType.Name(),
		derivation: DerivationRestriction,
		base:       lazy.Of[Type](nil),
		content: lazy.Of(&ContentType{
			Variety: ContentMixed,
			Particle: &Particle{
				MinOccurs: 1,
				MaxOccurs: 1,
				term: lazy.Of[Term](&ModelGroup{
					Compositor: CompositorSequence,
					Particles: []*Particle{{
						MinOccurs: 0,
						MaxOccurs: Unbounded,
						term:      lazy.Of[Term](anyWildcard),
					}},
				}),
			},
		}),
		uses:       lazy.Of[[]*AttributeUse](nil),
		wildcard:   lazy.Of(anyWildcard),
		assertions: lazy.Of[[]*Assertion](nil),
	}

	anySimple := newBuiltinSimple(AnySimpleType, anyType, VarietyAbsent)
	anySimple.facets = lazy.Of[Facets](nil)
	anySimple.fundamental = lazy.Of(FundamentalFacets{})
	builtinTypes[AnySimpleType] = anySimple

	anyAtomic := newBuiltinSimple(AnyAtomicType, anySimple, VarietyAtomic)
	anyAtomic.facets = lazy.Of[Facets](nil)
	anyAtomic.fundamental = lazy.Of(FundamentalFacets{})
	builtinTypes[AnyAtomicType] = anyAtomic

	for b := String; b <= NOTATION; b++ {
		def := primitives[b]
		t := newBuiltinSimple(b, anyAtomic, VarietyAtomic)
		fs := markers(def.facets...)
		for i, f := range fs {
			if f.Kind == FacetWhiteSpace {
				fs[i] = &Facet{Kind: FacetWhiteSpace, Value: def.whiteSpace, Fixed: b != String}
			}
		}
		t.primitive = lazy.Of(t)
		t.facets = lazy.Of(fs)
		t.fundamental = lazy.Of(def.fundamental)
		builtinTypes[b] = t
	}

	for b := NormalizedString; b < numBuiltins; b++ {
		def := derived[b]
		var t *SimpleType
		var base Facets
		if item := builtinTypes[def.item]; def.item != AnyType {
			t = newBuiltinSimple(b, anySimple, VarietyList)
			t.itemType = lazy.Of(item)
			base = listFacets()
		} else {
			parent := builtinTypes[def.base]
			t = newBuiltinSimple(b, parent, VarietyAtomic)
			t.primitive = parent.primitive
			base = parent.Facets()
		}
		fs, err := combineFacets(base, def.facets, t.BaseType().Name(), nil)
		if err != nil {
			panic(fmt.Sprintf("xsd: built-in %s: %v", b, err))
		}
		t.facets = lazy.Of(fs)
		t.fundamental = lazy.Of(fundamentalFacets(t.Variety(), t.Primitive(), t.ItemType(), nil, fs))
		builtinTypes[b] = t
	}
}

// fundamentalFacets derives the fundamental facets of a simple type. An
// atomic type shares the order and numeric properties of its primitive
// type; it is bounded when both ends of its value space are limited, and
// finite when it is bounded and integral, or enumerated.
func fundamentalFacets(variety Variety, primitive, item *SimpleType, members []*SimpleType, fs Facets) FundamentalFacets {
	enumerated := false
	if f := fs.Get(FacetEnumeration); f != nil && !f.Marker {
		enumerated = true
	}
	switch variety {
	case VarietyAtomic:
		if primitive == nil {
			return FundamentalFacets{}
		}
		ff := primitive.Fundamental()
		_, minIn := fs.Value(FacetMinInclusive)
		_, minEx := fs.Value(FacetMinExclusive)
		_, maxIn := fs.Value(FacetMaxInclusive)
		_, maxEx := fs.Value(FacetMaxExclusive)
		if (minIn || minEx) && (maxIn || maxEx) {
			ff.Bounded = true
		}
		if digits, ok := fs.Value(FacetFractionDigits); ok && digits == "0" && ff.Bounded {
			ff.Finite = true
		}
		if enumerated {
			ff.Finite = true
		}
		return ff
	case VarietyList:
		ff := FundamentalFacets{}
		_, length := fs.Value(FacetLength)
		_, maxLength := fs.Value(FacetMaxLength)
		if enumerated || (length || maxLength) && item != nil && item.Fundamental().Finite {
			ff.Finite = true
		}
		return ff
	case VarietyUnion:
		ff := FundamentalFacets{Bounded: true, Finite: true, Numeric: true}
		var first *SimpleType
		for _, m := range members {
			mf := m.Fundamental()
			ff.Bounded = ff.Bounded && mf.Bounded
			ff.Finite = ff.Finite && mf.Finite
			ff.Numeric = ff.Numeric && mf.Numeric
			if p := m.Primitive(); first == nil {
				first = p
			} else if p != first {
				ff.Bounded = false
			}
		}
		if len(members) == 0 {
			ff = FundamentalFacets{}
		}
		if enumerated {
			ff.Finite = true
		}
		if ff.Numeric || ff.Bounded {
			ff.Ordered = OrderedPartial
		}
		return ff
	}
	return FundamentalFacets{}
}
