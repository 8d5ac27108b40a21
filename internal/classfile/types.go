package classfile

// Access flags for classes and members.
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020
	AccSynchronized uint16 = 0x0020
	AccVolatile     uint16 = 0x0040
	AccBridge       uint16 = 0x0040
	AccTransient    uint16 = 0x0080
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
	AccModule       uint16 = 0x8000
)

// MemberKind distinguishes fields from methods in a RawMember.
type MemberKind uint8

const (
	FieldMember MemberKind = iota + 1
	MethodMember
)

func (k MemberKind) String() string {
	switch k {
	case FieldMember:
		return "field"
	case MethodMember:
		return "method"
	default:
		return "unknown"
	}
}

// RawClass is the unresolved descriptor of one class unit. All type names are
// binary names ("com.example.Outer$Inner"), never internal names.
type RawClass struct {
	Unit         string
	Name         string
	Access       uint16
	SuperName    string // empty for java.lang.Object and module-info
	Interfaces   []string
	Fields       []RawMember
	Methods      []RawMember
	Annotations  []RawAnnotation
	Signature    string
	SourceFile   string
	MajorVersion uint16
	MinorVersion uint16
}

// RawMember is a field or method as it appears in the unit, descriptor still unparsed.
type RawMember struct {
	Kind                 MemberKind
	Name                 string
	Descriptor           string
	Access               uint16
	Signature            string
	Annotations          []RawAnnotation
	ParameterAnnotations [][]RawAnnotation
	AnnotationDefault    *RawElementValue
}

// RawAnnotation is one annotation record. Elements keep the order of the unit.
type RawAnnotation struct {
	TypeName string
	Visible  bool
	Elements []RawElement
}

// RawElement is a named element value pair inside a RawAnnotation.
type RawElement struct {
	Name  string
	Value RawElementValue
}

// Element value tags.
const (
	TagByte       byte = 'B'
	TagChar       byte = 'C'
	TagDouble     byte = 'D'
	TagFloat      byte = 'F'
	TagInt        byte = 'I'
	TagLong       byte = 'J'
	TagShort      byte = 'S'
	TagBoolean    byte = 'Z'
	TagString     byte = 's'
	TagEnum       byte = 'e'
	TagClass      byte = 'c'
	TagAnnotation byte = '@'
	TagArray      byte = '['
)

// RawElementValue is the undecoded form of an annotation element value.
// Exactly the fields matching Tag are set:
//
//	B C I S Z  Const is int32
//	J          Const is int64
//	F          Const is float32
//	D          Const is float64
//	s          Const is string
//	e          EnumType, EnumConst
//	c          ClassName
//	@          Nested
//	[          Array
type RawElementValue struct {
	Tag       byte
	Const     any
	EnumType  string
	EnumConst string
	ClassName string
	Nested    *RawAnnotation
	Array     []RawElementValue
}

// IsPrimitiveTag reports whether tag encodes a primitive constant.
func IsPrimitiveTag(tag byte) bool {
	switch tag {
	case TagByte, TagChar, TagDouble, TagFloat, TagInt, TagLong, TagShort, TagBoolean:
		return true
	}
	return false
}
