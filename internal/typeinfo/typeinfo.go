// Package typeinfo defines the read-only capability surface the analyzer needs
// from a type-introspection oracle. Concrete oracles adapt their own type
// system to TypeDescriptor; the analyzer never sees anything else.
package typeinfo

// Kind identifies the structural category of a type descriptor.
type Kind int

const (
	KindAny Kind = iota
	KindUnknown
	KindNever
	KindVoid
	KindNull
	KindUndefined
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindLiteral
	KindObject
	KindArray
	KindUnion
	KindIntersection
)

// String returns the keyword used for the kind in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindUnknown:
		return "unknown"
	case KindNever:
		return "never"
	case KindVoid:
		return "void"
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindLiteral:
		return "literal"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	default:
		return "invalid"
	}
}

// Property is one apparent property of a type.
//
// Type is the property's own type as the oracle reports it. For optional
// properties this already includes undefined.
type Property struct {
	Name     string
	Type     TypeDescriptor
	Optional bool
}

// IndexSignature describes a `[key: K]: V` member of an object type.
type IndexSignature struct {
	Key   TypeDescriptor
	Value TypeDescriptor
}

// TypeDescriptor is an opaque, fully resolved handle into the oracle.
// Implementations must be safe to query repeatedly and must never change
// the answers they give during an analysis pass.
type TypeDescriptor interface {
	Kind() Kind

	// Name is the declared name of the type, or "" for anonymous types.
	Name() string

	IsUnion() bool
	// Members returns union or intersection members; nil otherwise.
	Members() []TypeDescriptor

	IsArray() bool
	// ElementType returns the array element; nil when IsArray is false.
	ElementType() TypeDescriptor

	IsStringAssignable() bool
	AssignableTo(target TypeDescriptor) bool

	// Literal returns the value of a string, number or boolean literal type
	// as string, float64 or bool.
	Literal() (any, bool)

	Properties() []Property
	PropertyType(name string) (TypeDescriptor, bool)
	IndexSignatures() []IndexSignature

	// String renders the type the way a user would write it.
	String() string
}

// Program is a resolved oracle. Lookup returns a declared type by name.
type Program interface {
	Lookup(name string) (TypeDescriptor, bool)
	Source() string
}

// StringLiteral reports the value of t when it is a string literal type.
func StringLiteral(t TypeDescriptor) (string, bool) {
	if t == nil || t.Kind() != KindLiteral {
		return "", false
	}
	v, ok := t.Literal()
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// NumberLiteral reports the value of t when it is a number literal type.
func NumberLiteral(t TypeDescriptor) (float64, bool) {
	if t == nil || t.Kind() != KindLiteral {
		return 0, false
	}
	v, ok := t.Literal()
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}
