package analyzer

import "github.com/mark3labs/hto/internal/typeinfo"

// Canonical is a parameter type after optional and array encodings have been
// resolved.
type Canonical struct {
	Type    typeinfo.TypeDescriptor
	IsArray bool
}

// Canonicalize resolves the union shapes used to declare optional and
// repeatable parameters:
//
//	T | undefined          => T
//	T[] | T                => T[] (array)
//	T[] | T | undefined    => T[] (array)
//
// Any other shape is returned unchanged.
func Canonicalize(t typeinfo.TypeDescriptor) Canonical {
	unchanged := Canonical{Type: t}
	if t == nil || !t.IsUnion() {
		return unchanged
	}
	members := t.Members()
	switch len(members) {
	case 2:
		if isUndefined(members[0]) {
			return Canonical{Type: members[1]}
		}
		if isUndefined(members[1]) {
			return Canonical{Type: members[0]}
		}
		return arrayPair(t, members[0], members[1])
	case 3:
		var rest []typeinfo.TypeDescriptor
		for _, m := range members {
			if !isUndefined(m) {
				rest = append(rest, m)
			}
		}
		if len(rest) != 2 {
			return unchanged
		}
		return arrayPair(t, rest[0], rest[1])
	}
	return unchanged
}

// arrayPair collapses {E[], E} into E[] when both element candidates are
// mutually assignable.
func arrayPair(orig, a, b typeinfo.TypeDescriptor) Canonical {
	arr, other := a, b
	if !arr.IsArray() {
		arr, other = b, a
	}
	if !arr.IsArray() {
		return Canonical{Type: orig}
	}
	elem := arr.ElementType()
	if elem == nil || !elem.AssignableTo(other) || !other.AssignableTo(elem) {
		return Canonical{Type: orig}
	}
	return Canonical{Type: arr, IsArray: true}
}

func isUndefined(t typeinfo.TypeDescriptor) bool {
	return t != nil && t.Kind() == typeinfo.KindUndefined
}

// isSupported reports whether t can be rendered as a schema on its own.
func isSupported(t typeinfo.TypeDescriptor) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case typeinfo.KindNever, typeinfo.KindUndefined, typeinfo.KindNull:
		return false
	}
	return true
}
