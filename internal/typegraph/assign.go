package typegraph

import (
	"math"

	"github.com/mark3labs/hto/internal/typeinfo"
)

type typePair struct {
	src, dst *Type
}

// assignable implements structural assignability. A pair that is already
// being compared further up the stack is assumed to hold, which terminates
// recursive types.
func assignable(src, dst *Type, seen map[typePair]bool) bool {
	src, dst = src.resolve(), dst.resolve()
	if src == dst {
		return true
	}
	if seen == nil {
		seen = map[typePair]bool{}
	}
	key := typePair{src, dst}
	if seen[key] {
		return true
	}
	seen[key] = true
	defer delete(seen, key)

	switch dst.kind {
	case typeinfo.KindAny, typeinfo.KindUnknown:
		return true
	}
	switch src.kind {
	case typeinfo.KindNever, typeinfo.KindAny:
		return true
	case typeinfo.KindUnion:
		for _, m := range src.flatMembers() {
			if !assignable(m, dst, seen) {
				return false
			}
		}
		return true
	}
	if dst.kind == typeinfo.KindUnion {
		for _, m := range dst.flatMembers() {
			if assignable(src, m, seen) {
				return true
			}
		}
		return false
	}
	if dst.kind == typeinfo.KindIntersection {
		for _, m := range dst.flatMembers() {
			if !assignable(src, m, seen) {
				return false
			}
		}
		return true
	}
	if src.kind == typeinfo.KindIntersection && dst.kind != typeinfo.KindObject {
		for _, m := range src.flatMembers() {
			if assignable(m, dst, seen) {
				return true
			}
		}
		return false
	}

	switch dst.kind {
	case typeinfo.KindString:
		if src.kind == typeinfo.KindString {
			return true
		}
		_, ok := src.literal.(string)
		return src.kind == typeinfo.KindLiteral && ok
	case typeinfo.KindNumber:
		if src.kind == typeinfo.KindNumber || src.kind == typeinfo.KindInteger {
			return true
		}
		_, ok := src.literal.(float64)
		return src.kind == typeinfo.KindLiteral && ok
	case typeinfo.KindInteger:
		if src.kind == typeinfo.KindInteger {
			return true
		}
		n, ok := src.literal.(float64)
		return src.kind == typeinfo.KindLiteral && ok && n == math.Trunc(n)
	case typeinfo.KindBoolean:
		if src.kind == typeinfo.KindBoolean {
			return true
		}
		_, ok := src.literal.(bool)
		return src.kind == typeinfo.KindLiteral && ok
	case typeinfo.KindLiteral:
		return src.kind == typeinfo.KindLiteral && src.literal == dst.literal
	case typeinfo.KindNull:
		return src.kind == typeinfo.KindNull
	case typeinfo.KindUndefined:
		return src.kind == typeinfo.KindUndefined
	case typeinfo.KindVoid:
		return src.kind == typeinfo.KindVoid || src.kind == typeinfo.KindUndefined
	case typeinfo.KindNever:
		return false
	case typeinfo.KindArray:
		return src.kind == typeinfo.KindArray && assignable(src.elem, dst.elem, seen)
	case typeinfo.KindObject:
		return objectAssignable(src, dst, seen)
	}
	return false
}

func objectAssignable(src, dst *Type, seen map[typePair]bool) bool {
	switch src.kind {
	case typeinfo.KindObject, typeinfo.KindIntersection:
	case typeinfo.KindArray:
		// arrays satisfy the bare object type only
		return len(dst.props) == 0 && len(dst.index) == 0
	default:
		return false
	}
	srcProps := src.apparent()
	for _, want := range dst.props {
		have, ok := findProperty(srcProps, want.name)
		if !ok {
			if want.optional {
				continue
			}
			return false
		}
		if have.optional && !want.optional {
			return false
		}
		if !assignable(have.typ, want.typ, seen) {
			return false
		}
	}
	for _, sig := range dst.index {
		for _, p := range srcProps {
			if !assignable(p.typ, sig.value, seen) {
				return false
			}
		}
	}
	return true
}
