package typegraph

import (
	"strconv"
	"strings"

	"github.com/mark3labs/hto/internal/typeinfo"
)

// Type is the typegraph implementation of typeinfo.TypeDescriptor.
//
// Declared names are allocated before their bodies are parsed so that
// recursive and forward references resolve to the same *Type. A declaration
// that is a bare reference to another declaration is stored as an alias and
// followed on every query.
type Type struct {
	kind    typeinfo.Kind
	name    string
	literal any
	members []*Type
	elem    *Type
	props   []property
	index   []indexSignature
	alias   *Type
}

type property struct {
	name     string
	typ      *Type
	optional bool
}

type indexSignature struct {
	key   *Type
	value *Type
}

var (
	undefinedType = &Type{kind: typeinfo.KindUndefined}
	stringType    = &Type{kind: typeinfo.KindString}
)

var _ typeinfo.TypeDescriptor = (*Type)(nil)

func (t *Type) resolve() *Type {
	for t.alias != nil {
		t = t.alias
	}
	return t
}

func (t *Type) Kind() typeinfo.Kind { return t.resolve().kind }

func (t *Type) Name() string { return t.resolve().name }

func (t *Type) IsUnion() bool { return t.resolve().kind == typeinfo.KindUnion }

func (t *Type) IsArray() bool { return t.resolve().kind == typeinfo.KindArray }

func (t *Type) ElementType() typeinfo.TypeDescriptor {
	r := t.resolve()
	if r.kind != typeinfo.KindArray || r.elem == nil {
		return nil
	}
	return r.elem.resolve()
}

func (t *Type) Literal() (any, bool) {
	r := t.resolve()
	if r.kind != typeinfo.KindLiteral {
		return nil, false
	}
	return r.literal, true
}

func (t *Type) Members() []typeinfo.TypeDescriptor {
	ms := t.flatMembers()
	if ms == nil {
		return nil
	}
	out := make([]typeinfo.TypeDescriptor, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

// flatMembers expands nested unions (or nested intersections) into a single
// level, keeping first-seen order.
func (t *Type) flatMembers() []*Type {
	r := t.resolve()
	if r.kind != typeinfo.KindUnion && r.kind != typeinfo.KindIntersection {
		return nil
	}
	var out []*Type
	for _, m := range r.members {
		mr := m.resolve()
		if mr.kind == r.kind {
			out = append(out, mr.flatMembers()...)
			continue
		}
		out = append(out, mr)
	}
	return out
}

func (t *Type) IsStringAssignable() bool {
	return assignable(t, stringType, nil)
}

func (t *Type) AssignableTo(target typeinfo.TypeDescriptor) bool {
	dst, ok := target.(*Type)
	if !ok || dst == nil {
		return false
	}
	return assignable(t, dst, nil)
}

// Properties returns the apparent properties. Optional properties report
// their type with undefined added, as a structural checker does.
func (t *Type) Properties() []typeinfo.Property {
	props := t.apparent()
	if len(props) == 0 {
		return nil
	}
	out := make([]typeinfo.Property, 0, len(props))
	for _, p := range props {
		typ := p.typ.resolve()
		if p.optional {
			typ = withUndefined(typ)
		}
		out = append(out, typeinfo.Property{Name: p.name, Type: typ, Optional: p.optional})
	}
	return out
}

func (t *Type) PropertyType(name string) (typeinfo.TypeDescriptor, bool) {
	for _, p := range t.apparent() {
		if p.name != name {
			continue
		}
		if p.optional {
			return withUndefined(p.typ), true
		}
		return p.typ.resolve(), true
	}
	return nil, false
}

func (t *Type) IndexSignatures() []typeinfo.IndexSignature {
	r := t.resolve()
	var sigs []indexSignature
	switch r.kind {
	case typeinfo.KindObject:
		sigs = r.index
	case typeinfo.KindIntersection:
		for _, m := range r.flatMembers() {
			sigs = append(sigs, m.index...)
		}
	}
	if len(sigs) == 0 {
		return nil
	}
	out := make([]typeinfo.IndexSignature, len(sigs))
	for i, s := range sigs {
		out[i] = typeinfo.IndexSignature{Key: s.key.resolve(), Value: s.value.resolve()}
	}
	return out
}

func (t *Type) apparent() []property {
	r := t.resolve()
	switch r.kind {
	case typeinfo.KindObject:
		return r.props
	case typeinfo.KindIntersection:
		var out []property
		seen := map[string]bool{}
		for _, m := range r.flatMembers() {
			for _, p := range m.apparent() {
				if seen[p.name] {
					continue
				}
				seen[p.name] = true
				out = append(out, p)
			}
		}
		return out
	case typeinfo.KindUnion:
		ms := r.flatMembers()
		if len(ms) == 0 {
			return nil
		}
		var out []property
		for _, p := range ms[0].apparent() {
			common, optional := true, p.optional
			for _, other := range ms[1:] {
				op, ok := findProperty(other.apparent(), p.name)
				if !ok {
					common = false
					break
				}
				optional = optional || op.optional
			}
			if common {
				out = append(out, property{name: p.name, typ: p.typ, optional: optional})
			}
		}
		return out
	}
	return nil
}

func findProperty(props []property, name string) (property, bool) {
	for _, p := range props {
		if p.name == name {
			return p, true
		}
	}
	return property{}, false
}

func withUndefined(t *Type) *Type {
	r := t.resolve()
	if r.kind == typeinfo.KindUndefined {
		return r
	}
	if r.kind == typeinfo.KindUnion {
		for _, m := range r.flatMembers() {
			if m.kind == typeinfo.KindUndefined {
				return r
			}
		}
		members := append(append([]*Type{}, r.flatMembers()...), undefinedType)
		return &Type{kind: typeinfo.KindUnion, members: members}
	}
	return &Type{kind: typeinfo.KindUnion, members: []*Type{r, undefinedType}}
}

func (t *Type) String() string {
	var b strings.Builder
	t.write(&b, map[*Type]bool{})
	return b.String()
}

func (t *Type) write(b *strings.Builder, visiting map[*Type]bool) {
	r := t.resolve()
	if r.name != "" {
		b.WriteString(r.name)
		return
	}
	if visiting[r] {
		b.WriteString("...")
		return
	}
	visiting[r] = true
	defer delete(visiting, r)

	switch r.kind {
	case typeinfo.KindLiteral:
		switch v := r.literal.(type) {
		case string:
			b.WriteString(strconv.Quote(v))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			b.WriteString(strconv.FormatBool(v))
		}
	case typeinfo.KindArray:
		er := r.elem.resolve()
		if er.name == "" && (er.kind == typeinfo.KindUnion || er.kind == typeinfo.KindIntersection) {
			b.WriteByte('(')
			r.elem.write(b, visiting)
			b.WriteByte(')')
		} else {
			r.elem.write(b, visiting)
		}
		b.WriteString("[]")
	case typeinfo.KindUnion, typeinfo.KindIntersection:
		sep := " | "
		if r.kind == typeinfo.KindIntersection {
			sep = " & "
		}
		for i, m := range r.flatMembers() {
			if i > 0 {
				b.WriteString(sep)
			}
			m.write(b, visiting)
		}
	case typeinfo.KindObject:
		if len(r.props) == 0 && len(r.index) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for _, s := range r.index {
			b.WriteString("[key: ")
			s.key.write(b, visiting)
			b.WriteString("]: ")
			s.value.write(b, visiting)
			b.WriteString("; ")
		}
		for _, p := range r.props {
			b.WriteString(p.name)
			if p.optional {
				b.WriteByte('?')
			}
			b.WriteString(": ")
			p.typ.write(b, visiting)
			b.WriteString("; ")
		}
		b.WriteString("}")
	default:
		b.WriteString(r.kind.String())
	}
}
