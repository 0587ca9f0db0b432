package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// ComponentPrefix is the JSON pointer prefix of component schema references.
const ComponentPrefix = "#/components/schemas/"

// Synthesize converts every collected type into a schema for dialect d. The
// table is frozen first. Structurally identical types share one schema, and
// named object types are hoisted into table.Components. Any construct that
// cannot be represented fails the whole table with a SchemaSynthesisFailure
// listing every diagnostic.
func Synthesize(table *SchemaTable, d Dialect) error {
	table.Freeze()
	s := &synthesizer{
		dialect:    d,
		components: map[string]*spec.Schema{},
		names:      map[string]string{},
		taken:      map[string]string{},
		cache:      map[string]*spec.Schema{},
		inflight:   map[string]bool{},
	}
	schemas := make([]*spec.Schema, table.Len())
	for i := range schemas {
		t := table.Type(i)
		fp := Fingerprint(t)
		if cached, ok := s.cache[fp]; ok {
			schemas[i] = cached
			continue
		}
		s.trail = []string{rootLabel(t)}
		schemas[i] = s.schema(t)
		s.cache[fp] = schemas[i]
	}
	if err := s.errs.ErrorOrNil(); err != nil {
		msgs := make([]string, 0, len(s.errs.Errors))
		for _, e := range s.errs.Errors {
			msgs = append(msgs, e.Error())
		}
		return &spec.SpecError{
			Code:    spec.SchemaSynthesisFailure,
			Message: spec.SynthesisPrefix + strings.Join(msgs, "\n"),
			Cause:   err,
		}
	}
	table.Schemas = schemas
	table.Components = s.components
	return nil
}

type synthesizer struct {
	dialect    Dialect
	components map[string]*spec.Schema
	// names maps a fingerprint to its component name; taken is the reverse.
	names map[string]string
	taken map[string]string
	cache map[string]*spec.Schema
	// inflight holds named non-object types whose schema is being built.
	inflight map[string]bool
	errs     *multierror.Error
	trail    []string
}

func (s *synthesizer) fail(format string, args ...any) {
	where := strings.Join(s.trail, ".")
	s.errs = multierror.Append(s.errs, fmt.Errorf("%s: %s", where, fmt.Sprintf(format, args...)))
}

func (s *synthesizer) enter(name string) { s.trail = append(s.trail, name) }

func (s *synthesizer) leave() { s.trail = s.trail[:len(s.trail)-1] }

func (s *synthesizer) schema(t typeinfo.TypeDescriptor) *spec.Schema {
	if t == nil {
		return &spec.Schema{}
	}
	switch t.Kind() {
	case typeinfo.KindAny, typeinfo.KindUnknown, typeinfo.KindVoid, typeinfo.KindUndefined:
		return &spec.Schema{}
	case typeinfo.KindNever:
		s.fail("never cannot be represented")
		return &spec.Schema{}
	case typeinfo.KindNull:
		return s.dialect.Null()
	case typeinfo.KindString, typeinfo.KindNumber, typeinfo.KindInteger, typeinfo.KindBoolean:
		return &spec.Schema{Type: spec.TypeString(t.Kind().String())}
	case typeinfo.KindLiteral:
		v, _ := t.Literal()
		return s.dialect.Literal(literalBase(v), []any{v})
	case typeinfo.KindArray, typeinfo.KindUnion:
		if t.Name() != "" {
			return s.named(t)
		}
		return s.inline(t)
	case typeinfo.KindObject, typeinfo.KindIntersection:
		if t.Name() != "" {
			return s.component(t)
		}
		return s.body(t)
	}
	s.fail("unsupported type %s", t.String())
	return &spec.Schema{}
}

// component returns a $ref to the component for t, synthesizing it the first
// time. The name is claimed before the body is walked so recursive
// references resolve to it.
func (s *synthesizer) component(t typeinfo.TypeDescriptor) *spec.Schema {
	fp := Fingerprint(t)
	if name, ok := s.names[fp]; ok {
		return &spec.Schema{Ref: ComponentPrefix + name}
	}
	name := s.claim(sanitizeName(t.Name()), fp)
	// Diagnostics inside a component are reported against the component.
	saved := s.trail
	s.trail = []string{name}
	s.components[name] = s.body(t)
	s.trail = saved
	return &spec.Schema{Ref: ComponentPrefix + name}
}

// named inlines a named array or union unless it refers to itself, in which
// case it is hoisted into a component the same way an object is.
func (s *synthesizer) named(t typeinfo.TypeDescriptor) *spec.Schema {
	fp := Fingerprint(t)
	if name, ok := s.names[fp]; ok {
		return &spec.Schema{Ref: ComponentPrefix + name}
	}
	if s.inflight[fp] {
		name := s.claim(sanitizeName(t.Name()), fp)
		return &spec.Schema{Ref: ComponentPrefix + name}
	}
	s.inflight[fp] = true
	out := s.inline(t)
	delete(s.inflight, fp)
	name, ok := s.names[fp]
	if !ok {
		return out
	}
	s.components[name] = out
	return &spec.Schema{Ref: ComponentPrefix + name}
}

func (s *synthesizer) inline(t typeinfo.TypeDescriptor) *spec.Schema {
	if t.Kind() == typeinfo.KindUnion {
		return s.union(t)
	}
	return &spec.Schema{Type: spec.TypeString("array"), Items: s.schema(t.ElementType())}
}

func (s *synthesizer) claim(base, fp string) string {
	name := base
	for i := 2; ; i++ {
		if _, ok := s.taken[name]; !ok {
			break
		}
		name = base + strconv.Itoa(i)
	}
	s.taken[name] = fp
	s.names[fp] = name
	return name
}

func (s *synthesizer) body(t typeinfo.TypeDescriptor) *spec.Schema {
	if t.Kind() == typeinfo.KindObject {
		return s.object(t)
	}
	members := t.Members()
	for _, m := range members {
		if m.Kind() != typeinfo.KindObject {
			all := make([]*spec.Schema, 0, len(members))
			for _, m := range members {
				all = append(all, s.schema(m))
			}
			return &spec.Schema{AllOf: all}
		}
	}
	return s.object(t)
}

func (s *synthesizer) object(t typeinfo.TypeDescriptor) *spec.Schema {
	out := &spec.Schema{Type: spec.TypeString("object")}
	for _, p := range t.Properties() {
		if p.Type == nil || p.Type.Kind() == typeinfo.KindUndefined {
			continue
		}
		if out.Properties == nil {
			out.Properties = map[string]*spec.Schema{}
		}
		s.enter(p.Name)
		out.Properties[p.Name] = s.schema(p.Type)
		s.leave()
		if !p.Optional && !hasUndefined(p.Type) {
			out.Required = append(out.Required, p.Name)
		}
	}
	for _, sig := range t.IndexSignatures() {
		if sig.Key == nil || sig.Key.Kind() != typeinfo.KindString {
			key := "<nil>"
			if sig.Key != nil {
				key = sig.Key.String()
			}
			s.fail("index signature key must be string, got %s", key)
			continue
		}
		s.enter("[key]")
		out.AdditionalProperties = s.schema(sig.Value)
		s.leave()
	}
	s.dialect.DescribeObject(out)
	return out
}

// union drops undefined-like members, folds null into nullability and
// groups literals of one base type into a single enumeration.
func (s *synthesizer) union(t typeinfo.TypeDescriptor) *spec.Schema {
	var (
		nullable bool
		rest     []typeinfo.TypeDescriptor
	)
	for _, m := range t.Members() {
		switch m.Kind() {
		case typeinfo.KindUndefined, typeinfo.KindVoid, typeinfo.KindNever:
			continue
		case typeinfo.KindNull:
			nullable = true
			continue
		case typeinfo.KindAny, typeinfo.KindUnknown:
			return &spec.Schema{}
		}
		rest = append(rest, m)
	}
	if len(rest) == 0 {
		if nullable {
			return s.dialect.Null()
		}
		return &spec.Schema{}
	}

	variants := s.variants(rest)
	out := variants[0]
	if len(variants) > 1 {
		out = &spec.Schema{OneOf: variants}
	}
	if nullable {
		out = s.dialect.Nullable(out)
	}
	return out
}

func (s *synthesizer) variants(members []typeinfo.TypeDescriptor) []*spec.Schema {
	bases := map[string]bool{}
	for _, m := range members {
		switch m.Kind() {
		case typeinfo.KindString, typeinfo.KindNumber, typeinfo.KindBoolean:
			bases[m.Kind().String()] = true
		}
	}
	literals := map[string][]any{}
	for _, m := range members {
		if m.Kind() != typeinfo.KindLiteral {
			continue
		}
		v, _ := m.Literal()
		base := literalBase(v)
		if bases[base] {
			continue
		}
		literals[base] = append(literals[base], v)
	}
	// true | false is boolean.
	if vs := literals["boolean"]; len(vs) >= 2 && containsBoth(vs) {
		delete(literals, "boolean")
		bases["boolean"] = true
	}

	var out []*spec.Schema
	emitted := map[string]bool{}
	for _, m := range members {
		if m.Kind() != typeinfo.KindLiteral {
			out = append(out, s.schema(m))
			continue
		}
		v, _ := m.Literal()
		base := literalBase(v)
		if emitted[base] {
			continue
		}
		emitted[base] = true
		switch {
		case literals[base] != nil:
			out = append(out, s.dialect.Literal(base, literals[base]))
		case base == "boolean" && !hasKind(members, typeinfo.KindBoolean):
			out = append(out, &spec.Schema{Type: spec.TypeString("boolean")})
		}
	}
	return out
}

func literalBase(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	return "number"
}

func containsBoth(vs []any) bool {
	var t, f bool
	for _, v := range vs {
		if b, ok := v.(bool); ok {
			t = t || b
			f = f || !b
		}
	}
	return t && f
}

func hasKind(ts []typeinfo.TypeDescriptor, k typeinfo.Kind) bool {
	for _, t := range ts {
		if t.Kind() == k {
			return true
		}
	}
	return false
}

func hasUndefined(t typeinfo.TypeDescriptor) bool {
	if !t.IsUnion() {
		return false
	}
	for _, m := range t.Members() {
		if m.Kind() == typeinfo.KindUndefined {
			return true
		}
	}
	return false
}

func rootLabel(t typeinfo.TypeDescriptor) string {
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// sanitizeName maps a type name onto the component key alphabet
// [A-Za-z0-9._-].
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "Anonymous"
	}
	return b.String()
}
