// Package typegraph is an in-memory type oracle. A type graph file maps type
// names to type expressions written in a small structural type syntax:
//
//	types:
//	  User: "{ id: string; name?: string }"
//	  AppType: |
//	    { "/users": { $get: { input: {}; output: User[]; outputFormat: "json"; status: 200 } } }
//
// Expressions support unions, intersections, T[] arrays, parentheses,
// object literals with optional members and index signatures, string,
// number and boolean literals, keywords and references to other names.
package typegraph

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// Program holds every declared type of one type graph file.
type Program struct {
	source string
	decls  map[string]*Type
	names  []string
}

var _ typeinfo.Program = (*Program)(nil)

type fileFormat struct {
	Types map[string]string `yaml:"types"`
}

// Load reads and resolves the type graph at path. YAML and JSON are both
// accepted.
func Load(path string) (*Program, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &spec.SpecError{Code: spec.InputError, Message: "typegraph: path is empty"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &spec.SpecError{Code: spec.InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: path, Cause: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &spec.SpecError{Code: spec.InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return Parse(abs, data)
}

// Parse resolves a type graph held in memory. source is only used in
// diagnostics.
func Parse(source string, data []byte) (*Program, error) {
	var file fileFormat
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("parse type graph: %v", err), Location: source, Cause: err}
	}
	return Build(source, file.Types)
}

// Build resolves a set of named type expressions.
func Build(source string, types map[string]string) (*Program, error) {
	p := &Program{source: source, decls: make(map[string]*Type, len(types))}
	for name := range types {
		if isKeyword(name) {
			return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("type %s: name is reserved", name), Location: source}
		}
		p.names = append(p.names, name)
		p.decls[name] = &Type{name: name}
	}
	sort.Strings(p.names)

	for _, name := range p.names {
		ast, err := parseExpr(name, types[name])
		if err != nil {
			return nil, parseError(source, name, err)
		}
		t, err := p.convertUnion(ast)
		if err != nil {
			return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("type %s: %v", name, err), Location: source, Cause: err}
		}
		decl := p.decls[name]
		if other, ok := p.decls[t.name]; ok && other == t {
			decl.alias = t
			continue
		}
		*decl = *t
		decl.name = name
	}

	for _, name := range p.names {
		if err := p.checkAlias(name); err != nil {
			return nil, &spec.SpecError{Code: spec.ParseError, Message: err.Error(), Location: source}
		}
	}
	return p, nil
}

func parseError(source, name string, err error) error {
	msg := fmt.Sprintf("type %s: %v", name, err)
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		msg = fmt.Sprintf("type %s: %d:%d: %s", name, pos.Line, pos.Column, perr.Message())
	}
	return &spec.SpecError{Code: spec.ParseError, Message: msg, Location: source, Cause: err}
}

func (p *Program) checkAlias(name string) error {
	seen := map[*Type]bool{}
	for t := p.decls[name]; t.alias != nil; t = t.alias {
		if seen[t] {
			return fmt.Errorf("type %s: circular alias", name)
		}
		seen[t] = true
	}
	return nil
}

// Lookup returns the declared type called name. Aliases are followed, so
// every descriptor handed out is the declaration that owns the structure.
func (p *Program) Lookup(name string) (typeinfo.TypeDescriptor, bool) {
	t, ok := p.decls[name]
	if !ok {
		return nil, false
	}
	return t.resolve(), true
}

// Names returns the declared names in sorted order.
func (p *Program) Names() []string {
	return append([]string(nil), p.names...)
}

func (p *Program) Source() string { return p.source }

func isKeyword(name string) bool {
	_, ok := keywordKinds[name]
	return ok || name == "true" || name == "false" || name == "object"
}

var keywordKinds = map[string]typeinfo.Kind{
	"any":       typeinfo.KindAny,
	"unknown":   typeinfo.KindUnknown,
	"never":     typeinfo.KindNever,
	"void":      typeinfo.KindVoid,
	"null":      typeinfo.KindNull,
	"undefined": typeinfo.KindUndefined,
	"string":    typeinfo.KindString,
	"number":    typeinfo.KindNumber,
	"integer":   typeinfo.KindInteger,
	"boolean":   typeinfo.KindBoolean,
}

func (p *Program) convertUnion(u *unionExpr) (*Type, error) {
	members := make([]*Type, 0, len(u.Members))
	for _, m := range u.Members {
		t, err := p.convertIntersection(m)
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return &Type{kind: typeinfo.KindUnion, members: members}, nil
}

func (p *Program) convertIntersection(in *intersectionExpr) (*Type, error) {
	members := make([]*Type, 0, len(in.Members))
	for _, m := range in.Members {
		t, err := p.convertPostfix(m)
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return &Type{kind: typeinfo.KindIntersection, members: members}, nil
}

func (p *Program) convertPostfix(pf *postfixExpr) (*Type, error) {
	t, err := p.convertPrimary(pf.Primary)
	if err != nil {
		return nil, err
	}
	for range pf.Arrays {
		t = &Type{kind: typeinfo.KindArray, elem: t}
	}
	return t, nil
}

func (p *Program) convertPrimary(pr *primaryExpr) (*Type, error) {
	switch {
	case pr.Object != nil:
		return p.convertObject(pr.Object)
	case pr.Group != nil:
		return p.convertUnion(pr.Group)
	case pr.String != nil:
		return &Type{kind: typeinfo.KindLiteral, literal: *pr.String}, nil
	case pr.Number != nil:
		return &Type{kind: typeinfo.KindLiteral, literal: *pr.Number}, nil
	}
	switch pr.Name {
	case "true":
		return &Type{kind: typeinfo.KindLiteral, literal: true}, nil
	case "false":
		return &Type{kind: typeinfo.KindLiteral, literal: false}, nil
	case "object":
		return &Type{kind: typeinfo.KindObject}, nil
	}
	if k, ok := keywordKinds[pr.Name]; ok {
		return &Type{kind: k}, nil
	}
	if decl, ok := p.decls[pr.Name]; ok {
		return decl, nil
	}
	return nil, fmt.Errorf("unknown type %q", pr.Name)
}

func (p *Program) convertObject(o *objectExpr) (*Type, error) {
	t := &Type{kind: typeinfo.KindObject}
	seen := map[string]bool{}
	for _, m := range o.Members {
		if m.Index != nil {
			key, err := p.convertUnion(m.Index.Key)
			if err != nil {
				return nil, err
			}
			value, err := p.convertUnion(m.Index.Value)
			if err != nil {
				return nil, err
			}
			t.index = append(t.index, indexSignature{key: key, value: value})
			continue
		}
		prop := m.Property
		if seen[prop.Name] {
			return nil, fmt.Errorf("duplicate property %q", prop.Name)
		}
		seen[prop.Name] = true
		typ, err := p.convertUnion(prop.Type)
		if err != nil {
			return nil, err
		}
		t.props = append(t.props, property{name: prop.Name, typ: typ, optional: prop.Optional})
	}
	return t, nil
}
