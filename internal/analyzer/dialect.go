package analyzer

import (
	"fmt"

	"github.com/mark3labs/hto/internal/spec"
)

// Dialect captures everything that differs between OpenAPI 3.0 and 3.1
// schema output. It is chosen once per Analyze call.
type Dialect interface {
	// Version is the document's "openapi" field.
	Version() string
	// Nullable returns s widened to also accept null.
	Nullable(s *spec.Schema) *spec.Schema
	// Null is the schema of the null type on its own.
	Null() *spec.Schema
	// Literal renders one or more literal values of a base JSON type.
	Literal(base string, values []any) *spec.Schema
	// DescribeObject finishes an object schema.
	DescribeObject(s *spec.Schema)
}

// DialectFor returns the dialect for an "openapi" option value ("3.0" or
// "3.1"; an empty value selects 3.1).
func DialectFor(openapi string) (Dialect, error) {
	switch openapi {
	case "3.1", "":
		return dialect31{}, nil
	case "3.0":
		return dialect30{}, nil
	}
	return nil, fmt.Errorf("unsupported openapi version %q (allowed: 3.0, 3.1)", openapi)
}

type dialect30 struct{}

func (dialect30) Version() string { return "3.0.0" }

func (dialect30) Nullable(s *spec.Schema) *spec.Schema {
	if s.Ref != "" {
		return &spec.Schema{AllOf: []*spec.Schema{s}, Nullable: spec.Bool(true)}
	}
	c := *s
	c.Nullable = spec.Bool(true)
	return &c
}

func (dialect30) Null() *spec.Schema {
	return &spec.Schema{Nullable: spec.Bool(true)}
}

func (dialect30) Literal(base string, values []any) *spec.Schema {
	return &spec.Schema{Type: spec.TypeString(base), Enum: values}
}

func (dialect30) DescribeObject(s *spec.Schema) {
	s.Nullable = spec.Bool(false)
}

type dialect31 struct{}

func (dialect31) Version() string { return "3.1.0" }

func (dialect31) Nullable(s *spec.Schema) *spec.Schema {
	if s.Ref != "" || len(s.AllOf) > 0 || len(s.AnyOf) > 0 {
		return &spec.Schema{AnyOf: []*spec.Schema{s, {Type: spec.TypeString("null")}}}
	}
	c := *s
	switch {
	case len(c.Type) > 0:
		if !c.Type.Has("null") {
			c.Type = append(append(spec.SchemaType{}, c.Type...), "null")
		}
		if c.Const != nil {
			c.Enum, c.Const = []any{c.Const}, nil
		}
		if len(c.Enum) > 0 {
			c.Enum = append(append([]any{}, c.Enum...), nil)
		}
	case len(c.OneOf) > 0:
		c.OneOf = append(append([]*spec.Schema{}, c.OneOf...), &spec.Schema{Type: spec.TypeString("null")})
	}
	return &c
}

func (dialect31) Null() *spec.Schema {
	return &spec.Schema{Type: spec.TypeString("null")}
}

func (dialect31) Literal(base string, values []any) *spec.Schema {
	if len(values) == 1 {
		return &spec.Schema{Type: spec.TypeString(base), Const: values[0]}
	}
	return &spec.Schema{Type: spec.TypeString(base), Enum: values}
}

func (dialect31) DescribeObject(*spec.Schema) {}
