package spec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OpenAPI document model produced by the analyzer and consumed by emitters.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	PATCH   HttpMethod = "patch"
	DELETE  HttpMethod = "delete"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// HttpMethods lists the supported methods in route-table order.
var HttpMethods = []HttpMethod{GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS, TRACE}

// ParseHttpMethod reports whether s names a supported method.
func ParseHttpMethod(s string) (HttpMethod, bool) {
	for _, m := range HttpMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type Document struct {
	OpenAPI    string               `json:"openapi" yaml:"openapi"`
	Info       Info                 `json:"info" yaml:"info"`
	Paths      map[string]*PathItem `json:"paths" yaml:"paths"`
	Components Components           `json:"components" yaml:"components"`
}

type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Version     string `json:"version" yaml:"version"`
}

type Components struct {
	Schemas map[string]*Schema `json:"schemas" yaml:"schemas"`
}

// PathItem holds one operation per method; field order matches HttpMethods.
type PathItem struct {
	Get     *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Post    *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Put     *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Patch   *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
	Delete  *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
	Head    *Operation `json:"head,omitempty" yaml:"head,omitempty"`
	Options *Operation `json:"options,omitempty" yaml:"options,omitempty"`
	Trace   *Operation `json:"trace,omitempty" yaml:"trace,omitempty"`
}

// Operation returns the operation stored for m, if any.
func (p *PathItem) Operation(m HttpMethod) *Operation {
	if slot := p.slot(m); slot != nil {
		return *slot
	}
	return nil
}

// SetOperation stores op under m. Unknown methods are ignored.
func (p *PathItem) SetOperation(m HttpMethod, op *Operation) {
	if slot := p.slot(m); slot != nil {
		*slot = op
	}
}

func (p *PathItem) slot(m HttpMethod) **Operation {
	switch m {
	case GET:
		return &p.Get
	case POST:
		return &p.Post
	case PUT:
		return &p.Put
	case PATCH:
		return &p.Patch
	case DELETE:
		return &p.Delete
	case HEAD:
		return &p.Head
	case OPTIONS:
		return &p.Options
	case TRACE:
		return &p.Trace
	}
	return nil
}

type Operation struct {
	Parameters  []*Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses" yaml:"responses"`
}

type Parameter struct {
	In       string  `json:"in" yaml:"in"`
	Name     string  `json:"name" yaml:"name"`
	Explode  bool    `json:"explode" yaml:"explode"`
	Required bool    `json:"required" yaml:"required"`
	Schema   *Schema `json:"schema" yaml:"schema"`
}

type RequestBody struct {
	Content  map[string]*MediaType `json:"content" yaml:"content"`
	Required bool                  `json:"required,omitempty" yaml:"required,omitempty"`
}

type Response struct {
	Description string                `json:"description" yaml:"description"`
	Content     map[string]*MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Schema is the subset of JSON Schema the synthesizer emits. Both dialects
// share it; the 3.0 dialect uses Nullable, the 3.1 dialect uses type arrays
// and Const.
type Schema struct {
	Ref                  string             `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type                 SchemaType         `json:"type,omitempty" yaml:"type,omitempty"`
	Format               string             `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern              string             `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Nullable             *bool              `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Const                any                `json:"const,omitempty" yaml:"const,omitempty"`
	Enum                 []any              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Items                *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	OneOf                []*Schema          `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
	AllOf                []*Schema          `json:"allOf,omitempty" yaml:"allOf,omitempty"`
}

// SchemaType is a JSON Schema "type": a single string when it holds one
// value, an array otherwise (3.1 nullable types such as ["string", "null"]).
type SchemaType []string

// TypeString creates a SchemaType with a single type.
func TypeString(t string) SchemaType { return SchemaType{t} }

// TypeArray creates a SchemaType with multiple types.
func TypeArray(types ...string) SchemaType { return SchemaType(types) }

// Has reports whether t is one of the listed types.
func (st SchemaType) Has(t string) bool {
	for _, v := range st {
		if v == t {
			return true
		}
	}
	return false
}

func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*st = SchemaType{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("schema type must be a string or an array of strings: %w", err)
	}
	*st = SchemaType(many)
	return nil
}

func (st SchemaType) MarshalYAML() (any, error) {
	if len(st) == 1 {
		return st[0], nil
	}
	return []string(st), nil
}

func (st *SchemaType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*st = SchemaType{node.Value}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*st = SchemaType(many)
	return nil
}

// Bool returns a pointer to b, for optional boolean keywords.
func Bool(b bool) *bool { return &b }
