package analyzer

import (
	"strconv"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// StatusDefault keys a response whose status is not a literal.
const StatusDefault = "default"

var formatMediaTypes = map[string]string{
	"json":      "application/json",
	"xml":       "application/xml",
	"html":      "text/html",
	"text":      "text/plain",
	"form":      "application/x-www-form-urlencoded",
	"multipart": "multipart/form-data",
}

// MediaTypeForFormat maps a route output format to its media type, falling
// back to text/plain.
func MediaTypeForFormat(format string) string {
	if mt, ok := formatMediaTypes[format]; ok {
		return mt
	}
	return "text/plain"
}

// MethodSchema is one analyzed method of a route. Table indices refer to the
// SchemaTable the method was analyzed against.
type MethodSchema struct {
	Method  spec.HttpMethod
	Input   MethodInput
	Outputs map[string]Output
}

type MethodInput struct {
	JSON       *int
	Form       *int
	Parameters []ParameterRef
}

// ParameterRef is a Parameter whose type has been pushed into the table.
// Exactly one of Type and Schema is set.
type ParameterRef struct {
	In       Location
	Name     string
	Required bool
	Explode  bool
	Type     *int
	Schema   *spec.Schema
}

// Output is one response. MediaType is empty for bodyless responses.
type Output struct {
	Type      *int
	MediaType string
}

// AnalyzeMethod reads the request and response shape of one method. The
// method type is a response variant or a union of them; all variants share
// the first variant's input.
func AnalyzeMethod(method spec.HttpMethod, methodType typeinfo.TypeDescriptor, params []PathParam, table *SchemaTable) (MethodSchema, error) {
	variants := []typeinfo.TypeDescriptor{methodType}
	if methodType.IsUnion() {
		variants = methodType.Members()
	}

	input, ok := variants[0].PropertyType("input")
	if !ok || input == nil {
		return MethodSchema{}, spec.NewMalformedRoute("input property not found")
	}

	ms := MethodSchema{Method: method, Outputs: map[string]Output{}}
	if t, ok := input.PropertyType("json"); ok && isSupported(t) {
		ms.Input.JSON = pushed(table, t)
	}
	if t, ok := input.PropertyType("form"); ok && isSupported(t) {
		ms.Input.Form = pushed(table, t)
	}

	classified, err := ClassifyParameters(ParameterInputs{
		Query:  lookup(input, "query"),
		Param:  lookup(input, "param"),
		Header: lookup(input, "header"),
		Cookie: lookup(input, "cookie"),
	}, params)
	if err != nil {
		return MethodSchema{}, err
	}
	for _, p := range classified {
		ref := ParameterRef{In: p.In, Name: p.Name, Required: p.Required, Explode: p.Explode}
		switch {
		case p.Type != nil && isSupported(p.Type):
			ref.Type = pushed(table, p.Type)
		case p.Schema != nil:
			ref.Schema = p.Schema
		default:
			ref.Schema = &spec.Schema{Type: spec.TypeString("string")}
		}
		ms.Input.Parameters = append(ms.Input.Parameters, ref)
	}

	for _, v := range variants {
		output, ok1 := v.PropertyType("output")
		format, ok2 := v.PropertyType("outputFormat")
		status, ok3 := v.PropertyType("status")
		if !ok1 || !ok2 || !ok3 || output == nil || format == nil || status == nil {
			return MethodSchema{}, spec.NewMalformedRoute("Invalid type")
		}

		formatLit, formatIsLit := typeinfo.StringLiteral(format)
		statusLit, statusIsLit := typeinfo.NumberLiteral(status)
		if !hasApparentMembers(output) && !formatIsLit && !statusIsLit {
			ms.Outputs["204"] = Output{}
			continue
		}

		key := StatusDefault
		if statusIsLit {
			key = strconv.FormatFloat(statusLit, 'f', -1, 64)
		}
		if formatIsLit && formatLit == "redirect" {
			ms.Outputs[key] = Output{}
			continue
		}

		out := Output{MediaType: "text/plain"}
		if formatIsLit {
			out.MediaType = MediaTypeForFormat(formatLit)
		}
		if isSupported(output) {
			out.Type = pushed(table, output)
		}
		ms.Outputs[key] = out
	}
	return ms, nil
}

// hasApparentMembers reports whether t has members a structural checker
// would list. Primitives and arrays carry their wrapper methods, so only
// empty object-like outputs count as bodyless.
func hasApparentMembers(t typeinfo.TypeDescriptor) bool {
	if t.IsUnion() {
		members := t.Members()
		for _, m := range members {
			if !wrapped(m) {
				return len(t.Properties()) > 0
			}
		}
		return len(members) > 0
	}
	return wrapped(t) || len(t.Properties()) > 0
}

func wrapped(t typeinfo.TypeDescriptor) bool {
	switch t.Kind() {
	case typeinfo.KindString, typeinfo.KindNumber, typeinfo.KindInteger, typeinfo.KindBoolean,
		typeinfo.KindLiteral, typeinfo.KindArray:
		return true
	}
	return false
}

func lookup(t typeinfo.TypeDescriptor, name string) typeinfo.TypeDescriptor {
	v, ok := t.PropertyType(name)
	if !ok {
		return nil
	}
	return v
}

func pushed(table *SchemaTable, t typeinfo.TypeDescriptor) *int {
	i := table.Push(t)
	return &i
}
