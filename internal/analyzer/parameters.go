package analyzer

import (
	"fmt"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// Location is where a parameter travels in the request.
type Location string

const (
	InQuery  Location = "query"
	InPath   Location = "path"
	InHeader Location = "header"
	InCookie Location = "cookie"
)

// Parameter is a classified request parameter. Exactly one of Type and
// Schema is set; Schema is the inline fallback used when a path matcher or
// missing type information leaves nothing richer.
type Parameter struct {
	In       Location
	Name     string
	Required bool
	Explode  bool
	Type     typeinfo.TypeDescriptor
	Schema   *spec.Schema
}

// ParameterInputs carries the per-location descriptors of a method input.
// Nil fields are absent locations.
type ParameterInputs struct {
	Query  typeinfo.TypeDescriptor
	Param  typeinfo.TypeDescriptor
	Header typeinfo.TypeDescriptor
	Cookie typeinfo.TypeDescriptor
}

// ClassifyParameters validates every location and returns the parameters in
// query, path, header, cookie order.
func ClassifyParameters(in ParameterInputs, params []PathParam) ([]Parameter, error) {
	var out []Parameter
	if in.Query != nil {
		ps, err := classifyLocation(InQuery, in.Query)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	if in.Param != nil {
		ps, err := classifyPath(in.Param, params)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	if in.Header != nil {
		ps, err := classifyLocation(InHeader, in.Header)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	if in.Cookie != nil {
		ps, err := classifyLocation(InCookie, in.Cookie)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	return out, nil
}

// classifyPath walks the template's parameters; a matcher on the segment
// takes precedence over whatever the type says.
func classifyPath(t typeinfo.TypeDescriptor, params []PathParam) ([]Parameter, error) {
	out := make([]Parameter, 0, len(params))
	for _, param := range params {
		if param.Regex != "" {
			out = append(out, Parameter{
				In:       InPath,
				Name:     param.Name,
				Required: true,
				Schema:   &spec.Schema{Type: spec.TypeString("string"), Pattern: param.Regex},
			})
			continue
		}
		prop, ok := findProperty(t, param.Name)
		if !ok || prop.Type == nil {
			out = append(out, Parameter{
				In:       InPath,
				Name:     param.Name,
				Required: true,
				Schema:   &spec.Schema{Type: spec.TypeString("string")},
			})
			continue
		}
		c := Canonicalize(prop.Type)
		// An optional segment may be typed as an optional property.
		if prop.Optional && !param.Optional {
			return nil, spec.NewInvalidType("Path parameter must be required")
		}
		if c.IsArray {
			return nil, spec.NewInvalidType("Path parameter must not be array type")
		}
		if !c.Type.IsStringAssignable() {
			return nil, spec.NewInvalidType("Path parameter must be string type")
		}
		out = append(out, Parameter{In: InPath, Name: param.Name, Required: true, Type: c.Type})
	}
	return out, nil
}

func classifyLocation(loc Location, t typeinfo.TypeDescriptor) ([]Parameter, error) {
	props := t.Properties()
	out := make([]Parameter, 0, len(props))
	for _, prop := range props {
		if prop.Type == nil {
			return nil, spec.NewInvalidType("Invalid type")
		}
		c := Canonicalize(prop.Type)
		if prop.Optional && loc == InPath {
			return nil, spec.NewInvalidType("Path parameter must be required")
		}
		if c.IsArray && loc != InQuery {
			return nil, spec.NewInvalidType("Path parameter, header or cookie must not be array type")
		}
		if loc != InQuery && !c.Type.IsStringAssignable() {
			return nil, spec.NewInvalidType("Path parameter, header or cookie must be string type")
		}
		if loc == InQuery {
			if !c.IsArray && c.Type.IsArray() {
				elem := c.Type.ElementType().String()
				return nil, spec.NewInvalidType(fmt.Sprintf("Query parameter must not be array type. Use `%s[] | %s` instead.", elem, elem))
			}
			check := c.Type
			if c.IsArray {
				check = c.Type.ElementType()
			}
			if !check.IsStringAssignable() {
				return nil, spec.NewInvalidType("Query parameter must be string type or array of string")
			}
		}
		out = append(out, Parameter{
			In:       loc,
			Name:     prop.Name,
			Required: !prop.Optional,
			Explode:  c.IsArray,
			Type:     c.Type,
		})
	}
	return out, nil
}

func findProperty(t typeinfo.TypeDescriptor, name string) (typeinfo.Property, bool) {
	for _, p := range t.Properties() {
		if p.Name == name {
			return p, true
		}
	}
	return typeinfo.Property{}, false
}
