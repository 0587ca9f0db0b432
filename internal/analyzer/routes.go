package analyzer

import (
	"strings"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// Route is one normalized path template with its analyzed methods.
type Route struct {
	Path    string
	Methods []MethodSchema
}

// CollectRoutes walks a route table type. Every apparent property is a raw
// path whose `$method` properties are the handlers; a union route type
// contributes each member in turn. Types referenced by the handlers are
// pushed into table.
func CollectRoutes(route typeinfo.TypeDescriptor, table *SchemaTable, opts Options) ([]Route, error) {
	if route == nil {
		return nil, spec.NewMalformedRoute("route type not found")
	}
	tables := []typeinfo.TypeDescriptor{route}
	if route.IsUnion() {
		tables = route.Members()
	}
	f := newFilter(opts)

	var routes []Route
	for _, rt := range tables {
		switch rt.Kind() {
		case typeinfo.KindObject, typeinfo.KindIntersection:
		case typeinfo.KindNever, typeinfo.KindUndefined, typeinfo.KindNull:
			continue
		default:
			return nil, spec.NewMalformedRoute("route table must be an object type, got " + rt.String())
		}
		for _, p := range rt.Properties() {
			if p.Type == nil {
				continue
			}
			for _, tpl := range ParsePath(p.Name) {
				r, err := collectTemplate(tpl, p.Type, table, f)
				if err != nil {
					return nil, err.WithLocation(p.Name)
				}
				if r != nil {
					routes = append(routes, *r)
				}
			}
		}
	}
	return routes, nil
}

// collectTemplate returns nil when the path is filtered out. A kept path
// without handlers still yields a route, emitted as an empty path item.
func collectTemplate(tpl PathTemplate, handlers typeinfo.TypeDescriptor, table *SchemaTable, f filter) (*Route, *spec.SpecError) {
	r := &Route{Path: tpl.Template}
	if r.Path == "" {
		r.Path = "/"
	}
	if !f.keepPath(r.Path) {
		return nil, nil
	}
	for _, h := range handlers.Properties() {
		if !strings.HasPrefix(h.Name, "$") || h.Type == nil {
			continue
		}
		m, ok := spec.ParseHttpMethod(h.Name[1:])
		if !ok || !f.keepMethod(m) {
			continue
		}
		ms, err := AnalyzeMethod(m, h.Type, tpl.Params, table)
		if err != nil {
			return nil, asSpecError(err).WithLocation(r.Path + " " + strings.ToUpper(string(m)))
		}
		r.Methods = append(r.Methods, ms)
	}
	return r, nil
}

func asSpecError(err error) *spec.SpecError {
	if se, ok := err.(*spec.SpecError); ok {
		return se
	}
	return &spec.SpecError{Code: spec.MalformedRoute, Message: err.Error(), Cause: err}
}

// Assemble builds the document from analyzed routes and a synthesized table.
// Routes sharing a path are merged; a later method overwrites an earlier one.
func Assemble(routes []Route, table *SchemaTable, d Dialect, opts Options) *spec.Document {
	doc := &spec.Document{
		OpenAPI: d.Version(),
		Info: spec.Info{
			Title:       opts.Title,
			Description: opts.Description,
			Version:     opts.Version,
		},
		Paths:      map[string]*spec.PathItem{},
		Components: spec.Components{Schemas: map[string]*spec.Schema{}},
	}
	for name, s := range table.Components {
		doc.Components.Schemas[name] = s
	}
	for _, r := range routes {
		item := doc.Paths[r.Path]
		if item == nil {
			item = &spec.PathItem{}
			doc.Paths[r.Path] = item
		}
		for _, ms := range r.Methods {
			item.SetOperation(ms.Method, operation(ms, table))
		}
	}
	return doc
}

func operation(ms MethodSchema, table *SchemaTable) *spec.Operation {
	op := &spec.Operation{Responses: map[string]*spec.Response{}}
	for _, p := range ms.Input.Parameters {
		schema := p.Schema
		if p.Type != nil {
			schema = table.Schema(*p.Type)
		}
		op.Parameters = append(op.Parameters, &spec.Parameter{
			In:       string(p.In),
			Name:     p.Name,
			Explode:  p.Explode,
			Required: p.Required,
			Schema:   schema,
		})
	}

	if ms.Input.JSON != nil || ms.Input.Form != nil {
		body := &spec.RequestBody{Content: map[string]*spec.MediaType{}, Required: true}
		if ms.Input.JSON != nil {
			body.Content["application/json"] = &spec.MediaType{Schema: table.Schema(*ms.Input.JSON)}
		}
		if ms.Input.Form != nil {
			body.Content["application/x-www-form-urlencoded"] = &spec.MediaType{Schema: table.Schema(*ms.Input.Form)}
		}
		op.RequestBody = body
	}

	for status, out := range ms.Outputs {
		resp := &spec.Response{Description: ""}
		if out.Type != nil {
			resp.Content = map[string]*spec.MediaType{
				out.MediaType: {Schema: table.Schema(*out.Type)},
			}
		}
		op.Responses[status] = resp
	}
	return op
}
