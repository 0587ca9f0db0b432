package analyzer

import "strings"

// PathTemplate is a normalized route path with `{name}` placeholders and the
// parameters that appear in it, in declaration order.
type PathTemplate struct {
	Template string
	Params   []PathParam
}

// PathParam is one `:name` segment. Regex is empty when the segment has no
// custom matcher.
type PathParam struct {
	Name     string
	Regex    string
	Optional bool
}

// ParsePath expands a raw route path into its templates. Every optional
// segment contributes the template that ends just before it, so a path with
// N optional segments yields N+1 templates, shortest first.
func ParsePath(raw string) []PathTemplate {
	var (
		prefix    strings.Builder
		params    []PathParam
		templates []PathTemplate
	)
	for _, seg := range strings.Split(strings.TrimPrefix(raw, "/"), "/") {
		if !strings.HasPrefix(seg, ":") {
			prefix.WriteString("/" + seg)
			continue
		}
		param := parseParamSegment(seg)
		if param.Optional {
			templates = append(templates, PathTemplate{
				Template: prefix.String(),
				Params:   append([]PathParam(nil), params...),
			})
		}
		prefix.WriteString("/{" + param.Name + "}")
		params = append(params, param)
	}
	return append(templates, PathTemplate{Template: prefix.String(), Params: params})
}

// parseParamSegment splits `:name`, `:name?`, `:name{regex}` and
// `:name{regex}?`.
func parseParamSegment(seg string) PathParam {
	body := seg[1:]
	optional := strings.HasSuffix(body, "?")
	if optional {
		body = body[:len(body)-1]
	}
	open := strings.IndexByte(body, '{')
	if open < 0 {
		return PathParam{Name: body, Optional: optional}
	}
	regex := body[open+1:]
	regex = strings.TrimSuffix(regex, "}")
	return PathParam{Name: body[:open], Regex: regex, Optional: optional}
}

// NormalizePath rewrites each `:name` segment of raw as `{name}`, dropping
// matchers and optional markers. Other segments are kept verbatim.
func NormalizePath(raw string) string {
	segs := strings.Split(raw, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		segs[i] = "{" + parseParamSegment(seg).Name + "}"
	}
	return strings.Join(segs, "/")
}
