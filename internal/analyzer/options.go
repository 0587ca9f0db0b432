package analyzer

import (
	"regexp"

	"github.com/mark3labs/hto/internal/spec"
)

// Options configures one Analyze call. Title, OpenAPI, Description and
// Version are copied into the document; Methods and PathPatterns narrow
// which operations are emitted (empty keeps everything).
type Options struct {
	Title       string
	OpenAPI     string
	Description string
	Version     string

	Methods      []spec.HttpMethod
	PathPatterns []*regexp.Regexp
}

// filter is the compiled form of the Methods and PathPatterns options.
type filter struct {
	methods map[spec.HttpMethod]struct{}
	pathRes []*regexp.Regexp
}

func newFilter(opts Options) filter {
	f := filter{pathRes: opts.PathPatterns}
	if len(opts.Methods) > 0 {
		f.methods = make(map[spec.HttpMethod]struct{}, len(opts.Methods))
		for _, m := range opts.Methods {
			f.methods[m] = struct{}{}
		}
	}
	return f
}

func (f filter) keepPath(path string) bool {
	if len(f.pathRes) == 0 {
		return true
	}
	for _, re := range f.pathRes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (f filter) keepMethod(m spec.HttpMethod) bool {
	if f.methods == nil {
		return true
	}
	_, ok := f.methods[m]
	return ok
}
