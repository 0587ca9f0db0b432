// Package analyzer derives an OpenAPI document from a type-level route table.
//
// The walk is pure and synchronous: CollectRoutes parses every path template
// and analyzes each handler, pushing referenced types into a SchemaTable;
// Synthesize turns the frozen table into schemas for one dialect; Assemble
// joins the two into a spec.Document. Analyze runs all three with a fresh
// table, so concurrent calls never share state.
package analyzer

import (
	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// Analyze builds the document for route, a route table type resolved from
// program. It returns InvalidType, MalformedRoute or SchemaSynthesisFailure
// errors as *spec.SpecError and never a partial document.
func Analyze(program typeinfo.Program, route typeinfo.TypeDescriptor, opts Options) (*spec.Document, error) {
	d, err := DialectFor(opts.OpenAPI)
	if err != nil {
		return nil, &spec.SpecError{Code: spec.InputError, Message: err.Error(), Cause: err}
	}

	table := NewSchemaTable()
	routes, err := CollectRoutes(route, table, opts)
	if err != nil {
		return nil, withSource(err, program)
	}
	if err := Synthesize(table, d); err != nil {
		return nil, withSource(err, program)
	}
	return Assemble(routes, table, d, opts), nil
}

func withSource(err error, program typeinfo.Program) error {
	if program == nil {
		return err
	}
	return asSpecError(err).WithLocation(program.Source())
}
