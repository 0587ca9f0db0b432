package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validate round-trips doc through kin-openapi and runs its document
// validation. Only 3.0.x documents are supported by the validator.
func Validate(ctx context.Context, doc *Document) error {
	if doc == nil {
		return &SpecError{Code: InputError, Message: "spec: document is nil"}
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.0.") {
		return &SpecError{Code: InputError, Message: fmt.Sprintf("spec: validation supports OpenAPI 3.0.x documents only, got %q", doc.OpenAPI)}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return &SpecError{Code: InputError, Message: fmt.Sprintf("spec: encode document: %v", err), Cause: err}
	}

	loader := openapi3.NewLoader()
	kdoc, err := loader.LoadFromData(data)
	if err != nil {
		return mapValidateOrParseErr(err, "")
	}
	if err := kdoc.Validate(ctx); err != nil {
		return mapValidateOrParseErr(err, "")
	}
	return nil
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	// Heuristics: some loader errors are parse errors.
	if strings.Contains(strings.ToLower(err.Error()), "parse") || strings.Contains(strings.ToLower(err.Error()), "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	// Unwrap MultiError and take the first for brevity.
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
