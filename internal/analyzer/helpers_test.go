package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typegraph"
	"github.com/mark3labs/hto/internal/typeinfo"
)

func buildProgram(t *testing.T, types map[string]string) *typegraph.Program {
	t.Helper()
	p, err := typegraph.Build("test.yaml", types)
	require.NoError(t, err)
	return p
}

// typeOf declares a single type T and returns it.
func typeOf(t *testing.T, expr string, extra ...string) typeinfo.TypeDescriptor {
	t.Helper()
	types := map[string]string{"T": expr}
	for i := 0; i+1 < len(extra); i += 2 {
		types[extra[i]] = extra[i+1]
	}
	return mustLookup(t, buildProgram(t, types), "T")
}

func mustLookup(t *testing.T, p *typegraph.Program, name string) typeinfo.TypeDescriptor {
	t.Helper()
	td, ok := p.Lookup(name)
	require.True(t, ok, "type %s not declared", name)
	return td
}

func requireSpecError(t *testing.T, err error, code spec.ErrorCode, msg string) *spec.SpecError {
	t.Helper()
	require.Error(t, err)
	var se *spec.SpecError
	require.True(t, errors.As(err, &se), "want *spec.SpecError, got %T", err)
	require.Equal(t, code, se.Code)
	if msg != "" {
		require.Equal(t, msg, se.Message)
	}
	return se
}
