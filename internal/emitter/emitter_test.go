package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/hto/internal/spec"
)

func minimalDoc() *spec.Document {
	return &spec.Document{
		OpenAPI: "3.1.0",
		Info:    spec.Info{Title: "Sample API", Version: "1.0.0"},
		Paths: map[string]*spec.PathItem{
			"/hello": {Get: &spec.Operation{Responses: map[string]*spec.Response{
				"200": {Content: map[string]*spec.MediaType{
					"text/html": {Schema: &spec.Schema{Type: spec.TypeArray("string", "null")}},
				}},
			}}},
		},
		Components: spec.Components{Schemas: map[string]*spec.Schema{}},
	}
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path, explicit string
		want           Format
	}{
		{"swagger.json", "", FormatJSON},
		{"api.yaml", "", FormatYAML},
		{"api.YML", "", FormatYAML},
		{"-", "", FormatJSON},
		{"api.json", "yaml", FormatYAML},
		{"api.yaml", "JSON", FormatJSON},
	}
	for _, tc := range cases {
		got, err := ResolveFormat(tc.path, tc.explicit)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.path)
	}
	_, err := ResolveFormat("x", "toml")
	assert.Error(t, err)
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "swagger.json")

	res, err := Emit(context.Background(), minimalDoc(), Options{OutPath: out, DryRun: true})
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, FormatJSON, res.Format)
	assert.Equal(t, out, res.Planned.Path)
	assert.Greater(t, res.Planned.Size, 0)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "dry-run writes nothing")
}

func TestEmit_WriteJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "swagger.json")

	res, err := Emit(context.Background(), minimalDoc(), Options{OutPath: out})
	require.NoError(t, err)
	assert.True(t, res.Written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, res.Planned.Size, len(data))
	assert.True(t, strings.HasSuffix(string(data), "}\n"))
	assert.Contains(t, string(data), `"text/html"`, "html is not escaped")

	var doc spec.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Sample API", doc.Info.Title)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestEmit_WriteYAML(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "openapi.yaml")
	_, err := Emit(context.Background(), minimalDoc(), Options{OutPath: out})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc spec.Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "3.1.0", doc.OpenAPI)
	schema := doc.Paths["/hello"].Get.Responses["200"].Content["text/html"].Schema
	assert.Equal(t, spec.SchemaType{"string", "null"}, schema.Type)
}

func TestEmit_Stdout(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	res, err := Emit(context.Background(), minimalDoc(), Options{OutPath: Stdout, Compact: true, Stdout: &buf})
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestEmit_Cancelled(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "swagger.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Emit(ctx, minimalDoc(), Options{OutPath: out})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()
	for _, f := range []Format{FormatJSON, FormatYAML} {
		a, err := Render(minimalDoc(), f, false)
		require.NoError(t, err)
		b, err := Render(minimalDoc(), f, false)
		require.NoError(t, err)
		assert.Equal(t, a, b, f)
	}
}

func TestEmit_Errors(t *testing.T) {
	t.Parallel()
	_, err := Emit(context.Background(), nil, Options{OutPath: "x.json"})
	assert.Error(t, err)
	_, err = Emit(context.Background(), minimalDoc(), Options{})
	assert.Error(t, err)
	_, err = Emit(context.Background(), minimalDoc(), Options{OutPath: "x", Format: "toml"})
	assert.Error(t, err)
}
