package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalTypesYAML = "" +
	"types:\n" +
	"  User: '{ id: string; name: string; email?: string | null }'\n" +
	"  AppType: |\n" +
	"    {\n" +
	"      \"/api/user/:id{\\\\d+}\": {\n" +
	"        $get: { input: { param: { id: string } }; output: User; outputFormat: \"json\"; status: 200 };\n" +
	"        $delete: { input: { param: { id: string } }; output: {}; outputFormat: string; status: number }\n" +
	"      };\n" +
	"      \"/hello\": {\n" +
	"        $get: { input: { query: { name?: string } }; output: string; outputFormat: \"text\"; status: 200 }\n" +
	"      }\n" +
	"    }\n"

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeTypes(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "types.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write types: %v", err)
	}
	return path
}

func execRoot(args ...string) error {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	types := writeTypes(t, dir, minimalTypesYAML)
	out := filepath.Join(dir, "out", "swagger.json")

	stdout := captureStdout(func() {
		if err := execRoot("generate", "--title", "Test API", "--app-file", types, "--output", out, "--dry-run"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(stdout, "Planned writes to") || !strings.Contains(stdout, "swagger.json") {
		t.Fatalf("expected dry-run plan output, got: %s", stdout)
	}
	// Dry-run should not create the directory
	if _, err := os.Stat(filepath.Dir(out)); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	types := writeTypes(t, dir, minimalTypesYAML)
	out := filepath.Join(dir, "swagger.json")

	stdout := captureStdout(func() {
		if err := execRoot("generate", "-t", "Test API", "-a", types, "-s", out); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(stdout, "Wrote "+out) {
		t.Fatalf("expected write report, got: %s", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", doc["openapi"])
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/api/user/{id}", "/hello"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("missing path %s in %v", p, paths)
		}
	}
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	if _, ok := schemas["User"]; !ok {
		t.Errorf("missing User component: %v", schemas)
	}
}

func TestGeneratePipeline_YAMLFilteredAndValidated(t *testing.T) {
	dir := t.TempDir()
	types := writeTypes(t, dir, minimalTypesYAML)
	out := filepath.Join(dir, "openapi.yaml")

	captureStdout(func() {
		err := execRoot("generate", "-t", "Test API", "-a", types, "-s", out,
			"--openapi", "3.0", "--validate", "--method", "get", "--path-pattern", "^/api/")
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "openapi: 3.0.0\n") {
		t.Fatalf("expected a YAML 3.0 document, got:\n%s", s)
	}
	if strings.Contains(s, "/hello") || strings.Contains(s, "delete:") {
		t.Fatalf("filters were not applied:\n%s", s)
	}
}

func TestGeneratePipeline_Stdout(t *testing.T) {
	dir := t.TempDir()
	types := writeTypes(t, dir, minimalTypesYAML)

	stdout := captureStdout(func() {
		if err := execRoot("generate", "-t", "Test API", "-a", types, "-s", "-"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	// A pipe is not a terminal, so the document is compact.
	if strings.Count(stdout, "\n") != 1 || !strings.HasPrefix(stdout, `{"openapi":"3.1.0"`) {
		t.Fatalf("expected one compact JSON line, got: %s", stdout)
	}
}

func TestGeneratePipeline_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := execRoot("generate", "-t", "T", "-a", filepath.Join(dir, "nope.yaml"), "--dry-run")
		if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "InputError") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing type", func(t *testing.T) {
		types := writeTypes(t, t.TempDir(), minimalTypesYAML)
		err := execRoot("generate", "-t", "T", "-a", types, "-n", "Missing", "--dry-run")
		if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), `type "Missing" not found`) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid parameter", func(t *testing.T) {
		types := writeTypes(t, t.TempDir(), "types:\n"+
			"  AppType: '{ \"/x\": { $get: { input: { header: { n: number } }; output: {}; outputFormat: \"json\"; status: 200 } } }'\n")
		err := execRoot("generate", "-t", "T", "-a", types, "--dry-run")
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("expected usage error, got %v", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "InvalidType: Path parameter, header or cookie must be string type") || !strings.Contains(msg, "Location: /x GET") {
			t.Fatalf("unexpected error text: %s", msg)
		}
	})
}
