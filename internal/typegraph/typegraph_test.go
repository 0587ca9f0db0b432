package typegraph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

func build(t *testing.T, types map[string]string) *Program {
	t.Helper()
	p, err := Build("test.yaml", types)
	require.NoError(t, err)
	return p
}

func lookup(t *testing.T, p *Program, name string) typeinfo.TypeDescriptor {
	t.Helper()
	td, ok := p.Lookup(name)
	require.True(t, ok, name)
	return td
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	p, err := Parse("app.yaml", []byte(`
types:
  User: |
    {
      id: string;       // primary key
      name?: string,
      "display name": string | null;
      [key: string]: unknown
    }
  AppType: '{ "/users": { $get: { input: {}; output: User[]; outputFormat: "json"; status: 200 } } }'
`))
	require.NoError(t, err)
	assert.Equal(t, "app.yaml", p.Source())
	assert.Equal(t, []string{"AppType", "User"}, p.Names())

	user := lookup(t, p, "User")
	assert.Equal(t, typeinfo.KindObject, user.Kind())
	assert.Equal(t, "User", user.Name())

	props := user.Properties()
	require.Len(t, props, 3)
	assert.Equal(t, "id", props[0].Name)
	assert.False(t, props[0].Optional)
	assert.Equal(t, "name", props[1].Name)
	assert.True(t, props[1].Optional)
	assert.Equal(t, "string | undefined", props[1].Type.String())
	assert.Equal(t, "display name", props[2].Name)
	assert.Equal(t, "string | null", props[2].Type.String())

	sigs := user.IndexSignatures()
	require.Len(t, sigs, 1)
	assert.Equal(t, typeinfo.KindString, sigs[0].Key.Kind())
	assert.Equal(t, typeinfo.KindUnknown, sigs[0].Value.Kind())

	app := lookup(t, p, "AppType")
	route, ok := app.PropertyType("/users")
	require.True(t, ok)
	get, ok := route.PropertyType("$get")
	require.True(t, ok)
	output, ok := get.PropertyType("output")
	require.True(t, ok)
	assert.True(t, output.IsArray())
	assert.Same(t, user, output.ElementType())
	status, _ := get.PropertyType("status")
	n, ok := typeinfo.NumberLiteral(status)
	require.True(t, ok)
	assert.Equal(t, float64(200), n)
	format, _ := get.PropertyType("outputFormat")
	s, ok := typeinfo.StringLiteral(format)
	require.True(t, ok)
	assert.Equal(t, "json", s)
}

func TestExpressions(t *testing.T) {
	t.Parallel()
	cases := []struct {
		expr string
		kind typeinfo.Kind
		str  string
	}{
		{expr: "string", kind: typeinfo.KindString, str: "string"},
		{expr: "string[][]", kind: typeinfo.KindArray, str: "string[][]"},
		{expr: "(string | number)[]", kind: typeinfo.KindArray, str: "(string | number)[]"},
		{expr: "| \"a\" | \"b\"", kind: typeinfo.KindUnion, str: `"a" | "b"`},
		{expr: "{ a: string } & { b: number }", kind: typeinfo.KindIntersection, str: "{ a: string; } & { b: number; }"},
		{expr: "-1.5", kind: typeinfo.KindLiteral, str: "-1.5"},
		{expr: "true", kind: typeinfo.KindLiteral, str: "true"},
		{expr: "object", kind: typeinfo.KindObject, str: "{}"},
		{expr: "string | (number | boolean)", kind: typeinfo.KindUnion, str: "string | number | boolean"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.expr, func(t *testing.T) {
			t.Parallel()
			p := build(t, map[string]string{"Wrapper": "{ v: " + tc.expr + " }"})
			v, ok := lookup(t, p, "Wrapper").PropertyType("v")
			require.True(t, ok)
			assert.Equal(t, tc.kind, v.Kind())
			assert.Equal(t, tc.str, v.String())
		})
	}
}

func TestAliasesAndRecursion(t *testing.T) {
	t.Parallel()
	p := build(t, map[string]string{
		"Node":   "{ value: string; children: Node[]; parent?: Node }",
		"Tree":   "Node",
		"Forest": "Tree[]",
	})
	node := lookup(t, p, "Node")
	assert.Same(t, node, lookup(t, p, "Tree"))

	children, _ := node.PropertyType("children")
	assert.Same(t, node, children.ElementType())

	forest := lookup(t, p, "Forest")
	assert.Equal(t, "Forest", forest.Name())
	assert.Same(t, node, forest.ElementType())
	assert.Equal(t, "Node", forest.ElementType().String())
	assert.Nil(t, node.Members())
}

func TestApparentProperties(t *testing.T) {
	t.Parallel()
	p := build(t, map[string]string{
		"A":      "{ id: string; a: number }",
		"B":      "{ id: string; b?: number }",
		"Both":   "A & B",
		"Either": "A | B",
	})
	both := lookup(t, p, "Both")
	var names []string
	for _, prop := range both.Properties() {
		names = append(names, prop.Name)
	}
	assert.Equal(t, []string{"id", "a", "b"}, names)

	either := lookup(t, p, "Either")
	props := either.Properties()
	require.Len(t, props, 1)
	assert.Equal(t, "id", props[0].Name)
	_, ok := either.PropertyType("a")
	assert.False(t, ok)
}

func TestAssignability(t *testing.T) {
	t.Parallel()
	p := build(t, map[string]string{
		"Str":      "string",
		"Num":      "number",
		"Int":      "integer",
		"Lit":      `"x"`,
		"LitUnion": `"x" | "y"`,
		"StrArr":   "string[]",
		"Mixed":    "string | number",
		"Any":      "any",
		"Never":    "never",
		"Point":    "{ x: number; y: number }",
		"Point3":   "{ x: number; y: number; z: number }",
		"Partial":  "{ x?: number }",
		"Dict":     "{ [key: string]: number }",
		"List":     "{ next?: List; v: string }",
		"List2":    "{ next?: List2; v: string }",
		"Whole":    "1",
		"Fraction": "1.5",
	})
	is := func(src, dst string) bool {
		return lookup(t, p, src).AssignableTo(lookup(t, p, dst))
	}
	assert.True(t, is("Lit", "Str"))
	assert.True(t, is("LitUnion", "Str"))
	assert.False(t, is("Str", "Lit"))
	assert.False(t, is("Mixed", "Str"))
	assert.True(t, is("Str", "Mixed"))
	assert.True(t, is("Str", "Any"))
	assert.True(t, is("Any", "Num"))
	assert.True(t, is("Never", "Str"))
	assert.False(t, is("StrArr", "Str"))
	assert.True(t, is("Int", "Num"))
	assert.False(t, is("Num", "Int"))
	assert.True(t, is("Whole", "Int"))
	assert.False(t, is("Fraction", "Int"))
	assert.True(t, is("Point3", "Point"))
	assert.False(t, is("Point", "Point3"))
	assert.True(t, is("Point", "Partial"))
	assert.True(t, is("Point", "Dict"))
	assert.True(t, is("List", "List2"))
	assert.True(t, is("List2", "List"))

	assert.True(t, lookup(t, p, "LitUnion").IsStringAssignable())
	assert.False(t, lookup(t, p, "Mixed").IsStringAssignable())
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()
	cases := map[string]map[string]string{
		"unknown type":       {"A": "{ b: Missing }"},
		"syntax":             {"A": "{ b: }"},
		"duplicate property": {"A": "{ b: string; b: number }"},
		"circular alias":     {"A": "B", "B": "A"},
		"reserved name":      {"string": "number"},
	}
	for name, types := range cases {
		types := types
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Build("bad.yaml", types)
			require.Error(t, err)
			var se *spec.SpecError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, spec.ParseError, se.Code)
			assert.Equal(t, "bad.yaml", se.Location)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := Parse("x.yaml", []byte("types: {}\nextra: 1\n"))
	assert.Equal(t, spec.ParseError, spec.CodeOf(err))
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "types.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"types": {"Id": "string"}}`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Source())
	assert.Equal(t, typeinfo.KindString, lookup(t, p, "Id").Kind())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, spec.InputError, spec.CodeOf(err))
}
