package typegraph

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Array", Pattern: `\[\]`},
	{Name: "Ident", Pattern: `[a-zA-Z_$][\w$]*`},
	{Name: "Punct", Pattern: `[{}()\[\]|&:;,?]`},
	{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
})

var exprParser = participle.MustBuild[unionExpr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

type unionExpr struct {
	Members []*intersectionExpr `parser:"'|'? @@ ( '|' @@ )*"`
}

type intersectionExpr struct {
	Members []*postfixExpr `parser:"@@ ( '&' @@ )*"`
}

type postfixExpr struct {
	Primary *primaryExpr `parser:"@@"`
	Arrays  []string     `parser:"@Array*"`
}

type primaryExpr struct {
	Object *objectExpr `parser:"  @@"`
	Group  *unionExpr  `parser:"| '(' @@ ')'"`
	String *string     `parser:"| @String"`
	Number *float64    `parser:"| @Number"`
	Name   string      `parser:"| @Ident"`
}

type objectExpr struct {
	Members []*memberExpr `parser:"'{' ( @@ ( ';' | ',' )? )* '}'"`
}

type memberExpr struct {
	Index    *indexExpr    `parser:"  @@"`
	Property *propertyExpr `parser:"| @@"`
}

type indexExpr struct {
	KeyName string     `parser:"'[' @Ident ':'"`
	Key     *unionExpr `parser:"@@ ']' ':'"`
	Value   *unionExpr `parser:"@@"`
}

type propertyExpr struct {
	Name     string     `parser:"( @Ident | @String )"`
	Optional bool       `parser:"@'?'?"`
	Type     *unionExpr `parser:"':' @@"`
}

func parseExpr(name, src string) (*unionExpr, error) {
	return exprParser.ParseString(name, src)
}
