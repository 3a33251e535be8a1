package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// This module parses entry-point call expressions submitted by wallets and
// the CLI, e.g.
//
//	insert(100)
//	smash()
//	view()
//
// One expression per invocation: a call name plus zero or more literal
// arguments. Need to tokenize to the minimum unit before parsing.

var CallLexer = lexer.MustSimple([]lexer.Rule{
	{Name: `Ident`, Pattern: `[a-zA-Z][a-zA-Z0-9_]*`},
	{Name: `String`, Pattern: `"(.*?)"`},
	{Name: `Float`, Pattern: `\d+(?:\.\d+)?`},
	{Name: "comment", Pattern: `[#;][^\n]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Call is a single entry-point invocation.
type Call struct {
	Name string   `parser:"@Ident"`
	Args []*Value `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

type Value struct {
	String *string  `parser:"@String"`
	Number *float64 `parser:"| @Float"`
}

var callParser = participle.MustBuild(&Call{},
	participle.Lexer(CallLexer),
	participle.Unquote("String"),
)

func Parse(expr string) (Call, error) {
	ast := &Call{}
	err := callParser.ParseString("", strings.TrimSpace(expr), ast)
	return *ast, err
}

// Amount returns the i-th argument as a whole coin amount.
func (c Call) Amount(i int) (uint64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("%s: missing argument %d", c.Name, i)
	}
	v := c.Args[i]
	if v.Number == nil {
		return 0, fmt.Errorf("%s: argument %d is not a number", c.Name, i)
	}
	n := *v.Number
	if n != float64(uint64(n)) {
		return 0, fmt.Errorf("%s: argument %d is not a whole non-negative amount", c.Name, i)
	}
	return uint64(n), nil
}

func (c Call) String() string {
	var args []string
	for _, v := range c.Args {
		args = append(args, v.Literal())
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// Literal renders the value back to source form. The String field takes
// the usual Stringer name.
func (v *Value) Literal() string {
	if v.String != nil {
		return fmt.Sprintf("%q", *v.String)
	}
	if v.Number != nil {
		return fmt.Sprintf("%v", *v.Number)
	}
	return "<nil>"
}
