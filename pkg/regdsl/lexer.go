package regdsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// RegLexer tokenizes register map sources and assignment lists.
// Keywords are plain identifiers so that registers may be named "mask" or
// "type" without quoting.
var RegLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Shell and C++ style line comments
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},

	// Numbers. Hex must precede Integer or "0x1F" lexes as "0" "x1F".
	{Name: "Hex", Pattern: `0[xX][0-9a-fA-F]+`},
	{Name: "Float", Pattern: `[-+]?(?:[0-9]+\.[0-9]*(?:[eE][-+]?[0-9]+)?|[0-9]+[eE][-+]?[0-9]+)`},
	{Name: "Integer", Pattern: `[-+]?[0-9]+`},

	// Identifiers carry dashes (freq-doubler) and colon separated
	// qualifiers (complex:comp:dpll:selector).
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*(?::[a-zA-Z0-9_\-]+)*`},

	{Name: "Punct", Pattern: `[{}\[\],;@=.]`},
})
