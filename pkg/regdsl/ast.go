package regdsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the root of a register map source.
//
//	table enable { 0 = disabled; 1 = enabled; }
//	group sysclk {
//	    group pll {
//	        reg freq-doubler @ 0x0201 mask 0x01 format complex:enable;
//	        reg stability-period @ [0x0207, 0x0208, 0x0209]
//	            mask [0xFF, 0xFF, 0x0F] format int scaling 10e-3;
//	    }
//	}
type File struct {
	Pos     lexer.Position
	Entries []*Entry `@@*`
}

// Entry is one top level or group level statement.
type Entry struct {
	Pos   lexer.Position
	Table *TableDecl `  @@`
	Group *GroupDecl `| @@`
	Reg   *RegDecl   `| @@`
}

// TableDecl declares a symbol table usable by "format complex:<name>".
type TableDecl struct {
	Pos     lexer.Position
	Name    string        `"table" @Ident "{"`
	Entries []*TableEntry `@@* "}"`
}

// TableEntry maps one raw value to a label.
type TableEntry struct {
	Pos   lexer.Position
	Value string `@(Hex | Integer) "="`
	Label string `@(Ident | String) ";"?`
}

// GroupDecl is a named group of registers and nested groups.
type GroupDecl struct {
	Pos     lexer.Position
	Name    string   `"group" @Ident "{"`
	Entries []*Entry `@@* "}"`
}

// RegDecl is a single register field.
type RegDecl struct {
	Pos   lexer.Position
	Name  string   `"reg" @Ident "@"`
	Addr  *NumList `@@`
	Attrs []*Attr  `@@* ";"`
}

// NumList is either a single number or a bracketed list.
type NumList struct {
	Pos    lexer.Position
	Values []string `(  "[" @(Hex | Integer) ( "," @(Hex | Integer) )* ","? "]" | @(Hex | Integer) )`
}

// Attr is one optional register attribute.
type Attr struct {
	Pos     lexer.Position
	Mask    *NumList `  "mask" @@`
	Access  *string  `| "access" @Ident`
	Format  *string  `| "format" @Ident`
	Scaling *string  `| "scaling" @(Float | Integer)`
	Signed  bool     `| @"signed"`
	Doc     *string  `| "doc" @String`
}

// AssignmentList is a sequence of path = value statements separated by
// semicolons, commas or plain whitespace.
//
//	sysclk.pll.freq-doubler = enabled; sysclk.pll.fb-div-ratio = 0x40
type AssignmentList struct {
	Items []*Assignment `( @@ ( ";" | "," )? )*`
}

// Assignment sets one field.
type Assignment struct {
	Pos   lexer.Position
	Path  []string `@Ident ( "." @Ident )* "="`
	Value *Literal `@@`
}

// Literal is the right hand side of an assignment.
type Literal struct {
	Hex    *string `  @Hex`
	Float  *string `| @Float`
	Int    *string `| @Integer`
	String *string `| @String`
	Ident  *string `| @Ident`
}

// Text returns the literal as ParseValue expects it.
func (l *Literal) Text() string {
	switch {
	case l == nil:
		return ""
	case l.Hex != nil:
		return *l.Hex
	case l.Float != nil:
		return *l.Float
	case l.Int != nil:
		return *l.Int
	case l.String != nil:
		return *l.String
	case l.Ident != nil:
		return *l.Ident
	}
	return ""
}
