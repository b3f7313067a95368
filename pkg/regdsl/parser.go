package regdsl

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

// Parser parses register map sources and assignment lists.
type Parser struct {
	file    *participle.Parser[File]
	assigns *participle.Parser[AssignmentList]
}

// NewParser creates a new parser.
func NewParser() (*Parser, error) {
	opts := []participle.Option{
		participle.Lexer(RegLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	}
	file, err := participle.Build[File](opts...)
	if err != nil {
		return nil, fmt.Errorf("regdsl: build grammar: %w", err)
	}
	assigns, err := participle.Build[AssignmentList](opts...)
	if err != nil {
		return nil, fmt.Errorf("regdsl: build assignment grammar: %w", err)
	}
	return &Parser{file: file, assigns: assigns}, nil
}

// Parse parses a register map source from a reader.
func (p *Parser) Parse(filename string, r io.Reader) (*File, error) {
	f, err := p.file.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("regdsl: parse error: %w", err)
	}
	return f, nil
}

// ParseString parses a register map source held in memory.
func (p *Parser) ParseString(filename, src string) (*File, error) {
	f, err := p.file.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("regdsl: parse error: %w", err)
	}
	return f, nil
}

// ParseFile parses a register map source file.
func (p *Parser) ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("regdsl: %w", err)
	}
	defer fh.Close()
	return p.Parse(path, fh)
}

// Source is a converted register map source.
type Source struct {
	Root   *regmap.DeclNode
	Tables []*symtab.Table
}

// Registry returns the source's tables layered over base. Tables declared
// in the source shadow base tables of the same name.
func (s *Source) Registry(base symtab.Lookup) symtab.Lookup {
	return layered{symtab.NewRegistry(s.Tables...), base}
}

type layered []symtab.Lookup

func (l layered) Table(name string) (*symtab.Table, bool) {
	for _, t := range l {
		if t == nil {
			continue
		}
		if tab, ok := t.Table(name); ok {
			return tab, true
		}
	}
	return nil, false
}

// Build compiles the source into a register map, resolving enum formats
// against the source's own tables first and then base.
func (s *Source) Build(base symtab.Lookup) (*regmap.Map, error) {
	return regmap.Build(s.Root, s.Registry(base))
}

// Convert turns a parsed file into a declaration tree plus symbol tables.
func Convert(f *File) (*Source, error) {
	src := &Source{Root: regmap.Root()}
	seen := make(map[string]bool)
	if err := convertEntries(src, src.Root, f.Entries, seen); err != nil {
		return nil, err
	}
	return src, nil
}

func convertEntries(src *Source, parent *regmap.DeclNode, entries []*Entry, tables map[string]bool) error {
	for _, e := range entries {
		switch {
		case e.Table != nil:
			t, err := convertTable(e.Table)
			if err != nil {
				return err
			}
			if tables[t.Name()] {
				return posError(e.Table.Pos, "table %q declared twice", t.Name())
			}
			tables[t.Name()] = true
			src.Tables = append(src.Tables, t)
		case e.Group != nil:
			g := regmap.Group(e.Group.Name)
			if err := convertEntries(src, g, e.Group.Entries, tables); err != nil {
				return err
			}
			parent.Children = append(parent.Children, g)
		case e.Reg != nil:
			d, err := convertReg(e.Reg)
			if err != nil {
				return err
			}
			parent.Children = append(parent.Children, regmap.Leaf(e.Reg.Name, d))
		}
	}
	return nil
}

func convertTable(td *TableDecl) (*symtab.Table, error) {
	entries := make(map[uint64]string, len(td.Entries))
	for _, te := range td.Entries {
		v, err := strconv.ParseUint(te.Value, 0, 64)
		if err != nil {
			return nil, posError(te.Pos, "table %s: bad value %q", td.Name, te.Value)
		}
		if _, dup := entries[v]; dup {
			return nil, posError(te.Pos, "table %s: value %s listed twice", td.Name, te.Value)
		}
		entries[v] = te.Label
	}
	return symtab.New(td.Name, entries), nil
}

func convertReg(rd *RegDecl) (regmap.Decl, error) {
	var d regmap.Decl
	addrs, err := numbers(rd.Addr, 0xFFFF)
	if err != nil {
		return d, posError(rd.Pos, "reg %s: address %v", rd.Name, err)
	}
	for _, a := range addrs {
		d.Addr = append(d.Addr, uint16(a))
	}
	for _, a := range rd.Attrs {
		switch {
		case a.Mask != nil:
			masks, err := numbers(a.Mask, 0xFF)
			if err != nil {
				return d, posError(a.Pos, "reg %s: mask %v", rd.Name, err)
			}
			d.Mask = d.Mask[:0]
			for _, m := range masks {
				d.Mask = append(d.Mask, uint8(m))
			}
		case a.Access != nil:
			d.Access = *a.Access
		case a.Format != nil:
			d.Format = *a.Format
		case a.Scaling != nil:
			s, err := strconv.ParseFloat(*a.Scaling, 64)
			if err != nil {
				return d, posError(a.Pos, "reg %s: bad scaling %q", rd.Name, *a.Scaling)
			}
			d.Scaling = s
		case a.Signed:
			d.Signed = true
		case a.Doc != nil:
			d.Doc = *a.Doc
		}
	}
	return d, nil
}

func numbers(l *NumList, limit uint64) ([]uint64, error) {
	out := make([]uint64, 0, len(l.Values))
	for _, s := range l.Values {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an unsigned number", s)
		}
		if v > limit {
			return nil, fmt.Errorf("0x%X out of range", v)
		}
		out = append(out, v)
	}
	return out, nil
}

func posError(pos lexer.Position, format string, args ...any) error {
	return fmt.Errorf("regdsl: %s: %s", pos, fmt.Sprintf(format, args...))
}

// ParseSource parses and converts a register map source in one step.
func (p *Parser) ParseSource(filename, src string) (*Source, error) {
	f, err := p.ParseString(filename, src)
	if err != nil {
		return nil, err
	}
	return Convert(f)
}

// LoadFile parses and converts a register map source file.
func (p *Parser) LoadFile(path string) (*Source, error) {
	f, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Convert(f)
}

// Setting is one parsed path = value pair. Text is left uninterpreted until
// Resolve binds it to a field.
type Setting struct {
	Pos  lexer.Position
	Path string
	Text string
}

// ParseAssignments parses a list of path = value statements.
func (p *Parser) ParseAssignments(filename, src string) ([]Setting, error) {
	list, err := p.assigns.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("regdsl: parse error: %w", err)
	}
	out := make([]Setting, 0, len(list.Items))
	for _, a := range list.Items {
		out = append(out, Setting{
			Pos:  a.Pos,
			Path: strings.Join(a.Path, regmap.PathSeparator),
			Text: a.Value.Text(),
		})
	}
	return out, nil
}

// Resolve interprets settings against a map. Later settings of the same
// path replace earlier ones.
func Resolve(m *regmap.Map, settings []Setting) (map[string]regmap.Value, error) {
	out := make(map[string]regmap.Value, len(settings))
	for _, s := range settings {
		d, err := m.Lookup(s.Path)
		if err != nil {
			return nil, fmt.Errorf("regdsl: %s: %w", s.Pos, err)
		}
		v, err := m.ParseValue(d, s.Text)
		if err != nil {
			return nil, fmt.Errorf("regdsl: %s: %w", s.Pos, err)
		}
		out[s.Path] = v
	}
	return out, nil
}
