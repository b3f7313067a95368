package regdsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

const indentUnit = "    "

// Write renders tables and a declaration tree in the form Parser reads.
func Write(w io.Writer, root *regmap.DeclNode, tables []*symtab.Table) error {
	var b strings.Builder
	for _, t := range tables {
		writeTable(&b, t)
	}
	if root != nil {
		for _, c := range root.Children {
			writeNode(&b, c, 0)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Format returns the rendering produced by Write.
func Format(root *regmap.DeclNode, tables []*symtab.Table) string {
	var b strings.Builder
	_ = Write(&b, root, tables)
	return b.String()
}

func writeTable(b *strings.Builder, t *symtab.Table) {
	fmt.Fprintf(b, "table %s {\n", t.Name())
	for _, e := range t.Entries() {
		fmt.Fprintf(b, "%s%d = %s;\n", indentUnit, e.Value, label(e.Label))
	}
	b.WriteString("}\n\n")
}

func label(s string) string {
	if s != "" && isIdent(s) {
		return s
	}
	return strconv.Quote(s)
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func writeNode(b *strings.Builder, n *regmap.DeclNode, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	if n.Decl == nil {
		fmt.Fprintf(b, "%sgroup %s {\n", indent, n.Name)
		for _, c := range n.Children {
			writeNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
		return
	}

	d := n.Decl
	fmt.Fprintf(b, "%sreg %s @ %s", indent, n.Name, numList(toU64(d.Addr), 4))
	if len(d.Mask) > 0 && !allFF(d.Mask) {
		fmt.Fprintf(b, " mask %s", numList(masksU64(d.Mask), 2))
	}
	if d.Access != "" && d.Access != regmap.ReadWrite.String() {
		fmt.Fprintf(b, " access %s", d.Access)
	}
	if d.Format != "" && d.Format != "hex" {
		fmt.Fprintf(b, " format %s", d.Format)
	}
	if d.Scaling != 0 {
		fmt.Fprintf(b, " scaling %s", strconv.FormatFloat(d.Scaling, 'g', -1, 64))
	}
	if d.Signed {
		b.WriteString(" signed")
	}
	if d.Doc != "" {
		fmt.Fprintf(b, " doc %s", strconv.Quote(d.Doc))
	}
	b.WriteString(";\n")
}

func allFF(masks []uint8) bool {
	for _, m := range masks {
		if m != 0xFF {
			return false
		}
	}
	return true
}

func toU64(addrs []uint16) []uint64 {
	out := make([]uint64, len(addrs))
	for i, a := range addrs {
		out[i] = uint64(a)
	}
	return out
}

func masksU64(masks []uint8) []uint64 {
	out := make([]uint64, len(masks))
	for i, m := range masks {
		out[i] = uint64(m)
	}
	return out
}

func numList(vs []uint64, digits int) string {
	if len(vs) == 1 {
		return fmt.Sprintf("0x%0*X", digits, vs[0])
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("0x%0*X", digits, v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
