package regmap

import (
	"math"
	"strings"
)

// MaxAddresses bounds the number of bytes a single field may span.
const MaxAddresses = 8

// PathSeparator joins group and leaf names into a path.
const PathSeparator = "."

// Decl is the terse declaration of one register or bit-field. Mask, Access
// and Format may be left empty; a one-element Mask applies to Addr[0] and
// the remaining bytes default to 0xFF.
type Decl struct {
	Addr    []uint16
	Mask    []uint8
	Access  string
	Format  string
	Scaling float64 // 0 means unscaled
	Signed  bool
	Doc     string
}

// DeclNode is a node of the declaration tree: a group when Decl is nil, a
// leaf otherwise. Children keep declaration order.
type DeclNode struct {
	Name     string
	Decl     *Decl
	Children []*DeclNode
}

// IsLeaf reports whether n declares a register.
func (n *DeclNode) IsLeaf() bool {
	return n.Decl != nil
}

// Leaf declares a register.
func Leaf(name string, d Decl) *DeclNode {
	return &DeclNode{Name: name, Decl: &d}
}

// Group declares a named namespace.
func Group(name string, children ...*DeclNode) *DeclNode {
	return &DeclNode{Name: name, Children: children}
}

// Root returns the unnamed top-level group.
func Root(children ...*DeclNode) *DeclNode {
	return &DeclNode{Children: children}
}

// A is shorthand for an address list.
func A(addrs ...uint16) []uint16 {
	return addrs
}

// M is shorthand for a mask list.
func M(masks ...uint8) []uint8 {
	return masks
}

// JoinPath appends name to a group path.
func JoinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + PathSeparator + name
}

// Normalize returns a fully-specified deep copy of root: every leaf gets an
// address list, a mask per address, an access mode and a format. Normalizing
// a normalized tree returns an identical tree.
func Normalize(root *DeclNode) (*DeclNode, error) {
	if root == nil {
		return nil, malformed("", "nil declaration tree")
	}
	return normalizeNode(root, "", true, make(map[string]bool))
}

func normalizeNode(n *DeclNode, path string, top bool, seen map[string]bool) (*DeclNode, error) {
	if n == nil {
		return nil, malformed(path, "nil node")
	}
	if !top {
		if n.Name == "" {
			return nil, malformed(strings.TrimSuffix(path, PathSeparator), "empty name")
		}
		if strings.Contains(n.Name, PathSeparator) {
			return nil, malformed(path, "name %q contains %q", n.Name, PathSeparator)
		}
		if seen[path] {
			return nil, malformed(path, "duplicate path")
		}
		seen[path] = true
	}

	out := &DeclNode{Name: n.Name}
	if n.Decl != nil {
		if len(n.Children) > 0 {
			return nil, malformed(path, "register cannot have children")
		}
		d, err := normalizeDecl(*n.Decl, path)
		if err != nil {
			return nil, err
		}
		out.Decl = &d
		return out, nil
	}

	out.Children = make([]*DeclNode, 0, len(n.Children))
	for _, child := range n.Children {
		name := ""
		if child != nil {
			name = child.Name
		}
		c, err := normalizeNode(child, JoinPath(path, name), false, seen)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, c)
	}
	return out, nil
}

func normalizeDecl(d Decl, path string) (Decl, error) {
	n := len(d.Addr)
	if n == 0 {
		return Decl{}, malformed(path, "empty address list")
	}
	if n > MaxAddresses {
		return Decl{}, malformed(path, "%d addresses exceeds the limit of %d", n, MaxAddresses)
	}

	out := d
	out.Addr = append([]uint16(nil), d.Addr...)

	switch {
	case len(d.Mask) == 0:
		out.Mask = make([]uint8, n)
		for i := range out.Mask {
			out.Mask[i] = 0xFF
		}
	case len(d.Mask) == n:
		out.Mask = append([]uint8(nil), d.Mask...)
	case len(d.Mask) == 1:
		out.Mask = make([]uint8, n)
		out.Mask[0] = d.Mask[0]
		for i := 1; i < n; i++ {
			out.Mask[i] = 0xFF
		}
	default:
		return Decl{}, malformed(path, "%d masks for %d addresses", len(d.Mask), n)
	}
	for i, m := range out.Mask {
		if m == 0 {
			return Decl{}, malformed(path, "zero mask for address 0x%04X", out.Addr[i])
		}
	}

	access, err := ParseAccess(d.Access)
	if err != nil {
		return Decl{}, malformed(path, "%v", err)
	}
	out.Access = access.String()

	format, err := ParseFormat(d.Format)
	if err != nil {
		return Decl{}, malformed(path, "%v", err)
	}
	out.Format = format.String()

	if math.IsNaN(d.Scaling) || math.IsInf(d.Scaling, 0) || d.Scaling < 0 {
		return Decl{}, malformed(path, "invalid scaling %v", d.Scaling)
	}
	return out, nil
}

// Walk visits every node depth-first in declaration order with its path.
func (n *DeclNode) Walk(fn func(path string, node *DeclNode) error) error {
	return walkDecl(n, "", fn)
}

func walkDecl(n *DeclNode, path string, fn func(string, *DeclNode) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walkDecl(c, JoinPath(path, c.Name), fn); err != nil {
			return err
		}
	}
	return nil
}
