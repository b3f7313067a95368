package regmap

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/OpenTraceLab/ad954x/pkg/symtab"
)

// Descriptor is a normalized register or bit-field.
type Descriptor struct {
	Path      string
	Addresses []uint16 // index 0 holds the least significant byte
	Masks     []uint8  // one per address
	Access    Access
	Format    Format
	Scaling   float64 // 0 means unscaled
	Signed    bool
	Doc       string

	index int // declaration order
}

// Name returns the last path component.
func (d *Descriptor) Name() string {
	if i := strings.LastIndex(d.Path, PathSeparator); i >= 0 {
		return d.Path[i+1:]
	}
	return d.Path
}

// Writable reports whether the register may be written.
func (d *Descriptor) Writable() bool {
	return d.Access == ReadWrite
}

// Scaled reports whether the field decodes to a physical quantity.
func (d *Descriptor) Scaled() bool {
	return d.Scaling != 0 && d.Format.Kind == FormatInt
}

// Width returns the declared width in bits.
func (d *Descriptor) Width() int {
	n := len(d.Masks)
	if n == 1 {
		return bits.Len8(d.Masks[0]) - Shift(d.Masks[0])
	}
	return 8*(n-1) + bits.Len8(d.Masks[n-1])
}

// Position returns the byte index of addr within the field, or -1.
func (d *Descriptor) Position(addr uint16) int {
	for i, a := range d.Addresses {
		if a == addr {
			return i
		}
	}
	return -1
}

func (d *Descriptor) String() string {
	addrs := make([]string, len(d.Addresses))
	for i, a := range d.Addresses {
		addrs[i] = fmt.Sprintf("0x%04X/0x%02X", a, d.Masks[i])
	}
	return fmt.Sprintf("%s [%s] %s %s", d.Path, strings.Join(addrs, " "), d.Access, d.Format)
}

// Node is a node of the normalized tree.
type Node struct {
	Name     string
	Path     string
	Children []*Node
	Leaf     *Descriptor
}

// Range is a run of consecutive used addresses.
type Range struct {
	Start uint16
	End   uint16 // inclusive
}

func (r Range) String() string {
	return fmt.Sprintf("0x%04X-0x%04X", r.Start, r.End)
}

// Map is the normalized, immutable register map with its path and address
// indices.
type Map struct {
	root   *Node
	decl   *DeclNode
	tables symtab.Lookup

	byPath map[string]*Descriptor
	groups map[string]*Node
	byAddr map[uint16][]*Descriptor
	leaves []*Descriptor

	min, max uint16
}

// Build normalizes root and indexes it. tables may be nil, in which case
// every enumerated field decodes to Hex.
func Build(root *DeclNode, tables symtab.Lookup) (*Map, error) {
	norm, err := Normalize(root)
	if err != nil {
		return nil, err
	}

	m := &Map{
		decl:   norm,
		tables: tables,
		byPath: make(map[string]*Descriptor),
		groups: make(map[string]*Node),
		byAddr: make(map[uint16][]*Descriptor),
	}
	m.root, err = m.buildNode(norm, "")
	if err != nil {
		return nil, err
	}

	for i, d := range m.leaves {
		for j, a := range d.Addresses {
			if i == 0 && j == 0 || a < m.min {
				m.min = a
			}
			if i == 0 && j == 0 || a > m.max {
				m.max = a
			}
			// A field listing the same address twice is indexed once.
			if d.Position(a) == j {
				m.byAddr[a] = append(m.byAddr[a], d)
			}
		}
	}
	return m, nil
}

func (m *Map) buildNode(n *DeclNode, path string) (*Node, error) {
	node := &Node{Name: n.Name, Path: path}
	if n.Decl != nil {
		d, err := newDescriptor(path, n.Decl)
		if err != nil {
			return nil, err
		}
		d.index = len(m.leaves)
		m.leaves = append(m.leaves, d)
		m.byPath[path] = d
		node.Leaf = d
		return node, nil
	}

	m.groups[path] = node
	for _, c := range n.Children {
		child, err := m.buildNode(c, JoinPath(path, c.Name))
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func newDescriptor(path string, decl *Decl) (*Descriptor, error) {
	access, _ := ParseAccess(decl.Access)
	format, _ := ParseFormat(decl.Format)
	d := &Descriptor{
		Path:      path,
		Addresses: decl.Addr,
		Masks:     decl.Mask,
		Access:    access,
		Format:    format,
		Scaling:   decl.Scaling,
		Signed:    decl.Signed,
		Doc:       decl.Doc,
	}
	if format.Kind == FormatInt && !d.Signed && d.Width() > 63 {
		return nil, malformed(path, "unsigned int field of %d bits does not fit an Int", d.Width())
	}
	return d, nil
}

// Decl returns the normalized declaration tree the map was built from.
func (m *Map) Decl() *DeclNode {
	return m.decl
}

// Root returns the normalized tree.
func (m *Map) Root() *Node {
	return m.root
}

// Tables returns the symbol tables used for enumerated fields.
func (m *Map) Tables() symtab.Lookup {
	return m.tables
}

// Len returns the number of registers.
func (m *Map) Len() int {
	return len(m.leaves)
}

// Lookup returns the descriptor at path.
func (m *Map) Lookup(path string) (*Descriptor, error) {
	if d, ok := m.byPath[path]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
}

// Select returns every descriptor at or below path, in declaration order.
// The empty path selects the whole map.
func (m *Map) Select(path string) ([]*Descriptor, error) {
	if d, ok := m.byPath[path]; ok {
		return []*Descriptor{d}, nil
	}
	if _, ok := m.groups[path]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	if path == "" {
		return m.Descriptors(), nil
	}
	prefix := path + PathSeparator
	var out []*Descriptor
	for _, d := range m.leaves {
		if strings.HasPrefix(d.Path, prefix) {
			out = append(out, d)
		}
	}
	return out, nil
}

// ByAddress returns the descriptors using addr in declaration order, or
// nil when the address is unused.
func (m *Map) ByAddress(addr uint16) []*Descriptor {
	ds := m.byAddr[addr]
	if len(ds) == 0 {
		return nil
	}
	return append([]*Descriptor(nil), ds...)
}

// LookupAddress is ByAddress returning ErrAddressNotFound for unused
// addresses.
func (m *Map) LookupAddress(addr uint16) ([]*Descriptor, error) {
	ds := m.ByAddress(addr)
	if ds == nil {
		return nil, fmt.Errorf("%w: 0x%04X", ErrAddressNotFound, addr)
	}
	return ds, nil
}

// Uses reports whether any descriptor references addr.
func (m *Map) Uses(addr uint16) bool {
	return len(m.byAddr[addr]) > 0
}

// Descriptors returns all descriptors in declaration order.
func (m *Map) Descriptors() []*Descriptor {
	return append([]*Descriptor(nil), m.leaves...)
}

// Paths returns all register paths in declaration order.
func (m *Map) Paths() []string {
	out := make([]string, len(m.leaves))
	for i, d := range m.leaves {
		out[i] = d.Path
	}
	return out
}

// MinAddress returns the smallest address referenced by the map. An empty
// map reports 0.
func (m *Map) MinAddress() uint16 {
	return m.min
}

// MaxAddress returns the largest address referenced by the map. An empty
// map reports 0.
func (m *Map) MaxAddress() uint16 {
	return m.max
}

// Addresses returns every used address in ascending order.
func (m *Map) Addresses() []uint16 {
	out := make([]uint16, 0, len(m.byAddr))
	for a := range m.byAddr {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ranges returns the used addresses grouped into consecutive runs.
func (m *Map) Ranges() []Range {
	var out []Range
	for _, a := range m.Addresses() {
		if n := len(out); n > 0 && out[n-1].End+1 == a {
			out[n-1].End = a
			continue
		}
		out = append(out, Range{Start: a, End: a})
	}
	return out
}

// Walk visits the normalized tree depth-first in declaration order.
func (m *Map) Walk(fn func(n *Node, depth int) error) error {
	return walkNode(m.root, 0, fn)
}

func walkNode(n *Node, depth int, fn func(*Node, int) error) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walkNode(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
