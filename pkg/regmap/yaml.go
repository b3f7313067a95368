package regmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDecl is the on-disk form of a register. addr and mask accept either a
// scalar or a list.
type yamlDecl struct {
	Addr    numList `yaml:"addr"`
	Mask    numList `yaml:"mask,omitempty"`
	Access  string  `yaml:"access,omitempty"`
	Format  string  `yaml:"format,omitempty"`
	Scaling float64 `yaml:"scaling,omitempty"`
	Signed  bool    `yaml:"signed,omitempty"`
	Doc     string  `yaml:"doc,omitempty"`
}

type numList []uint64

func (l *numList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v uint64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*l = numList{v}
		return nil
	case yaml.SequenceNode:
		var vs []uint64
		if err := node.Decode(&vs); err != nil {
			return err
		}
		*l = vs
		return nil
	default:
		return fmt.Errorf("line %d: expected a number or a list of numbers", node.Line)
	}
}

// ParseYAML reads a declaration tree. Mappings containing an "addr" key are
// registers; every other mapping is a group. Key order is declaration order.
//
//	chip:
//	  type:
//	    addr: 0x0003
//	    access: ro
//	sysclk:
//	  pll:
//	    stability-period:
//	      addr: [0x0207, 0x0208, 0x0209]
//	      mask: [0xFF, 0xFF, 0x0F]
//	      format: int
//	      scaling: 10e-3
func ParseYAML(data []byte) (*DeclNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("regmap: parse yaml: %w", err)
	}
	root := Root()
	if len(doc.Content) == 0 {
		return root, nil
	}
	if err := parseYAMLGroup(root, "", doc.Content[0]); err != nil {
		return nil, err
	}
	return root, nil
}

func parseYAMLGroup(parent *DeclNode, path string, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return malformed(path, "line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		val := node.Content[i+1]
		childPath := JoinPath(path, name)

		if val.Kind != yaml.MappingNode {
			return malformed(childPath, "line %d: expected a mapping", val.Line)
		}
		if hasKey(val, "addr") {
			decl, err := parseYAMLDecl(childPath, val)
			if err != nil {
				return err
			}
			parent.Children = append(parent.Children, Leaf(name, decl))
			continue
		}
		group := Group(name)
		if err := parseYAMLGroup(group, childPath, val); err != nil {
			return err
		}
		parent.Children = append(parent.Children, group)
	}
	return nil
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func parseYAMLDecl(path string, node *yaml.Node) (Decl, error) {
	var y yamlDecl
	if err := node.Decode(&y); err != nil {
		return Decl{}, malformed(path, "%v", err)
	}
	d := Decl{
		Access:  y.Access,
		Format:  y.Format,
		Scaling: y.Scaling,
		Signed:  y.Signed,
		Doc:     y.Doc,
	}
	for _, a := range y.Addr {
		if a > 0xFFFF {
			return Decl{}, malformed(path, "address 0x%X out of range", a)
		}
		d.Addr = append(d.Addr, uint16(a))
	}
	for _, m := range y.Mask {
		if m > 0xFF {
			return Decl{}, malformed(path, "mask 0x%X out of range", m)
		}
		d.Mask = append(d.Mask, uint8(m))
	}
	return d, nil
}

// LoadYAML reads a declaration tree from a file.
func LoadYAML(path string) (*DeclNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regmap: read %s: %w", path, err)
	}
	root, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("regmap: load %s: %w", path, err)
	}
	return root, nil
}

// EncodeYAML renders a declaration tree in the form ParseYAML reads, with
// addresses and masks in hex.
func EncodeYAML(root *DeclNode) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode}
	doc.Content = append(doc.Content, yamlGroupNode(root))
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("regmap: encode yaml: %w", err)
	}
	return out, nil
}

func yamlGroupNode(n *DeclNode) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range n.Children {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: c.Name}
		if c.Decl != nil {
			m.Content = append(m.Content, key, yamlDeclNode(c.Decl))
			continue
		}
		m.Content = append(m.Content, key, yamlGroupNode(c))
	}
	return m
}

func yamlDeclNode(d *Decl) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, val *yaml.Node) {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, val)
	}
	hexScalar := func(v uint64, digits int) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("0x%0*X", digits, v)}
	}

	if len(d.Addr) == 1 {
		add("addr", hexScalar(uint64(d.Addr[0]), 4))
	} else {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, a := range d.Addr {
			seq.Content = append(seq.Content, hexScalar(uint64(a), 4))
		}
		add("addr", seq)
	}
	switch len(d.Mask) {
	case 0:
	case 1:
		add("mask", hexScalar(uint64(d.Mask[0]), 2))
	default:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, mk := range d.Mask {
			seq.Content = append(seq.Content, hexScalar(uint64(mk), 2))
		}
		add("mask", seq)
	}
	if d.Access != "" {
		add("access", &yaml.Node{Kind: yaml.ScalarNode, Value: d.Access})
	}
	if d.Format != "" {
		add("format", &yaml.Node{Kind: yaml.ScalarNode, Value: d.Format})
	}
	if d.Scaling != 0 {
		add("scaling", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: fmt.Sprintf("%g", d.Scaling)})
	}
	if d.Signed {
		add("signed", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"})
	}
	if d.Doc != "" {
		add("doc", &yaml.Node{Kind: yaml.ScalarNode, Value: d.Doc})
	}
	return m
}
