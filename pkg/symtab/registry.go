package symtab

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Lookup resolves a table by name. Decoders only ever need this view.
type Lookup interface {
	Table(name string) (*Table, bool)
}

// Registry is a concurrency-safe set of named tables. It is filled once at
// startup and read by every decode afterwards.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewRegistry creates a registry holding the provided tables.
func NewRegistry(tables ...*Table) *Registry {
	r := &Registry{tables: make(map[string]*Table)}
	for _, t := range tables {
		r.tables[t.Name()] = t
	}
	return r
}

// Add registers t. A second table with the same name is rejected.
func (r *Registry) Add(t *Table) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("symtab: invalid table")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.Name()]; ok {
		return fmt.Errorf("symtab: duplicate table %q", t.Name())
	}
	r.tables[t.Name()] = t
	return nil
}

// Table implements Lookup.
func (r *Registry) Table(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Names returns the registered table names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadYAML parses table definitions and adds them to the registry. The
// document maps table names to value/label mappings; nested mappings whose
// keys are not integers open a namespace:
//
//	enable:
//	  0: disabled
//	  1: enabled
//	pin:
//	  logics:
//	    0: cml
//	    1: hcsl
func (r *Registry) LoadYAML(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("symtab: parse: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	return r.loadNode(nil, doc.Content[0])
}

func (r *Registry) loadNode(prefix []string, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("symtab: line %d: expected a mapping", node.Line)
	}
	if isTableNode(node) {
		entries := make(map[uint64]string, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var v uint64
			if err := node.Content[i].Decode(&v); err != nil {
				return fmt.Errorf("symtab: line %d: %w", node.Content[i].Line, err)
			}
			entries[v] = node.Content[i+1].Value
		}
		return r.Add(New(JoinName(prefix...), entries))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if err := r.loadNode(append(prefix[:len(prefix):len(prefix)], name), node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// isTableNode reports whether every key of the mapping is an integer and
// every value a scalar.
func isTableNode(node *yaml.Node) bool {
	if len(node.Content) == 0 {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].ShortTag() != "!!int" || node.Content[i+1].Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}

// LoadDir loads every .yaml/.yml file below root.
func (r *Registry) LoadDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("symtab: read %s: %w", path, err)
		}
		if err := r.LoadYAML(data); err != nil {
			return fmt.Errorf("symtab: load %s: %w", path, err)
		}
		return nil
	})
}
