// Package symtab holds the named integer-to-label tables used to render
// enumerated register fields ("complex" formats) as readable text.
package symtab

import (
	"sort"
	"strings"
)

// Separator joins the components of a namespaced table name, e.g.
// "pin:logics" or "comp:dpll:selector".
const Separator = ":"

// Entry is a single value/label pair of a Table.
type Entry struct {
	Value uint64
	Label string
}

// Table is an immutable mapping from small non-negative integers to labels.
// The reverse direction (label to value) is used when encoding user input.
type Table struct {
	name   string
	labels map[uint64]string
	values map[string]uint64
	keys   []uint64
}

// New builds a table from value/label pairs. When two values share a label,
// the reverse lookup resolves to the smaller value.
func New(name string, entries map[uint64]string) *Table {
	t := &Table{
		name:   name,
		labels: make(map[uint64]string, len(entries)),
		values: make(map[string]uint64, len(entries)),
	}
	for v, label := range entries {
		t.labels[v] = label
		t.keys = append(t.keys, v)
	}
	sort.Slice(t.keys, func(i, j int) bool { return t.keys[i] < t.keys[j] })
	for _, v := range t.keys {
		label := t.labels[v]
		if _, dup := t.values[label]; !dup {
			t.values[label] = v
		}
	}
	return t
}

// Name returns the (possibly namespaced) table name.
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// Label returns the label for v.
func (t *Table) Label(v uint64) (string, bool) {
	label, ok := t.labels[v]
	return label, ok
}

// Value returns the value carrying label. An exact match wins; otherwise the
// comparison is case-insensitive.
func (t *Table) Value(label string) (uint64, bool) {
	if v, ok := t.values[label]; ok {
		return v, true
	}
	for _, v := range t.keys {
		if strings.EqualFold(t.labels[v], label) {
			return v, true
		}
	}
	return 0, false
}

// Entries returns all pairs ordered by value.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.keys))
	for _, v := range t.keys {
		out = append(out, Entry{Value: v, Label: t.labels[v]})
	}
	return out
}

// JoinName builds a namespaced table name.
func JoinName(parts ...string) string {
	return strings.Join(parts, Separator)
}
