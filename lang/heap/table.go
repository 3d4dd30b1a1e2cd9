package heap

import "github.com/dolthub/swiss"

// Table is an open-addressed string-keyed table, backing every name
// lookup in the VM: globals, class method tables, and instance field
// tables (the latter also backing array and map literals, per §4.3).
type Table[V any] struct {
	m *swiss.Map[string, V]
}

// NewTable returns a Table with initial capacity for at least size
// entries.
func NewTable[V any](size int) *Table[V] {
	if size < 1 {
		size = 1
	}
	return &Table[V]{m: swiss.NewMap[string, V](uint32(size))}
}

func (t *Table[V]) Get(name string) (V, bool) {
	return t.m.Get(name)
}

func (t *Table[V]) Set(name string, v V) {
	t.m.Put(name, v)
}

func (t *Table[V]) Delete(name string) bool {
	return t.m.Delete(name)
}

func (t *Table[V]) Len() int { return t.m.Count() }

// Each calls fn for every entry. Iteration order is unspecified; callers
// that need a deterministic order (e.g. stringifying a classless
// instance) must collect and sort the keys themselves.
func (t *Table[V]) Each(fn func(name string, v V)) {
	t.m.Iter(func(k string, v V) bool {
		fn(k, v)
		return false
	})
}

// Keys returns the table's keys in unspecified order.
func (t *Table[V]) Keys() []string {
	keys := make([]string, 0, t.Len())
	t.Each(func(name string, _ V) { keys = append(keys, name) })
	return keys
}

// NameTable is a class's method table: names map to closures only, per
// the invariant in §3 that the method table never stores a non-closure
// value.
type NameTable = Table[*Closure]

// FieldTable is an instance's field table, and a VM's globals table.
type FieldTable = Table[Value]
