// Package slotmap is a generation-counted slot map, used wherever the
// original Rust implementation relies on an ArcGuard weak back-reference
// (async-coap/src/arc_guard.rs) from the response tracker to a live
// transaction: a transaction registers itself and hands out a Key, the
// tracker looks transactions up by Key and silently treats a stale
// generation as "gone" instead of needing a reference count.
package slotmap

// Key names one slot at the generation it was allocated with. A Key
// whose generation no longer matches the slot's current generation
// refers to a since-freed (or reused) entry.
type Key struct {
	index      int
	generation uint64
}

type entry[T any] struct {
	value      T
	generation uint64
	occupied   bool
}

// Map is a slot map parameterized over the stored value type. The zero
// value is ready to use.
type Map[T any] struct {
	entries []entry[T]
	free    []int
}

// Insert stores value and returns a Key that remains valid until the
// corresponding Remove.
func (m *Map[T]) Insert(value T) Key {
	if n := len(m.free); n > 0 {
		i := m.free[n-1]
		m.free = m.free[:n-1]
		m.entries[i].value = value
		m.entries[i].occupied = true
		return Key{index: i, generation: m.entries[i].generation}
	}
	m.entries = append(m.entries, entry[T]{value: value, generation: 1, occupied: true})
	return Key{index: len(m.entries) - 1, generation: 1}
}

// Get returns the value at key and whether it is still live.
func (m *Map[T]) Get(key Key) (T, bool) {
	var zero T
	if key.index < 0 || key.index >= len(m.entries) {
		return zero, false
	}
	e := &m.entries[key.index]
	if !e.occupied || e.generation != key.generation {
		return zero, false
	}
	return e.value, true
}

// Remove invalidates key's slot for reuse. Removing an already-removed
// or stale key is a no-op.
func (m *Map[T]) Remove(key Key) {
	if key.index < 0 || key.index >= len(m.entries) {
		return
	}
	e := &m.entries[key.index]
	if !e.occupied || e.generation != key.generation {
		return
	}
	var zero T
	e.value = zero
	e.occupied = false
	e.generation++
	m.free = append(m.free, key.index)
}

// Len reports the number of live entries.
func (m *Map[T]) Len() int {
	n := 0
	for i := range m.entries {
		if m.entries[i].occupied {
			n++
		}
	}
	return n
}

// Range calls f for every live entry, in slot order. f returning false
// stops iteration early.
func (m *Map[T]) Range(f func(Key, T) bool) {
	for i := range m.entries {
		e := &m.entries[i]
		if !e.occupied {
			continue
		}
		if !f(Key{index: i, generation: e.generation}, e.value) {
			return
		}
	}
}
