package value

import "github.com/dolthub/swiss"

// IndexFn intercepts subscript get/set on a Map, used to expose a class's
// private slots as a map without copying them.
type IndexFn func(key string, set bool, v Value) (Value, bool, error)

// Map is a hash table keyed by interned strings plus an optional
// index_fn that intercepts subscript get/set.
//
// Grounded on lang/machine/map.go's swiss.Map wrapping; keyed by plain Go
// string here rather than by Value, since SPEC_FULL.md's Map is always
// string-keyed (object field tables, class method/static tables, and
// literal map expressions), which sidesteps the teacher's unimplemented
// generic-Value Iterate() and its Tuple-pair iteration shape (Tuple is
// not a kind in this value model).
type Map struct {
	Object
	m       *swiss.Map[string, Value]
	IndexFn IndexFn
}

var _ Obj = (*Map)(nil)
var _ Tracer = (*Map)(nil)

func NewMap(size int) *Map {
	return &Map{Object: NewObject(KindMap), m: swiss.NewMap[string, Value](uint32(size))}
}

func (m *Map) Get(k string) (Value, bool) {
	if m.IndexFn != nil {
		if v, ok, err := m.IndexFn(k, false, NullValue); err == nil && ok {
			return v, true
		}
	}
	return m.m.Get(k)
}

func (m *Map) Set(k string, v Value) error {
	if m.IndexFn != nil {
		if _, _, err := m.IndexFn(k, true, v); err != nil {
			return err
		}
		return nil
	}
	m.m.Put(k, v)
	return nil
}

func (m *Map) Delete(k string) { m.m.Delete(k) }

func (m *Map) Len() int { return m.m.Count() }

// Each calls fn for every key/value pair, in unspecified order. The
// caller must not mutate the map while iterating.
func (m *Map) Each(fn func(k string, v Value)) {
	m.m.Iter(func(k string, v Value) bool {
		fn(k, v)
		return false
	})
}

// Trace visits every value in the table, per SPEC_FULL.md §4.1's "maps
// trace their table".
func (m *Map) Trace(mark func(Value)) {
	m.m.Iter(func(_ string, v Value) bool {
		mark(v)
		return false
	})
}
