package corelib

import (
	"sort"

	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerMapClass builds the Map intrinsic class: length, and the
// for-in iterator pair. A Map's for-in binds to its keys, Python-dict
// style; the cursor value threaded through iterator/iteratorValue is
// the next key itself (an interned string), not a numeric index, since
// Map.Each's iteration order is unspecified and only stable across a
// single call, not across the two separate calls for-in makes each
// step.
func registerMapClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Map")

	property(theVM, cls, "length", func(_ *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		m, err := asMap(recv)
		if err != nil {
			return value.NullValue, err
		}
		return value.NewNumber(float64(m.Len())), nil
	})

	cls.Methods.Set("iterator", method("iterator", 1, func(theVM *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		m, err := asMap(recv)
		if err != nil {
			return value.NullValue, err
		}
		keys := snapshotKeys(m)
		if len(keys) == 0 {
			return value.NullValue, nil
		}
		if args[0].IsNull() {
			return value.NewObj(theVM.Heap.Intern(keys[0])), nil
		}
		prevKey, err := asString(args[0])
		if err != nil {
			return value.NullValue, err
		}
		prev := prevKey.String()
		for i, k := range keys {
			if k == prev {
				if i+1 < len(keys) {
					return value.NewObj(theVM.Heap.Intern(keys[i+1])), nil
				}
				return value.NullValue, nil
			}
		}
		return value.NullValue, nil
	}))

	cls.Methods.Set("iteratorValue", method("iteratorValue", 1, func(_ *vm.VM, _ *vm.Fiber, _ value.Value, args []value.Value) (value.Value, error) {
		return args[0], nil
	}))
}

func asMap(v value.Value) (*value.Map, error) {
	if v.IsObj() {
		if m, ok := v.AsObj().(*value.Map); ok {
			return m, nil
		}
	}
	return nil, vm.RuntimeErrorf("expected a Map receiver, got %s", v.TypeName())
}

// snapshotKeys returns m's keys in sorted order, so every iterator call
// of one for-in loop sees the same order. Each iterator call takes a
// fresh snapshot, so a mutation of the map during the loop only affects
// the steps after it, never the cursor itself.
func snapshotKeys(m *value.Map) []string {
	keys := make([]string, 0, m.Len())
	m.Each(func(k string, _ value.Value) { keys = append(keys, k) })
	sort.Strings(keys)
	return keys
}
