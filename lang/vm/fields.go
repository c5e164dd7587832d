package vm

import "github.com/mna/vesper/lang/value"

// getField implements GET_FIELD's lookup order, per SPEC_FULL.md §4.7:
// an instance's own fields are consulted first, then its class's method
// table (walking superclasses), falling back to the receiver's
// intrinsic class for any other kind of value. A hit that is a *Field
// (a computed property declared with get/set syntax) is resolved by
// calling its getter with the receiver bound as "this"; anything else
// a plain value, or a bare callable wrapped as a BoundMethod so a
// standalone property read (`let f = obj.method`) still carries its
// receiver.
func (vm *VM) getField(fiber *Fiber, recv value.Value, name string) (value.Value, error) {
	if inst, ok := valueAsInstance(recv); ok {
		if v, ok := inst.Fields.Get(name); ok {
			return v, nil
		}
		if m, ok := inst.Class.FindMethod(name); ok {
			return vm.resolveMember(fiber, recv, m)
		}
		return value.NullValue, runtimeErrorf(0, "undefined property %q on %s", name, inst.Class.Name)
	}
	if cls, ok := asClass(recv); ok {
		if v, ok := cls.Statics.Get(name); ok {
			return vm.resolveMember(fiber, value.NullValue, v)
		}
		return value.NullValue, runtimeErrorf(0, "undefined static property %q on class %s", name, cls.Name)
	}
	cls := vm.classOf(recv)
	if cls == nil {
		return value.NullValue, runtimeErrorf(0, "undefined property %q on %s", name, recv.TypeName())
	}
	if m, ok := cls.FindMethod(name); ok {
		return vm.resolveMember(fiber, recv, m)
	}
	return value.NullValue, runtimeErrorf(0, "undefined property %q on %s", name, recv.TypeName())
}

// resolveMember turns a raw method-table entry into the Value GET_FIELD
// should produce: a Field's getter called immediately (with recv bound,
// unless recv is null for a static lookup), otherwise the member bound
// to recv as a BoundMethod.
func (vm *VM) resolveMember(fiber *Fiber, recv value.Value, member value.Value) (value.Value, error) {
	if f, ok := asField(member); ok {
		if f.Getter.IsNull() {
			return value.NullValue, runtimeErrorf(0, "property has no getter")
		}
		args := []value.Value(nil)
		if !recv.IsNull() {
			return vm.callSync(fiber, vm.Heap.NewBoundMethod(recv, f.Getter), args)
		}
		return vm.callSync(fiber, f.Getter, args)
	}
	if recv.IsNull() {
		return member, nil
	}
	return value.NewObj(vm.Heap.NewBoundMethod(recv, member)), nil
}

// setField implements SET_FIELD: a computed Field's setter is called
// with v as its sole argument; otherwise v is written directly into the
// instance's (or class's) field map, except that writing null deletes
// the entry, per SPEC_FULL.md §4.7's "assigning null to a field removes
// it" rule.
func (vm *VM) setField(fiber *Fiber, recv value.Value, name string, v value.Value) error {
	if inst, ok := valueAsInstance(recv); ok {
		if _, foundPlain := inst.Fields.Get(name); !foundPlain {
			if m, ok := inst.Class.FindMethod(name); ok {
				if f, ok := asField(m); ok {
					return vm.callSetter(fiber, recv, f, v)
				}
			}
		}
		if v.IsNull() {
			inst.Fields.Delete(name)
			return nil
		}
		return inst.Fields.Set(name, v)
	}
	if cls, ok := asClass(recv); ok {
		if existing, ok := cls.Statics.Get(name); ok {
			if f, ok := asField(existing); ok {
				return vm.callSetter(fiber, value.NullValue, f, v)
			}
		}
		if v.IsNull() {
			cls.Statics.Delete(name)
			return nil
		}
		return cls.Statics.Set(name, v)
	}
	return runtimeErrorf(0, "cannot set property %q on %s", name, recv.TypeName())
}

func asClass(v value.Value) (*value.Class, bool) {
	if !v.IsObj() {
		return nil, false
	}
	c, ok := v.AsObj().(*value.Class)
	return c, ok
}

func asField(v value.Value) (*value.Field, bool) {
	if !v.IsObj() {
		return nil, false
	}
	f, ok := v.AsObj().(*value.Field)
	return f, ok
}

func (vm *VM) callSetter(fiber *Fiber, recv value.Value, f *value.Field, v value.Value) error {
	if f.Setter.IsNull() {
		return runtimeErrorf(0, "property has no setter")
	}
	args := []value.Value{v}
	var err error
	if !recv.IsNull() {
		_, err = vm.callSync(fiber, vm.Heap.NewBoundMethod(recv, f.Setter), args)
	} else {
		_, err = vm.callSync(fiber, f.Setter, args)
	}
	return err
}
