package vm

import (
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
)

// binaryOpcodes maps the compiler's arithmetic/bitwise/compare opcodes
// to the opKind binaryOp dispatches on.
var binaryOpcodes = map[compiler.Opcode]opKind{
	compiler.ADD: opAdd, compiler.SUB: opSub, compiler.MUL: opMul, compiler.DIV: opDiv,
	compiler.MOD: opMod, compiler.POW: opPow,
	compiler.BAND: opBand, compiler.BOR: opBor, compiler.BXOR: opBxor,
	compiler.SHL: opShl, compiler.SHR: opShr,
	compiler.LT: opLt, compiler.LE: opLe, compiler.GT: opGt, compiler.GE: opGe,
	compiler.EQL: opEql, compiler.NEQ: opNeq,
}

// run drives fiber to completion and returns the top-level call's
// result, per SPEC_FULL.md §4.7.
func run(vm *VM, fiber *Fiber) (value.Value, error) {
	return runFrom(vm, fiber, 0)
}

// runFrom executes fiber's dispatch loop until its frame stack depth
// drops back to stopDepth: the frame on top when runFrom was entered,
// and everything it transitively calls, has returned. A top-level Run
// call uses stopDepth 0; callSync (a native calling back into script
// code) uses depth-1 so only its own pushed frame is awaited, letting
// control return to the native caller once that one frame is done.
func runFrom(vm *VM, fiber *Fiber, stopDepth int) (value.Value, error) {
	for len(fiber.frames) > stopDepth {
		fr := fiber.topFrame()
		chunk := fr.chunk()
		code := chunk.Code

		if fr.IP >= len(code) {
			return value.NullValue, runtimeErrorf(0, "fell off the end of %s without a RETURN", fr.Fn.Name)
		}
		op := compiler.Opcode(code[fr.IP])
		line := chunk.Lines[fr.IP]
		fr.IP++

		if kind, ok := binaryOpcodes[op]; ok {
			if err := vm.binaryOp(fiber, kind, line); err != nil {
				return value.NullValue, err
			}
			continue
		}

		switch op {
		case compiler.NOP:

		case compiler.POP:
			fiber.pop()
		case compiler.DUP:
			fiber.push(fiber.peek(0))
		case compiler.DUP2:
			a, b := fiber.peek(1), fiber.peek(0)
			fiber.push(a)
			fiber.push(b)

		case compiler.CONSTANT:
			idx := int(code[fr.IP])
			fr.IP++
			fiber.push(vm.loadConstant(chunk, idx))
		case compiler.CONSTANT_LONG:
			idx := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			fiber.push(vm.loadConstant(chunk, idx))
		case compiler.TRUE:
			fiber.push(value.TrueValue)
		case compiler.FALSE:
			fiber.push(value.FalseValue)
		case compiler.NULL:
			fiber.push(value.NullValue)

		case compiler.ARRAY:
			n := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			elems := make([]value.Value, n)
			copy(elems, fiber.stack[len(fiber.stack)-n:])
			fiber.popN(n)
			fiber.push(value.NewObj(vm.Heap.NewArray(elems)))

		case compiler.OBJECT:
			n := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			m := vm.Heap.NewMap(n)
			base := len(fiber.stack) - 2*n
			for i := 0; i < n; i++ {
				k := fiber.stack[base+2*i]
				v := fiber.stack[base+2*i+1]
				ks, ok := asStringValue(k)
				if !ok {
					return value.NullValue, runtimeErrorf(line, "object key must be a string")
				}
				if err := m.Set(ks, v); err != nil {
					return value.NullValue, runtimeErrorf(line, "%v", err)
				}
			}
			fiber.popN(2 * n)
			fiber.push(value.NewObj(m))

		case compiler.RANGE:
			to := fiber.pop()
			from := fiber.pop()
			if !from.IsNumber() || !to.IsNumber() {
				return value.NullValue, runtimeErrorf(line, "range bounds must be numbers")
			}
			fiber.push(value.NewObj(vm.Heap.NewRange(from.AsNumber(), to.AsNumber())))

		case compiler.CONCAT:
			b := fiber.pop()
			a := fiber.pop()
			fiber.push(value.NewObj(vm.Heap.Intern(stringOf(a) + stringOf(b))))

		case compiler.NEGATE:
			a := fiber.pop()
			if !a.IsNumber() {
				return value.NullValue, runtimeErrorf(line, "cannot negate %s", a.TypeName())
			}
			fiber.push(value.NewNumber(-a.AsNumber()))
		case compiler.NOT:
			fiber.push(value.NewBool(!fiber.pop().Truthy()))
		case compiler.BNOT:
			a := fiber.pop()
			if !a.IsNumber() {
				return value.NullValue, runtimeErrorf(line, "cannot apply ~ to %s", a.TypeName())
			}
			fiber.push(value.NewNumber(float64(^int64(a.AsNumber()))))

		case compiler.GET_LOCAL:
			fiber.push(fiber.stack[fr.Base+int(code[fr.IP])])
			fr.IP++
		case compiler.SET_LOCAL:
			fiber.stack[fr.Base+int(code[fr.IP])] = fiber.peek(0)
			fr.IP++
		case compiler.GET_LOCAL_LONG:
			idx := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			fiber.push(fiber.stack[fr.Base+idx])
		case compiler.SET_LOCAL_LONG:
			idx := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			fiber.stack[fr.Base+idx] = fiber.peek(0)

		case compiler.GET_PRIVATE:
			fiber.push(fiber.Module.Privates[int(code[fr.IP])])
			fr.IP++
		case compiler.SET_PRIVATE:
			fiber.Module.Privates[int(code[fr.IP])] = fiber.peek(0)
			fr.IP++
		case compiler.GET_PRIVATE_LONG:
			idx := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			fiber.push(fiber.Module.Privates[idx])
		case compiler.SET_PRIVATE_LONG:
			idx := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			fiber.Module.Privates[idx] = fiber.peek(0)

		case compiler.GET_UPVALUE:
			idx := int(code[fr.IP])
			fr.IP++
			fiber.push(fr.Closure.Upvalues[idx].Get())
		case compiler.SET_UPVALUE:
			idx := int(code[fr.IP])
			fr.IP++
			fr.Closure.Upvalues[idx].Set(fiber.peek(0))

		case compiler.GET_GLOBAL:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			v, ok := vm.Heap.Globals.Get(name)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "undefined global %q", name)
			}
			fiber.push(v)
		case compiler.SET_GLOBAL:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			if err := vm.Heap.Globals.Set(name, fiber.peek(0)); err != nil {
				return value.NullValue, runtimeErrorf(line, "%v", err)
			}

		case compiler.JUMP:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2 + off
		case compiler.JUMP_BACK:
			dist := int(chunk.ReadU16(fr.IP))
			fr.IP = fr.IP + 2 - dist
		case compiler.JUMP_IF_FALSE:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if !fiber.peek(0).Truthy() {
				fr.IP += off
			}
		case compiler.JUMP_IF_FALSE_POPPING:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if !fiber.pop().Truthy() {
				fr.IP += off
			}
		case compiler.JUMP_IF_NULL:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if fiber.peek(0).IsNull() {
				fr.IP += off
			}
		case compiler.JUMP_IF_NULL_POPPING:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if fiber.pop().IsNull() {
				fr.IP += off
			}
		case compiler.AND:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if !fiber.peek(0).Truthy() {
				fr.IP += off
			}
		case compiler.OR:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if fiber.peek(0).Truthy() {
				fr.IP += off
			}
		case compiler.NULL_OR:
			off := int(chunk.ReadU16(fr.IP))
			fr.IP += 2
			if !fiber.peek(0).IsNull() {
				fr.IP += off
			}

		case compiler.CLOSURE:
			idx := int(code[fr.IP])
			fr.IP++
			fn, ok := chunk.Constants[idx].AsObj().(*compiler.Function)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "CLOSURE constant is not a function")
			}
			upvalues := make([]*Upvalue, fn.UpvalueCount)
			for i := range upvalues {
				isLocal := code[fr.IP] != 0
				index := int(code[fr.IP+1])
				fr.IP += 2
				if isLocal {
					upvalues[i] = fiber.captureUpvalue(vm, fr.Base+index)
				} else {
					upvalues[i] = fr.Closure.Upvalues[index]
				}
			}
			fiber.push(value.NewObj(vm.allocClosure(fn, upvalues)))
		case compiler.CLOSE_UPVALUE:
			fiber.closeUpvalues(len(fiber.stack) - 1)
			fiber.pop()

		case compiler.CLASS:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			fiber.push(value.NewObj(vm.Heap.NewClass(name)))
		case compiler.INHERIT:
			super := fiber.pop()
			superClass, ok := asClass(super)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "superclass must be a class")
			}
			cls, _ := asClass(fiber.peek(0))
			cls.Inherit(superClass)
		case compiler.METHOD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			method := fiber.pop()
			cls, _ := asClass(fiber.peek(0))
			if name == "constructor" {
				cls.Initializer = method
			}
			if fn := underlyingFunction(method); fn != nil {
				vm.recordDefiningSuper(fn, cls.Super)
			}
			if err := cls.Methods.Set(name, method); err != nil {
				return value.NullValue, runtimeErrorf(line, "%v", err)
			}
		case compiler.STATIC_FIELD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			v := fiber.pop()
			cls, _ := asClass(fiber.peek(0))
			if err := cls.Statics.Set(name, v); err != nil {
				return value.NullValue, runtimeErrorf(line, "%v", err)
			}
		case compiler.DEFINE_FIELD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			setter := fiber.pop()
			getter := fiber.pop()
			cls, _ := asClass(fiber.peek(0))
			if err := cls.Methods.Set(name, value.NewObj(vm.Heap.NewField(getter, setter))); err != nil {
				return value.NullValue, runtimeErrorf(line, "%v", err)
			}

		case compiler.GET_FIELD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			obj := fiber.pop()
			v, err := vm.getField(fiber, obj, name)
			if err != nil {
				return value.NullValue, err
			}
			fiber.push(v)
		case compiler.SET_FIELD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			v := fiber.pop()
			obj := fiber.pop()
			if err := vm.setField(fiber, obj, name, v); err != nil {
				return value.NullValue, err
			}
			fiber.push(v)

		case compiler.SUBSCRIPT_GET:
			idx := fiber.pop()
			obj := fiber.pop()
			v, err := vm.subscriptGet(fiber, obj, idx, line)
			if err != nil {
				return value.NullValue, err
			}
			fiber.push(v)
		case compiler.SUBSCRIPT_SET:
			v := fiber.pop()
			idx := fiber.pop()
			obj := fiber.pop()
			res, err := vm.subscriptSet(fiber, obj, idx, v, line)
			if err != nil {
				return value.NullValue, err
			}
			fiber.push(res)

		case compiler.IS:
			cls := fiber.pop()
			obj := fiber.pop()
			target, ok := asClass(cls)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "right-hand side of 'is' must be a class")
			}
			fiber.push(value.NewBool(vm.isInstanceOf(obj, target)))

		case compiler.CALL:
			argc := int(code[fr.IP])
			fr.IP++
			args := append([]value.Value(nil), fiber.stack[len(fiber.stack)-argc:]...)
			fiber.popN(argc)
			callee := fiber.pop()
			result, pushed, err := vm.prepareCall(fiber, callee, args, false)
			if err != nil {
				return value.NullValue, err
			}
			if !pushed {
				fiber.push(result)
			}

		case compiler.INVOKE, compiler.INVOKE_IGNORING:
			argc := int(code[fr.IP])
			name := constName(chunk, int(code[fr.IP+1]))
			fr.IP += 2
			args := append([]value.Value(nil), fiber.stack[len(fiber.stack)-argc:]...)
			fiber.popN(argc)
			recv := fiber.pop()
			if err := vm.invokeNamed(fiber, recv, name, args, op == compiler.INVOKE_IGNORING); err != nil {
				return value.NullValue, err
			}

		case compiler.INVOKE_SUPER, compiler.INVOKE_SUPER_IGNORING:
			argc := int(code[fr.IP])
			name := constName(chunk, int(code[fr.IP+1]))
			fr.IP += 2
			args := append([]value.Value(nil), fiber.stack[len(fiber.stack)-argc:]...)
			fiber.popN(argc)
			this := fiber.pop()
			super, err := vm.superClassOf(fr)
			if err != nil {
				return value.NullValue, err
			}
			m, ok := super.FindMethod(name)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "undefined super method %q", name)
			}
			result, pushed, err := vm.prepareMethodCall(fiber, this, m, args, op == compiler.INVOKE_SUPER_IGNORING, nil)
			if err != nil {
				return value.NullValue, err
			}
			if !pushed && op != compiler.INVOKE_SUPER_IGNORING {
				fiber.push(result)
			}

		case compiler.GET_SUPER_METHOD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			this := fiber.pop()
			super, err := vm.superClassOf(fr)
			if err != nil {
				return value.NullValue, err
			}
			m, ok := super.FindMethod(name)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "undefined super method %q", name)
			}
			fiber.push(value.NewObj(vm.Heap.NewBoundMethod(this, m)))

		case compiler.REFERENCE_LOCAL:
			idx := fr.Base + int(code[fr.IP])
			fr.IP++
			fiber.push(value.NewObj(vm.Heap.NewFieldReference(
				func() value.Value { return fiber.stack[idx] },
				func(v value.Value) { fiber.stack[idx] = v },
			)))
		case compiler.REFERENCE_UPVALUE:
			uv := fr.Closure.Upvalues[int(code[fr.IP])]
			fr.IP++
			fiber.push(value.NewObj(vm.Heap.NewFieldReference(uv.Get, uv.Set)))
		case compiler.REFERENCE_PRIVATE:
			idx := int(code[fr.IP])
			fr.IP++
			mod := fiber.Module
			fiber.push(value.NewObj(vm.Heap.NewFieldReference(
				func() value.Value { return mod.Privates[idx] },
				func(v value.Value) { mod.Privates[idx] = v },
			)))
		case compiler.REFERENCE_GLOBAL:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			globals := vm.Heap.Globals
			fiber.push(value.NewObj(vm.Heap.NewFieldReference(
				func() value.Value { v, _ := globals.Get(name); return v },
				func(v value.Value) { _ = globals.Set(name, v) },
			)))
		case compiler.REFERENCE_FIELD:
			name := constName(chunk, int(code[fr.IP]))
			fr.IP++
			obj := fiber.pop()
			fiber.push(value.NewObj(vm.Heap.NewFieldReference(
				func() value.Value { v, _ := vm.getField(fiber, obj, name); return v },
				func(v value.Value) { _ = vm.setField(fiber, obj, name, v) },
			)))
		case compiler.SET_REFERENCE:
			v := fiber.pop()
			refVal := fiber.pop()
			ref, ok := refVal.AsObj().(*value.Reference)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "not a reference")
			}
			ref.Set(v)
			fiber.push(v)

		case compiler.CALL_VARARG:
			// Stack before: [callee]; the named local slot holds an Array
			// whose elements are unpacked as the call's full argument list.
			slot := fr.Base + int(code[fr.IP])
			fr.IP++
			arrObj, ok := fiber.stack[slot].AsObj().(*value.Array)
			if !ok {
				return value.NullValue, runtimeErrorf(line, "CALL_VARARG target is not an array")
			}
			args := arrObj.Elems
			callee := fiber.pop()
			result, pushed, err := vm.prepareCall(fiber, callee, args, false)
			if err != nil {
				return value.NullValue, err
			}
			if !pushed {
				fiber.push(result)
			}

		case compiler.POP_LOCALS:
			n := int(code[fr.IP])
			fr.IP++
			fiber.popN(n)

		case compiler.RETURN:
			retVal := fiber.pop()
			if fr.CompleteAs != nil {
				retVal = value.NewObj(fr.CompleteAs)
			}
			fiber.closeUpvalues(fr.Base)
			ignored := fr.ResultIgnored
			fiber.stack = fiber.stack[:fr.Base]
			fiber.popFrame()
			if len(fiber.frames) <= stopDepth {
				return retVal, nil
			}
			if !ignored {
				fiber.push(retVal)
			}

		default:
			return value.NullValue, runtimeErrorf(line, "unimplemented opcode %s", op)
		}
	}
	return value.NullValue, nil
}

// loadConstant reads chunk's constant pool slot idx, interning it (and
// caching the canonical value back into the pool) the first time a
// string constant is loaded: compile-time constants are never
// heap-interned (lang/compiler has no heap to intern into), so runtime
// string identity (value.Equal's fast path, invariant I2) only holds
// once CONSTANT/CONSTANT_LONG has funneled every string constant
// through the heap's intern table at least once.
func (vm *VM) loadConstant(chunk *compiler.Chunk, idx int) value.Value {
	v := chunk.Constants[idx]
	if v.IsObj() {
		if s, ok := v.AsObj().(*value.String); ok {
			interned := value.NewObj(vm.Heap.Intern(s.String()))
			chunk.Constants[idx] = interned
			return interned
		}
	}
	return v
}

func constName(chunk *compiler.Chunk, idx int) string {
	s, _ := chunk.Constants[idx].AsObj().(*value.String)
	return s.String()
}

func stringOf(v value.Value) string {
	if s, ok := asStringValue(v); ok {
		return s
	}
	return v.TypeName()
}

// invokeNamed implements INVOKE/INVOKE_IGNORING's fused field-read-then-
// call: recv.name's lookup follows getField's order (instance fields,
// then class method table/superclasses), but a plain callable found in
// the method table is called directly with recv bound, without ever
// materializing the intermediate BoundMethod GET_FIELD would produce.
func (vm *VM) invokeNamed(fiber *Fiber, recv value.Value, name string, args []value.Value, ignoring bool) error {
	if inst, ok := valueAsInstance(recv); ok {
		if v, ok := inst.Fields.Get(name); ok {
			return vm.invokeValue(fiber, v, args, ignoring)
		}
		if m, ok := inst.Class.FindMethod(name); ok {
			return vm.invokeMember(fiber, recv, m, args, ignoring)
		}
		return runtimeErrorf(0, "undefined method %q on %s", name, inst.Class.Name)
	}
	if cls, ok := asClass(recv); ok {
		if m, ok := cls.Statics.Get(name); ok {
			return vm.invokeMember(fiber, value.NullValue, m, args, ignoring)
		}
		return runtimeErrorf(0, "undefined static method %q on class %s", name, cls.Name)
	}
	cls := vm.classOf(recv)
	if cls == nil {
		return runtimeErrorf(0, "undefined method %q on %s", name, recv.TypeName())
	}
	m, ok := cls.FindMethod(name)
	if !ok {
		return runtimeErrorf(0, "undefined method %q on %s", name, recv.TypeName())
	}
	return vm.invokeMember(fiber, recv, m, args, ignoring)
}

func (vm *VM) invokeMember(fiber *Fiber, recv value.Value, member value.Value, args []value.Value, ignoring bool) error {
	if f, ok := asField(member); ok {
		getVal, err := vm.resolveMember(fiber, recv, value.NewObj(f))
		if err != nil {
			return err
		}
		return vm.invokeValue(fiber, getVal, args, ignoring)
	}
	result, pushed, err := vm.prepareMethodCall(fiber, recv, member, args, ignoring, nil)
	if err != nil {
		return err
	}
	if !pushed && !ignoring {
		fiber.push(result)
	}
	return nil
}

func (vm *VM) invokeValue(fiber *Fiber, callee value.Value, args []value.Value, ignoring bool) error {
	result, pushed, err := vm.prepareCall(fiber, callee, args, ignoring)
	if err != nil {
		return err
	}
	if !pushed && !ignoring {
		fiber.push(result)
	}
	return nil
}

// isInstanceOf implements the "is" operator: true if obj is an Instance
// whose class or some ancestor is target, or if target is obj's
// intrinsic class for a non-instance value.
func (vm *VM) isInstanceOf(obj value.Value, target *value.Class) bool {
	if inst, ok := valueAsInstance(obj); ok {
		for c := inst.Class; c != nil; c = c.Super {
			if c == target {
				return true
			}
		}
		return false
	}
	return vm.classOf(obj) == target
}
