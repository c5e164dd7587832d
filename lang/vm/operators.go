package vm

import (
	"math"

	"github.com/mna/vesper/lang/value"
)

// operatorSymbols maps each overloadable binary opcode to the method
// name an Instance class defines for it, following the "operator <op>"
// spelling the parser already produces for `operator+`-style method
// declarations (lang/compiler/class.go's compileMethod comment).
var operatorSymbols = map[opKind]string{
	opAdd: "operator+", opSub: "operator-", opMul: "operator*", opDiv: "operator/",
	opMod: "operator%", opPow: "operator**",
	opBand: "operator&", opBor: "operator|", opBxor: "operator^",
	opShl: "operator<<", opShr: "operator>>",
	opLt: "operator<", opLe: "operator<=", opGt: "operator>", opGe: "operator>=",
	opEql: "operator==", opNeq: "operator!=",
}

type opKind int

const (
	opAdd opKind = iota
	opSub
	opMul
	opDiv
	opMod
	opPow
	opBand
	opBor
	opBxor
	opShl
	opShr
	opLt
	opLe
	opGt
	opGe
	opEql
	opNeq
)

// numericBinary applies kind's arithmetic/bitwise/compare semantics to
// two numbers. Bitwise/shift operators truncate to int64 first, per
// SPEC_FULL.md §4.3's "Number" description (a single float64 kind, with
// bitwise ops defined via truncation).
func numericBinary(kind opKind, a, b float64) (value.Value, error) {
	switch kind {
	case opAdd:
		return value.NewNumber(a + b), nil
	case opSub:
		return value.NewNumber(a - b), nil
	case opMul:
		return value.NewNumber(a * b), nil
	case opDiv:
		if b == 0 {
			return value.NullValue, runtimeErrorf(0, "division by zero")
		}
		return value.NewNumber(a / b), nil
	case opMod:
		if b == 0 {
			return value.NullValue, runtimeErrorf(0, "division by zero")
		}
		return value.NewNumber(math.Mod(a, b)), nil
	case opPow:
		return value.NewNumber(math.Pow(a, b)), nil
	case opBand:
		return value.NewNumber(float64(int64(a) & int64(b))), nil
	case opBor:
		return value.NewNumber(float64(int64(a) | int64(b))), nil
	case opBxor:
		return value.NewNumber(float64(int64(a) ^ int64(b))), nil
	case opShl:
		return value.NewNumber(float64(int64(a) << uint(int64(b)))), nil
	case opShr:
		return value.NewNumber(float64(int64(a) >> uint(int64(b)))), nil
	case opLt:
		return value.NewBool(a < b), nil
	case opLe:
		return value.NewBool(a <= b), nil
	case opGt:
		return value.NewBool(a > b), nil
	case opGe:
		return value.NewBool(a >= b), nil
	case opEql:
		return value.NewBool(a == b), nil
	case opNeq:
		return value.NewBool(a != b), nil
	default:
		return value.NullValue, runtimeErrorf(0, "unhandled numeric operator")
	}
}

// binaryOp pops b then a, applies kind, and pushes the result. Numbers
// take the fast native path; two strings under + concatenate into an
// interned string; anything else, if it is an Instance whose
// class (or a superclass) defines the matching "operator <op>" method,
// dispatches to it per SPEC_FULL.md §4.3's operator-overloading rule.
// EQL/NEQ additionally fall back to value.Equal for any non-instance,
// non-number pair instead of erroring, since identity/value equality is
// always defined.
func (vm *VM) binaryOp(fiber *Fiber, kind opKind, line int) error {
	b := fiber.pop()
	a := fiber.pop()

	if a.IsNumber() && b.IsNumber() {
		v, err := numericBinary(kind, a.AsNumber(), b.AsNumber())
		if err != nil {
			return err
		}
		fiber.push(v)
		return nil
	}

	if kind == opAdd {
		if as, ok := asStringValue(a); ok {
			if bs, ok := asStringValue(b); ok {
				fiber.push(value.NewObj(vm.Heap.Intern(as + bs)))
				return nil
			}
		}
	}

	if inst, ok := valueAsInstance(a); ok {
		if m, ok := inst.Class.FindMethod(operatorSymbols[kind]); ok {
			v, err := vm.callSync(fiber, vm.Heap.NewBoundMethod(a, m), []value.Value{b})
			if err != nil {
				return err
			}
			fiber.push(v)
			return nil
		}
	}

	if kind == opEql {
		fiber.push(value.NewBool(value.Equal(a, b)))
		return nil
	}
	if kind == opNeq {
		fiber.push(value.NewBool(!value.Equal(a, b)))
		return nil
	}
	return runtimeErrorf(line, "%s does not support %s", a.TypeName(), operatorSymbols[kind])
}

// subscriptGet implements SUBSCRIPT_GET: Array/Map/String have direct
// native semantics, an Instance dispatches to its "[]" method, anything
// else is an error.
func (vm *VM) subscriptGet(fiber *Fiber, obj, index value.Value, line int) (value.Value, error) {
	if !obj.IsObj() {
		return value.NullValue, runtimeErrorf(line, "%s is not subscriptable", obj.TypeName())
	}
	switch o := obj.AsObj().(type) {
	case *value.Array:
		if !index.IsNumber() {
			return value.NullValue, runtimeErrorf(line, "array index must be a number")
		}
		v, err := o.Get(int(index.AsNumber()))
		if err != nil {
			return value.NullValue, runtimeErrorf(line, "%v", err)
		}
		return v, nil
	case *value.Map:
		key, ok := asStringValue(index)
		if !ok {
			return value.NullValue, runtimeErrorf(line, "map key must be a string")
		}
		if o.IndexFn != nil {
			v, handled, err := o.IndexFn(key, false, value.NullValue)
			if err != nil {
				return value.NullValue, runtimeErrorf(line, "%v", err)
			}
			if handled {
				return v, nil
			}
		}
		v, ok := o.Get(key)
		if !ok {
			return value.NullValue, nil
		}
		return v, nil
	case *value.String:
		if !index.IsNumber() {
			return value.NullValue, runtimeErrorf(line, "string index must be a number")
		}
		i := int(index.AsNumber())
		b := o.Bytes()
		if i < 0 || i >= len(b) {
			return value.NullValue, runtimeErrorf(line, "string index %d out of range (len %d)", i, len(b))
		}
		return value.NewObj(vm.Heap.Intern(string(b[i]))), nil
	case *value.Instance:
		if m, ok := o.Class.FindMethod("[]"); ok {
			return vm.callSync(fiber, vm.Heap.NewBoundMethod(obj, m), []value.Value{index})
		}
		return value.NullValue, runtimeErrorf(line, "%s has no [] method", o.Class.Name)
	default:
		return value.NullValue, runtimeErrorf(line, "%s is not subscriptable", obj.TypeName())
	}
}

// subscriptSet implements SUBSCRIPT_SET, the assignment counterpart of
// subscriptGet; the written value is returned, matching the opcode's
// "push value" stack effect.
func (vm *VM) subscriptSet(fiber *Fiber, obj, index, v value.Value, line int) (value.Value, error) {
	if !obj.IsObj() {
		return value.NullValue, runtimeErrorf(line, "%s is not subscriptable", obj.TypeName())
	}
	switch o := obj.AsObj().(type) {
	case *value.Array:
		if !index.IsNumber() {
			return value.NullValue, runtimeErrorf(line, "array index must be a number")
		}
		if err := o.Set(int(index.AsNumber()), v); err != nil {
			return value.NullValue, runtimeErrorf(line, "%v", err)
		}
		return v, nil
	case *value.Map:
		key, ok := asStringValue(index)
		if !ok {
			return value.NullValue, runtimeErrorf(line, "map key must be a string")
		}
		if o.IndexFn != nil {
			_, handled, err := o.IndexFn(key, true, v)
			if err != nil {
				return value.NullValue, runtimeErrorf(line, "%v", err)
			}
			if handled {
				return v, nil
			}
		}
		if err := o.Set(key, v); err != nil {
			return value.NullValue, runtimeErrorf(line, "%v", err)
		}
		return v, nil
	case *value.Instance:
		if m, ok := o.Class.FindMethod("[]="); ok {
			return vm.callSync(fiber, vm.Heap.NewBoundMethod(obj, m), []value.Value{index, v})
		}
		return value.NullValue, runtimeErrorf(line, "%s has no []= method", o.Class.Name)
	default:
		return value.NullValue, runtimeErrorf(line, "%s is not subscriptable", obj.TypeName())
	}
}

func asStringValue(v value.Value) (string, bool) {
	if !v.IsObj() {
		return "", false
	}
	s, ok := v.AsObj().(*value.String)
	if !ok {
		return "", false
	}
	return s.String(), true
}
