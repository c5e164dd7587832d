// Package value implements the tagged-union Value representation and the
// heap Object kinds it can hold: String, Array, Map, Range, Class,
// Instance, BoundMethod, and Field. Function, Closure, Upvalue, Fiber, and
// Module are execution-coupled and live in lang/compiler and lang/vm, but
// they embed Object and satisfy Obj the same way everything here does, so
// a Value can carry any of them interchangeably.
//
// SPEC_FULL.md §9's NaN-boxing-vs-struct question is resolved here in favor
// of a struct: a NaN-boxed float64 holding a raw pointer would be invisible
// to Go's garbage collector, which would happily reclaim the pointee out
// from under a still-live tagged handle.
package value

// ObjKind tags the concrete type of a heap Object.
type ObjKind uint8

const (
	KindString ObjKind = iota
	KindFunction
	KindNativeFunction
	KindNativePrimitive
	KindNativeMethod
	KindPrimitiveMethod
	KindFiber
	KindModule
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
	KindArray
	KindMap
	KindUserdata
	KindRange
	KindField
	KindReference
)

var kindNames = [...]string{
	KindString:          "String",
	KindFunction:        "Function",
	KindNativeFunction:  "NativeFunction",
	KindNativePrimitive: "NativePrimitive",
	KindNativeMethod:    "NativeMethod",
	KindPrimitiveMethod: "PrimitiveMethod",
	KindFiber:           "Fiber",
	KindModule:          "Module",
	KindClosure:         "Closure",
	KindUpvalue:         "Upvalue",
	KindClass:           "Class",
	KindInstance:        "Instance",
	KindBoundMethod:     "BoundMethod",
	KindArray:           "Array",
	KindMap:             "Map",
	KindUserdata:        "Userdata",
	KindRange:           "Range",
	KindField:           "Field",
	KindReference:       "Reference",
}

func (k ObjKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Obj is implemented by every heap value's pointer type. A type satisfies
// it simply by embedding Object as its first field: Go promotes ObjKind
// and the Next/Marked accessors automatically, so lang/compiler and
// lang/vm can define Function, Closure, Fiber, and Module without ever
// importing one another.
type Obj interface {
	ObjKind() ObjKind
	objHeader() *Object
}

// Tracer is implemented by heap objects that hold outgoing references the
// collector must follow. Objects with no outgoing references (String) do
// not need to implement it. This replaces SPEC_FULL.md §4.1's centralized
// kind-switch trace table with per-type dispatch, since Function/Closure/
// Fiber/Module live in packages lang/gc cannot import without a cycle.
type Tracer interface {
	Trace(mark func(Value))
}

// Object is the common header embedded as the first field of every heap
// object. All live objects form a singly linked intrusive list threaded
// through next, owned by the heap; this list is the GC's sweep set.
type Object struct {
	kind   ObjKind
	marked bool
	next   Obj
}

func (o *Object) ObjKind() ObjKind   { return o.kind }
func (o *Object) objHeader() *Object { return o }
func (o *Object) Marked() bool       { return o.marked }
func (o *Object) SetMarked(m bool)   { o.marked = m }
func (o *Object) Next() Obj          { return o.next }
func (o *Object) SetNext(n Obj)      { o.next = n }

// NewObject initializes a header with the given kind. Callers embed the
// returned header as the first field of their concrete type, e.g.
// Object: NewObject(KindClass).
func NewObject(kind ObjKind) Object { return Object{kind: kind} }

// Kind distinguishes the four value categories a Value can hold: null,
// bool, number, or a heap object reference.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	Object_
)

// Value is the tagged union every slot, local, global, and field holds.
// It is a plain struct rather than a NaN-boxed float64: see the package
// doc comment.
type Value struct {
	kind Kind
	num  float64
	obj  Obj
}

var (
	NullValue  = Value{kind: Null}
	TrueValue  = Value{kind: Bool, num: 1}
	FalseValue = Value{kind: Bool}
)

func NewBool(b bool) Value {
	if b {
		return TrueValue
	}
	return FalseValue
}

func NewNumber(f float64) Value { return Value{kind: Number, num: f} }

func NewObj(o Obj) Value { return Value{kind: Object_, obj: o} }

func (v Value) IsNull() bool { return v.kind == Null }
func (v Value) IsBool() bool { return v.kind == Bool }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsObj() bool  { return v.kind == Object_ }

func (v Value) AsBool() bool      { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Obj        { return v.obj }

// Is reports whether v holds a heap object of the given kind.
func (v Value) Is(k ObjKind) bool { return v.kind == Object_ && v.obj.ObjKind() == k }

// Truthy implements falsiness per SPEC_FULL.md §3: false, null, and
// numeric zero are falsy; everything else, including empty strings,
// arrays, and maps, is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.num != 0
	case Number:
		return v.num != 0
	default:
		return true
	}
}

// TypeName returns the built-in class name corelib looks up for v, used
// by the "is" operator's intrinsic fallback and by error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Number:
		return "Number"
	default:
		switch o := v.obj.(type) {
		case *Instance:
			return o.Class.Name
		default:
			return v.obj.ObjKind().String()
		}
	}
}

// Equal implements value equality: numbers and bools compare by value,
// null equals null, strings compare by identity (interning makes byte
// equality and pointer equality coincide per invariant I2), and every
// other object compares by identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool, Number:
		return a.num == b.num
	default:
		if as, ok := a.obj.(*String); ok {
			bs, ok := b.obj.(*String)
			return ok && as == bs
		}
		return a.obj == b.obj
	}
}
