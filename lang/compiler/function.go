package compiler

import "github.com/mna/vesper/lang/value"

// Function: a chunk, arg_count, upvalue_count, max_slots, a vararg flag,
// and the module it was compiled within. It lives here rather than in
// lang/value because it needs a *Chunk, and lang/value must not import
// lang/compiler (the constant pool holds value.Value, so the import
// would go the other way and lang/compiler already imports lang/value).
//
// Function satisfies value.Obj by embedding value.Object: Go promotes
// the embedded type's methods, including its unexported one, so no
// import cycle is needed for Function to be held inside a value.Value.
type Function struct {
	value.Object
	Name          string
	Chunk         *Chunk
	ArgCount      int
	UpvalueCount  int
	MaxSlots      int
	Vararg        bool
	Module        value.Obj // *vm.Module; generic to avoid an import cycle

	// PrivateNames lists module-level private names in declaration
	// (slot) order. Only ever set on the outermost function Compile
	// returns (a script's privates are module-wide, not per-function);
	// nil on every nested function/method/closure.
	PrivateNames []string
}

var _ value.Obj = (*Function)(nil)
var _ value.Tracer = (*Function)(nil)

func NewFunction(name string) *Function {
	f := &Function{Name: name, Chunk: NewChunk()}
	f.Object = value.NewObject(value.KindFunction)
	return f
}

// Trace visits the function's constant pool, per SPEC_FULL.md §4.1
// (closures trace their function, which in turn keeps its constants,
// including any nested function constants, alive).
func (f *Function) Trace(mark func(value.Value)) {
	for _, c := range f.Chunk.Constants {
		mark(c)
	}
	if f.Module != nil {
		mark(value.NewObj(f.Module))
	}
}
