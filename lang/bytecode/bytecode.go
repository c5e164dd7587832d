// Package bytecode implements the wire-level sketch of SPEC_FULL.md
// §6's persisted bytecode format: a magic/version header, a table of
// modules (name, private-slot names, main function), and a trailing
// end marker. It is deliberately a sketch, not a full module loader:
// decoding reconstructs *vm.Module/*compiler.Function values ready to
// run, but linking them back into a live VM (heap registration, global
// wiring) is the caller's job.
package bytecode

import (
	"errors"
	"fmt"

	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

const (
	magic   = 0x1B14
	version = 0
	end     = 0x0B7E

	// stringXORKey obfuscates (not encrypts) string constant bytes on
	// disk, per SPEC_FULL.md §6's "fixed 8-bit key" — enough to stop a
	// casual `strings` dump of a compiled module, nothing more.
	stringXORKey = 0x5A
)

// constant pool tags: 0 is a bare double, anything else is an object
// kind's ObjKind()+1, per SPEC_FULL.md §6.
const (
	tagNumber = 0
)

// Encode serializes modules to the wire format described above.
func Encode(modules []*vm.Module) ([]byte, error) {
	w := &writer{}
	w.u16(magic)
	w.u8(version)
	if len(modules) > 1<<16-1 {
		return nil, fmt.Errorf("bytecode: too many modules (%d)", len(modules))
	}
	w.u16(uint16(len(modules)))
	for _, mod := range modules {
		if err := encodeModule(w, mod); err != nil {
			return nil, err
		}
	}
	w.u16(end)
	return w.buf, w.err
}

func encodeModule(w *writer, mod *vm.Module) error {
	w.str(mod.Name)
	if len(mod.PrivateNames) > 1<<16-1 {
		return fmt.Errorf("bytecode: module %q has too many privates", mod.Name)
	}
	w.u16(uint16(len(mod.PrivateNames)))
	if mod.PrivateNames == nil {
		w.u8(1) // private_names_disabled
	} else {
		w.u8(0)
		// Deterministic order: by slot index, since PrivateNames is a
		// name->index map and the format just needs each pair once.
		names := make([]string, len(mod.PrivateNames))
		for name, idx := range mod.PrivateNames {
			if idx < 0 || idx >= len(names) {
				return fmt.Errorf("bytecode: module %q private %q has out-of-range slot %d", mod.Name, name, idx)
			}
			names[idx] = name
		}
		for i, name := range names {
			w.str(name)
			w.u16(uint16(i))
		}
	}
	return encodeFunction(w, mod.Main)
}

func encodeFunction(w *writer, fn *compiler.Function) error {
	if err := encodeChunk(w, fn.Chunk); err != nil {
		return err
	}
	w.str(fn.Name)
	if fn.ArgCount > 0xFF {
		return fmt.Errorf("bytecode: function %q has too many arguments (%d)", fn.Name, fn.ArgCount)
	}
	w.u8(byte(fn.ArgCount))
	w.u16(uint16(fn.UpvalueCount))
	if fn.Vararg {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.u16(uint16(fn.MaxSlots))
	return w.err
}

func encodeChunk(w *writer, c *compiler.Chunk) error {
	w.u32(uint32(len(c.Code)))
	w.bytes(c.Code)
	w.u32(uint32(len(c.Lines)))
	for _, ln := range c.Lines {
		if ln < 0 || ln > 0xFFFF {
			return fmt.Errorf("bytecode: line number %d out of u16 range", ln)
		}
		w.u16(uint16(ln))
	}
	w.u32(uint32(len(c.Constants)))
	for _, v := range c.Constants {
		if err := encodeConstant(w, v); err != nil {
			return err
		}
	}
	return w.err
}

func encodeConstant(w *writer, v value.Value) error {
	if v.IsNumber() {
		w.u8(tagNumber)
		w.f64(v.AsNumber())
		return w.err
	}
	if !v.IsObj() {
		return fmt.Errorf("bytecode: %s is not a persistable constant", v.TypeName())
	}
	switch o := v.AsObj().(type) {
	case *value.String:
		w.u8(byte(value.KindString) + 1)
		w.str(o.String())
	case *compiler.Function:
		w.u8(byte(value.KindFunction) + 1)
		return encodeFunction(w, o)
	default:
		return fmt.Errorf("bytecode: %s constants are not persistable", v.TypeName())
	}
	return w.err
}

// Decode parses the wire format produced by Encode, returning one
// *vm.Module per module table entry with Main fully reconstructed.
// Returned modules are not yet registered with any heap; the caller
// allocates/registers them (see vm.VM's alloc* helpers) once loaded.
func Decode(b []byte) ([]*vm.Module, error) {
	r := &reader{buf: b}
	got16 := r.u16()
	got8 := r.u8()
	if r.err != nil {
		return nil, r.err
	}
	if got16 != magic {
		return nil, fmt.Errorf("bytecode: bad magic %#x", got16)
	}
	if got8 != version {
		return nil, fmt.Errorf("bytecode: unsupported version %d", got8)
	}
	count := int(r.u16())
	mods := make([]*vm.Module, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		mod, err := decodeModule(r)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	if r.err != nil {
		return nil, r.err
	}
	if got := r.u16(); got != end {
		return nil, errors.New("bytecode: missing end marker")
	}
	return mods, nil
}

func decodeModule(r *reader) (*vm.Module, error) {
	name := r.str()
	privateCount := int(r.u16())
	disabled := r.u8()
	mod := vm.NewModule(name, nil)
	if disabled == 1 {
		mod.PrivateNames = nil
	} else {
		mod.PrivateNames = make(map[string]int, privateCount)
		names := make([]string, privateCount)
		for i := 0; i < privateCount; i++ {
			pname := r.str()
			slot := int(r.u16())
			if slot < 0 || slot >= privateCount {
				return nil, fmt.Errorf("bytecode: module %q private %q has out-of-range slot %d", name, pname, slot)
			}
			names[slot] = pname
		}
		for i, pname := range names {
			mod.PrivateNames[pname] = i
		}
	}
	mod.Privates = make([]value.Value, privateCount)
	for i := range mod.Privates {
		mod.Privates[i] = value.NullValue
	}
	fn, err := decodeFunction(r)
	if err != nil {
		return nil, err
	}
	mod.Main = fn
	if r.err != nil {
		return nil, r.err
	}
	return mod, nil
}

func decodeFunction(r *reader) (*compiler.Function, error) {
	chunk, err := decodeChunk(r)
	if err != nil {
		return nil, err
	}
	name := r.str()
	argCount := int(r.u8())
	upvalueCount := int(r.u16())
	vararg := r.u8() != 0
	maxSlots := int(r.u16())
	if r.err != nil {
		return nil, r.err
	}
	fn := compiler.NewFunction(name)
	fn.Chunk = chunk
	fn.ArgCount = argCount
	fn.UpvalueCount = upvalueCount
	fn.Vararg = vararg
	fn.MaxSlots = maxSlots
	return fn, nil
}

func decodeChunk(r *reader) (*compiler.Chunk, error) {
	codeLen := int(r.u32())
	code := r.bytes(codeLen)
	lineLen := int(r.u32())
	lines := make([]int, lineLen)
	for i := range lines {
		lines[i] = int(r.u16())
	}
	constCount := int(r.u32())
	consts := make([]value.Value, constCount)
	for i := range consts {
		v, err := decodeConstant(r)
		if err != nil {
			return nil, err
		}
		consts[i] = v
	}
	if r.err != nil {
		return nil, r.err
	}
	return &compiler.Chunk{Code: code, Lines: lines, Constants: consts}, nil
}

func decodeConstant(r *reader) (value.Value, error) {
	tag := r.u8()
	switch tag {
	case tagNumber:
		return value.NewNumber(r.f64()), r.err
	case byte(value.KindString) + 1:
		return value.NewObj(value.NewString(r.str())), r.err
	case byte(value.KindFunction) + 1:
		fn, err := decodeFunction(r)
		if err != nil {
			return value.NullValue, err
		}
		return value.NewObj(fn), nil
	default:
		return value.NullValue, fmt.Errorf("bytecode: unknown constant tag %d", tag)
	}
}
