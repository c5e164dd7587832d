package compiler

import (
	"fmt"
	"strings"

	"github.com/mna/vesper/lang/value"
)

// Disassemble renders fn and every function nested in its constant pool
// as human-readable text, for the CLI's -d/--dump flag. Grounded on the
// teacher's lang/compiler/asm.go Dasm/dasm.function pair, adapted from
// its uvarint-addressed, jump-patched-to-index instruction stream to
// this chunk's fixed-width operands (OperandWidth). A jump is printed
// with its raw 16-bit operand, which is a relative byte distance (forward
// from the end of the operand, or backward for JUMP_BACK), not an
// absolute target.
func Disassemble(fn *Function) string {
	var sb strings.Builder
	seen := map[*Function]bool{}
	disassembleOne(&sb, fn, seen)
	return sb.String()
}

func disassembleOne(sb *strings.Builder, fn *Function, seen map[*Function]bool) {
	if seen[fn] {
		return
	}
	seen[fn] = true

	fmt.Fprintf(sb, "function: %s maxslots=%d argc=%d", fn.Name, fn.MaxSlots, fn.ArgCount)
	if fn.Vararg {
		sb.WriteString(" +vararg")
	}
	sb.WriteString("\n")

	if len(fn.Chunk.Constants) > 0 {
		sb.WriteString("\tconstants:\n")
		for i, c := range fn.Chunk.Constants {
			fmt.Fprintf(sb, "\t\t%03d\t%s\n", i, constantText(c))
		}
	}

	sb.WriteString("\tcode:\n")
	code := fn.Chunk.Code
	for offset := 0; offset < len(code); {
		op := Opcode(code[offset])
		line := fn.Chunk.Lines[offset]
		width := OperandWidth(op)

		switch {
		case op == CLOSURE:
			idx := code[offset+1]
			upCount := 0
			if int(idx) < len(fn.Chunk.Constants) {
				if nested, ok := fn.Chunk.Constants[idx].AsObj().(*Function); ok {
					upCount = nested.UpvalueCount
				}
			}
			fmt.Fprintf(sb, "\t\t%04d CLOSURE %d", offset, idx)
			offset += 2
			for i := 0; i < upCount; i++ {
				isLocal, upIdx := code[offset], code[offset+1]
				fmt.Fprintf(sb, " (%d,%d)", isLocal, upIdx)
				offset += 2
			}
			fmt.Fprintf(sb, "\t# line %d\n", line)
		case width == 1:
			fmt.Fprintf(sb, "\t\t%04d %s %d\t# line %d\n", offset, op, code[offset+1], line)
			offset += 2
		case width == 2:
			arg := uint16(code[offset+1])<<8 | uint16(code[offset+2])
			fmt.Fprintf(sb, "\t\t%04d %s %d\t# line %d\n", offset, op, arg, line)
			offset += 3
		default:
			fmt.Fprintf(sb, "\t\t%04d %s\t# line %d\n", offset, op, line)
			offset++
		}
	}

	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.AsObj().(*Function); ok {
			sb.WriteString("\n")
			disassembleOne(sb, nested, seen)
		}
	}
}

func constantText(v value.Value) string {
	switch {
	case v.IsNumber():
		return fmt.Sprintf("number %g", v.AsNumber())
	case v.IsNull():
		return "null"
	case v.IsBool():
		return fmt.Sprintf("bool %t", v.AsBool())
	}
	switch o := v.AsObj().(type) {
	case *value.String:
		return fmt.Sprintf("string %q", o.String())
	case *Function:
		return fmt.Sprintf("function %s", o.Name)
	default:
		return fmt.Sprintf("object %T", o)
	}
}
