package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a Bytecode.
// withLocations controls the CLI's -b (with source locations) vs -B
// (without) distinction.
func Disassemble(b *Bytecode, name string, withLocations bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	offset := 0
	for offset < len(b.Code) {
		offset = disassembleInstruction(&sb, b, offset, withLocations)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, b *Bytecode, offset int, withLocations bool) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if withLocations {
		if loc, ok := b.Locations[offset]; ok {
			fmt.Fprintf(sb, "%4d:%-3d ", loc.Start.Line, loc.Start.Column)
		} else {
			sb.WriteString("     |   ")
		}
	}

	op := Opcode(b.Code[offset])
	width := OperandWidth(op)
	switch width {
	case 0:
		fmt.Fprintf(sb, "%s\n", op)
		return offset + 1
	case 2:
		v := b.ReadU16(offset + 1)
		switch op {
		case Constant:
			if int(v) < len(b.Constants) {
				fmt.Fprintf(sb, "%-16s %4d '%s'\n", op, v, b.Constants[v].DebugDescription())
			} else {
				fmt.Fprintf(sb, "%-16s %4d\n", op, v)
			}
		case Call:
			fmt.Fprintf(sb, "%-16s %4d", op, v)
			if withLocations {
				for i, r := range b.ArgumentRanges[offset] {
					fmt.Fprintf(sb, " arg%d@%d:%d", i+1, r.Start.Line, r.Start.Column)
				}
			}
			sb.WriteByte('\n')
		default:
			fmt.Fprintf(sb, "%-16s %4d\n", op, v)
		}
		return offset + 3
	default:
		fmt.Fprintf(sb, "%s (unknown width)\n", op)
		return offset + 1
	}
}
