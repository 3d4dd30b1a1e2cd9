package heap

import (
	"fmt"
	"strings"
)

// DisassembleChunk renders every instruction in chunk as human-readable
// text headed by name. This is the optional diagnostic from spec §1: not
// part of the VM's observable contract, useful only for development.
func DisassembleChunk(chunk *Chunk, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		var line string
		offset, line = DisassembleInstruction(chunk, offset)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns the offset of the instruction that follows it.
func DisassembleInstruction(chunk *Chunk, offset int) (int, string) {
	op := Op(chunk.Code[offset])
	prefix := fmt.Sprintf("%04d %4d %s", offset, chunk.LineAt(offset), op)

	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal,
		OpClass, OpGetProperty, OpSetProperty, OpKey:
		k := chunk.Code[offset+1]
		return offset + 2, fmt.Sprintf("%s %d '%s'", prefix, k, constantText(chunk, k))

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpArray:
		return offset + 2, fmt.Sprintf("%s %d", prefix, chunk.Code[offset+1])

	case OpJump, OpJumpIfFalse, OpLoop:
		off := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
		return offset + 3, fmt.Sprintf("%s %d", prefix, off)

	case OpCall, OpInvokeByKey:
		return offset + 2, fmt.Sprintf("%s (%d args)", prefix, chunk.Code[offset+1])

	case OpInvoke:
		k, argc := chunk.Code[offset+1], chunk.Code[offset+2]
		return offset + 3, fmt.Sprintf("%s %d '%s' (%d args)", prefix, k, constantText(chunk, k), argc)

	case OpMethod:
		k := chunk.Code[offset+1]
		return offset + 2, fmt.Sprintf("%s %d '%s'", prefix, k, constantText(chunk, k))

	case OpClosure:
		idx := chunk.Code[offset+1]
		next := offset + 2
		text := fmt.Sprintf("%s %d '%s'", prefix, idx, constantText(chunk, idx))
		if fn, ok := chunk.Constants[idx].AsObject().(*Function); ok {
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal, index := chunk.Code[next], chunk.Code[next+1]
				kind := "upvalue"
				if isLocal == 1 {
					kind = "local"
				}
				text += fmt.Sprintf("\n%04d      |                     %s %d", next, kind, index)
				next += 2
			}
		}
		return next, text

	default:
		return offset + 1, prefix
	}
}

func constantText(chunk *Chunk, idx byte) string {
	if int(idx) >= len(chunk.Constants) {
		return ""
	}
	return chunk.Constants[idx].String()
}
