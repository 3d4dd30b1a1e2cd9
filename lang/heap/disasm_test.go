package heap_test

import (
	"strings"
	"testing"

	"github.com/loomlang/loom/lang/heap"
	"github.com/stretchr/testify/require"
)

func TestDisassembleChunkRendersConstantsAndJumps(t *testing.T) {
	chunk := &heap.Chunk{}

	idx, err := chunk.AddConstant(heap.Number(42))
	require.NoError(t, err)
	chunk.Write(byte(heap.OpConstant), 1)
	chunk.Write(byte(idx), 1)

	chunk.Write(byte(heap.OpJumpIfFalse), 2)
	chunk.Write(0, 2)
	chunk.Write(3, 2)

	chunk.Write(byte(heap.OpReturn), 3)

	out := heap.DisassembleChunk(chunk, "test")
	require.Contains(t, out, "== test ==")
	require.Contains(t, out, "CONSTANT")
	require.Contains(t, out, "42")
	require.Contains(t, out, "JUMP_IF_FALSE")
	require.Contains(t, out, "RETURN")
	require.Equal(t, 4, strings.Count(out, "\n"))
}
