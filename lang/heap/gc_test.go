package heap_test

import (
	"testing"

	"github.com/loomlang/loom/lang/heap"
	"github.com/stretchr/testify/require"
)

func TestCollectFreesUnreachableObjects(t *testing.T) {
	gc := heap.NewCollector()

	kept := gc.NewString("kept")
	gc.NewString("garbage one")
	gc.NewString("garbage two")

	before := gc.BytesAllocated()
	require.Greater(t, before, int64(0))

	var root heap.Value
	gc.AddRootProvider(func(mark func(heap.Value)) { mark(root) })
	root = heap.FromObject(kept)

	gc.Collect()

	// Only the rooted string should still be accounted for.
	require.Equal(t, "kept", kept.Str())
	after := gc.BytesAllocated()
	require.Less(t, after, before)
}

func TestCollectRetainsTransitivelyReachableObjects(t *testing.T) {
	gc := heap.NewCollector()

	fn := gc.NewFunction("f", 0)
	idx, err := fn.Chunk.AddConstant(heap.FromObject(gc.NewString("inner")))
	require.NoError(t, err)

	var root heap.Value
	gc.AddRootProvider(func(mark func(heap.Value)) { mark(root) })
	root = heap.FromObject(fn)

	gc.Collect()

	// The constant the function references must have survived because
	// Function.traceRefs walks the chunk's constant pool.
	constStr := fn.Chunk.Constants[idx].AsObject().(*heap.String)
	require.Equal(t, "inner", constStr.Str())
}

func TestCollectionsCounterIncrements(t *testing.T) {
	gc := heap.NewCollector()
	require.Equal(t, 0, gc.Collections)
	gc.Collect()
	require.Equal(t, 1, gc.Collections)
	gc.Collect()
	require.Equal(t, 2, gc.Collections)
}

func TestPushRootProviderCanBeWithdrawn(t *testing.T) {
	gc := heap.NewCollector()
	s := gc.NewString("temporary")

	remove := gc.PushRootProvider(func(mark func(heap.Value)) {
		mark(heap.FromObject(s))
	})
	gc.Collect()
	require.Equal(t, "temporary", s.String())

	remove()
	before := gc.BytesAllocated()
	gc.Collect()
	after := gc.BytesAllocated()
	require.Less(t, after, before, "withdrawing the root provider should let the string be swept")
}

func TestAllocationTriggeredCollectionRunsAutomatically(t *testing.T) {
	gc := heap.NewCollector()
	for i := 0; i < 10000; i++ {
		gc.NewString("x")
	}
	require.Greater(t, gc.Collections, 0, "enough allocation should have crossed nextGC at least once")
}
