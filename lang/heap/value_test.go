package heap_test

import (
	"testing"

	"github.com/loomlang/loom/lang/heap"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	require.False(t, heap.Nil.Truthy())
	require.False(t, heap.Bool(false).Truthy())
	require.True(t, heap.Bool(true).Truthy())
	require.True(t, heap.Number(0).Truthy())
	require.True(t, heap.Number(-1).Truthy())
}

func TestEqual(t *testing.T) {
	gc := heap.NewCollector()
	a := heap.FromObject(gc.NewString("hi"))
	b := heap.FromObject(gc.NewString("hi"))
	c := heap.FromObject(gc.NewString("bye"))

	require.True(t, heap.Equal(heap.Nil, heap.Nil))
	require.True(t, heap.Equal(heap.Number(1), heap.Number(1)))
	require.False(t, heap.Equal(heap.Number(1), heap.Number(2)))
	require.True(t, heap.Equal(heap.Bool(true), heap.Bool(true)))
	require.False(t, heap.Equal(heap.Bool(true), heap.Bool(false)))
	require.False(t, heap.Equal(heap.Nil, heap.Bool(false)))
	require.False(t, heap.Equal(heap.Number(0), heap.Bool(false)))
	require.True(t, heap.Equal(a, b), "strings compare by content")
	require.False(t, heap.Equal(a, c))

	fn1 := gc.NewFunction("f", 0)
	fn2 := gc.NewFunction("f", 1)
	require.True(t, heap.Equal(heap.FromObject(fn1), heap.FromObject(fn2)), "functions compare by name")

	inst1 := gc.NewInstance(nil)
	inst2 := gc.NewInstance(nil)
	require.False(t, heap.Equal(heap.FromObject(inst1), heap.FromObject(inst2)), "instances compare by identity")
	require.True(t, heap.Equal(heap.FromObject(inst1), heap.FromObject(inst1)))
}

func TestStringRendering(t *testing.T) {
	require.Equal(t, "nil", heap.Nil.String())
	require.Equal(t, "true", heap.Bool(true).String())
	require.Equal(t, "false", heap.Bool(false).String())
	require.Equal(t, "3", heap.Number(3).String())
	require.Equal(t, "3.5", heap.Number(3.5).String())
}

func TestTypeName(t *testing.T) {
	gc := heap.NewCollector()
	require.Equal(t, "nil", heap.Nil.TypeName())
	require.Equal(t, "bool", heap.Bool(true).TypeName())
	require.Equal(t, "number", heap.Number(1).TypeName())
	require.Equal(t, "string", heap.FromObject(gc.NewString("s")).TypeName())
	require.Equal(t, "instance", heap.FromObject(gc.NewInstance(nil)).TypeName())
}

func TestInstanceStringifiesByClassOrSortedDump(t *testing.T) {
	gc := heap.NewCollector()
	cls := gc.NewClass("Point")
	inst := gc.NewInstance(cls)
	require.Equal(t, "Point instance", inst.String())

	classless := gc.NewInstance(nil)
	classless.Fields.Set("b", heap.Number(2))
	classless.Fields.Set("a", heap.FromObject(gc.NewString("x")))
	require.Equal(t, `{a: "x", b: 2}`, classless.String())
}

func TestFunctionAndClosureStringify(t *testing.T) {
	gc := heap.NewCollector()
	script := gc.NewFunction("", 0)
	require.Equal(t, "<script>", script.String())

	fn := gc.NewFunction("add", 2)
	require.Equal(t, "[fn add]", fn.String())

	closure := gc.NewClosure(fn)
	require.Equal(t, "<fn add>", closure.String())
}
