package vm

import (
	"unsafe"

	"github.com/loomlang/loom/lang/heap"
)

// addr turns a stack-slot pointer into a comparable address. The
// open-upvalue list must stay sorted by decreasing stack address (§3,
// §4.3), and Go doesn't define ordering on pointers directly; this is
// the one place that steps outside the type system to get it, safe
// because every such pointer points into the VM's single fixed-capacity
// stack array for the life of the process.
func addr(v *heap.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

// captureUpvalue returns the existing open upvalue over slot, or
// allocates and links a new one at the position preserving the list's
// decreasing-address order.
func (vm *VM) captureUpvalue(slot *heap.Value) *heap.Upvalue {
	var prev *heap.Upvalue
	cur := vm.openUpvalues
	for cur != nil && addr(cur.Location) > addr(slot) {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Location == slot {
		return cur
	}

	created := vm.gc.NewUpvalue(slot)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above threshold,
// copying its slot's value into its own storage and unlinking it from
// the open list.
func (vm *VM) closeUpvalues(threshold *heap.Value) {
	for vm.openUpvalues != nil && addr(vm.openUpvalues.Location) >= addr(threshold) {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.NextOpen
		uv.NextOpen = nil
	}
}
