package vm

import "github.com/loomlang/loom/lang/heap"

// callValue dispatches CALL's callee by kind: closure, class
// (constructor), native, or bound method. argc values plus the callee
// itself occupy the top argc+1 stack slots.
func (vm *VM) callValue(argc int) {
	callee := vm.peek(argc)
	obj := callee.AsObject()
	if obj == nil {
		vm.throw("Can only call functions and classes.")
	}

	switch o := obj.(type) {
	case *heap.Closure:
		vm.call(o, argc)
	case *heap.Class:
		inst := vm.gc.NewInstance(o)
		vm.stack[len(vm.stack)-argc-1] = heap.FromObject(inst)
		if initClosure, ok := o.Methods.Get("init"); ok {
			vm.call(initClosure, argc)
			return
		}
		if argc != 0 {
			vm.throw("Expected 0 arguments but got %d.", argc)
		}
	case *heap.Native:
		if argc != o.Arity {
			vm.throw("Expected %d arguments but got %d.", o.Arity, argc)
		}
		args := append([]heap.Value(nil), vm.stack[len(vm.stack)-argc:]...)
		result, err := o.Fn(args)
		if err != nil {
			vm.throw("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		vm.push(result)
	case *heap.BoundMethod:
		vm.stack[len(vm.stack)-argc-1] = o.Receiver
		vm.call(o.Method, argc)
	default:
		vm.throw("Can only call functions and classes.")
	}
}

// call pushes a new frame for closure after checking its arity.
func (vm *VM) call(closure *heap.Closure, argc int) {
	if argc != closure.Fn.Arity {
		vm.throw("Expected %d arguments but got %d.", closure.Fn.Arity, argc)
	}
	vm.frames = append(vm.frames, Frame{
		closure: closure,
		base:    len(vm.stack) - argc - 1,
	})
}

// invoke executes OP_INVOKE's fused property-read-then-call: a field
// holding a callable takes priority over a method of the same name.
func (vm *VM) invoke(name string, argc int) {
	receiver := vm.peek(argc)
	inst, ok := receiver.AsObject().(*heap.Instance)
	if !ok {
		vm.throw("Only instances have methods.")
	}

	if field, ok := inst.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argc-1] = field
		vm.callValue(argc)
		return
	}
	vm.invokeFromClass(inst.Class, name, argc)
}

func (vm *VM) invokeFromClass(cls *heap.Class, name string, argc int) {
	if cls == nil {
		vm.throw("Undefined property '%s'.", name)
	}
	method, ok := cls.Methods.Get(name)
	if !ok {
		vm.throw("Undefined property '%s'.", name)
	}
	vm.call(method, argc)
}

// bindMethod looks up name on cls and, if found, replaces the top of
// stack (the receiver) with a BoundMethod pairing it with the looked-up
// closure.
func (vm *VM) bindMethod(cls *heap.Class, name string) bool {
	method, ok := cls.Methods.Get(name)
	if !ok {
		return false
	}
	bound := vm.gc.NewBoundMethod(vm.peek(0), method)
	vm.pop()
	vm.push(heap.FromObject(bound))
	return true
}
