package vm

import (
	"math"
	"strconv"

	"github.com/loomlang/loom/lang/heap"
)

// run is the decode-execute loop over the top frame's chunk, dispatched
// until the outermost frame returns. Opcode handlers report failures by
// panicking with runtimeError, recovered here so the hot loop never
// threads an error value through every iteration.
func (vm *VM) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(runtimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()

	for {
		frame := &vm.frames[len(vm.frames)-1]
		chunk := frame.closure.Fn.Chunk

		if vm.trace != nil {
			vm.traceStep(frame, chunk)
		}

		op := heap.Op(chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case heap.OpConstant:
			vm.push(chunk.Constants[vm.readByte(frame)])

		case heap.OpNil:
			vm.push(heap.Nil)
		case heap.OpTrue:
			vm.push(heap.Bool(true))
		case heap.OpFalse:
			vm.push(heap.Bool(false))

		case heap.OpPop:
			vm.pop()

		case heap.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])
		case heap.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case heap.OpGetGlobal:
			name := vm.constString(chunk, frame)
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.throw("Undefined variable '%s'.", name)
			}
			vm.push(v)
		case heap.OpSetGlobal:
			name := vm.constString(chunk, frame)
			if _, ok := vm.globals.Get(name); !ok {
				vm.throw("Undefined variable '%s'.", name)
			}
			vm.globals.Set(name, vm.peek(0))
		case heap.OpDefineGlobal:
			name := vm.constString(chunk, frame)
			vm.globals.Set(name, vm.pop())

		case heap.OpGetUpvalue:
			idx := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[idx].Location)
		case heap.OpSetUpvalue:
			idx := vm.readByte(frame)
			*frame.closure.Upvalues[idx].Location = vm.peek(0)

		case heap.OpGetProperty:
			vm.execGetProperty(vm.constString(chunk, frame))
		case heap.OpSetProperty:
			vm.execSetProperty(vm.constString(chunk, frame))
		case heap.OpGetPropertyByKey:
			vm.execGetPropertyByKey()
		case heap.OpSetPropertyByKey:
			vm.execSetPropertyByKey()

		case heap.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(heap.Bool(heap.Equal(a, b)))
		case heap.OpGreater:
			vm.numericBinary(func(a, b float64) heap.Value { return heap.Bool(a > b) })
		case heap.OpLess:
			vm.numericBinary(func(a, b float64) heap.Value { return heap.Bool(a < b) })

		case heap.OpAdd:
			vm.execAdd()
		case heap.OpSubtract:
			vm.numericBinary(func(a, b float64) heap.Value { return heap.Number(a - b) })
		case heap.OpMultiply:
			vm.numericBinary(func(a, b float64) heap.Value { return heap.Number(a * b) })
		case heap.OpDivide:
			vm.numericBinary(func(a, b float64) heap.Value { return heap.Number(a / b) })
		case heap.OpRemain:
			vm.numericBinary(func(a, b float64) heap.Value { return heap.Number(math.Mod(a, b)) })

		case heap.OpNot:
			vm.push(heap.Bool(!vm.pop().Truthy()))
		case heap.OpNegate:
			v := vm.pop()
			if !v.IsNumber() {
				vm.throw("Operand must be a number.")
			}
			vm.push(heap.Number(-v.AsNumber()))

		case heap.OpPrint:
			vm.stdout.Write([]byte(vm.pop().String()))
		case heap.OpPrintln:
			vm.stdout.Write([]byte(vm.pop().String()))
			vm.stdout.Write([]byte("\n"))

		case heap.OpJump:
			off := vm.readUint16(frame)
			frame.ip += int(off)
		case heap.OpJumpIfFalse:
			off := vm.readUint16(frame)
			if !vm.peek(0).Truthy() {
				frame.ip += int(off)
			}
		case heap.OpLoop:
			off := vm.readUint16(frame)
			frame.ip -= int(off)

		case heap.OpCall:
			argc := int(vm.readByte(frame))
			vm.callValue(argc)
		case heap.OpInvoke:
			name := vm.constString(chunk, frame)
			argc := int(vm.readByte(frame))
			vm.invoke(name, argc)
		case heap.OpInvokeByKey:
			argc := int(vm.readByte(frame))
			vm.execInvokeByKey(argc)

		case heap.OpClosure:
			vm.execClosure(chunk, frame)
		case heap.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[len(vm.stack)-1])
			vm.pop()

		case heap.OpReturn:
			result := vm.pop()
			finished := vm.frames[len(vm.frames)-1]
			vm.closeUpvalues(&vm.stack[finished.base])
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack = vm.stack[:finished.base]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		case heap.OpClass:
			name := vm.constString(chunk, frame)
			vm.push(heap.FromObject(vm.gc.NewClass(name)))
		case heap.OpMethod:
			name := vm.constString(chunk, frame)
			closure := vm.pop().AsObject().(*heap.Closure)
			cls := vm.peek(0).AsObject().(*heap.Class)
			cls.Methods.Set(name, closure)

		case heap.OpArray:
			vm.execArray(int(vm.readByte(frame)))
		case heap.OpMap:
			vm.push(heap.FromObject(vm.gc.NewInstance(nil)))
		case heap.OpKey:
			name := vm.constString(chunk, frame)
			value := vm.pop()
			inst := vm.peek(0).AsObject().(*heap.Instance)
			inst.Fields.Set(name, value)

		default:
			vm.throw("unknown opcode %d", op)
		}
	}
}

func (vm *VM) readByte(frame *Frame) byte {
	b := frame.closure.Fn.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readUint16(frame *Frame) uint16 {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) constString(chunk *heap.Chunk, frame *Frame) string {
	idx := vm.readByte(frame)
	return chunk.Constants[idx].AsObject().(*heap.String).Str()
}

func (vm *VM) numericBinary(op func(a, b float64) heap.Value) {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		vm.throw("Operands must be numbers.")
	}
	vm.push(op(a.AsNumber(), b.AsNumber()))
}

// execAdd implements §4.3's overloaded ADD: number+number adds, and
// string+string concatenates into a freshly allocated string.
func (vm *VM) execAdd() {
	b, a := vm.pop(), vm.pop()
	if a.IsNumber() && b.IsNumber() {
		vm.push(heap.Number(a.AsNumber() + b.AsNumber()))
		return
	}
	as, aok := stringOf(a)
	bs, bok := stringOf(b)
	if aok && bok {
		vm.push(heap.FromObject(vm.gc.NewString(as + bs)))
		return
	}
	vm.throw("Operands must be two numbers or two strings.")
}

func stringOf(v heap.Value) (string, bool) {
	if v.IsObject() {
		if s, ok := v.AsObject().(*heap.String); ok {
			return s.Str(), true
		}
	}
	return "", false
}

func (vm *VM) execGetProperty(name string) {
	inst, ok := vm.peek(0).AsObject().(*heap.Instance)
	if !ok {
		vm.throw("Only instances have properties.")
	}
	if v, ok := inst.Fields.Get(name); ok {
		vm.pop()
		vm.push(v)
		return
	}
	if inst.Class != nil && vm.bindMethod(inst.Class, name) {
		return
	}
	vm.throw("Undefined property '%s'.", name)
}

func (vm *VM) execSetProperty(name string) {
	value := vm.peek(0)
	inst, ok := vm.peek(1).AsObject().(*heap.Instance)
	if !ok {
		vm.throw("Only instances have fields.")
	}
	inst.Fields.Set(name, value)
	vm.pop()
	vm.pop()
	vm.push(value)
}

func (vm *VM) execGetPropertyByKey() {
	key := vm.pop()
	name, ok := keyString(key)
	if !ok {
		vm.throw("Index must be a number or a string.")
	}
	vm.execGetProperty(name)
}

func (vm *VM) execSetPropertyByKey() {
	value := vm.pop()
	key := vm.pop()
	name, ok := keyString(key)
	if !ok {
		vm.throw("Index must be a number or a string.")
	}
	inst, ok := vm.peek(0).AsObject().(*heap.Instance)
	if !ok {
		vm.throw("Only instances have fields.")
	}
	inst.Fields.Set(name, value)
	vm.pop()
	vm.push(value)
}

// execInvokeByKey stringifies the computed key already on the stack
// (beneath the call arguments, above the receiver) and dispatches like
// OP_INVOKE.
func (vm *VM) execInvokeByKey(argc int) {
	keyIdx := len(vm.stack) - argc - 1
	name, ok := keyString(vm.stack[keyIdx])
	if !ok {
		vm.throw("Index must be a number or a string.")
	}
	// Drop the key slot, shifting the argc arguments down by one so the
	// stack matches OP_INVOKE's layout: receiver at depth argc, args above.
	copy(vm.stack[keyIdx:], vm.stack[keyIdx+1:])
	vm.stack = vm.stack[:len(vm.stack)-1]
	vm.invoke(name, argc)
}

func (vm *VM) execClosure(chunk *heap.Chunk, frame *Frame) {
	idx := vm.readByte(frame)
	fn := chunk.Constants[idx].AsObject().(*heap.Function)
	closure := vm.gc.NewClosure(fn)
	vm.push(heap.FromObject(closure))

	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte(frame)
		index := vm.readByte(frame)
		if isLocal == 1 {
			closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.base+int(index)])
		} else {
			closure.Upvalues[i] = frame.closure.Upvalues[index]
		}
	}
}

// execArray builds a classless instance whose fields "0".."n-1" hold the
// top n stack values in evaluation order, per §4.3.
func (vm *VM) execArray(n int) {
	// Allocate while the n elements are still on vm.stack, so they remain
	// GC roots for the allocation's maybeCollect. Only then pop them off,
	// one at a time, into the new instance's fields.
	inst := vm.gc.NewInstance(nil)
	for i := n - 1; i >= 0; i-- {
		inst.Fields.Set(strconv.Itoa(i), vm.pop())
	}
	vm.push(heap.FromObject(inst))
}
