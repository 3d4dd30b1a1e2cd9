// Package vm implements loom's stack-based bytecode interpreter: the
// call-frame discipline, the decode-execute loop, method dispatch, the
// upvalue capture/close protocol, and the natives installed as globals
// at startup, per spec §4.3.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/loomlang/loom/lang/compiler"
	"github.com/loomlang/loom/lang/heap"
)

// maxStack is a fixed operand-stack capacity. The stack backing array
// must never reallocate: open upvalues hold raw pointers into it, and a
// reallocation would silently strand them pointing at stale memory. This
// mirrors clox's fixed STACK_MAX: pushing past maxStack values is a
// "Stack overflow." runtime error.
const maxStack = 1 << 16

// Frame is one active call: its closure, its byte-cursor into the
// closure's function chunk, and the stack index where its local slot 0
// lives.
type Frame struct {
	closure *heap.Closure
	ip      int
	base    int
}

// Result classifies how Interpret finished, driving the driver's exit
// code (§6).
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

// VM is loom's single process-wide interpreter instance. It owns the GC,
// the operand stack, the frame stack, globals, and the open-upvalue
// list.
type VM struct {
	gc *heap.Collector

	stack  []heap.Value
	frames []Frame

	globals      *heap.FieldTable
	openUpvalues *heap.Upvalue

	// initName is the cached constructor-name string, interned once at
	// startup and kept alive as a GC root per §4.4, even though method
	// lookup itself compares by plain Go string.
	initName *heap.String

	stdout io.Writer
	stderr io.Writer
	stdin  *bufio.Reader

	start time.Time

	// trace, when non-nil, receives a disassembled line for every
	// instruction before it executes. An optional diagnostic (§1): never
	// consulted by any opcode handler, never part of observable behavior.
	trace io.Writer
}

// SetTrace enables per-instruction disassembly tracing to w, or disables
// it if w is nil. Diagnostic only, driven by the driver's --trace flag.
func (vm *VM) SetTrace(w io.Writer) { vm.trace = w }

func (vm *VM) traceStep(frame *Frame, chunk *heap.Chunk) {
	fmt.Fprintf(vm.trace, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.trace, "[ %s ]", v.String())
	}
	fmt.Fprintln(vm.trace)
	_, line := heap.DisassembleInstruction(chunk, frame.ip)
	fmt.Fprintln(vm.trace, line)
}

// New constructs a VM wired to the given collector and I/O streams, and
// installs the built-in natives (§6) as globals.
func New(gc *heap.Collector, stdout, stderr io.Writer, stdin io.Reader) *VM {
	vm := &VM{
		gc:       gc,
		stack:    make([]heap.Value, 0, maxStack),
		globals:  heap.NewTable[heap.Value](16),
		initName: gc.NewString("init"),
		stdout:   stdout,
		stderr:   stderr,
		stdin:    bufio.NewReader(stdin),
		start:    time.Now(),
	}
	gc.AddRootProvider(vm.gcRoots)
	vm.registerNatives()
	return vm
}

func (vm *VM) gcRoots(mark func(heap.Value)) {
	for _, v := range vm.stack {
		mark(v)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		mark(heap.FromObject(uv))
	}
	vm.globals.Each(func(_ string, v heap.Value) { mark(v) })
	for _, f := range vm.frames {
		mark(heap.FromObject(f.closure))
	}
	mark(heap.FromObject(vm.initName))
}

// Interpret compiles and runs source as a complete program.
func (vm *VM) Interpret(source string) Result {
	fn, err := compiler.Compile(source, vm.gc)
	if err != nil {
		for _, e := range flattenCompileErrors(err) {
			fmt.Fprintln(vm.stderr, e)
		}
		return ResultCompileError
	}

	closure := vm.gc.NewClosure(fn)
	vm.push(heap.FromObject(closure))
	vm.frames = append(vm.frames, Frame{closure: closure, base: 0})

	if err := vm.run(); err != nil {
		vm.printRuntimeError(err)
		vm.stack = vm.stack[:0]
		vm.frames = vm.frames[:0]
		vm.openUpvalues = nil
		return ResultRuntimeError
	}
	return ResultOK
}

func flattenCompileErrors(err error) []string {
	type unwrapper interface{ Unwrap() []error }
	if u, ok := err.(unwrapper); ok {
		errs := u.Unwrap()
		out := make([]string, len(errs))
		for i, e := range errs {
			out[i] = e.Error()
		}
		return out
	}
	return []string{err.Error()}
}

// --- stack helpers ---

func (vm *VM) push(v heap.Value) {
	if len(vm.stack) >= maxStack {
		panic(runtimeError{msg: "Stack overflow."})
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() heap.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(depth int) heap.Value {
	return vm.stack[len(vm.stack)-1-depth]
}

// --- errors ---

// runtimeError is raised as a Go panic from deep inside run's opcode
// handlers and recovered at the top of run, so that every handler can
// report a failure without threading an error return through the
// decode-execute loop's hot path.
type runtimeError struct {
	msg string
}

func (e runtimeError) Error() string { return e.msg }

func (vm *VM) throw(format string, args ...any) {
	panic(runtimeError{msg: fmt.Sprintf(format, args...)})
}

// printRuntimeError writes the message and a frame backtrace to stderr,
// per §4.3 and §7's format.
func (vm *VM) printRuntimeError(err error) {
	fmt.Fprintln(vm.stderr, err.Error())
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		line := f.closure.Fn.Chunk.LineAt(f.ip - 1)
		if f.closure.Fn.Name == "" {
			fmt.Fprintf(vm.stderr, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(vm.stderr, "[line %d] in %s()\n", line, f.closure.Fn.Name)
		}
	}
}

// --- array/map key stringification ---

func keyString(v heap.Value) (string, bool) {
	if v.IsNumber() {
		return v.String(), true
	}
	if v.IsObject() {
		if s, ok := v.AsObject().(*heap.String); ok {
			return s.Str(), true
		}
	}
	return "", false
}
