package compiler

import "github.com/loomlang/loom/lang/heap"

// functionType tags what kind of function body a nested compiler state
// is building, since that changes what slot 0 means and what a bare
// return does.
type functionType uint8

const (
	typeScript functionType = iota
	typeFunction
	typeMethod
	typeInitializer
)

// maxLocals and maxUpvalues are the per-function limits from §4.2: both
// are addressed by a single unsigned byte operand.
const (
	maxLocals   = 256
	maxUpvalues = 256
	maxParams   = 255
)

type localVar struct {
	name       string
	depth      int // -1 while declared but not yet initialized
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is one nested compiler frame: one per function body being
// compiled, chained to its lexically enclosing frame. The compiler keeps
// a stack of these, mirroring the spec's "stack of nested compilers".
type funcState struct {
	enclosing *funcState

	fn     *heap.Function
	fnType functionType

	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int

	// identifierConstants deduplicates identifier constants within this
	// function's chunk, so repeated references to the same name (a local
	// read inside a loop, a property accessed many times) don't exhaust
	// the 256-entry constant pool.
	identifierConstants map[string]int
}

func newFuncState(enclosing *funcState, fn *heap.Function, fnType functionType) *funcState {
	fs := &funcState{
		enclosing:            enclosing,
		fn:                   fn,
		fnType:               fnType,
		identifierConstants:  make(map[string]int),
	}
	// Slot 0 of every function's locals is reserved: the callee itself for
	// script/function, `this` for method/initializer.
	name := ""
	if fnType == typeMethod || fnType == typeInitializer {
		name = "this"
	}
	fs.locals = append(fs.locals, localVar{name: name, depth: 0})
	return fs
}

// classState tracks the stack of classes currently being compiled, so
// that `this` inside a method body is legal.
type classState struct {
	enclosing *classState
}
