// Package compiler implements loom's single-pass, Pratt-precedence
// recursive-descent compiler: it parses and emits bytecode into the
// currently-compiled function's Chunk in one pass, with no intermediate
// AST, per spec §4.2.
package compiler

import (
	"fmt"

	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/scanner"
	"github.com/loomlang/loom/lang/token"
)

// Compiler holds all state for compiling one source unit: the scanner
// feeding it tokens, the collector it allocates heap objects through,
// the chain of nested function compilers, and the chain of classes
// currently being compiled.
type Compiler struct {
	sc *scanner.Scanner
	gc *heap.Collector

	cur  token.Token
	prev token.Token

	fs    *funcState
	class *classState

	errs      scanner.ErrorList
	hadError  bool
	panicking bool

	removeRoot func()
}

// Compile parses and compiles source into a top-level script Function,
// or returns nil and a non-nil error (an errs implementing
// Unwrap() []error) if any compile-time error was reported.
func Compile(source string, gc *heap.Collector) (*heap.Function, error) {
	var sc scanner.Scanner
	sc.Init("", []byte(source))

	c := &Compiler{sc: &sc, gc: gc}
	fn := gc.NewFunction("", 0)
	c.fs = newFuncState(nil, fn, typeScript)
	c.removeRoot = gc.PushRootProvider(c.gcRoots)
	defer c.removeRoot()

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "expect end of expression")
	c.endFunction()

	if c.hadError {
		c.errs.Sort()
		return nil, c.errs
	}
	return fn, nil
}

// gcRoots exposes every function currently being built in the chain of
// active compilers, as required by §4.4's root enumeration: the
// compiler holds raw references to function objects it allocated before
// they are reachable from anywhere else (no closure wraps them yet).
func (c *Compiler) gcRoots(mark func(heap.Value)) {
	for fs := c.fs; fs != nil; fs = fs.enclosing {
		mark(heap.FromObject(fs.fn))
	}
}

// --- token stream ---

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.sc.Next()
		if c.cur.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.cur.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.cur.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.cur, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.prev, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicking {
		return
	}
	c.panicking = true
	c.hadError = true

	where := fmt.Sprintf("at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = "at end"
	}
	c.errs.Add(scanner.Position{Line: tok.Line}, fmt.Sprintf("Error %s: %s", where, msg))
}

// synchronize discards tokens until a statement boundary (semicolon or a
// statement-starter keyword), per §4.2's error recovery rule.
func (c *Compiler) synchronize() {
	c.panicking = false
	for c.cur.Kind != token.EOF {
		if c.prev.Kind == token.SEMI {
			return
		}
		switch c.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.PRINTLN, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- emission ---

func (c *Compiler) chunk() *heap.Chunk { return c.fs.fn.Chunk }

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.prev.Line)
}

func (c *Compiler) emitOp(op heap.Op) { c.emitByte(byte(op)) }

func (c *Compiler) emitOps(op heap.Op, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

// emitJump emits op followed by a placeholder 16-bit operand and returns
// the offset of the first placeholder byte, to be patched later.
func (c *Compiler) emitJump(op heap.Op) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
		return
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(heap.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("loop body too large")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitReturn() {
	if c.fs.fnType == typeInitializer {
		c.emitOps(heap.OpGetLocal, 0)
	} else {
		c.emitOp(heap.OpNil)
	}
	c.emitOp(heap.OpReturn)
}

// makeConstant adds v to the current chunk's constant pool and returns
// its index as a byte, erroring if the 256-entry pool is full.
func (c *Compiler) makeConstant(v heap.Value) byte {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v heap.Value) {
	c.emitOps(heap.OpConstant, c.makeConstant(v))
}

// identifierConstant interns name as a string constant, reusing the slot
// if this function already referenced the same name.
func (c *Compiler) identifierConstant(name string) byte {
	if idx, ok := c.fs.identifierConstants[name]; ok {
		return byte(idx)
	}
	idx, err := c.chunk().AddConstant(heap.FromObject(c.gc.NewString(name)))
	if err != nil {
		c.error(err.Error())
		return 0
	}
	c.fs.identifierConstants[name] = idx
	return byte(idx)
}

// endFunction finalizes the top-level script by emitting its implicit
// return. It leaves c.fs as it is; nested function bodies restore their
// enclosing state in function.
func (c *Compiler) endFunction() {
	c.emitReturn()
}
