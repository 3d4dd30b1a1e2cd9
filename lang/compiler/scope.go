package compiler

import (
	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/token"
)

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

// endScope pops every local declared in the scope just exited. Captured
// locals are closed with OP_CLOSE_UPVALUE instead of plain OP_POP, per
// §4.3.
func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fs.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(heap.OpCloseUpvalue)
		} else {
			c.emitOp(heap.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// declareVariable registers the variable named by c.prev as a new local
// in the current scope, or does nothing at global scope (globals are
// resolved by name, not by slot). It errors on a same-depth name
// collision.
func (c *Compiler) declareVariable(name string) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	c.fs.locals = append(c.fs.locals, localVar{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].depth = c.fs.scopeDepth
}

// resolveLocal looks up name back-to-front in fs's locals. It returns
// -1 if not found, and errors if the local is declared but not yet
// initialized (e.g. `var x = x;`).
func (c *Compiler) resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				c.error("can't read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name as a captured variable of an enclosing
// function, threading upvalues through intermediate frames and
// deduplicating by (index, isLocal). Returns -1 if name is not found in
// any enclosing scope (making it a global).
func resolveUpvalue(c *Compiler, fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}

	if local := c.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return addUpvalue(c, fs, uint8(local), true)
	}

	if up := resolveUpvalue(c, fs.enclosing, name); up != -1 {
		return addUpvalue(c, fs, uint8(up), false)
	}

	return -1
}

func addUpvalue(c *Compiler, fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("too many closure variables in function")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.fn.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}

// parseVariable consumes an identifier, declares it if inside a local
// scope, and returns the constant-pool index to use for DEFINE_GLOBAL
// if it turns out to be a global (unused, but harmless, for locals).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	name := c.prev.Lexeme
	c.declareVariable(name)
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOps(heap.OpDefineGlobal, global)
}

// namedVariable compiles a read, or (when canAssign and an `=` follows)
// a write, of the variable named name.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp heap.Op
	var arg int

	if local := c.resolveLocal(c.fs, name); local != -1 {
		getOp, setOp, arg = heap.OpGetLocal, heap.OpSetLocal, local
	} else if up := resolveUpvalue(c, c.fs, name); up != -1 {
		getOp, setOp, arg = heap.OpGetUpvalue, heap.OpSetUpvalue, up
	} else {
		getOp, setOp, arg = heap.OpGetGlobal, heap.OpSetGlobal, int(c.identifierConstant(name))
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOps(setOp, byte(arg))
	} else {
		c.emitOps(getOp, byte(arg))
	}
}
