package compiler

import (
	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/token"
)

// function compiles a parameter list and body for the function or method
// whose name token was just consumed into c.prev, pushing a fresh
// funcState for its body and popping back to the enclosing one when
// done. It leaves an OP_CLOSURE instruction (with per-upvalue operand
// pairs) emitted into the enclosing chunk, per §4.2/§4.3.
func (c *Compiler) function(fnType functionType) {
	name := c.prev.Lexeme
	fn := c.gc.NewFunction(name, 0)

	enclosing := c.fs
	c.fs = newFuncState(enclosing, fn, fnType)
	c.beginScope()

	c.consume(token.LPAREN, "expect '(' after function name")
	if !c.check(token.RPAREN) {
		for {
			fn.Arity++
			if fn.Arity > maxParams {
				c.errorAtCurrent("can't have more than 255 parameters")
			}
			paramConst := c.parseVariable("expect parameter name")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after parameters")
	c.consume(token.LBRACE, "expect '{' before function body")
	c.block()

	c.emitReturn()
	finished := c.fs
	c.fs = enclosing

	idx := c.makeConstant(heap.FromObject(fn))
	c.emitOps(heap.OpClosure, idx)
	for _, uv := range finished.upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.emitByte(uv.index)
	}
}
