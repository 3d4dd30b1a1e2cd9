package compiler

import (
	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/token"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicking {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.PRINTLN):
		c.printlnStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "expect '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "expect ';' after value")
	c.emitOp(heap.OpPrint)
}

func (c *Compiler) printlnStatement() {
	c.expression()
	c.consume(token.SEMI, "expect ';' after value")
	c.emitOp(heap.OpPrintln)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "expect ';' after expression")
	c.emitOp(heap.OpPop)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("expect variable name")
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(heap.OpNil)
	}
	c.consume(token.SEMI, "expect ';' after variable declaration")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("expect function name")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

// ifStatement compiles `if (cond) then [else else]` as a pair of jumps,
// per §4.2's desugaring table.
func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "expect '(' after 'if'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	thenJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOp(heap.OpPop)
	c.statement()

	elseJump := c.emitJump(heap.OpJump)
	c.patchJump(thenJump)
	c.emitOp(heap.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "expect '(' after 'while'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	exitJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOp(heap.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(heap.OpPop)
}

// forStatement desugars the three-clause for loop into the equivalent
// while loop bytecode, per §4.2.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "expect '(' after 'for'")

	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "expect ';' after loop condition")
		exitJump = c.emitJump(heap.OpJumpIfFalse)
		c.emitOp(heap.OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(heap.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(heap.OpPop)
		c.consume(token.RPAREN, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(heap.OpPop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.fs.fnType == typeScript {
		c.error("can't return from top-level code")
	}
	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.fs.fnType == typeInitializer {
		c.error("can't return a value from an initializer")
	}
	c.expression()
	c.consume(token.SEMI, "expect ';' after return value")
	c.emitOp(heap.OpReturn)
}

// classDeclaration compiles `class Name { method() {} ... }`. There is no
// superclass clause: the language has no inheritance, only single
// dispatch against a flat method table (see the data model's Class/
// Instance types).
func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "expect class name")
	className := c.prev.Lexeme
	nameConst := c.identifierConstant(className)
	c.declareVariable(className)

	c.emitOps(heap.OpClass, nameConst)
	c.defineVariable(nameConst)

	c.class = &classState{enclosing: c.class}
	c.namedVariable(className, false)

	c.consume(token.LBRACE, "expect '{' before class body")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "expect '}' after class body")
	c.emitOp(heap.OpPop)

	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "expect method name")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	fnType := typeMethod
	if name == "init" {
		fnType = typeInitializer
	}
	c.function(fnType)
	c.emitOps(heap.OpMethod, nameConst)
}
