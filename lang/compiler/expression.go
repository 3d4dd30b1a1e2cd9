package compiler

import (
	"strconv"
	"strings"

	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/token"
)

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.prev.Kind).prefix
	if prefix == nil {
		c.error("expect expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.cur.Kind).prec {
		c.advance()
		infix := getRule(c.prev.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) grouping(bool) {
	c.expression()
	c.consume(token.RPAREN, "expect ')' after expression")
}

func (c *Compiler) unary(bool) {
	opKind := c.prev.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(heap.OpNot)
	case token.MINUS:
		c.emitOp(heap.OpNegate)
	}
}

func (c *Compiler) binary(bool) {
	opKind := c.prev.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.prec + 1)

	switch opKind {
	case token.PLUS:
		c.emitOp(heap.OpAdd)
	case token.MINUS:
		c.emitOp(heap.OpSubtract)
	case token.STAR:
		c.emitOp(heap.OpMultiply)
	case token.SLASH:
		c.emitOp(heap.OpDivide)
	case token.PERCENT:
		c.emitOp(heap.OpRemain)
	case token.BANG_EQ:
		c.emitOp(heap.OpEqual)
		c.emitOp(heap.OpNot)
	case token.EQ_EQ:
		c.emitOp(heap.OpEqual)
	case token.GT:
		c.emitOp(heap.OpGreater)
	case token.GT_EQ:
		c.emitOp(heap.OpLess)
		c.emitOp(heap.OpNot)
	case token.LT:
		c.emitOp(heap.OpLess)
	case token.LT_EQ:
		c.emitOp(heap.OpGreater)
		c.emitOp(heap.OpNot)
	}
}

func (c *Compiler) number(bool) {
	v, err := strconv.ParseFloat(c.prev.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(heap.Number(v))
}

// stringLiteral decodes \" \' \n \\ escapes; any other escape silently
// drops the backslash and keeps the following character, per §4.2.
func (c *Compiler) stringLiteral(bool) {
	raw := c.prev.Lexeme
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i == len(raw)-1 {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case '"':
			sb.WriteByte('"')
		case '\'':
			sb.WriteByte('\'')
		case 'n':
			sb.WriteByte('\n')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte(raw[i])
		}
	}
	c.emitConstant(heap.FromObject(c.gc.NewString(sb.String())))
}

func (c *Compiler) literal(bool) {
	switch c.prev.Kind {
	case token.FALSE:
		c.emitOp(heap.OpFalse)
	case token.TRUE:
		c.emitOp(heap.OpTrue)
	case token.NIL:
		c.emitOp(heap.OpNil)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.prev.Lexeme, canAssign)
}

func (c *Compiler) this(bool) {
	if c.class == nil {
		c.error("can't use 'this' outside of a class")
		return
	}
	c.namedVariable("this", false)
}

// and implements `a and b` → JIF→END; POP; b; END: (JIF peeks, so a
// short-circuit leaves `a` on the stack).
func (c *Compiler) and(bool) {
	endJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOp(heap.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or implements `a or b` → JIF→RHS; JUMP→END; RHS: POP; b; END:
func (c *Compiler) or(bool) {
	elseJump := c.emitJump(heap.OpJumpIfFalse)
	endJump := c.emitJump(heap.OpJump)
	c.patchJump(elseJump)
	c.emitOp(heap.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			count++
			if count > 255 {
				c.error("can't have more than 255 arguments")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after arguments")
	return byte(count)
}

func (c *Compiler) call(bool) {
	argc := c.argumentList()
	c.emitOps(heap.OpCall, argc)
}

// dot compiles property access, assignment, and the INVOKE fusion for a
// direct method call: obj.name, obj.name = v, obj.name(args).
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "expect property name after '.'")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOps(heap.OpSetProperty, nameConst)
	case c.match(token.LPAREN):
		argc := c.argumentList()
		c.emitOp(heap.OpInvoke)
		c.emitByte(nameConst)
		c.emitByte(argc)
	default:
		c.emitOps(heap.OpGetProperty, nameConst)
	}
}

// index compiles computed access a[expr], a[expr] = v, and the
// INVOKE_BY_KEY fusion for a[expr](args).
func (c *Compiler) index(canAssign bool) {
	c.expression()
	c.consume(token.RBRACK, "expect ']' after index")

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOp(heap.OpSetPropertyByKey)
	case c.match(token.LPAREN):
		argc := c.argumentList()
		c.emitOp(heap.OpInvokeByKey)
		c.emitByte(argc)
	default:
		c.emitOp(heap.OpGetPropertyByKey)
	}
}

func (c *Compiler) arrayLiteral(bool) {
	n := 0
	if !c.check(token.RBRACK) {
		for {
			c.expression()
			n++
			if n > 255 {
				c.error("can't have more than 255 elements in an array literal")
			}
			if !c.match(token.COMMA) {
				break
			}
			if c.check(token.RBRACK) {
				break
			}
		}
	}
	c.consume(token.RBRACK, "expect ']' after array elements")
	c.emitOps(heap.OpArray, byte(n))
}

// mapLiteral compiles `{ key: value, … }`. Keys are restricted to
// identifier or number literal tokens, captured at compile time; this is
// a lexical restriction, not a general expression position.
func (c *Compiler) mapLiteral(bool) {
	c.emitOp(heap.OpMap)
	if !c.check(token.RBRACE) {
		for {
			var name string
			switch {
			case c.match(token.IDENT), c.match(token.NUMBER):
				name = c.prev.Lexeme
			default:
				c.errorAtCurrent("expect identifier or number as map key")
				c.advance()
			}
			c.consume(token.COLON, "expect ':' after map key")
			c.expression()
			c.emitOps(heap.OpKey, c.identifierConstant(name))
			if !c.match(token.COMMA) {
				break
			}
			if c.check(token.RBRACE) {
				break
			}
		}
	}
	c.consume(token.RBRACE, "expect '}' after map literal")
}
