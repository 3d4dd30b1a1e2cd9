package compiler

import "github.com/loomlang/loom/lang/token"

// precedence is one rung of the Pratt ladder from spec §4.2:
// None < Assignment < Or < And < Equality < Comparison < Term < Factor <
// Unary < Call < Primary.
type precedence uint8

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:  {prefix: (*Compiler).grouping, infix: (*Compiler).call, prec: precCall},
		token.LBRACK:  {prefix: (*Compiler).arrayLiteral, infix: (*Compiler).index, prec: precCall},
		token.LBRACE:  {prefix: (*Compiler).mapLiteral},
		token.DOT:     {infix: (*Compiler).dot, prec: precCall},
		token.MINUS:   {prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: precTerm},
		token.PLUS:    {infix: (*Compiler).binary, prec: precTerm},
		token.SLASH:   {infix: (*Compiler).binary, prec: precFactor},
		token.STAR:    {infix: (*Compiler).binary, prec: precFactor},
		token.PERCENT: {infix: (*Compiler).binary, prec: precFactor},
		token.BANG:    {prefix: (*Compiler).unary},
		token.BANG_EQ: {infix: (*Compiler).binary, prec: precEquality},
		token.EQ_EQ:   {infix: (*Compiler).binary, prec: precEquality},
		token.GT:      {infix: (*Compiler).binary, prec: precComparison},
		token.GT_EQ:   {infix: (*Compiler).binary, prec: precComparison},
		token.LT:      {infix: (*Compiler).binary, prec: precComparison},
		token.LT_EQ:   {infix: (*Compiler).binary, prec: precComparison},
		token.IDENT:   {prefix: (*Compiler).variable},
		token.NUMBER:  {prefix: (*Compiler).number},
		token.STRING:  {prefix: (*Compiler).stringLiteral},
		token.AND:     {infix: (*Compiler).and, prec: precAnd},
		token.OR:      {infix: (*Compiler).or, prec: precOr},
		token.FALSE:   {prefix: (*Compiler).literal},
		token.TRUE:    {prefix: (*Compiler).literal},
		token.NIL:     {prefix: (*Compiler).literal},
		token.THIS:    {prefix: (*Compiler).this},
	}
}

func getRule(k token.Kind) parseRule {
	return rules[k]
}
