// Package expr defines the closed expression AST the planner hands to the
// engine, and the row-at-a-time evaluator over it.
package expr

import "github.com/orneryd/vegvisir/pkg/values"

// Expr is one node of the expression tree. The variant set is closed: the
// planner only ever produces the types defined in this file.
type Expr interface {
	isExpr()
}

// Literal is a constant value.
type Literal struct {
	Value values.Value
}

// Variable references a field by its bare name ("n").
type Variable struct {
	Name string
}

// Property references a property column by its "variable.property" field
// encoding ("n.age").
type Property struct {
	Variable string
	Key      string
}

// Field returns the physical field name a property access reads.
func (p Property) Field() string { return p.Variable + "." + p.Key }

// List evaluates each element and wraps the results as a list value.
type List struct {
	Elements []Expr
}

// Not negates a boolean operand; null stays null.
type Not struct {
	Operand Expr
}

// And is three-valued conjunction.
type And struct {
	Left, Right Expr
}

// Or is three-valued disjunction.
type Or struct {
	Left, Right Expr
}

// CmpOp enumerates comparison operators.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNeq
	CmpLt
	CmpLte
	CmpGt
	CmpGte
)

func (op CmpOp) String() string {
	switch op {
	case CmpEq:
		return "="
	case CmpNeq:
		return "<>"
	case CmpLt:
		return "<"
	case CmpLte:
		return "<="
	case CmpGt:
		return ">"
	case CmpGte:
		return ">="
	default:
		return "?"
	}
}

// Comparison applies a comparison operator; any null operand yields null.
type Comparison struct {
	Op          CmpOp
	Left, Right Expr
}

// ArithOp enumerates arithmetic operators.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	default:
		return "?"
	}
}

// Arithmetic applies an arithmetic operator; any null operand yields null.
// Add concatenates strings and lists as well as adding numbers.
type Arithmetic struct {
	Op          ArithOp
	Left, Right Expr
}

// AggFn names an aggregate function.
type AggFn string

const (
	AggCount     AggFn = "count"
	AggCountStar AggFn = "count(*)"
	AggSum       AggFn = "sum"
	AggMin       AggFn = "min"
	AggMax       AggFn = "max"
	AggCollect   AggFn = "collect"
)

// Aggregate is a named aggregate marker. It is not evaluable row-at-a-time:
// the grouping primitive recognizes it and computes the aggregate over a
// partition; Evaluate on an Aggregate is an error.
type Aggregate struct {
	Fn       AggFn
	Inner    Expr // nil for count(*)
	Distinct bool
}

func (Literal) isExpr()    {}
func (Variable) isExpr()   {}
func (Property) isExpr()   {}
func (List) isExpr()       {}
func (Not) isExpr()        {}
func (And) isExpr()        {}
func (Or) isExpr()         {}
func (Comparison) isExpr() {}
func (Arithmetic) isExpr() {}
func (Aggregate) isExpr()  {}
