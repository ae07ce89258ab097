package expr

import (
	"errors"
	"fmt"

	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/values"
)

// ErrEvaluation is the root of every evaluation failure: missing fields,
// operand type mismatches, aggregates outside grouping. Callers branch with
// errors.Is.
var ErrEvaluation = errors.New("expr: evaluation failed")

// Evaluate computes the expression against one row.
//
// Failure modes: a referenced field absent from the row, an operand whose
// type is incompatible with the operation, or an aggregate marker reached
// outside a grouping context. All are reported as ErrEvaluation.
//
// Comparisons follow three-valued logic: if either operand is null the
// result is null, never an error. Boolean connectives use Kleene logic
// (false AND null = false, true OR null = true).
func Evaluate(e Expr, row record.Row) (values.Value, error) {
	switch x := e.(type) {
	case Literal:
		return x.Value, nil

	case Variable:
		v, ok := row.Get(x.Name)
		if !ok {
			return values.Null(), fmt.Errorf("%w: unknown field %q", ErrEvaluation, x.Name)
		}
		return v, nil

	case Property:
		field := x.Field()
		v, ok := row.Get(field)
		if !ok {
			return values.Null(), fmt.Errorf("%w: unknown field %q", ErrEvaluation, field)
		}
		return v, nil

	case List:
		elems := make([]values.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := Evaluate(el, row)
			if err != nil {
				return values.Null(), err
			}
			elems[i] = v
		}
		return values.ListOf(elems...), nil

	case Not:
		v, err := Evaluate(x.Operand, row)
		if err != nil {
			return values.Null(), err
		}
		if v.IsNull() {
			return values.Null(), nil
		}
		b, ok := v.AsBool()
		if !ok {
			return values.Null(), fmt.Errorf("%w: NOT requires a boolean, got %s", ErrEvaluation, v.Kind())
		}
		return values.Bool(!b), nil

	case And:
		return evalConnective(x.Left, x.Right, row, false)

	case Or:
		return evalConnective(x.Left, x.Right, row, true)

	case Comparison:
		return evalComparison(x, row)

	case Arithmetic:
		return evalArithmetic(x, row)

	case Aggregate:
		return values.Null(), fmt.Errorf("%w: aggregate %s used outside grouping", ErrEvaluation, x.Fn)

	default:
		return values.Null(), fmt.Errorf("%w: unknown expression node %T", ErrEvaluation, e)
	}
}

// EvaluatePredicate evaluates a filter predicate. Per the filter contract it
// never fails: evaluation errors, nulls, and non-boolean results all count
// as false.
func EvaluatePredicate(e Expr, row record.Row) bool {
	v, err := Evaluate(e, row)
	if err != nil {
		return false
	}
	b, ok := v.AsBool()
	return ok && b
}

// evalConnective implements Kleene AND/OR. short is the dominating value:
// false for AND, true for OR.
func evalConnective(left, right Expr, row record.Row, short bool) (values.Value, error) {
	lv, err := Evaluate(left, row)
	if err != nil {
		return values.Null(), err
	}
	rv, err := Evaluate(right, row)
	if err != nil {
		return values.Null(), err
	}
	lb, lok := boolOrNull(lv)
	rb, rok := boolOrNull(rv)
	if !lok || !rok {
		return values.Null(), fmt.Errorf("%w: boolean connective over %s and %s", ErrEvaluation, lv.Kind(), rv.Kind())
	}
	// Dominating operand wins even when the other side is null.
	if (lb != nil && *lb == short) || (rb != nil && *rb == short) {
		return values.Bool(short), nil
	}
	if lb == nil || rb == nil {
		return values.Null(), nil
	}
	return values.Bool(!short), nil
}

// boolOrNull returns (nil, true) for null, (&b, true) for booleans, and
// ok=false otherwise.
func boolOrNull(v values.Value) (*bool, bool) {
	if v.IsNull() {
		return nil, true
	}
	b, ok := v.AsBool()
	if !ok {
		return nil, false
	}
	return &b, true
}

func evalComparison(x Comparison, row record.Row) (values.Value, error) {
	lv, err := Evaluate(x.Left, row)
	if err != nil {
		return values.Null(), err
	}
	rv, err := Evaluate(x.Right, row)
	if err != nil {
		return values.Null(), err
	}
	// null OP x = null for every comparison operator.
	if lv.IsNull() || rv.IsNull() {
		return values.Null(), nil
	}

	switch x.Op {
	case CmpEq, CmpNeq:
		eq, err := typedEqual(lv, rv)
		if err != nil {
			return values.Null(), err
		}
		if x.Op == CmpNeq {
			eq = !eq
		}
		return values.Bool(eq), nil
	default:
		c, err := values.Compare(lv, rv)
		if err != nil {
			return values.Null(), fmt.Errorf("%w: cannot compare %s %s %s", ErrEvaluation, lv.Kind(), x.Op, rv.Kind())
		}
		switch x.Op {
		case CmpLt:
			return values.Bool(c < 0), nil
		case CmpLte:
			return values.Bool(c <= 0), nil
		case CmpGt:
			return values.Bool(c > 0), nil
		default:
			return values.Bool(c >= 0), nil
		}
	}
}

// typedEqual is the equality used by = and <>: same-kind values compare
// structurally, int and float compare numerically, everything else is a type
// error.
func typedEqual(a, b values.Value) (bool, error) {
	if a.Kind() == b.Kind() {
		return values.Equal(a, b), nil
	}
	if af, ok := a.Numeric(); ok {
		if bf, ok := b.Numeric(); ok {
			return af == bf, nil
		}
	}
	return false, fmt.Errorf("%w: cannot compare %s with %s", ErrEvaluation, a.Kind(), b.Kind())
}

func evalArithmetic(x Arithmetic, row record.Row) (values.Value, error) {
	lv, err := Evaluate(x.Left, row)
	if err != nil {
		return values.Null(), err
	}
	rv, err := Evaluate(x.Right, row)
	if err != nil {
		return values.Null(), err
	}
	if lv.IsNull() || rv.IsNull() {
		return values.Null(), nil
	}

	if x.Op == OpAdd {
		if ls, ok := lv.AsString(); ok {
			if rs, ok := rv.AsString(); ok {
				return values.Str(ls + rs), nil
			}
		}
		if ll, ok := lv.AsList(); ok {
			if rl, ok := rv.AsList(); ok {
				return values.ListOf(append(append([]values.Value{}, ll...), rl...)...), nil
			}
		}
	}

	li, lInt := lv.AsInt()
	ri, rInt := rv.AsInt()
	if lInt && rInt {
		switch x.Op {
		case OpAdd:
			return values.Int(li + ri), nil
		case OpSub:
			return values.Int(li - ri), nil
		case OpMul:
			return values.Int(li * ri), nil
		case OpDiv:
			if ri == 0 {
				return values.Null(), fmt.Errorf("%w: division by zero", ErrEvaluation)
			}
			return values.Int(li / ri), nil
		case OpMod:
			if ri == 0 {
				return values.Null(), fmt.Errorf("%w: division by zero", ErrEvaluation)
			}
			return values.Int(li % ri), nil
		}
	}

	lf, lNum := lv.Numeric()
	rf, rNum := rv.Numeric()
	if !lNum || !rNum {
		return values.Null(), fmt.Errorf("%w: %s %s %s", ErrEvaluation, lv.Kind(), x.Op, rv.Kind())
	}
	switch x.Op {
	case OpAdd:
		return values.Float(lf + rf), nil
	case OpSub:
		return values.Float(lf - rf), nil
	case OpMul:
		return values.Float(lf * rf), nil
	case OpDiv:
		if rf == 0 {
			return values.Null(), fmt.Errorf("%w: division by zero", ErrEvaluation)
		}
		return values.Float(lf / rf), nil
	default:
		return values.Null(), fmt.Errorf("%w: %% requires integers", ErrEvaluation)
	}
}
