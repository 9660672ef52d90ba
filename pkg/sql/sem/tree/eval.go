// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// DecimalCtx is the default context for decimal operations. Any change
// in the exponent limits must still guarantee a safe conversion to the
// postgres binary decimal format in the wire protocol, which uses an
// int16. See MaxTypmodLen in the pgwire package.
var DecimalCtx = &apd.Context{
	Precision:   20,
	Rounding:    apd.RoundHalfUp,
	MaxExponent: 2000,
	MinExponent: -2000,
	Traps:       apd.DefaultTraps,
}

var (
	// ErrDivByZero is reported on a division by zero.
	ErrDivByZero = errors.New("division by zero")
	// ErrIntOutOfRange is reported when integer arithmetic overflows.
	ErrIntOutOfRange = errors.New("integer out of range")
)

// EvalBinaryOp evaluates a binary arithmetic operator over two constants.
// NULL operands produce NULL. Integer division always produces a decimal,
// and quotients are not reduced: 7 / 2 is 3.5000000000000000000.
func EvalBinaryOp(op BinaryOperator, left, right Datum) (Datum, error) {
	if left == DNull || right == DNull {
		return DNull, nil
	}
	if l, ok := left.(*DInt); ok {
		if r, ok := right.(*DInt); ok {
			return evalIntBinaryOp(op, int64(*l), int64(*r))
		}
	}
	l, lok := asDecimal(left)
	r, rok := asDecimal(right)
	if !lok || !rok {
		return nil, errors.Newf("unsupported binary operator: <%s> %s <%s>",
			TypeName(left.ResolvedType()), op, TypeName(right.ResolvedType()))
	}
	return evalDecimalBinaryOp(op, l, r)
}

func evalIntBinaryOp(op BinaryOperator, a, b int64) (Datum, error) {
	switch op {
	case Plus:
		r := a + b
		if (r > a) != (b > 0) {
			return nil, ErrIntOutOfRange
		}
		return NewDInt(DInt(r)), nil

	case Minus:
		r := a - b
		if (r < a) != (b > 0) {
			return nil, ErrIntOutOfRange
		}
		return NewDInt(DInt(r)), nil

	case Mult:
		if a == 0 || b == 0 {
			return NewDInt(0), nil
		}
		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return nil, ErrIntOutOfRange
		}
		return NewDInt(DInt(r)), nil

	case Div:
		return evalDecimalBinaryOp(op, apd.New(a, 0), apd.New(b, 0))
	}
	return nil, errors.AssertionFailedf("unknown binary operator %d", op)
}

func evalDecimalBinaryOp(op BinaryOperator, l, r *apd.Decimal) (Datum, error) {
	dd := &DDecimal{}
	var err error
	switch op {
	case Plus:
		_, err = DecimalCtx.Add(&dd.Decimal, l, r)
	case Minus:
		_, err = DecimalCtx.Sub(&dd.Decimal, l, r)
	case Mult:
		_, err = DecimalCtx.Mul(&dd.Decimal, l, r)
	case Div:
		if r.IsZero() {
			return nil, ErrDivByZero
		}
		_, err = DecimalCtx.Quo(&dd.Decimal, l, r)
	default:
		return nil, errors.AssertionFailedf("unknown binary operator %d", op)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", op)
	}
	return dd, nil
}

func asDecimal(d Datum) (*apd.Decimal, bool) {
	switch t := d.(type) {
	case *DInt:
		return apd.New(int64(*t), 0), true
	case *DDecimal:
		return &t.Decimal, true
	}
	return nil, false
}

// CompareDatums returns -1, 0 or +1 depending on whether a sorts before, the
// same as, or after b. Integers and decimals compare numerically with each
// other; any other pair of distinct types is an error. NULL sorts before every
// other value.
func CompareDatums(a, b Datum) (int, error) {
	if a == DNull || b == DNull {
		switch {
		case a == b:
			return 0, nil
		case a == DNull:
			return -1, nil
		default:
			return 1, nil
		}
	}
	switch l := a.(type) {
	case *DInt:
		if r, ok := b.(*DInt); ok {
			switch {
			case *l < *r:
				return -1, nil
			case *l > *r:
				return 1, nil
			}
			return 0, nil
		}
	case *DString:
		if r, ok := b.(*DString); ok {
			return strings.Compare(string(*l), string(*r)), nil
		}
	case *DBool:
		if r, ok := b.(*DBool); ok {
			switch {
			case !bool(*l) && bool(*r):
				return -1, nil
			case bool(*l) && !bool(*r):
				return 1, nil
			}
			return 0, nil
		}
	}
	l, lok := asDecimal(a)
	r, rok := asDecimal(b)
	if lok && rok {
		return l.Cmp(r), nil
	}
	return 0, errors.Newf("unsupported comparison: <%s> to <%s>",
		TypeName(a.ResolvedType()), TypeName(b.ResolvedType()))
}

// EvalComparisonOp evaluates a comparison over two constants. NULL operands
// produce NULL.
func EvalComparisonOp(op ComparisonOperator, left, right Datum) (Datum, error) {
	if left == DNull || right == DNull {
		return DNull, nil
	}
	cmp, err := CompareDatums(left, right)
	if err != nil {
		return nil, err
	}
	var res bool
	switch op {
	case EQ:
		res = cmp == 0
	case NE:
		res = cmp != 0
	case LT:
		res = cmp < 0
	case LE:
		res = cmp <= 0
	case GT:
		res = cmp > 0
	case GE:
		res = cmp >= 0
	default:
		return nil, errors.AssertionFailedf("unknown comparison operator %d", op)
	}
	return MakeDBool(DBool(res)), nil
}
