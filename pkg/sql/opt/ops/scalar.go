// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ops

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
)

// Const is a constant value. It has no children.
type Const struct {
	logicalContent
	Value tree.Datum
}

// NewConst returns a constant with the given value.
func NewConst(value tree.Datum) *Const {
	return &Const{Value: value}
}

// Op is part of the opt.Content interface.
func (c *Const) Op() opt.Operator { return opt.ConstOp }

// Equals is part of the opt.Content interface.
func (c *Const) Equals(other opt.Content) bool {
	o, ok := other.(*Const)
	return ok && tree.DatumsEqual(c.Value, o.Value)
}

// FormatPrivate is part of the opt.Content interface.
func (c *Const) FormatPrivate(buf *bytes.Buffer) { c.Value.Format(buf) }

// Accept is part of the opt.Content interface.
func (c *Const) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitConst(c)
		return
	}
	v.VisitDefault(c)
}

// IsBool returns true if the constant is the given boolean value.
func (c *Const) IsBool(b bool) bool {
	d, ok := c.Value.(*tree.DBool)
	return ok && bool(*d) == b
}

// Variable is a reference to a column by name. It has no children.
type Variable struct {
	logicalContent
	Name string
}

// NewVariable returns a reference to the named column.
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

// Op is part of the opt.Content interface.
func (c *Variable) Op() opt.Operator { return opt.VariableOp }

// Equals is part of the opt.Content interface.
func (c *Variable) Equals(other opt.Content) bool {
	o, ok := other.(*Variable)
	return ok && c.Name == o.Name
}

// FormatPrivate is part of the opt.Content interface.
func (c *Variable) FormatPrivate(buf *bytes.Buffer) { buf.WriteString(c.Name) }

// Accept is part of the opt.Content interface.
func (c *Variable) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitVariable(c)
		return
	}
	v.VisitDefault(c)
}

var comparisonOps = [...]struct {
	op     opt.Operator
	treeOp tree.ComparisonOperator
}{
	{opt.EqOp, tree.EQ},
	{opt.NeOp, tree.NE},
	{opt.LtOp, tree.LT},
	{opt.LeOp, tree.LE},
	{opt.GtOp, tree.GT},
	{opt.GeOp, tree.GE},
}

// Comparison compares its two children. Its operator is one of EqOp, NeOp,
// LtOp, LeOp, GtOp and GeOp.
type Comparison struct {
	logicalContent
	op opt.Operator
}

// NewComparison returns a comparison content for the given operator. It
// panics if op is not a comparison operator.
func NewComparison(op opt.Operator) *Comparison {
	if !op.IsComparison() {
		panic(errors.AssertionFailedf("%s is not a comparison operator", op))
	}
	return &Comparison{op: op}
}

// NewComparisonFromTree returns the comparison content that corresponds to
// the given expression operator.
func NewComparisonFromTree(op tree.ComparisonOperator) *Comparison {
	for _, c := range comparisonOps {
		if c.treeOp == op {
			return &Comparison{op: c.op}
		}
	}
	panic(errors.AssertionFailedf("unknown comparison operator %s", op))
}

// TreeOperator returns the expression operator for the comparison.
func (c *Comparison) TreeOperator() tree.ComparisonOperator {
	for _, o := range comparisonOps {
		if o.op == c.op {
			return o.treeOp
		}
	}
	panic(errors.AssertionFailedf("unknown comparison operator %s", c.op))
}

// Op is part of the opt.Content interface.
func (c *Comparison) Op() opt.Operator { return c.op }

// Equals is part of the opt.Content interface.
func (c *Comparison) Equals(other opt.Content) bool {
	o, ok := other.(*Comparison)
	return ok && c.op == o.op
}

// FormatPrivate is part of the opt.Content interface.
func (c *Comparison) FormatPrivate(*bytes.Buffer) {}

// Accept is part of the opt.Content interface.
func (c *Comparison) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitComparison(c)
		return
	}
	v.VisitDefault(c)
}

// Boolean is the logical conjunction or disjunction of its two children.
type Boolean struct {
	logicalContent
	op opt.Operator
}

var (
	andContent = &Boolean{op: opt.AndOp}
	orContent  = &Boolean{op: opt.OrOp}
	notContent = &Not{}
)

// NewAnd returns the AND content.
func NewAnd() *Boolean { return andContent }

// NewOr returns the OR content.
func NewOr() *Boolean { return orContent }

// Op is part of the opt.Content interface.
func (c *Boolean) Op() opt.Operator { return c.op }

// Equals is part of the opt.Content interface.
func (c *Boolean) Equals(other opt.Content) bool {
	o, ok := other.(*Boolean)
	return ok && c.op == o.op
}

// FormatPrivate is part of the opt.Content interface.
func (c *Boolean) FormatPrivate(*bytes.Buffer) {}

// Accept is part of the opt.Content interface.
func (c *Boolean) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitBoolean(c)
		return
	}
	v.VisitDefault(c)
}

// Not is the logical negation of its only child.
type Not struct {
	logicalContent
}

// NewNot returns the NOT content.
func NewNot() *Not { return notContent }

// Op is part of the opt.Content interface.
func (c *Not) Op() opt.Operator { return opt.NotOp }

// Equals is part of the opt.Content interface.
func (c *Not) Equals(other opt.Content) bool {
	_, ok := other.(*Not)
	return ok
}

// FormatPrivate is part of the opt.Content interface.
func (c *Not) FormatPrivate(*bytes.Buffer) {}

// Accept is part of the opt.Content interface.
func (c *Not) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitNot(c)
		return
	}
	v.VisitDefault(c)
}

var arithmeticOps = [...]struct {
	op     opt.Operator
	treeOp tree.BinaryOperator
}{
	{opt.PlusOp, tree.Plus},
	{opt.MinusOp, tree.Minus},
	{opt.MultOp, tree.Mult},
	{opt.DivOp, tree.Div},
}

// Arithmetic applies a binary arithmetic operator to its two children. Its
// operator is one of PlusOp, MinusOp, MultOp and DivOp.
type Arithmetic struct {
	logicalContent
	op opt.Operator
}

// NewArithmetic returns an arithmetic content for the given operator. It
// panics if op is not an arithmetic operator.
func NewArithmetic(op opt.Operator) *Arithmetic {
	if !op.IsArithmetic() {
		panic(errors.AssertionFailedf("%s is not an arithmetic operator", op))
	}
	return &Arithmetic{op: op}
}

// NewArithmeticFromTree returns the arithmetic content that corresponds to the
// given expression operator.
func NewArithmeticFromTree(op tree.BinaryOperator) *Arithmetic {
	for _, a := range arithmeticOps {
		if a.treeOp == op {
			return &Arithmetic{op: a.op}
		}
	}
	panic(errors.AssertionFailedf("unknown binary operator %s", op))
}

// TreeOperator returns the expression operator for the arithmetic content.
func (c *Arithmetic) TreeOperator() tree.BinaryOperator {
	for _, a := range arithmeticOps {
		if a.op == c.op {
			return a.treeOp
		}
	}
	panic(errors.AssertionFailedf("unknown arithmetic operator %s", c.op))
}

// Op is part of the opt.Content interface.
func (c *Arithmetic) Op() opt.Operator { return c.op }

// Equals is part of the opt.Content interface.
func (c *Arithmetic) Equals(other opt.Content) bool {
	o, ok := other.(*Arithmetic)
	return ok && c.op == o.op
}

// FormatPrivate is part of the opt.Content interface.
func (c *Arithmetic) FormatPrivate(*bytes.Buffer) {}

// Accept is part of the opt.Content interface.
func (c *Arithmetic) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitArithmetic(c)
		return
	}
	v.VisitDefault(c)
}
