// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package tree is the external scalar expression representation consumed and
// produced by the rewriter. It covers only what the rewriter understands:
// constants, column references, comparisons, boolean connectives and binary
// arithmetic.
package tree

import (
	"bytes"
	"fmt"
)

// Expr represents an expression.
type Expr interface {
	fmt.Stringer
	// Format writes the expression to buf. Compound operands are wrapped in
	// parentheses so that the output parses back unambiguously.
	Format(buf *bytes.Buffer)
}

// AsString pretty prints an expression.
func AsString(e Expr) string {
	var buf bytes.Buffer
	e.Format(&buf)
	return buf.String()
}

func formatOperand(buf *bytes.Buffer, e Expr) {
	switch e.(type) {
	case Datum, *ColumnItem, *ParenExpr:
		e.Format(buf)
	default:
		buf.WriteByte('(')
		e.Format(buf)
		buf.WriteByte(')')
	}
}

// ColumnItem is a reference to a column by name.
type ColumnItem struct {
	Name string
}

// NewColumnItem returns a reference to the named column.
func NewColumnItem(name string) *ColumnItem {
	return &ColumnItem{Name: name}
}

// Format implements the Expr interface.
func (node *ColumnItem) Format(buf *bytes.Buffer) { buf.WriteString(node.Name) }

func (node *ColumnItem) String() string { return AsString(node) }

// ComparisonOperator is the operator of a ComparisonExpr.
type ComparisonOperator uint8

// ComparisonExpr.Operator values.
const (
	EQ ComparisonOperator = iota
	NE
	LT
	LE
	GT
	GE
)

var comparisonOpName = [...]string{
	EQ: "=",
	NE: "!=",
	LT: "<",
	LE: "<=",
	GT: ">",
	GE: ">=",
}

func (op ComparisonOperator) String() string {
	if int(op) < len(comparisonOpName) {
		return comparisonOpName[op]
	}
	return fmt.Sprintf("ComparisonOp(%d)", op)
}

// Flip returns the operator that gives the same result when the operands are
// swapped, so that a op b == b op.Flip() a.
func (op ComparisonOperator) Flip() ComparisonOperator {
	switch op {
	case LT:
		return GT
	case LE:
		return GE
	case GT:
		return LT
	case GE:
		return LE
	}
	return op
}

// ComparisonExpr represents a two-value comparison expression.
type ComparisonExpr struct {
	Operator    ComparisonOperator
	Left, Right Expr
}

// NewComparisonExpr returns a new ComparisonExpr.
func NewComparisonExpr(op ComparisonOperator, left, right Expr) *ComparisonExpr {
	return &ComparisonExpr{Operator: op, Left: left, Right: right}
}

// Format implements the Expr interface.
func (node *ComparisonExpr) Format(buf *bytes.Buffer) {
	formatOperand(buf, node.Left)
	buf.WriteByte(' ')
	buf.WriteString(node.Operator.String())
	buf.WriteByte(' ')
	formatOperand(buf, node.Right)
}

func (node *ComparisonExpr) String() string { return AsString(node) }

// AndExpr represents an AND expression.
type AndExpr struct {
	Left, Right Expr
}

// NewAndExpr returns a new AndExpr.
func NewAndExpr(left, right Expr) *AndExpr {
	return &AndExpr{Left: left, Right: right}
}

// Format implements the Expr interface.
func (node *AndExpr) Format(buf *bytes.Buffer) {
	formatOperand(buf, node.Left)
	buf.WriteString(" AND ")
	formatOperand(buf, node.Right)
}

func (node *AndExpr) String() string { return AsString(node) }

// OrExpr represents an OR expression.
type OrExpr struct {
	Left, Right Expr
}

// NewOrExpr returns a new OrExpr.
func NewOrExpr(left, right Expr) *OrExpr {
	return &OrExpr{Left: left, Right: right}
}

// Format implements the Expr interface.
func (node *OrExpr) Format(buf *bytes.Buffer) {
	formatOperand(buf, node.Left)
	buf.WriteString(" OR ")
	formatOperand(buf, node.Right)
}

func (node *OrExpr) String() string { return AsString(node) }

// NotExpr represents a NOT expression.
type NotExpr struct {
	Expr Expr
}

// NewNotExpr returns a new NotExpr.
func NewNotExpr(e Expr) *NotExpr {
	return &NotExpr{Expr: e}
}

// Format implements the Expr interface.
func (node *NotExpr) Format(buf *bytes.Buffer) {
	buf.WriteString("NOT ")
	formatOperand(buf, node.Expr)
}

func (node *NotExpr) String() string { return AsString(node) }

// BinaryOperator is the operator of a BinaryExpr.
type BinaryOperator uint8

// BinaryExpr.Operator values.
const (
	Plus BinaryOperator = iota
	Minus
	Mult
	Div
)

var binaryOpName = [...]string{
	Plus:  "+",
	Minus: "-",
	Mult:  "*",
	Div:   "/",
}

func (op BinaryOperator) String() string {
	if int(op) < len(binaryOpName) {
		return binaryOpName[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", op)
}

// BinaryExpr represents a binary arithmetic expression.
type BinaryExpr struct {
	Operator    BinaryOperator
	Left, Right Expr
}

// NewBinaryExpr returns a new BinaryExpr.
func NewBinaryExpr(op BinaryOperator, left, right Expr) *BinaryExpr {
	return &BinaryExpr{Operator: op, Left: left, Right: right}
}

// Format implements the Expr interface.
func (node *BinaryExpr) Format(buf *bytes.Buffer) {
	formatOperand(buf, node.Left)
	buf.WriteByte(' ')
	buf.WriteString(node.Operator.String())
	buf.WriteByte(' ')
	formatOperand(buf, node.Right)
}

func (node *BinaryExpr) String() string { return AsString(node) }

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

// Format implements the Expr interface.
func (node *ParenExpr) Format(buf *bytes.Buffer) {
	buf.WriteByte('(')
	node.Expr.Format(buf)
	buf.WriteByte(')')
}

func (node *ParenExpr) String() string { return AsString(node) }

// StripParens strips any parentheses surrounding an expression.
func StripParens(expr Expr) Expr {
	if p, ok := expr.(*ParenExpr); ok {
		return StripParens(p.Expr)
	}
	return expr
}
