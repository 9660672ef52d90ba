// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ops

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/cat"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
	"github.com/stretchr/testify/require"
)

var testTable = cat.TableRef{Database: 1, Schema: 2, Table: 3}

func allContents() []opt.Content {
	pred := tree.NewComparisonExpr(tree.EQ, tree.NewColumnItem("a"), tree.NewDInt(1))
	return []opt.Content{
		NewGet(testTable, "t"),
		NewExternalFileGet("/data/t.csv", "csv"),
		NewInnerJoin(pred),
		NewFilter(pred),
		NewProject("a", "b"),
		NewLimit(10),
		NewSeqScan(testTable, "t"),
		NewExternalFileScan("/data/t.csv", "csv"),
		NewHashJoin(pred),
		NewNestedLoopJoin(nil),
		NewPhysicalFilter(pred),
		NewPhysicalProject("a"),
		NewPhysicalLimit(10),
		&TableFreeScan{},
		NewConst(tree.NewDInt(1)),
		NewVariable("a"),
		NewComparison(opt.LtOp),
		NewAnd(),
		NewOr(),
		NewNot(),
		NewArithmetic(opt.PlusOp),
		opt.NewLeafContent(1),
	}
}

func TestContentClass(t *testing.T) {
	for _, c := range allContents() {
		require.NotEqual(t, c.IsLogical(), c.IsPhysical(), "%s", c.Op())
		require.Equal(t, c.Op().IsPhysical(), c.IsPhysical(), "%s", c.Op())
		require.Equal(t, c.Op().IsLogical(), c.IsLogical(), "%s", c.Op())
	}
}

func TestContentEquals(t *testing.T) {
	contents := allContents()
	for i, a := range contents {
		for j, b := range contents {
			require.Equal(t, i == j, a.Equals(b), "%s vs %s", a.Op(), b.Op())
		}
	}

	// Equality is by payload, not identity.
	require.True(t, NewGet(testTable, "t").Equals(NewGet(testTable, "t")))
	require.False(t, NewGet(testTable, "t").Equals(NewGet(testTable, "u")))
	require.True(t, NewProject("a", "b").Equals(NewProject("a", "b")))
	require.False(t, NewProject("a", "b").Equals(NewProject("b", "a")))
	require.True(t, NewInnerJoin(nil).Equals(NewInnerJoin(nil)))
	require.False(t, NewInnerJoin(nil).Equals(NewInnerJoin(tree.DBoolTrue)))
	require.True(t, NewConst(tree.NewDInt(5)).Equals(NewConst(tree.NewDInt(5))))
	require.False(t, NewConst(tree.NewDInt(5)).Equals(NewConst(tree.NewDString("5"))))
	require.True(t, NewComparison(opt.EqOp).Equals(NewComparisonFromTree(tree.EQ)))
}

func filteredGet(pred tree.Expr, forUpdate bool) *Get {
	g := NewGet(testTable, "t")
	g.Predicate, g.ForUpdate = pred, forUpdate
	return g
}

func TestTableScanEquals(t *testing.T) {
	gt1 := tree.NewComparisonExpr(tree.GT, tree.NewColumnItem("a"), tree.NewDInt(1))
	gt2 := tree.NewComparisonExpr(tree.GT, tree.NewColumnItem("a"), tree.NewDInt(2))

	require.True(t, filteredGet(gt1, false).Equals(filteredGet(
		tree.NewComparisonExpr(tree.GT, tree.NewColumnItem("a"), tree.NewDInt(1)), false)))
	require.False(t, filteredGet(gt1, false).Equals(filteredGet(gt2, false)))
	require.False(t, filteredGet(gt1, false).Equals(filteredGet(nil, false)))
	require.False(t, filteredGet(nil, false).Equals(filteredGet(nil, true)))
	require.True(t, filteredGet(nil, true).Equals(filteredGet(nil, true)))

	seq := NewSeqScan(testTable, "t")
	seq.TableScanPrivate = filteredGet(gt1, true).TableScanPrivate
	require.False(t, seq.Equals(NewSeqScan(testTable, "t")))
	require.Equal(t, "seq-scan [1.2.3] t pred=(a > 1) for-update", opt.FormatContent(seq))
}

func TestFormatPrivate(t *testing.T) {
	testCases := []struct {
		c        opt.Content
		expected string
	}{
		{NewGet(testTable, "t"), "get [1.2.3] t"},
		{NewGet(testTable, ""), "get [1.2.3]"},
		{filteredGet(tree.NewComparisonExpr(tree.EQ, tree.NewColumnItem("a"), tree.NewDInt(1)), false), "get [1.2.3] t pred=(a = 1)"},
		{filteredGet(nil, true), "get [1.2.3] t for-update"},
		{NewExternalFileGet("/data/t.csv", "csv"), `external-file-get "/data/t.csv" format=csv`},
		{NewInnerJoin(nil), "inner-join"},
		{NewHashJoin(tree.NewComparisonExpr(tree.EQ, tree.NewColumnItem("a"), tree.NewColumnItem("b"))), "hash-join on=(a = b)"},
		{NewFilter(tree.NewComparisonExpr(tree.GT, tree.NewColumnItem("a"), tree.NewDInt(1))), "filter (a > 1)"},
		{NewProject("a", "b"), "project [a,b]"},
		{NewPhysicalLimit(3), "physical-limit 3"},
		{&TableFreeScan{}, "table-free-scan"},
		{NewConst(tree.NewDString("x")), "const 'x'"},
		{NewVariable("a"), "variable a"},
		{NewComparison(opt.GeOp), "ge"},
		{NewArithmetic(opt.DivOp), "div"},
		{opt.NewLeafContent(4), "leaf G4"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, opt.FormatContent(tc.c))
	}
}

type countingVisitor struct {
	DefaultVisitor
	gets     int
	consts   int
	defaults int
}

func (v *countingVisitor) VisitGet(*Get)            { v.gets++ }
func (v *countingVisitor) VisitConst(*Const)        { v.consts++ }
func (v *countingVisitor) VisitDefault(opt.Content) { v.defaults++ }

type defaultOnlyVisitor struct {
	ops []opt.Operator
}

func (v *defaultOnlyVisitor) VisitDefault(c opt.Content) { v.ops = append(v.ops, c.Op()) }

func TestAccept(t *testing.T) {
	v := &countingVisitor{}
	for _, c := range allContents() {
		c.Accept(v)
	}
	require.Equal(t, 1, v.gets)
	require.Equal(t, 1, v.consts)
	// Only the leaf placeholder falls back to VisitDefault; every other kind
	// has a typed method.
	require.Equal(t, 1, v.defaults)

	d := &defaultOnlyVisitor{}
	NewGet(testTable, "t").Accept(d)
	NewNot().Accept(d)
	require.Equal(t, []opt.Operator{opt.GetOp, opt.NotOp}, d.ops)
}

func TestOperatorMapping(t *testing.T) {
	for _, op := range []tree.ComparisonOperator{tree.EQ, tree.NE, tree.LT, tree.LE, tree.GT, tree.GE} {
		require.Equal(t, op, NewComparisonFromTree(op).TreeOperator())
	}
	for _, op := range []tree.BinaryOperator{tree.Plus, tree.Minus, tree.Mult, tree.Div} {
		require.Equal(t, op, NewArithmeticFromTree(op).TreeOperator())
	}
	require.Panics(t, func() { NewComparison(opt.PlusOp) })
	require.Panics(t, func() { NewArithmetic(opt.EqOp) })
}

func TestConstIsBool(t *testing.T) {
	require.True(t, NewConst(tree.DBoolTrue).IsBool(true))
	require.False(t, NewConst(tree.DBoolTrue).IsBool(false))
	require.False(t, NewConst(tree.NewDInt(1)).IsBool(true))
	var buf bytes.Buffer
	NewConst(tree.DNull).FormatPrivate(&buf)
	require.Equal(t, "NULL", buf.String())
}
