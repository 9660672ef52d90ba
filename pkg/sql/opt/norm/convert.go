// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
)

// ConvertToOptimizerNode converts a scalar expression into a node tree.
// Parentheses are dropped, since the tree shape already captures them.
func ConvertToOptimizerNode(expr tree.Expr) (*opt.Node, error) {
	switch t := expr.(type) {
	case nil:
		return nil, errors.New("cannot convert a nil expression")

	case *tree.ParenExpr:
		return ConvertToOptimizerNode(t.Expr)

	case tree.Datum:
		return opt.NewNode(ops.NewConst(t)), nil

	case *tree.ColumnItem:
		return opt.NewNode(ops.NewVariable(t.Name)), nil

	case *tree.ComparisonExpr:
		return convertBinary(ops.NewComparisonFromTree(t.Operator), t.Left, t.Right)

	case *tree.BinaryExpr:
		return convertBinary(ops.NewArithmeticFromTree(t.Operator), t.Left, t.Right)

	case *tree.AndExpr:
		return convertBinary(ops.NewAnd(), t.Left, t.Right)

	case *tree.OrExpr:
		return convertBinary(ops.NewOr(), t.Left, t.Right)

	case *tree.NotExpr:
		input, err := ConvertToOptimizerNode(t.Expr)
		if err != nil {
			return nil, err
		}
		return opt.NewNode(ops.NewNot(), input), nil
	}
	return nil, errors.Newf("unsupported expression %s (%T)", tree.AsString(expr), expr)
}

func convertBinary(c opt.Content, left, right tree.Expr) (*opt.Node, error) {
	l, err := ConvertToOptimizerNode(left)
	if err != nil {
		return nil, err
	}
	r, err := ConvertToOptimizerNode(right)
	if err != nil {
		return nil, err
	}
	return opt.NewNode(c, l, r), nil
}

// RebuildExpression builds an expression out of the representative of the
// given group and, recursively, of its child groups.
func RebuildExpression(mem *memo.Memo, group opt.GroupID) (tree.Expr, error) {
	b := exprBuilder{mem: mem, onPath: make(map[opt.GroupID]struct{})}
	return b.build(group)
}

type exprBuilder struct {
	mem *memo.Memo

	// onPath holds the groups between the root and the group being built, to
	// detect groups that (after merges) contain themselves.
	onPath map[opt.GroupID]struct{}
}

func (b *exprBuilder) build(group opt.GroupID) (tree.Expr, error) {
	group = b.mem.ResolveGroupID(group)
	if _, ok := b.onPath[group]; ok {
		return nil, errors.AssertionFailedf("G%d is its own descendant", group)
	}
	rep := b.mem.Group(group).Representative()
	if rep == nil {
		return nil, errors.AssertionFailedf("G%d has no representative", group)
	}

	b.onPath[group] = struct{}{}
	defer delete(b.onPath, group)

	children := make([]tree.Expr, rep.ChildCount())
	for i, child := range rep.ChildGroups() {
		e, err := b.build(child)
		if err != nil {
			return nil, err
		}
		children[i] = e
	}

	v := exprBuildVisitor{children: children}
	rep.Content().Accept(&v)
	if v.result == nil {
		return nil, errors.AssertionFailedf("%s cannot be converted to an expression", rep.Op())
	}
	return v.result, nil
}

// exprBuildVisitor converts a scalar content, whose children have already
// been converted, into an expression.
type exprBuildVisitor struct {
	ops.DefaultVisitor
	children []tree.Expr
	result   tree.Expr
}

func (v *exprBuildVisitor) VisitConst(c *ops.Const) {
	v.result = c.Value
}

func (v *exprBuildVisitor) VisitVariable(c *ops.Variable) {
	v.result = tree.NewColumnItem(c.Name)
}

func (v *exprBuildVisitor) VisitComparison(c *ops.Comparison) {
	v.result = tree.NewComparisonExpr(c.TreeOperator(), v.children[0], v.children[1])
}

func (v *exprBuildVisitor) VisitBoolean(c *ops.Boolean) {
	if c.Op() == opt.AndOp {
		v.result = tree.NewAndExpr(v.children[0], v.children[1])
	} else {
		v.result = tree.NewOrExpr(v.children[0], v.children[1])
	}
}

func (v *exprBuildVisitor) VisitNot(*ops.Not) {
	v.result = tree.NewNotExpr(v.children[0])
}

func (v *exprBuildVisitor) VisitArithmetic(c *ops.Arithmetic) {
	v.result = tree.NewBinaryExpr(c.TreeOperator(), v.children[0], v.children[1])
}
