// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
)

// DefaultRules returns the rewrite rules used by NewRewriter.
func DefaultRules() []xform.Rule {
	return []xform.Rule{
		foldArithmetic{},
		foldComparison{},
		normalizeComparison{},
		eliminateDoubleNot{},
		foldNotConst{},
		&simplifyBoolean{name: "SimplifyAnd", op: opt.AndOp},
		&simplifyBoolean{name: "SimplifyOr", op: opt.OrOp},
	}
}

var (
	binaryConstPattern = opt.NewPattern(opt.WildcardOp,
		opt.NewPattern(opt.ConstOp),
		opt.NewPattern(opt.ConstOp),
	)
	constLeftPattern = opt.NewPattern(opt.WildcardOp,
		opt.NewPattern(opt.ConstOp),
		opt.NewLeafPattern(),
	)
	doubleNotPattern = opt.NewPattern(opt.NotOp,
		opt.NewPattern(opt.NotOp, opt.NewLeafPattern()),
	)
	notConstPattern = opt.NewPattern(opt.NotOp, opt.NewPattern(opt.ConstOp))
)

// rewriteRule supplies the parts of xform.Rule that every rewrite rule
// shares.
type rewriteRule struct{}

func (rewriteRule) Type() xform.RuleType { return xform.RewriteRule }

func constValue(n *opt.Node) tree.Datum {
	return n.Content().(*ops.Const).Value
}

// constNode returns a childless node for the given constant.
func constNode(d tree.Datum) []*opt.Node {
	return []*opt.Node{opt.NewNode(ops.NewConst(d))}
}

// foldArithmetic replaces arithmetic over two constants with its result.
// Operations that fail, such as division by zero, are left alone so that the
// error surfaces when the expression is evaluated.
type foldArithmetic struct{ rewriteRule }

func (foldArithmetic) Name() string          { return "FoldArithmetic" }
func (foldArithmetic) Pattern() *opt.Pattern { return binaryConstPattern }

func (foldArithmetic) Check(binding *opt.Node, _ *xform.Context) bool {
	return binding.Op().IsArithmetic()
}

func (foldArithmetic) Transform(binding *opt.Node, _ *xform.Context) []*opt.Node {
	op := binding.Content().(*ops.Arithmetic).TreeOperator()
	d, err := tree.EvalBinaryOp(op, constValue(binding.Child(0)), constValue(binding.Child(1)))
	if err != nil {
		return nil
	}
	return constNode(d)
}

// foldComparison replaces a comparison of two constants with its result.
type foldComparison struct{ rewriteRule }

func (foldComparison) Name() string          { return "FoldComparison" }
func (foldComparison) Pattern() *opt.Pattern { return binaryConstPattern }

func (foldComparison) Check(binding *opt.Node, _ *xform.Context) bool {
	return binding.Op().IsComparison()
}

func (foldComparison) Transform(binding *opt.Node, _ *xform.Context) []*opt.Node {
	op := binding.Content().(*ops.Comparison).TreeOperator()
	d, err := tree.EvalComparisonOp(op, constValue(binding.Child(0)), constValue(binding.Child(1)))
	if err != nil {
		return nil
	}
	return constNode(d)
}

// normalizeComparison moves a constant on the left of a comparison to the
// right, flipping the operator: 1 < x becomes x > 1.
type normalizeComparison struct{ rewriteRule }

func (normalizeComparison) Name() string          { return "NormalizeComparison" }
func (normalizeComparison) Pattern() *opt.Pattern { return constLeftPattern }

func (normalizeComparison) Check(binding *opt.Node, ctx *xform.Context) bool {
	if !binding.Op().IsComparison() {
		return false
	}
	// Comparisons of two constants are folded instead.
	_, ok := representativeContent(ctx, binding.Child(1)).(*ops.Const)
	return !ok
}

func (normalizeComparison) Transform(binding *opt.Node, _ *xform.Context) []*opt.Node {
	op := binding.Content().(*ops.Comparison).TreeOperator().Flip()
	return []*opt.Node{
		opt.NewNode(ops.NewComparisonFromTree(op), binding.Child(1), binding.Child(0)),
	}
}

// eliminateDoubleNot replaces NOT (NOT x) with x.
type eliminateDoubleNot struct{ rewriteRule }

func (eliminateDoubleNot) Name() string          { return "EliminateDoubleNot" }
func (eliminateDoubleNot) Pattern() *opt.Pattern { return doubleNotPattern }

func (eliminateDoubleNot) Check(*opt.Node, *xform.Context) bool { return true }

func (eliminateDoubleNot) Transform(binding *opt.Node, _ *xform.Context) []*opt.Node {
	return []*opt.Node{binding.Child(0).Child(0)}
}

// foldNotConst replaces NOT of a boolean constant, or of NULL, with its
// result.
type foldNotConst struct{ rewriteRule }

func (foldNotConst) Name() string          { return "FoldNotConst" }
func (foldNotConst) Pattern() *opt.Pattern { return notConstPattern }

func (foldNotConst) Check(binding *opt.Node, _ *xform.Context) bool {
	d := constValue(binding.Child(0))
	if d == tree.DNull {
		return true
	}
	_, ok := d.(*tree.DBool)
	return ok
}

func (foldNotConst) Transform(binding *opt.Node, _ *xform.Context) []*opt.Node {
	d := constValue(binding.Child(0))
	if d == tree.DNull {
		return constNode(tree.DNull)
	}
	return constNode(tree.MakeDBool(!*d.(*tree.DBool)))
}

// simplifyBoolean removes boolean constants from AND and OR:
//
//	x AND true  => x    x AND false => false
//	x OR false  => x    x OR true   => true
//
// The constant may be on either side.
type simplifyBoolean struct {
	rewriteRule
	name string
	op   opt.Operator
}

func (r *simplifyBoolean) Name() string { return r.name }

func (r *simplifyBoolean) Pattern() *opt.Pattern {
	return opt.NewPattern(r.op, opt.NewLeafPattern(), opt.NewLeafPattern())
}

func (r *simplifyBoolean) Check(binding *opt.Node, ctx *xform.Context) bool {
	_, _, ok := r.split(binding, ctx)
	return ok
}

func (r *simplifyBoolean) Transform(binding *opt.Node, ctx *xform.Context) []*opt.Node {
	c, other, ok := r.split(binding, ctx)
	if !ok {
		return nil
	}
	// TRUE is the identity of AND and FALSE the identity of OR; the other
	// constant absorbs.
	identity := r.op == opt.AndOp
	if c.IsBool(identity) {
		return []*opt.Node{other}
	}
	return []*opt.Node{opt.NewNode(c)}
}

// split returns the boolean constant operand of the binding and the other
// operand. If both operands are boolean constants, the left one is returned as
// the constant.
func (r *simplifyBoolean) split(binding *opt.Node, ctx *xform.Context) (*ops.Const, *opt.Node, bool) {
	for i := 0; i < 2; i++ {
		c, ok := representativeContent(ctx, binding.Child(i)).(*ops.Const)
		if ok && (c.IsBool(true) || c.IsBool(false)) {
			return c, binding.Child(1 - i), true
		}
	}
	return nil, nil, false
}

// representativeContent returns the content of the node or, for a leaf
// placeholder, the content of its group's representative.
func representativeContent(ctx *xform.Context, n *opt.Node) opt.Content {
	leaf, ok := n.Content().(*opt.LeafContent)
	if !ok {
		return n.Content()
	}
	mem := ctx.Memo()
	rep := mem.Group(mem.ResolveGroupID(leaf.OriginGroup())).Representative()
	if rep == nil {
		return nil
	}
	return rep.Content()
}
