// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/kv"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/norm"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
	"github.com/cockroachdb/optsearch/pkg/util/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newRewriter() *norm.Rewriter {
	return norm.NewRewriter(kv.NewTxn("test"), opt.DefaultSettings())
}

func TestRewriteExpression(t *testing.T) {
	defer log.Scope(t).Close(t)

	testCases := []struct {
		expr     tree.Expr
		expected string
	}{
		{
			expr:     tree.NewBinaryExpr(tree.Plus, tree.NewBinaryExpr(tree.Plus, num(1), num(2)), num(3)),
			expected: "6",
		},
		{
			expr:     tree.NewComparisonExpr(tree.LT, num(1), col("x")),
			expected: "x > 1",
		},
		{
			expr:     tree.NewNotExpr(tree.NewNotExpr(col("x"))),
			expected: "x",
		},
		{
			expr:     tree.NewAndExpr(col("x"), tree.DBoolFalse),
			expected: "false",
		},
		{
			expr: tree.NewOrExpr(
				&tree.ParenExpr{Expr: tree.NewComparisonExpr(tree.EQ, num(2), num(3))},
				tree.NewComparisonExpr(tree.LE, tree.NewBinaryExpr(tree.Minus, num(5), num(2)), col("y")),
			),
			expected: "y >= 3",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.expr.String(), func(t *testing.T) {
			result, err := newRewriter().RewriteExpression(context.Background(), tc.expr)
			require.NoError(t, err)
			require.Equal(t, tc.expected, result.String())
		})
	}
}

// Rewriting a rewritten expression changes nothing, whether in a fresh session
// or in the session that produced it.
func TestRewriteIdempotent(t *testing.T) {
	defer log.Scope(t).Close(t)

	expr := tree.NewAndExpr(
		tree.NewComparisonExpr(tree.GT, num(10), tree.NewBinaryExpr(tree.Mult, num(2), num(3))),
		tree.NewComparisonExpr(tree.NE, num(0), col("x")),
	)
	r := newRewriter()
	first, err := r.RewriteExpression(context.Background(), expr)
	require.NoError(t, err)
	require.Equal(t, "x != 0", first.String())

	again, err := r.RewriteExpression(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, first.String(), again.String())

	fresh, err := newRewriter().RewriteExpression(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, first.String(), fresh.String())
}

// Rewriting merges the group of x AND true into the group of x. The rewritten
// expression is then found in the memo instead of being recorded again.
func TestRewriteAfterMerge(t *testing.T) {
	defer log.Scope(t).Close(t)

	r := newRewriter()
	expr := tree.NewAndExpr(&tree.ParenExpr{Expr: tree.NewAndExpr(col("x"), tree.DBoolTrue)}, col("x"))
	first, err := r.RewriteExpression(context.Background(), expr)
	require.NoError(t, err)
	require.Equal(t, "x AND x", first.String())
	groups, exprs := r.Context().Memo().GroupCount(), r.Context().Memo().ExprCount()

	again, err := r.RewriteExpression(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, "x AND x", again.String())
	require.Equal(t, groups, r.Context().Memo().GroupCount())
	require.Equal(t, exprs, r.Context().Memo().ExprCount())
}

// swapAnd swaps the operands of every AND, so it never reaches a fixed point.
type swapAnd struct{}

var andPattern = opt.NewPattern(opt.AndOp, opt.NewLeafPattern(), opt.NewLeafPattern())

func (swapAnd) Name() string                         { return "SwapAnd" }
func (swapAnd) Type() xform.RuleType                 { return xform.RewriteRule }
func (swapAnd) Pattern() *opt.Pattern                { return andPattern }
func (swapAnd) Check(*opt.Node, *xform.Context) bool { return true }

func (swapAnd) Transform(binding *opt.Node, _ *xform.Context) []*opt.Node {
	return []*opt.Node{opt.NewNode(binding.Content(), binding.Child(1), binding.Child(0))}
}

func TestRewriteNoConvergence(t *testing.T) {
	defer log.Scope(t).Close(t)

	settings := opt.DefaultSettings()
	settings.RewriteIterationLimit = 5
	r := norm.NewRewriterWithRules(kv.NewTxn("test"), settings, swapAnd{})
	metrics := xform.NewMetrics()
	r.Context().SetMetrics(metrics)

	expr := tree.NewAndExpr(col("x"), col("y"))
	result, err := r.RewriteExpression(context.Background(), expr)
	require.True(t, errors.Is(err, norm.ErrRewriteNoConvergence), "%v", err)
	require.Contains(t, err.Error(), "no fixed point after 5 rewrite passes")
	require.Same(t, expr, result)

	require.Equal(t, float64(5), testutil.ToFloat64(metrics.RuleApplications.WithLabelValues("SwapAnd")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.RewriteNoConverge))
	require.True(t, r.Context().TaskPool().Empty())

	// With the rule disabled, the expression is left alone.
	settings.DisabledRules = []string{"SwapAnd"}
	r = norm.NewRewriterWithRules(kv.NewTxn("test"), settings, swapAnd{})
	result, err = r.RewriteExpression(context.Background(), expr)
	require.NoError(t, err)
	require.Equal(t, "x AND y", result.String())
}

func TestRewriteErrors(t *testing.T) {
	defer log.Scope(t).Close(t)

	t.Run("unsupported", func(t *testing.T) {
		expr := tree.NewAndExpr(col("x"), placeholderExpr{})
		result, err := newRewriter().RewriteExpression(context.Background(), expr)
		require.Error(t, err)
		require.Same(t, expr, result)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		expr := tree.NewBinaryExpr(tree.Plus, num(1), num(2))
		result, err := newRewriter().RewriteExpression(ctx, expr)
		require.True(t, errors.Is(err, context.Canceled), "%v", err)
		require.Same(t, expr, result)
	})

	t.Run("task limit", func(t *testing.T) {
		settings := opt.DefaultSettings()
		settings.TaskLimit = 2
		r := norm.NewRewriter(kv.NewTxn("test"), settings)
		expr := tree.NewBinaryExpr(tree.Plus, tree.NewBinaryExpr(tree.Plus, num(1), num(2)), num(3))
		result, err := r.RewriteExpression(context.Background(), expr)
		require.True(t, errors.Is(err, xform.ErrTaskLimitExceeded), "%v", err)
		require.Same(t, expr, result)
	})
}

// brokenRule violates a contract while transforming.
type brokenRule struct{ swapAnd }

func (brokenRule) Name() string { return "Broken" }

func (brokenRule) Transform(*opt.Node, *xform.Context) []*opt.Node {
	panic(errors.AssertionFailedf("broken rule"))
}

func TestRewriteCatchesAssertions(t *testing.T) {
	defer log.Scope(t).Close(t)

	r := norm.NewRewriterWithRules(kv.NewTxn("test"), opt.DefaultSettings(), brokenRule{})
	expr := tree.NewAndExpr(col("x"), col("y"))
	result, err := r.RewriteExpression(context.Background(), expr)
	require.True(t, errors.IsAssertionFailure(err), "%v", err)
	require.Same(t, expr, result)
	require.True(t, r.Context().TaskPool().Empty())
}

func TestRewriterReset(t *testing.T) {
	defer log.Scope(t).Close(t)

	r := newRewriter()
	metrics := xform.NewMetrics()
	r.Context().SetMetrics(metrics)
	_, err := r.RewriteExpression(context.Background(), tree.NewNotExpr(tree.NewNotExpr(col("x"))))
	require.NoError(t, err)
	before := r.Context()
	require.Equal(t, 3, before.Memo().GroupCount())

	txn := kv.NewTxn("next")
	r.Reset(txn)
	require.NotSame(t, before, r.Context())
	require.Same(t, txn, r.Context().Txn())
	require.Equal(t, 0, r.Context().Memo().GroupCount())
	require.Same(t, metrics, r.Context().Metrics())
	require.Nil(t, before.TaskPool())

	result, err := r.RewriteExpression(context.Background(), tree.NewNotExpr(tree.DBoolTrue))
	require.NoError(t, err)
	require.Equal(t, "false", result.String())
	for _, rule := range []string{"EliminateDoubleNot", "FoldNotConst"} {
		require.Equal(t, float64(1), testutil.ToFloat64(metrics.RuleApplications.WithLabelValues(rule)))
	}
}

// Every rewriter is its own session, so rewriters can run in parallel.
func TestRewriteParallelSessions(t *testing.T) {
	defer log.Scope(t).Close(t)

	const sessions = 8
	results := make([]string, sessions)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < sessions; i++ {
		i := i
		g.Go(func() error {
			r := norm.NewRewriter(kv.NewTxn(fmt.Sprintf("session %d", i)), opt.DefaultSettings())
			expr := tree.NewComparisonExpr(tree.LT, tree.NewBinaryExpr(tree.Plus, num(int64(i)), num(1)), col("x"))
			result, err := r.RewriteExpression(ctx, expr)
			if err != nil {
				return err
			}
			results[i] = result.String()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i, result := range results {
		require.Equal(t, fmt.Sprintf("x > %d", i+1), result)
	}
}
