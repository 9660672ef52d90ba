// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
	"github.com/cockroachdb/optsearch/pkg/util/log"
)

// ErrRewriteNoConvergence marks the error returned when rewriting does not
// reach a fixed point within Settings.RewriteIterationLimit passes.
var ErrRewriteNoConvergence = errors.New("rewrite did not converge")

// Rewriter simplifies scalar expressions by applying rewrite rules until none
// of them changes anything. It records the expression into the memo of its
// session, repeatedly rewrites the groups of the memo bottom-up, and finally
// rebuilds an expression from the representative of each group.
//
// Unlike the optimizer, which keeps every alternative, the rewriter only
// keeps one representative per group: a rule result replaces the expression
// it was derived from. Results that turn out to be equivalent to another group
// merge the rewritten group into that group.
//
// A Rewriter is a single session and is not safe for concurrent use. The memo
// is kept across calls to RewriteExpression, so expressions that were already
// rewritten are recognized and not rewritten again.
type Rewriter struct {
	c        *xform.Context
	settings opt.Settings
	rules    *xform.RuleSet
}

// NewRewriter returns a rewriter bound to the given transaction, using
// DefaultRules minus the rules disabled by the settings.
func NewRewriter(txn xform.Txn, settings opt.Settings) *Rewriter {
	return NewRewriterWithRules(txn, settings, DefaultRules()...)
}

// NewRewriterWithRules returns a rewriter that applies the given rules. Rules
// that are not of type xform.RewriteRule are never applied.
func NewRewriterWithRules(txn xform.Txn, settings opt.Settings, rules ...xform.Rule) *Rewriter {
	r := &Rewriter{settings: settings, rules: xform.NewRuleSet(&settings, rules...)}
	r.Reset(txn)
	return r
}

// Reset discards the memo and binds the rewriter to the given transaction.
// The metrics of the previous session, if any, are carried over.
func (r *Rewriter) Reset(txn xform.Txn) {
	var metrics *xform.Metrics
	if r.c != nil {
		metrics = r.c.Metrics()
		r.c.SetTaskPool(nil)
	}
	r.c = xform.NewContext(txn, r.settings, r.rules)
	r.c.SetMetrics(metrics)
}

// SetTxn binds the rewriter to another transaction. The memo is kept.
func (r *Rewriter) SetTxn(txn xform.Txn) {
	r.c.SetTxn(txn)
}

// Context returns the rewriter's session.
func (r *Rewriter) Context() *xform.Context {
	return r.c
}

// RewriteExpression returns the simplest form of expr that the rewrite rules
// can derive. The returned expression shares no structure with expr, except
// for constant values.
//
// If no fixed point is reached within the iteration limit, the original
// expression is returned along with an error marked with
// ErrRewriteNoConvergence. Contract violations detected while rewriting are
// returned as assertion failures, also along with the original expression.
func (r *Rewriter) RewriteExpression(
	ctx context.Context, expr tree.Expr,
) (out tree.Expr, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = expr, opt.CatchOptimizerError(rec)
			r.c.Abort()
		}
	}()

	ctx = r.c.AnnotateCtx(ctx)
	node, err := ConvertToOptimizerNode(expr)
	if err != nil {
		return expr, err
	}
	e, _ := r.c.RecordOptimizerNodeIntoGroup(node)
	mem := r.c.Memo()
	mem.SetRoot(mem.ResolveGroupID(e.Group()))

	if err := r.rewriteLoop(ctx); err != nil {
		return expr, err
	}
	result, err := RebuildExpression(mem, mem.RootGroup())
	if err != nil {
		return expr, err
	}
	log.VEventf(ctx, 2, "rewrote %s to %s", expr, result)
	return result, nil
}

// rewriteLoop runs rewrite passes over the memo, starting from its root,
// until a pass changes nothing.
func (r *Rewriter) rewriteLoop(ctx context.Context) error {
	if r.c.TaskPool() == nil {
		r.c.SetTaskPool(xform.NewTaskStack())
	}
	limit := r.settings.RewriteIterationLimit
	for pass := 1; pass <= limit; pass++ {
		p := rewritePass{r: r, visited: make(map[opt.GroupID]struct{})}
		r.c.PushTask(newRewriteGroupTask(&p, r.c.Memo().RootGroup()))
		if err := r.c.RunTasks(ctx); err != nil {
			return err
		}
		if log.V(3) {
			log.VEventf(ctx, 3, "rewrite pass %d applied %v", pass, p.applied)
		}
		if len(p.applied) == 0 {
			r.c.Metrics().RewriteFinished(pass, true /* converged */)
			return nil
		}
	}
	r.c.Metrics().RewriteFinished(limit, false /* converged */)
	return errors.Mark(
		errors.WithHintf(
			errors.Newf("no fixed point after %d rewrite passes", limit),
			"raise rewrite_iteration_limit, or disable the rules that undo each other",
		),
		ErrRewriteNoConvergence,
	)
}
