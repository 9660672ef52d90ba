// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/util/log"
)

// Optimizer turns a logical expression tree into the cheapest physical plan
// that its rules can derive. It records the tree into the memo, explores
// logically equivalent alternatives with exploration rules, derives physical
// alternatives with implementation rules, and keeps the cheapest physical
// expression of every group according to the coster.
//
// The search is driven by the session's task stack rather than by recursion.
// An Optimizer is a single session and is not safe for concurrent use.
type Optimizer struct {
	c *Context
}

// NewOptimizer returns an optimizer bound to the given transaction, using
// DefaultRules minus the rules disabled by the settings.
func NewOptimizer(txn Txn, settings opt.Settings) *Optimizer {
	return NewOptimizerWithRules(txn, settings, DefaultRules()...)
}

// NewOptimizerWithRules returns an optimizer that applies the given rules.
func NewOptimizerWithRules(txn Txn, settings opt.Settings, rules ...Rule) *Optimizer {
	return &Optimizer{c: NewContext(txn, settings, NewRuleSet(&settings, rules...))}
}

// Context returns the optimizer's session.
func (o *Optimizer) Context() *Context {
	return o.c
}

// Memo returns the memo of the optimizer's session.
func (o *Optimizer) Memo() *memo.Memo {
	return o.c.Memo()
}

// Optimize records the tree into the memo, runs the search to completion and
// returns the cheapest plan found for the root. Contract violations detected
// during the search are returned as assertion failure errors. If ctx is
// canceled or the task limit is reached, the search stops and the error is
// returned; the memo holds whatever was derived up to that point.
func (o *Optimizer) Optimize(ctx context.Context, root *opt.Node) (_ *opt.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
			o.c.Abort()
		}
	}()

	ctx = o.c.AnnotateCtx(ctx)
	e, _ := o.c.RecordOptimizerNodeIntoGroup(root)
	mem := o.c.Memo()
	group := mem.ResolveGroupID(e.Group())
	mem.SetRoot(group)

	if o.c.TaskPool() == nil {
		o.c.SetTaskPool(NewTaskStack())
	}
	o.c.PushTask(newOptimizeGroupTask(o.c, group))
	if err := o.c.RunTasks(ctx); err != nil {
		return nil, err
	}

	plan, err := o.ChooseBestPlan(group)
	if err != nil {
		return nil, err
	}
	if log.V(2) {
		_, cost := mem.Group(group).BestExpr()
		log.VEventf(ctx, 2, "optimized G%d with cost %.2f", group, cost)
	}
	return plan, nil
}

// ChooseBestPlan rebuilds a node tree out of the best physical expression of
// the group and, recursively, of its input groups. It returns an error if any
// of these groups has no costed physical expression.
func (o *Optimizer) ChooseBestPlan(group opt.GroupID) (*opt.Node, error) {
	mem := o.c.Memo()
	group = mem.ResolveGroupID(group)
	best, _ := mem.Group(group).BestExpr()
	if best == nil {
		return nil, errors.WithHintf(
			errors.Newf("no physical plan found for G%d", group),
			"check that every operator has an enabled implementation rule",
		)
	}
	var children []*opt.Node
	if best.ChildCount() > 0 {
		children = make([]*opt.Node, best.ChildCount())
		for i, child := range best.ChildGroups() {
			n, err := o.ChooseBestPlan(child)
			if err != nil {
				return nil, err
			}
			children[i] = n
		}
	}
	return opt.NewNode(best.Content(), children...), nil
}
