// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"fmt"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
)

// The search is made of the following tasks. Since the task stack is LIFO, a
// task that needs other work done first pushes itself (or a continuation)
// before pushing that work.
//
//	OptimizeGroup       optimize every member of a group
//	OptimizeExpression  explore the inputs of a logical expression, then
//	                    apply exploration and implementation rules to it
//	ExploreGroup        explore every logical member of a group
//	ExploreExpression   explore the inputs of a logical expression, then
//	                    apply exploration rules to it
//	ApplyRule           apply one rule to one expression and schedule the
//	                    new expressions
//	OptimizeInputs      optimize the inputs of a physical expression, then
//	                    cost it
//
// OptimizeExpression and ExploreExpression share optimizeExprTask.

type optimizeGroupTask struct {
	c     *Context
	group opt.GroupID
}

func newOptimizeGroupTask(c *Context, group opt.GroupID) *optimizeGroupTask {
	return &optimizeGroupTask{c: c, group: group}
}

func (t *optimizeGroupTask) Execute() {
	mem := t.c.mem
	g := mem.Group(mem.ResolveGroupID(t.group))
	if g.Optimized() {
		return
	}
	g.SetOptimized()
	g.SetExplored()
	for _, e := range g.PhysicalExprs() {
		t.c.PushTask(newOptimizeInputsTask(t.c, e))
	}
	for _, e := range g.LogicalExprs() {
		t.c.PushTask(newOptimizeExprTask(t.c, e, false /* explore */))
	}
}

func (t *optimizeGroupTask) Release() { t.c = nil }

func (t *optimizeGroupTask) String() string {
	return fmt.Sprintf("OptimizeGroup(G%d)", t.group)
}

// optimizeExprTask applies the rules of the session to a logical expression.
// When explore is true only exploration rules are applied.
type optimizeExprTask struct {
	c       *Context
	expr    *memo.GroupExpr
	explore bool
}

func newOptimizeExprTask(c *Context, e *memo.GroupExpr, explore bool) *optimizeExprTask {
	return &optimizeExprTask{c: c, expr: e, explore: explore}
}

func (t *optimizeExprTask) Execute() {
	rules := t.c.rules
	op := t.expr.Op()
	if !t.explore {
		for _, id := range rules.RulesFor(ImplementationRule, op) {
			t.c.PushTask(newApplyRuleTask(t.c, t.expr, id, t.explore))
		}
	}
	for _, id := range rules.RulesFor(ExplorationRule, op) {
		t.c.PushTask(newApplyRuleTask(t.c, t.expr, id, t.explore))
	}
	// Inputs are explored before any rule is applied, so that the bindings see
	// every alternative of the inputs.
	for i := t.expr.ChildCount() - 1; i >= 0; i-- {
		t.c.PushTask(newExploreGroupTask(t.c, t.expr.ChildGroup(i)))
	}
}

func (t *optimizeExprTask) Release() { t.c, t.expr = nil, nil }

func (t *optimizeExprTask) String() string {
	if t.explore {
		return fmt.Sprintf("ExploreExpression(%s)", t.expr)
	}
	return fmt.Sprintf("OptimizeExpression(%s)", t.expr)
}

type exploreGroupTask struct {
	c     *Context
	group opt.GroupID
}

func newExploreGroupTask(c *Context, group opt.GroupID) *exploreGroupTask {
	return &exploreGroupTask{c: c, group: group}
}

func (t *exploreGroupTask) Execute() {
	mem := t.c.mem
	g := mem.Group(mem.ResolveGroupID(t.group))
	if g.Explored() {
		return
	}
	g.SetExplored()
	for _, e := range g.LogicalExprs() {
		t.c.PushTask(newOptimizeExprTask(t.c, e, true /* explore */))
	}
}

func (t *exploreGroupTask) Release() { t.c = nil }

func (t *exploreGroupTask) String() string {
	return fmt.Sprintf("ExploreGroup(G%d)", t.group)
}

type applyRuleTask struct {
	c       *Context
	expr    *memo.GroupExpr
	rule    memo.RuleID
	explore bool
}

func newApplyRuleTask(
	c *Context, e *memo.GroupExpr, rule memo.RuleID, explore bool,
) *applyRuleTask {
	return &applyRuleTask{c: c, expr: e, rule: rule, explore: explore}
}

func (t *applyRuleTask) Execute() {
	if t.expr.HasRuleApplied(t.rule) {
		return
	}
	t.expr.SetRuleApplied(t.rule)

	rule := t.c.rules.Rule(t.rule)
	mem := t.c.mem
	target := mem.ResolveGroupID(t.expr.Group())
	it := memo.NewGroupExprBindingIterator(mem, t.expr, rule.Pattern(), memo.BindAll)
	for it.HasNext() {
		binding := it.Next()
		if !rule.Check(binding, t.c) {
			continue
		}
		for _, result := range rule.Transform(binding, t.c) {
			e, added := t.c.RecordOptimizerNodeIntoTargetGroup(result, target)
			if !added {
				continue
			}
			t.c.metrics.RuleApplied(rule.Name())
			switch {
			case e.IsPhysical():
				t.c.PushTask(newOptimizeInputsTask(t.c, e))
			case t.explore && !mem.Group(target).Optimized():
				t.c.PushTask(newOptimizeExprTask(t.c, e, true /* explore */))
			default:
				t.c.PushTask(newOptimizeExprTask(t.c, e, false /* explore */))
			}
		}
	}
}

func (t *applyRuleTask) Release() { t.c, t.expr = nil, nil }

func (t *applyRuleTask) String() string {
	name := fmt.Sprintf("rule(%d)", t.rule)
	if t.c != nil {
		name = t.c.rules.Rule(t.rule).Name()
	}
	return fmt.Sprintf("ApplyRule(%s, %s)", name, t.expr)
}

// optimizeInputsTask costs a physical expression once the best expressions of
// its inputs are known. It runs in two steps: the first schedules the
// optimization of the inputs underneath a continuation of itself, and the
// continuation computes the cost.
type optimizeInputsTask struct {
	c        *Context
	expr     *memo.GroupExpr
	costOnly bool
}

func newOptimizeInputsTask(c *Context, e *memo.GroupExpr) *optimizeInputsTask {
	return &optimizeInputsTask{c: c, expr: e}
}

func (t *optimizeInputsTask) Execute() {
	mem := t.c.mem
	if !t.costOnly {
		var pending []opt.GroupID
		for _, child := range t.expr.ChildGroups() {
			if !mem.Group(mem.ResolveGroupID(child)).Optimized() {
				pending = append(pending, child)
			}
		}
		if len(pending) > 0 {
			t.c.PushTask(&optimizeInputsTask{c: t.c, expr: t.expr, costOnly: true})
			for i := len(pending) - 1; i >= 0; i-- {
				t.c.PushTask(newOptimizeGroupTask(t.c, pending[i]))
			}
			return
		}
	}

	for _, child := range t.expr.ChildGroups() {
		if best, _ := mem.Group(mem.ResolveGroupID(child)).BestExpr(); best == nil {
			// An input with no physical plan cannot be executed, and neither can
			// this expression.
			return
		}
	}
	cost := t.c.coster.ComputeCost(t.expr, mem)
	g := mem.Group(mem.ResolveGroupID(t.expr.Group()))
	g.SetBestExpr(t.expr, cost)
}

func (t *optimizeInputsTask) Release() { t.c, t.expr = nil, nil }

func (t *optimizeInputsTask) String() string {
	return fmt.Sprintf("OptimizeInputs(%s)", t.expr)
}
