// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"fmt"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
)

// rewritePass is the state shared by the tasks of one pass over the memo.
type rewritePass struct {
	r *Rewriter

	// visited holds the groups that have already been scheduled during the
	// pass. Each group is rewritten at most once per pass.
	visited map[opt.GroupID]struct{}

	// applied lists the rules that changed the memo during the pass.
	applied []string
}

// rewriteGroupTask schedules the rewrite of a group after the rewrite of the
// children of its representative.
type rewriteGroupTask struct {
	pass  *rewritePass
	group opt.GroupID
}

var _ xform.Task = &rewriteGroupTask{}

func newRewriteGroupTask(pass *rewritePass, group opt.GroupID) *rewriteGroupTask {
	return &rewriteGroupTask{pass: pass, group: group}
}

func (t *rewriteGroupTask) Execute() {
	c := t.pass.r.c
	mem := c.Memo()
	group := mem.ResolveGroupID(t.group)
	if _, ok := t.pass.visited[group]; ok {
		return
	}
	t.pass.visited[group] = struct{}{}

	rep := mem.Group(group).Representative()
	if rep == nil {
		return
	}
	c.PushTask(&applyRewritesTask{pass: t.pass, group: group})
	for i := rep.ChildCount() - 1; i >= 0; i-- {
		c.PushTask(newRewriteGroupTask(t.pass, rep.ChildGroup(i)))
	}
}

func (t *rewriteGroupTask) Release() { t.pass = nil }

func (t *rewriteGroupTask) String() string {
	return fmt.Sprintf("RewriteGroup(G%d)", t.group)
}

// applyRewritesTask applies the rewrite rules to the representative of a
// group, stopping at the first rule that changes the group.
type applyRewritesTask struct {
	pass  *rewritePass
	group opt.GroupID
}

var _ xform.Task = &applyRewritesTask{}

func (t *applyRewritesTask) Execute() {
	c := t.pass.r.c
	mem := c.Memo()
	group := mem.ResolveGroupID(t.group)
	rep := mem.Group(group).Representative()
	rules := c.Rules()
	for _, id := range rules.RulesFor(xform.RewriteRule, rep.Op()) {
		rule := rules.Rule(id)
		it := memo.NewGroupExprBindingIterator(mem, rep, rule.Pattern(), memo.BindRepresentative)
		for it.HasNext() {
			binding := it.Next()
			if !rule.Check(binding, c) {
				continue
			}
			results := rule.Transform(binding, c)
			if len(results) == 0 {
				continue
			}
			if t.replace(group, results[0]) {
				c.Metrics().RuleApplied(rule.Name())
				t.pass.applied = append(t.pass.applied, rule.Name())
				return
			}
		}
	}
}

// replace makes the rule result stand for the group. It returns true if the
// memo changed:
//
//   - a leaf result, or a result that is already in another group, merges the
//     group into that group;
//   - a new result is added to the group and becomes its representative;
//   - a result that is already a member of the group becomes its
//     representative.
func (t *applyRewritesTask) replace(group opt.GroupID, result *opt.Node) bool {
	c := t.pass.r.c
	mem := c.Memo()
	if leaf, ok := result.Content().(*opt.LeafContent); ok {
		return mem.MergeGroup(group, leaf.OriginGroup())
	}

	e, added := c.RecordOptimizerNodeIntoTargetGroup(result, group)
	g := mem.Group(group)
	if added {
		g.SetRepresentative(e)
		return true
	}
	if other := mem.ResolveGroupID(e.Group()); other != group {
		return mem.MergeGroup(group, other)
	}
	if g.Representative() == e {
		return false
	}
	g.SetRepresentative(e)
	return true
}

func (t *applyRewritesTask) Release() { t.pass = nil }

func (t *applyRewritesTask) String() string {
	return fmt.Sprintf("ApplyRewrites(G%d)", t.group)
}
