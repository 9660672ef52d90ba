// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/cat"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
	"github.com/stretchr/testify/require"
)

func get(db, schema, table uint32) *opt.Node {
	return opt.NewNode(ops.NewGet(cat.TableRef{
		Database: cat.DatabaseID(db), Schema: cat.SchemaID(schema), Table: cat.TableID(table),
	}, ""))
}

func join(left, right *opt.Node) *opt.Node {
	return opt.NewNode(ops.NewInnerJoin(nil), left, right)
}

func expectAssertionFailure(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "expected an error, got %v", r)
		require.True(t, errors.IsAssertionFailure(err), "%v", err)
	}()
	fn()
}

func TestRecordSingleLayer(t *testing.T) {
	m := memo.New()
	n := get(1, 2, 3)

	e, added := m.Record(n, opt.UndefinedGroup)
	require.True(t, added)
	require.Equal(t, opt.GroupID(1), e.Group())
	require.Equal(t, 1, m.GroupCount())
	require.Equal(t, 0, e.ChildCount())
	require.Same(t, n.Content(), e.Content())

	again, added := m.Record(n, opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, again)

	cp, added := m.Record(n.Copy(), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, cp)

	// A structurally equal node built separately dedups too.
	other, added := m.Record(get(1, 2, 3), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, other)

	require.Equal(t, 1, m.GroupCount())
	require.Equal(t, 1, m.ExprCount())
	require.Len(t, m.Group(1).LogicalExprs(), 1)
}

func TestRecordMultiLayer(t *testing.T) {
	m := memo.New()
	n := join(get(1, 1, 1), get(1, 1, 2))

	e, added := m.Record(n, opt.UndefinedGroup)
	require.True(t, added)

	// Children are recorded first, so they get the lower group ids.
	require.Equal(t, []opt.GroupID{1, 2}, e.ChildGroups())
	require.Equal(t, opt.GroupID(3), e.Group())
	require.Equal(t, 3, m.GroupCount())

	again, added := m.Record(n.Copy(), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, again)
	require.Equal(t, 3, m.GroupCount())

	// Child order is significant.
	commuted, added := m.Record(join(get(1, 1, 2), get(1, 1, 1)), opt.UndefinedGroup)
	require.True(t, added)
	require.NotSame(t, e, commuted)
	require.Equal(t, []opt.GroupID{2, 1}, commuted.ChildGroups())
	require.Equal(t, opt.GroupID(4), commuted.Group())
}

func TestRecordDuplicateChildren(t *testing.T) {
	m := memo.New()
	e, added := m.Record(join(get(1, 2, 3), get(1, 2, 3)), opt.UndefinedGroup)
	require.True(t, added)

	require.Equal(t, e.ChildGroup(0), e.ChildGroup(1))
	require.Equal(t, 2, m.GroupCount())
	require.Len(t, m.Group(e.ChildGroup(0)).LogicalExprs(), 1)
}

func TestRecordIntoTargetGroup(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(join(get(1, 1, 1), get(1, 1, 2)), opt.UndefinedGroup)
	root := e.Group()

	commuted, added := m.Record(join(get(1, 1, 2), get(1, 1, 1)), root)
	require.True(t, added)
	require.Equal(t, root, commuted.Group())
	require.Equal(t, 3, m.GroupCount())
	require.Equal(t, []*memo.GroupExpr{e, commuted}, m.Group(root).LogicalExprs())

	// Physical alternatives go to the physical member list.
	hash, added := m.Record(opt.NewNode(ops.NewHashJoin(nil), opt.NewLeafNode(1), opt.NewLeafNode(2)), root)
	require.True(t, added)
	require.Equal(t, []*memo.GroupExpr{hash}, m.Group(root).PhysicalExprs())
	require.Len(t, m.Group(root).LogicalExprs(), 2)
	require.Equal(t, 3, m.Group(root).ExprCount())

	// Recording an existing expression into another group is a lookup.
	dup, added := m.Record(join(get(1, 1, 1), get(1, 1, 2)), 1)
	require.False(t, added)
	require.Same(t, e, dup)
	require.Len(t, m.Group(1).LogicalExprs(), 1)
}

func TestRecordLeafChildren(t *testing.T) {
	m := memo.New()
	m.Record(get(1, 1, 1), opt.UndefinedGroup)
	m.Record(get(1, 1, 2), opt.UndefinedGroup)

	e, added := m.Record(join(opt.NewLeafNode(2), opt.NewLeafNode(1)), opt.UndefinedGroup)
	require.True(t, added)
	require.Equal(t, []opt.GroupID{2, 1}, e.ChildGroups())

	// The same expression written with materialized children dedups.
	again, added := m.Record(join(get(1, 1, 2), get(1, 1, 1)), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, again)
}

func TestRecordContractViolations(t *testing.T) {
	m := memo.New()
	m.Record(get(1, 1, 1), opt.UndefinedGroup)

	expectAssertionFailure(t, func() { m.Record(opt.NewNode(nil), opt.UndefinedGroup) })
	expectAssertionFailure(t, func() { m.Record(nil, opt.UndefinedGroup) })
	expectAssertionFailure(t, func() { m.Record(join(get(1, 1, 1), opt.NewNode(nil)), opt.UndefinedGroup) })
	expectAssertionFailure(t, func() { m.Record(opt.NewLeafNode(1), opt.UndefinedGroup) })
	expectAssertionFailure(t, func() { m.Record(get(1, 1, 2), 5) })
	expectAssertionFailure(t, func() { m.Record(join(opt.NewLeafNode(9), get(1, 1, 1)), opt.UndefinedGroup) })
	expectAssertionFailure(t, func() { m.Group(opt.UndefinedGroup) })
	expectAssertionFailure(t, func() { m.Group(2) })
}

func TestLookup(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(join(get(1, 1, 1), get(1, 1, 2)), opt.UndefinedGroup)

	require.Same(t, e, m.Lookup(ops.NewInnerJoin(nil), []opt.GroupID{1, 2}))
	require.Nil(t, m.Lookup(ops.NewInnerJoin(nil), []opt.GroupID{2, 1}))
	require.Nil(t, m.Lookup(ops.NewHashJoin(nil), []opt.GroupID{1, 2}))
}

func TestMergeGroup(t *testing.T) {
	m := memo.New()
	m.Record(get(1, 1, 1), opt.UndefinedGroup)
	m.Record(get(1, 1, 2), opt.UndefinedGroup)
	m.Record(get(1, 1, 3), opt.UndefinedGroup)

	require.True(t, m.MergeGroup(3, 2))
	require.True(t, m.MergeGroup(2, 1))
	require.False(t, m.MergeGroup(3, 1))
	require.Equal(t, opt.GroupID(1), m.ResolveGroupID(3))
	require.Equal(t, opt.GroupID(1), m.ResolveGroupID(2))
	require.Equal(t, opt.GroupID(2), m.Group(3).MergedInto())
	require.Equal(t, opt.UndefinedGroup, m.Group(1).MergedInto())

	// Recording into a merged group adds to the group it resolves to.
	e, added := m.Record(get(1, 1, 4), 3)
	require.True(t, added)
	require.Equal(t, opt.GroupID(1), e.Group())

	// Leaf children are resolved too.
	j, _ := m.Record(join(opt.NewLeafNode(3), opt.NewLeafNode(2)), opt.UndefinedGroup)
	require.Equal(t, []opt.GroupID{1, 1}, j.ChildGroups())
}

// Expressions whose child groups were merged still deduplicate expressions
// recorded over the resolved groups.
func TestRecordAfterMerge(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(join(get(1, 1, 1), get(1, 1, 2)), opt.UndefinedGroup)
	require.Equal(t, opt.GroupID(3), e.Group())
	require.True(t, m.MergeGroup(2, 1))

	again, added := m.Record(join(opt.NewLeafNode(1), opt.NewLeafNode(1)), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, again)

	again, added = m.Record(join(get(1, 1, 1), opt.NewLeafNode(2)), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, again)
	require.Same(t, e, m.Lookup(e.Content(), []opt.GroupID{2, 2}))
	require.Equal(t, 3, m.GroupCount())
	require.Equal(t, 3, m.ExprCount())

	// Merges through an intermediate group are followed too.
	m = memo.New()
	e, _ = m.Record(join(get(1, 1, 1), get(1, 1, 2)), opt.UndefinedGroup)
	m.Record(get(1, 1, 3), opt.UndefinedGroup)
	require.True(t, m.MergeGroup(2, 4))
	require.True(t, m.MergeGroup(4, 1))
	again, added = m.Record(join(opt.NewLeafNode(1), opt.NewLeafNode(4)), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, e, again)

	// The child groups recorded with the expression are kept.
	require.Equal(t, []opt.GroupID{1, 2}, e.ChildGroups())
}

func TestRecordScanPayload(t *testing.T) {
	scan := func(limit int64, forUpdate bool) *opt.Node {
		g := ops.NewGet(cat.TableRef{Database: 1, Schema: 1, Table: 1}, "t")
		g.Predicate = tree.NewComparisonExpr(tree.LT, tree.NewColumnItem("a"), tree.NewDInt(tree.DInt(limit)))
		g.ForUpdate = forUpdate
		return opt.NewNode(g)
	}

	m := memo.New()
	a, _ := m.Record(scan(5, false), opt.UndefinedGroup)
	b, added := m.Record(scan(6, false), opt.UndefinedGroup)
	require.True(t, added)
	require.NotEqual(t, a.Group(), b.Group())
	c, added := m.Record(scan(5, true), opt.UndefinedGroup)
	require.True(t, added)
	require.NotEqual(t, a.Group(), c.Group())

	same, added := m.Record(scan(5, false), opt.UndefinedGroup)
	require.False(t, added)
	require.Same(t, a, same)
	require.Equal(t, 3, m.GroupCount())
}

func TestGroupState(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(join(get(1, 1, 1), get(1, 1, 2)), opt.UndefinedGroup)
	g := m.Group(e.Group())

	require.Equal(t, e.Group(), g.ID())
	require.False(t, g.Explored())
	g.SetExplored()
	require.True(t, g.Explored())
	require.False(t, g.Optimized())
	g.SetOptimized()
	require.True(t, g.Optimized())

	// The first logical member represents the group until another is chosen.
	require.Same(t, e, g.Representative())
	commuted, _ := m.Record(join(get(1, 1, 2), get(1, 1, 1)), g.ID())
	require.Same(t, e, g.Representative())
	g.SetRepresentative(commuted)
	require.Same(t, commuted, g.Representative())

	best, cost := g.BestExpr()
	require.Nil(t, best)
	require.Equal(t, memo.MaxCost, cost)
	hash, _ := m.Record(opt.NewNode(ops.NewHashJoin(nil), opt.NewLeafNode(1), opt.NewLeafNode(2)), g.ID())
	loop, _ := m.Record(opt.NewNode(ops.NewNestedLoopJoin(nil), opt.NewLeafNode(1), opt.NewLeafNode(2)), g.ID())
	require.True(t, g.SetBestExpr(loop, 10))
	require.True(t, g.SetBestExpr(hash, 5))
	require.False(t, g.SetBestExpr(loop, 5))
	best, cost = g.BestExpr()
	require.Same(t, hash, best)
	require.Equal(t, memo.Cost(5), cost)
}

func TestRuleApplied(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(get(1, 1, 1), opt.UndefinedGroup)
	require.False(t, e.HasRuleApplied(0))
	require.False(t, e.HasRuleApplied(100))
	e.SetRuleApplied(3)
	e.SetRuleApplied(100)
	require.True(t, e.HasRuleApplied(3))
	require.True(t, e.HasRuleApplied(100))
	require.False(t, e.HasRuleApplied(4))
}

func TestMemoString(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(join(get(1, 2, 3), get(1, 2, 3)), opt.UndefinedGroup)
	m.SetRoot(e.Group())

	expected := "memo (2 groups)\n" +
		" ├── G1: (inner-join G2 G2)\n" +
		" └── G2: (get [1.2.3])\n"
	require.Equal(t, expected, m.String())

	raw := "memo (2 groups)\n" +
		" ├── G1: (get [1.2.3])\n" +
		" └── G2: (inner-join G1 G1)\n"
	require.Equal(t, raw, m.FormatString(memo.FmtRaw))
	require.Equal(t, "(inner-join G1 G1)", e.String())
	require.Greater(t, m.MemoryEstimate(), int64(0))
}
