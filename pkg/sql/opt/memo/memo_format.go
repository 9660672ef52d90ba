// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"bytes"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/util/treeprinter"
	humanize "github.com/dustin/go-humanize"
)

// FmtFlags controls how the memo output is formatted.
type FmtFlags int

// HasFlags tests whether the given flags are all set.
func (f FmtFlags) HasFlags(subset FmtFlags) bool {
	return f&subset == subset
}

const (
	// FmtPretty performs a breadth-first topological sort on the memo groups,
	// starting from the root group, and renumbers them in that order. Groups
	// that are not reachable from the root, or that were merged into others,
	// are not shown.
	FmtPretty FmtFlags = 0

	// FmtRaw shows the raw memo groups, in the order they were originally
	// added, and including any "orphaned" or merged groups.
	FmtRaw FmtFlags = 1 << (iota - 1)

	// FmtShowMemory includes the estimated memory usage in the header.
	FmtShowMemory

	// FmtShowBest includes the best physical expression and its cost for
	// every group that has one.
	FmtShowBest
)

type memoFmtCtx struct {
	mem       *Memo
	buf       *bytes.Buffer
	flags     FmtFlags
	ordering  []opt.GroupID
	numbering []opt.GroupID
}

// String returns a pretty representation of the memo.
func (m *Memo) String() string {
	return m.FormatString(FmtPretty)
}

// FormatString returns a string representation of the memo, formatted
// according to the given flags.
func (m *Memo) FormatString(flags FmtFlags) string {
	return m.format(&memoFmtCtx{mem: m, buf: &bytes.Buffer{}, flags: flags})
}

func (m *Memo) format(f *memoFmtCtx) string {
	// If requested, or if there is no root to sort from, print out all the
	// groups in the order and with the names they're referred to physically.
	root := m.RootGroup()
	if !f.flags.HasFlags(FmtRaw) && root != opt.UndefinedGroup {
		f.ordering = m.sortGroups(root)
	}
	if f.ordering == nil {
		f.flags |= FmtRaw
		f.ordering = make([]opt.GroupID, len(m.groups)-1)
		for i := range m.groups[1:] {
			f.ordering[i] = opt.GroupID(i + 1)
		}
	}

	// Renumber the groups so that they're still printed in order from 1..N.
	f.numbering = make([]opt.GroupID, len(m.groups))
	for i := range f.ordering {
		f.numbering[f.ordering[i]] = opt.GroupID(i + 1)
	}

	tp := treeprinter.New()
	var header treeprinter.Node
	if f.flags.HasFlags(FmtShowMemory) {
		header = tp.Childf("memo (%d groups, %d exprs, ~%s)",
			len(f.ordering), m.exprCount, humanize.IBytes(uint64(m.MemoryEstimate())))
	} else {
		header = tp.Childf("memo (%d groups)", len(f.ordering))
	}

	for i := range f.ordering {
		grp := m.groups[f.ordering[i]]
		if grp.mergedInto != opt.UndefinedGroup {
			header.Childf("G%d: merged into G%d", i+1, f.number(grp.mergedInto))
			continue
		}

		f.buf.Reset()
		m.formatExprs(f, grp.logical)
		if len(grp.logical) > 0 && len(grp.physical) > 0 {
			f.buf.WriteByte(' ')
		}
		m.formatExprs(f, grp.physical)
		child := header.Childf("G%d: %s", i+1, f.buf.String())

		if f.flags.HasFlags(FmtShowBest) && grp.best != nil {
			f.buf.Reset()
			formatGroupExpr(f.buf, grp.best, f.number)
			child.Childf("best: %s", f.buf.String())
			child.Childf("cost: %.2f", grp.bestCost)
		}
	}

	return tp.String()
}

func (m *Memo) formatExprs(f *memoFmtCtx, exprs []*GroupExpr) {
	for i, e := range exprs {
		if i != 0 {
			f.buf.WriteByte(' ')
		}
		formatGroupExpr(f.buf, e, f.number)
	}
}

func (f *memoFmtCtx) number(id opt.GroupID) opt.GroupID {
	if !f.flags.HasFlags(FmtRaw) {
		return f.numbering[f.mem.ResolveGroupID(id)]
	}
	return id
}

// sortGroups sorts groups reachable from the root by doing a BFS topological
// sort. It returns nil if the groups reachable from the root form a cycle,
// which merging groups in rewrite mode can in principle produce.
func (m *Memo) sortGroups(root opt.GroupID) (groups []opt.GroupID) {
	indegrees := m.getIndegrees(root)

	res := make([]opt.GroupID, 0, len(m.groups))
	queue := []opt.GroupID{root}

	for len(queue) > 0 {
		var next opt.GroupID
		next, queue = queue[0], queue[1:]
		res = append(res, next)

		// When we visit a group, we conceptually remove it from the dependency
		// graph, so all of its dependencies have their indegree reduced by one.
		// Any dependencies which have no more dependents can now be visited and
		// are added to the queue.
		m.forEachDependency(m.groups[next], func(dep opt.GroupID) {
			indegrees[dep]--
			if indegrees[dep] == 0 {
				queue = append(queue, dep)
			}
		})
	}

	// If there remains any group with nonzero indegree, we had a cycle.
	for i := range indegrees {
		if indegrees[i] != 0 {
			return nil
		}
	}

	return res
}

// forEachDependency runs fn for each child group of g, resolved through any
// merges.
func (m *Memo) forEachDependency(g *Group, fn func(opt.GroupID)) {
	visit := func(exprs []*GroupExpr) {
		for _, e := range exprs {
			for _, c := range e.children {
				fn(m.ResolveGroupID(c))
			}
		}
	}
	visit(g.logical)
	visit(g.physical)
}

// getIndegrees returns the indegree of each group reachable from the root.
func (m *Memo) getIndegrees(root opt.GroupID) (indegrees []int) {
	indegrees = make([]int, len(m.groups))
	m.computeIndegrees(root, make([]bool, len(m.groups)), indegrees)
	return indegrees
}

// computeIndegrees computes the indegree (number of dependents) of each group
// reachable from id. It also populates reachable with true for all reachable
// ids.
func (m *Memo) computeIndegrees(id opt.GroupID, reachable []bool, indegrees []int) {
	if id == opt.UndefinedGroup || reachable[id] {
		return
	}
	reachable[id] = true
	m.forEachDependency(m.groups[id], func(dep opt.GroupID) {
		indegrees[dep]++
		m.computeIndegrees(dep, reachable, indegrees)
	})
}
