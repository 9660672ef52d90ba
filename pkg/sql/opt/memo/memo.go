// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
)

// Memo is a data structure for efficiently storing a forest of expression
// trees. Conceptually, the memo is composed of a numbered set of equivalency
// classes called groups where each group contains a set of logically
// equivalent expressions. Two expressions are considered logically equivalent
// if:
//
//  1. They return the same number and data type of columns. However, order and
//     naming of columns doesn't matter.
//  2. They return the same number of rows, with the same values in each row.
//     However, order of rows doesn't matter.
//
// The different expressions in a single group are called memo expressions
// (memo-ized expressions). The children of a memo expression are other
// groups rather than expressions, so a single memo expression stands for
// every combination of its child groups' members.
//
// Memo expressions are deduplicated by fingerprint: the operator, the private
// payload, and the ordered list of child group ids. Recording an expression
// that is already present returns the existing memo expression and changes
// nothing. Child order is significant; commutative operators are not
// normalized, so a join and its commuted form are different expressions (an
// exploration rule may add both to the same group).
//
// A memo is owned by a single planning session and is not safe for
// concurrent use.
type Memo struct {
	// groups is indexed by GroupID. groups[0] is unused so that the zero
	// GroupID can mean "no group".
	groups []*Group

	// exprMap buckets every memo expression by fingerprint. Collisions are
	// resolved by an exact comparison inside the bucket.
	exprMap map[uint64][]*GroupExpr

	// parents indexes memo expressions by the groups they refer to as
	// children. A merged group's entries move to the group it was merged into.
	parents map[opt.GroupID][]*GroupExpr

	exprCount int
	root      opt.GroupID
}

// New returns an empty memo.
func New() *Memo {
	m := &Memo{}
	m.Init()
	return m
}

// Init discards the contents of the memo, leaving it empty.
func (m *Memo) Init() {
	m.groups = append(m.groups[:0], nil)
	m.exprMap = make(map[uint64][]*GroupExpr)
	m.parents = make(map[opt.GroupID][]*GroupExpr)
	m.exprCount = 0
	m.root = opt.UndefinedGroup
}

// Record adds the node tree to the memo and returns the memo expression for
// its root. Children are recorded first, so that the root's candidate
// expression can refer to their groups. A LeafOp child stands for its group
// and is not recorded.
//
// If an equal expression is already in the memo, that expression is returned
// along with false, and nothing is modified. Otherwise the new expression is
// added to the target group, resolved through any merges (or to a new group
// when target is opt.UndefinedGroup), and returned along with true.
//
// Record panics if the node or any descendant is undefined, if the root is a
// leaf placeholder, or if target does not name a group in the memo.
func (m *Memo) Record(node *opt.Node, target opt.GroupID) (_ *GroupExpr, added bool) {
	if !node.IsDefined() {
		panic(errors.AssertionFailedf("cannot record an undefined node"))
	}
	if node.Op() == opt.LeafOp {
		panic(errors.AssertionFailedf("cannot record a leaf placeholder as an expression"))
	}

	var children []opt.GroupID
	if node.ChildCount() > 0 {
		children = make([]opt.GroupID, node.ChildCount())
		for i, child := range node.Children() {
			children[i] = m.recordChild(child)
		}
	}

	candidate := newGroupExpr(node.Content(), children)
	if existing := m.lookup(candidate); existing != nil {
		return existing, false
	}

	var grp *Group
	if target == opt.UndefinedGroup {
		grp = m.newGroup()
	} else {
		grp = m.Group(m.ResolveGroupID(target))
	}
	grp.addExpr(candidate)
	m.exprMap[candidate.hash] = append(m.exprMap[candidate.hash], candidate)
	for i, c := range children {
		if i == 0 || children[i-1] != c {
			m.parents[c] = append(m.parents[c], candidate)
		}
	}
	m.exprCount++
	return candidate, true
}

// recordChild returns the group of the child node, recording it first if
// necessary.
func (m *Memo) recordChild(child *opt.Node) opt.GroupID {
	if !child.IsDefined() {
		panic(errors.AssertionFailedf("cannot record an undefined node"))
	}
	if leaf, ok := child.Content().(*opt.LeafContent); ok {
		return m.ResolveGroupID(leaf.OriginGroup())
	}
	e, _ := m.Record(child, opt.UndefinedGroup)
	return m.ResolveGroupID(e.group)
}

// Lookup returns the memo expression that is equal to the given content with
// the given children, or nil if there is none. Children are compared after
// resolving merges.
func (m *Memo) Lookup(content opt.Content, children []opt.GroupID) *GroupExpr {
	return m.lookup(newGroupExpr(content, m.resolveChildren(children)))
}

// lookup finds the memo expression equal to candidate, whose children must
// already be resolved.
func (m *Memo) lookup(candidate *GroupExpr) *GroupExpr {
	for _, e := range m.exprMap[candidate.hash] {
		if m.sameExpr(e, candidate) {
			return e
		}
	}
	return nil
}

// sameExpr returns true if e, whose children may have been merged since it
// was recorded, is equal to the resolved candidate.
func (m *Memo) sameExpr(e, candidate *GroupExpr) bool {
	if e.hash != candidate.hash || len(e.children) != len(candidate.children) {
		return false
	}
	for i, c := range e.children {
		if m.ResolveGroupID(c) != candidate.children[i] {
			return false
		}
	}
	return opt.ContentsEqual(e.content, candidate.content)
}

func (m *Memo) resolveChildren(children []opt.GroupID) []opt.GroupID {
	if len(children) == 0 {
		return nil
	}
	res := make([]opt.GroupID, len(children))
	for i, c := range children {
		res[i] = m.ResolveGroupID(c)
	}
	return res
}

// rehash moves e to the bucket of the fingerprint of its resolved children.
func (m *Memo) rehash(e *GroupExpr) {
	bucket := m.exprMap[e.hash]
	for i := range bucket {
		if bucket[i] == e {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(m.exprMap, e.hash)
	} else {
		m.exprMap[e.hash] = bucket
	}
	e.hash = fingerprint(e.content, m.resolveChildren(e.children))
	m.exprMap[e.hash] = append(m.exprMap[e.hash], e)
}

func (m *Memo) newGroup() *Group {
	g := &Group{id: opt.GroupID(len(m.groups)), bestCost: MaxCost}
	m.groups = append(m.groups, g)
	return g
}

// Group returns the group with the given id. It panics if the id does not
// name a group in the memo.
func (m *Memo) Group(id opt.GroupID) *Group {
	if id == opt.UndefinedGroup || int(id) >= len(m.groups) {
		panic(errors.AssertionFailedf("dangling group reference G%d (memo has %d groups)", id, m.GroupCount()))
	}
	return m.groups[id]
}

// GroupCount returns the number of groups in the memo, including groups that
// have been merged into others.
func (m *Memo) GroupCount() int {
	return len(m.groups) - 1
}

// ExprCount returns the number of memo expressions across all groups.
func (m *Memo) ExprCount() int {
	return m.exprCount
}

// SetRoot records the group that the current planning goal starts from.
func (m *Memo) SetRoot(id opt.GroupID) {
	m.root = m.Group(id).id
}

// RootGroup returns the group set by SetRoot, resolved through any merges, or
// opt.UndefinedGroup.
func (m *Memo) RootGroup() opt.GroupID {
	if m.root == opt.UndefinedGroup {
		return opt.UndefinedGroup
	}
	return m.ResolveGroupID(m.root)
}

// ResolveGroupID follows merges from the given group to the group that now
// stands for it. Groups that have not been merged resolve to themselves.
func (m *Memo) ResolveGroupID(id opt.GroupID) opt.GroupID {
	g := m.Group(id)
	for g.mergedInto != opt.UndefinedGroup {
		g = m.Group(g.mergedInto)
	}
	return g.id
}

// MergeGroup records that every expression of group from is equivalent to
// the expressions of group into. Afterwards, from resolves to into. It
// returns false if both groups already resolve to the same group.
//
// Expressions that refer to from are fingerprinted again over their resolved
// children, so recording such an expression after the merge finds the
// existing one. Two expressions that only become equal through the merge
// both stay in the memo; lookups return the one recorded first.
func (m *Memo) MergeGroup(from, into opt.GroupID) bool {
	from, into = m.ResolveGroupID(from), m.ResolveGroupID(into)
	if from == into {
		return false
	}
	m.groups[from].mergedInto = into

	parents := m.parents[from]
	delete(m.parents, from)
	for _, e := range parents {
		m.rehash(e)
	}
	m.parents[into] = append(m.parents[into], parents...)
	return true
}

// MemoryEstimate returns a rough estimate of the memo's memory usage, in
// bytes.
func (m *Memo) MemoryEstimate() int64 {
	const (
		groupSize   = int64(unsafe.Sizeof(Group{}))
		exprSize    = int64(unsafe.Sizeof(GroupExpr{}))
		groupIDSize = int64(unsafe.Sizeof(opt.GroupID(0)))
		pointerSize = int64(unsafe.Sizeof((*GroupExpr)(nil)))
	)
	size := int64(len(m.groups)) * (groupSize + pointerSize)
	for _, bucket := range m.exprMap {
		for _, e := range bucket {
			size += exprSize + 2*pointerSize + int64(len(e.children))*groupIDSize
		}
	}
	return size
}
