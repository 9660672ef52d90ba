// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
)

// BindMode controls which members of a child group a binding iterator
// expands.
type BindMode uint8

const (
	// BindAll expands every logical member of each child group, producing
	// the cartesian product of their bindings.
	BindAll BindMode = iota

	// BindRepresentative expands only the representative member of each
	// child group. The rewriter uses it, since it only ever rebuilds a tree
	// from representatives.
	BindRepresentative
)

// GroupExprBindingIterator enumerates the bindings of a pattern against one
// memo expression. A binding is a node tree shaped like the pattern: each
// pattern level is materialized from a member of the corresponding group,
// except that a LeafOp pattern level becomes a leaf placeholder for the whole
// group.
//
// Bindings are produced on demand, in nested-loop order over the children:
// for a fixed binding of child i, every binding of children i+1..n is produced
// before child i advances. Physical members are never bound. When the pattern
// root does not match the expression, or has a different number of children,
// the iterator is empty.
//
// Each group's member list is captured when the iterator over that group is
// started, so rules may add members to groups while bindings are being
// enumerated; members added later are not visited by iterators already
// started over the group.
type GroupExprBindingIterator struct {
	mem     *Memo
	expr    *GroupExpr
	pattern *opt.Pattern

	children []GroupBindingIterator
	current  []*opt.Node

	// hasBinding is true when current holds a binding that has not been
	// returned yet.
	hasBinding bool

	// checked is true when HasNext returned true and Next has not been called
	// since.
	checked bool
}

// NewGroupExprBindingIterator returns an iterator over the bindings of pattern
// against expr.
func NewGroupExprBindingIterator(
	mem *Memo, expr *GroupExpr, pattern *opt.Pattern, mode BindMode,
) *GroupExprBindingIterator {
	it := &GroupExprBindingIterator{}
	it.init(mem, expr, pattern, mode)
	return it
}

func (it *GroupExprBindingIterator) init(
	mem *Memo, expr *GroupExpr, pattern *opt.Pattern, mode BindMode,
) {
	*it = GroupExprBindingIterator{mem: mem, expr: expr, pattern: pattern}
	if pattern.IsLeaf() {
		it.hasBinding = true
		return
	}
	if expr.IsPhysical() || !pattern.Matches(expr.Op()) || pattern.ChildCount() != expr.ChildCount() {
		return
	}

	n := pattern.ChildCount()
	it.children = make([]GroupBindingIterator, n)
	it.current = make([]*opt.Node, n)
	for i := 0; i < n; i++ {
		child := &it.children[i]
		child.init(mem, expr.ChildGroup(i), pattern.Child(i), mode)
		if !child.HasNext() {
			return
		}
		it.current[i] = child.Next()
	}
	it.hasBinding = true
}

// HasNext returns true if Next will return another binding.
func (it *GroupExprBindingIterator) HasNext() bool {
	it.checked = it.hasBinding
	return it.hasBinding
}

// Next returns the next binding. It panics unless the preceding call on the
// iterator was a HasNext that returned true.
func (it *GroupExprBindingIterator) Next() *opt.Node {
	if !it.checked {
		panic(errors.AssertionFailedf("binding iterator advanced without a pending binding"))
	}
	it.checked = false

	if it.pattern.IsLeaf() {
		it.hasBinding = false
		return opt.NewLeafNode(it.mem.ResolveGroupID(it.expr.group))
	}

	var children []*opt.Node
	if len(it.current) > 0 {
		children = make([]*opt.Node, len(it.current))
		copy(children, it.current)
	}
	binding := opt.NewNode(it.expr.content, children...)
	it.advance()
	return binding
}

// advance moves to the next combination of child bindings. The rightmost child
// that has more bindings advances, and every child to its right restarts.
func (it *GroupExprBindingIterator) advance() {
	for i := len(it.children) - 1; i >= 0; i-- {
		if !it.children[i].HasNext() {
			continue
		}
		it.current[i] = it.children[i].Next()
		for j := i + 1; j < len(it.children); j++ {
			it.children[j].restart()
			if !it.children[j].HasNext() {
				it.hasBinding = false
				return
			}
			it.current[j] = it.children[j].Next()
		}
		return
	}
	it.hasBinding = false
}

// GroupBindingIterator enumerates the bindings of a pattern against every
// member of a group, one member after another. See GroupExprBindingIterator
// for the shape and order of the bindings.
type GroupBindingIterator struct {
	mem     *Memo
	group   opt.GroupID
	pattern *opt.Pattern
	mode    BindMode

	members []*GroupExpr
	nextIdx int
	curr    GroupExprBindingIterator
	started bool

	// leafDone is set once the single binding of a LeafOp pattern has been
	// returned.
	leafDone bool
	checked  bool
}

// NewGroupBindingIterator returns an iterator over the bindings of pattern
// against the members of the given group.
func NewGroupBindingIterator(
	mem *Memo, group opt.GroupID, pattern *opt.Pattern, mode BindMode,
) *GroupBindingIterator {
	it := &GroupBindingIterator{}
	it.init(mem, group, pattern, mode)
	return it
}

func (it *GroupBindingIterator) init(
	mem *Memo, group opt.GroupID, pattern *opt.Pattern, mode BindMode,
) {
	*it = GroupBindingIterator{
		mem:     mem,
		group:   mem.ResolveGroupID(group),
		pattern: pattern,
		mode:    mode,
	}
	it.restart()
}

// restart rewinds the iterator to the first member of the group, capturing
// the group's current member list.
func (it *GroupBindingIterator) restart() {
	it.nextIdx = 0
	it.started = false
	it.leafDone = false
	it.checked = false
	if it.pattern.IsLeaf() {
		it.members = nil
		return
	}

	g := it.mem.Group(it.group)
	switch it.mode {
	case BindRepresentative:
		it.members = it.members[:0]
		if g.rep != nil {
			it.members = append(it.members, g.rep)
		}
	default:
		it.members = g.logical[:len(g.logical):len(g.logical)]
	}
}

// HasNext returns true if Next will return another binding.
func (it *GroupBindingIterator) HasNext() bool {
	if it.pattern.IsLeaf() {
		it.checked = !it.leafDone
		return it.checked
	}
	for {
		if it.started && it.curr.HasNext() {
			it.checked = true
			return true
		}
		if it.nextIdx >= len(it.members) {
			it.checked = false
			return false
		}
		it.curr.init(it.mem, it.members[it.nextIdx], it.pattern, it.mode)
		it.started = true
		it.nextIdx++
	}
}

// Next returns the next binding. It panics unless the preceding call on the
// iterator was a HasNext that returned true.
func (it *GroupBindingIterator) Next() *opt.Node {
	if !it.checked {
		panic(errors.AssertionFailedf("binding iterator advanced without a pending binding"))
	}
	it.checked = false
	if it.pattern.IsLeaf() {
		it.leafDone = true
		return opt.NewLeafNode(it.group)
	}
	return it.curr.Next()
}
