// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
)

// RuleID identifies a rule in the per-expression applied-rule set. Rule sets
// assign ids densely starting at zero.
type RuleID uint

// GroupExpr is one member of a group: a content whose children are groups
// rather than materialized subtrees. Different from a node, the child group
// references of a group expression never change once it is created; the only
// mutable state is the set of rules that have already been applied to it.
type GroupExpr struct {
	content  opt.Content
	children []opt.GroupID

	// group is the group this expression was added to.
	group opt.GroupID

	// hash is the fingerprint of content and children. The memo computes it
	// again over the resolved children when a child group is merged.
	hash uint64

	// applied records the rules that have already been applied to this
	// expression, so that no rule derives the same alternatives twice.
	applied bitset.BitSet
}

func newGroupExpr(content opt.Content, children []opt.GroupID) *GroupExpr {
	e := &GroupExpr{content: content, children: children}
	e.hash = fingerprint(content, children)
	return e
}

// Content returns the expression's content.
func (e *GroupExpr) Content() opt.Content {
	return e.content
}

// Op returns the operator of the expression's content.
func (e *GroupExpr) Op() opt.Operator {
	return e.content.Op()
}

// IsPhysical returns true if the expression is a physical plan alternative.
func (e *GroupExpr) IsPhysical() bool {
	return e.content.IsPhysical()
}

// ChildCount returns the number of child groups.
func (e *GroupExpr) ChildCount() int {
	return len(e.children)
}

// ChildGroup returns the id of the nth child group, as it was when the
// expression was recorded.
func (e *GroupExpr) ChildGroup(nth int) opt.GroupID {
	return e.children[nth]
}

// ChildGroups returns the ids of all child groups, in order. The returned
// slice must not be modified.
func (e *GroupExpr) ChildGroups() []opt.GroupID {
	return e.children
}

// Group returns the id of the group the expression belongs to. It is the id
// of the group that the expression was added to; use Memo.ResolveGroupID to
// account for groups merged since.
func (e *GroupExpr) Group() opt.GroupID {
	return e.group
}

// HasRuleApplied returns true if the rule has been applied to this
// expression.
func (e *GroupExpr) HasRuleApplied(rule RuleID) bool {
	return e.applied.Test(uint(rule))
}

// SetRuleApplied marks the rule as applied to this expression.
func (e *GroupExpr) SetRuleApplied(rule RuleID) {
	e.applied.Set(uint(rule))
}

// String returns the expression as "(op G1 G2 private)".
func (e *GroupExpr) String() string {
	var buf bytes.Buffer
	formatGroupExpr(&buf, e, func(id opt.GroupID) opt.GroupID { return id })
	return buf.String()
}

func formatGroupExpr(buf *bytes.Buffer, e *GroupExpr, number func(opt.GroupID) opt.GroupID) {
	fmt.Fprintf(buf, "(%s", e.content.Op())
	for _, c := range e.children {
		fmt.Fprintf(buf, " G%d", number(c))
	}
	mark := buf.Len()
	buf.WriteByte(' ')
	e.content.FormatPrivate(buf)
	if buf.Len() == mark+1 {
		buf.Truncate(mark)
	}
	buf.WriteByte(')')
}

// fingerprint hashes the operator, the private payload and the ordered child
// group ids. Contents that are Equal format their payload identically, so
// equal expressions always land in the same bucket.
func fingerprint(content opt.Content, children []opt.GroupID) uint64 {
	var buf bytes.Buffer
	buf.WriteByte(byte(content.Op()))
	content.FormatPrivate(&buf)
	buf.WriteByte(0)
	var id [4]byte
	for _, c := range children {
		binary.LittleEndian.PutUint32(id[:], uint32(c))
		buf.Write(id[:])
	}
	return xxhash.Sum64(buf.Bytes())
}
