// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"math"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
)

// Cost is the best-effort estimate of the resources needed to execute a
// physical expression and its inputs. Lower is better.
type Cost float64

// MaxCost is greater than the cost of any valid plan.
const MaxCost = Cost(math.MaxFloat64)

// Group is a set of logically equivalent expressions. Every member, when
// expanded, produces the same result set. The memo creates a group the first
// time it sees a structurally novel expression, and afterwards groups only
// ever grow.
type Group struct {
	id opt.GroupID

	// logical and physical hold the members of the group in the order they
	// were added.
	logical  []*GroupExpr
	physical []*GroupExpr

	// explored is set once every exploration rule has been applied to every
	// logical member.
	explored bool

	// optimized is set once the best physical member has been chosen.
	optimized bool

	// rep is the logical member picked to stand for the group when a
	// concrete tree is rebuilt from the memo. It defaults to the first
	// logical member.
	rep *GroupExpr

	// mergedInto is set when the group has been found to be equivalent to
	// another, older group. All lookups of this group's id are redirected.
	mergedInto opt.GroupID

	best     *GroupExpr
	bestCost Cost
}

// ID returns the group's identity.
func (g *Group) ID() opt.GroupID {
	return g.id
}

// LogicalExprs returns the logical members of the group, in insertion order.
// The returned slice must not be modified.
func (g *Group) LogicalExprs() []*GroupExpr {
	return g.logical
}

// PhysicalExprs returns the physical members of the group, in insertion
// order. The returned slice must not be modified.
func (g *Group) PhysicalExprs() []*GroupExpr {
	return g.physical
}

// ExprCount returns the total number of members in the group.
func (g *Group) ExprCount() int {
	return len(g.logical) + len(g.physical)
}

// Explored returns true if exploration of the group has completed.
func (g *Group) Explored() bool {
	return g.explored
}

// SetExplored marks exploration of the group as complete.
func (g *Group) SetExplored() {
	g.explored = true
}

// Optimized returns true if the best physical member has been chosen.
func (g *Group) Optimized() bool {
	return g.optimized
}

// SetOptimized marks the group as optimized.
func (g *Group) SetOptimized() {
	g.optimized = true
}

// Representative returns the member used to rebuild a concrete tree from the
// group, or nil if the group has no logical members.
func (g *Group) Representative() *GroupExpr {
	return g.rep
}

// SetRepresentative picks the member used to rebuild a concrete tree. The
// expression must be a logical member of the group.
func (g *Group) SetRepresentative(e *GroupExpr) {
	g.rep = e
}

// MergedInto returns the group this group was merged into, or
// opt.UndefinedGroup.
func (g *Group) MergedInto() opt.GroupID {
	return g.mergedInto
}

// BestExpr returns the cheapest physical member found so far and its cost,
// or nil if none has been costed yet.
func (g *Group) BestExpr() (*GroupExpr, Cost) {
	return g.best, g.bestCost
}

// SetBestExpr records e as the best physical member if it is cheaper than
// the current best. It returns true if e became the best.
func (g *Group) SetBestExpr(e *GroupExpr, cost Cost) bool {
	if g.best != nil && cost >= g.bestCost {
		return false
	}
	g.best, g.bestCost = e, cost
	return true
}

func (g *Group) addExpr(e *GroupExpr) {
	e.group = g.id
	if e.IsPhysical() {
		g.physical = append(g.physical, e)
		return
	}
	g.logical = append(g.logical, e)
	if g.rep == nil {
		g.rep = e
	}
}
