// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"math"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
)

// Coster estimates the cost of physical expressions. The search calls
// ComputeCost only once the best expression of every child group is known,
// so a coster may use the children's best costs.
type Coster interface {
	ComputeCost(e *memo.GroupExpr, m *memo.Memo) memo.Cost
}

// These factors are deliberately coarse. Without statistics, the row counts
// below are fixed guesses that only serve to rank alternatives.
const (
	defaultTableRows  = 1000
	defaultFileRows   = 10000
	filterSelectivity = 1.0 / 3
	joinSelectivity   = 0.1

	seqIOCostFactor  = 1
	fileIOCostFactor = 2
	cpuCostFactor    = 0.01
	hashBuildFactor  = 2
)

// DefaultCoster is a simple cost model based on guessed row counts. The cost
// of an expression is its own cost plus the best costs of its inputs.
type DefaultCoster struct{}

var _ Coster = DefaultCoster{}

// ComputeCost is part of the Coster interface.
func (DefaultCoster) ComputeCost(e *memo.GroupExpr, m *memo.Memo) memo.Cost {
	c := costCalculator{mem: m, expr: e}
	e.Content().Accept(&c)
	cost := c.cost
	for _, child := range e.ChildGroups() {
		_, childCost := m.Group(m.ResolveGroupID(child)).BestExpr()
		cost += childCost
	}
	return cost
}

// costCalculator computes the cost of a single operator, not counting its
// inputs.
type costCalculator struct {
	ops.DefaultVisitor
	mem  *memo.Memo
	expr *memo.GroupExpr
	cost memo.Cost
}

func (c *costCalculator) rows() float64 {
	return estimateRows(c.mem, c.expr.Group())
}

func (c *costCalculator) inputRows(nth int) float64 {
	return estimateRows(c.mem, c.expr.ChildGroup(nth))
}

func (c *costCalculator) VisitSeqScan(*ops.SeqScan) {
	c.cost = memo.Cost(c.rows() * seqIOCostFactor)
}

func (c *costCalculator) VisitExternalFileScan(*ops.ExternalFileScan) {
	c.cost = memo.Cost(c.rows() * fileIOCostFactor)
}

func (c *costCalculator) VisitTableFreeScan(*ops.TableFreeScan) {
	c.cost = cpuCostFactor
}

// VisitHashJoin builds a hash table on the right input and looks up the
// left input in it, so it is cheaper with the smaller input on the right.
func (c *costCalculator) VisitHashJoin(*ops.HashJoin) {
	left, right := c.inputRows(0), c.inputRows(1)
	c.cost = memo.Cost((left + right*hashBuildFactor + c.rows()) * cpuCostFactor)
}

func (c *costCalculator) VisitNestedLoopJoin(*ops.NestedLoopJoin) {
	left, right := c.inputRows(0), c.inputRows(1)
	c.cost = memo.Cost((left*right + c.rows()) * cpuCostFactor)
}

func (c *costCalculator) VisitPhysicalFilter(*ops.PhysicalFilter) {
	c.cost = memo.Cost(c.inputRows(0) * cpuCostFactor)
}

func (c *costCalculator) VisitPhysicalProject(*ops.PhysicalProject) {
	c.cost = memo.Cost(c.inputRows(0) * cpuCostFactor)
}

func (c *costCalculator) VisitPhysicalLimit(*ops.PhysicalLimit) {
	c.cost = memo.Cost(c.rows() * cpuCostFactor)
}

// estimateRows guesses the number of rows produced by the group, based on its
// representative logical expression.
func estimateRows(m *memo.Memo, id opt.GroupID) float64 {
	rep := m.Group(m.ResolveGroupID(id)).Representative()
	if rep == nil {
		return 1
	}
	switch t := rep.Content().(type) {
	case *ops.Get:
		return defaultTableRows
	case *ops.ExternalFileGet:
		return defaultFileRows
	case *ops.Filter:
		return estimateRows(m, rep.ChildGroup(0)) * filterSelectivity
	case *ops.Project:
		return estimateRows(m, rep.ChildGroup(0))
	case *ops.Limit:
		return math.Min(float64(t.Count), estimateRows(m, rep.ChildGroup(0)))
	case *ops.InnerJoin:
		rows := estimateRows(m, rep.ChildGroup(0)) * estimateRows(m, rep.ChildGroup(1))
		if t.On != nil {
			rows *= joinSelectivity
		}
		return rows
	}
	return 1
}
