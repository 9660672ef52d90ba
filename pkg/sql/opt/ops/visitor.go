// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ops

import "github.com/cockroachdb/optsearch/pkg/sql/opt"

// Visitor has one method per concrete content kind in this package. Contents
// dispatch to it when the opt.Visitor passed to Accept also implements
// Visitor, and to VisitDefault otherwise.
type Visitor interface {
	opt.Visitor

	VisitGet(c *Get)
	VisitExternalFileGet(c *ExternalFileGet)
	VisitInnerJoin(c *InnerJoin)
	VisitFilter(c *Filter)
	VisitProject(c *Project)
	VisitLimit(c *Limit)

	VisitSeqScan(c *SeqScan)
	VisitExternalFileScan(c *ExternalFileScan)
	VisitHashJoin(c *HashJoin)
	VisitNestedLoopJoin(c *NestedLoopJoin)
	VisitPhysicalFilter(c *PhysicalFilter)
	VisitPhysicalProject(c *PhysicalProject)
	VisitPhysicalLimit(c *PhysicalLimit)
	VisitTableFreeScan(c *TableFreeScan)

	VisitConst(c *Const)
	VisitVariable(c *Variable)
	VisitComparison(c *Comparison)
	VisitBoolean(c *Boolean)
	VisitNot(c *Not)
	VisitArithmetic(c *Arithmetic)
}

// DefaultVisitor implements every Visitor method as a no-op. Embed it to
// implement only the methods of interest.
type DefaultVisitor struct{}

var _ Visitor = DefaultVisitor{}

// VisitDefault is part of the opt.Visitor interface.
func (DefaultVisitor) VisitDefault(opt.Content) {}

func (DefaultVisitor) VisitGet(*Get)                           {}
func (DefaultVisitor) VisitExternalFileGet(*ExternalFileGet)   {}
func (DefaultVisitor) VisitInnerJoin(*InnerJoin)               {}
func (DefaultVisitor) VisitFilter(*Filter)                     {}
func (DefaultVisitor) VisitProject(*Project)                   {}
func (DefaultVisitor) VisitLimit(*Limit)                       {}
func (DefaultVisitor) VisitSeqScan(*SeqScan)                   {}
func (DefaultVisitor) VisitExternalFileScan(*ExternalFileScan) {}
func (DefaultVisitor) VisitHashJoin(*HashJoin)                 {}
func (DefaultVisitor) VisitNestedLoopJoin(*NestedLoopJoin)     {}
func (DefaultVisitor) VisitPhysicalFilter(*PhysicalFilter)     {}
func (DefaultVisitor) VisitPhysicalProject(*PhysicalProject)   {}
func (DefaultVisitor) VisitPhysicalLimit(*PhysicalLimit)       {}
func (DefaultVisitor) VisitTableFreeScan(*TableFreeScan)       {}
func (DefaultVisitor) VisitConst(*Const)                       {}
func (DefaultVisitor) VisitVariable(*Variable)                 {}
func (DefaultVisitor) VisitComparison(*Comparison)             {}
func (DefaultVisitor) VisitBoolean(*Boolean)                   {}
func (DefaultVisitor) VisitNot(*Not)                           {}
func (DefaultVisitor) VisitArithmetic(*Arithmetic)             {}

func visitor(v opt.Visitor) (Visitor, bool) {
	ov, ok := v.(Visitor)
	return ov, ok
}
