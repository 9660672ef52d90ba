// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ops

import (
	"bytes"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/cat"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
)

// SeqScan reads every row of a table in storage order.
type SeqScan struct {
	physicalContent
	TableScanPrivate
}

// NewSeqScan returns a SeqScan of the given table.
func NewSeqScan(table cat.TableRef, alias string) *SeqScan {
	return &SeqScan{TableScanPrivate: TableScanPrivate{Table: table, Alias: alias}}
}

// Op is part of the opt.Content interface.
func (c *SeqScan) Op() opt.Operator { return opt.SeqScanOp }

// Equals is part of the opt.Content interface.
func (c *SeqScan) Equals(other opt.Content) bool {
	o, ok := other.(*SeqScan)
	return ok && c.TableScanPrivate.equals(&o.TableScanPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *SeqScan) FormatPrivate(buf *bytes.Buffer) { c.TableScanPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *SeqScan) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitSeqScan(c)
		return
	}
	v.VisitDefault(c)
}

// ExternalFileScan reads every row of an external file.
type ExternalFileScan struct {
	physicalContent
	FilePrivate
}

// NewExternalFileScan returns an ExternalFileScan of the given file.
func NewExternalFileScan(path, format string) *ExternalFileScan {
	return &ExternalFileScan{FilePrivate: FilePrivate{Path: path, Format: format}}
}

// Op is part of the opt.Content interface.
func (c *ExternalFileScan) Op() opt.Operator { return opt.ExternalFileScanOp }

// Equals is part of the opt.Content interface.
func (c *ExternalFileScan) Equals(other opt.Content) bool {
	o, ok := other.(*ExternalFileScan)
	return ok && c.FilePrivate == o.FilePrivate
}

// FormatPrivate is part of the opt.Content interface.
func (c *ExternalFileScan) FormatPrivate(buf *bytes.Buffer) { c.FilePrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *ExternalFileScan) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitExternalFileScan(c)
		return
	}
	v.VisitDefault(c)
}

// HashJoin builds a hash table on its right child and looks up the
// rows of its left child in it.
type HashJoin struct {
	physicalContent
	JoinPrivate
}

// NewHashJoin returns a HashJoin with the given ON condition.
func NewHashJoin(on tree.Expr) *HashJoin {
	return &HashJoin{JoinPrivate: JoinPrivate{On: on}}
}

// Op is part of the opt.Content interface.
func (c *HashJoin) Op() opt.Operator { return opt.HashJoinOp }

// Equals is part of the opt.Content interface.
func (c *HashJoin) Equals(other opt.Content) bool {
	o, ok := other.(*HashJoin)
	return ok && c.JoinPrivate.equals(&o.JoinPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *HashJoin) FormatPrivate(buf *bytes.Buffer) { c.JoinPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *HashJoin) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitHashJoin(c)
		return
	}
	v.VisitDefault(c)
}

// NestedLoopJoin rescans its right child once for every row of its left
// child.
type NestedLoopJoin struct {
	physicalContent
	JoinPrivate
}

// NewNestedLoopJoin returns a NestedLoopJoin with the given ON condition.
func NewNestedLoopJoin(on tree.Expr) *NestedLoopJoin {
	return &NestedLoopJoin{JoinPrivate: JoinPrivate{On: on}}
}

// Op is part of the opt.Content interface.
func (c *NestedLoopJoin) Op() opt.Operator { return opt.NestedLoopJoinOp }

// Equals is part of the opt.Content interface.
func (c *NestedLoopJoin) Equals(other opt.Content) bool {
	o, ok := other.(*NestedLoopJoin)
	return ok && c.JoinPrivate.equals(&o.JoinPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *NestedLoopJoin) FormatPrivate(buf *bytes.Buffer) { c.JoinPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *NestedLoopJoin) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitNestedLoopJoin(c)
		return
	}
	v.VisitDefault(c)
}

// PhysicalFilter evaluates its predicate on each input row.
type PhysicalFilter struct {
	physicalContent
	FilterPrivate
}

// NewPhysicalFilter returns a PhysicalFilter with the given predicate.
func NewPhysicalFilter(predicate tree.Expr) *PhysicalFilter {
	return &PhysicalFilter{FilterPrivate: FilterPrivate{Predicate: predicate}}
}

// Op is part of the opt.Content interface.
func (c *PhysicalFilter) Op() opt.Operator { return opt.PhysicalFilterOp }

// Equals is part of the opt.Content interface.
func (c *PhysicalFilter) Equals(other opt.Content) bool {
	o, ok := other.(*PhysicalFilter)
	return ok && exprsEqual(c.Predicate, o.Predicate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *PhysicalFilter) FormatPrivate(buf *bytes.Buffer) { c.FilterPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *PhysicalFilter) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitPhysicalFilter(c)
		return
	}
	v.VisitDefault(c)
}

// PhysicalProject computes its output columns on each input row.
type PhysicalProject struct {
	physicalContent
	ProjectPrivate
}

// NewPhysicalProject returns a PhysicalProject of the given columns.
func NewPhysicalProject(columns ...string) *PhysicalProject {
	return &PhysicalProject{ProjectPrivate: ProjectPrivate{Columns: columns}}
}

// Op is part of the opt.Content interface.
func (c *PhysicalProject) Op() opt.Operator { return opt.PhysicalProjectOp }

// Equals is part of the opt.Content interface.
func (c *PhysicalProject) Equals(other opt.Content) bool {
	o, ok := other.(*PhysicalProject)
	return ok && c.ProjectPrivate.equals(&o.ProjectPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *PhysicalProject) FormatPrivate(buf *bytes.Buffer) { c.ProjectPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *PhysicalProject) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitPhysicalProject(c)
		return
	}
	v.VisitDefault(c)
}

// PhysicalLimit stops reading its input after Count rows.
type PhysicalLimit struct {
	physicalContent
	LimitPrivate
}

// NewPhysicalLimit returns a PhysicalLimit of the given row count.
func NewPhysicalLimit(count int64) *PhysicalLimit {
	return &PhysicalLimit{LimitPrivate: LimitPrivate{Count: count}}
}

// Op is part of the opt.Content interface.
func (c *PhysicalLimit) Op() opt.Operator { return opt.PhysicalLimitOp }

// Equals is part of the opt.Content interface.
func (c *PhysicalLimit) Equals(other opt.Content) bool {
	o, ok := other.(*PhysicalLimit)
	return ok && c.LimitPrivate == o.LimitPrivate
}

// FormatPrivate is part of the opt.Content interface.
func (c *PhysicalLimit) FormatPrivate(buf *bytes.Buffer) { c.LimitPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *PhysicalLimit) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitPhysicalLimit(c)
		return
	}
	v.VisitDefault(c)
}

// TableFreeScan produces a single row with no columns.
type TableFreeScan struct {
	physicalContent
}

// Op is part of the opt.Content interface.
func (c *TableFreeScan) Op() opt.Operator { return opt.TableFreeScanOp }

// Equals is part of the opt.Content interface.
func (c *TableFreeScan) Equals(other opt.Content) bool {
	_, ok := other.(*TableFreeScan)
	return ok
}

// FormatPrivate is part of the opt.Content interface.
func (c *TableFreeScan) FormatPrivate(*bytes.Buffer) {}

// Accept is part of the opt.Content interface.
func (c *TableFreeScan) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitTableFreeScan(c)
		return
	}
	v.VisitDefault(c)
}
