// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package ops contains the concrete node contents understood by the
// optimizer: logical and physical relational operators, and the scalar
// operators used by the rewriter.
package ops

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/cat"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
)

type logicalContent struct{}

// IsLogical is part of the opt.Content interface.
func (logicalContent) IsLogical() bool { return true }

// IsPhysical is part of the opt.Content interface.
func (logicalContent) IsPhysical() bool { return false }

type physicalContent struct{}

// IsLogical is part of the opt.Content interface.
func (physicalContent) IsLogical() bool { return false }

// IsPhysical is part of the opt.Content interface.
func (physicalContent) IsPhysical() bool { return true }

// TableScanPrivate identifies the table read by Get and SeqScan. Predicate,
// if not nil, is the conjunction of the conditions pushed into the scan, and
// ForUpdate marks a scan that locks the rows it reads.
type TableScanPrivate struct {
	Table     cat.TableRef
	Alias     string
	Predicate tree.Expr
	ForUpdate bool
}

func (p *TableScanPrivate) format(buf *bytes.Buffer) {
	buf.WriteString(p.Table.String())
	if p.Alias != "" {
		buf.WriteByte(' ')
		buf.WriteString(p.Alias)
	}
	if p.Predicate != nil {
		buf.WriteString(" pred=(")
		p.Predicate.Format(buf)
		buf.WriteByte(')')
	}
	if p.ForUpdate {
		buf.WriteString(" for-update")
	}
}

func (p *TableScanPrivate) equals(o *TableScanPrivate) bool {
	return p.Table == o.Table && p.Alias == o.Alias && p.ForUpdate == o.ForUpdate &&
		exprsEqual(p.Predicate, o.Predicate)
}

// FilePrivate identifies the file read by ExternalFileGet and
// ExternalFileScan.
type FilePrivate struct {
	Path   string
	Format string
}

func (p *FilePrivate) format(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%q", p.Path)
	if p.Format != "" {
		fmt.Fprintf(buf, " format=%s", p.Format)
	}
}

// JoinPrivate holds the ON condition of a join, which is nil for a cross
// join.
type JoinPrivate struct {
	On tree.Expr
}

func (p *JoinPrivate) format(buf *bytes.Buffer) {
	if p.On != nil {
		buf.WriteString("on=(")
		p.On.Format(buf)
		buf.WriteByte(')')
	}
}

func (p *JoinPrivate) equals(o *JoinPrivate) bool {
	return exprsEqual(p.On, o.On)
}

// FilterPrivate holds the predicate of a filter.
type FilterPrivate struct {
	Predicate tree.Expr
}

func (p *FilterPrivate) format(buf *bytes.Buffer) {
	if p.Predicate != nil {
		buf.WriteByte('(')
		p.Predicate.Format(buf)
		buf.WriteByte(')')
	}
}

// ProjectPrivate holds the names of the projected columns.
type ProjectPrivate struct {
	Columns []string
}

func (p *ProjectPrivate) format(buf *bytes.Buffer) {
	buf.WriteByte('[')
	buf.WriteString(strings.Join(p.Columns, ","))
	buf.WriteByte(']')
}

func (p *ProjectPrivate) equals(o *ProjectPrivate) bool {
	if len(p.Columns) != len(o.Columns) {
		return false
	}
	for i := range p.Columns {
		if p.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}

// LimitPrivate holds the row count of a limit.
type LimitPrivate struct {
	Count int64
}

func (p *LimitPrivate) format(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%d", p.Count)
}

func exprsEqual(a, b tree.Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return tree.AsString(a) == tree.AsString(b)
}

// -- Logical operators --

// Get reads every row of a catalog table.
type Get struct {
	logicalContent
	TableScanPrivate
}

// NewGet returns a Get of the given table.
func NewGet(table cat.TableRef, alias string) *Get {
	return &Get{TableScanPrivate: TableScanPrivate{Table: table, Alias: alias}}
}

// Op is part of the opt.Content interface.
func (c *Get) Op() opt.Operator { return opt.GetOp }

// Equals is part of the opt.Content interface.
func (c *Get) Equals(other opt.Content) bool {
	o, ok := other.(*Get)
	return ok && c.TableScanPrivate.equals(&o.TableScanPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *Get) FormatPrivate(buf *bytes.Buffer) { c.TableScanPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *Get) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitGet(c)
		return
	}
	v.VisitDefault(c)
}

// ExternalFileGet reads every row of a file that is not in the catalog.
type ExternalFileGet struct {
	logicalContent
	FilePrivate
}

// NewExternalFileGet returns an ExternalFileGet of the given file.
func NewExternalFileGet(path, format string) *ExternalFileGet {
	return &ExternalFileGet{FilePrivate: FilePrivate{Path: path, Format: format}}
}

// Op is part of the opt.Content interface.
func (c *ExternalFileGet) Op() opt.Operator { return opt.ExternalFileGetOp }

// Equals is part of the opt.Content interface.
func (c *ExternalFileGet) Equals(other opt.Content) bool {
	o, ok := other.(*ExternalFileGet)
	return ok && c.FilePrivate == o.FilePrivate
}

// FormatPrivate is part of the opt.Content interface.
func (c *ExternalFileGet) FormatPrivate(buf *bytes.Buffer) { c.FilePrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *ExternalFileGet) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitExternalFileGet(c)
		return
	}
	v.VisitDefault(c)
}

// InnerJoin joins its two children. Its private ON condition may be nil.
type InnerJoin struct {
	logicalContent
	JoinPrivate
}

// NewInnerJoin returns an InnerJoin with the given ON condition.
func NewInnerJoin(on tree.Expr) *InnerJoin {
	return &InnerJoin{JoinPrivate: JoinPrivate{On: on}}
}

// Op is part of the opt.Content interface.
func (c *InnerJoin) Op() opt.Operator { return opt.InnerJoinOp }

// Equals is part of the opt.Content interface.
func (c *InnerJoin) Equals(other opt.Content) bool {
	o, ok := other.(*InnerJoin)
	return ok && c.JoinPrivate.equals(&o.JoinPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *InnerJoin) FormatPrivate(buf *bytes.Buffer) { c.JoinPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *InnerJoin) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitInnerJoin(c)
		return
	}
	v.VisitDefault(c)
}

// Filter keeps the rows of its only child that satisfy the predicate.
type Filter struct {
	logicalContent
	FilterPrivate
}

// NewFilter returns a Filter with the given predicate.
func NewFilter(predicate tree.Expr) *Filter {
	return &Filter{FilterPrivate: FilterPrivate{Predicate: predicate}}
}

// Op is part of the opt.Content interface.
func (c *Filter) Op() opt.Operator { return opt.FilterOp }

// Equals is part of the opt.Content interface.
func (c *Filter) Equals(other opt.Content) bool {
	o, ok := other.(*Filter)
	return ok && exprsEqual(c.Predicate, o.Predicate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *Filter) FormatPrivate(buf *bytes.Buffer) { c.FilterPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *Filter) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitFilter(c)
		return
	}
	v.VisitDefault(c)
}

// Project outputs the named columns of its only child.
type Project struct {
	logicalContent
	ProjectPrivate
}

// NewProject returns a Project of the given columns.
func NewProject(columns ...string) *Project {
	return &Project{ProjectPrivate: ProjectPrivate{Columns: columns}}
}

// Op is part of the opt.Content interface.
func (c *Project) Op() opt.Operator { return opt.ProjectOp }

// Equals is part of the opt.Content interface.
func (c *Project) Equals(other opt.Content) bool {
	o, ok := other.(*Project)
	return ok && c.ProjectPrivate.equals(&o.ProjectPrivate)
}

// FormatPrivate is part of the opt.Content interface.
func (c *Project) FormatPrivate(buf *bytes.Buffer) { c.ProjectPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *Project) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitProject(c)
		return
	}
	v.VisitDefault(c)
}

// Limit returns at most Count rows of its only child.
type Limit struct {
	logicalContent
	LimitPrivate
}

// NewLimit returns a Limit of the given row count.
func NewLimit(count int64) *Limit {
	return &Limit{LimitPrivate: LimitPrivate{Count: count}}
}

// Op is part of the opt.Content interface.
func (c *Limit) Op() opt.Operator { return opt.LimitOp }

// Equals is part of the opt.Content interface.
func (c *Limit) Equals(other opt.Content) bool {
	o, ok := other.(*Limit)
	return ok && c.LimitPrivate == o.LimitPrivate
}

// FormatPrivate is part of the opt.Content interface.
func (c *Limit) FormatPrivate(buf *bytes.Buffer) { c.LimitPrivate.format(buf) }

// Accept is part of the opt.Content interface.
func (c *Limit) Accept(v opt.Visitor) {
	if ov, ok := visitor(v); ok {
		ov.VisitLimit(c)
		return
	}
	v.VisitDefault(c)
}
