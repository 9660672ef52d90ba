// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"bytes"
	"fmt"
)

// Content is the payload of an optimizer node or a group expression. It
// identifies the operator and carries whatever private data the operator
// needs (a table reference, a constant, a limit count). Child structure is
// not part of the content; it lives in the Node or GroupExpr that holds it.
//
// Content is immutable once constructed, so the same value may be shared by
// any number of nodes, copies of nodes, and memo expressions.
type Content interface {
	// Op returns the operator kind of the content.
	Op() Operator

	// IsLogical and IsPhysical report the class of the content. Exactly one of
	// them returns true.
	IsLogical() bool
	IsPhysical() bool

	// Equals returns true if other has the same kind and the same private
	// payload. It does not look at children.
	Equals(other Content) bool

	// FormatPrivate writes the private payload of the content, if any. Two
	// contents that are Equal must format identically, since the output is
	// also fed into the memo's fingerprint.
	FormatPrivate(buf *bytes.Buffer)

	// Accept dispatches to the Visitor method for the concrete content kind.
	Accept(v Visitor)
}

// Visitor is the minimal visitor interface that every content kind can
// dispatch to. Packages that define concrete content kinds extend it with a
// method per kind; contents fall back to VisitDefault when the visitor does
// not implement the extended interface.
type Visitor interface {
	VisitDefault(c Content)
}

// ContentsEqual returns true if both contents are nil, or if both are
// non-nil and equal.
func ContentsEqual(a, b Content) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Op() == b.Op() && a.Equals(b)
}

// LeafContent stands in for an entire group. It is produced by binding a
// LeafOp pattern and never carries children: rules that receive it either pass
// it through to their output unchanged or ask which group it refers to.
type LeafContent struct {
	group GroupID
}

var _ Content = &LeafContent{}

// NewLeafContent returns a placeholder for the given group.
func NewLeafContent(group GroupID) *LeafContent {
	return &LeafContent{group: group}
}

// OriginGroup returns the group the placeholder refers to.
func (l *LeafContent) OriginGroup() GroupID {
	return l.group
}

// Op is part of the Content interface.
func (l *LeafContent) Op() Operator { return LeafOp }

// IsLogical is part of the Content interface.
func (l *LeafContent) IsLogical() bool { return true }

// IsPhysical is part of the Content interface.
func (l *LeafContent) IsPhysical() bool { return false }

// Equals is part of the Content interface.
func (l *LeafContent) Equals(other Content) bool {
	o, ok := other.(*LeafContent)
	return ok && o.group == l.group
}

// FormatPrivate is part of the Content interface.
func (l *LeafContent) FormatPrivate(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "G%d", l.group)
}

// Accept is part of the Content interface.
func (l *LeafContent) Accept(v Visitor) {
	v.VisitDefault(l)
}
