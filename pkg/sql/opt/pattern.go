// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import "strings"

// Pattern is a tree-shaped template that a rule matches against memo
// expressions. Each level names an operator, LeafOp (match any group without
// expanding it) or WildcardOp (match any operator). A non-leaf pattern
// matches only expressions that have exactly as many children as it does.
type Pattern struct {
	op       Operator
	children []*Pattern
}

// NewPattern returns a pattern for the given operator and children.
func NewPattern(op Operator, children ...*Pattern) *Pattern {
	return &Pattern{op: op, children: children}
}

// NewLeafPattern is shorthand for NewPattern(LeafOp).
func NewLeafPattern() *Pattern {
	return &Pattern{op: LeafOp}
}

// AddChild appends a child pattern and returns the receiver.
func (p *Pattern) AddChild(child *Pattern) *Pattern {
	p.children = append(p.children, child)
	return p
}

// Op returns the pattern's operator.
func (p *Pattern) Op() Operator {
	return p.op
}

// Children returns the child patterns. The returned slice must not be
// modified.
func (p *Pattern) Children() []*Pattern {
	return p.children
}

// Child returns the nth child pattern.
func (p *Pattern) Child(nth int) *Pattern {
	return p.children[nth]
}

// ChildCount returns the number of child patterns.
func (p *Pattern) ChildCount() int {
	return len(p.children)
}

// IsLeaf returns true if the pattern matches a whole group.
func (p *Pattern) IsLeaf() bool {
	return p.op == LeafOp
}

// IsWildcard returns true if the pattern matches any operator.
func (p *Pattern) IsWildcard() bool {
	return p.op == WildcardOp
}

// Matches returns true if an expression with the given operator satisfies the
// root of the pattern. Child structure is not considered.
func (p *Pattern) Matches(op Operator) bool {
	return p.op == LeafOp || p.op == WildcardOp || p.op == op
}

// String returns the pattern in parenthesized form, e.g.
// "(inner-join (leaf) (leaf))".
func (p *Pattern) String() string {
	var sb strings.Builder
	p.format(&sb)
	return sb.String()
}

func (p *Pattern) format(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(p.op.String())
	for _, c := range p.children {
		sb.WriteByte(' ')
		c.format(sb)
	}
	sb.WriteByte(')')
}
