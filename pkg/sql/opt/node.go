// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/util/treeprinter"
)

// Node is a plain expression tree: a content plus an ordered list of child
// nodes. Nodes are what callers hand to the memo for recording and what rules
// receive as bindings and return as results. A node owns its children; its
// content is shared.
type Node struct {
	content  Content
	children []*Node
}

// NewNode returns a node with the given content and children.
func NewNode(content Content, children ...*Node) *Node {
	return &Node{content: content, children: children}
}

// NewLeafNode returns a childless node whose content is a placeholder for the
// given group.
func NewLeafNode(group GroupID) *Node {
	return &Node{content: NewLeafContent(group)}
}

// Content returns the node's content, which is nil for an undefined node.
func (n *Node) Content() Content {
	if n == nil {
		return nil
	}
	return n.content
}

// IsDefined returns true if the node has content.
func (n *Node) IsDefined() bool {
	return n != nil && n.content != nil
}

// Op returns the operator of the node's content. It panics if the node is
// undefined.
func (n *Node) Op() Operator {
	n.mustBeDefined()
	return n.content.Op()
}

// ChildCount returns the number of children of the node.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Child returns the nth child of the node.
func (n *Node) Child(nth int) *Node {
	return n.children[nth]
}

// Children returns the node's children. The returned slice must not be
// modified.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Copy returns a deep copy of the tree rooted at n. The copy has the same
// shape as n and shares every content value with it.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{content: n.content}
	if len(n.children) > 0 {
		cp.children = make([]*Node, len(n.children))
		for i, c := range n.children {
			cp.children[i] = c.Copy()
		}
	}
	return cp
}

// Equals returns true if both trees have equal contents and equal children,
// in the same order. Two undefined nodes are equal to each other.
func (n *Node) Equals(other *Node) bool {
	if !n.IsDefined() || !other.IsDefined() {
		return !n.IsDefined() && !other.IsDefined()
	}
	if n == other {
		return true
	}
	if !ContentsEqual(n.content, other.content) {
		return false
	}
	if len(n.children) != len(other.children) {
		return false
	}
	for i := range n.children {
		if !n.children[i].Equals(other.children[i]) {
			return false
		}
	}
	return true
}

// Accept dispatches the node's content to the visitor. Children are not
// visited. It panics if the node is undefined.
func (n *Node) Accept(v Visitor) {
	n.mustBeDefined()
	n.content.Accept(v)
}

// String returns a multi-line rendering of the tree.
func (n *Node) String() string {
	tp := treeprinter.New()
	n.format(tp)
	return tp.String()
}

func (n *Node) format(tp treeprinter.Node) {
	if !n.IsDefined() {
		tp.Child("<undefined>")
		return
	}
	child := tp.Child(FormatContent(n.content))
	for _, c := range n.children {
		c.format(child)
	}
}

// FormatContent returns the operator name of the content followed by its
// private payload, if any.
func FormatContent(c Content) string {
	var buf bytes.Buffer
	buf.WriteString(c.Op().String())
	mark := buf.Len()
	buf.WriteByte(' ')
	c.FormatPrivate(&buf)
	if buf.Len() == mark+1 {
		buf.Truncate(mark)
	}
	return buf.String()
}

func (n *Node) mustBeDefined() {
	if !n.IsDefined() {
		panic(errors.AssertionFailedf("operation on an undefined optimizer node"))
	}
}
