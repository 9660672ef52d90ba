// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import "fmt"

// Operator describes the type of operation that a node's content performs.
// Some operators are relational (logical or physical plan operators) and some
// are scalar (expression operators that are only used by the rewriter).
type Operator uint8

const (
	// UnknownOp is the zero value and never appears in a valid node.
	UnknownOp Operator = iota

	// -- Logical relational operators --

	// GetOp reads all rows of a table.
	GetOp
	// ExternalFileGetOp reads rows from a file outside the catalog.
	ExternalFileGetOp
	// InnerJoinOp joins two inputs, keeping the rows that satisfy its
	// predicate.
	InnerJoinOp
	// FilterOp keeps the input rows that satisfy a predicate.
	FilterOp
	// ProjectOp computes a list of output expressions from its input.
	ProjectOp
	// LimitOp returns at most N rows of its input.
	LimitOp

	// -- Physical relational operators --

	SeqScanOp
	ExternalFileScanOp
	HashJoinOp
	NestedLoopJoinOp
	PhysicalFilterOp
	PhysicalProjectOp
	PhysicalLimitOp
	// TableFreeScanOp produces a single empty row; it has no logical
	// counterpart.
	TableFreeScanOp

	// -- Scalar operators --

	// ConstOp is a leaf expression that has a constant value.
	ConstOp
	// VariableOp is a leaf expression that refers to a column by name.
	VariableOp

	EqOp
	NeOp
	LtOp
	LeOp
	GtOp
	GeOp

	AndOp
	OrOp
	NotOp

	PlusOp
	MinusOp
	MultOp
	DivOp

	// -- Pattern operators --

	// LeafOp matches any group without expanding it. A binding produced for a
	// LeafOp pattern carries only the identity of the matched group.
	LeafOp
	// WildcardOp matches an expression of any kind, but unlike LeafOp the
	// pattern's children must still match the expression's children.
	WildcardOp

	// NumOperators tracks the total count of operators.
	NumOperators
)

type operatorClass uint8

const (
	unknownClass operatorClass = iota
	logicalClass
	physicalClass
	scalarClass
	patternClass
)

type operatorInfo struct {
	name  string
	class operatorClass
}

// operatorTab stores static information about all operators.
var operatorTab = [NumOperators]operatorInfo{
	UnknownOp: {name: "unknown"},

	GetOp:             {name: "get", class: logicalClass},
	ExternalFileGetOp: {name: "external-file-get", class: logicalClass},
	InnerJoinOp:       {name: "inner-join", class: logicalClass},
	FilterOp:          {name: "filter", class: logicalClass},
	ProjectOp:         {name: "project", class: logicalClass},
	LimitOp:           {name: "limit", class: logicalClass},

	SeqScanOp:          {name: "seq-scan", class: physicalClass},
	ExternalFileScanOp: {name: "external-file-scan", class: physicalClass},
	HashJoinOp:         {name: "hash-join", class: physicalClass},
	NestedLoopJoinOp:   {name: "nested-loop-join", class: physicalClass},
	PhysicalFilterOp:   {name: "physical-filter", class: physicalClass},
	PhysicalProjectOp:  {name: "physical-project", class: physicalClass},
	PhysicalLimitOp:    {name: "physical-limit", class: physicalClass},
	TableFreeScanOp:    {name: "table-free-scan", class: physicalClass},

	ConstOp:    {name: "const", class: scalarClass},
	VariableOp: {name: "variable", class: scalarClass},
	EqOp:       {name: "eq", class: scalarClass},
	NeOp:       {name: "ne", class: scalarClass},
	LtOp:       {name: "lt", class: scalarClass},
	LeOp:       {name: "le", class: scalarClass},
	GtOp:       {name: "gt", class: scalarClass},
	GeOp:       {name: "ge", class: scalarClass},
	AndOp:      {name: "and", class: scalarClass},
	OrOp:       {name: "or", class: scalarClass},
	NotOp:      {name: "not", class: scalarClass},
	PlusOp:     {name: "plus", class: scalarClass},
	MinusOp:    {name: "minus", class: scalarClass},
	MultOp:     {name: "mult", class: scalarClass},
	DivOp:      {name: "div", class: scalarClass},

	LeafOp:     {name: "leaf", class: patternClass},
	WildcardOp: {name: "wildcard", class: patternClass},
}

var operatorsByName map[string]Operator

func init() {
	operatorsByName = make(map[string]Operator, NumOperators)
	for op := UnknownOp + 1; op < NumOperators; op++ {
		operatorsByName[operatorTab[op].name] = op
	}
}

func (op Operator) String() string {
	if op >= NumOperators {
		return fmt.Sprintf("operator(%d)", op)
	}
	return operatorTab[op].name
}

// SafeValue implements the redact.SafeValue interface.
func (Operator) SafeValue() {}

// OperatorByName returns the operator with the given name, as printed by
// Operator.String.
func OperatorByName(name string) (Operator, bool) {
	op, ok := operatorsByName[name]
	return op, ok
}

// IsPhysical returns true if the operator is a physical relational operator
// that can be executed directly.
func (op Operator) IsPhysical() bool {
	return op < NumOperators && operatorTab[op].class == physicalClass
}

// IsLogical returns true for every operator that describes what to compute
// rather than how: logical relational operators, scalar operators, and the
// pattern operators that stand in for them.
func (op Operator) IsLogical() bool {
	if op >= NumOperators {
		return false
	}
	switch operatorTab[op].class {
	case logicalClass, scalarClass, patternClass:
		return true
	}
	return false
}

// IsScalar returns true if the operator is a scalar expression operator.
func (op Operator) IsScalar() bool {
	return op < NumOperators && operatorTab[op].class == scalarClass
}

// IsComparison returns true if the operator compares two scalar values.
func (op Operator) IsComparison() bool {
	return op >= EqOp && op <= GeOp
}

// IsArithmetic returns true if the operator is a binary arithmetic operator.
func (op Operator) IsArithmetic() bool {
	return op >= PlusOp && op <= DivOp
}
