// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestOperator(t *testing.T) {
	for op := UnknownOp + 1; op < NumOperators; op++ {
		name := op.String()
		require.NotEmpty(t, name)
		found, ok := OperatorByName(name)
		require.True(t, ok, name)
		require.Equal(t, op, found)

		if op == LeafOp || op == WildcardOp {
			require.True(t, op.IsLogical())
			continue
		}
		require.NotEqual(t, op.IsLogical(), op.IsPhysical(), name)
	}

	_, ok := OperatorByName("sort")
	require.False(t, ok)
	require.False(t, UnknownOp.IsLogical())
	require.False(t, UnknownOp.IsPhysical())
	require.Equal(t, "operator(200)", Operator(200).String())

	require.True(t, EqOp.IsComparison())
	require.True(t, GeOp.IsComparison())
	require.False(t, AndOp.IsComparison())
	require.True(t, DivOp.IsArithmetic())
	require.True(t, ConstOp.IsScalar())
	require.False(t, GetOp.IsScalar())
}

func TestSafeFormatting(t *testing.T) {
	s := redact.Sprintf("applied %s to G%d", InnerJoinOp, GroupID(3))
	require.Equal(t, redact.RedactableString("applied inner-join to G3"), s)
}
