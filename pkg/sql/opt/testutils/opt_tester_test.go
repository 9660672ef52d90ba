// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/stretchr/testify/require"
)

func TestOptTesterFlags(t *testing.T) {
	ot := NewOptTester()
	f := &ot.Flags

	require.NoError(t, f.Set(datadriven.CmdArg{Key: "format", Vals: []string{"raw", "show-best"}}))
	require.Equal(t, memo.FmtRaw|memo.FmtShowBest, f.MemoFormat)

	require.NoError(t, f.Set(datadriven.CmdArg{Key: "mode", Vals: []string{"representative"}}))
	require.Equal(t, memo.BindRepresentative, f.BindMode)

	require.NoError(t, f.Set(datadriven.CmdArg{Key: "disable", Vals: []string{"CommuteJoin", "MergeLimits"}}))
	require.Equal(t, []string{"CommuteJoin", "MergeLimits"}, f.Settings.DisabledRules)

	require.NoError(t, f.Set(datadriven.CmdArg{Key: "iterations", Vals: []string{"7"}}))
	require.Equal(t, 7, f.Settings.RewriteIterationLimit)

	require.NoError(t, f.Set(datadriven.CmdArg{Key: "show-memo"}))
	require.True(t, f.ShowMemo)

	for _, arg := range []datadriven.CmdArg{
		{Key: "format", Vals: []string{"fancy"}},
		{Key: "mode", Vals: []string{"some"}},
		{Key: "iterations", Vals: []string{"many"}},
		{Key: "iterations", Vals: []string{"0"}},
		{Key: "task-limit", Vals: []string{"-1"}},
		{Key: "unknown"},
	} {
		require.Error(t, f.Set(arg), "%s", arg.Key)
	}
}

func TestOptTesterOptimizeShowMemo(t *testing.T) {
	ot := NewOptTester()
	ot.Flags.ShowMemo = true
	ot.Flags.MemoFormat = memo.FmtShowBest
	out, err := ot.Optimize("[get, {table: 1}]")
	require.NoError(t, err)

	expected := "seq-scan [0.0.1]\n" +
		"cost: 1000.00\n" +
		"memo (1 groups)\n" +
		" └── G1: (get [0.0.1]) (seq-scan [0.0.1])\n" +
		"      ├── best: (seq-scan [0.0.1])\n" +
		"      └── cost: 1000.00\n"
	require.Equal(t, expected, out)
}
