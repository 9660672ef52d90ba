// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo_test

import (
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/cat"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/testutils"
	"github.com/stretchr/testify/require"
)

// TestMemoDataDriven runs the memo and bind commands in testdata.
func TestMemoDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			tester := testutils.NewOptTester()
			return tester.RunCommand(t, d)
		})
	})
}

func TestMemoFormatShowBest(t *testing.T) {
	m := memo.New()
	e, _ := m.Record(get(1, 2, 3), opt.UndefinedGroup)
	m.SetRoot(e.Group())
	scan, _ := m.Record(opt.NewNode(ops.NewSeqScan(cat.TableRef{Database: 1, Schema: 2, Table: 3}, "")), e.Group())
	require.True(t, m.Group(e.Group()).SetBestExpr(scan, 1000))

	expected := "memo (1 groups)\n" +
		" └── G1: (get [1.2.3]) (seq-scan [1.2.3])\n" +
		"      ├── best: (seq-scan [1.2.3])\n" +
		"      └── cost: 1000.00\n"
	require.Equal(t, expected, m.FormatString(memo.FmtShowBest))
}

func TestMemoFormatMerged(t *testing.T) {
	m := memo.New()
	a, _ := m.Record(get(1, 1, 1), opt.UndefinedGroup)
	b, _ := m.Record(get(1, 1, 2), opt.UndefinedGroup)
	require.True(t, m.MergeGroup(b.Group(), a.Group()))

	expected := "memo (2 groups)\n" +
		" ├── G1: (get [1.1.1])\n" +
		" └── G2: merged into G1\n"
	require.Equal(t, expected, m.FormatString(memo.FmtRaw))
}
