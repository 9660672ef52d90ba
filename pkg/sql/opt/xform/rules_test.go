// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform_test

import (
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/testutils"
	"github.com/cockroachdb/optsearch/pkg/util/log"
)

// Rules files can be run separately like this:
//
//	go test ./pkg/sql/opt/xform -run "TestRules/join"
//	go test ./pkg/sql/opt/xform -run "TestRules/limit"
//	...
func TestRules(t *testing.T) {
	defer log.Scope(t).Close(t)

	datadriven.Walk(t, "testdata/rules", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			tester := testutils.NewOptTester()
			return tester.RunCommand(t, d)
		})
	})
}
