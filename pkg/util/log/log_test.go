// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"flag"
	"testing"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestFormatWithContextTags(t *testing.T) {
	defer Scope(t).Close(t)

	ctx := context.Background()
	require.Equal(t, "group 3 explored", FormatWithContextTags(ctx, "group %d explored", 3))

	ctx = logtags.AddTag(ctx, "txn", "a1b2c3d4")
	ctx = logtags.AddTag(ctx, "rewrite", nil)
	require.Equal(t,
		"[txn=a1b2c3d4,rewrite] applied rule FoldPlus",
		FormatWithContextTags(ctx, "applied rule %s", "FoldPlus"),
	)

	// Exercise the glog sink; output goes to the scoped directory.
	Infof(ctx, "memo has %d groups", 4)
	VEventf(ctx, 2, "not emitted at default verbosity")
}

func TestFormatWithContextTagsRedactable(t *testing.T) {
	ctx := logtags.AddTag(context.Background(), "txn", "a1b2c3d4")
	s := FormatWithContextTagsRedactable(ctx, "applied rule %s to %s", redact.Safe("FoldPlus"), "x + 1")
	require.EqualValues(t, "[txn=‹a1b2c3d4›] applied rule FoldPlus to ‹x + 1›", s)
	require.EqualValues(t, "[txn=‹×›] applied rule FoldPlus to ‹×›", s.Redact())
	require.Equal(t, "[txn=a1b2c3d4] applied rule FoldPlus to x + 1",
		FormatWithContextTags(ctx, "applied rule %s to %s", redact.Safe("FoldPlus"), "x + 1"))

	defer SetRedactableLogs(false)
	SetRedactableLogs(true)
	require.Equal(t, string(s), formatEntry(ctx, "applied rule %s to %s", []interface{}{redact.Safe("FoldPlus"), "x + 1"}))
	SetRedactableLogs(false)
	require.Equal(t, s.StripMarkers(), formatEntry(ctx, "applied rule %s to %s", []interface{}{redact.Safe("FoldPlus"), "x + 1"}))
}

func TestScopeRestoresFlags(t *testing.T) {
	before := flag.Lookup("log_dir").Value.String()
	scope := Scope(t)
	require.NotEqual(t, before, flag.Lookup("log_dir").Value.String())
	require.Equal(t, "false", flag.Lookup("logtostderr").Value.String())
	scope.Close(t)
	require.Equal(t, before, flag.Lookup("log_dir").Value.String())
}
