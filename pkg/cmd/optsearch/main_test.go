// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/optsearch/pkg/kv"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/cockroachdb/optsearch/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestRewriteFile(t *testing.T) {
	defer log.Scope(t).Close(t)

	const input = `
# folded
[plus, [plus, [const, 1], [const, 2]], [const, 3]]

[not, [not, [var, x]]]
`
	out, err := rewriteFile(context.Background(), kv.NewTxn("test"), xform.NewMetrics(), input)
	require.NoError(t, err)
	require.Equal(t, "6\nx\n", out)

	_, err = rewriteFile(context.Background(), kv.NewTxn("test"), nil, "[scan]")
	require.Error(t, err)
}

func TestOptimizeFile(t *testing.T) {
	defer log.Scope(t).Close(t)

	out, err := optimizeFile(context.Background(), kv.NewTxn("test"), xform.NewMetrics(),
		"[get, {db: 1, schema: 2, table: 3, alias: t}]")
	require.NoError(t, err)
	require.Equal(t, "seq-scan [1.2.3] t\ncost: 1000.00\n", out)
}

func TestLoadSettings(t *testing.T) {
	defer func(s opt.Settings, f string) { settings, configFile = s, f }(settings, configFile)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task_limit: 50\nrewrite_iteration_limit: 7\n"), 0644))

	settings = opt.DefaultSettings()
	configFile = path
	// Flags set on the command line take precedence over the file.
	require.NoError(t, rootCmd.PersistentFlags().Set("task-limit", "10"))
	require.NoError(t, loadSettings(rootCmd, nil))
	require.Equal(t, 10, settings.TaskLimit)
	require.Equal(t, 7, settings.RewriteIterationLimit)

	configFile = filepath.Join(t.TempDir(), "missing.yaml")
	err := loadSettings(rootCmd, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading settings file")
}
