// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	s, err := LoadSettings([]byte(""))
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), s)

	s, err = LoadSettings([]byte(`
rewrite_iteration_limit: 5
task_limit: 1000
disabled_rules: [FoldArithmetic, CommuteJoin]
`))
	require.NoError(t, err)
	require.Equal(t, 5, s.RewriteIterationLimit)
	require.Equal(t, 1000, s.TaskLimit)
	require.True(t, s.IsRuleDisabled("CommuteJoin"))
	require.False(t, s.IsRuleDisabled("EliminateNot"))

	_, err = LoadSettings([]byte("rewrite_iterations: 5"))
	require.ErrorContains(t, err, "field rewrite_iterations not found")

	_, err = LoadSettings([]byte("rewrite_iteration_limit: 0"))
	require.ErrorContains(t, err, "rewrite_iteration_limit must be positive")

	_, err = LoadSettings([]byte("task_limit: -1"))
	require.ErrorContains(t, err, "task_limit must not be negative")

	_, err = LoadSettings([]byte("disabled_rules: [A, A]"))
	require.ErrorContains(t, err, `rule "A" is disabled more than once`)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task_limit: 7\n"), 0644))
	s, err := LoadSettingsFile(path)
	require.NoError(t, err)
	require.Equal(t, 7, s.TaskLimit)
	require.Equal(t, DefaultRewriteIterationLimit, s.RewriteIterationLimit)

	_, err = LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRegisterFlags(t *testing.T) {
	s := DefaultSettings()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	s.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--rewrite-iteration-limit=3", "--disable-rule=A", "--disable-rule=B",
	}))
	require.Equal(t, 3, s.RewriteIterationLimit)
	require.Equal(t, 0, s.TaskLimit)
	require.Equal(t, []string{"A", "B"}, s.DisabledRules)
	require.NoError(t, s.Validate())
}
