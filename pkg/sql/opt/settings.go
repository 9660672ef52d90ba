// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// DefaultRewriteIterationLimit is the number of rewrite passes attempted before
// the rewriter gives up on reaching a fixed point.
const DefaultRewriteIterationLimit = 100

// Settings holds the knobs that influence a planning session. The zero value
// is not valid; start from DefaultSettings.
type Settings struct {
	// RewriteIterationLimit bounds the number of passes the rewriter makes
	// over the memo before reporting non-convergence.
	RewriteIterationLimit int `yaml:"rewrite_iteration_limit"`

	// TaskLimit bounds the number of tasks a single RunTasks call executes.
	// Zero means no limit.
	TaskLimit int `yaml:"task_limit"`

	// DisabledRules lists rules, by name, that are never applied.
	DisabledRules []string `yaml:"disabled_rules,omitempty"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		RewriteIterationLimit: DefaultRewriteIterationLimit,
	}
}

// LoadSettings parses YAML-encoded settings on top of the defaults. Unknown
// fields are rejected.
func LoadSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return Settings{}, errors.Wrap(err, "parsing optimizer settings")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile reads settings from a YAML file.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "reading settings file %q", path)
	}
	s, err := LoadSettings(data)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "in %q", path)
	}
	return s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if s.RewriteIterationLimit <= 0 {
		return errors.WithHint(
			errors.Newf("rewrite_iteration_limit must be positive, found %d", s.RewriteIterationLimit),
			"the default is 100",
		)
	}
	if s.TaskLimit < 0 {
		return errors.Newf("task_limit must not be negative, found %d", s.TaskLimit)
	}
	seen := make(map[string]struct{}, len(s.DisabledRules))
	for _, name := range s.DisabledRules {
		if name == "" {
			return errors.New("disabled_rules contains an empty rule name")
		}
		if _, ok := seen[name]; ok {
			return errors.Newf("rule %q is disabled more than once", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// IsRuleDisabled returns true if the named rule appears in DisabledRules.
func (s *Settings) IsRuleDisabled(name string) bool {
	for _, r := range s.DisabledRules {
		if r == name {
			return true
		}
	}
	return false
}

// RegisterFlags binds the settings to command-line flags. The current values
// of the settings are used as the flag defaults.
func (s *Settings) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&s.RewriteIterationLimit, "rewrite-iteration-limit", s.RewriteIterationLimit,
		"maximum number of rewrite passes before giving up on a fixed point")
	fs.IntVar(&s.TaskLimit, "task-limit", s.TaskLimit,
		"maximum number of optimizer tasks to run per session (0 means unlimited)")
	fs.StringSliceVar(&s.DisabledRules, "disable-rule", s.DisabledRules,
		"name of a rule that must not be applied (may be repeated)")
}
