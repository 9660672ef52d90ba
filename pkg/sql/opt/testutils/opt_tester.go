// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/kv"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/exprgen"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/norm"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gopkg.in/yaml.v2"
)

// OptTester is a helper for testing the various optimizer components. It
// contains the boiler-plate code for the following useful tasks:
//   - Record expressions into a memo and format it
//   - Enumerate the bindings of a pattern
//   - Rewrite a scalar expression
//   - Optimize a logical expression into a physical plan
//
// The OptTester is used by tests in various sub-packages of the opt package.
// Every command runs in a fresh session.
type OptTester struct {
	Flags OptTesterFlags

	ctx     context.Context
	metrics *xform.Metrics
	builder strings.Builder
}

// OptTesterFlags are control knobs for tests. Note that specific testcases can
// override these defaults.
type OptTesterFlags struct {
	// MemoFormat controls the output detail of the memo printed by the memo
	// command, and by other commands when ShowMemo is set.
	MemoFormat memo.FmtFlags

	// ShowMemo appends the memo to the output of rewrite and optimize.
	ShowMemo bool

	// BindMode selects which members of child groups the bind command expands.
	BindMode memo.BindMode

	// Settings are the session settings. DisabledRules is set by the disable
	// flag.
	Settings opt.Settings

	// ExpectedRules is a set of rules which must be exercised for the test to
	// pass.
	ExpectedRules []string

	// UnexpectedRules is a set of rules which must not be exercised for the test
	// to pass.
	UnexpectedRules []string
}

// NewOptTester constructs a new instance of the OptTester.
func NewOptTester() *OptTester {
	return &OptTester{
		Flags: OptTesterFlags{Settings: opt.DefaultSettings()},
		ctx:   context.Background(),
	}
}

// RunCommand implements commands that are used by most tests:
//
//   - memo [flags]
//
//     Records each line of the input, an expression in exprgen notation, into
//     the same memo and outputs the memo. The first expression is the root.
//
//   - bind [flags]
//
//     Records an expression and outputs the bindings of a pattern against its
//     group. The input is YAML with the keys expr (the expression), pattern
//     (the pattern) and optionally alternatives (expressions recorded into the
//     root group).
//
//   - rewrite [flags]
//
//     Rewrites the scalar expression and outputs the result.
//
//   - optimize [flags]
//
//     Optimizes the logical expression and outputs the cheapest plan.
//
// Supported flags:
//
//   - format: controls the formatting of the memo. Possible values: raw,
//     show-memory, show-best. For example:
//     memo format=(raw,show-best)
//
//   - show-memo: output the memo after the result of rewrite and optimize.
//
//   - mode: the bind mode, either all or representative.
//
//   - disable: disables rules by name. Examples:
//     optimize disable=CommuteJoin
//     rewrite disable=(FoldArithmetic,FoldComparison)
//
//   - expect: fail the test if the rules specified by name are not applied.
//
//   - expect-not: fail the test if the rules specified by name are applied.
//
//   - iterations: the rewrite iteration limit.
//
//   - task-limit: the maximum number of tasks per session.
func (ot *OptTester) RunCommand(tb testing.TB, d *datadriven.TestData) string {
	// Allow testcases to override the flags.
	for _, a := range d.CmdArgs {
		if err := ot.Flags.Set(a); err != nil {
			d.Fatalf(tb, "%s", err)
		}
	}
	ot.metrics = xform.NewMetrics()

	var result string
	var err error
	switch d.Cmd {
	case "memo":
		result, err = ot.Memo(d.Input)

	case "bind":
		result, err = ot.Bind(d.Input)

	case "rewrite":
		result, err = ot.Rewrite(d.Input)

	case "optimize":
		result, err = ot.Optimize(d.Input)

	default:
		d.Fatalf(tb, "unsupported command: %s", d.Cmd)
		return ""
	}
	if err != nil {
		if errors.HasAssertionFailure(err) {
			d.Fatalf(tb, "%+v", err)
		}
		return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
	}
	if err := ot.checkExpectedRules(); err != nil {
		d.Fatalf(tb, "%s", err)
	}
	return result
}

func (ot *OptTester) checkExpectedRules() error {
	seen := ot.seenRules()
	for _, r := range ot.Flags.ExpectedRules {
		if !seen[r] {
			return errors.Newf("expected to see %s, but was not triggered. Did see %s",
				r, formatRuleNames(seen))
		}
	}
	for _, r := range ot.Flags.UnexpectedRules {
		if seen[r] {
			return errors.Newf("expected not to see %s, but it was triggered", r)
		}
	}
	return nil
}

// seenRules returns the rules that the last command applied.
func (ot *OptTester) seenRules() map[string]bool {
	seen := make(map[string]bool)
	for _, r := range ot.Flags.ExpectedRules {
		if testutil.ToFloat64(ot.metrics.RuleApplications.WithLabelValues(r)) > 0 {
			seen[r] = true
		}
	}
	for _, r := range ot.Flags.UnexpectedRules {
		if testutil.ToFloat64(ot.metrics.RuleApplications.WithLabelValues(r)) > 0 {
			seen[r] = true
		}
	}
	return seen
}

func formatRuleNames(seen map[string]bool) string {
	names := make([]string, 0, len(seen))
	for r := range seen {
		names = append(names, r)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Set parses an argument that refers to a flag.
// See OptTester.RunCommand for supported flags.
func (f *OptTesterFlags) Set(arg datadriven.CmdArg) error {
	switch arg.Key {
	case "format":
		f.MemoFormat = memo.FmtPretty
		if len(arg.Vals) == 0 {
			return fmt.Errorf("format flag requires value(s)")
		}
		for _, v := range arg.Vals {
			m := map[string]memo.FmtFlags{
				"raw":         memo.FmtRaw,
				"show-memory": memo.FmtShowMemory,
				"show-best":   memo.FmtShowBest,
			}
			if val, ok := m[v]; ok {
				f.MemoFormat |= val
			} else {
				return fmt.Errorf("unknown format value %s", v)
			}
		}

	case "show-memo":
		f.ShowMemo = true

	case "mode":
		if len(arg.Vals) != 1 {
			return fmt.Errorf("mode requires one argument")
		}
		switch arg.Vals[0] {
		case "all":
			f.BindMode = memo.BindAll
		case "representative":
			f.BindMode = memo.BindRepresentative
		default:
			return fmt.Errorf("unknown bind mode %s", arg.Vals[0])
		}

	case "disable":
		if len(arg.Vals) == 0 {
			return fmt.Errorf("disable requires arguments")
		}
		f.Settings.DisabledRules = append(f.Settings.DisabledRules, arg.Vals...)

	case "expect":
		f.ExpectedRules = append([]string(nil), arg.Vals...)

	case "expect-not":
		f.UnexpectedRules = append([]string(nil), arg.Vals...)

	case "iterations":
		n, err := intArg(arg)
		if err != nil {
			return err
		}
		f.Settings.RewriteIterationLimit = n

	case "task-limit":
		n, err := intArg(arg)
		if err != nil {
			return err
		}
		f.Settings.TaskLimit = n

	default:
		return fmt.Errorf("unknown argument: %s", arg.Key)
	}
	return f.Settings.Validate()
}

func intArg(arg datadriven.CmdArg) (int, error) {
	if len(arg.Vals) != 1 {
		return 0, fmt.Errorf("%s requires one argument", arg.Key)
	}
	n, err := strconv.Atoi(arg.Vals[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %v", arg.Key, arg.Vals[0])
	}
	return n, nil
}

func (ot *OptTester) newContext() *xform.Context {
	c := xform.NewContext(kv.NewTxn("opt-tester"), ot.Flags.Settings, nil /* rules */)
	c.SetMetrics(ot.metrics)
	return c
}

// Memo records each non-empty line of the input into one memo and returns the
// formatted memo.
func (ot *OptTester) Memo(input string) (string, error) {
	c := ot.newContext()
	mem := c.Memo()
	for _, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n, err := exprgen.ParseNode(line)
		if err != nil {
			return "", err
		}
		e, _ := c.RecordOptimizerNodeIntoGroup(n)
		if mem.RootGroup() == opt.UndefinedGroup {
			mem.SetRoot(e.Group())
		}
	}
	return mem.FormatString(ot.Flags.MemoFormat), nil
}

type bindInput struct {
	Expr         exprgen.Value   `yaml:"expr"`
	Alternatives []exprgen.Value `yaml:"alternatives"`
	Pattern      exprgen.Value   `yaml:"pattern"`
}

// Bind records the input expression and returns every binding of the input
// pattern against the expression's group.
func (ot *OptTester) Bind(input string) (string, error) {
	var in bindInput
	if err := yaml.UnmarshalStrict([]byte(input), &in); err != nil {
		return "", errors.Wrap(err, "parsing bind input")
	}
	root, err := exprgen.BuildNode(in.Expr.Interface())
	if err != nil {
		return "", err
	}
	pattern, err := exprgen.BuildPattern(in.Pattern.Interface())
	if err != nil {
		return "", err
	}

	c := ot.newContext()
	mem := c.Memo()
	e, _ := c.RecordOptimizerNodeIntoGroup(root)
	group := e.Group()
	mem.SetRoot(group)
	for _, alt := range in.Alternatives {
		n, err := exprgen.BuildNode(alt.Interface())
		if err != nil {
			return "", err
		}
		c.RecordOptimizerNodeIntoTargetGroup(n, group)
	}

	ot.builder.Reset()
	it := memo.NewGroupBindingIterator(mem, group, pattern, ot.Flags.BindMode)
	count := 0
	for it.HasNext() {
		count++
		ot.output("binding %d:\n", count)
		ot.indent(it.Next().String())
	}
	if count == 0 {
		ot.output("no bindings\n")
	}
	return ot.builder.String(), nil
}

// Rewrite rewrites the scalar input expression and returns the result.
func (ot *OptTester) Rewrite(input string) (string, error) {
	expr, err := exprgen.ParseExpr(input)
	if err != nil {
		return "", err
	}
	r := norm.NewRewriter(kv.NewTxn("opt-tester"), ot.Flags.Settings)
	r.Context().SetMetrics(ot.metrics)
	result, err := r.RewriteExpression(ot.ctx, expr)
	if err != nil {
		return "", err
	}

	ot.builder.Reset()
	ot.output("%s\n", result)
	if ot.Flags.ShowMemo {
		ot.output("%s", r.Context().Memo().FormatString(ot.Flags.MemoFormat))
	}
	return ot.builder.String(), nil
}

// Optimize optimizes the logical input expression and returns the cheapest
// plan.
func (ot *OptTester) Optimize(input string) (string, error) {
	root, err := exprgen.ParseNode(input)
	if err != nil {
		return "", err
	}
	o := xform.NewOptimizer(kv.NewTxn("opt-tester"), ot.Flags.Settings)
	o.Context().SetMetrics(ot.metrics)
	plan, err := o.Optimize(ot.ctx, root)
	if err != nil {
		return "", err
	}

	ot.builder.Reset()
	ot.output("%s", plan)
	_, cost := o.Memo().Group(o.Memo().RootGroup()).BestExpr()
	ot.output("cost: %.2f\n", cost)
	if ot.Flags.ShowMemo {
		ot.output("%s", o.Memo().FormatString(ot.Flags.MemoFormat))
	}
	return ot.builder.String(), nil
}

func (ot *OptTester) output(format string, args ...interface{}) {
	fmt.Fprintf(&ot.builder, format, args...)
}

func (ot *OptTester) indent(str string) {
	str = strings.TrimRight(str, " \n\t\r")
	lines := strings.Split(str, "\n")
	for _, line := range lines {
		ot.output("  %s\n", line)
	}
}
