// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// optsearch runs the rule-based rewriter or the cost-based optimizer over
// expressions written in the exprgen notation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/kv"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/exprgen"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/norm"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/cockroachdb/optsearch/pkg/util/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	settings       = opt.DefaultSettings()
	configFile     string
	showMemo       bool
	printMetrics   bool
	parallelism    int
	redactableLogs bool
)

// settingFlags are the flags registered by opt.Settings.RegisterFlags. When
// set explicitly they take precedence over the config file.
var settingFlags = []string{"rewrite-iteration-limit", "task-limit", "disable-rule"}

var rootCmd = &cobra.Command{
	Use:   "optsearch",
	Short: "rewrite and optimize expressions with the Cascades search framework",
	Long: `optsearch drives the expression rewriter and the cost-based optimizer.

Inputs are files containing expressions in the exprgen notation. Every file
is processed by its own planning session, and files are processed in
parallel.

Examples:

  optsearch rewrite scalars.txt
  optsearch optimize --show-memo --disable-rule=CommuteJoin query.yaml
`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file...]",
	Short: "rewrite scalar expressions to their simplified form",
	Long: `rewrite reads one scalar expression per non-empty line of each file
and prints its rewritten form. Lines starting with # are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFiles(cmd.Context(), args, rewriteFile)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [file...]",
	Short: "find the cheapest physical plan for logical expressions",
	Long: `optimize reads a single logical expression from each file and prints
the cheapest physical plan found for it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFiles(cmd.Context(), args, optimizeFile)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML file holding optimizer settings")
	pf.BoolVar(&showMemo, "show-memo", false, "print the memo after each session")
	pf.BoolVar(&printMetrics, "print-metrics", false, "print optimizer counters on exit")
	pf.IntVar(&parallelism, "parallelism", 4, "number of files processed concurrently")
	pf.BoolVar(&redactableLogs, "redactable-logs", false, "keep redaction markers around unsafe values in log entries")
	settings.RegisterFlags(pf)

	// glog registers its flags (-v, -logtostderr, ...) on the standard flag set.
	pf.AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(rewriteCmd, optimizeCmd)
}

// loadSettings merges the config file, if any, with the flags that were set
// explicitly on the command line.
func loadSettings(cmd *cobra.Command, _ []string) error {
	log.SetRedactableLogs(redactableLogs)
	if configFile == "" {
		return settings.Validate()
	}
	loaded, err := opt.LoadSettingsFile(configFile)
	if err != nil {
		return err
	}
	for _, name := range settingFlags {
		if f := cmd.Flag(name); f == nil || !f.Changed {
			continue
		}
		switch name {
		case "rewrite-iteration-limit":
			loaded.RewriteIterationLimit = settings.RewriteIterationLimit
		case "task-limit":
			loaded.TaskLimit = settings.TaskLimit
		case "disable-rule":
			loaded.DisabledRules = settings.DisabledRules
		}
	}
	settings = loaded
	return settings.Validate()
}

// sessionFunc processes the contents of one input file within a session
// bound to txn, and returns the text to print for it.
type sessionFunc func(ctx context.Context, txn *kv.Txn, metrics *xform.Metrics, input string) (string, error)

func runFiles(ctx context.Context, paths []string, fn sessionFunc) error {
	defer log.Flush()
	if parallelism < 1 {
		return errors.Newf("--parallelism must be at least 1, found %d", parallelism)
	}

	metrics := xform.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	outputs := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", path)
			}
			txn := kv.NewTxn(path)
			out, err := fn(ctx, txn, metrics, string(data))
			if err != nil {
				_ = txn.Rollback()
				log.Errorf(ctx, "session for %s failed: %v", path, err)
				return errors.Wrapf(err, "%s", path)
			}
			if err := txn.Commit(); err != nil {
				return err
			}
			log.Infof(ctx, "finished %s in txn %s", path, txn.ShortID())
			outputs[i] = out
			return nil
		})
	}
	err := g.Wait()

	for i, out := range outputs {
		if out == "" {
			continue
		}
		if len(paths) > 1 {
			fmt.Printf("== %s\n", paths[i])
		}
		fmt.Print(out)
	}
	if printMetrics {
		if err := writeMetrics(reg); err != nil {
			return err
		}
	}
	return err
}

func rewriteFile(
	ctx context.Context, txn *kv.Txn, metrics *xform.Metrics, input string,
) (string, error) {
	r := norm.NewRewriter(txn, settings)
	r.Context().SetMetrics(metrics)

	var buf strings.Builder
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		expr, err := exprgen.ParseExpr(line)
		if err != nil {
			return "", err
		}
		// Each expression gets a fresh memo but stays in the same session.
		r.Reset(txn)
		out, err := r.RewriteExpression(ctx, expr)
		if err != nil {
			if !errors.Is(err, norm.ErrRewriteNoConvergence) {
				return "", err
			}
			log.Warningf(ctx, "%s: %v", line, err)
		}
		fmt.Fprintf(&buf, "%s\n", out)
		if showMemo {
			buf.WriteString(r.Context().Memo().String())
		}
	}
	return buf.String(), nil
}

func optimizeFile(
	ctx context.Context, txn *kv.Txn, metrics *xform.Metrics, input string,
) (string, error) {
	node, err := exprgen.ParseNode(input)
	if err != nil {
		return "", err
	}
	o := xform.NewOptimizer(txn, settings)
	o.Context().SetMetrics(metrics)
	plan, err := o.Optimize(ctx, node)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	buf.WriteString(plan.String())
	mem := o.Memo()
	_, cost := mem.Group(mem.RootGroup()).BestExpr()
	fmt.Fprintf(&buf, "cost: %.2f\n", cost)
	if showMemo {
		buf.WriteString(mem.FormatString(memo.FmtShowBest))
	}
	return buf.String(), nil
}

// writeMetrics prints the counters collected by the registry, one sample per
// line.
func writeMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("%s %g\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Printf("%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
