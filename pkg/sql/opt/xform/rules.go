// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
)

// DefaultRules returns the exploration and implementation rules used by the
// optimizer unless others are given.
func DefaultRules() []Rule {
	return []Rule{
		commuteJoin{},
		mergeLimits{},

		&implementRule{
			name:    "ImplementGet",
			pattern: opt.NewPattern(opt.GetOp),
			build: func(c opt.Content) opt.Content {
				get := c.(*ops.Get)
				scan := ops.NewSeqScan(get.Table, get.Alias)
				scan.TableScanPrivate = get.TableScanPrivate
				return scan
			},
		},
		&implementRule{
			name:    "ImplementExternalFileGet",
			pattern: opt.NewPattern(opt.ExternalFileGetOp),
			build: func(c opt.Content) opt.Content {
				get := c.(*ops.ExternalFileGet)
				return ops.NewExternalFileScan(get.Path, get.Format)
			},
		},
		&implementRule{
			name:    "ImplementHashJoin",
			pattern: joinPattern,
			check: func(c opt.Content) bool {
				return hasEquality(c.(*ops.InnerJoin).On)
			},
			build: func(c opt.Content) opt.Content {
				return ops.NewHashJoin(c.(*ops.InnerJoin).On)
			},
		},
		&implementRule{
			name:    "ImplementNestedLoopJoin",
			pattern: joinPattern,
			build: func(c opt.Content) opt.Content {
				return ops.NewNestedLoopJoin(c.(*ops.InnerJoin).On)
			},
		},
		&implementRule{
			name:    "ImplementFilter",
			pattern: opt.NewPattern(opt.FilterOp, opt.NewLeafPattern()),
			build: func(c opt.Content) opt.Content {
				return ops.NewPhysicalFilter(c.(*ops.Filter).Predicate)
			},
		},
		&implementRule{
			name:    "ImplementProject",
			pattern: opt.NewPattern(opt.ProjectOp, opt.NewLeafPattern()),
			build: func(c opt.Content) opt.Content {
				return ops.NewPhysicalProject(c.(*ops.Project).Columns...)
			},
		},
		&implementRule{
			name:    "ImplementLimit",
			pattern: opt.NewPattern(opt.LimitOp, opt.NewLeafPattern()),
			build: func(c opt.Content) opt.Content {
				return ops.NewPhysicalLimit(c.(*ops.Limit).Count)
			},
		},
	}
}

var joinPattern = opt.NewPattern(opt.InnerJoinOp, opt.NewLeafPattern(), opt.NewLeafPattern())

// commuteJoin swaps the inputs of an inner join.
type commuteJoin struct{}

func (commuteJoin) Name() string          { return "CommuteJoin" }
func (commuteJoin) Type() RuleType        { return ExplorationRule }
func (commuteJoin) Pattern() *opt.Pattern { return joinPattern }

func (commuteJoin) Check(*opt.Node, *Context) bool { return true }

func (commuteJoin) Transform(binding *opt.Node, _ *Context) []*opt.Node {
	return []*opt.Node{opt.NewNode(binding.Content(), binding.Child(1), binding.Child(0))}
}

// mergeLimits replaces a limit of a limit with a single limit of the smaller
// count.
type mergeLimits struct{}

var nestedLimitPattern = opt.NewPattern(opt.LimitOp,
	opt.NewPattern(opt.LimitOp, opt.NewLeafPattern()),
)

func (mergeLimits) Name() string          { return "MergeLimits" }
func (mergeLimits) Type() RuleType        { return ExplorationRule }
func (mergeLimits) Pattern() *opt.Pattern { return nestedLimitPattern }

func (mergeLimits) Check(*opt.Node, *Context) bool { return true }

func (mergeLimits) Transform(binding *opt.Node, _ *Context) []*opt.Node {
	outer := binding.Content().(*ops.Limit)
	inner := binding.Child(0)
	count := inner.Content().(*ops.Limit).Count
	if outer.Count < count {
		count = outer.Count
	}
	return []*opt.Node{opt.NewNode(ops.NewLimit(count), inner.Child(0))}
}

// implementRule derives a physical expression with the same inputs as the
// matched logical expression.
type implementRule struct {
	name    string
	pattern *opt.Pattern
	check   func(opt.Content) bool
	build   func(opt.Content) opt.Content
}

func (r *implementRule) Name() string          { return r.name }
func (r *implementRule) Type() RuleType        { return ImplementationRule }
func (r *implementRule) Pattern() *opt.Pattern { return r.pattern }

func (r *implementRule) Check(binding *opt.Node, _ *Context) bool {
	return r.check == nil || r.check(binding.Content())
}

func (r *implementRule) Transform(binding *opt.Node, _ *Context) []*opt.Node {
	return []*opt.Node{opt.NewNode(r.build(binding.Content()), binding.Children()...)}
}

// hasEquality returns true if the condition is an equality between two
// columns, or a conjunction containing one.
func hasEquality(cond tree.Expr) bool {
	switch t := tree.StripParens(cond).(type) {
	case *tree.AndExpr:
		return hasEquality(t.Left) || hasEquality(t.Right)
	case *tree.ComparisonExpr:
		if t.Operator != tree.EQ {
			return false
		}
		_, leftCol := tree.StripParens(t.Left).(*tree.ColumnItem)
		_, rightCol := tree.StripParens(t.Right).(*tree.ColumnItem)
		return leftCol && rightCol
	}
	return false
}
