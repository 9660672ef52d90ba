// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
)

// RuleType classifies rules by the kind of alternative they derive.
type RuleType uint8

const (
	// ExplorationRule derives logically equivalent logical expressions.
	ExplorationRule RuleType = iota

	// ImplementationRule derives physical expressions that implement a
	// logical expression.
	ImplementationRule

	// RewriteRule derives a simpler form of a scalar expression. Rewrite
	// rules replace the expression they match rather than adding an
	// alternative.
	RewriteRule

	numRuleTypes
)

var ruleTypeNames = [numRuleTypes]string{
	ExplorationRule:    "exploration",
	ImplementationRule: "implementation",
	RewriteRule:        "rewrite",
}

func (t RuleType) String() string {
	if t >= numRuleTypes {
		return "unknown"
	}
	return ruleTypeNames[t]
}

// SafeValue implements the redact.SafeValue interface.
func (RuleType) SafeValue() {}

// Rule is a transformation that derives new expressions from the bindings of
// its pattern. The search machinery enumerates bindings of the pattern,
// calls Check on each one and, if Check returns true, calls Transform and
// records every returned node into the group of the matched expression.
//
// Leaf placeholders in the binding stand for whole groups. A rule may reuse
// them in its results, so that the results refer to existing groups instead of
// copying their contents.
type Rule interface {
	// Name uniquely identifies the rule. It is the name used to disable the
	// rule in the settings.
	Name() string

	Type() RuleType

	// Pattern is the left-hand side of the rule.
	Pattern() *opt.Pattern

	// Check returns true if the rule applies to the binding.
	Check(binding *opt.Node, ctx *Context) bool

	// Transform returns the expressions derived from the binding. Returning no
	// expressions is allowed.
	Transform(binding *opt.Node, ctx *Context) []*opt.Node
}

// RuleSet is an indexed collection of rules. Every rule is assigned a
// memo.RuleID, and rules are grouped by type and by the operator at the root
// of their pattern. Rules whose pattern root is a wildcard apply to every
// operator.
type RuleSet struct {
	rules  []Rule
	byName map[string]memo.RuleID
	byOp   [numRuleTypes][opt.NumOperators][]memo.RuleID
}

// NewRuleSet builds a rule set out of the given rules, skipping the rules
// that the settings disable. It panics if two rules have the same name.
func NewRuleSet(settings *opt.Settings, rules ...Rule) *RuleSet {
	rs := &RuleSet{byName: make(map[string]memo.RuleID, len(rules))}
	for _, r := range rules {
		if settings != nil && settings.IsRuleDisabled(r.Name()) {
			continue
		}
		rs.add(r)
	}
	return rs
}

func (rs *RuleSet) add(r Rule) {
	if _, ok := rs.byName[r.Name()]; ok {
		panic(errors.AssertionFailedf("rule %s is registered more than once", r.Name()))
	}
	if r.Type() >= numRuleTypes {
		panic(errors.AssertionFailedf("rule %s has unknown type %d", r.Name(), r.Type()))
	}
	id := memo.RuleID(len(rs.rules))
	rs.rules = append(rs.rules, r)
	rs.byName[r.Name()] = id

	// Expressions never carry the pattern operators, so no rule is indexed
	// under them.
	root := r.Pattern().Op()
	for op := opt.Operator(1); op < opt.NumOperators; op++ {
		if op == opt.LeafOp || op == opt.WildcardOp {
			continue
		}
		if root == op || root == opt.WildcardOp {
			rs.byOp[r.Type()][op] = append(rs.byOp[r.Type()][op], id)
		}
	}
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Rule returns the rule with the given id.
func (rs *RuleSet) Rule(id memo.RuleID) Rule {
	return rs.rules[id]
}

// Lookup returns the id of the named rule, or false if the set has no rule
// with that name.
func (rs *RuleSet) Lookup(name string) (memo.RuleID, bool) {
	id, ok := rs.byName[name]
	return id, ok
}

// RulesFor returns the ids of the rules of the given type whose pattern can
// match an expression with the given operator, in registration order. The
// returned slice must not be modified.
func (rs *RuleSet) RulesFor(typ RuleType, op opt.Operator) []memo.RuleID {
	return rs.byOp[typ][op]
}
