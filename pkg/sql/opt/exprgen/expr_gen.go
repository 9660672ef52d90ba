// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package exprgen builds optimizer nodes, patterns and scalar expressions from
// a compact YAML notation, for use in tests and in the optsearch tool.
//
// Every expression is a YAML flow list whose first element names an operator
// (as printed by opt.Operator.String). An optional map of private fields may
// follow, and the remaining elements are the children:
//
//	[inner-join, {condition: [eq, [var, a], [var, b]]},
//	  [get, {db: 1, schema: 2, table: 3, alias: t}],
//	  [filter, {predicate: [gt, [var, c], [const, 1]]}, [get, {table: 4}]]]
//
// Scalar expressions use the scalar operator names, plus the shorthands "var"
// for variable and "const" for a constant:
//
//	[and, [eq, [var, a], [const, 1]], [not, [const, true]]]
//
// A constant's value is decoded from YAML: integers become INT, other numbers
// DECIMAL, strings STRING, booleans BOOL, and null NULL. A second element
// forces the type, as in [const, "1.50", decimal].
//
// Patterns are written the same way without privates, using leaf and
// wildcard for the pattern operators:
//
//	[inner-join, [leaf], [wildcard, [leaf]]]
package exprgen

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/cat"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/ops"
	"github.com/cockroachdb/optsearch/pkg/sql/sem/tree"
	"gopkg.in/yaml.v2"
)

var shorthands = map[string]opt.Operator{
	"var": opt.VariableOp,
}

// ParseNode builds an optimizer node tree from its YAML notation.
func ParseNode(input string) (*opt.Node, error) {
	v, err := decode(input)
	if err != nil {
		return nil, err
	}
	return BuildNode(v)
}

// ParseExpr builds a scalar expression from its YAML notation.
func ParseExpr(input string) (tree.Expr, error) {
	v, err := decode(input)
	if err != nil {
		return nil, err
	}
	return BuildExpr(v)
}

// ParsePattern builds a pattern from its YAML notation.
func ParsePattern(input string) (*opt.Pattern, error) {
	v, err := decode(input)
	if err != nil {
		return nil, err
	}
	return BuildPattern(v)
}

func decode(input string) (interface{}, error) {
	var v Value
	if err := yaml.Unmarshal([]byte(input), &v); err != nil {
		return nil, errors.Wrap(err, "parsing expression")
	}
	if v.v == nil {
		return nil, errors.New("empty expression")
	}
	return v.v, nil
}

// Value is a YAML value decoded for the expression notation. Plain scalars
// are resolved the way YAML 1.2 resolves them: only true and false are
// booleans, so names such as y, no or off stay strings.
type Value struct {
	v interface{}
}

// Interface returns the decoded value: a []interface{} for a list, a
// map[interface{}]interface{} with string keys for a map, or a scalar. The
// result can be passed to BuildNode, BuildExpr or BuildPattern.
func (v Value) Interface() interface{} {
	return v.v
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (v *Value) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch raw.(type) {
	case []interface{}:
		var items []Value
		if err := unmarshal(&items); err != nil {
			return err
		}
		l := make([]interface{}, len(items))
		for i := range items {
			l[i] = items[i].v
		}
		v.v = l

	case map[interface{}]interface{}:
		var fields map[string]Value
		if err := unmarshal(&fields); err != nil {
			return err
		}
		m := make(map[interface{}]interface{}, len(fields))
		for k, f := range fields {
			m[k] = f.v
		}
		v.v = m

	case bool:
		// yaml.v2 also treats y, yes, on, n, no and off as booleans.
		var text string
		if err := unmarshal(&text); err != nil {
			return err
		}
		if _, err := strconv.ParseBool(text); err != nil {
			v.v = text
		} else {
			v.v = raw
		}

	default:
		v.v = raw
	}
	return nil
}

// list is the decoded form of one [op, {privates}, children...] element.
type list struct {
	op       opt.Operator
	private  map[interface{}]interface{}
	children []interface{}
}

func parseList(v interface{}) (list, error) {
	items, ok := v.([]interface{})
	if !ok || len(items) == 0 {
		return list{}, errors.Newf("expected a non-empty list, found %v", v)
	}
	name, ok := items[0].(string)
	if !ok {
		return list{}, errors.Newf("expected an operator name, found %v", items[0])
	}
	op, ok := shorthands[name]
	if !ok {
		if op, ok = opt.OperatorByName(name); !ok {
			return list{}, errors.Newf("unknown operator %q", name)
		}
	}
	l := list{op: op, children: items[1:]}
	if len(l.children) > 0 {
		if m, ok := l.children[0].(map[interface{}]interface{}); ok {
			l.private, l.children = m, l.children[1:]
		}
	}
	return l, nil
}

// BuildNode builds an optimizer node tree from a decoded YAML value.
func BuildNode(v interface{}) (*opt.Node, error) {
	l, err := parseList(v)
	if err != nil {
		return nil, err
	}

	var content opt.Content
	switch l.op {
	case opt.ConstOp:
		d, err := buildConst(l.children)
		if err != nil {
			return nil, err
		}
		return opt.NewNode(ops.NewConst(d)), nil

	case opt.VariableOp:
		name, err := buildName(l.children)
		if err != nil {
			return nil, err
		}
		return opt.NewNode(ops.NewVariable(name)), nil

	case opt.LeafOp:
		g, err := intField(l.private, "group")
		if err != nil {
			return nil, err
		}
		return opt.NewLeafNode(opt.GroupID(g)), nil
	}

	content, err = buildContent(l)
	if err != nil {
		return nil, err
	}
	children := make([]*opt.Node, len(l.children))
	for i := range l.children {
		if children[i], err = BuildNode(l.children[i]); err != nil {
			return nil, err
		}
	}
	return opt.NewNode(content, children...), nil
}

func buildContent(l list) (opt.Content, error) {
	switch l.op {
	case opt.GetOp, opt.SeqScanOp:
		scan, err := buildTableScan(l.private)
		if err != nil {
			return nil, err
		}
		if l.op == opt.GetOp {
			get := ops.NewGet(scan.Table, scan.Alias)
			get.TableScanPrivate = scan
			return get, nil
		}
		seq := ops.NewSeqScan(scan.Table, scan.Alias)
		seq.TableScanPrivate = scan
		return seq, nil

	case opt.ExternalFileGetOp, opt.ExternalFileScanOp:
		path, err := stringField(l.private, "path")
		if err != nil {
			return nil, err
		}
		format, err := stringField(l.private, "format")
		if err != nil {
			return nil, err
		}
		if l.op == opt.ExternalFileGetOp {
			return ops.NewExternalFileGet(path, format), nil
		}
		return ops.NewExternalFileScan(path, format), nil

	case opt.InnerJoinOp, opt.HashJoinOp, opt.NestedLoopJoinOp:
		on, err := exprField(l.private, "condition")
		if err != nil {
			return nil, err
		}
		switch l.op {
		case opt.InnerJoinOp:
			return ops.NewInnerJoin(on), nil
		case opt.HashJoinOp:
			return ops.NewHashJoin(on), nil
		}
		return ops.NewNestedLoopJoin(on), nil

	case opt.FilterOp, opt.PhysicalFilterOp:
		pred, err := exprField(l.private, "predicate")
		if err != nil {
			return nil, err
		}
		if l.op == opt.FilterOp {
			return ops.NewFilter(pred), nil
		}
		return ops.NewPhysicalFilter(pred), nil

	case opt.ProjectOp, opt.PhysicalProjectOp:
		cols, err := stringsField(l.private, "columns")
		if err != nil {
			return nil, err
		}
		if l.op == opt.ProjectOp {
			return ops.NewProject(cols...), nil
		}
		return ops.NewPhysicalProject(cols...), nil

	case opt.LimitOp, opt.PhysicalLimitOp:
		count, err := intField(l.private, "count")
		if err != nil {
			return nil, err
		}
		if l.op == opt.LimitOp {
			return ops.NewLimit(count), nil
		}
		return ops.NewPhysicalLimit(count), nil

	case opt.TableFreeScanOp:
		return &ops.TableFreeScan{}, nil

	case opt.AndOp:
		return ops.NewAnd(), nil

	case opt.OrOp:
		return ops.NewOr(), nil

	case opt.NotOp:
		return ops.NewNot(), nil
	}

	if l.op.IsComparison() {
		return ops.NewComparison(l.op), nil
	}
	if l.op.IsArithmetic() {
		return ops.NewArithmetic(l.op), nil
	}
	return nil, errors.Newf("%s cannot be used in an expression", l.op)
}

func buildTableScan(private map[interface{}]interface{}) (ops.TableScanPrivate, error) {
	var p ops.TableScanPrivate
	db, err := intField(private, "db")
	if err != nil {
		return p, err
	}
	schema, err := intField(private, "schema")
	if err != nil {
		return p, err
	}
	table, err := intField(private, "table")
	if err != nil {
		return p, err
	}
	if p.Alias, err = stringField(private, "alias"); err != nil {
		return p, err
	}
	if p.Predicate, err = exprField(private, "predicate"); err != nil {
		return p, err
	}
	if p.ForUpdate, err = boolField(private, "for_update"); err != nil {
		return p, err
	}
	p.Table = cat.TableRef{
		Database: cat.DatabaseID(db), Schema: cat.SchemaID(schema), Table: cat.TableID(table),
	}
	return p, nil
}

// BuildExpr builds a scalar expression from a decoded YAML value.
func BuildExpr(v interface{}) (tree.Expr, error) {
	l, err := parseList(v)
	if err != nil {
		return nil, err
	}
	if l.private != nil {
		return nil, errors.Newf("%s does not take private fields", l.op)
	}

	switch l.op {
	case opt.ConstOp:
		return buildConst(l.children)

	case opt.VariableOp:
		name, err := buildName(l.children)
		if err != nil {
			return nil, err
		}
		return tree.NewColumnItem(name), nil

	case opt.NotOp:
		if len(l.children) != 1 {
			return nil, errors.Newf("not expects 1 operand, found %d", len(l.children))
		}
		e, err := BuildExpr(l.children[0])
		if err != nil {
			return nil, err
		}
		return tree.NewNotExpr(e), nil
	}

	if !l.op.IsScalar() {
		return nil, errors.Newf("%s is not a scalar operator", l.op)
	}
	if len(l.children) != 2 {
		return nil, errors.Newf("%s expects 2 operands, found %d", l.op, len(l.children))
	}
	left, err := BuildExpr(l.children[0])
	if err != nil {
		return nil, err
	}
	right, err := BuildExpr(l.children[1])
	if err != nil {
		return nil, err
	}

	switch {
	case l.op == opt.AndOp:
		return tree.NewAndExpr(left, right), nil
	case l.op == opt.OrOp:
		return tree.NewOrExpr(left, right), nil
	case l.op.IsComparison():
		return tree.NewComparisonExpr(ops.NewComparison(l.op).TreeOperator(), left, right), nil
	default:
		return tree.NewBinaryExpr(ops.NewArithmetic(l.op).TreeOperator(), left, right), nil
	}
}

// BuildPattern builds a pattern from a decoded YAML value.
func BuildPattern(v interface{}) (*opt.Pattern, error) {
	l, err := parseList(v)
	if err != nil {
		return nil, err
	}
	if l.private != nil {
		return nil, errors.Newf("patterns do not take private fields")
	}
	p := opt.NewPattern(l.op)
	for _, c := range l.children {
		child, err := BuildPattern(c)
		if err != nil {
			return nil, err
		}
		p.AddChild(child)
	}
	return p, nil
}

func buildConst(args []interface{}) (tree.Datum, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, errors.Newf("const expects a value and an optional type, found %d arguments", len(args))
	}
	if len(args) == 2 {
		typ, ok := args[1].(string)
		if !ok {
			return nil, errors.Newf("expected a type name, found %v", args[1])
		}
		return parseTypedConst(fmt.Sprint(args[0]), typ)
	}

	switch t := args[0].(type) {
	case nil:
		return tree.DNull, nil
	case bool:
		return tree.MakeDBool(tree.DBool(t)), nil
	case int:
		return tree.NewDInt(tree.DInt(t)), nil
	case int64:
		return tree.NewDInt(tree.DInt(t)), nil
	case uint64:
		return tree.ParseDDecimal(strconv.FormatUint(t, 10))
	case float64:
		return tree.ParseDDecimal(strconv.FormatFloat(t, 'f', -1, 64))
	case string:
		return tree.NewDString(t), nil
	}
	return nil, errors.Newf("unsupported constant %v", args[0])
}

func parseTypedConst(s, typ string) (tree.Datum, error) {
	switch typ {
	case "int":
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse %q as type int", s)
		}
		return tree.NewDInt(tree.DInt(i)), nil
	case "decimal":
		return tree.ParseDDecimal(s)
	case "string":
		return tree.NewDString(s), nil
	case "bool":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse %q as type bool", s)
		}
		return tree.MakeDBool(tree.DBool(b)), nil
	}
	return nil, errors.Newf("unknown type %q", typ)
}

func buildName(args []interface{}) (string, error) {
	if len(args) != 1 {
		return "", errors.Newf("variable expects a name, found %d arguments", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return "", errors.Newf("expected a column name, found %v", args[0])
	}
	return name, nil
}

func intField(private map[interface{}]interface{}, key string) (int64, error) {
	v, ok := private[key]
	if !ok {
		return 0, nil
	}
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	}
	return 0, errors.Newf("%s: expected an integer, found %v", key, v)
}

func stringField(private map[interface{}]interface{}, key string) (string, error) {
	v, ok := private[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf("%s: expected a string, found %v", key, v)
	}
	return s, nil
}

func boolField(private map[interface{}]interface{}, key string) (bool, error) {
	v, ok := private[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Newf("%s: expected a boolean, found %v", key, v)
	}
	return b, nil
}

func stringsField(private map[interface{}]interface{}, key string) ([]string, error) {
	v, ok := private[key]
	if !ok {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.Newf("%s: expected a list, found %v", key, v)
	}
	res := make([]string, len(items))
	for i := range items {
		s, ok := items[i].(string)
		if !ok {
			return nil, errors.Newf("%s: expected a string, found %v", key, items[i])
		}
		res[i] = s
	}
	return res, nil
}

func exprField(private map[interface{}]interface{}, key string) (tree.Expr, error) {
	v, ok := private[key]
	if !ok {
		return nil, nil
	}
	e, err := BuildExpr(v)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", key)
	}
	return e, nil
}
