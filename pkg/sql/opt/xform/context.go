// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/optsearch/pkg/sql/opt"
	"github.com/cockroachdb/optsearch/pkg/sql/opt/memo"
	"github.com/cockroachdb/optsearch/pkg/util/log"
	"github.com/google/uuid"
)

// Txn is the transaction scope that a planning session runs in.
type Txn interface {
	ID() uuid.UUID
}

// ErrTaskLimitExceeded is returned by RunTasks when the session executes more
// tasks than Settings.TaskLimit allows.
var ErrTaskLimitExceeded = errors.New("optimizer task limit exceeded")

// Context is the state of one planning session: the memo, the stack of
// pending tasks, and the collaborators that tasks use, such as the rule set
// and the coster. A Context is bound to a single transaction and is not safe
// for concurrent use; independent sessions each get their own Context and may
// run in parallel.
type Context struct {
	mem      *memo.Memo
	tasks    *TaskStack
	txn      Txn
	settings opt.Settings
	rules    *RuleSet
	coster   Coster
	metrics  *Metrics
}

// NewContext returns a session bound to the given transaction, with an empty
// memo and an empty task stack. The rule set may be nil, in which case no
// rules are applied.
func NewContext(txn Txn, settings opt.Settings, rules *RuleSet) *Context {
	if rules == nil {
		rules = NewRuleSet(nil)
	}
	return &Context{
		mem:      memo.New(),
		tasks:    NewTaskStack(),
		txn:      txn,
		settings: settings,
		rules:    rules,
		coster:   DefaultCoster{},
	}
}

// Memo returns the session's memo.
func (c *Context) Memo() *memo.Memo {
	return c.mem
}

// Txn returns the transaction the session is bound to.
func (c *Context) Txn() Txn {
	return c.txn
}

// Settings returns the session's settings.
func (c *Context) Settings() *opt.Settings {
	return &c.settings
}

// Rules returns the session's rule set.
func (c *Context) Rules() *RuleSet {
	return c.rules
}

// Coster returns the cost model used to compare physical expressions.
func (c *Context) Coster() Coster {
	return c.coster
}

// SetCoster replaces the cost model.
func (c *Context) SetCoster(coster Coster) {
	c.coster = coster
}

// Metrics returns the session's metrics, which may be nil.
func (c *Context) Metrics() *Metrics {
	return c.metrics
}

// SetMetrics sets the metrics the session reports to. Passing nil disables
// reporting.
func (c *Context) SetMetrics(m *Metrics) {
	c.metrics = m
}

// SetTxn rebinds the session to another transaction. The memo is kept.
func (c *Context) SetTxn(txn Txn) {
	c.txn = txn
}

// Reset prepares the session for a new planning goal in the given
// transaction. Pending tasks are discarded; the memo is kept so that
// re-planning can reuse the expressions recorded so far.
func (c *Context) Reset(txn Txn) {
	c.Abort()
	c.txn = txn
}

// SetTaskPool replaces the session's task stack. Every task still queued on
// the previous stack is released without being executed. The new stack may
// be nil, in which case PushTask panics until another stack is set.
func (c *Context) SetTaskPool(stack *TaskStack) {
	if c.tasks != nil && c.tasks != stack {
		c.metrics.tasksDiscarded(c.tasks.Drain())
	}
	c.tasks = stack
}

// TaskPool returns the current task stack, which may be nil.
func (c *Context) TaskPool() *TaskStack {
	return c.tasks
}

// PushTask queues a task on the current task stack.
func (c *Context) PushTask(t Task) {
	if c.tasks == nil {
		panic(errors.AssertionFailedf("no task stack to push %s onto", t))
	}
	c.tasks.Push(t)
}

// Abort releases every pending task without executing it and returns the
// number of tasks released. The memo is not modified, so the session can be
// resumed with new tasks or discarded.
func (c *Context) Abort() int {
	if c.tasks == nil {
		return 0
	}
	n := c.tasks.Drain()
	c.metrics.tasksDiscarded(n)
	return n
}

// RunTasks pops and executes tasks until the stack is empty. Each task is
// released after it executes. Before each task, RunTasks checks whether ctx
// is done and whether the settings' task limit has been reached; if so, the
// remaining tasks are released and the error is returned. The memo built so
// far is left intact either way.
func (c *Context) RunTasks(ctx context.Context) error {
	if c.tasks == nil {
		return nil
	}
	ctx = c.AnnotateCtx(ctx)
	executed := 0
	for !c.tasks.Empty() {
		if err := ctx.Err(); err != nil {
			n := c.Abort()
			log.VEventf(ctx, 1, "planning canceled, %d pending tasks discarded", n)
			return errors.Wrap(err, "running optimizer tasks")
		}
		if limit := c.settings.TaskLimit; limit > 0 && executed >= limit {
			n := c.Abort()
			log.VEventf(ctx, 1, "task limit %d reached, %d pending tasks discarded", limit, n)
			return errors.WithHintf(
				errors.Wrapf(ErrTaskLimitExceeded, "after %d tasks", executed),
				"raise task_limit, or set it to 0 to disable the limit",
			)
		}
		t := c.tasks.Pop()
		if log.V(3) {
			log.VEventf(ctx, 3, "executing %s", t)
		}
		c.runTask(t)
		executed++
		c.metrics.taskExecuted()
	}
	log.VEventf(ctx, 2, "executed %d tasks, memo has %d groups and %d exprs",
		executed, c.mem.GroupCount(), c.mem.ExprCount())
	return nil
}

func (c *Context) runTask(t Task) {
	defer t.Release()
	t.Execute()
}

// AnnotateCtx adds the session's transaction to the log tags of ctx.
func (c *Context) AnnotateCtx(ctx context.Context) context.Context {
	if c.txn == nil {
		return ctx
	}
	return logtags.AddTag(ctx, "txn", shortID(c.txn.ID()))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// RecordOptimizerNodeIntoGroup records the node tree into the memo, adding
// its root to a new group unless an equal expression is already present. It
// returns the memo expression for the root and whether it was added.
func (c *Context) RecordOptimizerNodeIntoGroup(node *opt.Node) (*memo.GroupExpr, bool) {
	return c.RecordOptimizerNodeIntoTargetGroup(node, opt.UndefinedGroup)
}

// RecordOptimizerNodeIntoTargetGroup is like RecordOptimizerNodeIntoGroup,
// but a new root expression is added to the target group.
func (c *Context) RecordOptimizerNodeIntoTargetGroup(
	node *opt.Node, target opt.GroupID,
) (*memo.GroupExpr, bool) {
	e, added := c.mem.Record(node, target)
	c.metrics.exprRecorded(added)
	return e, added
}
