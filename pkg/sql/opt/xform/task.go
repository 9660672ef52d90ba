// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Task is one unit of search work, such as "explore this group". Tasks are
// pushed onto a TaskStack and run by Context.RunTasks, which pops each task,
// executes it and then releases it. A task may push further tasks while it
// executes; since the stack is LIFO, those run before any task that was
// already queued.
//
// Release is called exactly once for every task that is pushed, whether it
// was executed or discarded by a drain. A task must not be used after it has
// been released.
type Task interface {
	fmt.Stringer

	Execute()
	Release()
}

// TaskStack is an explicit LIFO of pending tasks. It owns every task pushed
// onto it until the task is popped, at which point the caller becomes
// responsible for executing and releasing it.
//
// The search is driven by popping tasks from the stack instead of recursing,
// so the depth of the search is not bounded by the goroutine's stack.
type TaskStack struct {
	tasks []Task
}

// NewTaskStack returns an empty task stack.
func NewTaskStack() *TaskStack {
	return &TaskStack{}
}

// Push transfers ownership of the task to the stack.
func (s *TaskStack) Push(t Task) {
	s.tasks = append(s.tasks, t)
}

// Pop removes the most recently pushed task and transfers its ownership to
// the caller. It panics if the stack is empty.
func (s *TaskStack) Pop() Task {
	n := len(s.tasks)
	if n == 0 {
		panic(errors.AssertionFailedf("pop from an empty task stack"))
	}
	t := s.tasks[n-1]
	s.tasks[n-1] = nil
	s.tasks = s.tasks[:n-1]
	return t
}

// Empty returns true if no tasks are queued.
func (s *TaskStack) Empty() bool {
	return len(s.tasks) == 0
}

// Len returns the number of queued tasks.
func (s *TaskStack) Len() int {
	return len(s.tasks)
}

// Drain releases every queued task without executing it, most recent first,
// and leaves the stack empty. It returns the number of tasks released.
func (s *TaskStack) Drain() int {
	n := len(s.tasks)
	for i := n - 1; i >= 0; i-- {
		t := s.tasks[i]
		s.tasks[i] = nil
		t.Release()
	}
	s.tasks = s.tasks[:0]
	return n
}
