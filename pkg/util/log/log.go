// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log is the logging front-end used by the optimizer packages. Every
// call takes a context.Context whose logtags are prepended to the message, so
// that output from concurrent planning sessions can be told apart. Messages
// are rendered with redaction awareness and handed to glog for output.
package log

import (
	"context"

	"github.com/golang/glog"
)

// Level specifies a level of verbosity for V logs.
type Level int32

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level Level) bool {
	return bool(glog.V(glog.Level(level)))
}

// Infof logs to the INFO log.
func Infof(ctx context.Context, format string, args ...interface{}) {
	glog.InfoDepth(1, formatEntry(ctx, format, args))
}

// InfofDepth logs to the INFO log, offsetting the caller's stack frame by
// 'depth'.
func InfofDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	glog.InfoDepth(depth+1, formatEntry(ctx, format, args))
}

// Warningf logs to the WARNING and INFO logs.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	glog.WarningDepth(1, formatEntry(ctx, format, args))
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	glog.ErrorDepth(1, formatEntry(ctx, format, args))
}

// VEventf logs to the INFO log if the verbosity is at least the given level.
// The optimizer uses it for per-task and per-rule tracing, which is far too
// chatty to emit by default.
func VEventf(ctx context.Context, level Level, format string, args ...interface{}) {
	if V(level) {
		glog.InfoDepth(1, formatEntry(ctx, format, args))
	}
}

// Flush writes any buffered log entries.
func Flush() {
	glog.Flush()
}
