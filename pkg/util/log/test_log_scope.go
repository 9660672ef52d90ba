// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"flag"
	"testing"
)

// TestLogScope represents the lifetime of a logging output redirection for a
// test. Log output is sent to a temporary directory owned by the test instead
// of stderr, which keeps verbose optimizer tracing out of test output.
type TestLogScope struct {
	dir string
	// prev holds the values of the glog flags overridden by the scope.
	prev map[string]string
}

// Scope creates a TestLogScope which corresponds to the lifetime of a logging
// directory. The logging directory is named after the calling test. Use it
// as:
//
//	defer log.Scope(t).Close(t)
func Scope(t testing.TB) *TestLogScope {
	l := &TestLogScope{dir: t.TempDir(), prev: map[string]string{}}
	l.setFlag(t, "logtostderr", "false")
	l.setFlag(t, "log_dir", l.dir)
	return l
}

// Close flushes any buffered log output and restores the glog flags that
// were in effect before the scope was created.
func (l *TestLogScope) Close(t testing.TB) {
	t.Helper()
	Flush()
	for name, value := range l.prev {
		if err := flag.Set(name, value); err != nil {
			t.Errorf("restoring log flag %s: %v", name, err)
		}
	}
}

// setFlag sets a glog flag if it is registered on the default flag set.
func (l *TestLogScope) setFlag(t testing.TB, name, value string) {
	f := flag.Lookup(name)
	if f == nil {
		return
	}
	l.prev[name] = f.Value.String()
	if err := flag.Set(name, value); err != nil {
		t.Fatalf("setting log flag %s: %v", name, err)
	}
}
