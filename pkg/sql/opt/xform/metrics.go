// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the work done by planning sessions. A single Metrics may be
// shared by any number of concurrent sessions. All methods are safe to call
// on a nil *Metrics, which records nothing.
type Metrics struct {
	TasksExecuted     prometheus.Counter
	TasksDiscarded    prometheus.Counter
	ExprsRecorded     prometheus.Counter
	DuplicateExprs    prometheus.Counter
	RuleApplications  *prometheus.CounterVec
	RewritePasses     prometheus.Histogram
	RewriteNoConverge prometheus.Counter
}

// NewMetrics returns a new set of unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		TasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optsearch",
			Subsystem: "tasks",
			Name:      "executed_total",
			Help:      "Counter of optimizer tasks executed.",
		}),
		TasksDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optsearch",
			Subsystem: "tasks",
			Name:      "discarded_total",
			Help:      "Counter of optimizer tasks released without being executed.",
		}),
		ExprsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optsearch",
			Subsystem: "memo",
			Name:      "exprs_recorded_total",
			Help:      "Counter of expressions added to a memo.",
		}),
		DuplicateExprs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optsearch",
			Subsystem: "memo",
			Name:      "duplicate_exprs_total",
			Help:      "Counter of recorded expressions that were already in the memo.",
		}),
		RuleApplications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optsearch",
			Subsystem: "rules",
			Name:      "applications_total",
			Help:      "Counter of rule transformations, by rule.",
		}, []string{"rule"}),
		RewritePasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optsearch",
			Subsystem: "rewrite",
			Name:      "passes",
			Help:      "Number of passes the rewriter needed to reach a fixed point.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		RewriteNoConverge: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optsearch",
			Subsystem: "rewrite",
			Name:      "no_convergence_total",
			Help:      "Counter of rewrites that gave up before reaching a fixed point.",
		}),
	}
}

// Register registers every collector with the registerer.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.TasksExecuted,
		m.TasksDiscarded,
		m.ExprsRecorded,
		m.DuplicateExprs,
		m.RuleApplications,
		m.RewritePasses,
		m.RewriteNoConverge,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) taskExecuted() {
	if m != nil {
		m.TasksExecuted.Inc()
	}
}

func (m *Metrics) tasksDiscarded(n int) {
	if m != nil && n > 0 {
		m.TasksDiscarded.Add(float64(n))
	}
}

func (m *Metrics) exprRecorded(added bool) {
	if m == nil {
		return
	}
	if added {
		m.ExprsRecorded.Inc()
	} else {
		m.DuplicateExprs.Inc()
	}
}

// RuleApplied counts one transformation by the named rule.
func (m *Metrics) RuleApplied(rule string) {
	if m != nil {
		m.RuleApplications.WithLabelValues(rule).Inc()
	}
}

// RewriteFinished records the number of passes a rewrite took, and whether it
// reached a fixed point.
func (m *Metrics) RewriteFinished(passes int, converged bool) {
	if m == nil {
		return
	}
	m.RewritePasses.Observe(float64(passes))
	if !converged {
		m.RewriteNoConverge.Inc()
	}
}
