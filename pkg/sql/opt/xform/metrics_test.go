// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform_test

import (
	"testing"

	"github.com/cockroachdb/optsearch/pkg/sql/opt/xform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := xform.NewMetrics()
	require.NoError(t, m.Register(reg))

	m.RuleApplied("CommuteJoin")
	m.RuleApplied("CommuteJoin")
	m.RewriteFinished(3, false /* converged */)
	require.Equal(t, float64(2), testutil.ToFloat64(m.RuleApplications.WithLabelValues("CommuteJoin")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RewriteNoConverge))
	require.Equal(t, 1, testutil.CollectAndCount(m.RewritePasses))

	// The same collectors cannot be registered twice.
	require.Error(t, xform.NewMetrics().Register(reg))
}

func TestNilMetrics(t *testing.T) {
	var m *xform.Metrics
	require.NotPanics(t, func() {
		m.RuleApplied("CommuteJoin")
		m.RewriteFinished(1, true /* converged */)
	})
}
