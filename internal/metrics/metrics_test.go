// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// getGaugeValue extracts the value from a Prometheus gauge
func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m io_prometheus_client.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func TestRecordQuery(t *testing.T) {
	before := getCounterValue(QueriesTotal.WithLabelValues("whois", "success"))

	RecordQuery("whois", "success", 120*time.Millisecond)

	after := getCounterValue(QueriesTotal.WithLabelValues("whois", "success"))
	if after != before+1 {
		t.Errorf("expected query counter to increase by 1, got %f -> %f", before, after)
	}
}

func TestRecordQueryError(t *testing.T) {
	before := getCounterValue(QueryErrors.WithLabelValues("certlog", "timeout"))

	RecordQueryError("certlog", "timeout")

	after := getCounterValue(QueryErrors.WithLabelValues("certlog", "timeout"))
	if after != before+1 {
		t.Errorf("expected error counter to increase by 1, got %f -> %f", before, after)
	}
}

func TestRecordInvestigationDone(t *testing.T) {
	before := getCounterValue(InvestigationsTotal.WithLabelValues("completed"))

	RecordInvestigationDone("completed", 42*time.Second)

	after := getCounterValue(InvestigationsTotal.WithLabelValues("completed"))
	if after != before+1 {
		t.Errorf("expected disposition counter to increase by 1, got %f -> %f", before, after)
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("webindex", 2)
	if got := getGaugeValue(BreakerState.WithLabelValues("webindex")); got != 2 {
		t.Errorf("breaker gauge = %f, want 2", got)
	}

	SetBreakerState("webindex", 0)
	if got := getGaugeValue(BreakerState.WithLabelValues("webindex")); got != 0 {
		t.Errorf("breaker gauge = %f, want 0", got)
	}
}

func TestInvestigationsActiveGauge(t *testing.T) {
	before := getGaugeValue(InvestigationsActive)

	InvestigationsActive.Inc()
	InvestigationsActive.Inc()
	InvestigationsActive.Dec()

	after := getGaugeValue(InvestigationsActive)
	if after != before+1 {
		t.Errorf("expected active gauge to net +1, got %f -> %f", before, after)
	}
}
