// Package metrics provides Prometheus metrics for kernel operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ralph-hq/ralph/pkg/config"
	kernelerrors "ralph-hq/ralph/pkg/kernel/errors"
)

// Collector registers and records the kernel's Prometheus metrics on a
// private registry.
type Collector struct {
	registry *prometheus.Registry

	parsesTotal    *prometheus.CounterVec
	parseFailures  *prometheus.CounterVec
	recordsParsed  *prometheus.CounterVec
	parseDuration  *prometheus.HistogramVec
	lookupsTotal   *prometheus.CounterVec
	contractReload prometheus.Counter
}

// NewCollector creates a metrics collector. If registry is nil a new private
// registry is used.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "ralph"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "kernel"
	}

	c := &Collector{
		registry: registry,
		parsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "parses_total",
			Help:      "Total number of kernel parse calls by document type and outcome.",
		}, []string{"document", "outcome"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "parse_failures_total",
			Help:      "Total number of kernel parse failures by document type and error type.",
		}, []string{"document", "error_type"}),
		recordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "records_parsed_total",
			Help:      "Total number of validated records produced by document type.",
		}, []string{"document"}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "parse_duration_seconds",
			Help:      "Kernel parse duration by document type.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"document"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "contract_lookups_total",
			Help:      "Total number of contract lookup/search requests by tool and outcome.",
		}, []string{"tool", "outcome"}),
		contractReload: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "contract_reloads_total",
			Help:      "Total number of contract document reloads.",
		}),
	}

	registry.MustRegister(
		c.parsesTotal,
		c.parseFailures,
		c.recordsParsed,
		c.parseDuration,
		c.lookupsTotal,
		c.contractReload,
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordParse records the outcome of a kernel parse call.
func (c *Collector) RecordParse(document string, records int, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		errType := "unknown"
		if kerr, ok := err.(*kernelerrors.Error); ok {
			errType = string(kerr.Type)
		}
		c.parseFailures.WithLabelValues(document, errType).Inc()
	} else {
		c.recordsParsed.WithLabelValues(document).Add(float64(records))
	}
	c.parsesTotal.WithLabelValues(document, outcome).Inc()
	c.parseDuration.WithLabelValues(document).Observe(duration.Seconds())
}

// RecordLookup records a contract lookup or search request.
func (c *Collector) RecordLookup(tool string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.lookupsTotal.WithLabelValues(tool, outcome).Inc()
}

// RecordContractReload records a contract document reload.
func (c *Collector) RecordContractReload() {
	c.contractReload.Inc()
}
