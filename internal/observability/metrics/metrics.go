package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "radar_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	sourceFetchTotal   *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec

	refreshTotal *prometheus.CounterVec
	eventsLoaded prometheus.Gauge

	alertsTotal  *prometheus.CounterVec
	checkLatency prometheus.Histogram

	exportTotal *prometheus.CounterVec
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		sourceFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "source_fetch_total",
				Help: "Total event source fetches by source and result",
			},
			[]string{"source", "result"},
		)
		sourceFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "source_fetch_latency_seconds",
				Help:    "Event source fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)

		refreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_refresh_total",
				Help: "Total event snapshot refreshes by result",
			},
			[]string{"result"},
		)
		eventsLoaded = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "events_loaded",
				Help: "Events in the current snapshot",
			},
		)

		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Total emitted alerts by type",
			},
			[]string{"type"},
		)
		checkLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "alert_check_latency_seconds",
				Help:    "Alert check pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			sourceFetchTotal,
			sourceFetchLatency,
			refreshTotal,
			eventsLoaded,
			alertsTotal,
			checkLatency,
			exportTotal,
		)
	})
}

// ObserveSourceFetch records a source fetch result and duration.
func ObserveSourceFetch(source string, err error, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if sourceFetchTotal != nil {
		sourceFetchTotal.WithLabelValues(source, result).Inc()
	}
	if sourceFetchLatency != nil {
		sourceFetchLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// ObserveRefresh records a snapshot refresh and the resulting event count.
func ObserveRefresh(err error, eventCount int) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if refreshTotal != nil {
		refreshTotal.WithLabelValues(result).Inc()
	}
	if eventsLoaded != nil && err == nil {
		eventsLoaded.Set(float64(eventCount))
	}
}

// IncAlert increments the alert counter for a type.
func IncAlert(alertType string) {
	if alertType == "" {
		alertType = "unknown"
	}
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(alertType).Inc()
	}
}

// ObserveCheck records an alert check pass duration.
func ObserveCheck(duration time.Duration) {
	if checkLatency != nil {
		checkLatency.Observe(duration.Seconds())
	}
}

// IncExport counts a report export by format and result.
func IncExport(format string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}
