// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowstudio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "flowstudio_http_request_duration_seconds",
			Help: "Duration of HTTP requests",
		},
		[]string{"method", "route"},
	)
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowstudio_generation_duration_seconds",
			Help:    "Duration of answer generation calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "outcome"},
	)
	ExtractedPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowstudio_extracted_pages",
			Help:    "Number of pages extracted per uploaded document",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	WorkflowExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowstudio_workflow_executions_total",
			Help: "Workflow executions by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(ExtractedPages)
	prometheus.MustRegister(WorkflowExecutions)
}

// ObserveGeneration records one provider call.
func ObserveGeneration(provider string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	GenerationDuration.WithLabelValues(provider, outcome).Observe(time.Since(start).Seconds())
}
