// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	regionsTotal           *prometheus.CounterVec
	recordsTotal           *prometheus.CounterVec
	storeUpsertsTotal      *prometheus.CounterVec
	geocodeRequestsTotal   *prometheus.CounterVec
	geocodeDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		regionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_regions_total",
				Help: "Total number of regions processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_records_total",
				Help: "Total number of scraped store records, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		storeUpsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_store_upserts_total",
				Help: "Total number of store upserts, labeled by operation (insert or update).",
			},
			[]string{"op"},
		)

		geocodeRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocoder_requests_total",
				Help: "Total number of geocoding provider calls, labeled by provider and status.",
			},
			[]string{"provider", "status"},
		)

		geocodeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocoder_request_duration_seconds",
				Help:    "Histogram of geocoding provider call latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"provider"},
		)
	})
}

// ObserveRegion records the outcome of one crawled region.
func ObserveRegion(outcome string) {
	if regionsTotal != nil {
		regionsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRecord records the outcome of one scraped store record.
func ObserveRecord(outcome string) {
	if recordsTotal != nil {
		recordsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveUpsert records one store upsert by operation kind.
func ObserveUpsert(op string) {
	if storeUpsertsTotal != nil {
		storeUpsertsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveGeocode records one provider call with its status and latency.
func ObserveGeocode(provider, status string, elapsed time.Duration) {
	if geocodeRequestsTotal != nil {
		geocodeRequestsTotal.WithLabelValues(provider, status).Inc()
	}
	if geocodeDurationSeconds != nil {
		geocodeDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}
