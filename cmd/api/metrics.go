package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
)

// Metric definitions for the auction engine

var (
	bidsPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "purpledog",
			Subsystem: "bidding",
			Name:      "bids_placed_total",
			Help:      "Total number of accepted bids",
		},
		[]string{"type"},
	)

	bidsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "purpledog",
			Subsystem: "bidding",
			Name:      "bids_rejected_total",
			Help:      "Total number of rejected bids",
		},
		[]string{"reason"},
	)

	cascadeDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "purpledog",
			Subsystem: "bidding",
			Name:      "cascade_depth",
			Help:      "Counter-bids synthesized per placement",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		},
	)

	auctionsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "purpledog",
			Subsystem: "auction",
			Name:      "finalized_total",
			Help:      "Total number of finalized auctions",
		},
		[]string{"outcome"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "purpledog",
			Subsystem: "auction",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one sweep pass",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)

	sweepProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "purpledog",
			Subsystem: "auction",
			Name:      "sweep_processed_total",
			Help:      "Auctions finalized by the sweep loop",
		},
	)
)

// metricsCollector adapts the Prometheus metrics to the service interfaces
type metricsCollector struct{}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{}
}

func (metricsCollector) RecordBidPlaced(_ context.Context, b *bid.Bid) {
	bidsPlacedTotal.WithLabelValues(b.Type.String()).Inc()
}

func (metricsCollector) RecordBidRejected(_ context.Context, reason string) {
	bidsRejectedTotal.WithLabelValues(reason).Inc()
}

func (metricsCollector) RecordCascadeDepth(_ context.Context, steps int) {
	cascadeDepth.Observe(float64(steps))
}

func (metricsCollector) RecordAuctionFinalized(_ context.Context, outcome string) {
	auctionsFinalizedTotal.WithLabelValues(outcome).Inc()
}

func (metricsCollector) RecordSweep(_ context.Context, duration time.Duration, processed int) {
	sweepDuration.Observe(duration.Seconds())
	sweepProcessed.Add(float64(processed))
}
