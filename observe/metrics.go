package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for document tool calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a tool call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"firestore.op.total",
		metric.WithDescription("Total number of document tool calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"firestore.op.errors",
		metric.WithDescription("Total number of failed document tool calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"firestore.op.duration_ms",
		metric.WithDescription("Document tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordCall records metrics for a tool call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", meta.Tool),
	}
	if meta.Collection != "" {
		attrs = append(attrs, attribute.String("firestore.collection", meta.Collection))
	}

	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// NewNoopMetrics creates a Metrics implementation that records nothing.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}

type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}

// CacheSample is a point-in-time reading of the document cache, supplied by
// the cache stats callback when the gauges are observed.
type CacheSample struct {
	Size     int
	MaxSize  int
	Hits     int64
	Misses   int64
	HitRatio float64
}

// RegisterCacheGauges registers observable gauges for the document cache
// against the meter. sample is invoked on every collection cycle; it must be
// safe for concurrent use and cheap to call.
func RegisterCacheGauges(meter metric.Meter, sample func() CacheSample) error {
	size, err := meter.Int64ObservableGauge(
		"firestore.cache.size",
		metric.WithDescription("Current number of cached documents"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return err
	}

	hits, err := meter.Int64ObservableCounter(
		"firestore.cache.hits",
		metric.WithDescription("Total cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	misses, err := meter.Int64ObservableCounter(
		"firestore.cache.misses",
		metric.WithDescription("Total cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	ratio, err := meter.Float64ObservableGauge(
		"firestore.cache.hit_ratio",
		metric.WithDescription("Cache hit ratio since startup"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sample()
		o.ObserveInt64(size, int64(s.Size))
		o.ObserveInt64(hits, s.Hits)
		o.ObserveInt64(misses, s.Misses)
		o.ObserveFloat64(ratio, s.HitRatio)
		return nil
	}, size, hits, misses, ratio)
	return err
}
