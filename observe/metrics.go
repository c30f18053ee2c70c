package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records dispatch cache traffic and kernel invocations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording is fire-and-forget.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordInvoke records one kernel invocation, whether the handle came
	// from the cache (hit) and how long the whole dispatch took.
	RecordInvoke(ctx context.Context, meta KernelMeta, duration time.Duration, hit bool, err error)

	// RecordLoad records one artifact load attempt with its duration.
	RecordLoad(ctx context.Context, meta KernelMeta, duration time.Duration, err error)

	// RecordEviction records one handle cache eviction.
	RecordEviction(ctx context.Context, funcID string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	invokeCount  metric.Int64Counter
	errorCount   metric.Int64Counter
	hitCount     metric.Int64Counter
	missCount    metric.Int64Counter
	evictCount   metric.Int64Counter
	loadDuration metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	invokeCount, err := meter.Int64Counter(
		"kernel.dispatch.invocations",
		metric.WithDescription("Total number of kernel invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"kernel.dispatch.errors",
		metric.WithDescription("Total number of failed kernel dispatches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	hitCount, err := meter.Int64Counter(
		"kernel.cache.hits",
		metric.WithDescription("Handle cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	missCount, err := meter.Int64Counter(
		"kernel.cache.misses",
		metric.WithDescription("Handle cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	evictCount, err := meter.Int64Counter(
		"kernel.cache.evictions",
		metric.WithDescription("Handle cache evictions"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return nil, err
	}

	loadDuration, err := meter.Float64Histogram(
		"kernel.load.duration_ms",
		metric.WithDescription("Artifact load duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		invokeCount:  invokeCount,
		errorCount:   errorCount,
		hitCount:     hitCount,
		missCount:    missCount,
		evictCount:   evictCount,
		loadDuration: loadDuration,
	}, nil
}

func kernelAttrs(meta KernelMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("kernel.func_id", meta.FuncID),
	}
	if meta.Base != "" {
		attrs = append(attrs, attribute.String("kernel.base", meta.Base))
	}
	if meta.Subfolder != "" {
		attrs = append(attrs, attribute.String("kernel.subfolder", meta.Subfolder))
	}
	return metric.WithAttributes(attrs...)
}

// RecordInvoke records one kernel invocation.
func (m *metricsImpl) RecordInvoke(ctx context.Context, meta KernelMeta, duration time.Duration, hit bool, err error) {
	opt := kernelAttrs(meta)

	m.invokeCount.Add(ctx, 1, opt)
	if hit {
		m.hitCount.Add(ctx, 1, opt)
	} else {
		m.missCount.Add(ctx, 1, opt)
	}
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
}

// RecordLoad records one artifact load attempt.
func (m *metricsImpl) RecordLoad(ctx context.Context, meta KernelMeta, duration time.Duration, err error) {
	opt := kernelAttrs(meta)
	m.loadDuration.Record(ctx, float64(duration.Milliseconds()), opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
}

// RecordEviction records one handle cache eviction.
func (m *metricsImpl) RecordEviction(ctx context.Context, funcID string) {
	m.evictCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kernel.func_id", funcID),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordInvoke(ctx context.Context, meta KernelMeta, duration time.Duration, hit bool, err error) {
}
func (m *noopMetrics) RecordLoad(ctx context.Context, meta KernelMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordEviction(ctx context.Context, funcID string) {}
