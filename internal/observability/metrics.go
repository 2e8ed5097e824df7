package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "edgarvault.requests.total"
	metricRequestDuration  = "edgarvault.request.duration.seconds"
	metricErrorsTotal      = "edgarvault.errors.total"
	metricInflightRequests = "edgarvault.inflight.requests"
	metricCacheHits        = "edgarvault.cache.hits.total"
	metricCacheMisses      = "edgarvault.cache.misses.total"
	metricCacheEvictions   = "edgarvault.cache.evictions.total"
	metricCacheEntries     = "edgarvault.cache.entries"

	attrOp     = "op"
	attrStatus = "status"
	attrCache  = "cache"

	// StatusOK and StatusError are the status label values.
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 10min: a full 10-K download and
// upload can take minutes on slow links.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		requestsTotal:    b.counter(metricRequestsTotal, "Total number of operations", "{request}"),
		requestDuration:  b.histogram(metricRequestDuration, "Operation duration in seconds", "s", durationBucketBoundaries...),
		errorsTotal:      b.counter(metricErrorsTotal, "Total number of failed operations", "{error}"),
		inflightRequests: b.upDownCounter(metricInflightRequests, "Number of in-flight operations", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRequest records a completed operation. Safe on a nil receiver.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// CacheStats is a point-in-time cache snapshot.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// RegisterCacheMetrics exports a cache through observable instruments read
// at collection time. The returned registration can be unregistered.
func RegisterCacheMetrics(mt metric.Meter, name string, stats func() CacheStats) (metric.Registration, error) {
	b := newMetricBuilder(mt)

	hits := b.observableCounter(metricCacheHits, "Cache hits", "{hit}")
	misses := b.observableCounter(metricCacheMisses, "Cache misses", "{miss}")
	evictions := b.observableCounter(metricCacheEvictions, "Cache evictions", "{eviction}")
	entries := b.gauge(metricCacheEntries, "Entries currently cached", "{entry}")

	if b.err != nil {
		return nil, b.err
	}

	attrs := metric.WithAttributes(attribute.String(attrCache, name))

	reg, err := mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		s := stats()
		obs.ObserveInt64(hits, s.Hits, attrs)
		obs.ObserveInt64(misses, s.Misses, attrs)
		obs.ObserveInt64(evictions, s.Evictions, attrs)
		obs.ObserveInt64(entries, int64(s.Entries), attrs)

		return nil
	}, hits, misses, evictions, entries)
	if err != nil {
		return nil, fmt.Errorf("register %s cache callback: %w", name, err)
	}

	return reg, nil
}
