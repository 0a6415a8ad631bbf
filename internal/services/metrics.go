package services

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricNameMutations     = "feed_engagement_mutations_total"
	metricNameFeedRecompute = "feed_recompute_duration_ms"
	metricNameFeedSize      = "feed_recompute_items"
)

// Metrics 汇总互动与 Feed 相关的指标，meter 为空时所有记录为空操作。
type Metrics struct {
	mutations metric.Int64Counter
	recompute metric.Float64Histogram
	feedSize  metric.Int64Histogram
	enabled   bool
}

// NewMetrics 注册服务层指标。
func NewMetrics(meter metric.Meter, logger log.Logger) *Metrics {
	m := &Metrics{}
	if meter == nil {
		return m
	}
	helper := log.NewHelper(logger)

	var err error
	if m.mutations, err = meter.Int64Counter(metricNameMutations,
		metric.WithDescription("Number of engagement mutations, labelled by op and noop")); err != nil {
		helper.Warnf("services metrics: register mutation counter: %v", err)
		return m
	}
	if m.recompute, err = meter.Float64Histogram(metricNameFeedRecompute,
		metric.WithDescription("Latency of personalized feed recomputation"), metric.WithUnit("ms")); err != nil {
		helper.Warnf("services metrics: register recompute histogram: %v", err)
	}
	if m.feedSize, err = meter.Int64Histogram(metricNameFeedSize,
		metric.WithDescription("Number of items in a recomputed feed")); err != nil {
		helper.Warnf("services metrics: register feed size histogram: %v", err)
	}
	m.enabled = true
	return m
}

func (m *Metrics) recordMutation(ctx context.Context, op string, noop bool) {
	if m == nil || !m.enabled || m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("noop", noop),
	))
}

func (m *Metrics) recordRecompute(ctx context.Context, elapsed time.Duration, size int) {
	if m == nil || !m.enabled {
		return
	}
	if m.recompute != nil {
		m.recompute.Record(ctx, float64(elapsed.Microseconds())/1000)
	}
	if m.feedSize != nil {
		m.feedSize.Record(ctx, int64(size))
	}
}
