// Package engagement 将互动事件异步发布到 Pub/Sub。
package engagement

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/events"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config 控制本地缓冲与单条发布超时。
type Config struct {
	BufferSize     int
	PublishTimeout time.Duration
}

// Publisher 实现 services.EventSink。
//
// Emit 只向有界缓冲写入，缓冲已满时丢弃事件并计数，互动变更永远不会因发布而阻塞。
// 后台循环作为 Kratos transport.Server 运行，Stop 时尽力清空剩余缓冲。
type Publisher struct {
	publish PublishFunc
	queue   chan events.EngagementEvent
	timeout time.Duration

	dropped   atomic.Int64
	published atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool

	metrics *metrics
	log     *log.Helper
}

// PublishFunc 发送单条消息。
type PublishFunc func(ctx context.Context, msg gcpubsub.Message) error

// FromGCPubSub 将 gcpubsub.Publisher 适配为 PublishFunc，pub 为空时返回 nil。
func FromGCPubSub(pub gcpubsub.Publisher) PublishFunc {
	if pub == nil {
		return nil
	}
	return func(ctx context.Context, msg gcpubsub.Message) error {
		_, err := pub.Publish(ctx, msg)
		return err
	}
}

// NewPublisher 构造事件发布器；publish 为空时事件仅被计为丢弃。
func NewPublisher(publish PublishFunc, cfg Config, meter metric.Meter, logger log.Logger) *Publisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &Publisher{
		publish: publish,
		queue:   make(chan events.EngagementEvent, cfg.BufferSize),
		timeout: cfg.PublishTimeout,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		metrics: newMetrics(meter, logger),
		log:     log.NewHelper(logger),
	}
}

// Emit 非阻塞地提交事件。
func (p *Publisher) Emit(ctx context.Context, evt events.EngagementEvent) {
	if p == nil {
		return
	}
	if p.publish == nil {
		p.drop(ctx, evt, "disabled")
		return
	}
	select {
	case <-p.stopCh:
		p.drop(ctx, evt, "stopped")
		return
	default:
	}
	select {
	case p.queue <- evt:
	default:
		p.drop(ctx, evt, "buffer_full")
	}
}

// Dropped 返回累计丢弃数。
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Published 返回累计发布成功数。
func (p *Publisher) Published() int64 { return p.published.Load() }

// Start 运行发布循环，直到 ctx 取消或 Stop 被调用。
func (p *Publisher) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return nil
	}
	defer close(p.doneCh)
	p.log.WithContext(ctx).Infof("engagement publisher started: buffer=%d enabled=%v", cap(p.queue), p.publish != nil)

	for {
		select {
		case <-ctx.Done():
			p.drain(context.WithoutCancel(ctx))
			return nil
		case <-p.stopCh:
			p.drain(ctx)
			return nil
		case evt := <-p.queue:
			p.send(ctx, evt)
		}
	}
}

// Stop 通知循环退出并等待剩余事件发出，受 ctx 截止时间约束。
func (p *Publisher) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if !p.started.Load() {
		return nil
	}
	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) drain(ctx context.Context) {
	for {
		select {
		case evt := <-p.queue:
			p.send(ctx, evt)
		default:
			return
		}
	}
}

func (p *Publisher) send(ctx context.Context, evt events.EngagementEvent) {
	payload, err := events.MarshalPayload(evt)
	if err != nil {
		p.log.WithContext(ctx).Errorf("marshal engagement event failed: event_id=%s err=%v", evt.EventID, err)
		p.metrics.recordFailure(ctx, evt.Type)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := gcpubsub.Message{
		Data:       payload,
		Attributes: events.BuildAttributes(evt, events.SchemaVersionV1, events.TraceIDFromContext(ctx)),
	}
	if err := p.publish(pubCtx, msg); err != nil {
		p.log.WithContext(ctx).Warnf("publish engagement event failed: event_id=%s type=%s err=%v", evt.EventID, evt.Type, err)
		p.metrics.recordFailure(ctx, evt.Type)
		return
	}
	p.published.Add(1)
	p.metrics.recordPublished(ctx, evt.Type)
}

func (p *Publisher) drop(ctx context.Context, evt events.EngagementEvent, reason string) {
	p.dropped.Add(1)
	p.metrics.recordDropped(ctx, evt.Type, reason)
	p.log.WithContext(ctx).Debugf("engagement event dropped: event_id=%s type=%s reason=%s", evt.EventID, evt.Type, reason)
}

type metrics struct {
	published metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
}

func newMetrics(meter metric.Meter, logger log.Logger) *metrics {
	if meter == nil {
		return nil
	}
	helper := log.NewHelper(logger)
	m := &metrics{}
	var err error
	if m.published, err = meter.Int64Counter("feed_engagement_events_published_total"); err != nil {
		helper.Warnf("engagement metrics: %v", err)
	}
	if m.failed, err = meter.Int64Counter("feed_engagement_events_failed_total"); err != nil {
		helper.Warnf("engagement metrics: %v", err)
	}
	if m.dropped, err = meter.Int64Counter("feed_engagement_events_dropped_total"); err != nil {
		helper.Warnf("engagement metrics: %v", err)
	}
	return m
}

func (m *metrics) recordPublished(ctx context.Context, eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (m *metrics) recordFailure(ctx context.Context, eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (m *metrics) recordDropped(ctx context.Context, eventType, reason string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("reason", reason),
	))
}
