// Package catalog 周期性地从外部来源加载目录快照并整体替换内存目录。
package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Store 接收新加载的目录快照。
type Store interface {
	Replace(snapshot *po.CatalogSnapshot) uint64
}

// Refresher 作为 Kratos transport.Server 运行：启动时加载一次，之后按固定间隔重新加载。
// 加载失败时保留上一份快照，等待下一个周期。
type Refresher struct {
	source   repositories.CatalogSource
	store    Store
	interval time.Duration

	ready    atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}

	loads metric.Int64Counter
	log   *log.Helper
}

// NewRefresher 构造刷新任务；interval <= 0 时只在启动时加载一次。
func NewRefresher(source repositories.CatalogSource, store Store, interval time.Duration, meter metric.Meter, logger log.Logger) *Refresher {
	r := &Refresher{
		source:   source,
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		log:      log.NewHelper(logger),
	}
	if meter != nil {
		counter, err := meter.Int64Counter("feed_catalog_loads_total",
			metric.WithDescription("Catalog snapshot loads, labelled by source and result"))
		if err != nil {
			r.log.Warnf("catalog metrics: %v", err)
		} else {
			r.loads = counter
		}
	}
	return r
}

// Ready 报告是否已成功加载过至少一次目录。
func (r *Refresher) Ready() bool {
	return r.ready.Load()
}

// Refresh 立即加载一次目录并替换。
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("catalog refresher: source is not configured")
	}
	start := time.Now()
	snapshot, err := r.source.Load(ctx)
	if err != nil {
		r.record(ctx, "error")
		return fmt.Errorf("load catalog from %s: %w", r.source.Name(), err)
	}
	version := r.store.Replace(snapshot)
	r.ready.Store(true)
	r.record(ctx, "ok")
	r.log.WithContext(ctx).Infof("catalog refreshed: source=%s version=%d items=%d courses=%d elapsed=%s",
		r.source.Name(), version, len(snapshot.Items), len(snapshot.Courses), time.Since(start))
	return nil
}

// Start 执行首次加载并进入刷新循环，直到 ctx 取消或 Stop 被调用。
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		r.log.WithContext(ctx).Errorf("initial catalog load failed: %v", err)
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.stopCh:
			return nil
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.WithContext(ctx).Warnf("catalog refresh failed, keeping previous snapshot: %v", err)
			}
		}
	}
}

// Stop 结束刷新循环。
func (r *Refresher) Stop(context.Context) error {
	r.stopOnce.Do(func() { close(r.stopCh) })
	return nil
}

func (r *Refresher) record(ctx context.Context, result string) {
	if r.loads == nil {
		return
	}
	r.loads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", r.source.Name()),
		attribute.String("result", result),
	))
}
