package services_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/events"
	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"
	"github.com/bionicotaku/lingo-services-feed/internal/services"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var baseTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func discard() log.Logger { return log.NewStdLogger(io.Discard) }

// fakeClock 是可手动推进的时钟。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: baseTime} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// fixtureCatalog 构造三条内容与一个课程：
// v1 (50s, c1, Spanish, 今天) / v2 (60s, c2, Python, 1 天前) / v3 (30s, c1, Spanish, 2 天前)。
func fixtureCatalog(t *testing.T) *repositories.CatalogRepository {
	t.Helper()
	repo := repositories.NewCatalogRepository(discard())
	repo.Replace(&po.CatalogSnapshot{
		Items: []po.ContentItem{
			{ID: "v1", Title: "Spanish Basics", Duration: 50 * time.Second, CreatorID: "c1", Creator: po.Creator{ID: "c1", Name: "Sarah"},
				Topics: []string{"Spanish"}, SkillLevel: po.SkillBeginner, Likes: 10, Views: 100, CreatedAt: baseTime},
			{ID: "v2", Title: "Python Loops", Duration: time.Minute, CreatorID: "c2", Creator: po.Creator{ID: "c2", Name: "Marcus"},
				Topics: []string{"Python"}, SkillLevel: po.SkillIntermediate, Likes: 5, Views: 50, CreatedAt: baseTime.AddDate(0, 0, -1)},
			{ID: "v3", Title: "Spanish Verbs", Duration: 30 * time.Second, CreatorID: "c1", Creator: po.Creator{ID: "c1", Name: "Sarah"},
				Topics: []string{"Spanish"}, SkillLevel: po.SkillBeginner, CreatedAt: baseTime.AddDate(0, 0, -2)},
		},
		Courses: []po.Course{
			{ID: "course-1", Title: "Spanish 101", CreatorID: "c1", ContentIDs: []string{"v1", "v3"}},
			{ID: "course-2", Title: "Python 101", CreatorID: "c2", ContentIDs: []string{"v2"}},
		},
	})
	return repo
}

// recordingSink 收集投递的事件。
type recordingSink struct {
	mu     sync.Mutex
	events []events.EngagementEvent
}

func (s *recordingSink) Emit(_ context.Context, evt events.EngagementEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordingSink) kinds() []events.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Kind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

type storeFixture struct {
	store   *services.EngagementStore
	catalog *repositories.CatalogRepository
	clock   *fakeClock
	sink    *recordingSink
	reader  *sdkmetric.ManualReader
	metrics *services.Metrics
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("feed.services.test")
	f := &storeFixture{
		catalog: fixtureCatalog(t),
		clock:   newFakeClock(),
		sink:    &recordingSink{},
		reader:  reader,
		metrics: services.NewMetrics(meter, discard()),
	}
	f.store = services.NewEngagementStore("user-1", nil, f.catalog, discard(), services.StoreOptions{
		Sink:    f.sink,
		Metrics: f.metrics,
		Clock:   f.clock.Now,
		NewID:   sequentialIDs(),
	})
	return f
}

func (f *storeFixture) item(t *testing.T, id string) po.ContentItem {
	t.Helper()
	item, ok := f.catalog.Lookup(id)
	if !ok {
		t.Fatalf("content %s missing from catalog", id)
	}
	return item
}

// mutationCount 汇总 op/noop 维度的变更计数。
func (f *storeFixture) mutationCount(t *testing.T, op string, noop bool) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := f.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "feed_engagement_mutations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				gotOp, _ := dp.Attributes.Value("op")
				gotNoop, _ := dp.Attributes.Value("noop")
				if gotOp.AsString() == op && gotNoop.AsBool() == noop {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// recomputeCount 返回 Feed 重新计算的次数。
func (f *storeFixture) recomputeCount(t *testing.T) uint64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := f.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	var total uint64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "feed_recompute_items" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[int64])
			if !ok {
				continue
			}
			for _, dp := range hist.DataPoints {
				total += dp.Count
			}
		}
	}
	return total
}

// staticSource 每次加载都返回同一份目录，模拟不感知互动的外部来源。
type staticSource struct {
	snap *po.CatalogSnapshot
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Load(context.Context) (*po.CatalogSnapshot, error) {
	return s.snap, nil
}

type noopTxManager struct{}

type noopSession struct{}

func (noopSession) Tx() pgx.Tx               { return nil }
func (noopSession) Context() context.Context { return context.Background() }

func (noopTxManager) WithinTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, noopSession{})
}

func (noopTxManager) WithinReadOnlyTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, noopSession{})
}
