package repositories

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
)

// CatalogSource 抽象目录快照的外部来源（文件、GCS、Postgres）。
type CatalogSource interface {
	Load(ctx context.Context) (*po.CatalogSnapshot, error)
	Name() string
}

// CounterDelta 表示一次互动对内容计数器的增量。
type CounterDelta struct {
	Likes    int64
	Views    int64
	Comments int64
}

// CatalogRepository 持有当前目录快照。
//
// 读路径无锁：通过 atomic.Pointer 读取不可变快照。
// 写路径（刷新、计数器变更）串行化，采用写时复制发布新快照并递增 Version。
// 外部来源不感知本服务产生的互动，overlay 记录已生效的计数器增量，刷新时重新叠加。
type CatalogRepository struct {
	current atomic.Pointer[po.CatalogSnapshot]
	writeMu sync.Mutex
	overlay map[string]CounterDelta // contentID -> 累计实际生效的增量
	clock   func() time.Time
	log     *log.Helper
}

// NewCatalogRepository 构造空目录（Version=0）。
func NewCatalogRepository(logger log.Logger) *CatalogRepository {
	r := &CatalogRepository{
		overlay: make(map[string]CounterDelta),
		clock:   time.Now,
		log:     log.NewHelper(logger),
	}
	r.current.Store(&po.CatalogSnapshot{Items: []po.ContentItem{}, Courses: []po.Course{}})
	return r
}

// WithClock 替换时钟，便于测试。
func (r *CatalogRepository) WithClock(fn func() time.Time) {
	if fn != nil {
		r.clock = fn
	}
}

// Snapshot 返回当前不可变快照，调用方不得修改。
func (r *CatalogRepository) Snapshot() *po.CatalogSnapshot {
	return r.current.Load()
}

// Version 返回当前快照标识。
func (r *CatalogRepository) Version() uint64 {
	return r.current.Load().Version
}

// Lookup 按 ID 查找内容。
func (r *CatalogRepository) Lookup(contentID string) (po.ContentItem, bool) {
	item, _, ok := r.current.Load().FindItem(contentID)
	return item, ok
}

// LookupCourse 按 ID 查找课程。
func (r *CatalogRepository) LookupCourse(courseID string) (po.Course, bool) {
	return r.current.Load().FindCourse(courseID)
}

// Replace 以外部加载的快照替换当前目录，返回当前 Version。
//
// 加载结果会先叠加 overlay 中的计数器增量。内容与计数器都未变化时不发布新快照；
// 只有计数器变化时 ContentVersion 保持不变。
func (r *CatalogRepository) Replace(snapshot *po.CatalogSnapshot) uint64 {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	items := slices.Clone(snapshot.Items)
	if items == nil {
		items = []po.ContentItem{}
	}
	courses := slices.Clone(snapshot.Courses)
	if courses == nil {
		courses = []po.Course{}
	}
	for i := range items {
		if d, ok := r.overlay[items[i].ID]; ok {
			items[i] = applyDelta(items[i], d)
		}
	}

	prev := r.current.Load()
	sameContent := po.SameContent(prev.Items, items, prev.Courses, courses)
	if sameContent && po.SameCounters(prev.Items, items) {
		r.log.Debugf("catalog unchanged: version=%d items=%d", prev.Version, len(items))
		return prev.Version
	}

	next := &po.CatalogSnapshot{
		Version:        prev.Version + 1,
		ContentVersion: prev.ContentVersion,
		Items:          items,
		Courses:        courses,
		LoadedAt:       r.clock().UTC(),
	}
	if !sameContent {
		next.ContentVersion++
	}
	r.current.Store(next)
	r.log.Infof("catalog replaced: version=%d content_version=%d items=%d courses=%d overlay=%d",
		next.Version, next.ContentVersion, len(next.Items), len(next.Courses), len(r.overlay))
	return next.Version
}

// AdjustCounters 对指定内容应用计数器增量（结果下限为 0），发布新快照。
// 内容不存在时返回 false，目录不变。实际生效的增量计入 overlay。
func (r *CatalogRepository) AdjustCounters(contentID string, delta CounterDelta) (po.ContentItem, bool) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := r.current.Load()
	_, idx, ok := prev.FindItem(contentID)
	if !ok {
		return po.ContentItem{}, false
	}

	items := slices.Clone(prev.Items)
	before := items[idx]
	item := applyDelta(before, delta)
	items[idx] = item

	acc := r.overlay[contentID]
	acc.Likes += item.Likes - before.Likes
	acc.Views += item.Views - before.Views
	acc.Comments += item.Comments - before.Comments
	if acc == (CounterDelta{}) {
		delete(r.overlay, contentID)
	} else {
		r.overlay[contentID] = acc
	}

	r.current.Store(&po.CatalogSnapshot{
		Version:        prev.Version + 1,
		ContentVersion: prev.ContentVersion,
		Items:          items,
		Courses:        prev.Courses,
		LoadedAt:       prev.LoadedAt,
	})
	return item, true
}

func applyDelta(item po.ContentItem, d CounterDelta) po.ContentItem {
	item.Likes = max(0, item.Likes+d.Likes)
	item.Views = max(0, item.Views+d.Views)
	item.Comments = max(0, item.Comments+d.Comments)
	return item
}
