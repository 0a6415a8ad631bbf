package services

import (
	"context"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/models/vo"
	"github.com/bionicotaku/lingo-services-feed/internal/ranking"

	"github.com/go-kratos/kratos/v2/log"
)

// ComposerOptions 为 FeedComposer 注入可选依赖。
type ComposerOptions struct {
	Window  int // 洗牌窗口，<= 0 使用默认值
	Metrics *Metrics
	Clock   func() time.Time
}

// FeedComposer 维护单个用户个性化 Feed 的游标。
//
// 缓存的 Feed 记录构建时的版本戳；任一依赖（目录内容、兴趣、关注、点赞、进度）
// 版本变化后，下一次访问会在账本锁内重新计算并把游标归零。
// 仅计数器变化的目录快照不触发重算。
type FeedComposer struct {
	mu    sync.Mutex
	store *EngagementStore
	rng   ranking.RandomSource

	feed     []po.ContentItem
	versions po.StateVersions
	built    bool
	cursor   int

	window  int
	metrics *Metrics
	clock   func() time.Time
	log     *log.Helper
}

// NewFeedComposer 构造 FeedComposer，rng 为空时不洗牌。
func NewFeedComposer(store *EngagementStore, rng ranking.RandomSource, logger log.Logger, opts ComposerOptions) *FeedComposer {
	c := &FeedComposer{
		store:   store,
		rng:     rng,
		window:  opts.Window,
		metrics: opts.Metrics,
		clock:   opts.Clock,
		log:     log.NewHelper(logger),
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

// Current 返回游标所指内容，Feed 为空时返回 false。
func (c *FeedComposer) Current(ctx context.Context) (po.ContentItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked(ctx)
	if len(c.feed) == 0 {
		return po.ContentItem{}, false
	}
	return c.feed[c.cursor], true
}

// View 返回当前游标视图。
func (c *FeedComposer) View(ctx context.Context) *vo.FeedView {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked(ctx)
	return vo.NewFeedView(c.feed, c.cursor, c.versions)
}

// Advance 以内容自身时长记录一次完整观看，然后游标前进一位（停在末位）。
// 空 Feed 为空操作。观看会使缓存失效，下一次访问将从新 Feed 的首位开始。
//
// expectedID 非空时必须等于游标所指内容，否则返回 ErrFeedCursorMoved 且不记录观看。
func (c *FeedComposer) Advance(ctx context.Context, expectedID string) (*vo.FeedView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked(ctx)
	if len(c.feed) == 0 {
		if expectedID != "" {
			return nil, ErrFeedCursorMoved
		}
		return vo.NewFeedView(nil, 0, c.versions), nil
	}

	item := c.feed[c.cursor]
	if expectedID != "" && item.ID != expectedID {
		c.log.WithContext(ctx).Debugf("feed advance rejected: expected=%s current=%s", expectedID, item.ID)
		return nil, ErrFeedCursorMoved
	}
	if _, err := c.store.RecordWatch(ctx, item.ID, item.Duration); err != nil {
		return nil, err
	}
	if c.cursor < len(c.feed)-1 {
		c.cursor++
	}
	return vo.NewFeedView(c.feed, c.cursor, c.versions), nil
}

// Retreat 游标后退一位（停在首位），不记录观看。
func (c *FeedComposer) Retreat(ctx context.Context) *vo.FeedView {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked(ctx)
	if c.cursor > 0 {
		c.cursor--
	}
	return vo.NewFeedView(c.feed, c.cursor, c.versions)
}

// refreshLocked 在版本戳变化时重新计算 Feed，调用方需持有 c.mu。
func (c *FeedComposer) refreshLocked(ctx context.Context) {
	c.store.WithState(func(state *po.EngagementState, snap *po.CatalogSnapshot, versions po.StateVersions) {
		if c.built && versions == c.versions {
			return
		}
		start := time.Now()
		c.feed = ranking.PersonalizedFeed(snap.Items, ranking.FeedInput{
			Interests:        state.Interests,
			FollowedCreators: state.Followed,
			WatchedIDs:       state.Progress.WatchedIDs(),
			LikedIDs:         state.Liked,
		}, ranking.Options{
			Now:    c.clock(),
			Rand:   c.rng,
			Window: c.window,
		})
		c.versions = versions
		c.built = true
		c.cursor = 0

		elapsed := time.Since(start)
		c.metrics.recordRecompute(ctx, elapsed, len(c.feed))
		c.log.WithContext(ctx).Debugf("feed recomputed: user_id=%s items=%d catalog_version=%d elapsed=%s",
			state.UserID, len(c.feed), versions.Catalog, elapsed)
	})
}
