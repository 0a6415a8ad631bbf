package services

import (
	"context"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/models/vo"
	"github.com/bionicotaku/lingo-services-feed/internal/ranking"

	"github.com/go-kratos/kratos/v2/log"
)

// 课程进度筛选条件
const (
	CourseFilterAll        = "all"
	CourseFilterInProgress = "in_progress"
	CourseFilterCompleted  = "completed"
)

// DiscoveryService 基于实时目录快照提供发现类查询。
type DiscoveryService struct {
	catalog  Catalog
	sessions *SessionRegistry
	clock    func() time.Time
	log      *log.Helper
}

// NewDiscoveryService 构造发现服务。
func NewDiscoveryService(catalog Catalog, sessions *SessionRegistry, logger log.Logger) *DiscoveryService {
	return &DiscoveryService{
		catalog:  catalog,
		sessions: sessions,
		clock:    time.Now,
		log:      log.NewHelper(logger),
	}
}

// WithClock 替换时钟，便于测试。
func (s *DiscoveryService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.clock = fn
	}
}

// Trending 返回热门内容。
func (s *DiscoveryService) Trending(_ context.Context, limit int) []po.ContentItem {
	return ranking.Trending(s.catalog.Snapshot().Items, limit, s.clock())
}

// Related 返回与指定内容相关的内容，锚点不存在时返回 ErrContentNotFound。
func (s *DiscoveryService) Related(ctx context.Context, contentID string, limit int) ([]po.ContentItem, error) {
	snap := s.catalog.Snapshot()
	anchor, _, ok := snap.FindItem(contentID)
	if !ok {
		s.log.WithContext(ctx).Debugf("related: anchor not found: content_id=%s", contentID)
		return nil, ErrContentNotFound
	}
	return ranking.Related(anchor, snap.Items, limit), nil
}

// Search 执行关键词搜索；空查询退化为热门列表（浏览模式）。
func (s *DiscoveryService) Search(_ context.Context, query string, filters *ranking.SearchFilters) []po.ContentItem {
	items := s.catalog.Snapshot().Items
	if strings.TrimSpace(query) == "" {
		return ranking.Trending(items, 0, s.clock())
	}
	return ranking.Search(items, strings.TrimSpace(query), filters)
}

// TrendingTopics 返回出现频率最高的话题。
func (s *DiscoveryService) TrendingTopics(_ context.Context, n int) []ranking.TopicCount {
	return ranking.TrendingTopics(s.catalog.Snapshot().Items, n)
}

// TopCreators 返回目录中的创作者及其内容数；userID 非空时标记是否已关注。
func (s *DiscoveryService) TopCreators(ctx context.Context, userID string, n int) ([]vo.CreatorSummary, error) {
	items := s.catalog.Snapshot().Items
	creators := ranking.TopCreators(items, n)

	counts := make(map[string]int, len(creators))
	for _, item := range items {
		counts[item.CreatorID]++
	}

	followed := map[string]struct{}{}
	if strings.TrimSpace(userID) != "" {
		session, err := s.sessions.Open(ctx, userID)
		if err != nil {
			return nil, err
		}
		state, _ := session.Store.Snapshot()
		for _, id := range state.Followed {
			followed[id] = struct{}{}
		}
	}

	out := make([]vo.CreatorSummary, 0, len(creators))
	for _, c := range creators {
		_, isFollowed := followed[c.ID]
		out = append(out, vo.CreatorSummary{Creator: c, ContentCount: counts[c.ID], Followed: isFollowed})
	}
	return out, nil
}

// CourseProgress 计算用户在各课程中的完成度（继续学习）。
// filter 取值 all / in_progress / completed，all 仅包含已开始的课程。
func (s *DiscoveryService) CourseProgress(ctx context.Context, userID, filter string) ([]vo.CourseProgress, error) {
	session, err := s.sessions.Open(ctx, userID)
	if err != nil {
		return nil, err
	}
	state, _ := session.Store.Snapshot()

	completed := make(map[string]struct{})
	for _, w := range state.Progress.WatchedVideos {
		if w.Completed {
			completed[w.ContentID] = struct{}{}
		}
	}

	var out []vo.CourseProgress
	for _, course := range s.catalog.Snapshot().Courses {
		p := vo.NewCourseProgress(course, completed)
		switch filter {
		case CourseFilterInProgress:
			if !p.InProgress() {
				continue
			}
		case CourseFilterCompleted:
			if !p.Done() {
				continue
			}
		default:
			if p.Completed == 0 {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}
