package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/events"
	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Catalog 定义互动与排序所需的目录访问能力。
type Catalog interface {
	Snapshot() *po.CatalogSnapshot
	Lookup(contentID string) (po.ContentItem, bool)
	LookupCourse(courseID string) (po.Course, bool)
	AdjustCounters(contentID string, delta repositories.CounterDelta) (po.ContentItem, bool)
}

// EventSink 接收生效的互动事件，实现方不得阻塞调用方。
type EventSink interface {
	Emit(ctx context.Context, evt events.EngagementEvent)
}

// StoreOptions 为 EngagementStore 注入可选依赖，零值字段使用默认实现。
type StoreOptions struct {
	Sink    EventSink
	Metrics *Metrics
	Clock   func() time.Time
	NewID   func() string
}

// EngagementStore 持有单个用户的互动账本。
//
// 每个操作在互斥锁内整体完成，读方不会观察到部分更新；
// 操作不做任何 I/O，事件在释放锁后交给 EventSink。
type EngagementStore struct {
	mu       sync.Mutex
	state    *po.EngagementState
	versions po.StateVersions // Catalog 字段不在此维护，读取时取自目录快照的 ContentVersion

	catalog Catalog
	sink    EventSink
	metrics *Metrics
	clock   func() time.Time
	newID   func() string
	log     *log.Helper
}

// NewEngagementStore 构造互动账本。initial 为空时创建默认状态，否则接管其所有权。
func NewEngagementStore(userID string, initial *po.EngagementState, catalog Catalog, logger log.Logger, opts StoreOptions) *EngagementStore {
	s := &EngagementStore{
		catalog: catalog,
		sink:    opts.Sink,
		metrics: opts.Metrics,
		clock:   opts.Clock,
		newID:   opts.NewID,
		log:     log.NewHelper(logger),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if initial == nil {
		initial = po.NewEngagementState(userID, s.clock().UTC(), s.newID)
	}
	initial.UserID = userID
	initial.Progress.UserID = userID
	if initial.Comments == nil {
		initial.Comments = map[string][]po.Comment{}
	}
	s.state = initial
	return s
}

// UserID 返回账本所属用户。
func (s *EngagementStore) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UserID
}

// Snapshot 返回状态深拷贝与当前版本戳。
func (s *EngagementStore) Snapshot() (*po.EngagementState, po.StateVersions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.versions
	versions.Catalog = s.catalog.Snapshot().ContentVersion
	return s.state.Clone(), versions
}

// WithState 在账本锁内以只读方式访问状态与目录快照，fn 不得修改 state。
// 在 fn 执行期间不会有任何变更插入。
func (s *EngagementStore) WithState(fn func(state *po.EngagementState, snap *po.CatalogSnapshot, versions po.StateVersions)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.catalog.Snapshot()
	versions := s.versions
	versions.Catalog = snap.ContentVersion
	fn(s.state, snap, versions)
}

// Reset 以默认状态整体替换账本。目录计数器保持不变。
func (s *EngagementStore) Reset(ctx context.Context) {
	_, _ = s.mutate(ctx, "reset", "", func(now time.Time) ([]events.EngagementEvent, bool, error) {
		s.state = po.NewEngagementState(s.state.UserID, now, s.newID)
		s.versions.Interests++
		s.versions.Followed++
		s.versions.Liked++
		s.versions.Progress++
		return []events.EngagementEvent{s.newEvent(events.KindSessionReset, now)}, true, nil
	})
}

// ============================================
// 关注 / 点赞
// ============================================

// Follow 关注创作者，重复关注为空操作。
func (s *EngagementStore) Follow(ctx context.Context, creatorID string) bool {
	changed, _ := s.mutate(ctx, "follow", creatorID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		if slices.Contains(s.state.Followed, creatorID) {
			return nil, false, nil
		}
		s.state.Followed = append(s.state.Followed, creatorID)
		s.versions.Followed++
		evt := s.newEvent(events.KindFollowed, now)
		evt.CreatorID = creatorID
		return []events.EngagementEvent{evt}, true, nil
	})
	return changed
}

// Unfollow 取消关注，未关注时为空操作。
func (s *EngagementStore) Unfollow(ctx context.Context, creatorID string) bool {
	changed, _ := s.mutate(ctx, "unfollow", creatorID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		idx := slices.Index(s.state.Followed, creatorID)
		if idx < 0 {
			return nil, false, nil
		}
		s.state.Followed = slices.Delete(s.state.Followed, idx, idx+1)
		s.versions.Followed++
		evt := s.newEvent(events.KindUnfollowed, now)
		evt.CreatorID = creatorID
		return []events.EngagementEvent{evt}, true, nil
	})
	return changed
}

// Like 点赞内容并使目录 likes +1；内容不存在返回 ErrContentNotFound，已点赞为空操作。
func (s *EngagementStore) Like(ctx context.Context, contentID string) (bool, error) {
	return s.mutate(ctx, "like", contentID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		if _, ok := s.catalog.Lookup(contentID); !ok {
			return nil, false, ErrContentNotFound
		}
		if slices.Contains(s.state.Liked, contentID) {
			return nil, false, nil
		}
		s.state.Liked = append(s.state.Liked, contentID)
		s.catalog.AdjustCounters(contentID, repositories.CounterDelta{Likes: 1})
		s.versions.Liked++
		evt := s.newEvent(events.KindLiked, now)
		evt.ContentID = contentID
		return []events.EngagementEvent{evt}, true, nil
	})
}

// Unlike 取消点赞并使目录 likes -1（下限 0）。
// 内容已不在目录中时仅移除记录，不触碰计数器。
func (s *EngagementStore) Unlike(ctx context.Context, contentID string) bool {
	changed, _ := s.mutate(ctx, "unlike", contentID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		idx := slices.Index(s.state.Liked, contentID)
		if idx < 0 {
			return nil, false, nil
		}
		s.state.Liked = slices.Delete(s.state.Liked, idx, idx+1)
		s.catalog.AdjustCounters(contentID, repositories.CounterDelta{Likes: -1})
		s.versions.Liked++
		evt := s.newEvent(events.KindUnliked, now)
		evt.ContentID = contentID
		return []events.EngagementEvent{evt}, true, nil
	})
	return changed
}

// ============================================
// 学习进度
// ============================================

// RecordWatch 累加观看时长并更新完成状态、连续天数与成就。
//
// 负增量按 0 处理；completed 一旦为 true 不再回退；
// 每次调用使目录 views 恰好 +1，与增量大小无关。
func (s *EngagementStore) RecordWatch(ctx context.Context, contentID string, delta time.Duration) (po.WatchRecord, error) {
	var record po.WatchRecord
	_, err := s.mutate(ctx, "record_watch", contentID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		item, ok := s.catalog.Lookup(contentID)
		if !ok {
			return nil, false, ErrContentNotFound
		}
		delta = max(delta, 0)

		progress := &s.state.Progress
		idx := progress.FindWatch(contentID)
		if idx < 0 {
			progress.WatchedVideos = append(progress.WatchedVideos, po.WatchRecord{ContentID: contentID})
			idx = len(progress.WatchedVideos) - 1
		}
		rec := &progress.WatchedVideos[idx]
		rec.WatchTime += delta
		rec.WatchedAt = now
		if !rec.Completed && item.IsCompletedBy(rec.WatchTime) {
			rec.Completed = true
		}
		progress.TotalWatchTime += delta
		record = *rec

		s.catalog.AdjustCounters(contentID, repositories.CounterDelta{Views: 1})
		advanceStreak(progress, now)
		s.versions.Progress++

		evt := s.newEvent(events.KindWatched, now)
		evt.ContentID = contentID
		evt.CreatorID = item.CreatorID
		evt.Delta = delta
		evt.Completed = record.Completed
		out := []events.EngagementEvent{evt}
		return append(out, s.unlockAchievements(now)...), true, nil
	})
	return record, err
}

// CompleteCourse 追加一条课程完成记录；同一课程重复完成会追加多条。
func (s *EngagementStore) CompleteCourse(ctx context.Context, courseID string, score *float64) (po.CourseCompletion, error) {
	var completion po.CourseCompletion
	_, err := s.mutate(ctx, "complete_course", courseID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		if _, ok := s.catalog.LookupCourse(courseID); !ok {
			return nil, false, ErrCourseNotFound
		}
		completion = po.CourseCompletion{CourseID: courseID, CompletedAt: now}
		if score != nil {
			v := *score
			completion.Score = &v
		}
		s.state.Progress.CompletedCourses = append(s.state.Progress.CompletedCourses, completion)
		s.versions.Progress++

		evt := s.newEvent(events.KindCourseCompleted, now)
		evt.CourseID = courseID
		out := []events.EngagementEvent{evt}
		return append(out, s.unlockAchievements(now)...), true, nil
	})
	return completion, err
}

// advanceStreak 按 UTC 自然日维护连续学习天数：同日不变，次日 +1，其余重置为 1。
func advanceStreak(p *po.Progress, now time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case p.LastActiveDay.IsZero() || p.StreakDays == 0:
		p.StreakDays = 1
	case today.Equal(p.LastActiveDay):
	case today.Equal(p.LastActiveDay.AddDate(0, 0, 1)):
		p.StreakDays++
	default:
		p.StreakDays = 1
	}
	p.LastActiveDay = today
}

// unlockAchievements 检查成就条件，返回新解锁成就对应的事件。
func (s *EngagementStore) unlockAchievements(now time.Time) []events.EngagementEvent {
	progress := &s.state.Progress
	var out []events.EngagementEvent
	unlock := func(id string, reached bool) {
		if !reached || slices.Contains(progress.Achievements, id) {
			return
		}
		progress.Achievements = append(progress.Achievements, id)
		evt := s.newEvent(events.KindAchievementUnlocked, now)
		evt.Detail = id
		out = append(out, evt)
	}
	unlock(po.AchievementFirstVideo, len(progress.WatchedVideos) > 0)
	unlock(po.AchievementFirstCourse, len(progress.CompletedCourses) > 0)
	unlock(po.AchievementWeekStreak, progress.StreakDays >= 7)
	unlock(po.AchievementTenCompleted, progress.CompletedCount() >= 10)
	return out
}

// ============================================
// 播放列表 / 兴趣 / 评论
// ============================================

// CreatePlaylist 新建播放列表。
func (s *EngagementStore) CreatePlaylist(ctx context.Context, name string, public bool) po.Playlist {
	var playlist po.Playlist
	_, _ = s.mutate(ctx, "create_playlist", name, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		playlist = po.Playlist{
			ID:         s.newID(),
			OwnerID:    s.state.UserID,
			Name:       name,
			ContentIDs: []string{},
			Public:     public,
			CreatedAt:  now,
		}
		s.state.Playlists = append(s.state.Playlists, playlist)
		evt := s.newEvent(events.KindPlaylistCreated, now)
		evt.PlaylistID = playlist.ID
		evt.Detail = name
		return []events.EngagementEvent{evt}, true, nil
	})
	return playlist
}

// AddToPlaylist 将内容加入播放列表（集合语义，保持插入顺序）。
func (s *EngagementStore) AddToPlaylist(ctx context.Context, playlistID, contentID string) (bool, error) {
	return s.mutate(ctx, "add_to_playlist", contentID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		playlist := s.findPlaylist(playlistID)
		if playlist == nil {
			return nil, false, ErrPlaylistNotFound
		}
		if slices.Contains(playlist.ContentIDs, contentID) {
			return nil, false, nil
		}
		playlist.ContentIDs = append(playlist.ContentIDs, contentID)
		evt := s.newEvent(events.KindPlaylistItemAdded, now)
		evt.PlaylistID = playlistID
		evt.ContentID = contentID
		return []events.EngagementEvent{evt}, true, nil
	})
}

// RemoveFromPlaylist 将内容移出播放列表。
func (s *EngagementStore) RemoveFromPlaylist(ctx context.Context, playlistID, contentID string) (bool, error) {
	return s.mutate(ctx, "remove_from_playlist", contentID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		playlist := s.findPlaylist(playlistID)
		if playlist == nil {
			return nil, false, ErrPlaylistNotFound
		}
		idx := slices.Index(playlist.ContentIDs, contentID)
		if idx < 0 {
			return nil, false, nil
		}
		playlist.ContentIDs = slices.Delete(playlist.ContentIDs, idx, idx+1)
		evt := s.newEvent(events.KindPlaylistItemRemoved, now)
		evt.PlaylistID = playlistID
		evt.ContentID = contentID
		return []events.EngagementEvent{evt}, true, nil
	})
}

func (s *EngagementStore) findPlaylist(id string) *po.Playlist {
	for i := range s.state.Playlists {
		if s.state.Playlists[i].ID == id {
			return &s.state.Playlists[i]
		}
	}
	return nil
}

// AddInterest 添加兴趣话题（大小写敏感）。
func (s *EngagementStore) AddInterest(ctx context.Context, topic string) bool {
	changed, _ := s.mutate(ctx, "add_interest", topic, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		if slices.Contains(s.state.Interests, topic) {
			return nil, false, nil
		}
		s.state.Interests = append(s.state.Interests, topic)
		s.versions.Interests++
		evt := s.newEvent(events.KindInterestAdded, now)
		evt.Topic = topic
		return []events.EngagementEvent{evt}, true, nil
	})
	return changed
}

// RemoveInterest 移除兴趣话题。
func (s *EngagementStore) RemoveInterest(ctx context.Context, topic string) bool {
	changed, _ := s.mutate(ctx, "remove_interest", topic, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		idx := slices.Index(s.state.Interests, topic)
		if idx < 0 {
			return nil, false, nil
		}
		s.state.Interests = slices.Delete(s.state.Interests, idx, idx+1)
		s.versions.Interests++
		evt := s.newEvent(events.KindInterestRemoved, now)
		evt.Topic = topic
		return []events.EngagementEvent{evt}, true, nil
	})
	return changed
}

// AddComment 发表评论并使目录 comments +1。
func (s *EngagementStore) AddComment(ctx context.Context, contentID, body string) (po.Comment, error) {
	var comment po.Comment
	_, err := s.mutate(ctx, "add_comment", contentID, func(now time.Time) ([]events.EngagementEvent, bool, error) {
		if _, ok := s.catalog.Lookup(contentID); !ok {
			return nil, false, ErrContentNotFound
		}
		comment = po.Comment{
			ID:        s.newID(),
			ContentID: contentID,
			UserID:    s.state.UserID,
			Body:      body,
			CreatedAt: now,
		}
		s.state.Comments[contentID] = append(s.state.Comments[contentID], comment)
		s.catalog.AdjustCounters(contentID, repositories.CounterDelta{Comments: 1})
		evt := s.newEvent(events.KindCommented, now)
		evt.ContentID = contentID
		return []events.EngagementEvent{evt}, true, nil
	})
	return comment, err
}

// ============================================
// 内部辅助
// ============================================

type mutation func(now time.Time) ([]events.EngagementEvent, bool, error)

// mutate 在锁内执行变更，释放锁后记录指标并投递事件。
// 未生效的幂等调用记为 noop，不返回错误。
func (s *EngagementStore) mutate(ctx context.Context, op, target string, fn mutation) (bool, error) {
	s.mu.Lock()
	now := s.clock().UTC()
	evts, changed, err := fn(now)
	userID := s.state.UserID
	s.mu.Unlock()

	if err != nil {
		s.log.WithContext(ctx).Debugf("engagement %s rejected: user_id=%s target=%s err=%v", op, userID, target, err)
		return false, err
	}
	if !changed {
		s.log.WithContext(ctx).Debugf("engagement noop: op=%s user_id=%s target=%s", op, userID, target)
		s.metrics.recordMutation(ctx, op, true)
		return false, nil
	}
	s.metrics.recordMutation(ctx, op, false)
	if s.sink != nil {
		for _, evt := range evts {
			if evt.EventID == uuid.Nil {
				continue
			}
			s.sink.Emit(ctx, evt)
		}
	}
	return true, nil
}

func (s *EngagementStore) newEvent(kind events.Kind, now time.Time) events.EngagementEvent {
	evt, err := events.NewEngagementEvent(kind, s.state.UserID, uuid.New(), now)
	if err != nil {
		return events.EngagementEvent{}
	}
	return evt
}
