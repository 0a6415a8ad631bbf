package po

import (
	"slices"
	"time"
)

// 成就标识
const (
	AchievementFirstVideo   = "first_video"
	AchievementFirstCourse  = "first_course"
	AchievementWeekStreak   = "week_streak"
	AchievementTenCompleted = "ten_completed"
)

// 默认播放列表名称
const (
	PlaylistWatchLater = "Watch Later"
	PlaylistFavorites  = "Favorites"
)

// WatchRecord 记录用户对某条内容的累计观看情况，每个 (user, content) 至多一条。
type WatchRecord struct {
	ContentID string        `json:"content_id"`
	WatchedAt time.Time     `json:"watched_at"` // 最近一次观看时间
	Completed bool          `json:"completed"`  // 一旦为 true 不再回退
	WatchTime time.Duration `json:"watch_time"` // 只增不减
}

// CourseCompletion 记录一次课程完成，同一课程可出现多次。
type CourseCompletion struct {
	CourseID    string    `json:"course_id"`
	CompletedAt time.Time `json:"completed_at"`
	Score       *float64  `json:"score,omitempty"`
}

// Progress 聚合用户学习进度。
// TotalWatchTime 始终等于 WatchedVideos 中 WatchTime 之和。
type Progress struct {
	UserID           string             `json:"user_id"`
	WatchedVideos    []WatchRecord      `json:"watched_videos"`
	CompletedCourses []CourseCompletion `json:"completed_courses"`
	StreakDays       int                `json:"streak_days"`
	LastActiveDay    time.Time          `json:"last_active_day"` // UTC 零点
	TotalWatchTime   time.Duration      `json:"total_watch_time"`
	Achievements     []string           `json:"achievements"`
}

// FindWatch 返回内容对应的观看记录下标，不存在时返回 -1。
func (p *Progress) FindWatch(contentID string) int {
	for i := range p.WatchedVideos {
		if p.WatchedVideos[i].ContentID == contentID {
			return i
		}
	}
	return -1
}

// WatchedIDs 按记录顺序返回已观看内容 ID。
func (p *Progress) WatchedIDs() []string {
	ids := make([]string, 0, len(p.WatchedVideos))
	for _, w := range p.WatchedVideos {
		ids = append(ids, w.ContentID)
	}
	return ids
}

// CompletedCount 返回已完成的观看记录数。
func (p *Progress) CompletedCount() int {
	n := 0
	for _, w := range p.WatchedVideos {
		if w.Completed {
			n++
		}
	}
	return n
}

// SumWatchTime 重新累加所有记录的观看时长。
func (p *Progress) SumWatchTime() time.Duration {
	var total time.Duration
	for _, w := range p.WatchedVideos {
		total += w.WatchTime
	}
	return total
}

// Playlist 表示用户播放列表，ContentIDs 有序且不重复。
type Playlist struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	ContentIDs []string  `json:"content_ids"`
	Public     bool      `json:"public"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment 表示用户对内容的一条评论。
type Comment struct {
	ID        string    `json:"id"`
	ContentID string    `json:"content_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// EngagementState 是单个用户互动账本的聚合根，所有变更以它为原子单位。
type EngagementState struct {
	UserID    string               `json:"user_id"`
	Liked     []string             `json:"liked"`
	Followed  []string             `json:"followed"`
	Interests []string             `json:"interests"`
	Progress  Progress             `json:"progress"`
	Playlists []Playlist           `json:"playlists"`
	Comments  map[string][]Comment `json:"comments"`
}

// NewEngagementState 构造会话开始时的默认状态（含 Watch Later / Favorites 两个播放列表）。
func NewEngagementState(userID string, now time.Time, newID func() string) *EngagementState {
	return &EngagementState{
		UserID:    userID,
		Liked:     []string{},
		Followed:  []string{},
		Interests: []string{},
		Progress: Progress{
			UserID:           userID,
			WatchedVideos:    []WatchRecord{},
			CompletedCourses: []CourseCompletion{},
			Achievements:     []string{},
		},
		Playlists: []Playlist{
			{ID: newID(), OwnerID: userID, Name: PlaylistWatchLater, ContentIDs: []string{}, Public: false, CreatedAt: now},
			{ID: newID(), OwnerID: userID, Name: PlaylistFavorites, ContentIDs: []string{}, Public: true, CreatedAt: now},
		},
		Comments: map[string][]Comment{},
	}
}

// Clone 返回深拷贝，调用方可自由修改而不影响原状态。
func (s *EngagementState) Clone() *EngagementState {
	if s == nil {
		return nil
	}
	out := &EngagementState{
		UserID:    s.UserID,
		Liked:     slices.Clone(s.Liked),
		Followed:  slices.Clone(s.Followed),
		Interests: slices.Clone(s.Interests),
		Progress: Progress{
			UserID:           s.Progress.UserID,
			WatchedVideos:    slices.Clone(s.Progress.WatchedVideos),
			CompletedCourses: make([]CourseCompletion, len(s.Progress.CompletedCourses)),
			StreakDays:       s.Progress.StreakDays,
			LastActiveDay:    s.Progress.LastActiveDay,
			TotalWatchTime:   s.Progress.TotalWatchTime,
			Achievements:     slices.Clone(s.Progress.Achievements),
		},
		Playlists: make([]Playlist, len(s.Playlists)),
		Comments:  make(map[string][]Comment, len(s.Comments)),
	}
	for i, c := range s.Progress.CompletedCourses {
		if c.Score != nil {
			score := *c.Score
			c.Score = &score
		}
		out.Progress.CompletedCourses[i] = c
	}
	for i, p := range s.Playlists {
		p.ContentIDs = slices.Clone(p.ContentIDs)
		out.Playlists[i] = p
	}
	for k, v := range s.Comments {
		out.Comments[k] = slices.Clone(v)
	}
	return out
}

// StateVersions 汇总 Feed 依赖项的版本戳，任一不同即视为缓存失效。
// Catalog 取目录的 ContentVersion：其他用户的计数器变更不会使 Feed 失效。
type StateVersions struct {
	Catalog   uint64 `json:"catalog"`
	Interests uint64 `json:"interests"`
	Followed  uint64 `json:"followed"`
	Liked     uint64 `json:"liked"`
	Progress  uint64 `json:"progress"`
}
