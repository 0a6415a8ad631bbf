// Package dto 定义 HTTP 入参与出参结构，以及查询参数解析。
package dto

import (
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/models/vo"
)

// RecordWatchRequest 对应 POST /v1/me/watches。
type RecordWatchRequest struct {
	ContentID        string  `json:"content_id" validate:"required,max=128"`
	WatchTimeSeconds float64 `json:"watch_time_seconds" validate:"gte=0,lte=86400"`
}

// WatchDelta 将秒数转换为时长。
func (r RecordWatchRequest) WatchDelta() time.Duration {
	return time.Duration(r.WatchTimeSeconds * float64(time.Second))
}

// CompleteCourseRequest 对应 POST /v1/me/courses/{course_id}/complete。
type CompleteCourseRequest struct {
	Score *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
}

// CreatePlaylistRequest 对应 POST /v1/me/playlists。
type CreatePlaylistRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Public bool   `json:"public"`
}

// AddCommentRequest 对应 POST /v1/me/comments/{content_id}。
type AddCommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// MutationResponse 描述幂等修改的结果，Changed=false 表示空操作。
type MutationResponse struct {
	Changed bool `json:"changed"`
}

// StateResponse 包装互动状态摘要。
type StateResponse struct {
	Summary *vo.EngagementSummary `json:"summary"`
}

// WatchResponse 返回更新后的观看记录。
type WatchResponse struct {
	Watch po.WatchRecord `json:"watch"`
}

// CourseCompletionResponse 返回课程完成记录。
type CourseCompletionResponse struct {
	Completion po.CourseCompletion `json:"completion"`
}

// CourseProgressResponse 返回继续学习列表。
type CourseProgressResponse struct {
	Courses []vo.CourseProgress `json:"courses"`
}

// PlaylistResponse 返回新建的播放列表。
type PlaylistResponse struct {
	Playlist po.Playlist `json:"playlist"`
}

// CommentResponse 返回新建的评论。
type CommentResponse struct {
	Comment po.Comment `json:"comment"`
}

// AdvanceFeedRequest 对应 POST /v1/me/feed/advance。
// ContentID 为客户端当前展示的内容，留空则不校验。
type AdvanceFeedRequest struct {
	ContentID string `json:"content_id" validate:"max=128"`
}

// FeedResponse 包装 Feed 视图。
type FeedResponse struct {
	Feed *vo.FeedView `json:"feed"`
}
