// Package vo 定义视图对象（View Objects），用于向上层传递业务数据。
// VO 对象由 Service 层返回，经 Controller 层转换为 HTTP 响应，隔离内部数据结构。
package vo

import (
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
)

// FeedView 描述 Feed 游标当前位置，供展示层渲染。
type FeedView struct {
	Item   *po.ContentItem `json:"item"` // 空 Feed 时为 nil
	Index  int             `json:"index"`
	Length int             `json:"length"`
	Empty  bool            `json:"empty"`
	// 当前 Feed 基于的版本戳
	Versions po.StateVersions `json:"versions"`
}

// NewFeedView 构造 Feed 视图，items 为空时返回 Empty 视图。
func NewFeedView(items []po.ContentItem, cursor int, versions po.StateVersions) *FeedView {
	view := &FeedView{Index: cursor, Length: len(items), Versions: versions}
	if len(items) == 0 {
		view.Empty = true
		view.Index = 0
		return view
	}
	item := items[cursor]
	view.Item = &item
	return view
}

// EngagementSummary 聚合用户互动状态与派生计数。
type EngagementSummary struct {
	State          *po.EngagementState `json:"state"`
	Versions       po.StateVersions    `json:"versions"`
	WatchedCount   int                 `json:"watched_count"`
	CompletedCount int                 `json:"completed_count"`
	TotalWatchTime time.Duration       `json:"total_watch_time"`
}

// NewEngagementSummary 从状态快照构造摘要。
func NewEngagementSummary(state *po.EngagementState, versions po.StateVersions) *EngagementSummary {
	if state == nil {
		return nil
	}
	return &EngagementSummary{
		State:          state,
		Versions:       versions,
		WatchedCount:   len(state.Progress.WatchedVideos),
		CompletedCount: state.Progress.CompletedCount(),
		TotalWatchTime: state.Progress.TotalWatchTime,
	}
}

// CourseProgress 表示"继续学习"中单个课程的完成度。
type CourseProgress struct {
	Course    po.Course `json:"course"`
	Completed int       `json:"videos_completed"`
	Total     int       `json:"total_videos"`
	Percent   float64   `json:"percent"` // 0-100
}

// NewCourseProgress 根据已完成内容集合计算课程进度。
func NewCourseProgress(course po.Course, completed map[string]struct{}) CourseProgress {
	progress := CourseProgress{Course: course, Total: len(course.ContentIDs)}
	for _, id := range course.ContentIDs {
		if _, ok := completed[id]; ok {
			progress.Completed++
		}
	}
	if progress.Total > 0 {
		progress.Percent = float64(progress.Completed) / float64(progress.Total) * 100
	}
	return progress
}

// InProgress 表示课程已开始但未全部完成。
func (p CourseProgress) InProgress() bool {
	return p.Completed > 0 && p.Completed < p.Total
}

// Done 表示课程内容已全部完成。
func (p CourseProgress) Done() bool {
	return p.Total > 0 && p.Completed == p.Total
}

// CreatorSummary 描述发现页中的创作者条目。
type CreatorSummary struct {
	Creator      po.Creator `json:"creator"`
	ContentCount int        `json:"content_count"`
	Followed     bool       `json:"followed"`
}
