package services

import "github.com/go-kratos/kratos/v2/errors"

// 错误原因码，随 Kratos 错误透传给调用方。
const (
	ReasonContentNotFound  = "CONTENT_NOT_FOUND"
	ReasonPlaylistNotFound = "PLAYLIST_NOT_FOUND"
	ReasonCourseNotFound   = "COURSE_NOT_FOUND"
	ReasonFeedCursorMoved  = "FEED_CURSOR_MOVED"
)

var (
	// ErrContentNotFound 表示目录中不存在该内容。
	ErrContentNotFound = errors.NotFound(ReasonContentNotFound, "content not found")
	// ErrPlaylistNotFound 表示用户没有该播放列表。
	ErrPlaylistNotFound = errors.NotFound(ReasonPlaylistNotFound, "playlist not found")
	// ErrCourseNotFound 表示目录中不存在该课程。
	ErrCourseNotFound = errors.NotFound(ReasonCourseNotFound, "course not found")
	// ErrFeedCursorMoved 表示 Feed 已重新计算，游标所指内容与调用方看到的不一致。
	ErrFeedCursorMoved = errors.Conflict(ReasonFeedCursorMoved, "feed changed since it was rendered")
)
