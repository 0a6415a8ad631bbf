package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-feed/internal/models/vo"
	"github.com/bionicotaku/lingo-services-feed/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// 互动账本相关路由的 operation 名称。
const (
	OperationGetState       = "/feed.v1.Engagement/GetState"
	OperationResetSession   = "/feed.v1.Engagement/ResetSession"
	OperationFollow         = "/feed.v1.Engagement/Follow"
	OperationUnfollow       = "/feed.v1.Engagement/Unfollow"
	OperationLike           = "/feed.v1.Engagement/Like"
	OperationUnlike         = "/feed.v1.Engagement/Unlike"
	OperationRecordWatch    = "/feed.v1.Engagement/RecordWatch"
	OperationCompleteCourse = "/feed.v1.Engagement/CompleteCourse"
	OperationCourseProgress = "/feed.v1.Engagement/CourseProgress"
	OperationCreatePlaylist = "/feed.v1.Engagement/CreatePlaylist"
	OperationAddToPlaylist  = "/feed.v1.Engagement/AddToPlaylist"
	OperationRemovePlaylist = "/feed.v1.Engagement/RemoveFromPlaylist"
	OperationAddInterest    = "/feed.v1.Engagement/AddInterest"
	OperationRemoveInterest = "/feed.v1.Engagement/RemoveInterest"
	OperationAddComment     = "/feed.v1.Engagement/AddComment"
)

// EngagementHandler 负责 /v1/me 下的互动状态读写。
type EngagementHandler struct {
	*BaseHandler
	sessions  *services.SessionRegistry
	discovery *services.DiscoveryService
}

// NewEngagementHandler 构造互动 Handler。
func NewEngagementHandler(sessions *services.SessionRegistry, discovery *services.DiscoveryService, base *BaseHandler) *EngagementHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &EngagementHandler{BaseHandler: base, sessions: sessions, discovery: discovery}
}

// Register 注册路由。
func (h *EngagementHandler) Register(r *khttp.Router) {
	r.GET("/me/state", h.GetState)
	r.POST("/me/session/reset", h.ResetSession)
	r.PUT("/me/follows/{creator_id}", h.Follow)
	r.DELETE("/me/follows/{creator_id}", h.Unfollow)
	r.PUT("/me/likes/{content_id}", h.Like)
	r.DELETE("/me/likes/{content_id}", h.Unlike)
	r.POST("/me/watches", h.RecordWatch)
	r.POST("/me/courses/{course_id}/complete", h.CompleteCourse)
	r.GET("/me/courses/progress", h.CourseProgress)
	r.POST("/me/playlists", h.CreatePlaylist)
	r.PUT("/me/playlists/{playlist_id}/items/{content_id}", h.AddToPlaylist)
	r.DELETE("/me/playlists/{playlist_id}/items/{content_id}", h.RemoveFromPlaylist)
	r.PUT("/me/interests/{topic}", h.AddInterest)
	r.DELETE("/me/interests/{topic}", h.RemoveInterest)
	r.POST("/me/comments/{content_id}", h.AddComment)
}

// session 解析用户并打开其会话。
func (h *EngagementHandler) session(ctx context.Context) (*services.Session, error) {
	userID, err := h.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return h.sessions.Open(ctx, userID)
}

// mutation 封装"打开会话后执行一次幂等修改"的通用流程。
func (h *EngagementHandler) mutation(ctx khttp.Context, operation string, fn func(context.Context, *services.Session) (bool, error)) error {
	return h.invoke(ctx, operation, HandlerTypeCommand, nil, func(c context.Context, _ any) (any, error) {
		session, err := h.session(c)
		if err != nil {
			return nil, err
		}
		changed, err := fn(c, session)
		if err != nil {
			return nil, err
		}
		return &dto.MutationResponse{Changed: changed}, nil
	})
}

// GetState 返回用户互动状态摘要。
func (h *EngagementHandler) GetState(ctx khttp.Context) error {
	return h.invoke(ctx, OperationGetState, HandlerTypeQuery, nil, func(c context.Context, _ any) (any, error) {
		session, err := h.session(c)
		if err != nil {
			return nil, err
		}
		return &dto.StateResponse{Summary: vo.NewEngagementSummary(session.Store.Snapshot())}, nil
	})
}

// ResetSession 将用户状态重置为默认值。
func (h *EngagementHandler) ResetSession(ctx khttp.Context) error {
	return h.invoke(ctx, OperationResetSession, HandlerTypeCommand, nil, func(c context.Context, _ any) (any, error) {
		userID, err := h.RequireUser(c)
		if err != nil {
			return nil, err
		}
		session, err := h.sessions.Reset(c, userID)
		if err != nil {
			return nil, err
		}
		return &dto.StateResponse{Summary: vo.NewEngagementSummary(session.Store.Snapshot())}, nil
	})
}

// Follow 关注创作者。
func (h *EngagementHandler) Follow(ctx khttp.Context) error {
	creatorID := ctx.Vars().Get("creator_id")
	return h.mutation(ctx, OperationFollow, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.Follow(c, creatorID), nil
	})
}

// Unfollow 取消关注创作者。
func (h *EngagementHandler) Unfollow(ctx khttp.Context) error {
	creatorID := ctx.Vars().Get("creator_id")
	return h.mutation(ctx, OperationUnfollow, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.Unfollow(c, creatorID), nil
	})
}

// Like 点赞内容。
func (h *EngagementHandler) Like(ctx khttp.Context) error {
	contentID := ctx.Vars().Get("content_id")
	return h.mutation(ctx, OperationLike, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.Like(c, contentID)
	})
}

// Unlike 取消点赞。
func (h *EngagementHandler) Unlike(ctx khttp.Context) error {
	contentID := ctx.Vars().Get("content_id")
	return h.mutation(ctx, OperationUnlike, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.Unlike(c, contentID), nil
	})
}

// RecordWatch 累加观看时长。
func (h *EngagementHandler) RecordWatch(ctx khttp.Context) error {
	var in dto.RecordWatchRequest
	if err := h.bindBody(ctx, &in); err != nil {
		return err
	}
	return h.invoke(ctx, OperationRecordWatch, HandlerTypeCommand, &in, func(c context.Context, req any) (any, error) {
		session, err := h.session(c)
		if err != nil {
			return nil, err
		}
		r := req.(*dto.RecordWatchRequest)
		record, err := session.Store.RecordWatch(c, r.ContentID, r.WatchDelta())
		if err != nil {
			return nil, err
		}
		return &dto.WatchResponse{Watch: record}, nil
	})
}

// CompleteCourse 记录课程完成。
func (h *EngagementHandler) CompleteCourse(ctx khttp.Context) error {
	var in dto.CompleteCourseRequest
	if err := h.bindBody(ctx, &in); err != nil {
		return err
	}
	courseID := ctx.Vars().Get("course_id")
	return h.invoke(ctx, OperationCompleteCourse, HandlerTypeCommand, &in, func(c context.Context, req any) (any, error) {
		session, err := h.session(c)
		if err != nil {
			return nil, err
		}
		completion, err := session.Store.CompleteCourse(c, courseID, req.(*dto.CompleteCourseRequest).Score)
		if err != nil {
			return nil, err
		}
		return &dto.CourseCompletionResponse{Completion: completion}, nil
	})
}

// CourseProgress 返回继续学习列表，filter 取 all / in_progress / completed。
func (h *EngagementHandler) CourseProgress(ctx khttp.Context) error {
	in := dto.CourseProgressQuery{Filter: ctx.Query().Get("filter")}
	if err := h.Validate(&in); err != nil {
		return err
	}
	return h.invoke(ctx, OperationCourseProgress, HandlerTypeQuery, &in, func(c context.Context, req any) (any, error) {
		userID, err := h.RequireUser(c)
		if err != nil {
			return nil, err
		}
		courses, err := h.discovery.CourseProgress(c, userID, req.(*dto.CourseProgressQuery).Filter)
		if err != nil {
			return nil, err
		}
		if courses == nil {
			courses = []vo.CourseProgress{}
		}
		return &dto.CourseProgressResponse{Courses: courses}, nil
	})
}

// CreatePlaylist 新建播放列表。
func (h *EngagementHandler) CreatePlaylist(ctx khttp.Context) error {
	var in dto.CreatePlaylistRequest
	if err := h.bindBody(ctx, &in); err != nil {
		return err
	}
	return h.invoke(ctx, OperationCreatePlaylist, HandlerTypeCommand, &in, func(c context.Context, req any) (any, error) {
		session, err := h.session(c)
		if err != nil {
			return nil, err
		}
		r := req.(*dto.CreatePlaylistRequest)
		return &dto.PlaylistResponse{Playlist: session.Store.CreatePlaylist(c, r.Name, r.Public)}, nil
	})
}

// AddToPlaylist 向播放列表追加内容。
func (h *EngagementHandler) AddToPlaylist(ctx khttp.Context) error {
	playlistID, contentID := ctx.Vars().Get("playlist_id"), ctx.Vars().Get("content_id")
	return h.mutation(ctx, OperationAddToPlaylist, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.AddToPlaylist(c, playlistID, contentID)
	})
}

// RemoveFromPlaylist 从播放列表移除内容。
func (h *EngagementHandler) RemoveFromPlaylist(ctx khttp.Context) error {
	playlistID, contentID := ctx.Vars().Get("playlist_id"), ctx.Vars().Get("content_id")
	return h.mutation(ctx, OperationRemovePlaylist, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.RemoveFromPlaylist(c, playlistID, contentID)
	})
}

// AddInterest 添加兴趣话题。
func (h *EngagementHandler) AddInterest(ctx khttp.Context) error {
	topic := ctx.Vars().Get("topic")
	return h.mutation(ctx, OperationAddInterest, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.AddInterest(c, topic), nil
	})
}

// RemoveInterest 移除兴趣话题。
func (h *EngagementHandler) RemoveInterest(ctx khttp.Context) error {
	topic := ctx.Vars().Get("topic")
	return h.mutation(ctx, OperationRemoveInterest, func(c context.Context, s *services.Session) (bool, error) {
		return s.Store.RemoveInterest(c, topic), nil
	})
}

// AddComment 发表评论。
func (h *EngagementHandler) AddComment(ctx khttp.Context) error {
	var in dto.AddCommentRequest
	if err := h.bindBody(ctx, &in); err != nil {
		return err
	}
	contentID := ctx.Vars().Get("content_id")
	return h.invoke(ctx, OperationAddComment, HandlerTypeCommand, &in, func(c context.Context, req any) (any, error) {
		session, err := h.session(c)
		if err != nil {
			return nil, err
		}
		comment, err := session.Store.AddComment(c, contentID, req.(*dto.AddCommentRequest).Body)
		if err != nil {
			return nil, err
		}
		return &dto.CommentResponse{Comment: comment}, nil
	})
}
