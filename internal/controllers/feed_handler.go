package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-feed/internal/services"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// Feed 游标路由的 operation 名称。
const (
	OperationGetFeed     = "/feed.v1.Feed/GetFeed"
	OperationAdvanceFeed = "/feed.v1.Feed/Advance"
	OperationRetreatFeed = "/feed.v1.Feed/Retreat"
)

// FeedHandler 暴露个性化 Feed 的读取与游标移动。
type FeedHandler struct {
	*BaseHandler
	sessions *services.SessionRegistry
}

// NewFeedHandler 构造 Feed Handler。
func NewFeedHandler(sessions *services.SessionRegistry, base *BaseHandler) *FeedHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &FeedHandler{BaseHandler: base, sessions: sessions}
}

// Register 注册路由。
func (h *FeedHandler) Register(r *khttp.Router) {
	r.GET("/me/feed", h.GetFeed)
	r.POST("/me/feed/advance", h.Advance)
	r.POST("/me/feed/retreat", h.Retreat)
}

func (h *FeedHandler) withFeed(ctx khttp.Context, operation string, kind HandlerType, req any, fn func(context.Context, *services.FeedComposer) (*dto.FeedResponse, error)) error {
	return h.invoke(ctx, operation, kind, req, func(c context.Context, _ any) (any, error) {
		userID, err := h.RequireUser(c)
		if err != nil {
			return nil, err
		}
		session, err := h.sessions.Open(c, userID)
		if err != nil {
			return nil, err
		}
		return fn(c, session.Feed)
	})
}

// GetFeed 返回当前 Feed 视图，状态变化后会先重新计算。
func (h *FeedHandler) GetFeed(ctx khttp.Context) error {
	return h.withFeed(ctx, OperationGetFeed, HandlerTypeQuery, nil, func(c context.Context, feed *services.FeedComposer) (*dto.FeedResponse, error) {
		return &dto.FeedResponse{Feed: feed.View(c)}, nil
	})
}

// Advance 记录当前内容看完并前进一格。
// 请求体携带 content_id 时，Feed 已变化则返回 409 FEED_CURSOR_MOVED。
func (h *FeedHandler) Advance(ctx khttp.Context) error {
	in := &dto.AdvanceFeedRequest{}
	if err := h.bindBody(ctx, in); err != nil {
		return err
	}
	return h.withFeed(ctx, OperationAdvanceFeed, HandlerTypeCommand, in, func(c context.Context, feed *services.FeedComposer) (*dto.FeedResponse, error) {
		view, err := feed.Advance(c, in.ContentID)
		if err != nil {
			return nil, err
		}
		return &dto.FeedResponse{Feed: view}, nil
	})
}

// Retreat 后退一格，不记录观看。
func (h *FeedHandler) Retreat(ctx khttp.Context) error {
	return h.withFeed(ctx, OperationRetreatFeed, HandlerTypeCommand, nil, func(c context.Context, feed *services.FeedComposer) (*dto.FeedResponse, error) {
		return &dto.FeedResponse{Feed: feed.Retreat(c)}, nil
	})
}
