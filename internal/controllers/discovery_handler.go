package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-feed/internal/metadata"
	"github.com/bionicotaku/lingo-services-feed/internal/services"

	"github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// 发现类路由的 operation 名称。
const (
	OperationTrending       = "/feed.v1.Discovery/Trending"
	OperationRelated        = "/feed.v1.Discovery/Related"
	OperationSearch         = "/feed.v1.Discovery/Search"
	OperationTrendingTopics = "/feed.v1.Discovery/TrendingTopics"
	OperationTopCreators    = "/feed.v1.Discovery/TopCreators"
)

const defaultTopicLimit = 10

// DiscoveryHandler 暴露无需登录的发现类查询；携带用户头时 TopCreators 会标记关注状态。
type DiscoveryHandler struct {
	*BaseHandler
	svc *services.DiscoveryService
}

// NewDiscoveryHandler 构造发现 Handler。
func NewDiscoveryHandler(svc *services.DiscoveryService, base *BaseHandler) *DiscoveryHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &DiscoveryHandler{BaseHandler: base, svc: svc}
}

// Register 注册路由。
func (h *DiscoveryHandler) Register(r *khttp.Router) {
	r.GET("/trending", h.Trending)
	r.GET("/contents/{content_id}/related", h.Related)
	r.GET("/search", h.Search)
	r.GET("/topics/trending", h.TrendingTopics)
	r.GET("/creators/top", h.TopCreators)
}

func (h *DiscoveryHandler) listQuery(ctx khttp.Context) (*dto.ListQuery, error) {
	limit, err := dto.ParseLimit(ctx.Query().Get("limit"))
	if err != nil {
		return nil, errors.BadRequest(reasonInvalidArgument, err.Error())
	}
	in := &dto.ListQuery{Limit: limit}
	if err := h.Validate(in); err != nil {
		return nil, err
	}
	return in, nil
}

// Trending 返回热门内容。
func (h *DiscoveryHandler) Trending(ctx khttp.Context) error {
	in, err := h.listQuery(ctx)
	if err != nil {
		return err
	}
	return h.invoke(ctx, OperationTrending, HandlerTypeQuery, in, func(c context.Context, req any) (any, error) {
		return dto.NewContentListResponse(h.svc.Trending(c, req.(*dto.ListQuery).Limit)), nil
	})
}

// Related 返回相关内容。
func (h *DiscoveryHandler) Related(ctx khttp.Context) error {
	in, err := h.listQuery(ctx)
	if err != nil {
		return err
	}
	contentID := ctx.Vars().Get("content_id")
	return h.invoke(ctx, OperationRelated, HandlerTypeQuery, in, func(c context.Context, req any) (any, error) {
		items, err := h.svc.Related(c, contentID, req.(*dto.ListQuery).Limit)
		if err != nil {
			return nil, err
		}
		return dto.NewContentListResponse(items), nil
	})
}

// Search 关键词搜索，支持 category / skill_level / topic 过滤。
func (h *DiscoveryHandler) Search(ctx khttp.Context) error {
	q := ctx.Query()
	in := &dto.SearchQuery{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		SkillLevel: q.Get("skill_level"),
		Topics:     dto.SplitTopics(q["topic"]),
	}
	if err := h.Validate(in); err != nil {
		return err
	}
	return h.invoke(ctx, OperationSearch, HandlerTypeQuery, in, func(c context.Context, req any) (any, error) {
		r := req.(*dto.SearchQuery)
		return dto.NewContentListResponse(h.svc.Search(c, r.Query, r.Filters())), nil
	})
}

// TrendingTopics 返回热门话题。
func (h *DiscoveryHandler) TrendingTopics(ctx khttp.Context) error {
	in, err := h.listQuery(ctx)
	if err != nil {
		return err
	}
	if in.Limit == 0 {
		in.Limit = defaultTopicLimit
	}
	return h.invoke(ctx, OperationTrendingTopics, HandlerTypeQuery, in, func(c context.Context, req any) (any, error) {
		return dto.NewTopicsResponse(h.svc.TrendingTopics(c, req.(*dto.ListQuery).Limit)), nil
	})
}

// TopCreators 返回创作者列表。
func (h *DiscoveryHandler) TopCreators(ctx khttp.Context) error {
	in, err := h.listQuery(ctx)
	if err != nil {
		return err
	}
	return h.invoke(ctx, OperationTopCreators, HandlerTypeQuery, in, func(c context.Context, req any) (any, error) {
		creators, err := h.svc.TopCreators(c, metadata.UserID(c), req.(*dto.ListQuery).Limit)
		if err != nil {
			return nil, err
		}
		return &dto.CreatorsResponse{Creators: creators}, nil
	})
}
