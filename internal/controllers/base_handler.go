// Package controllers 将 HTTP 请求映射为服务层调用，负责鉴权头、超时与入参校验。
package controllers

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/metadata"

	"github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/go-playground/validator/v10"
)

// HandlerType 表示 Handler 的语义类别，用于选择超时策略。
type HandlerType int

const (
	// HandlerTypeDefault 表示未显式区分的 Handler。
	HandlerTypeDefault HandlerType = iota
	// HandlerTypeCommand 表示修改互动状态的 Handler。
	HandlerTypeCommand
	// HandlerTypeQuery 表示只读查询 Handler。
	HandlerTypeQuery
)

// HandlerTimeouts 聚合不同类型 Handler 的超时策略。
type HandlerTimeouts struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
}

const (
	fallbackDefaultTimeout = 5 * time.Second
	fallbackQueryTimeout   = 3 * time.Second

	reasonUserMissing     = "USER_ID_MISSING"
	reasonInvalidArgument = "INVALID_ARGUMENT"
)

// BaseHandler 提供公共的超时、用户解析与入参校验能力，供具体 Handler 内嵌复用。
type BaseHandler struct {
	timeouts HandlerTimeouts
	validate *validator.Validate
}

// NewBaseHandler 构造基础 Handler，并为缺省值填充合理的回退策略。
func NewBaseHandler(timeouts HandlerTimeouts) *BaseHandler {
	if timeouts.Default <= 0 {
		if timeouts.Command > 0 {
			timeouts.Default = timeouts.Command
		} else if timeouts.Query > 0 {
			timeouts.Default = timeouts.Query
		} else {
			timeouts.Default = fallbackDefaultTimeout
		}
	}
	if timeouts.Command <= 0 {
		timeouts.Command = timeouts.Default
	}
	if timeouts.Query <= 0 {
		if timeouts.Default > 0 {
			timeouts.Query = timeouts.Default
		} else {
			timeouts.Query = fallbackQueryTimeout
		}
	}
	return &BaseHandler{timeouts: timeouts, validate: validator.New()}
}

// WithTimeout 根据 Handler 类型包装上下文，返回绑定超时的新 Context 与取消函数。
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	if h == nil {
		return context.WithTimeout(ctx, fallbackDefaultTimeout)
	}
	var timeout time.Duration
	switch kind {
	case HandlerTypeCommand:
		timeout = h.timeouts.Command
	case HandlerTypeQuery:
		timeout = h.timeouts.Query
	default:
		timeout = h.timeouts.Default
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// RequireUser 返回请求携带的用户标识，缺失时返回 401。
func (h *BaseHandler) RequireUser(ctx context.Context) (string, error) {
	if userID := metadata.UserID(ctx); userID != "" {
		return userID, nil
	}
	return "", errors.Unauthorized(reasonUserMissing, "missing "+metadata.HeaderUserID+" header")
}

// Validate 按 struct tag 校验 DTO，失败时返回 400。
func (h *BaseHandler) Validate(v any) error {
	if err := h.validate.Struct(v); err != nil {
		return errors.BadRequest(reasonInvalidArgument, err.Error())
	}
	return nil
}

// invoke 将一次 HTTP 调用交给 Kratos 中间件链执行，并以 200 输出结果。
// operation 用于日志、指标与限流的路由标识。
func (h *BaseHandler) invoke(ctx khttp.Context, operation string, kind HandlerType, req any, fn func(context.Context, any) (any, error)) error {
	khttp.SetOperation(ctx, operation)
	handler := ctx.Middleware(func(c context.Context, r any) (any, error) {
		timeoutCtx, cancel := h.WithTimeout(c, kind)
		defer cancel()
		return fn(timeoutCtx, r)
	})
	out, err := handler(ctx, req)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// bindBody 解析请求体并校验。
func (h *BaseHandler) bindBody(ctx khttp.Context, v any) error {
	if err := ctx.Bind(v); err != nil {
		return errors.BadRequest(reasonInvalidArgument, err.Error())
	}
	return h.Validate(v)
}
