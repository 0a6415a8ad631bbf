// Package metadata 提供 HandlerMetadata 在 Context 中的存取工具，供控制器、限流与服务层共享。
package metadata

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// 网关透传的请求头。
const (
	HeaderUserID    = "x-md-global-user-id"
	HeaderRequestID = "x-request-id"
)

// HandlerMetadata 描述从请求头或上游链路解析出的上下文信息。
type HandlerMetadata struct {
	UserID    string
	RequestID string
}

// IsZero 判断 Metadata 是否为空。
func (m HandlerMetadata) IsZero() bool {
	return m.UserID == "" && m.RequestID == ""
}

// HeaderGetter 是 transport.Header 与 http.Header 的公共子集。
type HeaderGetter interface {
	Get(key string) string
}

// FromHeader 解析请求头，值会去除首尾空白。
func FromHeader(h HeaderGetter) HandlerMetadata {
	if h == nil {
		return HandlerMetadata{}
	}
	return HandlerMetadata{
		UserID:    strings.TrimSpace(h.Get(HeaderUserID)),
		RequestID: strings.TrimSpace(h.Get(HeaderRequestID)),
	}
}

type ctxKey struct{}

// Inject 将 HandlerMetadata 注入 Context。
func Inject(ctx context.Context, meta HandlerMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, meta)
}

// FromContext 读取上游注入的 HandlerMetadata。
func FromContext(ctx context.Context) (HandlerMetadata, bool) {
	if ctx == nil {
		return HandlerMetadata{}, false
	}
	meta, ok := ctx.Value(ctxKey{}).(HandlerMetadata)
	return meta, ok
}

// UserID 返回 Context 中的用户标识，不存在时为空串。
func UserID(ctx context.Context) string {
	meta, _ := FromContext(ctx)
	return meta.UserID
}

// Server 是服务端中间件：从 transport 请求头解析 Metadata 并注入 Context。
func Server() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if tr, ok := transport.FromServerContext(ctx); ok {
				ctx = Inject(ctx, FromHeader(tr.RequestHeader()))
			}
			return handler(ctx, req)
		}
	}
}
