package server

import (
	"context"
	"net"
	"sync"
	"time"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-feed/internal/metadata"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"golang.org/x/time/rate"
)

const (
	reasonRateLimited = "RATE_LIMITED"
	limiterIdleTTL    = time.Hour
	limiterSweepEvery = 10 * time.Minute
)

// RateLimiter 按调用方（用户，缺省时为客户端 IP）维护令牌桶。
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter 构造限流器；rps<=0 时所有请求放行。
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = max(1, int(rps))
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// ProvideRateLimiter 从 HTTP 配置构造限流器。
func ProvideRateLimiter(cfg loader.Server) *RateLimiter {
	return NewRateLimiter(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst)
}

// Enabled 表示是否启用限流。
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

// Allow 判断 key 对应的调用方是否还有令牌。
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = rl.now()
	limiter := entry.limiter
	rl.mu.Unlock()
	return limiter.AllowN(rl.now(), 1)
}

// Len 返回当前跟踪的调用方数量。
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Sweep 移除超过 idle 未访问的令牌桶。
func (rl *RateLimiter) Sweep(idle time.Duration) {
	threshold := rl.now().Add(-idle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, key)
		}
	}
}

// Middleware 超出配额时返回 429。
func (rl *RateLimiter) Middleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if rl.Enabled() && !rl.Allow(callerKey(ctx)) {
				return nil, errors.New(429, reasonRateLimited, "too many requests")
			}
			return handler(ctx, req)
		}
	}
}

// Start 周期清理空闲令牌桶，实现 transport.Server 以便由 kratos.App 管理。
func (rl *RateLimiter) Start(ctx context.Context) error {
	if !rl.Enabled() {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Sweep(limiterIdleTTL)
		}
	}
}

// Stop 无需额外清理，Start 随 ctx 结束退出。
func (rl *RateLimiter) Stop(context.Context) error {
	return nil
}

func callerKey(ctx context.Context) string {
	if userID := metadata.UserID(ctx); userID != "" {
		return "user:" + userID
	}
	if req, ok := khttp.RequestFromServerContext(ctx); ok {
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			host = req.RemoteAddr
		}
		return "ip:" + host
	}
	return "anonymous"
}
