package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/ranking"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ErrUserRequired 表示请求未携带用户标识。
var ErrUserRequired = errors.BadRequest("USER_ID_REQUIRED", "user id is required")

// StateRepository 定义互动状态快照的持久化能力。
type StateRepository interface {
	Get(ctx context.Context, sess txmanager.Session, userID string) (*po.EngagementState, error)
	Save(ctx context.Context, sess txmanager.Session, state *po.EngagementState) error
}

// RegistryConfig 控制会话内 Feed 的随机性与持久化超时。
type RegistryConfig struct {
	Seed           int64 // 0 表示按时间取种子
	ShuffleWindow  int
	PersistTimeout time.Duration
}

// Session 聚合单个用户的互动账本与 Feed 游标。
type Session struct {
	Store *EngagementStore
	Feed  *FeedComposer
}

// SessionRegistry 按用户分区管理会话，不同用户之间互不争用锁。
type SessionRegistry struct {
	sessions sync.Map // userID -> *Session
	openMu   sync.Mutex

	catalog Catalog
	repo    StateRepository
	tx      txmanager.Manager
	sink    EventSink
	metrics *Metrics
	cfg     RegistryConfig

	clock  func() time.Time
	newID  func() string
	logger log.Logger
	log    *log.Helper
}

// NewSessionRegistry 构造会话注册表；repo 或 tx 为空时仅在内存中维护状态。
func NewSessionRegistry(catalog Catalog, repo StateRepository, tx txmanager.Manager, sink EventSink, metrics *Metrics, cfg RegistryConfig, logger log.Logger) *SessionRegistry {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 3 * time.Second
	}
	return &SessionRegistry{
		catalog: catalog,
		repo:    repo,
		tx:      tx,
		sink:    sink,
		metrics: metrics,
		cfg:     cfg,
		clock:   time.Now,
		newID:   uuid.NewString,
		logger:  logger,
		log:     log.NewHelper(logger),
	}
}

// WithClock 替换时钟，便于测试。
func (r *SessionRegistry) WithClock(fn func() time.Time) {
	if fn != nil {
		r.clock = fn
	}
}

// Open 返回用户会话，不存在时从持久化快照恢复或创建默认状态。
func (r *SessionRegistry) Open(ctx context.Context, userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}
	if v, ok := r.sessions.Load(userID); ok {
		return v.(*Session), nil
	}

	r.openMu.Lock()
	defer r.openMu.Unlock()
	if v, ok := r.sessions.Load(userID); ok {
		return v.(*Session), nil
	}

	state := r.load(ctx, userID)
	store := NewEngagementStore(userID, state, r.catalog, r.logger, StoreOptions{
		Sink:    r.sink,
		Metrics: r.metrics,
		Clock:   r.clock,
		NewID:   r.newID,
	})
	session := &Session{
		Store: store,
		Feed: NewFeedComposer(store, r.newRand(userID), r.logger, ComposerOptions{
			Window:  r.cfg.ShuffleWindow,
			Metrics: r.metrics,
			Clock:   r.clock,
		}),
	}
	r.sessions.Store(userID, session)
	r.log.WithContext(ctx).Infof("session opened: user_id=%s restored=%v", userID, state != nil)
	return session, nil
}

// Reset 以默认状态整体替换用户账本，Feed 会在下一次访问时重新计算。
func (r *SessionRegistry) Reset(ctx context.Context, userID string) (*Session, error) {
	session, err := r.Open(ctx, userID)
	if err != nil {
		return nil, err
	}
	session.Store.Reset(ctx)
	return session, nil
}

// Close 结束会话并尽力持久化状态快照；会话总会被移除。
func (r *SessionRegistry) Close(ctx context.Context, userID string) error {
	v, ok := r.sessions.LoadAndDelete(strings.TrimSpace(userID))
	if !ok {
		return nil
	}
	state, _ := v.(*Session).Store.Snapshot()
	return r.persist(ctx, state)
}

// CloseAll 关闭全部会话，用于进程退出前的清理。
func (r *SessionRegistry) CloseAll(ctx context.Context) {
	r.sessions.Range(func(key, _ any) bool {
		if err := r.Close(ctx, key.(string)); err != nil {
			r.log.WithContext(ctx).Warnf("close session failed: user_id=%v err=%v", key, err)
		}
		return true
	})
}

// Len 返回活跃会话数量。
func (r *SessionRegistry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *SessionRegistry) load(ctx context.Context, userID string) *po.EngagementState {
	if r.repo == nil {
		return nil
	}
	var state *po.EngagementState
	get := func(txCtx context.Context, sess txmanager.Session) error {
		var err error
		state, err = r.repo.Get(txCtx, sess, userID)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.PersistTimeout)
	defer cancel()

	var err error
	if r.tx != nil {
		err = r.tx.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, get)
	} else {
		err = get(ctx, nil)
	}
	if err != nil {
		if !errors.Is(err, repositories.ErrEngagementStateNotFound) {
			r.log.WithContext(ctx).Warnf("load engagement state failed, starting fresh: user_id=%s err=%v", userID, err)
		}
		return nil
	}
	return state
}

func (r *SessionRegistry) persist(ctx context.Context, state *po.EngagementState) error {
	if r.repo == nil || state == nil {
		return nil
	}
	save := func(txCtx context.Context, sess txmanager.Session) error {
		return r.repo.Save(txCtx, sess, state)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.PersistTimeout)
	defer cancel()

	var err error
	if r.tx != nil {
		err = r.tx.WithinTx(ctx, txmanager.TxOptions{}, save)
	} else {
		err = save(ctx, nil)
	}
	if err != nil {
		r.log.WithContext(ctx).Warnf("persist engagement state failed: user_id=%s err=%v", state.UserID, err)
		return fmt.Errorf("persist engagement state: %w", err)
	}
	return nil
}

// newRand 为每个用户派生独立随机源；固定种子下同一用户的洗牌序列可复现。
func (r *SessionRegistry) newRand(userID string) ranking.RandomSource {
	seed := r.cfg.Seed
	if seed == 0 {
		seed = r.clock().UnixNano()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}
