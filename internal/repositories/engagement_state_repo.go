package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEngagementStateNotFound 表示用户尚无持久化的互动状态。
var ErrEngagementStateNotFound = errors.New("engagement state not found")

const (
	getEngagementStateSQL = `SELECT state FROM feed.engagement_states WHERE user_id = $1`

	upsertEngagementStateSQL = `
INSERT INTO feed.engagement_states (user_id, state, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`

	deleteEngagementStateSQL = `DELETE FROM feed.engagement_states WHERE user_id = $1`
)

// EngagementStateRepository 以 JSONB 形式保存会话结束时的互动状态。
// 仅尽力而为，不提供持久性保证。
type EngagementStateRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewEngagementStateRepository 构造仓储。
func NewEngagementStateRepository(db *pgxpool.Pool, logger log.Logger) *EngagementStateRepository {
	return &EngagementStateRepository{db: db, log: log.NewHelper(logger)}
}

// Get 读取用户的互动状态，不存在时返回 ErrEngagementStateNotFound。
func (r *EngagementStateRepository) Get(ctx context.Context, sess txmanager.Session, userID string) (*po.EngagementState, error) {
	var payload []byte
	err := pick(r.db, sess).QueryRow(ctx, getEngagementStateSQL, userID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEngagementStateNotFound
		}
		return nil, fmt.Errorf("get engagement state: %w", err)
	}
	return mappers.EngagementStateFromJSON(payload)
}

// Save 写入（覆盖）用户的互动状态。
func (r *EngagementStateRepository) Save(ctx context.Context, sess txmanager.Session, state *po.EngagementState) error {
	payload, err := mappers.EngagementStateToJSON(state)
	if err != nil {
		return err
	}
	if _, err := pick(r.db, sess).Exec(ctx, upsertEngagementStateSQL, state.UserID, payload); err != nil {
		return fmt.Errorf("upsert engagement state: %w", err)
	}
	return nil
}

// Delete 删除用户的互动状态。
func (r *EngagementStateRepository) Delete(ctx context.Context, sess txmanager.Session, userID string) error {
	if _, err := pick(r.db, sess).Exec(ctx, deleteEngagementStateSQL, userID); err != nil {
		return fmt.Errorf("delete engagement state: %w", err)
	}
	return nil
}
