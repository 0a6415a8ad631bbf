package repositories

import (
	"context"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx 是 *pgxpool.Pool 与 pgx.Tx 的公共子集。
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pick 优先使用事务会话，否则回退到连接池。
func pick(base dbtx, sess txmanager.Session) dbtx {
	if sess != nil {
		if tx := sess.Tx(); tx != nil {
			return tx
		}
	}
	return base
}
