package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	listContentItemsSQL = `
SELECT id, title, description, thumbnail_url, video_url, duration_ms,
       creator_id, creator_name, creator_username, creator_avatar_url, creator_verified,
       topics, skill_level, tags, category, likes, views, comments, created_at
FROM feed.content_items
ORDER BY catalog_position, id`

	listCoursesSQL = `
SELECT id, title, description, thumbnail_url, creator_id, content_ids, topics,
       skill_level, total_duration_ms, enrollments, rating, created_at
FROM feed.courses
ORDER BY catalog_position, id`
)

// PostgresCatalogSource 从 feed.content_items / feed.courses 读取目录快照。
// 两次查询在同一只读事务内完成，保证快照一致。
type PostgresCatalogSource struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewPostgresCatalogSource 构造 Postgres 目录源。
func NewPostgresCatalogSource(db *pgxpool.Pool, logger log.Logger) *PostgresCatalogSource {
	return &PostgresCatalogSource{db: db, log: log.NewHelper(logger)}
}

// Name 返回来源标识。
func (s *PostgresCatalogSource) Name() string {
	return "postgres"
}

// Load 在 REPEATABLE READ 只读事务中读取内容与课程。
func (s *PostgresCatalogSource) Load(ctx context.Context) (*po.CatalogSnapshot, error) {
	snapshot := &po.CatalogSnapshot{}
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		items, err := loadContentItems(ctx, tx)
		if err != nil {
			return err
		}
		courses, err := loadCourses(ctx, tx)
		if err != nil {
			return err
		}
		snapshot.Items = items
		snapshot.Courses = courses
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog from postgres: %w", err)
	}
	s.log.WithContext(ctx).Debugf("postgres catalog loaded: items=%d courses=%d", len(snapshot.Items), len(snapshot.Courses))
	return snapshot, nil
}

func loadContentItems(ctx context.Context, db dbtx) ([]po.ContentItem, error) {
	rows, err := db.Query(ctx, listContentItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	defer rows.Close()

	var items []po.ContentItem
	for rows.Next() {
		var (
			item       po.ContentItem
			durationMs int64
			skill      string
		)
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.ThumbnailURL, &item.VideoURL, &durationMs,
			&item.CreatorID, &item.Creator.Name, &item.Creator.Username, &item.Creator.AvatarURL, &item.Creator.Verified,
			&item.Topics, &skill, &item.Tags, &item.Category, &item.Likes, &item.Views, &item.Comments, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		item.Creator.ID = item.CreatorID
		item.Duration = time.Duration(durationMs) * time.Millisecond
		item.SkillLevel = po.SkillLevel(skill)
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}
	return items, nil
}

func loadCourses(ctx context.Context, db dbtx) ([]po.Course, error) {
	rows, err := db.Query(ctx, listCoursesSQL)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []po.Course
	for rows.Next() {
		var (
			course     po.Course
			durationMs int64
			skill      string
		)
		if err := rows.Scan(
			&course.ID, &course.Title, &course.Description, &course.ThumbnailURL, &course.CreatorID,
			&course.ContentIDs, &course.Topics, &skill, &durationMs, &course.Enrollments, &course.Rating, &course.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		course.SkillLevel = po.SkillLevel(skill)
		course.TotalDuration = time.Duration(durationMs) * time.Millisecond
		course.CreatedAt = course.CreatedAt.UTC()
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

var _ CatalogSource = (*PostgresCatalogSource)(nil)
