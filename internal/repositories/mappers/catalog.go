package mappers

import (
	"fmt"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	json "github.com/goccy/go-json"
)

// CatalogDocument 是外部采集层导出的目录快照 JSON 格式（文件 / GCS 对象共用）。
type CatalogDocument struct {
	Items   []ContentDocument `json:"items"`
	Courses []CourseDocument  `json:"courses"`
}

// ContentDocument 对应单条内容，时长以秒表示。
type ContentDocument struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	VideoURL        string     `json:"video_url"`
	DurationSeconds float64    `json:"duration_seconds"`
	Creator         po.Creator `json:"creator"`
	Topics          []string   `json:"topics"`
	SkillLevel      string     `json:"skill_level"`
	Likes           int64      `json:"likes"`
	Views           int64      `json:"views"`
	Comments        int64      `json:"comments"`
	CreatedAt       time.Time  `json:"created_at"`
	Tags            []string   `json:"tags"`
	Category        string     `json:"category"`
}

// CourseDocument 对应单个微课程。
type CourseDocument struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	ThumbnailURL         string    `json:"thumbnail_url"`
	CreatorID            string    `json:"creator_id"`
	ContentIDs           []string  `json:"content_ids"`
	Topics               []string  `json:"topics"`
	SkillLevel           string    `json:"skill_level"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	Enrollments          int64     `json:"enrollments"`
	Rating               float64   `json:"rating"`
	CreatedAt            time.Time `json:"created_at"`
}

// DecodeCatalog 解析目录 JSON 并校验基本约束（ID 唯一、时长为正、计数非负）。
func DecodeCatalog(data []byte) (*po.CatalogSnapshot, error) {
	var doc CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}
	return CatalogFromDocument(doc)
}

// CatalogFromDocument 将文档转换为目录快照（Version 由持有方分配）。
func CatalogFromDocument(doc CatalogDocument) (*po.CatalogSnapshot, error) {
	snapshot := &po.CatalogSnapshot{
		Items:   make([]po.ContentItem, 0, len(doc.Items)),
		Courses: make([]po.Course, 0, len(doc.Courses)),
	}
	seen := make(map[string]struct{}, len(doc.Items))
	for _, d := range doc.Items {
		item, err := ContentFromDocument(d)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate content id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		snapshot.Items = append(snapshot.Items, item)
	}
	for _, d := range doc.Courses {
		if strings.TrimSpace(d.ID) == "" {
			return nil, fmt.Errorf("catalog: course id is required")
		}
		snapshot.Courses = append(snapshot.Courses, po.Course{
			ID:            strings.TrimSpace(d.ID),
			Title:         d.Title,
			Description:   d.Description,
			ThumbnailURL:  d.ThumbnailURL,
			CreatorID:     d.CreatorID,
			ContentIDs:    append([]string(nil), d.ContentIDs...),
			Topics:        append([]string(nil), d.Topics...),
			SkillLevel:    po.SkillLevel(strings.ToLower(d.SkillLevel)),
			TotalDuration: secondsToDuration(d.TotalDurationSeconds),
			Enrollments:   d.Enrollments,
			Rating:        d.Rating,
			CreatedAt:     d.CreatedAt.UTC(),
		})
	}
	return snapshot, nil
}

// ContentFromDocument 转换并校验单条内容。
func ContentFromDocument(d ContentDocument) (po.ContentItem, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		return po.ContentItem{}, fmt.Errorf("catalog: content id is required")
	}
	if d.DurationSeconds <= 0 {
		return po.ContentItem{}, fmt.Errorf("catalog: content %q has non-positive duration", id)
	}
	if d.Likes < 0 || d.Views < 0 || d.Comments < 0 {
		return po.ContentItem{}, fmt.Errorf("catalog: content %q has negative counters", id)
	}
	level := po.SkillLevel(strings.ToLower(strings.TrimSpace(d.SkillLevel)))
	if level != "" && !level.Valid() {
		return po.ContentItem{}, fmt.Errorf("catalog: content %q has unknown skill level %q", id, d.SkillLevel)
	}
	return po.ContentItem{
		ID:           id,
		Title:        d.Title,
		Description:  d.Description,
		ThumbnailURL: d.ThumbnailURL,
		VideoURL:     d.VideoURL,
		Duration:     secondsToDuration(d.DurationSeconds),
		CreatorID:    d.Creator.ID,
		Creator:      d.Creator,
		Topics:       append([]string(nil), d.Topics...),
		SkillLevel:   level,
		Tags:         append([]string(nil), d.Tags...),
		Category:     d.Category,
		CreatedAt:    d.CreatedAt.UTC(),
		Likes:        d.Likes,
		Views:        d.Views,
		Comments:     d.Comments,
	}, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
