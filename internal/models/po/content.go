// Package po 定义 feed 服务内部使用的数据对象（Persistent Objects）。
// 目录快照（ContentItem/Creator/Course）由外部采集层提供，本服务只读，计数器除外。
package po

import (
	"slices"
	"time"
)

// SkillLevel 表示内容面向的学习难度。
type SkillLevel string

// 难度常量定义
const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// Valid 判断难度是否为已知枚举值。
func (s SkillLevel) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	default:
		return false
	}
}

// Creator 表示内容创作者。
type Creator struct {
	ID        string `json:"id"`
	Name      string `json:"name"`     // 展示名
	Username  string `json:"username"` // handle，如 @sarah
	AvatarURL string `json:"avatar_url"`
	Verified  bool   `json:"verified"`
}

// ContentItem 表示一条短视频内容。
type ContentItem struct {
	// ============================================
	// 基础字段
	// ============================================
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	ThumbnailURL string        `json:"thumbnail_url"`
	VideoURL     string        `json:"video_url"`
	Duration     time.Duration `json:"duration"` // 必须 > 0
	CreatedAt    time.Time     `json:"created_at"`

	// ============================================
	// 归属与分类
	// ============================================
	CreatorID  string     `json:"creator_id"`
	Creator    Creator    `json:"creator"` // 展示用冗余拷贝
	Topics     []string   `json:"topics"`  // 有序，可与其他内容重复
	SkillLevel SkillLevel `json:"skill_level"`
	Tags       []string   `json:"tags"`
	Category   string     `json:"category"`

	// ============================================
	// 互动计数器（非负，仅由互动事件修改）
	// ============================================
	Likes    int64 `json:"likes"`
	Views    int64 `json:"views"`
	Comments int64 `json:"comments"`
}

// IsCompletedBy 判断给定观看时长是否达到 80% 完成阈值（含边界）。
// 使用整数比较 watch*5 >= duration*4，避免浮点误差。
func (c ContentItem) IsCompletedBy(watch time.Duration) bool {
	return watch*5 >= c.Duration*4
}

// SameContent 比较除互动计数器以外的全部字段。
func (c ContentItem) SameContent(o ContentItem) bool {
	return c.ID == o.ID &&
		c.Title == o.Title &&
		c.Description == o.Description &&
		c.ThumbnailURL == o.ThumbnailURL &&
		c.VideoURL == o.VideoURL &&
		c.Duration == o.Duration &&
		c.CreatedAt.Equal(o.CreatedAt) &&
		c.CreatorID == o.CreatorID &&
		c.Creator == o.Creator &&
		slices.Equal(c.Topics, o.Topics) &&
		c.SkillLevel == o.SkillLevel &&
		slices.Equal(c.Tags, o.Tags) &&
		c.Category == o.Category
}

// Course 表示由多个内容组成的微课程。
type Course struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	ThumbnailURL  string        `json:"thumbnail_url"`
	CreatorID     string        `json:"creator_id"`
	ContentIDs    []string      `json:"content_ids"` // 课程内视频顺序
	Topics        []string      `json:"topics"`
	SkillLevel    SkillLevel    `json:"skill_level"`
	TotalDuration time.Duration `json:"total_duration"`
	Enrollments   int64         `json:"enrollments"`
	Rating        float64       `json:"rating"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Equal 逐字段比较课程。
func (c Course) Equal(o Course) bool {
	return c.ID == o.ID &&
		c.Title == o.Title &&
		c.Description == o.Description &&
		c.ThumbnailURL == o.ThumbnailURL &&
		c.CreatorID == o.CreatorID &&
		slices.Equal(c.ContentIDs, o.ContentIDs) &&
		slices.Equal(c.Topics, o.Topics) &&
		c.SkillLevel == o.SkillLevel &&
		c.TotalDuration == o.TotalDuration &&
		c.Enrollments == o.Enrollments &&
		c.Rating == o.Rating &&
		c.CreatedAt.Equal(o.CreatedAt)
}
