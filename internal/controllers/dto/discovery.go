package dto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/models/vo"
	"github.com/bionicotaku/lingo-services-feed/internal/ranking"
)

// MaxListLimit 限制列表类查询单次返回的条数。
const MaxListLimit = 100

// ListQuery 对应带 limit 的查询参数。
type ListQuery struct {
	Limit int `validate:"gte=0,lte=100"`
}

// SearchQuery 对应 GET /v1/search 的查询参数。
type SearchQuery struct {
	Query      string   `validate:"max=200"`
	Category   string   `validate:"max=64"`
	SkillLevel string   `validate:"omitempty,oneof=beginner intermediate advanced"`
	Topics     []string `validate:"max=20,dive,max=64"`
}

// Filters 转换为排序引擎的过滤条件，无过滤条件时返回 nil。
func (q SearchQuery) Filters() *ranking.SearchFilters {
	if q.Category == "" && q.SkillLevel == "" && len(q.Topics) == 0 {
		return nil
	}
	return &ranking.SearchFilters{
		Category:   q.Category,
		SkillLevel: po.SkillLevel(q.SkillLevel),
		Topics:     q.Topics,
	}
}

// CourseProgressQuery 对应 GET /v1/me/courses/progress。
type CourseProgressQuery struct {
	Filter string `validate:"omitempty,oneof=all in_progress completed"`
}

// ParseLimit 解析 limit 参数，空值返回 0 表示使用默认值。
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", raw, err)
	}
	return n, nil
}

// SplitTopics 解析逗号分隔或重复出现的 topic 参数。
func SplitTopics(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ContentListResponse 包装内容列表。
type ContentListResponse struct {
	Items []po.ContentItem `json:"items"`
}

// NewContentListResponse 保证空列表输出为 [] 而非 null。
func NewContentListResponse(items []po.ContentItem) *ContentListResponse {
	if items == nil {
		items = []po.ContentItem{}
	}
	return &ContentListResponse{Items: items}
}

// TopicCount 是热门话题条目。
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// TopicsResponse 包装热门话题。
type TopicsResponse struct {
	Topics []TopicCount `json:"topics"`
}

// NewTopicsResponse 转换排序引擎的话题计数。
func NewTopicsResponse(counts []ranking.TopicCount) *TopicsResponse {
	out := make([]TopicCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, TopicCount{Topic: c.Topic, Count: c.Count})
	}
	return &TopicsResponse{Topics: out}
}

// CreatorsResponse 包装创作者列表。
type CreatorsResponse struct {
	Creators []vo.CreatorSummary `json:"creators"`
}
