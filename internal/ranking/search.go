package ranking

import (
	"slices"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
)

// 搜索相关度权重。
const (
	SearchTitle       = 50.0
	SearchDescription = 30.0
	SearchTopic       = 40.0
	SearchTag         = 35.0
	SearchCreator     = 25.0
)

// SearchFilters 在打分前按精确匹配过滤候选集，零值字段不参与过滤。
type SearchFilters struct {
	Category   string
	SkillLevel po.SkillLevel
	Topics     []string // 内容任一话题命中即保留
}

func (f *SearchFilters) keep(item po.ContentItem) bool {
	if f == nil {
		return true
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.SkillLevel != "" && item.SkillLevel != f.SkillLevel {
		return false
	}
	if len(f.Topics) > 0 && !slices.ContainsFunc(item.Topics, func(t string) bool {
		return slices.Contains(f.Topics, t)
	}) {
		return false
	}
	return true
}

// SearchScore 计算内容与查询的相关度，各字段为大小写不敏感的子串匹配。
func SearchScore(item po.ContentItem, query string) float64 {
	return searchScore(newFolder(), item, newFolder().fold(query))
}

func searchScore(f *folder, item po.ContentItem, q string) float64 {
	var score float64
	if f.containsFolded(item.Title, q) {
		score += SearchTitle
	}
	if f.containsFolded(item.Description, q) {
		score += SearchDescription
	}
	if slices.ContainsFunc(item.Topics, func(t string) bool { return f.containsFolded(t, q) }) {
		score += SearchTopic
	}
	if slices.ContainsFunc(item.Tags, func(t string) bool { return f.containsFolded(t, q) }) {
		score += SearchTag
	}
	if f.containsFolded(item.Creator.Name, q) {
		score += SearchCreator
	}
	return score
}

// Search 先过滤再打分，得分为 0 的内容直接剔除，其余按得分稳定降序返回。
// 空查询不做特殊处理（空串是任何字符串的子串），需要"浏览"语义的调用方应使用 Trending。
func Search(items []po.ContentItem, query string, filters *SearchFilters) []po.ContentItem {
	f := newFolder()
	q := f.fold(query)

	scored := make([]Scored, 0, len(items))
	for _, item := range items {
		if !filters.keep(item) {
			continue
		}
		score := searchScore(f, item, q)
		if score <= 0 {
			continue
		}
		scored = append(scored, Scored{Item: item, Score: score})
	}
	sortScoredDesc(scored)
	return takeItems(scored, len(scored))
}
