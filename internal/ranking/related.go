package ranking

import (
	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
)

// DefaultRelatedLimit 是未指定 limit 时返回的相关内容条数。
const DefaultRelatedLimit = 5

// 相关推荐评分权重。
const (
	RelatedSameCreator = 30.0
	RelatedPerTopic    = 15.0
	RelatedSameSkill   = 10.0
	RelatedSameCat     = 10.0
)

// RelatedScore 计算 candidate 相对 anchor 的相关度。共享话题按集合交集计数，忽略重复。
func RelatedScore(anchor, candidate po.ContentItem) float64 {
	var score float64
	if candidate.CreatorID == anchor.CreatorID {
		score += RelatedSameCreator
	}

	anchorTopics := toSet(anchor.Topics)
	seen := make(map[string]struct{}, len(candidate.Topics))
	for _, t := range candidate.Topics {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := anchorTopics[t]; ok {
			score += RelatedPerTopic
		}
	}

	if candidate.SkillLevel == anchor.SkillLevel {
		score += RelatedSameSkill
	}
	if candidate.Category == anchor.Category {
		score += RelatedSameCat
	}
	return score
}

// Related 返回与 anchor 最相关的 limit 条内容（不含 anchor 本身），同分稳定。
func Related(anchor po.ContentItem, items []po.ContentItem, limit int) []po.ContentItem {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	scored := make([]Scored, 0, len(items))
	for _, item := range items {
		if item.ID == anchor.ID {
			continue
		}
		scored = append(scored, Scored{Item: item, Score: RelatedScore(anchor, item)})
	}
	sortScoredDesc(scored)
	return takeItems(scored, limit)
}
