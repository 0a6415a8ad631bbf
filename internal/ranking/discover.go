package ranking

import (
	"cmp"
	"slices"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
)

// TopicCount 表示话题及其在目录中出现的次数。
type TopicCount struct {
	Topic string
	Count int
}

// TrendingTopics 统计目录中出现最多的 n 个话题，同频按首次出现顺序。
func TrendingTopics(items []po.ContentItem, n int) []TopicCount {
	index := make(map[string]int)
	var counts []TopicCount
	for _, item := range items {
		for _, t := range item.Topics {
			if i, ok := index[t]; ok {
				counts[i].Count++
				continue
			}
			index[t] = len(counts)
			counts = append(counts, TopicCount{Topic: t, Count: 1})
		}
	}
	slices.SortStableFunc(counts, func(a, b TopicCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// TopCreators 按目录顺序返回前 n 个去重后的创作者。
func TopCreators(items []po.ContentItem, n int) []po.Creator {
	seen := make(map[string]struct{})
	var out []po.Creator
	for _, item := range items {
		if _, ok := seen[item.CreatorID]; ok {
			continue
		}
		seen[item.CreatorID] = struct{}{}
		creator := item.Creator
		if creator.ID == "" {
			creator.ID = item.CreatorID
		}
		out = append(out, creator)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
