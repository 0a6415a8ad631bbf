package ranking

import (
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
)

// DefaultTrendingLimit 是未指定 limit 时返回的热门条数。
const DefaultTrendingLimit = 10

const (
	trendingRateScale    = 1000.0
	trendingRecencyDays  = 7
	trendingRecencyScale = 100.0
)

// TrendingScore 计算热门得分：
//
//	(likes + comments*2) / max(views, 1) * 1000 + max(0, 7 - days) * 100
func TrendingScore(item po.ContentItem, now time.Time) float64 {
	views := max(item.Views, 1)
	rate := float64(item.Likes+item.Comments*2) / float64(views)
	recency := max(0, trendingRecencyDays-daysSince(item.CreatedAt, now))
	return rate*trendingRateScale + float64(recency)*trendingRecencyScale
}

// Trending 返回得分最高的 limit 条内容，不做随机化，同分保持目录顺序。
func Trending(items []po.ContentItem, limit int, now time.Time) []po.ContentItem {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	scored := make([]Scored, len(items))
	for i, item := range items {
		scored[i] = Scored{Item: item, Score: TrendingScore(item, now)}
	}
	sortScoredDesc(scored)
	return takeItems(scored, limit)
}
