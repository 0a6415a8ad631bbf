package ranking

import (
	"cmp"
	"slices"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
)

// 个性化 Feed 各评分项的上限与权重。
const (
	InterestWeight    = 15.0
	InterestMax       = 40.0
	FollowBonus       = 30.0
	PopularityMax     = 20.0
	PopularityPerLike = 2.0 / 1000.0
	FreshnessMax      = 10.0
	AffinityBonus     = 10.0

	// DefaultShuffleWindow 是排序后参与随机打散的头部窗口大小。
	DefaultShuffleWindow = 10
)

// RandomSource 是洗牌所需的最小随机源，*rand.Rand 满足该接口。
type RandomSource interface {
	Intn(n int) int
}

// FeedInput 描述计算个性化 Feed 所需的用户互动快照。
type FeedInput struct {
	Interests        []string
	FollowedCreators []string
	WatchedIDs       []string
	LikedIDs         []string
}

// Options 控制排序的时间基准与随机行为。
type Options struct {
	Now    time.Time
	Rand   RandomSource // nil 时不洗牌
	Window int          // <= 0 时使用 DefaultShuffleWindow
}

// FeedScore 是单条内容的评分明细。
type FeedScore struct {
	Interest   float64
	Follow     float64
	Popularity float64
	Freshness  float64
	Affinity   float64
}

// Total 返回各分项之和。
func (s FeedScore) Total() float64 {
	return s.Interest + s.Follow + s.Popularity + s.Freshness + s.Affinity
}

// Scored 将内容与其得分绑定。
type Scored struct {
	Item  po.ContentItem
	Score float64
}

// feedScorer 预先构建查询结构，避免对每条内容重复扫描。
type feedScorer struct {
	folder          *folder
	interests       []string // 已折叠
	followed        map[string]struct{}
	likedCreatorsBy map[string][]string // creatorID -> 被点赞内容 ID 列表
	now             time.Time
}

func newFeedScorer(items []po.ContentItem, in FeedInput, now time.Time) *feedScorer {
	f := newFolder()
	interests := make([]string, 0, len(in.Interests))
	for _, interest := range in.Interests {
		interests = append(interests, f.fold(interest))
	}

	liked := toSet(in.LikedIDs)
	likedCreators := make(map[string][]string)
	for _, item := range items {
		if _, ok := liked[item.ID]; ok {
			likedCreators[item.CreatorID] = append(likedCreators[item.CreatorID], item.ID)
		}
	}

	return &feedScorer{
		folder:          f,
		interests:       interests,
		followed:        toSet(in.FollowedCreators),
		likedCreatorsBy: likedCreators,
		now:             now,
	}
}

func (s *feedScorer) score(item po.ContentItem) FeedScore {
	var out FeedScore

	matches := 0
	for _, topic := range item.Topics {
		folded := s.folder.fold(topic)
		if slices.Contains(s.interests, folded) {
			matches++
		}
	}
	out.Interest = min(InterestMax, float64(matches)*InterestWeight)

	if _, ok := s.followed[item.CreatorID]; ok {
		out.Follow = FollowBonus
	}

	out.Popularity = min(PopularityMax, max(0, float64(item.Likes)*PopularityPerLike))

	out.Freshness = max(0, FreshnessMax-float64(daysSince(item.CreatedAt, s.now)))

	// 自身不计入亲和度
	for _, likedID := range s.likedCreatorsBy[item.CreatorID] {
		if likedID != item.ID {
			out.Affinity = AffinityBonus
			break
		}
	}
	return out
}

// ScoreForFeed 返回单条内容在个性化 Feed 中的评分明细。
// items 为完整目录（用于解析已点赞内容的创作者）。
func ScoreForFeed(item po.ContentItem, items []po.ContentItem, in FeedInput, now time.Time) FeedScore {
	return newFeedScorer(items, in, now).score(item)
}

// RankFeed 返回未观看内容按得分降序的稳定排序结果（洗牌前）。
func RankFeed(items []po.ContentItem, in FeedInput, now time.Time) []Scored {
	scorer := newFeedScorer(items, in, now)
	watched := toSet(in.WatchedIDs)

	scored := make([]Scored, 0, len(items))
	for _, item := range items {
		if _, ok := watched[item.ID]; ok {
			continue
		}
		scored = append(scored, Scored{Item: item, Score: scorer.score(item).Total()})
	}
	sortScoredDesc(scored)
	return scored
}

// PersonalizedFeed 计算个性化 Feed：排除已观看内容，按得分稳定降序排序，
// 再对头部窗口做无偏 Fisher–Yates 洗牌，其余位置保持排序结果。
// 输入为空时返回空切片，不报错。
func PersonalizedFeed(items []po.ContentItem, in FeedInput, opts Options) []po.ContentItem {
	scored := RankFeed(items, in, opts.Now)

	window := opts.Window
	if window <= 0 {
		window = DefaultShuffleWindow
	}
	window = min(window, len(scored))
	if opts.Rand != nil {
		shuffle(scored[:window], opts.Rand)
	}

	out := make([]po.ContentItem, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}

// shuffle 原地执行 Fisher–Yates。
func shuffle[T any](s []T, rng RandomSource) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func sortScoredDesc(scored []Scored) {
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

func takeItems(scored []Scored, limit int) []po.ContentItem {
	limit = min(limit, len(scored))
	out := make([]po.ContentItem, limit)
	for i := 0; i < limit; i++ {
		out[i] = scored[i].Item
	}
	return out
}
