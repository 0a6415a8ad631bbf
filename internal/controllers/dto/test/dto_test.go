package dto_test

import (
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/ranking"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	n, err := dto.ParseLimit("")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = dto.ParseLimit(" 25 ")
	require.NoError(t, err)
	require.Equal(t, 25, n)

	_, err = dto.ParseLimit("ten")
	require.Error(t, err)
}

func TestSplitTopics(t *testing.T) {
	require.Equal(t, []string{"Spanish", "Python", "Go"}, dto.SplitTopics([]string{"Spanish, Python", " ", "Go"}))
	require.Nil(t, dto.SplitTopics(nil))
}

func TestSearchQueryFilters(t *testing.T) {
	require.Nil(t, dto.SearchQuery{Query: "go"}.Filters())
	require.Equal(t, &ranking.SearchFilters{SkillLevel: po.SkillBeginner, Topics: []string{"Go"}},
		dto.SearchQuery{SkillLevel: "beginner", Topics: []string{"Go"}}.Filters())
}

func TestWatchDelta(t *testing.T) {
	require.Equal(t, 1500*time.Millisecond, dto.RecordWatchRequest{WatchTimeSeconds: 1.5}.WatchDelta())
}

func TestNewContentListResponseNeverNil(t *testing.T) {
	require.NotNil(t, dto.NewContentListResponse(nil).Items)
}

func TestNewTopicsResponse(t *testing.T) {
	resp := dto.NewTopicsResponse([]ranking.TopicCount{{Topic: "Go", Count: 3}})
	require.Equal(t, []dto.TopicCount{{Topic: "Go", Count: 3}}, resp.Topics)
}
