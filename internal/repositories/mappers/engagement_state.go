package mappers

import (
	"fmt"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	json "github.com/goccy/go-json"
)

// EngagementStateToJSON 序列化互动状态，写入 JSONB 列。
func EngagementStateToJSON(state *po.EngagementState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("engagement state is nil")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal engagement state: %w", err)
	}
	return payload, nil
}

// EngagementStateFromJSON 反序列化 JSONB 列，并补齐 nil 集合。
func EngagementStateFromJSON(data []byte) (*po.EngagementState, error) {
	var state po.EngagementState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal engagement state: %w", err)
	}
	if state.Liked == nil {
		state.Liked = []string{}
	}
	if state.Followed == nil {
		state.Followed = []string{}
	}
	if state.Interests == nil {
		state.Interests = []string{}
	}
	if state.Progress.WatchedVideos == nil {
		state.Progress.WatchedVideos = []po.WatchRecord{}
	}
	if state.Progress.CompletedCourses == nil {
		state.Progress.CompletedCourses = []po.CourseCompletion{}
	}
	if state.Progress.Achievements == nil {
		state.Progress.Achievements = []string{}
	}
	if state.Comments == nil {
		state.Comments = map[string][]po.Comment{}
	}
	// 派生计数以记录为准
	state.Progress.TotalWatchTime = state.Progress.SumWatchTime()
	return &state, nil
}
