package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind 标识互动事件类型。
type Kind int

// 互动事件类型常量。
const (
	// KindUnknown 表示未识别的事件类型。
	KindUnknown Kind = iota
	KindFollowed
	KindUnfollowed
	KindLiked
	KindUnliked
	KindWatched
	KindCourseCompleted
	KindPlaylistCreated
	KindPlaylistItemAdded
	KindPlaylistItemRemoved
	KindInterestAdded
	KindInterestRemoved
	KindCommented
	KindAchievementUnlocked
	KindSessionReset
)

func (k Kind) String() string {
	switch k {
	case KindFollowed:
		return "feed.creator.followed"
	case KindUnfollowed:
		return "feed.creator.unfollowed"
	case KindLiked:
		return "feed.content.liked"
	case KindUnliked:
		return "feed.content.unliked"
	case KindWatched:
		return "feed.content.watched"
	case KindCourseCompleted:
		return "feed.course.completed"
	case KindPlaylistCreated:
		return "feed.playlist.created"
	case KindPlaylistItemAdded:
		return "feed.playlist.item_added"
	case KindPlaylistItemRemoved:
		return "feed.playlist.item_removed"
	case KindInterestAdded:
		return "feed.interest.added"
	case KindInterestRemoved:
		return "feed.interest.removed"
	case KindCommented:
		return "feed.content.commented"
	case KindAchievementUnlocked:
		return "feed.achievement.unlocked"
	case KindSessionReset:
		return "feed.session.reset"
	default:
		return "feed.unknown"
	}
}

// EngagementEvent 描述一次生效的互动变更，空操作不产生事件。
type EngagementEvent struct {
	EventID    uuid.UUID     `json:"event_id"`
	Kind       Kind          `json:"-"`
	Type       string        `json:"event_type"`
	UserID     string        `json:"user_id"`
	ContentID  string        `json:"content_id,omitempty"`
	CreatorID  string        `json:"creator_id,omitempty"`
	CourseID   string        `json:"course_id,omitempty"`
	PlaylistID string        `json:"playlist_id,omitempty"`
	Topic      string        `json:"topic,omitempty"`
	Delta      time.Duration `json:"delta,omitempty"`
	Completed  bool          `json:"completed,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

const (
	// AggregateTypeEngagement 标识互动聚合类型，写入 message attributes。
	AggregateTypeEngagement = "engagement"
	// SchemaVersionV1 描述事件载荷的当前 schema 版本。
	SchemaVersionV1 = "v1"
)

var (
	// ErrInvalidEventID 表示未提供合法的事件 ID。
	ErrInvalidEventID = fmt.Errorf("event builder: event id is required")
	// ErrUnknownEventKind 表示未识别的事件类型。
	ErrUnknownEventKind = fmt.Errorf("event builder: unknown event kind")
	// ErrMissingUser 表示事件缺少用户标识。
	ErrMissingUser = fmt.Errorf("event builder: user id is required")
)

// NewEngagementEvent 构造互动事件并填充类型字符串。
func NewEngagementEvent(kind Kind, userID string, eventID uuid.UUID, occurredAt time.Time) (EngagementEvent, error) {
	if kind == KindUnknown {
		return EngagementEvent{}, ErrUnknownEventKind
	}
	if eventID == uuid.Nil {
		return EngagementEvent{}, ErrInvalidEventID
	}
	if userID == "" {
		return EngagementEvent{}, ErrMissingUser
	}
	return EngagementEvent{
		EventID:    eventID,
		Kind:       kind,
		Type:       kind.String(),
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
	}, nil
}
