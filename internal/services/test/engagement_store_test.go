package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/events"
	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/services"
	"github.com/bionicotaku/lingo-services-feed/internal/tasks/catalog"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/require"
)

func TestNewStoreStartsWithDefaultPlaylists(t *testing.T) {
	f := newStoreFixture(t)
	state, versions := f.store.Snapshot()

	require.Equal(t, "user-1", state.UserID)
	require.Len(t, state.Playlists, 2)
	require.Equal(t, po.PlaylistWatchLater, state.Playlists[0].Name)
	require.False(t, state.Playlists[0].Public)
	require.Equal(t, po.PlaylistFavorites, state.Playlists[1].Name)
	require.True(t, state.Playlists[1].Public)
	require.EqualValues(t, 1, versions.Catalog)
}

func TestRecordWatchCompletionBoundaryIsInclusive(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	rec, err := f.store.RecordWatch(ctx, "v1", 39*time.Second)
	require.NoError(t, err)
	require.False(t, rec.Completed)

	rec, err = f.store.RecordWatch(ctx, "v1", time.Second)
	require.NoError(t, err)
	require.True(t, rec.Completed, "40s of a 50s video reaches the 80% threshold")
	require.Equal(t, 40*time.Second, rec.WatchTime)
}

func TestRecordWatchIsMonotonicAndLatched(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	_, err := f.store.RecordWatch(ctx, "v1", 45*time.Second)
	require.NoError(t, err)
	rec, err := f.store.RecordWatch(ctx, "v1", -10*time.Second)
	require.NoError(t, err)

	require.Equal(t, 45*time.Second, rec.WatchTime, "negative delta is clamped to zero")
	require.True(t, rec.Completed)

	state, _ := f.store.Snapshot()
	require.Len(t, state.Progress.WatchedVideos, 1)
	require.Equal(t, 45*time.Second, state.Progress.TotalWatchTime)
	require.Equal(t, state.Progress.SumWatchTime(), state.Progress.TotalWatchTime)
}

func TestRecordWatchIncrementsViewsOncePerCall(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	before := f.item(t, "v2").Views

	for _, d := range []time.Duration{0, time.Second, -time.Second} {
		_, err := f.store.RecordWatch(ctx, "v2", d)
		require.NoError(t, err)
	}
	require.Equal(t, before+3, f.item(t, "v2").Views)
}

func TestRecordWatchUnknownContent(t *testing.T) {
	f := newStoreFixture(t)
	_, err := f.store.RecordWatch(context.Background(), "missing", time.Second)
	require.True(t, errors.Is(err, services.ErrContentNotFound))

	state, _ := f.store.Snapshot()
	require.Empty(t, state.Progress.WatchedVideos)
}

func TestLikeAndUnlikeRestoreCounter(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	changed, err := f.store.Like(ctx, "v1")
	require.NoError(t, err)
	require.True(t, changed)
	require.EqualValues(t, 11, f.item(t, "v1").Likes)

	changed, err = f.store.Like(ctx, "v1")
	require.NoError(t, err)
	require.False(t, changed)
	require.EqualValues(t, 11, f.item(t, "v1").Likes)

	require.True(t, f.store.Unlike(ctx, "v1"))
	require.EqualValues(t, 10, f.item(t, "v1").Likes)
	require.False(t, f.store.Unlike(ctx, "v1"))
	require.EqualValues(t, 10, f.item(t, "v1").Likes)

	require.EqualValues(t, 1, f.mutationCount(t, "like", true))
	require.EqualValues(t, 1, f.mutationCount(t, "unlike", true))
	require.EqualValues(t, 1, f.mutationCount(t, "like", false))
}

func TestLikeUnlikeAcrossCatalogRefresh(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	refresher := catalog.NewRefresher(staticSource{snap: f.catalog.Snapshot()}, f.catalog, 0, nil, discard())

	changed, err := f.store.Like(ctx, "v1")
	require.NoError(t, err)
	require.True(t, changed)
	_, err = f.store.RecordWatch(ctx, "v1", 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, refresher.Refresh(ctx))
	require.EqualValues(t, 11, f.item(t, "v1").Likes)
	require.EqualValues(t, 101, f.item(t, "v1").Views)

	require.True(t, f.store.Unlike(ctx, "v1"))
	require.EqualValues(t, 10, f.item(t, "v1").Likes)

	require.NoError(t, refresher.Refresh(ctx))
	require.EqualValues(t, 10, f.item(t, "v1").Likes)
	require.EqualValues(t, 101, f.item(t, "v1").Views)
}

func TestLikeUnknownContent(t *testing.T) {
	f := newStoreFixture(t)
	_, err := f.store.Like(context.Background(), "missing")
	require.True(t, errors.Is(err, services.ErrContentNotFound))
	require.EqualValues(t, 404, errors.FromError(err).Code)
}

func TestUnlikeAfterContentLeftCatalog(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	_, err := f.store.Like(ctx, "v3")
	require.NoError(t, err)

	snap := f.catalog.Snapshot()
	f.catalog.Replace(&po.CatalogSnapshot{Items: snap.Items[:2], Courses: snap.Courses})

	require.True(t, f.store.Unlike(ctx, "v3"))
	state, _ := f.store.Snapshot()
	require.NotContains(t, state.Liked, "v3")
}

func TestFollowIsIdempotent(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	require.True(t, f.store.Follow(ctx, "c1"))
	require.False(t, f.store.Follow(ctx, "c1"))
	require.True(t, f.store.Unfollow(ctx, "c1"))
	require.False(t, f.store.Unfollow(ctx, "c1"))

	state, _ := f.store.Snapshot()
	require.Empty(t, state.Followed)
	require.EqualValues(t, 1, f.mutationCount(t, "follow", true))
	require.Equal(t, []events.Kind{events.KindFollowed, events.KindUnfollowed}, f.sink.kinds())
}

func TestInterestsAreCaseSensitiveSet(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	require.True(t, f.store.AddInterest(ctx, "Spanish"))
	require.True(t, f.store.AddInterest(ctx, "spanish"))
	require.False(t, f.store.AddInterest(ctx, "Spanish"))
	require.True(t, f.store.RemoveInterest(ctx, "spanish"))

	state, _ := f.store.Snapshot()
	require.Equal(t, []string{"Spanish"}, state.Interests)
}

func TestCompleteCourseKeepsDuplicates(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	score := 0.9

	_, err := f.store.CompleteCourse(ctx, "course-1", &score)
	require.NoError(t, err)
	_, err = f.store.CompleteCourse(ctx, "course-1", nil)
	require.NoError(t, err)

	state, _ := f.store.Snapshot()
	require.Len(t, state.Progress.CompletedCourses, 2)
	require.InDelta(t, 0.9, *state.Progress.CompletedCourses[0].Score, 1e-9)
	require.Nil(t, state.Progress.CompletedCourses[1].Score)
	require.Equal(t, 1, countOf(state.Progress.Achievements, po.AchievementFirstCourse))

	_, err = f.store.CompleteCourse(ctx, "nope", nil)
	require.True(t, errors.Is(err, services.ErrCourseNotFound))
}

func TestStreakFollowsUTCDays(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	watch := func() int {
		_, err := f.store.RecordWatch(ctx, "v2", time.Second)
		require.NoError(t, err)
		state, _ := f.store.Snapshot()
		return state.Progress.StreakDays
	}

	require.Equal(t, 1, watch())
	f.clock.Advance(2 * time.Hour)
	require.Equal(t, 1, watch(), "same day keeps the streak")
	f.clock.Advance(24 * time.Hour)
	require.Equal(t, 2, watch(), "next day extends the streak")
	f.clock.Advance(72 * time.Hour)
	require.Equal(t, 1, watch(), "a gap resets the streak")
}

func TestAchievementsUnlockOnce(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	for day := 0; day < 7; day++ {
		_, err := f.store.RecordWatch(ctx, "v2", time.Second)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	state, _ := f.store.Snapshot()
	require.Equal(t, []string{po.AchievementFirstVideo, po.AchievementWeekStreak}, state.Progress.Achievements)

	kinds := f.sink.kinds()
	require.Equal(t, 2, countOf(kinds, events.KindAchievementUnlocked))
	require.Equal(t, 7, countOf(kinds, events.KindWatched))
}

func TestPlaylistOperations(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	pl := f.store.CreatePlaylist(ctx, "Grammar", true)
	require.NotEmpty(t, pl.ID)
	require.Equal(t, "user-1", pl.OwnerID)

	added, err := f.store.AddToPlaylist(ctx, pl.ID, "v1")
	require.NoError(t, err)
	require.True(t, added)
	added, err = f.store.AddToPlaylist(ctx, pl.ID, "v1")
	require.NoError(t, err)
	require.False(t, added)
	_, err = f.store.AddToPlaylist(ctx, pl.ID, "v3")
	require.NoError(t, err)

	removed, err := f.store.RemoveFromPlaylist(ctx, pl.ID, "v1")
	require.NoError(t, err)
	require.True(t, removed)

	_, err = f.store.AddToPlaylist(ctx, "missing", "v1")
	require.True(t, errors.Is(err, services.ErrPlaylistNotFound))

	state, _ := f.store.Snapshot()
	require.Len(t, state.Playlists, 3)
	require.Equal(t, []string{"v3"}, state.Playlists[2].ContentIDs)
}

func TestAddCommentIncrementsCounter(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	c, err := f.store.AddComment(ctx, "v2", "Great explanation")
	require.NoError(t, err)
	require.Equal(t, "v2", c.ContentID)
	require.EqualValues(t, 1, f.item(t, "v2").Comments)

	_, err = f.store.AddComment(ctx, "missing", "x")
	require.True(t, errors.Is(err, services.ErrContentNotFound))

	state, _ := f.store.Snapshot()
	require.Len(t, state.Comments["v2"], 1)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.True(t, f.store.AddInterest(ctx, "Spanish"))

	state, _ := f.store.Snapshot()
	state.Interests[0] = "mutated"
	state.Playlists[0].ContentIDs = append(state.Playlists[0].ContentIDs, "v1")

	again, _ := f.store.Snapshot()
	require.Equal(t, []string{"Spanish"}, again.Interests)
	require.Empty(t, again.Playlists[0].ContentIDs)
}

func TestResetReplacesStateButKeepsCounters(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	_, err := f.store.Like(ctx, "v1")
	require.NoError(t, err)
	require.True(t, f.store.Follow(ctx, "c2"))

	_, before := f.store.Snapshot()
	f.store.Reset(ctx)
	state, after := f.store.Snapshot()

	require.Empty(t, state.Liked)
	require.Empty(t, state.Followed)
	require.Len(t, state.Playlists, 2)
	require.EqualValues(t, 11, f.item(t, "v1").Likes)
	require.Greater(t, after.Liked, before.Liked)
	require.Contains(t, f.sink.kinds(), events.KindSessionReset)
}

func TestConcurrentMutationsAreAtomic(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.store.RecordWatch(ctx, "v2", time.Second)
		}()
	}
	wg.Wait()

	state, _ := f.store.Snapshot()
	require.Equal(t, 50*time.Second, state.Progress.TotalWatchTime)
	require.EqualValues(t, 100, f.item(t, "v2").Views)
}

func countOf[T comparable](s []T, v T) int {
	n := 0
	for _, x := range s {
		if x == v {
			n++
		}
	}
	return n
}

