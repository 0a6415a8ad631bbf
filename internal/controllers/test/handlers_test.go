package controllers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers"
	"github.com/bionicotaku/lingo-services-feed/internal/metadata"
	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"
	"github.com/bionicotaku/lingo-services-feed/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	srv      *khttp.Server
	registry *services.SessionRegistry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.NewStdLogger(io.Discard)

	catalog := repositories.NewCatalogRepository(logger)
	catalog.Replace(&po.CatalogSnapshot{
		Items: []po.ContentItem{
			{ID: "v1", Title: "Spanish Basics", Duration: 50 * time.Second, CreatorID: "c1", Creator: po.Creator{ID: "c1"},
				Topics: []string{"Spanish"}, SkillLevel: po.SkillBeginner, Likes: 10, Views: 100, CreatedAt: baseTime},
			{ID: "v2", Title: "Python Loops", Duration: time.Minute, CreatorID: "c2", Creator: po.Creator{ID: "c2"},
				Topics: []string{"Python"}, SkillLevel: po.SkillIntermediate, Likes: 5, Views: 50, CreatedAt: baseTime.AddDate(0, 0, -1)},
		},
		Courses: []po.Course{{ID: "course-1", ContentIDs: []string{"v1", "v2"}}},
	})

	registry := services.NewSessionRegistry(catalog, nil, nil, nil, nil, services.RegistryConfig{Seed: 1}, logger)
	registry.WithClock(func() time.Time { return baseTime })
	discovery := services.NewDiscoveryService(catalog, registry, logger)
	discovery.WithClock(func() time.Time { return baseTime })

	base := controllers.NewBaseHandler(controllers.HandlerTimeouts{})
	srv := khttp.NewServer(khttp.Middleware(metadata.Server()))
	r := srv.Route("/v1")
	controllers.NewEngagementHandler(registry, discovery, base).Register(r)
	controllers.NewFeedHandler(registry, base).Register(r)
	controllers.NewDiscoveryHandler(discovery, base).Register(r)
	return &testServer{srv: srv, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(metadata.HeaderUserID, user)
	}
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestMeRoutesRequireUser(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/v1/me/state", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "USER_ID_MISSING", body["reason"])
}

func TestFollowIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodPut, "/v1/me/follows/c1", "user-1", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["changed"])

	_, body = s.do(t, http.MethodPut, "/v1/me/follows/c1", "user-1", nil)
	require.Equal(t, false, body["changed"])

	_, body = s.do(t, http.MethodDelete, "/v1/me/follows/c1", "user-1", nil)
	require.Equal(t, true, body["changed"])
}

func TestLikeUnknownContentIsNotFound(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodPut, "/v1/me/likes/nope", "user-1", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, services.ReasonContentNotFound, body["reason"])
}

func TestRecordWatchValidatesBody(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodPost, "/v1/me/watches", "user-1", map[string]any{"watch_time_seconds": 5})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "INVALID_ARGUMENT", body["reason"])

	code, body = s.do(t, http.MethodPost, "/v1/me/watches", "user-1", map[string]any{"content_id": "v1", "watch_time_seconds": 45})
	require.Equal(t, http.StatusOK, code)
	watch := body["watch"].(map[string]any)
	require.Equal(t, "v1", watch["content_id"])
	require.Equal(t, true, watch["completed"])
}

func TestStateReflectsMutations(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/v1/me/interests/Spanish", "user-1", nil)
	code, body := s.do(t, http.MethodPost, "/v1/me/playlists", "user-1", map[string]any{"name": "Later"})
	require.Equal(t, http.StatusOK, code)
	playlistID := body["playlist"].(map[string]any)["id"].(string)

	code, body = s.do(t, http.MethodPut, "/v1/me/playlists/"+playlistID+"/items/v2", "user-1", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["changed"])

	code, _ = s.do(t, http.MethodPut, "/v1/me/playlists/missing/items/v2", "user-1", nil)
	require.Equal(t, http.StatusNotFound, code)

	_, body = s.do(t, http.MethodGet, "/v1/me/state", "user-1", nil)
	state := body["summary"].(map[string]any)["state"].(map[string]any)
	require.Equal(t, []any{"Spanish"}, state["interests"])
	require.Len(t, state["playlists"], 3)
}

func TestResetSessionClearsState(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/v1/me/follows/c2", "user-1", nil)
	code, body := s.do(t, http.MethodPost, "/v1/me/session/reset", "user-1", nil)
	require.Equal(t, http.StatusOK, code)
	state := body["summary"].(map[string]any)["state"].(map[string]any)
	require.Empty(t, state["followed"])
}

func TestFeedAdvanceAndRetreat(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/v1/me/feed", "user-1", nil)
	require.Equal(t, http.StatusOK, code)
	feed := body["feed"].(map[string]any)
	require.EqualValues(t, 2, feed["length"])
	first := feed["item"].(map[string]any)["id"]

	_, body = s.do(t, http.MethodPost, "/v1/me/feed/advance", "user-1", nil)
	feed = body["feed"].(map[string]any)
	require.NotEqual(t, first, feed["item"].(map[string]any)["id"])

	_, body = s.do(t, http.MethodPost, "/v1/me/feed/retreat", "user-1", nil)
	require.EqualValues(t, 0, body["feed"].(map[string]any)["index"])
}

func TestFeedAdvanceRejectsStaleContent(t *testing.T) {
	s := newTestServer(t)
	_, body := s.do(t, http.MethodGet, "/v1/me/feed", "user-1", nil)
	first := body["feed"].(map[string]any)["item"].(map[string]any)["id"].(string)

	code, body := s.do(t, http.MethodPost, "/v1/me/feed/advance", "user-1", map[string]any{"content_id": "not-" + first})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, services.ReasonFeedCursorMoved, body["reason"])

	code, body = s.do(t, http.MethodPost, "/v1/me/feed/advance", "user-1", map[string]any{"content_id": first})
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, body["feed"].(map[string]any)["index"])
}

func TestCourseProgressFilter(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodGet, "/v1/me/courses/progress?filter=bogus", "user-1", nil)
	require.Equal(t, http.StatusBadRequest, code)

	s.do(t, http.MethodPost, "/v1/me/watches", "user-1", map[string]any{"content_id": "v1", "watch_time_seconds": 50})
	code, body := s.do(t, http.MethodGet, "/v1/me/courses/progress?filter=in_progress", "user-1", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["courses"], 1)
}

func TestDiscoveryRoutes(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/v1/trending?limit=1", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["items"], 1)

	code, _ = s.do(t, http.MethodGet, "/v1/trending?limit=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/v1/contents/missing/related", "", nil)
	require.Equal(t, http.StatusNotFound, code)

	_, body = s.do(t, http.MethodGet, "/v1/search?q=python", "", nil)
	require.Len(t, body["items"], 1)

	code, _ = s.do(t, http.MethodGet, "/v1/search?q=python&skill_level=expert", "", nil)
	require.Equal(t, http.StatusBadRequest, code)

	_, body = s.do(t, http.MethodGet, "/v1/topics/trending", "", nil)
	require.Len(t, body["topics"], 2)

	s.do(t, http.MethodPut, "/v1/me/follows/c2", "user-1", nil)
	_, body = s.do(t, http.MethodGet, "/v1/creators/top", "user-1", nil)
	creators := body["creators"].([]any)
	require.Len(t, creators, 2)
	require.Equal(t, true, creators[1].(map[string]any)["followed"])
}
