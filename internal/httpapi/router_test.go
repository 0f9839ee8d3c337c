package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/config"
	"github.com/mynewsletters/voicebrief/internal/db"
	"github.com/mynewsletters/voicebrief/internal/httpapi/middleware"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	router *gin.Engine
	token  string
	db     *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rds.Close() })

	cfg := config.Config{
		JWTSecret:     "test-secret",
		AIProvider:    "ollama",
		OllamaBaseURL: "http://localhost:1",
		OllamaModel:   "llama3",
	}
	router, _ := NewRouter(gdb, cfg, rds, zap.NewNop())

	token, err := middleware.IssueToken(cfg.JWTSecret, "user-1")
	require.NoError(t, err)

	api := &testAPI{router: router, token: token, db: gdb}
	api.seed(t)
	return api
}

func (a *testAPI) seed(t *testing.T) {
	t.Helper()
	repo := catalog.NewRepo(a.db)
	ctx := t.Context()

	require.NoError(t, repo.CreateUser(ctx, &catalog.User{ID: "user-1", Email: "reader@example.com", Name: "Reader"}))
	require.NoError(t, repo.CreateNewsletter(ctx, &catalog.Newsletter{ID: "nl-1", Name: "Morning Brief", Publisher: "Brief Media"}))
	require.NoError(t, repo.Subscribe(ctx, "user-1", "nl-1"))
	require.NoError(t, repo.CreateIssue(ctx, &catalog.Issue{ID: "issue-1", NewsletterID: "nl-1", Date: time.Now().UTC(), Subject: "Today"}))
	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.CreateStory(ctx, &catalog.Story{
			ID:                 fmt.Sprintf("story-%d", i),
			IssueID:            "issue-1",
			Headline:           fmt.Sprintf("Headline %d", i),
			OneSentenceSummary: fmt.Sprintf("Summary %d.", i),
			FullTextSummary:    fmt.Sprintf("Full text %d.", i),
		}))
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, authed bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func (a *testAPI) startBriefing(t *testing.T) string {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/briefing/start", map[string]any{
		"story_ids": []string{"story-1", "story-2", "story-3"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		SessionID  string `json:"session_id"`
		StoryCount int    `json:"story_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, 3, data.StoryCount)
	return data.SessionID
}

func TestBriefingFlow(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.startBriefing(t)

	// progress snapshot
	w, env := api.do(t, http.MethodGet, "/briefing/"+sessionID, nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		CurrentIndex int     `json:"current_index"`
		Total        int     `json:"total"`
		Percentage   float64 `json:"percentage"`
		Status       string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, 0, progress.CurrentIndex)
	assert.Equal(t, 33.3, progress.Percentage)
	assert.Equal(t, "playing", progress.Status)

	// current story
	w, env = api.do(t, http.MethodGet, "/briefing/"+sessionID+"/story", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var story catalog.Story
	require.NoError(t, json.Unmarshal(env.Data, &story))
	assert.Equal(t, "story-1", story.ID)

	// advance
	w, env = api.do(t, http.MethodPost, "/briefing/"+sessionID+"/next", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var next struct {
		Completed bool           `json:"completed"`
		Story     *catalog.Story `json:"story"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.False(t, next.Completed)
	require.NotNil(t, next.Story)
	assert.Equal(t, "story-2", next.Story.ID)

	// rewind
	w, env = api.do(t, http.MethodPost, "/briefing/"+sessionID+"/previous", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var prev struct {
		Moved bool           `json:"moved"`
		Story *catalog.Story `json:"story"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &prev))
	assert.True(t, prev.Moved)
	assert.Equal(t, "story-1", prev.Story.ID)

	// pause, resume
	w, env = api.do(t, http.MethodPost, "/briefing/"+sessionID+"/pause", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var applied struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &applied))
	assert.True(t, applied.Applied)

	w, _ = api.do(t, http.MethodPost, "/briefing/"+sessionID+"/resume", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBriefingStart_FromSubscriptions(t *testing.T) {
	api := newTestAPI(t)

	// empty body: seeds from today's subscribed stories
	w, env := api.do(t, http.MethodPost, "/briefing/start", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		StoryCount int `json:"story_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.StoryCount)
}

func TestBriefingStart_FromNewsletterSelection(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodPost, "/briefing/start", map[string]any{
		"newsletter_ids": []string{"nl-1"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		StoryCount int `json:"story_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.StoryCount)

	// a selection with no stories cannot start a briefing
	w, env = api.do(t, http.MethodPost, "/briefing/start", map[string]any{
		"newsletter_ids": []string{"nl-ghost"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10002, env.Code)
}

func TestUnknownAIProviderPanics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rds.Close() })

	require.Panics(t, func() {
		_, _ = NewRouter(gdb, config.Config{JWTSecret: "s", AIProvider: "dance"}, rds, zap.NewNop())
	})
}

func TestGoogleStatusUnconfigured(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodGet, "/auth/google/status", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 50302, env.Code)
}

func TestBriefingCompletionWritesHistory(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.startBriefing(t)

	for i := 0; i < 3; i++ {
		w, _ := api.do(t, http.MethodPost, "/briefing/"+sessionID+"/next", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env := api.do(t, http.MethodGet, "/briefing/history", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Briefings []catalog.BriefingRecord `json:"briefings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Briefings, 1)
	assert.Equal(t, sessionID, data.Briefings[0].SessionID)
	assert.Equal(t, "completed", data.Briefings[0].Status)
}

func TestVoiceActionEndpoint(t *testing.T) {
	api := newTestAPI(t)
	sessionID := api.startBriefing(t)

	w, env := api.do(t, http.MethodPost, "/briefing/"+sessionID+"/action", map[string]any{
		"action": "tell_more",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Message string `json:"message"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Here's the full story: Full text 1.")

	// unknown action names are rejected before dispatch
	w, _ = api.do(t, http.MethodPost, "/briefing/"+sessionID+"/action", map[string]any{
		"action": "dance",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodPost, "/briefing/start", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, env.Code)
}

func TestUnknownSessionIs404(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodGet, "/briefing/no-such-session", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40004, env.Code)
}

func TestRouteNotFoundEnvelope(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodGet, "/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}
