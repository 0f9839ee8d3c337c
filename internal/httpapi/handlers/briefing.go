package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mynewsletters/voicebrief/internal/briefing"
	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/common"
	"github.com/mynewsletters/voicebrief/internal/httpapi/middleware"
	"github.com/mynewsletters/voicebrief/internal/voice"
)

func ok(c *gin.Context, data any) {
	common.Ok(c, data)
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	common.Fail(c, httpStatus, code, msg)
}

func userIDFromContext(c *gin.Context) (string, bool) {
	v, okk := c.Get(middleware.UserIDKey)
	if !okk {
		return "", false
	}
	id, okk := v.(string)
	return id, okk && id != ""
}

func (h *Handler) Ping(c *gin.Context) {
	ok(c, gin.H{"pong": true})
}

type startBriefingReq struct {
	StoryIDs      []string `json:"story_ids"`
	NewsletterIDs []string `json:"newsletter_ids"`
}

func (h *Handler) StartBriefing(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req startBriefingReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	storyIDs := req.StoryIDs
	if len(storyIDs) == 0 {
		var (
			stories []catalog.Story
			err     error
		)
		if len(req.NewsletterIDs) > 0 {
			// Explicit newsletter picks look back a week, not just today.
			since := time.Now().UTC().AddDate(0, 0, -7)
			stories, err = h.Catalog.RecentStories(c.Request.Context(), req.NewsletterIDs, since)
		} else {
			stories, err = h.Catalog.TodayStories(c.Request.Context(), uid)
		}
		if err != nil {
			fail(c, http.StatusInternalServerError, 50001, "failed to load briefing stories")
			return
		}
		for _, s := range stories {
			storyIDs = append(storyIDs, s.ID)
		}
	}

	sess, err := h.Sessions.Create(c.Request.Context(), uid, storyIDs)
	if err != nil {
		if errors.Is(err, briefing.ErrEmptyBriefing) {
			fail(c, http.StatusBadRequest, 10002, "no stories available for a briefing")
			return
		}
		fail(c, http.StatusInternalServerError, 50002, "failed to create briefing session")
		return
	}

	ok(c, gin.H{
		"session_id":  sess.ID,
		"story_count": len(sess.StoryOrder),
		"status":      sess.Status,
	})
}

func (h *Handler) GetProgress(c *gin.Context) {
	progress, err := h.Sessions.GetProgress(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		failBriefing(c, err)
		return
	}
	if progress == nil {
		fail(c, http.StatusNotFound, 40004, "session not found")
		return
	}
	ok(c, progress)
}

func (h *Handler) CurrentStory(c *gin.Context) {
	story, err := h.Sessions.CurrentStory(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, 50003, "failed to load current story")
		return
	}
	if story == nil {
		fail(c, http.StatusNotFound, 40004, "no current story")
		return
	}
	ok(c, story)
}

func (h *Handler) PauseBriefing(c *gin.Context) {
	h.setStatus(c, h.Sessions.Pause)
}

func (h *Handler) ResumeBriefing(c *gin.Context) {
	h.setStatus(c, h.Sessions.Resume)
}

func (h *Handler) setStatus(c *gin.Context, op func(ctx context.Context, id string) (bool, error)) {
	applied, err := op(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		failBriefing(c, err)
		return
	}
	ok(c, gin.H{"applied": applied})
}

func (h *Handler) NextStory(c *gin.Context) {
	story, outcome, err := h.Sessions.Advance(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		failBriefing(c, err)
		return
	}
	switch outcome {
	case briefing.AdvanceNotFound:
		fail(c, http.StatusNotFound, 40004, "session not found")
	case briefing.AdvanceCompleted:
		ok(c, gin.H{"completed": true})
	default:
		ok(c, gin.H{"completed": false, "story": story})
	}
}

func (h *Handler) PreviousStory(c *gin.Context) {
	story, moved, err := h.Sessions.Rewind(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		failBriefing(c, err)
		return
	}
	ok(c, gin.H{"moved": moved, "story": story})
}

type voiceActionReq struct {
	Action string `json:"action" binding:"required"`
	Query  string `json:"query"`
}

// VoiceAction lets non-websocket clients invoke a single voice action.
func (h *Handler) VoiceAction(c *gin.Context) {
	var req voiceActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	intent := voice.Intent(req.Action)
	switch intent {
	case voice.IntentSkip, voice.IntentTellMore, voice.IntentMetadata, voice.IntentQuery:
	default:
		fail(c, http.StatusBadRequest, 10003, "unknown action")
		return
	}

	res := h.Dispatcher.Dispatch(c.Request.Context(), intent, c.Param("session_id"), req.Query)
	ok(c, res)
}

func failBriefing(c *gin.Context, err error) {
	switch {
	case errors.Is(err, briefing.ErrNotFound):
		fail(c, http.StatusNotFound, 40004, "session not found")
	case errors.Is(err, briefing.ErrUnavailable):
		fail(c, http.StatusServiceUnavailable, 50301, "session store unavailable")
	default:
		fail(c, http.StatusInternalServerError, 50004, "briefing operation failed")
	}
}
