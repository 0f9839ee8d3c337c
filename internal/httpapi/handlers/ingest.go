package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/jobs"
)

type createStoryReq struct {
	IssueID            string `json:"issue_id" binding:"required"`
	Headline           string `json:"headline" binding:"required"`
	OneSentenceSummary string `json:"one_sentence_summary" binding:"required"`
	FullTextSummary    string `json:"full_text_summary"`
	URL                string `json:"url"`
}

// CreateStory ingests a parsed story and queues its narration.
func (h *Handler) CreateStory(c *gin.Context) {
	var req createStoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	story := &catalog.Story{
		ID:                 uuid.NewString(),
		IssueID:            req.IssueID,
		Headline:           req.Headline,
		OneSentenceSummary: req.OneSentenceSummary,
		FullTextSummary:    req.FullTextSummary,
		URL:                req.URL,
	}
	if err := h.Catalog.CreateStory(c.Request.Context(), story); err != nil {
		fail(c, http.StatusInternalServerError, 50012, "failed to create story")
		return
	}

	// Narration is queued best effort; the story is readable either way.
	var jobID string
	if h.AudioQueue != nil {
		id, err := jobs.EnqueueStory(c.Request.Context(), h.AudioQueue, story)
		if err != nil {
			h.Log.Warn("failed to enqueue narration",
				zap.String("story_id", story.ID),
				zap.Error(err))
		} else {
			jobID = id
		}
	}

	ok(c, gin.H{"story_id": story.ID, "audio_job_id": jobID})
}
