package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mynewsletters/voicebrief/internal/jobs"
)

type enqueueAudioReq struct {
	Limit int `json:"limit"`
}

// EnqueueAudio pushes narration jobs for stories still missing audio.
func (h *Handler) EnqueueAudio(c *gin.Context) {
	if h.AudioQueue == nil {
		fail(c, http.StatusServiceUnavailable, 50303, "audio queue not configured")
		return
	}

	var req enqueueAudioReq
	_ = c.ShouldBindJSON(&req) // allow empty {}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	count, err := jobs.EnqueueBacklog(c.Request.Context(), h.Catalog, h.AudioQueue, req.Limit, h.Log)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50009, "failed to enqueue audio jobs")
		return
	}
	ok(c, gin.H{"enqueued": count})
}
