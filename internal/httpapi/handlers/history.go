package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// BriefingHistory lists the caller's finished briefings.
func (h *Handler) BriefingHistory(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	recs, err := h.Catalog.ListBriefingRecords(c.Request.Context(), uid, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50010, "failed to load briefing history")
		return
	}
	ok(c, gin.H{"briefings": recs})
}

// Interactions lists the recorded conversation turns for a session.
func (h *Handler) Interactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Catalog.ListInteractions(c.Request.Context(), c.Param("session_id"), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50011, "failed to load interactions")
		return
	}
	ok(c, gin.H{"interactions": entries})
}
