package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/httpapi/middleware"
)

// GoogleAuthURL hands the client the consent URL to start the OAuth flow.
func (h *Handler) GoogleAuthURL(c *gin.Context) {
	if h.Gmail == nil {
		fail(c, http.StatusServiceUnavailable, 50302, "google auth not configured")
		return
	}
	state := uuid.NewString()
	ok(c, gin.H{
		"url":   h.Gmail.AuthCodeURL(state),
		"state": state,
	})
}

// GoogleStatus reports whether the caller's Google link still yields a
// usable token. Expired tokens are refreshed and persisted as a side effect.
func (h *Handler) GoogleStatus(c *gin.Context) {
	if h.Gmail == nil {
		fail(c, http.StatusServiceUnavailable, 50302, "google auth not configured")
		return
	}

	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if _, err := h.Gmail.HTTPClient(c.Request.Context(), uid); err != nil {
		h.Log.Info("google link unusable",
			zap.String("user_id", uid),
			zap.Error(err))
		ok(c, gin.H{"linked": false})
		return
	}
	ok(c, gin.H{"linked": true})
}

// GoogleCallback exchanges the code, upserts the user, stores their tokens
// and returns an API token.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Gmail == nil {
		fail(c, http.StatusServiceUnavailable, 50302, "google auth not configured")
		return
	}

	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, 10004, "missing code")
		return
	}

	ctx := c.Request.Context()
	identity, token, err := h.Gmail.Exchange(ctx, code)
	if err != nil {
		h.Log.Warn("google code exchange failed", zap.Error(err))
		fail(c, http.StatusUnauthorized, 40103, "google authentication failed")
		return
	}

	user, err := h.Catalog.GetUserByEmail(ctx, identity.Email)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50005, "failed to look up user")
		return
	}
	if user == nil {
		user = &catalog.User{ID: uuid.NewString(), Email: identity.Email, Name: identity.Name}
		if err := h.Catalog.CreateUser(ctx, user); err != nil {
			fail(c, http.StatusInternalServerError, 50006, "failed to create user")
			return
		}
	}

	if err := h.Gmail.SaveToken(ctx, user.ID, token); err != nil {
		fail(c, http.StatusInternalServerError, 50007, "failed to store google token")
		return
	}

	apiToken, err := middleware.IssueToken(h.Cfg.JWTSecret, user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50008, "failed to issue token")
		return
	}

	ok(c, gin.H{
		"token": apiToken,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}
