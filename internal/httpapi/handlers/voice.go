package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the app origin; auth happens via the
	// session lookup below.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// VoiceStream upgrades to a websocket and runs the session's conversation
// loop until the client hangs up.
func (h *Handler) VoiceStream(c *gin.Context) {
	sessionID := c.Param("session_id")

	sess, err := h.Sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		fail(c, http.StatusServiceUnavailable, 50301, "session store unavailable")
		return
	}
	if sess == nil {
		fail(c, http.StatusNotFound, 40004, "session not found")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.Log.Warn("websocket upgrade failed", zap.Error(err), zap.String("session_id", sessionID))
		return
	}

	conv := h.Pool.GetOrCreate(sessionID)
	defer h.Pool.Remove(sessionID)

	if err := conv.Run(c.Request.Context(), conn); err != nil {
		h.Log.Warn("conversation rejected transport", zap.Error(err), zap.String("session_id", sessionID))
		_ = conn.Close()
	}
}
