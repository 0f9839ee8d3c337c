package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mynewsletters/voicebrief/internal/common"
	"github.com/mynewsletters/voicebrief/internal/config"
	"github.com/mynewsletters/voicebrief/internal/httpapi/handlers"
	"github.com/mynewsletters/voicebrief/internal/httpapi/middleware"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redis.Client, log *zap.Logger) (*gin.Engine, *handlers.Handler) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, log)

	r.GET("/ping", h.Ping)

	// auth
	r.GET("/auth/google/url", h.GoogleAuthURL)
	r.GET("/auth/google/callback", h.GoogleCallback)

	// Briefing control (JWT required)
	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/auth/google/status", h.GoogleStatus)
	authGroup.POST("/briefing/start", h.StartBriefing)
	authGroup.GET("/briefing/:session_id", h.GetProgress)
	authGroup.GET("/briefing/:session_id/story", h.CurrentStory)
	authGroup.POST("/briefing/:session_id/pause", h.PauseBriefing)
	authGroup.POST("/briefing/:session_id/resume", h.ResumeBriefing)
	authGroup.POST("/briefing/:session_id/next", h.NextStory)
	authGroup.POST("/briefing/:session_id/previous", h.PreviousStory)
	authGroup.POST("/briefing/:session_id/action", h.VoiceAction)
	authGroup.POST("/audio/enqueue", h.EnqueueAudio)
	authGroup.GET("/briefing/history", h.BriefingHistory)
	authGroup.GET("/briefing/:session_id/interactions", h.Interactions)
	authGroup.POST("/stories", h.CreateStory)

	// Voice transport authenticates by session lookup, browsers cannot set
	// Authorization headers on websocket dials.
	r.GET("/voice/:session_id/ws", h.VoiceStream)

	return r, h
}
