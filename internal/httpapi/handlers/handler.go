package handlers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mynewsletters/voicebrief/internal/ai"
	"github.com/mynewsletters/voicebrief/internal/briefing"
	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/config"
	"github.com/mynewsletters/voicebrief/internal/gmail"
	"github.com/mynewsletters/voicebrief/internal/jobs"
	"github.com/mynewsletters/voicebrief/internal/store/rabbitmq"
	"github.com/mynewsletters/voicebrief/internal/tts"
	"github.com/mynewsletters/voicebrief/internal/voice"
)

type Handler struct {
	DB         *gorm.DB
	Cfg        config.Config
	Catalog    *catalog.Repo
	Sessions   *briefing.Manager
	Dispatcher *voice.Dispatcher
	Pool       *voice.Pool
	Gmail      *gmail.Client
	AudioQueue jobs.AudioJobQueue
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redis.Client, log *zap.Logger) *Handler {
	repo := catalog.NewRepo(db)
	sessions := briefing.NewManager(briefing.NewRedisStore(rds), repo, log)
	sessions.SetArchive(repo)

	providers := ai.NewRegistry()
	providers.Register("openai", func(_ context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
	})
	providers.Register("ollama", func(_ context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})

	providerName := cfg.AIProvider
	if providerName == "" {
		providerName = "openai"
	}
	provider, err := providers.Get(context.Background(), providerName, "")
	if err != nil {
		panic(fmt.Sprintf("ai provider init: %v", err))
	}

	dispatcher := voice.NewDispatcher(sessions, provider, log)

	var synth tts.Synthesizer
	if cfg.ElevenLabsAPIKey != "" {
		synth = tts.NewElevenLabs(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModel)
	}
	pool := voice.NewPool(func(sessionID string) *voice.Conversation {
		return voice.NewConversation(sessionID, dispatcher, synth, repo, log)
	}, log)

	var gmailClient *gmail.Client
	if cfg.GoogleClientID != "" {
		gc, err := gmail.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, repo)
		if err != nil {
			panic(fmt.Sprintf("google oauth init: %v", err))
		}
		gmailClient = gc
	}

	// The API stays up without the queue; enqueue endpoints report unavailable.
	var audioQueue jobs.AudioJobQueue
	if cfg.RabbitURL != "" {
		if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
			log.Warn("rabbitmq unavailable, audio enqueue disabled", zap.Error(err))
		} else {
			audioQueue = pub
		}
	}

	return &Handler{
		DB:         db,
		Cfg:        cfg,
		Catalog:    repo,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Pool:       pool,
		Gmail:      gmailClient,
		AudioQueue: audioQueue,
		Log:        log,
	}
}
