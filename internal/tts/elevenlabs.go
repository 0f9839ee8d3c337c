package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ElevenLabs synthesizes speech via the ElevenLabs REST API.
type ElevenLabs struct {
	BaseURL string
	APIKey  string
	VoiceID string
	ModelID string
	Client  *http.Client
}

func NewElevenLabs(baseURL, apiKey, voiceID, modelID string) *ElevenLabs {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	return &ElevenLabs{
		BaseURL: baseURL,
		APIKey:  apiKey,
		VoiceID: voiceID,
		ModelID: modelID,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type elevenReq struct {
	Text          string              `json:"text"`
	ModelID       string              `json:"model_id,omitempty"`
	VoiceSettings elevenVoiceSettings `json:"voice_settings"`
}

type elevenVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*Audio, error) {
	if e.Client == nil {
		return nil, errors.New("elevenlabs: http client is nil")
	}
	if strings.TrimSpace(e.APIKey) == "" {
		return nil, errors.New("elevenlabs: api key is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs: text is empty")
	}

	b, err := json.Marshal(elevenReq{
		Text:    text,
		ModelID: e.ModelID,
		VoiceSettings: elevenVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", strings.TrimRight(e.BaseURL, "/"), e.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("elevenlabs: %s", msg)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Audio{Data: data, Format: "mp3"}, nil
}
