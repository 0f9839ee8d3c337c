package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestElevenLabs_Synthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3 data"))
	}))
	defer srv.Close()

	e := NewElevenLabs(srv.URL, "xi-key", "voice-1", "eleven_turbo_v2")
	audio, err := e.Synthesize(context.Background(), "Hello listener")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio.Data) != "mp3 data" || audio.Format != "mp3" {
		t.Fatalf("unexpected audio: %+v", audio)
	}
	if gotPath != "/text-to-speech/voice-1" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "xi-key" {
		t.Fatalf("unexpected api key %q", gotKey)
	}
	if gotBody["text"] != "Hello listener" || gotBody["model_id"] != "eleven_turbo_v2" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestElevenLabs_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewElevenLabs(srv.URL, "xi-key", "voice-1", "")
	if _, err := e.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestElevenLabs_RejectsEmptyText(t *testing.T) {
	e := NewElevenLabs("http://localhost:1", "xi-key", "voice-1", "")
	if _, err := e.Synthesize(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
