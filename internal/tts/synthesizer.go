package tts

import "context"

// Audio is raw synthesized speech.
type Audio struct {
	Data   []byte
	Format string // e.g. "mp3"
}

// Synthesizer converts text to Audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}
