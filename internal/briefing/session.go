// Package briefing owns the state machine for a listener's progress through an
// ordered list of newsletter stories. All session mutations go through the
// Manager so the cursor invariants hold no matter which caller (HTTP handler,
// voice action, background job) is driving.
package briefing

import (
	"errors"
	"time"
)

var (
	// ErrEmptyBriefing is returned when a session is created with no stories.
	ErrEmptyBriefing = errors.New("briefing: cannot create session without stories")

	// ErrNotFound signals a mutating operation against an absent session.
	// Read operations soft-miss with nil instead.
	ErrNotFound = errors.New("briefing: session not found")

	// ErrUnavailable wraps persistence transport failures. Callers should
	// surface these as retryable, never swallow them.
	ErrUnavailable = errors.New("briefing: session store unavailable")
)

type Status string

const (
	StatusPlaying   Status = "playing"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Session tracks one user's progress through one briefing.
// StoryOrder is fixed at creation; CurrentStoryID is always
// StoryOrder[CurrentIndex].
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	StoryOrder     []string  `json:"story_order"`
	CurrentIndex   int       `json:"current_index"`
	CurrentStoryID string    `json:"current_story_id"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Progress is the snapshot handed to the HTTP layer and voice actions.
type Progress struct {
	CurrentIndex int     `json:"current_index"`
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
	Status       Status  `json:"status"`
	Remaining    int     `json:"remaining"`
}

// AdvanceOutcome keeps "briefing finished" and "session not found" apart.
// The two must never be conflated: the first ends the conversation politely,
// the second is an apology.
type AdvanceOutcome int

const (
	AdvanceNext AdvanceOutcome = iota
	AdvanceCompleted
	AdvanceNotFound
)
