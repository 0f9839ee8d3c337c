// Package voice maps recognized speech intents to actions against a briefing
// session. Actions are the last line of defense before user-facing speech:
// whatever a dependency does, the listener hears a coherent sentence.
package voice

import (
	"context"
	"strings"
)

// Result is what an action hands back to the conversation layer.
type Result struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Action handles one recognized intent. query carries optional free-form text
// from the transcript, empty for bare commands.
type Action interface {
	Name() string
	Run(ctx context.Context, sessionID, query string) Result
}

// apologyFor converts a dependency failure into a spoken apology, keyed on
// what the failure text mentions.
func apologyFor(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "session"):
		return "I'm having trouble accessing your briefing session. Let me try to restart it."
	case strings.Contains(msg, "story"):
		return "I couldn't find that story. Let me continue with the next one."
	case strings.Contains(msg, "connection"), strings.Contains(msg, "unavailable"), strings.Contains(msg, "database"):
		return "I'm having a temporary connection issue. Please try again in a moment."
	default:
		return "I encountered an issue processing your request. Let me continue with your briefing."
	}
}
