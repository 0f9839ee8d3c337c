package voice

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/briefing"
)

// TellMoreAction reads out the current story's long-form summary. Not every
// story has one; an absent summary is an expected case, not a failure of the
// session.
type TellMoreAction struct {
	sessions *briefing.Manager
	log      *zap.Logger
}

func NewTellMoreAction(sessions *briefing.Manager, log *zap.Logger) *TellMoreAction {
	if log == nil {
		log = zap.NewNop()
	}
	return &TellMoreAction{sessions: sessions, log: log}
}

func (a *TellMoreAction) Name() string { return "tell_me_more" }

func (a *TellMoreAction) Run(ctx context.Context, sessionID, _ string) Result {
	story, err := a.sessions.CurrentStory(ctx, sessionID)
	if err != nil {
		a.log.Error("tell-more action failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Message: apologyFor(err), Success: false}
	}
	if story == nil {
		return Result{
			Message: "I don't seem to have a current story to tell you more about. Let me continue with your briefing.",
			Success: false,
		}
	}

	summary := strings.TrimSpace(story.FullTextSummary)
	if summary == "" {
		return Result{
			Message: "I don't have a detailed version of this story available. Let me move to the next story.",
			Success: false,
		}
	}

	msg := "Here's the full story: " + summary +
		" Would you like me to continue with the next story, or do you have any questions about this one?"
	return Result{Message: msg, Success: true}
}
