package voice

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/briefing"
)

// SkipAction advances the session to the next story. It is the only action
// that mutates session state.
type SkipAction struct {
	sessions *briefing.Manager
	log      *zap.Logger
}

func NewSkipAction(sessions *briefing.Manager, log *zap.Logger) *SkipAction {
	if log == nil {
		log = zap.NewNop()
	}
	return &SkipAction{sessions: sessions, log: log}
}

func (a *SkipAction) Name() string { return "skip_story" }

func (a *SkipAction) Run(ctx context.Context, sessionID, _ string) Result {
	story, outcome, err := a.sessions.Advance(ctx, sessionID)
	if err != nil {
		a.log.Error("skip action failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Message: apologyFor(err), Success: false}
	}

	switch outcome {
	case briefing.AdvanceNotFound:
		return Result{
			Message: "I'm having trouble accessing your briefing session. Let me try to restart it.",
			Success: false,
		}
	case briefing.AdvanceCompleted:
		return Result{
			Message: "That was the last story in your briefing. Hope you have a great day! Your newsletter briefing is complete.",
			Success: true,
		}
	}

	if story == nil {
		return Result{
			Message: "I couldn't find that story. Let me continue with the next one.",
			Success: false,
		}
	}

	msg := fmt.Sprintf("Skipping to the next story. %s. %s", story.Headline, story.OneSentenceSummary)
	if progress, perr := a.sessions.GetProgress(ctx, sessionID); perr == nil && progress != nil && progress.Remaining > 0 {
		if progress.Remaining == 1 {
			msg += " That's 1 more story after this one."
		} else {
			msg += fmt.Sprintf(" That's %d more stories after this one.", progress.Remaining)
		}
	}
	return Result{Message: msg, Success: true}
}
