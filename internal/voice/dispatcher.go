package voice

import (
	"context"

	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/ai"
	"github.com/mynewsletters/voicebrief/internal/briefing"
)

// Dispatcher routes a recognized intent to its action. It guarantees the
// caller always gets a speakable Result, even if an action panics.
type Dispatcher struct {
	actions map[Intent]Action
	log     *zap.Logger
}

func NewDispatcher(sessions *briefing.Manager, provider ai.Provider, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		actions: map[Intent]Action{
			IntentSkip:     NewSkipAction(sessions, log),
			IntentTellMore: NewTellMoreAction(sessions, log),
			IntentMetadata: NewMetadataAction(sessions, log),
			IntentQuery:    NewQueryAction(sessions, provider, log),
		},
		log: log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent, sessionID, query string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("voice action panicked",
				zap.String("intent", string(intent)),
				zap.String("session_id", sessionID),
				zap.Any("panic", r))
			res = Result{
				Message: "I encountered an issue processing your request. Let me continue with your briefing.",
				Success: false,
			}
		}
	}()

	action, ok := d.actions[intent]
	if !ok {
		return Result{
			Message: "I didn't catch that. You can say skip, tell me more, or ask a question about the story.",
			Success: false,
		}
	}
	return action.Run(ctx, sessionID, query)
}
