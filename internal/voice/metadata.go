package voice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/briefing"
	"github.com/mynewsletters/voicebrief/internal/catalog"
)

// MetadataAction answers "where is this from" style questions about the
// current story. The phrasing follows keywords in the listener's query; a
// query without recognized keywords gets the combined sentence, with absent
// fields simply left out.
type MetadataAction struct {
	sessions *briefing.Manager
	log      *zap.Logger
}

func NewMetadataAction(sessions *briefing.Manager, log *zap.Logger) *MetadataAction {
	if log == nil {
		log = zap.NewNop()
	}
	return &MetadataAction{sessions: sessions, log: log}
}

func (a *MetadataAction) Name() string { return "story_metadata" }

func (a *MetadataAction) Run(ctx context.Context, sessionID, query string) Result {
	meta, err := a.sessions.StoryMetadata(ctx, sessionID)
	if err != nil {
		a.log.Error("metadata action failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Message: apologyFor(err), Success: false}
	}
	if meta == nil {
		return Result{
			Message: "I don't have metadata information for the current story. Let me continue with your briefing.",
			Success: false,
		}
	}

	return Result{Message: phraseMetadata(meta, query), Success: true}
}

func phraseMetadata(meta *catalog.StoryMetadata, query string) string {
	q := strings.ToLower(query)

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("newsletter", "source", "from"):
		msg := fmt.Sprintf("This story is from %s", meta.NewsletterName)
		if meta.Publisher != "" {
			msg += fmt.Sprintf(", published by %s", meta.Publisher)
		}
		return msg + "."

	case containsAny("when", "date", "published"):
		if meta.IssueDate != nil {
			return fmt.Sprintf("This story was published on %s.", meta.IssueDate.Format("January 2, 2006"))
		}
		return "I don't have the publication date for this story."

	case containsAny("headline", "title"):
		return fmt.Sprintf("The headline is: %s", meta.Headline)

	case containsAny("subject", "issue"):
		if meta.IssueSubject != "" {
			return fmt.Sprintf("This is from the issue titled: %s", meta.IssueSubject)
		}
		return "I don't have the issue subject information."
	}

	// Combined sentence, omitting whatever is missing.
	msg := fmt.Sprintf("This story is from %s", meta.NewsletterName)
	if meta.Publisher != "" {
		msg += fmt.Sprintf(", published by %s", meta.Publisher)
	}
	if meta.IssueDate != nil {
		msg += fmt.Sprintf(", from %s", meta.IssueDate.Format("January 2, 2006"))
	}
	if meta.IssueSubject != "" {
		msg += fmt.Sprintf(". The issue was titled: %s", meta.IssueSubject)
	}
	return msg + "."
}
