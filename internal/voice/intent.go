package voice

import "strings"

type Intent string

const (
	IntentSkip     Intent = "skip"
	IntentTellMore Intent = "tell_more"
	IntentMetadata Intent = "metadata"
	IntentQuery    Intent = "conversational_query"
	IntentNone     Intent = ""
)

var (
	skipPhrases     = []string{"skip", "next", "move on"}
	tellMorePhrases = []string{"tell me more", "go deeper", "full story", "more details", "expand"}
	metadataPhrases = []string{
		"what newsletter", "which newsletter", "who published", "who publishes",
		"when was this", "what date", "where is this from", "what's the source",
		"what is the source",
	}
)

// MatchIntent maps a speech transcript to an intent by plain substring
// containment, no fuzzy matching. Anything non-empty that matches no command
// phrase becomes a free-form conversational query.
func MatchIntent(transcript string) Intent {
	t := strings.ToLower(strings.TrimSpace(transcript))
	if t == "" {
		return IntentNone
	}
	for _, p := range tellMorePhrases {
		if strings.Contains(t, p) {
			return IntentTellMore
		}
	}
	for _, p := range metadataPhrases {
		if strings.Contains(t, p) {
			return IntentMetadata
		}
	}
	for _, p := range skipPhrases {
		if strings.Contains(t, p) {
			return IntentSkip
		}
	}
	return IntentQuery
}
