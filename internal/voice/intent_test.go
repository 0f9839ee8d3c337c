package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchIntent(t *testing.T) {
	cases := []struct {
		transcript string
		want       Intent
	}{
		{"", IntentNone},
		{"   ", IntentNone},
		{"skip", IntentSkip},
		{"Skip this one", IntentSkip},
		{"next please", IntentSkip},
		{"let's move on", IntentSkip},
		{"tell me more", IntentTellMore},
		{"can you tell me more about that", IntentTellMore},
		{"give me the full story", IntentTellMore},
		{"go deeper on this", IntentTellMore},
		{"what newsletter is this from", IntentMetadata},
		{"who published this", IntentMetadata},
		{"when was this written", IntentMetadata},
		{"what's the source", IntentMetadata},
		{"why did the market react that way", IntentQuery},
		{"who is the CEO mentioned here", IntentQuery},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchIntent(tc.transcript), "transcript %q", tc.transcript)
	}
}

func TestMatchIntent_TellMoreBeatsSkip(t *testing.T) {
	// "more details before we move on" contains both a tell-more and a skip
	// phrase; depth wins over navigation.
	assert.Equal(t, IntentTellMore, MatchIntent("more details before we move on"))
}
