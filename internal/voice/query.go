package voice

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/ai"
	"github.com/mynewsletters/voicebrief/internal/briefing"
	"github.com/mynewsletters/voicebrief/internal/catalog"
)

const querySystemPrompt = `You are an AI assistant helping users understand newsletter stories during an audio briefing.

Your role is to:
- Answer questions about the current story with accuracy and clarity
- Keep responses concise but informative (ideally 1-3 sentences)
- Speak naturally as if in a conversation
- Stay focused on the story content provided

Guidelines:
- If the question can't be answered from the story content, say so honestly
- Keep the tone conversational and helpful
- Don't make up facts not present in the story`

// queryFallbacks rotate so a degraded LLM backend doesn't repeat the same
// sentence at the listener over and over.
var queryFallbacks = []string{
	"I'm having trouble processing your question right now. Let me continue with your briefing.",
	"I couldn't process your question right now. Let me continue with your briefing.",
	"I'm experiencing high demand right now. Let me continue with your briefing instead.",
}

// QueryAction answers free-form questions about the current story via the LLM
// provider. A provider failure of any kind degrades to a spoken fallback; the
// briefing never hangs on the Q&A backend.
type QueryAction struct {
	sessions *briefing.Manager
	provider ai.Provider
	timeout  time.Duration
	log      *zap.Logger
	fallback atomic.Uint32
}

func NewQueryAction(sessions *briefing.Manager, provider ai.Provider, log *zap.Logger) *QueryAction {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryAction{
		sessions: sessions,
		provider: provider,
		timeout:  15 * time.Second,
		log:      log,
	}
}

func (a *QueryAction) Name() string { return "conversational_query" }

func (a *QueryAction) Run(ctx context.Context, sessionID, query string) Result {
	if strings.TrimSpace(query) == "" {
		query = "Can you tell me more about this?"
	}

	story, err := a.sessions.CurrentStory(ctx, sessionID)
	if err != nil {
		a.log.Error("query action failed", zap.String("session_id", sessionID), zap.Error(err))
		return Result{Message: apologyFor(err), Success: false}
	}
	if story == nil {
		return Result{
			Message: "I don't have a current story to answer questions about. Let me continue with your briefing.",
			Success: false,
		}
	}

	// Metadata enriches the context but is not required for an answer.
	meta, err := a.sessions.StoryMetadata(ctx, sessionID)
	if err != nil {
		a.log.Warn("metadata unavailable for query context",
			zap.String("session_id", sessionID), zap.Error(err))
		meta = nil
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.provider.Chat(cctx, []ai.Message{
		{Role: "system", Content: querySystemPrompt},
		{Role: "user", Content: buildQueryPrompt(story, meta, query)},
	})
	if err != nil {
		a.log.Warn("llm backend failed, using fallback",
			zap.String("session_id", sessionID), zap.Error(err))
		return Result{Message: a.nextFallback(), Success: false}
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Result{Message: a.nextFallback(), Success: false}
	}
	if !strings.HasSuffix(reply, ".") && !strings.HasSuffix(reply, "?") && !strings.HasSuffix(reply, "!") {
		reply += "."
	}
	if len(reply) > 200 {
		reply += " Would you like me to continue with the next story?"
	}
	return Result{Message: reply, Success: true}
}

func (a *QueryAction) nextFallback() string {
	n := a.fallback.Add(1)
	return queryFallbacks[int(n-1)%len(queryFallbacks)]
}

func buildQueryPrompt(story *catalog.Story, meta *catalog.StoryMetadata, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HEADLINE: %s\n", story.Headline)
	fmt.Fprintf(&b, "BRIEF SUMMARY: %s\n", story.OneSentenceSummary)
	if story.FullTextSummary != "" {
		fmt.Fprintf(&b, "DETAILED SUMMARY: %s\n", story.FullTextSummary)
	}
	if meta != nil {
		fmt.Fprintf(&b, "SOURCE: %s\n", meta.NewsletterName)
		if meta.Publisher != "" {
			fmt.Fprintf(&b, "PUBLISHER: %s\n", meta.Publisher)
		}
		if meta.IssueDate != nil {
			fmt.Fprintf(&b, "PUBLISHED: %s\n", meta.IssueDate.Format("January 2, 2006"))
		}
		if meta.IssueSubject != "" {
			fmt.Fprintf(&b, "ISSUE TITLE: %s\n", meta.IssueSubject)
		}
	}
	fmt.Fprintf(&b, "\nUser Question: %s\n", query)
	b.WriteString("\nPlease provide a helpful, accurate response to the user's question based on the story context above. Keep it conversational and concise.")
	return b.String()
}
