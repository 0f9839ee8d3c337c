// Package jobs runs the audio pipeline that narrates stories ahead of time.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/storage"
	"github.com/mynewsletters/voicebrief/internal/tts"
)

const synthesisConcurrency = 3

// StoryAudioSource is the catalog slice the pipeline needs. *catalog.Repo
// satisfies it.
type StoryAudioSource interface {
	GetStory(ctx context.Context, id string) (*catalog.Story, error)
	StoriesWithoutAudio(ctx context.Context, limit int) ([]catalog.Story, error)
	SetStoryAudio(ctx context.Context, storyID, summaryURL, fullTextURL string) error
}

// AudioPipeline synthesizes narration for stories and uploads the files.
type AudioPipeline struct {
	catalog StoryAudioSource
	synth   tts.Synthesizer
	uploads *storage.Client
	log     *zap.Logger
}

func NewAudioPipeline(cat StoryAudioSource, synth tts.Synthesizer, uploads *storage.Client, log *zap.Logger) *AudioPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &AudioPipeline{catalog: cat, synth: synth, uploads: uploads, log: log}
}

// ProcessStory narrates one story, both the one-sentence teaser and the full
// summary, and records the uploaded URLs on the story row.
func (p *AudioPipeline) ProcessStory(ctx context.Context, storyID string) error {
	story, err := p.catalog.GetStory(ctx, storyID)
	if err != nil {
		return err
	}
	if story == nil {
		p.log.Warn("audio job for unknown story", zap.String("story_id", storyID))
		return nil
	}

	summaryURL, err := p.synthesizeAndUpload(ctx, story.ID, "summary", story.OneSentenceSummary)
	if err != nil {
		return fmt.Errorf("summary audio for story %s: %w", story.ID, err)
	}

	fullText := story.FullTextSummary
	if strings.TrimSpace(fullText) == "" {
		fullText = story.OneSentenceSummary
	}
	fullURL, err := p.synthesizeAndUpload(ctx, story.ID, "full", fullText)
	if err != nil {
		return fmt.Errorf("full-text audio for story %s: %w", story.ID, err)
	}

	if err := p.catalog.SetStoryAudio(ctx, story.ID, summaryURL, fullURL); err != nil {
		return fmt.Errorf("failed to record audio urls for story %s: %w", story.ID, err)
	}

	p.log.Info("story narrated",
		zap.String("story_id", story.ID),
		zap.String("summary_url", summaryURL),
		zap.String("full_url", fullURL))
	return nil
}

func (p *AudioPipeline) synthesizeAndUpload(ctx context.Context, storyID, variant, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("story %s has no %s text to narrate", storyID, variant)
	}
	audio, err := p.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("%s/%s.%s", storyID, variant, audio.Format)
	return p.uploads.Upload(ctx, path, audio.Data, "audio/mpeg")
}

// ProcessBacklog narrates every story still missing audio, a few at a time.
// Returns how many stories were processed.
func (p *AudioPipeline) ProcessBacklog(ctx context.Context, limit int) (int, error) {
	stories, err := p.catalog.StoriesWithoutAudio(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(stories) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(synthesisConcurrency)
	for _, story := range stories {
		g.Go(func() error {
			return p.ProcessStory(gctx, story.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(stories), nil
}
