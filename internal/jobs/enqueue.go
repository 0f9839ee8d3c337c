package jobs

import (
	"context"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/catalog"
)

// AudioJobQueue publishes narration work for the worker fleet.
// *rabbitmq.Publisher satisfies it.
type AudioJobQueue interface {
	PublishAudioJob(ctx context.Context, jobID, storyID string) error
}

// EnqueueBacklog publishes one audio job per story still missing narration.
// Job ids are ulids so the worker logs sort by enqueue time.
func EnqueueBacklog(ctx context.Context, cat StoryAudioSource, queue AudioJobQueue, limit int, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	stories, err := cat.StoriesWithoutAudio(ctx, limit)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, story := range stories {
		jobID := ulid.Make().String()
		if err := queue.PublishAudioJob(ctx, jobID, story.ID); err != nil {
			return enqueued, err
		}
		log.Info("audio job enqueued",
			zap.String("job_id", jobID),
			zap.String("story_id", story.ID))
		enqueued++
	}
	return enqueued, nil
}

// EnqueueStory publishes a single narration job, used when a story is first
// ingested.
func EnqueueStory(ctx context.Context, queue AudioJobQueue, story *catalog.Story) (string, error) {
	jobID := ulid.Make().String()
	if err := queue.PublishAudioJob(ctx, jobID, story.ID); err != nil {
		return "", err
	}
	return jobID, nil
}
