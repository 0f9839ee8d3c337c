package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mynewsletters/voicebrief/internal/catalog"
)

// Catalog is the read-only story lookup the manager dereferences session
// cursors against. *catalog.Repo satisfies it.
type Catalog interface {
	GetStory(ctx context.Context, id string) (*catalog.Story, error)
	GetStoryMetadata(ctx context.Context, storyID string) (*catalog.StoryMetadata, error)
}

// Archive records finished sessions for listening history. *catalog.Repo
// satisfies it.
type Archive interface {
	SaveBriefingRecord(ctx context.Context, rec *catalog.BriefingRecord) error
}

// Manager is the sole authority for session state transitions.
type Manager struct {
	store   Store
	catalog Catalog
	archive Archive
	log     *zap.Logger
}

func NewManager(store Store, cat Catalog, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, catalog: cat, log: log}
}

// SetArchive enables persistence of completed sessions. Archival is best
// effort and never fails the advance that triggered it.
func (m *Manager) SetArchive(a Archive) { m.archive = a }

// Create starts a new session at the first story, status playing.
func (m *Manager) Create(ctx context.Context, userID string, storyIDs []string) (*Session, error) {
	if len(storyIDs) == 0 {
		return nil, ErrEmptyBriefing
	}

	order := append([]string(nil), storyIDs...)
	sess := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		StoryOrder:     order,
		CurrentIndex:   0,
		CurrentStoryID: order[0],
		Status:         StatusPlaying,
		CreatedAt:      time.Now().UTC(),
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	m.log.Info("created briefing session",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.Int("stories", len(order)))
	return sess, nil
}

// Get returns the raw session record, nil when absent.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	return m.store.Get(ctx, sessionID)
}

// CurrentStory dereferences the session cursor against the catalog.
// Both a missing session and a missing story are soft misses (nil, nil) so
// conversation flow can recover.
func (m *Manager) CurrentStory(ctx context.Context, sessionID string) (*catalog.Story, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.CurrentStoryID == "" {
		m.log.Warn("session not found or has no current story", zap.String("session_id", sessionID))
		return nil, nil
	}

	story, err := m.catalog.GetStory(ctx, sess.CurrentStoryID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		m.log.Warn("current story missing from catalog",
			zap.String("session_id", sessionID),
			zap.String("story_id", sess.CurrentStoryID))
	}
	return story, nil
}

// Advance moves the cursor to the next story, or completes the briefing when
// the cursor is already on the last one. A completed session stays completed.
func (m *Manager) Advance(ctx context.Context, sessionID string) (*catalog.Story, AdvanceOutcome, error) {
	var finished, wasCompleted bool
	updated, err := m.store.Update(ctx, sessionID, func(s *Session) error {
		finished, wasCompleted = false, false
		if s.Status == StatusCompleted {
			finished, wasCompleted = true, true
			return nil
		}
		next := s.CurrentIndex + 1
		if next >= len(s.StoryOrder) {
			s.Status = StatusCompleted
			finished = true
			return nil
		}
		s.CurrentIndex = next
		s.CurrentStoryID = s.StoryOrder[next]
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		m.log.Warn("advance on unknown session", zap.String("session_id", sessionID))
		return nil, AdvanceNotFound, nil
	}
	if err != nil {
		return nil, AdvanceNotFound, err
	}
	if finished {
		if !wasCompleted {
			m.log.Info("briefing completed", zap.String("session_id", sessionID))
			m.archiveCompleted(ctx, updated)
		}
		return nil, AdvanceCompleted, nil
	}

	story, err := m.catalog.GetStory(ctx, updated.CurrentStoryID)
	if err != nil {
		return nil, AdvanceNext, err
	}
	if story != nil {
		m.log.Info("advanced to next story",
			zap.String("session_id", sessionID),
			zap.Int("index", updated.CurrentIndex),
			zap.Int("total", len(updated.StoryOrder)))
	}
	return story, AdvanceNext, nil
}

// Rewind moves the cursor back one story. Returns false with no error when at
// the first story, when the session is completed, or when it does not exist.
func (m *Manager) Rewind(ctx context.Context, sessionID string) (*catalog.Story, bool, error) {
	var moved bool
	updated, err := m.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status == StatusCompleted || s.CurrentIndex == 0 {
			moved = false
			return nil
		}
		s.CurrentIndex--
		s.CurrentStoryID = s.StoryOrder[s.CurrentIndex]
		moved = true
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !moved {
		return nil, false, nil
	}

	story, err := m.catalog.GetStory(ctx, updated.CurrentStoryID)
	if err != nil {
		return nil, false, err
	}
	return story, true, nil
}

// Pause is idempotent: pausing an already-paused session succeeds without a
// state change. A completed session rejects the transition.
func (m *Manager) Pause(ctx context.Context, sessionID string) (bool, error) {
	return m.setStatus(ctx, sessionID, StatusPaused)
}

// Resume returns false on a completed session.
func (m *Manager) Resume(ctx context.Context, sessionID string) (bool, error) {
	return m.setStatus(ctx, sessionID, StatusPlaying)
}

func (m *Manager) setStatus(ctx context.Context, sessionID string, target Status) (bool, error) {
	var applied bool
	_, err := m.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status == StatusCompleted {
			applied = false
			return nil
		}
		s.Status = target
		applied = true
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if applied {
		m.log.Info("session status changed",
			zap.String("session_id", sessionID),
			zap.String("status", string(target)))
	}
	return applied, nil
}

func (m *Manager) archiveCompleted(ctx context.Context, sess *Session) {
	if m.archive == nil || sess == nil {
		return
	}
	order, err := json.Marshal(sess.StoryOrder)
	if err != nil {
		return
	}
	rec := &catalog.BriefingRecord{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		StoryOrder:  datatypes.JSON(order),
		StoryCount:  len(sess.StoryOrder),
		Status:      string(StatusCompleted),
		StartedAt:   sess.CreatedAt,
		CompletedAt: time.Now().UTC(),
	}
	if err := m.archive.SaveBriefingRecord(ctx, rec); err != nil {
		m.log.Warn("failed to archive completed session",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
}

// GetProgress computes the playback snapshot. Returns nil, nil when the
// session does not exist.
func (m *Manager) GetProgress(ctx context.Context, sessionID string) (*Progress, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	total := len(sess.StoryOrder)
	remaining := total - sess.CurrentIndex - 1
	if remaining < 0 {
		remaining = 0
	}
	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(sess.CurrentIndex+1)/float64(total)*1000) / 10
	}
	return &Progress{
		CurrentIndex: sess.CurrentIndex,
		Total:        total,
		Percentage:   pct,
		Status:       sess.Status,
		Remaining:    remaining,
	}, nil
}

// DetailedSummary returns the long-form text for the current story, "" when
// the session, story, or summary is unavailable.
func (m *Manager) DetailedSummary(ctx context.Context, sessionID string) (string, error) {
	story, err := m.CurrentStory(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if story == nil {
		return "", nil
	}
	return story.FullTextSummary, nil
}

// StoryMetadata resolves the current story's parent issue and newsletter.
// Any broken link in the chain is a soft miss.
func (m *Manager) StoryMetadata(ctx context.Context, sessionID string) (*catalog.StoryMetadata, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.CurrentStoryID == "" {
		return nil, nil
	}
	return m.catalog.GetStoryMetadata(ctx, sess.CurrentStoryID)
}
