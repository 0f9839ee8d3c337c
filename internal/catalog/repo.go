package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateUser(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) SaveGoogleToken(ctx context.Context, userID, accessToken, refreshToken string, expiry time.Time) error {
	return r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"google_access_token":  accessToken,
			"google_refresh_token": refreshToken,
			"google_token_expiry":  expiry,
		}).Error
}

func (r *Repo) CreateNewsletter(ctx context.Context, n *Newsletter) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repo) Subscribe(ctx context.Context, userID, newsletterID string) error {
	return r.db.WithContext(ctx).Create(&Subscription{
		UserID:       userID,
		NewsletterID: newsletterID,
		SubscribedAt: time.Now().UTC(),
	}).Error
}

func (r *Repo) CreateIssue(ctx context.Context, i *Issue) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *Repo) CreateStory(ctx context.Context, s *Story) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetStory returns nil, nil when the story does not exist.
func (r *Repo) GetStory(ctx context.Context, id string) (*Story, error) {
	var s Story
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetStoryMetadata resolves the story -> issue -> newsletter chain.
// A broken link anywhere returns nil, nil.
func (r *Repo) GetStoryMetadata(ctx context.Context, storyID string) (*StoryMetadata, error) {
	story, err := r.GetStory(ctx, storyID)
	if err != nil || story == nil {
		return nil, err
	}

	var issue Issue
	if err := r.db.WithContext(ctx).First(&issue, "id = ?", story.IssueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var nl Newsletter
	if err := r.db.WithContext(ctx).First(&nl, "id = ?", issue.NewsletterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	date := issue.Date
	return &StoryMetadata{
		Headline:       story.Headline,
		NewsletterName: nl.Name,
		Publisher:      nl.Publisher,
		IssueDate:      &date,
		IssueSubject:   issue.Subject,
		StoryURL:       story.URL,
	}, nil
}

// TodayStories returns stories from the user's subscribed newsletters whose
// issues arrived within the last day, in briefing playback order.
func (r *Repo) TodayStories(ctx context.Context, userID string) ([]Story, error) {
	since := time.Now().UTC().AddDate(0, 0, -1)

	var stories []Story
	err := r.db.WithContext(ctx).
		Joins("JOIN issues ON issues.id = stories.issue_id").
		Joins("JOIN user_subscriptions ON user_subscriptions.newsletter_id = issues.newsletter_id").
		Where("user_subscriptions.user_id = ? AND issues.date >= ?", userID, since).
		Order("issues.date DESC, stories.id").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// RecentStories returns stories for an explicit newsletter selection.
func (r *Repo) RecentStories(ctx context.Context, newsletterIDs []string, since time.Time) ([]Story, error) {
	var stories []Story
	err := r.db.WithContext(ctx).
		Joins("JOIN issues ON issues.id = stories.issue_id").
		Where("issues.newsletter_id IN ? AND issues.date >= ?", newsletterIDs, since).
		Order("issues.date DESC, stories.id").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// StoriesWithoutAudio feeds the TTS pipeline.
func (r *Repo) StoriesWithoutAudio(ctx context.Context, limit int) ([]Story, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var stories []Story
	err := r.db.WithContext(ctx).
		Where("summary_audio_url = '' OR summary_audio_url IS NULL").
		Limit(limit).
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *Repo) SetStoryAudio(ctx context.Context, storyID, summaryURL, fullTextURL string) error {
	updates := map[string]any{}
	if summaryURL != "" {
		updates["summary_audio_url"] = summaryURL
	}
	if fullTextURL != "" {
		updates["full_text_audio_url"] = fullTextURL
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&Story{}).
		Where("id = ?", storyID).
		Updates(updates).Error
}

func (r *Repo) SaveBriefingRecord(ctx context.Context, rec *BriefingRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
}

// ListBriefingRecords returns a user's finished briefings, newest first.
func (r *Repo) ListBriefingRecords(ctx context.Context, userID string, limit int) ([]BriefingRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var recs []BriefingRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) LogInteraction(ctx context.Context, entry *ChatLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListInteractions returns chat log entries in DESC id order (newest -> oldest).
func (r *Repo) ListInteractions(ctx context.Context, sessionID string, limit int) ([]ChatLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []ChatLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
