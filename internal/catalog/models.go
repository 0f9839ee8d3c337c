package catalog

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name               string    `gorm:"type:varchar(255);not null" json:"name"`
	DefaultVoiceID     string    `gorm:"type:varchar(64)" json:"default_voice_id"`
	PlaybackSpeed      float64   `gorm:"default:1" json:"playback_speed"`
	SummarizationDepth string    `gorm:"type:varchar(50);default:'high-level'" json:"summarization_depth"`
	GoogleAccessToken  string    `gorm:"type:text" json:"-"`
	GoogleRefreshToken string    `gorm:"type:text" json:"-"`
	GoogleTokenExpiry  *time.Time `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

type Newsletter struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Publisher   string `gorm:"type:varchar(255);not null" json:"publisher"`
	Description string `gorm:"type:text" json:"description"`
}

func (Newsletter) TableName() string { return "newsletters" }

type Subscription struct {
	UserID       string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	NewsletterID string    `gorm:"type:uuid;primaryKey" json:"newsletter_id"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

func (Subscription) TableName() string { return "user_subscriptions" }

type Issue struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	NewsletterID string    `gorm:"type:uuid;index;not null" json:"newsletter_id"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	Subject      string    `gorm:"type:varchar(255);not null" json:"subject"`
	RawContent   string    `gorm:"type:text" json:"-"`
}

func (Issue) TableName() string { return "issues" }

type Story struct {
	ID                 string `gorm:"type:uuid;primaryKey" json:"id"`
	IssueID            string `gorm:"type:uuid;index;not null" json:"issue_id"`
	Headline           string `gorm:"type:text;not null" json:"headline"`
	OneSentenceSummary string `gorm:"type:text;not null" json:"one_sentence_summary"`
	FullTextSummary    string `gorm:"type:text" json:"full_text_summary"`
	URL                string `gorm:"type:text" json:"url,omitempty"`
	SummaryAudioURL    string `gorm:"type:text" json:"summary_audio_url,omitempty"`
	FullTextAudioURL   string `gorm:"type:text" json:"full_text_audio_url,omitempty"`
}

func (Story) TableName() string { return "stories" }

// ChatLog records one exchange inside a briefing conversation, keyed by the
// session id that lives in the session store.
type ChatLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:uuid;index;not null" json:"session_id"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Intent    string    `gorm:"type:varchar(50)" json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatLog) TableName() string { return "chat_logs" }

// BriefingRecord is the durable row written when a session finishes. Live
// cursors stay in the session store; this is listening history.
type BriefingRecord struct {
	SessionID   string         `gorm:"type:uuid;primaryKey" json:"session_id"`
	UserID      string         `gorm:"type:uuid;index;not null" json:"user_id"`
	StoryOrder  datatypes.JSON `json:"story_order"`
	StoryCount  int            `json:"story_count"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

func (BriefingRecord) TableName() string { return "briefing_sessions" }

// StoryMetadata is the denormalized story -> issue -> newsletter chain used
// when a listener asks where a story came from.
type StoryMetadata struct {
	Headline       string     `json:"headline"`
	NewsletterName string     `json:"newsletter_name"`
	Publisher      string     `json:"publisher"`
	IssueDate      *time.Time `json:"issue_date,omitempty"`
	IssueSubject   string     `json:"issue_subject,omitempty"`
	StoryURL       string     `json:"story_url,omitempty"`
}
