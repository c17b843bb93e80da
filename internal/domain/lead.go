package domain

import "time"

// Platform identifies a monitored social network. The set is closed; sources
// are registered per platform at startup.
type Platform string

const (
	PlatformReddit  Platform = "reddit"
	PlatformTwitter Platform = "twitter"
)

// TimeWindow bounds how far back a platform search reaches.
type TimeWindow string

const (
	WindowHour TimeWindow = "hour"
	WindowDay  TimeWindow = "day"
	WindowWeek TimeWindow = "week"
)

// Keyword is a user-owned monitoring term. The core only reads keywords;
// creation and deactivation belong to the dashboard.
type Keyword struct {
	ID        string
	UserID    string
	UserEmail string
	Text      string
	Platforms []Platform
	Active    bool
	CreatedAt time.Time
}

// RawItem is a single post or comment as returned by a platform search,
// before normalization. Title is empty for comment-like items.
type RawItem struct {
	Platform  Platform
	ID        string
	Title     string
	Body      string
	BodyHTML  string
	Author    string
	PostURL   string
	CreatedAt time.Time
	Metadata  map[string]any
}

// Candidate is a normalized, not-yet-scored piece of content tied to the
// keyword that surfaced it. Candidates are transient and never persisted.
type Candidate struct {
	KeywordID string
	Platform  Platform
	Content   string
	Author    string
	PostURL   string
	Metadata  map[string]any
}

// ScoredCandidate is a Candidate with an intent score in [1,10] attached.
type ScoredCandidate struct {
	Candidate
	Score     int
	Reasoning string
}

// Lead is a persisted, qualified candidate. The pair (KeywordID, PostURL)
// is unique in storage and is the sole deduplication key.
type Lead struct {
	ID        string
	KeywordID string
	Platform  Platform
	Content   string
	Author    string
	PostURL   string
	Score     int
	Reasoning string
	Metadata  map[string]any
	Processed bool
	CreatedAt time.Time
}

// RunSummary aggregates one monitoring pass for the trigger caller.
type RunSummary struct {
	Processed int
	Saved     int
}

// LeadFilter narrows lead listings. Zero values mean "no constraint";
// Page and Limit are normalized by the store.
type LeadFilter struct {
	Platform Platform
	MinScore int
	MaxScore int
	Page     int
	Limit    int
}
