package ports

import (
	"context"
	"time"

	"LeadScout/internal/domain"
)

// PlatformSource searches one social platform for recent items matching a
// keyword. Implementations own their auth and pagination; failures surface
// as *domain.SourceUnavailableError.
type PlatformSource interface {
	Platform() domain.Platform
	Search(ctx context.Context, keyword string, window domain.TimeWindow, limit int) ([]domain.RawItem, error)
}

// IntentScorer rates content for B2B buying intent on a 1-10 scale. Scoring
// never fails: call or parse errors degrade to score 1 with a generic
// reasoning string.
type IntentScorer interface {
	Score(ctx context.Context, content string, platform domain.Platform) (int, string)
	ScoreBatch(ctx context.Context, candidates []domain.Candidate) []domain.ScoredCandidate
}

// KeywordStore exposes the keywords the monitor should process. Read-only
// from the core's point of view.
type KeywordStore interface {
	ListActive(ctx context.Context) ([]domain.Keyword, error)
}

// LeadStore persists qualified leads. Insert reports a duplicate
// (keyword_id, post_url) pair as domain.ErrDuplicateLead.
type LeadStore interface {
	Exists(ctx context.Context, keywordID, postURL string) (bool, error)
	Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	List(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, int, error)
	SetProcessed(ctx context.Context, leadIDs []string, processed bool) error
}

// NotificationSink delivers high-score lead alerts. Callers bound it with a
// timeout and never fail a run on its errors.
type NotificationSink interface {
	Notify(ctx context.Context, userRef string, lead domain.Lead) error
}

// Scheduler controls when monitoring passes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
