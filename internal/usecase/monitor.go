package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/normalize"
	"LeadScout/internal/ports"
	"LeadScout/internal/source"
)

const notifyTimeout = 5 * time.Second

// MonitorDeps wires all driven adapters into the monitoring orchestrator.
type MonitorDeps struct {
	Keywords   ports.KeywordStore
	Sources    *source.Registry
	Normalizer *normalize.Normalizer
	Scorer     ports.IntentScorer
	Leads      ports.LeadStore
	Notifier   ports.NotificationSink
	Logger     *slog.Logger
}

// Monitor runs one keyword-monitoring pass per invocation: fan out to the
// enabled platform sources, normalize, score, and persist qualifying leads.
// Failures below the run boundary degrade to skips; only the initial
// keyword load can fail the whole run.
type Monitor struct {
	cfg        config.MonitorConfig
	keywords   ports.KeywordStore
	sources    *source.Registry
	normalizer *normalize.Normalizer
	scorer     ports.IntentScorer
	leads      ports.LeadStore
	notifier   ports.NotificationSink
	logger     *slog.Logger
}

// NewMonitor constructs the orchestration component.
func NewMonitor(cfg config.MonitorConfig, deps MonitorDeps) *Monitor {
	return &Monitor{
		cfg:        cfg,
		keywords:   deps.Keywords,
		sources:    deps.Sources,
		normalizer: deps.Normalizer,
		scorer:     deps.Scorer,
		leads:      deps.Leads,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// Run executes a single monitoring pass over all active keywords. Keywords
// are processed sequentially with a pacing delay between them to stay under
// combined platform rate limits; re-runs over the same window are idempotent
// thanks to the (keyword, post URL) dedup key.
func (m *Monitor) Run(ctx context.Context) (domain.RunSummary, error) {
	keywords, err := m.keywords.ListActive(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("load active keywords: %w", err)
	}

	m.debug("monitoring run started", "keywords", len(keywords))

	var summary domain.RunSummary
	for i, keyword := range keywords {
		processed, saved := m.processKeyword(ctx, keyword)
		summary.Processed += processed
		summary.Saved += saved

		if i < len(keywords)-1 && m.cfg.KeywordPause > 0 {
			select {
			case <-time.After(m.cfg.KeywordPause.Std()):
			case <-ctx.Done():
				m.debug("run cancelled between keywords", "remaining", len(keywords)-i-1)
				return summary, nil
			}
		}
	}

	m.debug("monitoring run completed", "processed", summary.Processed, "saved", summary.Saved)
	return summary, nil
}

// processKeyword runs the full pipeline for one keyword. Anything that goes
// wrong here, panics included, is logged with the keyword text and the run
// moves on to the next keyword.
func (m *Monitor) processKeyword(ctx context.Context, keyword domain.Keyword) (processed, saved int) {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.Error("keyword processing panicked", "keyword", keyword.Text, "panic", r)
			}
		}
	}()

	items := m.fanOut(ctx, keyword)

	candidates := m.normalizer.Candidates(keyword, items)
	processed = len(candidates)
	if processed == 0 {
		return processed, 0
	}

	for _, scored := range m.scorer.ScoreBatch(ctx, candidates) {
		if scored.Score < m.cfg.SaveThreshold {
			continue
		}
		if m.persist(ctx, keyword, scored) {
			saved++
		}
	}

	return processed, saved
}

// fanOut searches every enabled platform concurrently and joins the
// results. A failing source contributes zero items and never aborts its
// siblings.
func (m *Monitor) fanOut(ctx context.Context, keyword domain.Keyword) []domain.RawItem {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items []domain.RawItem
	)

	for _, platform := range keyword.Platforms {
		src, err := m.sources.Resolve(platform)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("platform skipped", "keyword", keyword.Text, "platform", platform, "error", err)
			}
			continue
		}

		wg.Add(1)
		go func(src ports.PlatformSource, platform domain.Platform) {
			defer wg.Done()

			results, err := src.Search(ctx, keyword.Text, m.cfg.Window, m.cfg.SearchLimit)
			if err != nil {
				if m.logger != nil {
					m.logger.Warn("platform search failed",
						"keyword", keyword.Text, "platform", platform, "error", err)
				}
				return
			}

			mu.Lock()
			items = append(items, results...)
			mu.Unlock()
		}(src, platform)
	}

	wg.Wait()
	return items
}

// persist writes one qualifying candidate as a lead, skipping duplicates
// and notifying on top-tier scores. Returns true only for a fresh save.
func (m *Monitor) persist(ctx context.Context, keyword domain.Keyword, scored domain.ScoredCandidate) bool {
	exists, err := m.leads.Exists(ctx, scored.KeywordID, scored.PostURL)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("dedup check failed", "keyword", keyword.Text, "url", scored.PostURL, "error", err)
		}
		return false
	}
	if exists {
		m.debug("duplicate lead skipped", "keyword", keyword.Text, "url", scored.PostURL)
		return false
	}

	lead, err := m.leads.Insert(ctx, domain.Lead{
		KeywordID: scored.KeywordID,
		Platform:  scored.Platform,
		Content:   scored.Content,
		Author:    scored.Author,
		PostURL:   scored.PostURL,
		Score:     scored.Score,
		Reasoning: scored.Reasoning,
		Metadata:  scored.Metadata,
		Processed: false,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateLead) {
			// Lost the race against a concurrent run; the index already
			// holds this lead.
			m.debug("duplicate lead skipped on insert", "keyword", keyword.Text, "url", scored.PostURL)
			return false
		}
		if m.logger != nil {
			m.logger.Error("lead insert failed", "keyword", keyword.Text, "url", scored.PostURL, "error", err)
		}
		return false
	}

	if lead.Score >= m.cfg.NotifyThreshold {
		m.notify(ctx, keyword, lead)
	}

	return true
}

// notify fires the sink with a bounded timeout; a slow or failing sink is
// logged and never fails the run.
func (m *Monitor) notify(ctx context.Context, keyword domain.Keyword, lead domain.Lead) {
	if m.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := m.notifier.Notify(notifyCtx, keyword.UserEmail, lead); err != nil {
		if m.logger != nil {
			m.logger.Warn("notification failed", "keyword", keyword.Text, "user", keyword.UserEmail, "error", err)
		}
	}
}

func (m *Monitor) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
