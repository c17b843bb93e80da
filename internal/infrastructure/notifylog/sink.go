package notifylog

import (
	"context"
	"log/slog"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

// Sink is a NotificationSink that only logs, used when no outbound channel
// is configured.
type Sink struct {
	logger *slog.Logger
}

var _ ports.NotificationSink = (*Sink)(nil)

// NewSink wraps a logger as a notification channel.
func NewSink(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

// Notify records the high-intent lead in the log.
func (s *Sink) Notify(_ context.Context, userRef string, lead domain.Lead) error {
	if s.logger != nil {
		s.logger.Info("high-intent lead found",
			"user", userRef,
			"score", lead.Score,
			"platform", lead.Platform,
			"url", lead.PostURL)
	}
	return nil
}
