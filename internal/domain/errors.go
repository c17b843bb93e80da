package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateLead is returned by the lead store when an insert hits the
// (keyword_id, post_url) unique index. The orchestrator treats it as a
// normal skip, never as a failure.
var ErrDuplicateLead = errors.New("lead already exists")

// SourceUnavailableError marks a platform search that could not run, so the
// orchestrator can drop that platform for the keyword and carry on.
type SourceUnavailableError struct {
	Platform Platform
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Platform, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
