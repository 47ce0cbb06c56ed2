package jobs

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RunDeleter removes recorded alias runs.
type RunDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunPruner deletes alias runs older than the retention window.
type RunPruner struct {
	repo      RunDeleter
	retention time.Duration
	now       func() time.Time
}

// NewRunPruner creates a RunPruner. retention must be positive.
func NewRunPruner(repo RunDeleter, retention time.Duration) *RunPruner {
	return &RunPruner{
		repo:      repo,
		retention: retention,
		now:       time.Now,
	}
}

// ProcessJobs implements the JobProcessor interface
func (p *RunPruner) ProcessJobs(ctx context.Context) error {
	cutoff := p.now().Add(-p.retention)

	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune alias runs: %w", err)
	}

	if deleted > 0 {
		log.Printf("history: pruned %d alias runs older than %s", deleted, cutoff.UTC().Format(time.RFC3339))
	}
	return nil
}
