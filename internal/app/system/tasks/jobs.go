// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Sweeper removes expired documents and reports how many it removed.
type Sweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// LinkCleanupJob removes expired attendance links.
// The TTL index on expires_at does the same, but only once a minute at best.
func LinkCleanupJob(links Sweeper, logger *zap.Logger) Job {
	return Job{
		Name:     "attendance-link-cleanup",
		Interval: 15 * time.Minute,
		Run:      sweep(links, logger, "removed expired attendance links"),
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(states Sweeper, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run:      sweep(states, logger, "cleaned up expired OAuth states"),
	}
}

func sweep(s Sweeper, logger *zap.Logger, msg string) func(context.Context) error {
	return func(ctx context.Context) error {
		count, err := s.CleanupExpired(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			logger.Debug(msg, zap.Int64("count", count))
		}
		return nil
	}
}
