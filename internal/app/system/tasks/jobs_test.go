package tasks

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeSweeper struct {
	count int64
	err   error
	calls int
}

func (f *fakeSweeper) CleanupExpired(context.Context) (int64, error) {
	f.calls++
	return f.count, f.err
}

func TestJobs(t *testing.T) {
	tests := []struct {
		name    string
		build   func(Sweeper, *zap.Logger) Job
		sweeper *fakeSweeper
		wantErr bool
	}{
		{"links removed", LinkCleanupJob, &fakeSweeper{count: 3}, false},
		{"links none", LinkCleanupJob, &fakeSweeper{}, false},
		{"states error", OAuthStateCleanupJob, &fakeSweeper{err: errors.New("down")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := tt.build(tt.sweeper, zap.NewNop())
			if j.Name == "" || j.Interval <= 0 {
				t.Fatalf("job not configured: %+v", j)
			}
			err := j.Run(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.sweeper.calls != 1 {
				t.Errorf("CleanupExpired calls = %d, want 1", tt.sweeper.calls)
			}
		})
	}
}
