// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Runner runs maintenance jobs on their own tickers until stopped.
type Runner struct {
	jobs    []tasks.Job
	log     *zap.Logger
	timeout time.Duration
	stopCh  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewRunner creates a runner for jobs. Each run gets timeout as its deadline.
func NewRunner(logger *zap.Logger, timeout time.Duration, jobs ...tasks.Job) *Runner {
	return &Runner{
		jobs:    jobs,
		log:     logger,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Start begins one background loop per job.
func (w *Runner) Start() {
	for _, j := range w.jobs {
		w.wg.Add(1)
		go w.run(j)
		w.log.Info("maintenance job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every loop to stop and waits for them to finish.
// It is safe to call more than once.
func (w *Runner) Stop() {
	w.once.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("maintenance jobs stopped")
}

func (w *Runner) run(j tasks.Job) {
	defer w.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(j)
		}
	}
}

func (w *Runner) runOnce(j tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		w.log.Error("maintenance job failed", zap.String("job", j.Name), zap.Error(err))
	}
}
