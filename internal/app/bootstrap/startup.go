// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/dalemusser/committeehub/internal/app/store/attendancelinks"
	"github.com/dalemusser/committeehub/internal/app/store/oauthstate"
	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/tasks"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

var (
	maintenanceMu sync.Mutex
	maintenance   *workers.Runner
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It rebuilds each member's team_ids from the teams collection, which owns
// membership, and starts the maintenance jobs that sweep expired links and
// OAuth states.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := rebuildMemberIndex(ctx, deps, logger); err != nil {
		return err
	}

	runner := workers.NewRunner(logger, timeouts.Long(),
		tasks.LinkCleanupJob(attendancelinks.New(deps.MongoDatabase), logger),
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
	)
	runner.Start()

	maintenanceMu.Lock()
	maintenance = runner
	maintenanceMu.Unlock()
	return nil
}

func rebuildMemberIndex(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	if err := teamstore.New(deps.MongoDatabase, logger).RebuildMemberIndex(ctx); err != nil {
		return fmt.Errorf("rebuild member team index: %w", err)
	}
	logger.Info("member team index rebuilt")
	return nil
}

func stopMaintenance() {
	maintenanceMu.Lock()
	runner := maintenance
	maintenance = nil
	maintenanceMu.Unlock()

	if runner != nil {
		runner.Stop()
	}
}
