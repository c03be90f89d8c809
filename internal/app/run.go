package app

import (
	"context"
	"fmt"

	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/orchestrator"
)

// Run executes the build (or clean-only) lifecycle. It returns a non-nil
// error when the environment is unusable or when at least one unit failed,
// which the entrypoint maps to a non-zero exit status.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	orch := orchestrator.New(a.manifest, a.config.WorkerCount)

	if a.config.CleanOnly {
		if err := orch.Clean(ctx); err != nil {
			return fmt.Errorf("failed to clean build artifacts: %w", err)
		}
		a.logger.Info("Build artifacts cleaned successfully.")
		return nil
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("build aborted: %w", err)
	}

	if summary.Failed() {
		return fmt.Errorf("build finished with %d failed unit(s)", len(summary.FailedResults()))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
