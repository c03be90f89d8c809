package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/manifest"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	manifest *manifest.Manifest
}

// NewApp is the constructor for the main application. It resolves the
// project root, loads the build manifest, and configures an isolated
// logger. A project that cannot be loaded is a fatal startup error and
// panics; the entrypoint recovers and turns it into a clean exit.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	root := config.ProjectRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			panic(fmt.Errorf("failed to determine working directory: %w", err))
		}
		root = manifest.FindProjectRoot(cwd)
		logger.Debug("Project root auto-detected.", "root", root)
	}

	man, err := manifest.Load(ctx, root, config.ManifestPath)
	if err != nil {
		panic(fmt.Errorf("failed to load manifest: %w", err))
	}
	if err := man.Validate(); err != nil {
		panic(err)
	}
	logger.Debug("Manifest loaded and validated.", "root", man.ProjectRoot)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		manifest: man,
	}
}

// Manifest returns the resolved project manifest. This is primarily for testing.
func (a *App) Manifest() *manifest.Manifest {
	return a.manifest
}
