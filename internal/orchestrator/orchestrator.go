// Package orchestrator sequences a full build run through its phases:
// Clean -> Prepare -> BuildLayers -> BuildFunctions -> BuildSchemas ->
// Summarize. Clean and Prepare failures abort the run; within a build
// phase each unit fails alone and siblings keep building. Summarize always
// runs over whatever results exist.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/vk/stackforge/internal/builder"
	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/manifest"
	"github.com/vk/stackforge/internal/schema"
	"github.com/vk/stackforge/internal/unit"
)

// EnvironmentError reports a fatal failure to clean or create the build
// destination. No unit-level work starts after one of these.
type EnvironmentError struct {
	Phase string
	Err   error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// Orchestrator drives one build run over a resolved manifest.
type Orchestrator struct {
	man     *manifest.Manifest
	workers int
}

// New returns an Orchestrator building with up to workers concurrent units
// per phase.
func New(man *manifest.Manifest, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{man: man, workers: workers}
}

// Run executes the full phase sequence and returns the aggregated summary.
// The returned error is non-nil only for fatal environment failures; unit
// failures are reported through the summary instead.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	banner(ctx, 1, "CLEAN BUILD ENVIRONMENT")
	if err := o.Clean(ctx); err != nil {
		return nil, &EnvironmentError{Phase: "clean", Err: err}
	}
	logger.Info("Build artifacts cleaned.")

	banner(ctx, 2, "PREPARE BUILD ENVIRONMENT")
	if err := o.prepare(); err != nil {
		return nil, &EnvironmentError{Phase: "prepare", Err: err}
	}
	logger.Info("Build directories ready.")

	discoverer := unit.NewDiscoverer(o.man)
	summary := &Summary{BuildDir: o.man.BuildDir}

	layers, err := discoverer.Layers(ctx)
	if err != nil {
		return nil, &EnvironmentError{Phase: "discover layers", Err: err}
	}
	layerBuilder := &builder.LayerBuilder{DestDir: o.man.LayersDir}
	summary.add(o.runPhase(ctx, 3, "BUILD LAMBDA LAYERS", jobsFor(layers, func(u *unit.Layer) phaseJob {
		return func(ctx context.Context) builder.Result { return layerBuilder.Build(ctx, u) }
	})))

	functions, err := discoverer.Functions(ctx)
	if err != nil {
		return nil, &EnvironmentError{Phase: "discover functions", Err: err}
	}
	functionBuilder := &builder.FunctionBuilder{DestDir: o.man.LambdasDir}
	summary.add(o.runPhase(ctx, 4, "BUILD LAMBDA FUNCTIONS", jobsFor(functions, func(u *unit.Function) phaseJob {
		return func(ctx context.Context) builder.Result { return functionBuilder.Build(ctx, u) }
	})))

	schemas, err := discoverer.Schemas(ctx)
	if err != nil {
		return nil, &EnvironmentError{Phase: "discover schemas", Err: err}
	}
	// One resolver for the whole phase: the fragment cache is read-only
	// shared state, safe across concurrent schema units.
	schemaBuilder := &builder.SchemaBuilder{
		DestDir:  o.man.SchemaOutDir,
		Resolver: schema.NewResolver(schema.NewLoader(), o.man.SchemaRoot),
	}
	summary.add(o.runPhase(ctx, 5, "BUILD APPSYNC SCHEMAS", jobsFor(schemas, func(u *unit.Schema) phaseJob {
		return func(ctx context.Context) builder.Result { return schemaBuilder.Build(ctx, u) }
	})))

	banner(ctx, 6, "BUILD SUMMARY")
	summary.log(ctx)

	return summary, nil
}

// Clean removes the build directory and any extra configured paths. It is
// also the whole of clean-only mode.
func (o *Orchestrator) Clean(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if err := os.RemoveAll(o.man.BuildDir); err != nil {
		return err
	}
	logger.Debug("Removed build directory.", "path", o.man.BuildDir)

	for _, extra := range o.man.ExtraClean {
		if err := os.RemoveAll(extra); err != nil {
			return err
		}
		logger.Debug("Removed extra clean path.", "path", extra)
	}
	return nil
}

func (o *Orchestrator) prepare() error {
	for _, dir := range []string{o.man.LambdasDir, o.man.LayersDir, o.man.SchemaOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// phaseJob builds one unit and returns its result.
type phaseJob func(context.Context) builder.Result

func jobsFor[T any](units []T, job func(T) phaseJob) []phaseJob {
	jobs := make([]phaseJob, 0, len(units))
	for _, u := range units {
		jobs = append(jobs, job(u))
	}
	return jobs
}

// runPhase executes the phase's jobs on a bounded worker pool. Run-level
// cancellation is honored at unit boundaries: in-flight units finish, no
// new unit starts, and only completed results are reported.
func (o *Orchestrator) runPhase(ctx context.Context, step int, title string, jobs []phaseJob) []builder.Result {
	logger := ctxlog.FromContext(ctx)
	banner(ctx, step, title)

	if len(jobs) == 0 {
		logger.Warn("No units found for phase, skipping.", "phase", title)
		return nil
	}
	logger.Info("Units discovered for phase.", "phase", title, "count", len(jobs))

	workers := o.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobsChan := make(chan phaseJob)
	resultsChan := make(chan builder.Result, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				if ctx.Err() != nil {
					continue
				}
				resultsChan <- job(ctx)
			}
		}()
	}

	for _, job := range jobs {
		jobsChan <- job
	}
	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	results := make([]builder.Result, 0, len(jobs))
	for result := range resultsChan {
		if result.Status == builder.StatusFailed {
			logger.Error("Unit build failed.",
				"unit", result.Unit, "kind", result.Kind.String(), "error", result.Err)
		}
		results = append(results, result)
	}
	return results
}

// banner logs a numbered phase header, the run's human-readable progress
// marker.
func banner(ctx context.Context, step int, title string) {
	ctxlog.FromContext(ctx).Info(fmt.Sprintf("STEP %d: %s", step, title))
}
