package orchestrator

import (
	"context"
	"sort"

	"github.com/vk/stackforge/internal/builder"
	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/unit"
)

// Summary aggregates every unit's result for one run. It is assembled only
// at the Summarize step; phases never share mutable counters.
type Summary struct {
	BuildDir string
	Results  []builder.Result
}

func (s *Summary) add(results []builder.Result) {
	s.Results = append(s.Results, results...)
}

// Failed reports whether any unit in any phase failed.
func (s *Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Status == builder.StatusFailed {
			return true
		}
	}
	return false
}

// FailedResults returns the failed unit results, sorted by unit name.
func (s *Summary) FailedResults() []builder.Result {
	var failed []builder.Result
	for _, r := range s.Results {
		if r.Status == builder.StatusFailed {
			failed = append(failed, r)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Unit < failed[j].Unit })
	return failed
}

// Count returns the number of results with the given kind and status.
func (s *Summary) Count(kind unit.Kind, status builder.Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Kind == kind && r.Status == status {
			n++
		}
	}
	return n
}

// Artifacts returns the emitted artifact paths, sorted.
func (s *Summary) Artifacts() []string {
	var paths []string
	for _, r := range s.Results {
		if r.Status == builder.StatusSuccess && r.Artifact != "" {
			paths = append(paths, r.Artifact)
		}
	}
	sort.Strings(paths)
	return paths
}

// log emits the human-readable summary: per-kind artifact counts, the
// build location, and every failure with its reason.
func (s *Summary) log(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	logger.Info("Lambda functions built.",
		"count", s.Count(unit.KindFunction, builder.StatusSuccess))
	logger.Info("Lambda layers built.",
		"count", s.Count(unit.KindLayer, builder.StatusSuccess))
	logger.Info("AppSync schemas built.",
		"count", s.Count(unit.KindSchema, builder.StatusSuccess))
	logger.Info("Build directory.", "path", s.BuildDir)

	for _, r := range s.FailedResults() {
		logger.Error("Failed unit.", "unit", r.Unit, "kind", r.Kind.String(), "error", r.Err)
	}
	if !s.Failed() {
		logger.Info("All artifacts built successfully.")
	}
}
