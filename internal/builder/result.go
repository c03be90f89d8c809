// Package builder turns discovered units into deployment artifacts: zip
// archives for functions and layers, merged schema documents for entry
// points. Each packager converts its own failures into a failed Result so
// one bad unit never aborts its siblings.
package builder

import (
	"fmt"

	"github.com/vk/stackforge/internal/unit"
)

// Status is the outcome of one unit build.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failed"
}

// Result is the per-unit build outcome with kind-specific metrics.
type Result struct {
	Unit   string
	Kind   unit.Kind
	Status Status
	Err    error
	// Files counts source files that went into the artifact; for schemas
	// it counts merged fragments.
	Files int
	// Bytes is the artifact size on disk.
	Bytes int64
	// Artifact is the absolute path of the emitted artifact.
	Artifact string
}

// PackagingError wraps a filesystem failure while assembling an artifact.
type PackagingError struct {
	Unit string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("failed to package %s: %v", e.Unit, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

func failed(u unit.Unit, err error) Result {
	return Result{Unit: u.UnitName(), Kind: u.UnitKind(), Status: StatusFailed, Err: err}
}
