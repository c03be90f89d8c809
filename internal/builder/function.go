package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/stackforge/internal/archive"
	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/fsutil"
	"github.com/vk/stackforge/internal/unit"
)

// FunctionBuilder packages one Lambda handler per archive. The handler
// lands at the archive root and every shared module directory keeps its
// src-relative path, so the handler's own imports resolve unmodified once
// the archive is unpacked into an execution root.
type FunctionBuilder struct {
	DestDir string
}

// Build assembles the archive for fn into DestDir.
func (b *FunctionBuilder) Build(ctx context.Context, fn *unit.Function) Result {
	logger := ctxlog.FromContext(ctx).With("function", fn.Name)
	logger.Info("Building function package.")

	if !fsutil.FileExists(fn.HandlerPath) {
		return failed(fn, &PackagingError{Unit: fn.Name,
			Err: fmt.Errorf("handler file not found: %s", fn.HandlerPath)})
	}

	entries := []archive.Entry{{Source: fn.HandlerPath, Name: filepath.Base(fn.HandlerPath)}}
	for _, dir := range fn.SharedDirs {
		rel, err := filepath.Rel(fn.SrcDir, dir)
		if err != nil {
			return failed(fn, &PackagingError{Unit: fn.Name, Err: err})
		}
		dirEntries, err := archive.CollectDir(dir, rel)
		if err != nil {
			return failed(fn, &PackagingError{Unit: fn.Name, Err: err})
		}
		entries = append(entries, dirEntries...)
	}

	dest := filepath.Join(b.DestDir, fn.Name+".zip")
	size, err := archive.WriteZip(dest, entries)
	if err != nil {
		return failed(fn, &PackagingError{Unit: fn.Name, Err: err})
	}

	logger.Info("Function package built.", "files", len(entries), "bytes", size)
	return Result{
		Unit:     fn.Name,
		Kind:     unit.KindFunction,
		Status:   StatusSuccess,
		Files:    len(entries),
		Bytes:    size,
		Artifact: dest,
	}
}
