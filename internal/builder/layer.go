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

// LayerBuilder packages declared shared-module bundles. Layer consumers
// expect the modules under a fixed top-level directory (the layer prefix),
// so every bundled directory is nested as <prefix>/<dir name>/... inside
// the archive.
type LayerBuilder struct {
	DestDir string
}

// Build assembles the archive for l into DestDir.
func (b *LayerBuilder) Build(ctx context.Context, l *unit.Layer) Result {
	logger := ctxlog.FromContext(ctx).With("layer", l.Name)
	logger.Info("Building layer package.")

	var entries []archive.Entry
	for _, dir := range l.IncludeDirs {
		if !fsutil.DirExists(dir) {
			return failed(l, &PackagingError{Unit: l.Name,
				Err: fmt.Errorf("layer source not found: %s", dir)})
		}
		prefix := filepath.Join(l.Prefix, filepath.Base(dir))
		dirEntries, err := archive.CollectDir(dir, prefix)
		if err != nil {
			return failed(l, &PackagingError{Unit: l.Name, Err: err})
		}
		entries = append(entries, dirEntries...)
	}

	dest := filepath.Join(b.DestDir, l.Name+".zip")
	size, err := archive.WriteZip(dest, entries)
	if err != nil {
		return failed(l, &PackagingError{Unit: l.Name, Err: err})
	}

	logger.Info("Layer package built.", "files", len(entries), "bytes", size)
	return Result{
		Unit:     l.Name,
		Kind:     unit.KindLayer,
		Status:   StatusSuccess,
		Files:    len(entries),
		Bytes:    size,
		Artifact: dest,
	}
}
