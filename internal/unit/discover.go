package unit

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/fsutil"
	"github.com/vk/stackforge/internal/manifest"
)

// Discoverer enumerates buildable units from the project layout. Discovery
// is pure listing: nothing is read beyond names and existence, and an empty
// result for any kind is not an error.
type Discoverer struct {
	man *manifest.Manifest
}

// NewDiscoverer returns a Discoverer over the given manifest.
func NewDiscoverer(man *manifest.Manifest) *Discoverer {
	return &Discoverer{man: man}
}

// Functions returns one unit per handler file matching the handler glob
// directly under the handlers directory. Names starting with '_' or '.'
// are skipped. Each handler is paired with the full set of configured
// shared-module directories that exist in the source tree.
func (d *Discoverer) Functions(ctx context.Context) ([]*Function, error) {
	logger := ctxlog.FromContext(ctx)

	if !fsutil.DirExists(d.man.HandlersDir) {
		logger.Warn("Handlers directory not found.", "path", d.man.HandlersDir)
		return nil, nil
	}

	files, err := fsutil.GlobDir(d.man.HandlersDir, d.man.HandlerGlob)
	if err != nil {
		return nil, err
	}

	var sharedDirs []string
	for _, inc := range d.man.FunctionInclude {
		dir := filepath.Join(d.man.SrcDir, inc)
		if fsutil.DirExists(dir) {
			sharedDirs = append(sharedDirs, dir)
		}
	}

	var units []*Function
	for _, file := range files {
		base := filepath.Base(file)
		if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
			continue
		}
		name := strings.TrimSuffix(base, filepath.Ext(base))
		units = append(units, &Function{
			Name:        name,
			HandlerPath: file,
			SharedDirs:  sharedDirs,
			SrcDir:      d.man.SrcDir,
		})
	}
	sortByName(units, func(f *Function) string { return f.Name })

	return units, nil
}

// Layers returns one unit per layer block declared in the manifest.
// Existence of the include directories is checked at build time so that a
// misdeclared layer fails alone instead of aborting discovery.
func (d *Discoverer) Layers(ctx context.Context) ([]*Layer, error) {
	var units []*Layer
	for _, l := range d.man.Layers {
		units = append(units, &Layer{
			Name:        l.Name,
			Prefix:      l.Prefix,
			IncludeDirs: l.Include,
		})
	}
	sortByName(units, func(l *Layer) string { return l.Name })
	return units, nil
}

// Schemas returns one unit per .graphql file directly under the apps
// directory. Fragments elsewhere under the schema root are reachable only
// through imports.
func (d *Discoverer) Schemas(ctx context.Context) ([]*Schema, error) {
	logger := ctxlog.FromContext(ctx)

	if !fsutil.DirExists(d.man.AppsDir) {
		logger.Warn("Schema apps directory not found.", "path", d.man.AppsDir)
		return nil, nil
	}

	files, err := fsutil.GlobDir(d.man.AppsDir, "*.graphql")
	if err != nil {
		return nil, err
	}

	var units []*Schema
	for _, file := range files {
		base := filepath.Base(file)
		units = append(units, &Schema{
			Name:       strings.TrimSuffix(base, filepath.Ext(base)),
			EntryPoint: file,
		})
	}
	sortByName(units, func(s *Schema) string { return s.Name })

	return units, nil
}

// sortByName orders units deterministically so phase output and summaries
// are stable between runs.
func sortByName[T any](units []T, name func(T) string) {
	sort.Slice(units, func(i, j int) bool { return name(units[i]) < name(units[j]) })
}
