// Package manifest loads the stackforge.hcl build manifest and resolves it
// into the absolute directory layout the rest of the build operates on.
//
// The manifest is optional: a project with the conventional layout needs no
// file at all. When present it can relocate source and build directories,
// declare shared-module layers, and tune discovery conventions:
//
//	paths {
//	  src         = "src"
//	  build       = "build"
//	  handlers    = "src/handlers"
//	  schema_root = "src/api/graphql"
//	}
//
//	functions {
//	  handler_glob = "*_handler.py"
//	  include      = ["application", "domain", "orm"]
//	}
//
//	layer "adapters" {
//	  include = ["adapters"]
//	}
//
// Manifest expressions can reference the project through the `project`
// variable, e.g. `src = "${project.root}/backend/src"`.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/fsutil"
)

// DefaultFileName is the manifest looked up under the project root when no
// explicit path is given.
const DefaultFileName = "stackforge.hcl"

// Defaults matching the conventional project layout.
const (
	defaultSrc         = "src"
	defaultBuild       = "build"
	defaultHandlers    = "src/handlers"
	defaultSchemaRoot  = "src/api/graphql"
	defaultAppsDir     = "apps"
	defaultHandlerGlob = "*_handler.py"
	defaultLayerPrefix = "python"
	lambdasSubdir      = "lambdas"
	layersSubdir       = "layers"
	schemaOutputSubdir = "appsync"
)

var defaultFunctionInclude = []string{"application", "domain", "orm"}

// Layer is one declared shared-module grouping, packaged as its own
// artifact.
type Layer struct {
	Name string
	// Include holds the absolute source directories bundled into the layer.
	Include []string
	// Prefix is the reserved top-level directory inside the layer archive
	// under which consumers expect the modules to live.
	Prefix string
}

// Manifest is the fully resolved project layout. All paths are absolute.
type Manifest struct {
	ProjectRoot string

	SrcDir      string
	HandlersDir string
	SchemaRoot  string
	AppsDir     string

	BuildDir     string
	LambdasDir   string
	LayersDir    string
	SchemaOutDir string

	HandlerGlob string
	// FunctionInclude lists the src subdirectories that ship inside every
	// function archive (everything else is expected to arrive via layers).
	FunctionInclude []string

	Layers []*Layer

	// ExtraClean lists additional absolute paths removed during the clean
	// phase alongside the build directory.
	ExtraClean []string
}

// hclManifest mirrors the top-level structure of a manifest file for
// decoding.
type hclManifest struct {
	Paths     *hclPaths     `hcl:"paths,block"`
	Functions *hclFunctions `hcl:"functions,block"`
	Layers    []*hclLayer   `hcl:"layer,block"`
	Clean     *hclClean     `hcl:"clean,block"`
}

type hclPaths struct {
	Src        *string `hcl:"src,optional"`
	Build      *string `hcl:"build,optional"`
	Handlers   *string `hcl:"handlers,optional"`
	SchemaRoot *string `hcl:"schema_root,optional"`
	Apps       *string `hcl:"apps,optional"`
}

type hclFunctions struct {
	HandlerGlob *string  `hcl:"handler_glob,optional"`
	Include     []string `hcl:"include,optional"`
}

type hclLayer struct {
	Name    string   `hcl:"name,label"`
	Include []string `hcl:"include"`
	Prefix  *string  `hcl:"prefix,optional"`
}

type hclClean struct {
	Extra []string `hcl:"extra,optional"`
}

// Load resolves the manifest for the given project root. manifestPath may
// be empty, in which case DefaultFileName under the root is used if it
// exists; a missing default manifest yields the conventional layout.
func Load(ctx context.Context, projectRoot string, manifestPath string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %s: %w", projectRoot, err)
	}

	var parsed hclManifest
	switch {
	case manifestPath != "":
		if err := decodeFile(root, manifestPath, &parsed); err != nil {
			return nil, err
		}
	case fsutil.FileExists(filepath.Join(root, DefaultFileName)):
		if err := decodeFile(root, filepath.Join(root, DefaultFileName), &parsed); err != nil {
			return nil, err
		}
	default:
		logger.Debug("No manifest found, using conventional layout.", "root", root)
	}

	return resolve(root, &parsed), nil
}

// decodeFile parses one HCL manifest file into out, evaluating expressions
// against the project variables.
func decodeFile(root string, path string, out *hclManifest) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"project": cty.ObjectVal(map[string]cty.Value{
				"root": cty.StringVal(root),
			}),
		},
	}
	if diags := gohcl.DecodeBody(file.Body, evalCtx, out); diags.HasErrors() {
		return fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}
	return nil
}

// resolve applies defaults and normalizes every configured path to an
// absolute form rooted at the project root.
func resolve(root string, parsed *hclManifest) *Manifest {
	m := &Manifest{
		ProjectRoot:     root,
		SrcDir:          abs(root, defaultSrc),
		HandlersDir:     abs(root, defaultHandlers),
		SchemaRoot:      abs(root, defaultSchemaRoot),
		BuildDir:        abs(root, defaultBuild),
		HandlerGlob:     defaultHandlerGlob,
		FunctionInclude: append([]string(nil), defaultFunctionInclude...),
	}
	appsDir := defaultAppsDir

	if p := parsed.Paths; p != nil {
		if p.Src != nil {
			m.SrcDir = abs(root, *p.Src)
		}
		if p.Build != nil {
			m.BuildDir = abs(root, *p.Build)
		}
		if p.Handlers != nil {
			m.HandlersDir = abs(root, *p.Handlers)
		}
		if p.SchemaRoot != nil {
			m.SchemaRoot = abs(root, *p.SchemaRoot)
		}
		if p.Apps != nil {
			appsDir = *p.Apps
		}
	}
	m.AppsDir = abs(m.SchemaRoot, appsDir)
	m.LambdasDir = filepath.Join(m.BuildDir, lambdasSubdir)
	m.LayersDir = filepath.Join(m.BuildDir, layersSubdir)
	m.SchemaOutDir = filepath.Join(m.BuildDir, schemaOutputSubdir)

	if f := parsed.Functions; f != nil {
		if f.HandlerGlob != nil {
			m.HandlerGlob = *f.HandlerGlob
		}
		if f.Include != nil {
			m.FunctionInclude = f.Include
		}
	}

	for _, l := range parsed.Layers {
		layer := &Layer{Name: l.Name, Prefix: defaultLayerPrefix}
		if l.Prefix != nil {
			layer.Prefix = *l.Prefix
		}
		for _, inc := range l.Include {
			layer.Include = append(layer.Include, abs(m.SrcDir, inc))
		}
		m.Layers = append(m.Layers, layer)
	}

	if parsed.Clean != nil {
		for _, extra := range parsed.Clean.Extra {
			m.ExtraClean = append(m.ExtraClean, abs(root, extra))
		}
	}

	return m
}

// Validate checks that the source side of the project layout exists. The
// build side is created later during the prepare phase.
func (m *Manifest) Validate() error {
	required := map[string]string{
		"src":         m.SrcDir,
		"handlers":    m.HandlersDir,
		"schema root": m.SchemaRoot,
	}
	for name, dir := range required {
		if !fsutil.DirExists(dir) {
			return fmt.Errorf("invalid project structure: %s directory %s does not exist", name, dir)
		}
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a directory containing
// the default manifest file. It falls back to startDir when none is found.
func FindProjectRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}
	for {
		if fsutil.FileExists(filepath.Join(dir, DefaultFileName)) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

func abs(base string, path string) string {
	path = os.ExpandEnv(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
