package schema

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/fsutil"
)

// MergedDocument is the fully resolved, import-free schema text for one
// entry point. Every fragment reached appears exactly once, each preceded
// by a header comment naming its source, with the entry point's own body
// always last.
type MergedDocument struct {
	EntryPoint string
	Text       string
	// Fragments counts the distinct files merged, entry point included.
	Fragments int
}

// PathResolver maps an import reference plus the importing file's location
// to a canonical fragment path. References starting with "./" or "../"
// resolve against the importing file's directory; everything else resolves
// against the schema root.
type PathResolver struct {
	SchemaRoot string
}

// Resolve returns the canonical path for reference, or an
// ImportNotFoundError if no file exists there.
func (r *PathResolver) Resolve(reference string, importingFile string) (string, error) {
	var target string
	if strings.HasPrefix(reference, "./") || strings.HasPrefix(reference, "../") {
		target = filepath.Join(filepath.Dir(importingFile), reference)
	} else {
		target = filepath.Join(r.SchemaRoot, reference)
	}

	canonical, err := Canonical(target)
	if err != nil {
		return "", err
	}
	if !fsutil.FileExists(canonical) {
		return "", &ImportNotFoundError{
			ImportingFile: importingFile,
			Reference:     reference,
			Resolved:      canonical,
		}
	}
	return canonical, nil
}

// Resolver merges an entry-point fragment and all of its transitive imports
// into one document, depth first. Each import's merged text is appended
// before the importing file's own body, so referenced types always precede
// their use in the output.
type Resolver struct {
	loader *Loader
	paths  *PathResolver
}

// NewResolver returns a Resolver rooted at schemaRoot, sharing the given
// loader's fragment cache.
func NewResolver(loader *Loader, schemaRoot string) *Resolver {
	return &Resolver{
		loader: loader,
		paths:  &PathResolver{SchemaRoot: schemaRoot},
	}
}

// resolution holds the walk state for a single entry point. It is created
// per Resolve call and never shared, so concurrent unit builds cannot
// observe each other's stacks.
type resolution struct {
	// stack is the chain of fragments currently being expanded, in order.
	stack []string
	// onStack indexes stack membership for O(1) cycle checks.
	onStack map[string]bool
	// merged records fragments whose body is already in the output.
	merged map[string]bool
	out    strings.Builder
	count  int
}

// Resolve produces the merged document for entryPoint. It fails with a
// CircularImportError or ImportNotFoundError, leaving no partial output.
func (r *Resolver) Resolve(ctx context.Context, entryPoint string) (*MergedDocument, error) {
	canonical, err := Canonical(entryPoint)
	if err != nil {
		return nil, err
	}

	state := &resolution{
		onStack: make(map[string]bool),
		merged:  make(map[string]bool),
	}
	if err := r.visit(ctx, canonical, state); err != nil {
		return nil, err
	}

	return &MergedDocument{
		EntryPoint: canonical,
		Text:       state.out.String(),
		Fragments:  state.count,
	}, nil
}

func (r *Resolver) visit(ctx context.Context, path string, state *resolution) error {
	// The on-stack check must run before the merged check: an entry point
	// re-reached through its own imports is a cycle, not a duplicate.
	if state.onStack[path] {
		return &CircularImportError{Cycle: r.cycleChain(state.stack, path)}
	}
	if state.merged[path] {
		// Already included via another import path. Not an error; many
		// fragments may legitimately share a common dependency.
		return nil
	}

	frag, err := r.loader.Load(path)
	if err != nil {
		return err
	}

	state.stack = append(state.stack, path)
	state.onStack[path] = true

	for _, imp := range frag.Imports {
		target, err := r.paths.Resolve(imp.Reference, path)
		if err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Resolved import.",
			"from", r.displayPath(path), "reference", imp.Reference, "target", r.displayPath(target))
		if err := r.visit(ctx, target, state); err != nil {
			return err
		}
	}

	r.appendFragment(state, frag)
	state.merged[path] = true
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.onStack, path)

	return nil
}

// appendFragment writes the fragment's header comment and body to the
// output buffer.
func (r *Resolver) appendFragment(state *resolution, frag *Fragment) {
	fmt.Fprintf(&state.out, "# Imported from %s\n", r.displayPath(frag.Path))
	state.out.WriteString(frag.Body)
	state.out.WriteString("\n\n")
	state.count++
}

// cycleChain returns the active stack from the first occurrence of repeated
// onward, with repeated appended again to close the loop.
func (r *Resolver) cycleChain(stack []string, repeated string) []string {
	start := 0
	for i, p := range stack {
		if p == repeated {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(stack)-start+1)
	for _, p := range stack[start:] {
		chain = append(chain, r.displayPath(p))
	}
	return append(chain, r.displayPath(repeated))
}

// displayPath renders a canonical path relative to the schema root for
// headers and error messages.
func (r *Resolver) displayPath(path string) string {
	rel, err := filepath.Rel(r.paths.SchemaRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
