package builder

import (
	"context"
	"path/filepath"

	"github.com/vk/stackforge/internal/archive"
	"github.com/vk/stackforge/internal/ctxlog"
	"github.com/vk/stackforge/internal/schema"
	"github.com/vk/stackforge/internal/unit"
)

// SchemaBuilder resolves one entry point's import graph into a merged
// document, validates it, and writes the result as a plain-text artifact.
type SchemaBuilder struct {
	DestDir  string
	Resolver *schema.Resolver
}

// Build resolves, validates, and writes the merged document for s.
func (b *SchemaBuilder) Build(ctx context.Context, s *unit.Schema) Result {
	logger := ctxlog.FromContext(ctx).With("schema", s.Name)
	logger.Info("Building schema.")

	doc, err := b.Resolver.Resolve(ctx, s.EntryPoint)
	if err != nil {
		return failed(s, err)
	}

	report := schema.Validate(doc)
	for _, warning := range report.Warnings {
		logger.Warn(warning)
	}
	if !report.Valid() {
		return failed(s, &schema.ValidationError{EntryPoint: s.EntryPoint, Report: report})
	}

	dest := filepath.Join(b.DestDir, s.Name+".graphql")
	if err := archive.WriteFileAtomic(dest, []byte(doc.Text)); err != nil {
		return failed(s, &PackagingError{Unit: s.Name, Err: err})
	}

	logger.Info("Schema built.", "fragments", doc.Fragments, "bytes", len(doc.Text))
	return Result{
		Unit:     s.Name,
		Kind:     unit.KindSchema,
		Status:   StatusSuccess,
		Files:    doc.Fragments,
		Bytes:    int64(len(doc.Text)),
		Artifact: dest,
	}
}
