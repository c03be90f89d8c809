package builder

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stackforge/internal/schema"
	"github.com/vk/stackforge/internal/unit"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestFunctionBuilderLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "handlers", "user_handler.py"), "def handler(): pass\n")
	writeFile(t, filepath.Join(src, "application", "services", "user_service.py"), "svc = 1\n")
	writeFile(t, filepath.Join(src, "domain", "entities", "user.py"), "e = 1\n")

	dest := t.TempDir()
	b := &FunctionBuilder{DestDir: dest}
	result := b.Build(context.Background(), &unit.Function{
		Name:        "user_handler",
		HandlerPath: filepath.Join(src, "handlers", "user_handler.py"),
		SharedDirs: []string{
			filepath.Join(src, "application"),
			filepath.Join(src, "domain"),
		},
		SrcDir: src,
	})

	require.Equal(t, StatusSuccess, result.Status, "build error: %v", result.Err)
	assert.Equal(t, 3, result.Files)
	assert.Positive(t, result.Bytes)

	names := zipNames(t, filepath.Join(dest, "user_handler.zip"))
	assert.ElementsMatch(t, []string{
		"user_handler.py",
		"application/services/user_service.py",
		"domain/entities/user.py",
	}, names, "handler at archive root, shared modules at src-relative paths")
}

func TestFunctionBuilderMissingHandler(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	b := &FunctionBuilder{DestDir: dest}
	result := b.Build(context.Background(), &unit.Function{
		Name:        "ghost_handler",
		HandlerPath: filepath.Join(dest, "nope.py"),
	})

	require.Equal(t, StatusFailed, result.Status)
	var pkgErr *PackagingError
	require.ErrorAs(t, result.Err, &pkgErr)
	assert.Equal(t, "ghost_handler", pkgErr.Unit)

	_, statErr := os.Stat(filepath.Join(dest, "ghost_handler.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLayerBuilderLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	adapters := filepath.Join(root, "src", "adapters")
	writeFile(t, filepath.Join(adapters, "db_session.py"), "s = 1\n")
	writeFile(t, filepath.Join(adapters, "database", "session_factory.py"), "f = 1\n")

	dest := t.TempDir()
	b := &LayerBuilder{DestDir: dest}
	result := b.Build(context.Background(), &unit.Layer{
		Name:        "adapters",
		Prefix:      "python",
		IncludeDirs: []string{adapters},
	})

	require.Equal(t, StatusSuccess, result.Status, "build error: %v", result.Err)

	names := zipNames(t, filepath.Join(dest, "adapters.zip"))
	assert.ElementsMatch(t, []string{
		"python/adapters/db_session.py",
		"python/adapters/database/session_factory.py",
	}, names, "layer content nests under the reserved prefix directory")
}

func TestLayerBuilderMissingSource(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	b := &LayerBuilder{DestDir: dest}
	result := b.Build(context.Background(), &unit.Layer{
		Name:        "utils",
		Prefix:      "python",
		IncludeDirs: []string{filepath.Join(dest, "does-not-exist")},
	})

	require.Equal(t, StatusFailed, result.Status)
	var pkgErr *PackagingError
	require.ErrorAs(t, result.Err, &pkgErr)
}

func TestSchemaBuilderSuccess(t *testing.T) {
	t.Parallel()

	schemaRoot := t.TempDir()
	writeFile(t, filepath.Join(schemaRoot, "apps", "app.graphql"),
		"import \"common/types.graphql\"\ntype Query { id: ID }\n")
	writeFile(t, filepath.Join(schemaRoot, "common", "types.graphql"),
		"type PageInfo { hasMore: Boolean }\n")

	dest := t.TempDir()
	b := &SchemaBuilder{
		DestDir:  dest,
		Resolver: schema.NewResolver(schema.NewLoader(), schemaRoot),
	}
	result := b.Build(context.Background(), &unit.Schema{
		Name:       "app",
		EntryPoint: filepath.Join(schemaRoot, "apps", "app.graphql"),
	})

	require.Equal(t, StatusSuccess, result.Status, "build error: %v", result.Err)
	assert.Equal(t, 2, result.Files)

	content, err := os.ReadFile(filepath.Join(dest, "app.graphql"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Imported from common/types.graphql")
	assert.Contains(t, string(content), "type PageInfo")
	assert.Contains(t, string(content), "type Query")
}

func TestSchemaBuilderMissingImport(t *testing.T) {
	t.Parallel()

	schemaRoot := t.TempDir()
	writeFile(t, filepath.Join(schemaRoot, "apps", "app.graphql"),
		"import \"common/missing.graphql\"\ntype Query { id: ID }\n")

	dest := t.TempDir()
	b := &SchemaBuilder{
		DestDir:  dest,
		Resolver: schema.NewResolver(schema.NewLoader(), schemaRoot),
	}
	result := b.Build(context.Background(), &unit.Schema{
		Name:       "app",
		EntryPoint: filepath.Join(schemaRoot, "apps", "app.graphql"),
	})

	require.Equal(t, StatusFailed, result.Status)
	var notFound *schema.ImportNotFoundError
	require.ErrorAs(t, result.Err, &notFound)
	assert.Equal(t, "common/missing.graphql", notFound.Reference)

	_, statErr := os.Stat(filepath.Join(dest, "app.graphql"))
	assert.True(t, os.IsNotExist(statErr), "failed schema must not emit an artifact")
}

func TestSchemaBuilderValidationFailure(t *testing.T) {
	t.Parallel()

	schemaRoot := t.TempDir()
	writeFile(t, filepath.Join(schemaRoot, "apps", "app.graphql"),
		"import \"common/types.graphql\"\ntype PageInfo { hasMore: Boolean }\ntype Query { id: ID }\n")
	writeFile(t, filepath.Join(schemaRoot, "common", "types.graphql"),
		"type PageInfo { hasMore: Boolean }\n")

	dest := t.TempDir()
	b := &SchemaBuilder{
		DestDir:  dest,
		Resolver: schema.NewResolver(schema.NewLoader(), schemaRoot),
	}
	result := b.Build(context.Background(), &unit.Schema{
		Name:       "app",
		EntryPoint: filepath.Join(schemaRoot, "apps", "app.graphql"),
	})

	require.Equal(t, StatusFailed, result.Status)
	var valErr *schema.ValidationError
	require.ErrorAs(t, result.Err, &valErr)
	require.Len(t, valErr.Report.Problems, 1)
	assert.Equal(t, schema.ProblemDuplicateDefinition, valErr.Report.Problems[0].Kind)
}
