// Package schema implements the GraphQL schema fragment pipeline: loading
// fragment files, resolving their cross-file import directives into one
// merged document per entry point, and validating the result.
//
// Fragments reference each other with a line of the exact form:
//
//	import "<path>"
//
// Paths starting with "./" or "../" resolve against the importing file's
// directory; anything else resolves against the schema root. Lines that do
// not match this form exactly are ordinary schema text.
package schema

import (
	"strings"
)

// Fragment is one schema source file, loaded once per canonical path and
// immutable afterwards.
type Fragment struct {
	// Path is the canonical absolute path of the file.
	Path string
	// Imports lists the import directives in file order.
	Imports []Import
	// Body is the file content with import directive lines removed.
	Body string
}

// Import is a single import directive extracted from a fragment.
type Import struct {
	// Reference is the raw path text between the quotes.
	Reference string
	// Line is the 1-based line number of the directive.
	Line int
}

// parseFragment splits raw fragment text into import directives and the
// remaining body. Directive lines are dropped from the body; their merged
// content is prepended ahead of it during resolution instead.
func parseFragment(path string, content string) *Fragment {
	frag := &Fragment{Path: path}

	lines := strings.Split(content, "\n")
	body := make([]string, 0, len(lines))
	for i, line := range lines {
		if ref, ok := parseImportDirective(line); ok {
			frag.Imports = append(frag.Imports, Import{Reference: ref, Line: i + 1})
			continue
		}
		body = append(body, line)
	}
	frag.Body = strings.TrimRight(strings.Join(body, "\n"), "\n")

	return frag
}

// parseImportDirective recognises a line of the exact form `import "<path>"`.
// Any other quoting is not an import and is left as schema text.
func parseImportDirective(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, `import "`) || !strings.HasSuffix(trimmed, `"`) {
		return "", false
	}
	ref := trimmed[len(`import "`) : len(trimmed)-1]
	if ref == "" || strings.Contains(ref, `"`) {
		return "", false
	}
	return ref, true
}
