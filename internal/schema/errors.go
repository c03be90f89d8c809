package schema

import (
	"fmt"
	"strings"
)

// ImportNotFoundError reports an import directive whose target does not
// exist. It carries the importing file and the raw reference text so the
// user can fix the source without re-running at debug verbosity.
type ImportNotFoundError struct {
	ImportingFile string
	Reference     string
	Resolved      string
}

func (e *ImportNotFoundError) Error() string {
	return fmt.Sprintf("import %q in %s not found (resolved to %s)",
		e.Reference, e.ImportingFile, e.Resolved)
}

// CircularImportError reports a fragment reached while already on the
// active resolution stack. Cycle holds the full chain, ending with the
// repeated fragment.
type CircularImportError struct {
	Cycle []string
}

func (e *CircularImportError) Error() string {
	return fmt.Sprintf("circular import: %s", strings.Join(e.Cycle, " -> "))
}

// ValidationError wraps a failed validation report for a merged document.
type ValidationError struct {
	EntryPoint string
	Report     *Report
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Report.Problems))
	for _, p := range e.Report.Problems {
		msgs = append(msgs, p.String())
	}
	return fmt.Sprintf("schema %s failed validation: %s", e.EntryPoint, strings.Join(msgs, "; "))
}
