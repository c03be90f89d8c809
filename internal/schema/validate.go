package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Problem is one structural defect found in a merged document.
type Problem struct {
	Kind    string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Kind, p.Message)
}

const (
	// ProblemBraceImbalance marks unbalanced curly braces.
	ProblemBraceImbalance = "brace-imbalance"
	// ProblemDuplicateDefinition marks a top-level name defined twice.
	ProblemDuplicateDefinition = "duplicate-definition"
)

// Report is the outcome of validating one merged document. All checks run
// independently, so a document with several defects reports all of them.
type Report struct {
	Problems []Problem
	// Warnings are advisory only and never fail a build.
	Warnings []string
}

// Valid reports whether the document passed every check.
func (r *Report) Valid() bool {
	return len(r.Problems) == 0
}

// definitionPattern matches a top-level declaration keyword followed by its
// name. This is a lexical scan, not a GraphQL grammar; it is all the
// duplicate check needs.
var definitionPattern = regexp.MustCompile(`^(type|input|enum|interface|union|scalar)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// headerPattern matches the source header comment the resolver emits ahead
// of each fragment, used to attribute findings to their original file.
var headerPattern = regexp.MustCompile(`^#\s*Imported from\s+(.+)$`)

// Validate checks a merged document for structural well-formedness. It
// never returns an error; defects are collected into the report.
func Validate(doc *MergedDocument) *Report {
	report := &Report{}
	checkBraceBalance(doc.Text, report)
	checkDefinitions(doc.Text, report)
	return report
}

// checkBraceBalance scans character by character, tracking nesting depth
// outside of comments and string literals. Non-zero depth at end of input
// is reported with the imbalance count.
func checkBraceBalance(text string, report *Report) {
	const (
		stateCode = iota
		stateComment
		stateString
		stateBlockString
	)

	depth := 0
	state := stateCode
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stateCode:
			switch {
			case c == '#':
				state = stateComment
			case strings.HasPrefix(text[i:], `"""`):
				state = stateBlockString
				i += 2
			case c == '"':
				state = stateString
			case c == '{':
				depth++
			case c == '}':
				depth--
			}
		case stateComment:
			if c == '\n' {
				state = stateCode
			}
		case stateString:
			if c == '\\' {
				i++
			} else if c == '"' || c == '\n' {
				state = stateCode
			}
		case stateBlockString:
			if strings.HasPrefix(text[i:], `"""`) {
				state = stateCode
				i += 2
			}
		}
	}

	if depth != 0 {
		noun := "opening"
		if depth < 0 {
			noun = "closing"
			depth = -depth
		}
		report.Problems = append(report.Problems, Problem{
			Kind:    ProblemBraceImbalance,
			Message: fmt.Sprintf("%d unmatched %s brace(s)", depth, noun),
		})
	}
}

// checkDefinitions collects top-level declaration names and reports every
// name defined more than once, citing both source fragments. Source
// attribution comes from the nearest preceding resolver header comment.
// It also raises an advisory warning when the document declares neither a
// Query nor a Mutation type.
func checkDefinitions(text string, report *Report) {
	type definition struct {
		keyword string
		source  string
	}
	seen := make(map[string]definition)

	source := "<unknown>"
	hasQuery := false
	hasMutation := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := headerPattern.FindStringSubmatch(trimmed); m != nil {
			source = m[1]
			continue
		}
		// Extensions add to an existing type and are not redefinitions.
		if strings.HasPrefix(trimmed, "extend ") {
			continue
		}
		m := definitionPattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		keyword, name := m[1], m[2]

		if keyword == "type" && name == "Query" {
			hasQuery = true
		}
		if keyword == "type" && name == "Mutation" {
			hasMutation = true
		}

		if prev, ok := seen[name]; ok {
			report.Problems = append(report.Problems, Problem{
				Kind: ProblemDuplicateDefinition,
				Message: fmt.Sprintf("%s %q defined in %s and again in %s",
					keyword, name, prev.source, source),
			})
			continue
		}
		seen[name] = definition{keyword: keyword, source: source}
	}

	if !hasQuery && !hasMutation {
		report.Warnings = append(report.Warnings, "schema declares no Query or Mutation type")
	}
}
