// Package unit defines the closed set of buildable things a project can
// contain and the Discoverer that enumerates them from the source tree.
package unit

// Kind tags the build unit variants.
type Kind int

const (
	KindFunction Kind = iota
	KindLayer
	KindSchema
)

// String returns the human-readable kind name used in logs and summaries.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindLayer:
		return "layer"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// Unit is one independently buildable thing. Exactly three variants exist:
// Function, Layer, and Schema.
type Unit interface {
	// UnitName identifies the unit within its kind.
	UnitName() string
	// UnitKind tags the variant.
	UnitKind() Kind
}

// Function is one Lambda handler packaged together with the shared modules
// its code imports at runtime.
type Function struct {
	Name string
	// HandlerPath is the absolute path of the handler source file.
	HandlerPath string
	// SharedDirs holds the absolute source directories bundled into the
	// archive at their src-relative paths.
	SharedDirs []string
	// SrcDir anchors the archive-internal layout of SharedDirs.
	SrcDir string
}

func (f *Function) UnitName() string { return f.Name }
func (f *Function) UnitKind() Kind   { return KindFunction }

// Layer is one declared shared-module bundle, packaged under the reserved
// prefix directory its consumers expect.
type Layer struct {
	Name        string
	Prefix      string
	IncludeDirs []string
}

func (l *Layer) UnitName() string { return l.Name }
func (l *Layer) UnitKind() Kind   { return KindLayer }

// Schema is one entry-point fragment whose transitive imports are merged
// into a single deployable document.
type Schema struct {
	Name       string
	EntryPoint string
}

func (s *Schema) UnitName() string { return s.Name }
func (s *Schema) UnitKind() Kind   { return KindSchema }
