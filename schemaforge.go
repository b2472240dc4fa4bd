// Package schemaforge is a schema-driven generation engine. It loads a
// declarative description of an application's data model (entities, enums,
// pages, app metadata) and transforms it into files on disk via pluggable
// generators. Around the one-shot generation path sits an incremental
// subsystem that watches schema files, diffs the previous schema state
// against the current one, and reports exactly which generated files went
// stale.
//
// The root package holds the contracts shared by the engine and its
// collaborators. The engine itself lives in the subpackages:
//
//   - [schema]: immutable value types for the schema model
//   - [compiler/load]: reads a schema directory into a schema.Set
//   - [compiler/gen]: generator registry and execution pipeline
//   - [compiler/diff]: structural differ for two schema sets
//   - [graph]: maps schema changes to affected output files
//   - [watch]: debounced filesystem watcher emitting diff-enriched changes
package schemaforge

import (
	"context"

	"github.com/syssam/schemaforge/schema"
)

// GeneratedFile is a single output produced by a generator.
// Path is relative to the configured output directory.
type GeneratedFile struct {
	Path    string
	Content string
}

// Context carries the inputs every generator receives. All generators in
// one pipeline run receive an identical context.
type Context struct {
	// Set is the validated schema set being generated from.
	Set *schema.Set

	// OutputDir is the directory generated files are written under.
	OutputDir string

	// SchemaDir is the directory the schema set was loaded from.
	SchemaDir string

	// Config is an opaque, generator-defined configuration value.
	Config map[string]any
}

// Generator is a pluggable unit that turns a schema set into output files
// for one concern (models, components, pages, API). Implementations should
// be safe for concurrent use: the pipeline may run generators in parallel.
type Generator interface {
	// Name identifies the generator. Names are unique within a registry.
	Name() string

	// Supports reports whether the generator consumes schemas of the
	// given kind. A generator runs only when the set contains at least
	// one non-empty supported kind.
	Supports(kind schema.Kind) bool

	// Generate produces the output files for the given context.
	Generate(ctx context.Context, gctx *Context) ([]GeneratedFile, error)
}

// ValidationIssue describes a single problem found by a Validator.
type ValidationIssue struct {
	Message string
	Path    string // offending file path
	Line    int    // 1-based line, 0 when unknown
}

// Validator checks schema documents before they enter the engine.
// The loader invokes it when configured; the differ and pipeline assume
// any set handed to them has already passed validation.
type Validator interface {
	// ValidateFile checks a single raw schema document.
	ValidateFile(kind schema.Kind, raw []byte, path string) []ValidationIssue

	// ValidateSet checks cross-references over a complete set.
	ValidateSet(set *schema.Set) []ValidationIssue
}

// Renderer compiles and renders a template against data. Concrete
// generators consume it; the engine itself never renders templates.
type Renderer interface {
	Render(template string, data any) (string, error)
}

// SnapshotStore persists the watcher's last known good schema set across
// restarts. Implementations decide the encoding and location.
type SnapshotStore interface {
	// Load returns the persisted set, or (nil, nil) when none exists.
	Load() (*schema.Set, error)

	// Save replaces the persisted set.
	Save(set *schema.Set) error
}
