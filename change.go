package schemaforge

import "github.com/syssam/schemaforge/schema"

// ChangeType classifies what happened to a schema object.
type ChangeType string

// The change classifications.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FieldChangeType classifies what happened to a single top-level field.
type FieldChangeType string

// The field-level change classifications.
const (
	FieldAdded    FieldChangeType = "added"
	FieldRemoved  FieldChangeType = "removed"
	FieldModified FieldChangeType = "modified"
)

// Change records one schema-object change between two schema sets.
// Changes are immutable values: created fresh by each comparison,
// consumed by the dependency graph, and then discarded.
type Change struct {
	// Type is the change classification.
	Type ChangeType

	// Kind is the schema collection the object belongs to.
	Kind schema.Kind

	// Name is the schema object name (entity, enum, or page name;
	// the app name for app changes).
	Name string

	// Previous is the old document. Nil for created objects and for
	// raw filesystem-derived changes.
	Previous map[string]any

	// Current is the new document. Nil for deleted objects and for
	// raw filesystem-derived changes.
	Current map[string]any

	// FieldChanges is the top-level field diff for updated objects.
	// Nil when no diff context exists; consumers treat the absence
	// conservatively.
	FieldChanges []FieldChange
}

// FieldChange records one top-level field difference between the old and
// new document of an updated schema object.
type FieldChange struct {
	Field    string
	Type     FieldChangeType
	OldValue any
	NewValue any
}

// AffectedFile is an output path whose regeneration is implied by one or
// more schema changes.
type AffectedFile struct {
	// Path is the output path, relative to the generation output
	// directory.
	Path string

	// Generator names the generator responsible for the path.
	Generator string

	// Reasons accumulates one human-readable line per contributing
	// change. Reasons are appended, never deduplicated.
	Reasons []string

	// Dependencies is the set of schema source file paths the output
	// depends on, unioned across contributing changes.
	Dependencies []string
}
