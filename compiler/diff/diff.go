// Package diff computes structural differences between two schema sets.
//
// Compare classifies every entity, enum, and page as created, updated, or
// deleted, attaches a top-level field diff to updates, flags breaking
// changes, and reports which generators and output files are affected.
// The comparison operates on the raw schema documents so that fields the
// typed model does not know about still participate in change detection.
package diff

import (
	"fmt"
	"sort"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/graph"
	"github.com/syssam/schemaforge/schema"
)

// Result is the outcome of comparing two schema sets.
type Result struct {
	// Changes lists all detected changes: entities first, then enums,
	// then pages, then at most one app change.
	Changes []*schemaforge.Change

	// HasBreakingChanges reports whether any change is classified as
	// breaking. The classification is a conservative, enumerable rule
	// (entity/enum deletion, or removal of a core structural field),
	// not a semantic analysis.
	HasBreakingChanges bool

	// AffectedGenerators lists the generators implied by the changes,
	// deduplicated, in first-seen order.
	AffectedGenerators []string

	// AffectedFiles lists the output files implied by the changes.
	AffectedFiles []*schemaforge.AffectedFile
}

// Empty reports whether the comparison found no changes.
func (r *Result) Empty() bool {
	return r == nil || len(r.Changes) == 0
}

// Fields whose removal from a schema document marks a change as breaking.
var breakingFields = map[string]bool{
	"columns":   true,
	"values":    true,
	"tableName": true,
}

// Entity flag fields that additionally pull in the "pages" generator.
var pageFlagFields = map[string]bool{
	"generateForm":  true,
	"generateTable": true,
	"generatePages": true,
}

// Compare computes the structural diff between an old and a new schema
// set. Both arguments may be nil; a nil set compares as empty.
func Compare(old, new *schema.Set) *Result {
	r := &Result{}
	r.Changes = append(r.Changes, compareEntities(old, new)...)
	r.Changes = append(r.Changes, compareEnums(old, new)...)
	r.Changes = append(r.Changes, comparePages(old, new)...)
	if c := compareApp(old, new); c != nil {
		r.Changes = append(r.Changes, c)
	}
	r.HasBreakingChanges = hasBreaking(r.Changes)
	r.AffectedGenerators = affectedGenerators(r.Changes)
	r.AffectedFiles = graph.AffectedFiles(r.Changes)
	return r
}

func compareEntities(old, new *schema.Set) []*schemaforge.Change {
	oldDocs := make(map[string]map[string]any)
	newDocs := make(map[string]map[string]any)
	if old != nil {
		for name, e := range old.Entities {
			oldDocs[name] = e.Doc()
		}
	}
	if new != nil {
		for name, e := range new.Entities {
			newDocs[name] = e.Doc()
		}
	}
	return compareDocs(schema.KindEntity, oldDocs, newDocs)
}

func compareEnums(old, new *schema.Set) []*schemaforge.Change {
	oldDocs := make(map[string]map[string]any)
	newDocs := make(map[string]map[string]any)
	if old != nil {
		for name, e := range old.Enums {
			oldDocs[name] = e.Doc()
		}
	}
	if new != nil {
		for name, e := range new.Enums {
			newDocs[name] = e.Doc()
		}
	}
	return compareDocs(schema.KindEnum, oldDocs, newDocs)
}

func comparePages(old, new *schema.Set) []*schemaforge.Change {
	oldDocs := make(map[string]map[string]any)
	newDocs := make(map[string]map[string]any)
	if old != nil {
		for name, p := range old.Pages {
			oldDocs[name] = p.Doc()
		}
	}
	if new != nil {
		for name, p := range new.Pages {
			newDocs[name] = p.Doc()
		}
	}
	return compareDocs(schema.KindPage, oldDocs, newDocs)
}

// compareDocs classifies every name in the union of both collections.
// Names are visited in sorted order for deterministic output.
func compareDocs(kind schema.Kind, old, new map[string]map[string]any) []*schemaforge.Change {
	names := make([]string, 0, len(old)+len(new))
	seen := make(map[string]bool, len(old)+len(new))
	for name := range old {
		names = append(names, name)
		seen[name] = true
	}
	for name := range new {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var changes []*schemaforge.Change
	for _, name := range names {
		oldDoc, inOld := old[name]
		newDoc, inNew := new[name]
		switch {
		case !inOld:
			changes = append(changes, &schemaforge.Change{
				Type:    schemaforge.ChangeCreated,
				Kind:    kind,
				Name:    name,
				Current: newDoc,
			})
		case !inNew:
			changes = append(changes, &schemaforge.Change{
				Type:     schemaforge.ChangeDeleted,
				Kind:     kind,
				Name:     name,
				Previous: oldDoc,
			})
		default:
			if deepEqual(oldDoc, newDoc) {
				continue
			}
			changes = append(changes, &schemaforge.Change{
				Type:         schemaforge.ChangeUpdated,
				Kind:         kind,
				Name:         name,
				Previous:     oldDoc,
				Current:      newDoc,
				FieldChanges: FieldDiff(oldDoc, newDoc),
			})
		}
	}
	return changes
}

// compareApp compares the singleton app schema for deep equality,
// emitting at most one "updated" change.
func compareApp(old, new *schema.Set) *schemaforge.Change {
	var oldDoc, newDoc map[string]any
	var name string
	if old != nil && old.App != nil {
		oldDoc = old.App.Doc()
		name = old.App.Name
	}
	if new != nil && new.App != nil {
		newDoc = new.App.Doc()
		name = new.App.Name
	}
	if deepEqual(any(oldDoc), any(newDoc)) {
		return nil
	}
	return &schemaforge.Change{
		Type:         schemaforge.ChangeUpdated,
		Kind:         schema.KindApp,
		Name:         name,
		Previous:     oldDoc,
		Current:      newDoc,
		FieldChanges: FieldDiff(oldDoc, newDoc),
	}
}

// FieldDiff computes the top-level field diff between two documents.
// The comparison is non-recursive at the classification level: nested
// differences surface as a single "modified" record for the field.
func FieldDiff(old, new map[string]any) []schemaforge.FieldChange {
	fields := make([]string, 0, len(old)+len(new))
	seen := make(map[string]bool, len(old)+len(new))
	for f := range old {
		fields = append(fields, f)
		seen[f] = true
	}
	for f := range new {
		if !seen[f] {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	var changes []schemaforge.FieldChange
	for _, f := range fields {
		oldVal, inOld := old[f]
		newVal, inNew := new[f]
		switch {
		case !inOld:
			changes = append(changes, schemaforge.FieldChange{
				Field:    f,
				Type:     schemaforge.FieldAdded,
				NewValue: newVal,
			})
		case !inNew:
			changes = append(changes, schemaforge.FieldChange{
				Field:    f,
				Type:     schemaforge.FieldRemoved,
				OldValue: oldVal,
			})
		default:
			if deepEqual(oldVal, newVal) {
				continue
			}
			changes = append(changes, schemaforge.FieldChange{
				Field:    f,
				Type:     schemaforge.FieldModified,
				OldValue: oldVal,
				NewValue: newVal,
			})
		}
	}
	return changes
}

// hasBreaking applies the breaking-change rule: any entity or enum
// deletion, or any field diff that removes columns, values, or tableName.
func hasBreaking(changes []*schemaforge.Change) bool {
	for _, c := range changes {
		if c.Type == schemaforge.ChangeDeleted &&
			(c.Kind == schema.KindEntity || c.Kind == schema.KindEnum) {
			return true
		}
		for _, fc := range c.FieldChanges {
			if fc.Type == schemaforge.FieldRemoved && breakingFields[fc.Field] {
				return true
			}
		}
	}
	return false
}

// affectedGenerators maps changes to generator names. The mapping is
// static and reproduced exactly for compatibility with existing callers.
func affectedGenerators(changes []*schemaforge.Change) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(gens ...string) {
		for _, g := range gens {
			if !seen[g] {
				seen[g] = true
				names = append(names, g)
			}
		}
	}
	for _, c := range changes {
		switch c.Kind {
		case schema.KindEntity:
			add("models", "components", "api")
			for _, fc := range c.FieldChanges {
				if pageFlagFields[fc.Field] {
					add("pages")
					break
				}
			}
		case schema.KindEnum:
			add("models")
		case schema.KindPage:
			add("pages")
		case schema.KindApp:
			add("pages", "api")
		}
	}
	return names
}

// Describe returns a one-line human-readable summary of a change.
func Describe(c *schemaforge.Change) string {
	return fmt.Sprintf("%s %s %s", c.Kind, c.Name, c.Type)
}
