package graph

import (
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/go-openapi/inflect"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/schema"
)

// Field-diff trigger sets per output family. A change whose field diff
// touches any listed field invalidates the corresponding outputs.
var (
	migrationFields = map[string]bool{
		"columns":       true,
		"tableName":     true,
		"dbConstraints": true,
	}
	componentFields = map[string]bool{
		"generateForm":  true,
		"generateTable": true,
		"columns":       true,
		"ui":            true,
		"displayName":   true,
		"tableName":     true,
	}
	apiFields = map[string]bool{
		"generateApi": true,
		"columns":     true,
		"validation":  true,
	}
	pageFields = map[string]bool{
		"generatePages": true,
		"generateForm":  true,
		"generateTable": true,
		"displayName":   true,
	}
	navigationFields = map[string]bool{
		"navigation": true,
		"name":       true,
	}
	authFields = map[string]bool{
		"auth":  true,
		"email": true,
	}
)

// Graph resolves schema changes to affected output files and keeps an
// optional ad-hoc dependency edge store. The zero value is not usable;
// use New.
type Graph struct {
	mu sync.RWMutex
	// dependents[to] is the set of files that depend on to.
	dependents map[string]map[string]bool
	// dependencies[from] is the set of files from depends on.
	dependencies map[string]map[string]bool

	// now supplies the date used in migration file names.
	now func() time.Time
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		dependents:   make(map[string]map[string]bool),
		dependencies: make(map[string]map[string]bool),
		now:          time.Now,
	}
}

// WithClock overrides the clock used for migration file names.
// Intended for deterministic output in tests and reproducible builds.
func (g *Graph) WithClock(now func() time.Time) *Graph {
	if now != nil {
		g.now = now
	}
	return g
}

// AddDependency records that from depends on to.
func (g *Graph) AddDependency(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dependencies[from] == nil {
		g.dependencies[from] = make(map[string]bool)
	}
	g.dependencies[from][to] = true
	if g.dependents[to] == nil {
		g.dependents[to] = make(map[string]bool)
	}
	g.dependents[to][from] = true
}

// Dependents returns the files recorded as depending on file, sorted.
func (g *Graph) Dependents(file string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.dependents[file]))
	for from := range g.dependents[file] {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

// RemoveFile drops all edges touching file, in both directions.
func (g *Graph) RemoveFile(file string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for to := range g.dependencies[file] {
		delete(g.dependents[to], file)
	}
	delete(g.dependencies, file)
	for from := range g.dependents[file] {
		delete(g.dependencies[from], file)
	}
	delete(g.dependents, file)
}

// AffectedFiles resolves the given changes to output files using the
// static mapping. Results preserve first-seen path order; records for a
// shared path are merged.
func (g *Graph) AffectedFiles(changes []*schemaforge.Change) []*schemaforge.AffectedFile {
	acc := newAccumulator()
	for _, c := range changes {
		switch c.Kind {
		case schema.KindEntity:
			g.entityFiles(acc, c)
		case schema.KindEnum:
			g.enumFiles(acc, c)
		case schema.KindPage:
			g.pageFiles(acc, c)
		case schema.KindApp:
			g.appFiles(acc, c)
		}
	}
	return acc.files
}

// AffectedFiles resolves changes with a fresh default Graph. Convenience
// for callers that do not need the edge store or a fixed clock.
func AffectedFiles(changes []*schemaforge.Change) []*schemaforge.AffectedFile {
	return New().AffectedFiles(changes)
}

// entityFiles maps one entity change to its outputs. The model file is
// always affected. A missing field diff (creation, deletion, raw watcher
// record) conservatively assumes UI, API, and page regeneration.
func (g *Graph) entityFiles(acc *accumulator, c *schemaforge.Change) {
	name := c.Name
	pascal := inflect.Camelize(name)
	source := schema.SourcePath(schema.KindEntity, name)
	reason := changeReason(c)

	acc.add(path.Join("models", name+".ts"), "models", reason, source)

	if touches(c, migrationFields) {
		migration := fmt.Sprintf("migrations/%s_%s.sql", g.now().Format("20060102"), name)
		acc.add(migration, "models", reason+" (storage)", source)
	}
	if c.FieldChanges == nil || touches(c, componentFields) {
		for _, suffix := range []string{"Form", "Table", "Modal"} {
			acc.add(path.Join("components", pascal+suffix+".tsx"), "components", reason, source)
		}
	}
	if c.FieldChanges == nil || touches(c, apiFields) {
		acc.add(path.Join("app", "api", name, "route.ts"), "api", reason, source)
	}
	if c.FieldChanges == nil || touches(c, pageFields) {
		for _, p := range []string{
			path.Join("app", name, "page.tsx"),
			path.Join("app", name, "create", "page.tsx"),
			path.Join("app", name, "[id]", "page.tsx"),
			path.Join("app", name, "[id]", "edit", "page.tsx"),
		} {
			acc.add(p, "pages", reason, source)
		}
	}
}

// enumFiles maps one enum change to its model file and the shared enum
// index. Enums are assumed to be referenced widely, so the index is
// always flagged.
func (g *Graph) enumFiles(acc *accumulator, c *schemaforge.Change) {
	source := schema.SourcePath(schema.KindEnum, c.Name)
	reason := changeReason(c)
	acc.add(path.Join("models", "enums", c.Name+".ts"), "models", reason, source)
	acc.add(path.Join("models", "enums", "index.ts"), "models", reason, source)
}

// pageFiles maps one page change to its single page file.
func (g *Graph) pageFiles(acc *accumulator, c *schemaforge.Change) {
	source := schema.SourcePath(schema.KindPage, c.Name)
	acc.add(path.Join("app", c.Name, "page.tsx"), "pages", changeReason(c), source)
}

// appFiles maps the app change to the root layout, and conditionally to
// the navigation component and the auth route.
func (g *Graph) appFiles(acc *accumulator, c *schemaforge.Change) {
	source := schema.SourcePath(schema.KindApp, c.Name)
	reason := changeReason(c)
	acc.add(path.Join("app", "layout.tsx"), "pages", reason, source)
	if touches(c, navigationFields) {
		acc.add(path.Join("components", "Navigation.tsx"), "components", reason, source)
	}
	if touches(c, authFields) {
		acc.add(path.Join("app", "api", "auth", "route.ts"), "api", reason, source)
	}
}

// touches reports whether any field change names a field in the set.
func touches(c *schemaforge.Change, fields map[string]bool) bool {
	for _, fc := range c.FieldChanges {
		if fields[fc.Field] {
			return true
		}
	}
	return false
}

// changeReason renders a one-line reason for a change.
func changeReason(c *schemaforge.Change) string {
	return fmt.Sprintf("%s %s %s", c.Kind, c.Name, c.Type)
}

// accumulator merges per-change contributions into AffectedFile records,
// preserving first-seen path order.
type accumulator struct {
	files []*schemaforge.AffectedFile
	index map[string]*schemaforge.AffectedFile
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]*schemaforge.AffectedFile)}
}

// add appends a reason and unions the dependency into the record for
// path, creating it on first sight.
func (a *accumulator) add(p, generator, reason, dependency string) {
	f, ok := a.index[p]
	if !ok {
		f = &schemaforge.AffectedFile{Path: p, Generator: generator}
		a.index[p] = f
		a.files = append(a.files, f)
	}
	f.Reasons = append(f.Reasons, reason)
	for _, d := range f.Dependencies {
		if d == dependency {
			return
		}
	}
	f.Dependencies = append(f.Dependencies, dependency)
}
