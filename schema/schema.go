package schema

import (
	"encoding/json"
	"fmt"
	"path"
)

// Kind identifies which of the four schema collections an object belongs to.
type Kind string

// The schema kinds, in diff emission order.
const (
	KindEntity Kind = "entity"
	KindEnum   Kind = "enum"
	KindPage   Kind = "page"
	KindApp    Kind = "app"
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEntity, KindEnum, KindPage, KindApp:
		return true
	}
	return false
}

// Section types allowed in a page schema.
const (
	SectionHero    = "hero"
	SectionStats   = "stats"
	SectionTable   = "table"
	SectionContent = "content"
	SectionCustom  = "custom"
)

// Set is the aggregate root of a loaded schema model. Keys are schema
// names; iteration order is not significant.
type Set struct {
	Entities map[string]*Entity
	Enums    map[string]*Enum
	Pages    map[string]*Page
	App      *App
}

// NewSet returns an empty Set with initialized collections.
func NewSet() *Set {
	return &Set{
		Entities: make(map[string]*Entity),
		Enums:    make(map[string]*Enum),
		Pages:    make(map[string]*Page),
	}
}

// Entity returns the entity with the given name, or nil.
func (s *Set) Entity(name string) *Entity {
	if s == nil {
		return nil
	}
	return s.Entities[name]
}

// Enum returns the enum with the given name, or nil.
func (s *Set) Enum(name string) *Enum {
	if s == nil {
		return nil
	}
	return s.Enums[name]
}

// Page returns the page with the given name, or nil.
func (s *Set) Page(name string) *Page {
	if s == nil {
		return nil
	}
	return s.Pages[name]
}

// Counts returns the number of entities, enums, and pages in the set.
func (s *Set) Counts() (entities, enums, pages int) {
	if s == nil {
		return 0, 0, 0
	}
	return len(s.Entities), len(s.Enums), len(s.Pages)
}

// Empty reports whether the set holds no schemas of the given kind.
func (s *Set) Empty(kind Kind) bool {
	if s == nil {
		return true
	}
	switch kind {
	case KindEntity:
		return len(s.Entities) == 0
	case KindEnum:
		return len(s.Enums) == 0
	case KindPage:
		return len(s.Pages) == 0
	case KindApp:
		return s.App == nil
	}
	return true
}

// SourcePath returns the canonical schema-root-relative file path for a
// schema object of the given kind and name (e.g. "entities/users.json").
func SourcePath(kind Kind, name string) string {
	switch kind {
	case KindApp:
		return "app.json"
	case KindEntity:
		return path.Join("entities", name+".json")
	case KindEnum:
		return path.Join("enums", name+".json")
	case KindPage:
		return path.Join("pages", name+".json")
	}
	return name + ".json"
}

// Entity describes one application table and its generation metadata.
type Entity struct {
	Name          string                   `json:"-"`
	TableName     string                   `json:"tableName,omitempty"`
	DisplayName   string                   `json:"displayName,omitempty"`
	GenerateForm  bool                     `json:"generateForm,omitempty"`
	GenerateTable bool                     `json:"generateTable,omitempty"`
	GenerateAPI   bool                     `json:"generateApi,omitempty"`
	GeneratePages bool                     `json:"generatePages,omitempty"`
	Columns       map[string]*Column       `json:"columns,omitempty"`
	Indexes       map[string]*Index        `json:"indexes,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
	DBConstraints map[string]any           `json:"dbConstraints,omitempty"`
	UI            map[string]any           `json:"ui,omitempty"`
	Validation    map[string]any           `json:"validation,omitempty"`

	doc    map[string]any
	source string
}

// Column describes one entity column: its storage constraints plus
// optional validation and UI metadata.
type Column struct {
	Type       string         `json:"type,omitempty"`
	PrimaryKey bool           `json:"primaryKey,omitempty"`
	Nullable   bool           `json:"nullable,omitempty"`
	Unique     bool           `json:"unique,omitempty"`
	Default    any            `json:"default,omitempty"`
	Validation map[string]any `json:"validation,omitempty"`
	UI         map[string]any `json:"ui,omitempty"`
}

// Index describes a named entity index.
type Index struct {
	Columns []string `json:"columns,omitempty"`
	Unique  bool     `json:"unique,omitempty"`
}

// Relationship describes a named relationship to a target table.
type Relationship struct {
	Type   string `json:"type,omitempty"`
	Table  string `json:"table,omitempty"`
	Column string `json:"column,omitempty"`
}

// PrimaryKey returns the name of the column marked as primary key, or ""
// when none is marked. Sets that passed validation carry at most one.
func (e *Entity) PrimaryKey() string {
	for name, c := range e.Columns {
		if c != nil && c.PrimaryKey {
			return name
		}
	}
	return ""
}

// Enum describes a closed set of named values.
type Enum struct {
	Name        string                `json:"-"`
	Description string                `json:"description,omitempty"`
	Values      map[string]*EnumValue `json:"values,omitempty"`

	doc    map[string]any
	source string
}

// EnumValue is the presentation metadata of a single enum value.
type EnumValue struct {
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Page describes a routed page built from ordered sections.
type Page struct {
	Name       string         `json:"-"`
	Route      string         `json:"route,omitempty"`
	Title      string         `json:"title,omitempty"`
	Sections   []*Section     `json:"sections,omitempty"`
	Navigation map[string]any `json:"navigation,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Auth       map[string]any `json:"auth,omitempty"`

	doc    map[string]any
	source string
}

// Section is one block of a page. Required fields depend on Type: table
// sections reference an entity, stats sections carry a stats list, and
// content sections carry body text.
type Section struct {
	Type   string           `json:"type,omitempty"`
	Title  string           `json:"title,omitempty"`
	Entity string           `json:"entity,omitempty"`
	Stats  []map[string]any `json:"stats,omitempty"`
	Body   string           `json:"body,omitempty"`
	Props  map[string]any   `json:"props,omitempty"`
}

// App is the singleton application schema.
type App struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Theme       map[string]any `json:"theme,omitempty"`
	Features    map[string]any `json:"features,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	doc    map[string]any
	source string
}

// Doc returns the raw decoded document the entity was parsed from.
func (e *Entity) Doc() map[string]any { return e.doc }

// Source returns the schema-root-relative path the entity was loaded from.
func (e *Entity) Source() string { return e.source }

// Doc returns the raw decoded document the enum was parsed from.
func (e *Enum) Doc() map[string]any { return e.doc }

// Source returns the schema-root-relative path the enum was loaded from.
func (e *Enum) Source() string { return e.source }

// Doc returns the raw decoded document the page was parsed from.
func (p *Page) Doc() map[string]any { return p.doc }

// Source returns the schema-root-relative path the page was loaded from.
func (p *Page) Source() string { return p.source }

// Doc returns the raw decoded document the app was parsed from.
func (a *App) Doc() map[string]any { return a.doc }

// Source returns the schema-root-relative path the app was loaded from.
func (a *App) Source() string { return a.source }

// parseDoc decodes data into both a typed destination and the raw
// document form used for structural comparison.
func parseDoc(data []byte, dst any) (map[string]any, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseEntity decodes an entity schema document. The name is usually the
// file stem; source is the schema-root-relative path.
func ParseEntity(name string, data []byte, source string) (*Entity, error) {
	e := &Entity{}
	doc, err := parseDoc(data, e)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", name, err)
	}
	e.Name = name
	if e.TableName == "" {
		e.TableName = name
	}
	e.doc = doc
	e.source = source
	return e, nil
}

// ParseEnum decodes an enum schema document.
func ParseEnum(name string, data []byte, source string) (*Enum, error) {
	e := &Enum{}
	doc, err := parseDoc(data, e)
	if err != nil {
		return nil, fmt.Errorf("enum %q: %w", name, err)
	}
	e.Name = name
	e.doc = doc
	e.source = source
	return e, nil
}

// ParsePage decodes a page schema document.
func ParsePage(name string, data []byte, source string) (*Page, error) {
	p := &Page{}
	doc, err := parseDoc(data, p)
	if err != nil {
		return nil, fmt.Errorf("page %q: %w", name, err)
	}
	p.Name = name
	p.doc = doc
	p.source = source
	return p, nil
}

// ParseApp decodes the app schema document.
func ParseApp(data []byte, source string) (*App, error) {
	a := &App{}
	doc, err := parseDoc(data, a)
	if err != nil {
		return nil, fmt.Errorf("app schema: %w", err)
	}
	a.doc = doc
	a.source = source
	return a, nil
}
