// Package golang provides a reference "models" generator that emits Go
// source from entity and enum schemas.
//
// It exists as a concrete plugin for the generation pipeline: one struct
// file per entity and one constant block per enum, written with jennifer
// and passed through goimports-style formatting. The engine itself treats
// it like any other opaque generator.
package golang

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/schema"
)

// Name is the generator name this package registers under.
const Name = "models"

// Generator emits Go model files for entities and enums.
type Generator struct {
	pkg string
}

// Option configures the Generator.
type Option func(*Generator)

// WithPackage sets the package name of emitted files. Defaults to
// "models".
func WithPackage(pkg string) Option {
	return func(g *Generator) {
		if pkg != "" {
			g.pkg = pkg
		}
	}
}

// New creates a models generator.
func New(opts ...Option) *Generator {
	g := &Generator{pkg: "models"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements schemaforge.Generator.
func (g *Generator) Name() string { return Name }

// Supports implements schemaforge.Generator. The models generator
// consumes entities and enums.
func (g *Generator) Supports(kind schema.Kind) bool {
	return kind == schema.KindEntity || kind == schema.KindEnum
}

// Generate implements schemaforge.Generator: one file per entity, one
// per enum, in name order.
func (g *Generator) Generate(ctx context.Context, gctx *schemaforge.Context) ([]schemaforge.GeneratedFile, error) {
	var files []schemaforge.GeneratedFile

	for _, name := range sortedKeys(gctx.Set.Entities) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := g.entityFile(gctx.Set.Entities[name])
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	for _, name := range sortedKeys(gctx.Set.Enums) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := g.enumFile(gctx.Set.Enums[name])
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// entityFile renders one entity as a Go struct.
func (g *Generator) entityFile(e *schema.Entity) (schemaforge.GeneratedFile, error) {
	structName := inflect.Camelize(inflect.Singularize(e.Name))
	f := g.newFile()

	display := e.DisplayName
	if display == "" {
		display = cases.Title(language.English).String(strings.ReplaceAll(e.Name, "_", " "))
	}
	f.Commentf("%s is the model for the %s table (%s).", structName, e.TableName, display)
	f.Type().Id(structName).StructFunc(func(s *jen.Group) {
		for _, col := range sortedKeys(e.Columns) {
			c := e.Columns[col]
			field := s.Id(inflect.Camelize(col)).Add(columnType(c))
			field.Tag(map[string]string{"json": col + ",omitempty"})
		}
	})

	return g.render(f, path.Join(g.pkg, e.Name+".go"))
}

// enumFile renders one enum as a string type with one constant per value.
func (g *Generator) enumFile(e *schema.Enum) (schemaforge.GeneratedFile, error) {
	typeName := inflect.Camelize(inflect.Singularize(e.Name))
	f := g.newFile()

	if e.Description != "" {
		f.Commentf("%s: %s", typeName, e.Description)
	} else {
		f.Commentf("%s enumerates the %s values.", typeName, e.Name)
	}
	f.Type().Id(typeName).String()

	f.Const().DefsFunc(func(d *jen.Group) {
		for _, key := range sortedKeys(e.Values) {
			constName := typeName + inflect.Camelize(strings.ToLower(key))
			def := d.Id(constName).Id(typeName).Op("=").Lit(key)
			if v := e.Values[key]; v != nil && v.Label != "" {
				def.Comment(v.Label)
			}
		}
	})

	return g.render(f, path.Join(g.pkg, "enums", e.Name+".go"))
}

// newFile creates a jennifer file with the standard header comment.
func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.pkg)
	f.HeaderComment("Code generated by schemaforge. DO NOT EDIT.")
	return f
}

// render formats the file with goimports and wraps it as a GeneratedFile.
func (g *Generator) render(f *jen.File, outPath string) (schemaforge.GeneratedFile, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return schemaforge.GeneratedFile{}, fmt.Errorf("rendering %s: %w", outPath, err)
	}
	formatted, err := imports.Process(outPath, buf.Bytes(), nil)
	if err != nil {
		// Jennifer output is already valid Go; keep it as-is.
		formatted = buf.Bytes()
	}
	return schemaforge.GeneratedFile{Path: outPath, Content: string(formatted)}, nil
}

// columnType maps a schema column to its Go type. Nullable columns
// become pointers.
func columnType(c *schema.Column) jen.Code {
	base := baseColumnType(c)
	if c != nil && c.Nullable {
		return jen.Op("*").Add(base)
	}
	return base
}

func baseColumnType(c *schema.Column) jen.Code {
	if c == nil {
		return jen.Any()
	}
	switch strings.ToLower(c.Type) {
	case "string", "text", "email", "url", "password":
		return jen.String()
	case "int", "integer":
		return jen.Int()
	case "bigint", "int64":
		return jen.Int64()
	case "float", "double", "decimal", "number":
		return jen.Float64()
	case "bool", "boolean":
		return jen.Bool()
	case "datetime", "timestamp", "date", "time":
		return jen.Qual("time", "Time")
	case "uuid":
		return jen.Qual("github.com/google/uuid", "UUID")
	case "json", "jsonb":
		return jen.Qual("encoding/json", "RawMessage")
	case "bytes", "blob", "binary":
		return jen.Index().Byte()
	default:
		return jen.Any()
	}
}

// sortedKeys returns the map keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
