// Package load reads a schema directory layout into a schema.Set.
//
// The expected layout under the schema root is:
//
//	entities/*.json
//	enums/*.json
//	pages/*.json
//	app.json
//
// Missing subdirectories are treated as empty collections. A missing
// app.json is a hard load failure. All I/O and parse failures are wrapped
// into *schemaforge.LoadError carrying the offending path and, when the
// decoder reports one, a line number.
package load

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/schema"
)

// Config configures a schema directory load.
type Config struct {
	// Root is the schema root directory.
	Root string

	// Validator, when non-nil, is invoked on every schema document and
	// once on the assembled set. Any reported issue fails the load.
	Validator schemaforge.Validator
}

// Dir loads the schema directory rooted at root with default settings.
func Dir(root string) (*schema.Set, error) {
	return (&Config{Root: root}).Load(context.Background())
}

// Load reads the configured schema root into a Set.
func (c *Config) Load(ctx context.Context) (*schema.Set, error) {
	if c.Root == "" {
		return nil, schemaforge.NewLoadError("", "schema root directory not set", nil)
	}
	if _, err := os.Stat(c.Root); err != nil {
		return nil, schemaforge.NewLoadError(c.Root, "schema root not readable", err)
	}

	set := schema.NewSet()
	for _, kind := range []schema.Kind{schema.KindEntity, schema.KindEnum, schema.KindPage} {
		if err := c.loadKind(ctx, kind, set); err != nil {
			return nil, err
		}
	}

	appPath := filepath.Join(c.Root, "app.json")
	data, err := os.ReadFile(appPath)
	if err != nil {
		return nil, schemaforge.NewLoadError(appPath, "missing app schema", err)
	}
	if err := c.validateFile(schema.KindApp, data, appPath); err != nil {
		return nil, err
	}
	app, err := schema.ParseApp(data, "app.json")
	if err != nil {
		return nil, wrapParseError(appPath, data, err)
	}
	set.App = app

	if c.Validator != nil {
		if issues := c.Validator.ValidateSet(set); len(issues) > 0 {
			return nil, issueError(c.Root, issues)
		}
	}
	return set, nil
}

// kindDir maps a schema kind to its subdirectory name.
func kindDir(kind schema.Kind) string {
	switch kind {
	case schema.KindEntity:
		return "entities"
	case schema.KindEnum:
		return "enums"
	case schema.KindPage:
		return "pages"
	}
	return ""
}

// loadKind reads all *.json documents of one kind into the set.
// A missing subdirectory is an empty collection, not an error.
func (c *Config) loadKind(ctx context.Context, kind schema.Kind, set *schema.Set) error {
	dir := filepath.Join(c.Root, kindDir(kind))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return schemaforge.NewLoadError(dir, "reading schema directory", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return schemaforge.NewLoadError(path, "reading schema file", err)
		}
		if err := c.validateFile(kind, data, path); err != nil {
			return err
		}
		source := schema.SourcePath(kind, name)
		switch kind {
		case schema.KindEntity:
			e, perr := schema.ParseEntity(name, data, source)
			if perr != nil {
				return wrapParseError(path, data, perr)
			}
			set.Entities[name] = e
		case schema.KindEnum:
			e, perr := schema.ParseEnum(name, data, source)
			if perr != nil {
				return wrapParseError(path, data, perr)
			}
			set.Enums[name] = e
		case schema.KindPage:
			p, perr := schema.ParsePage(name, data, source)
			if perr != nil {
				return wrapParseError(path, data, perr)
			}
			set.Pages[name] = p
		}
	}
	return nil
}

// validateFile runs the configured validator over one raw document.
func (c *Config) validateFile(kind schema.Kind, data []byte, path string) error {
	if c.Validator == nil {
		return nil
	}
	issues := c.Validator.ValidateFile(kind, data, path)
	if len(issues) == 0 {
		return nil
	}
	return issueError(path, issues)
}

// issueError folds validator issues into a single LoadError. The first
// issue determines the message and line; the rest are appended.
func issueError(path string, issues []schemaforge.ValidationIssue) error {
	msgs := make([]string, len(issues))
	for i, iss := range issues {
		msgs[i] = iss.Message
	}
	le := schemaforge.NewLoadError(path, strings.Join(msgs, "; "), nil)
	if issues[0].Path != "" {
		le.Path = issues[0].Path
	}
	le.Line = issues[0].Line
	return le
}

// wrapParseError converts a decode failure into a LoadError, recovering
// the line number from the decoder offset when available.
func wrapParseError(path string, data []byte, err error) error {
	le := schemaforge.NewLoadError(path, "parsing schema file", err)
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		le.Line = lineAt(data, syn.Offset)
	case errors.As(err, &typ):
		le.Line = lineAt(data, typ.Offset)
	}
	return le
}

// lineAt returns the 1-based line containing the byte offset.
func lineAt(data []byte, offset int64) int {
	if offset < 0 || offset > int64(len(data)) {
		return 0
	}
	return bytes.Count(data[:offset], []byte{'\n'}) + 1
}
