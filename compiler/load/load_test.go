package load

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/schema"
)

// writeSchemaDir lays out a minimal schema root under a temp directory.
func writeSchemaDir(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

const appJSON = `{"name": "crm", "description": "A CRM", "url": "https://crm.example.com"}`

func TestDir(t *testing.T) {
	t.Run("loads a full schema layout", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{
			"app.json":            appJSON,
			"entities/users.json": `{"columns": {"id": {"type": "uuid", "primaryKey": true}}}`,
			"entities/posts.json": `{"columns": {"id": {"type": "uuid", "primaryKey": true}}}`,
			"enums/status.json":   `{"values": {"ACTIVE": {"label": "Active"}}}`,
			"pages/home.json":     `{"route": "/", "title": "Home", "sections": [{"type": "hero"}]}`,
		})

		set, err := Dir(root)
		require.NoError(t, err)

		entities, enums, pages := set.Counts()
		assert.Equal(t, 2, entities)
		assert.Equal(t, 1, enums)
		assert.Equal(t, 1, pages)
		require.NotNil(t, set.App)
		assert.Equal(t, "crm", set.App.Name)
		assert.Equal(t, "entities/users.json", set.Entity("users").Source())
	})

	t.Run("missing subdirectories are empty collections", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{"app.json": appJSON})

		set, err := Dir(root)
		require.NoError(t, err)

		entities, enums, pages := set.Counts()
		assert.Zero(t, entities)
		assert.Zero(t, enums)
		assert.Zero(t, pages)
	})

	t.Run("missing app.json is a hard failure", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{
			"entities/users.json": `{"columns": {}}`,
		})

		_, err := Dir(root)

		require.Error(t, err)
		assert.True(t, schemaforge.IsLoadError(err))
		assert.True(t, errors.Is(err, schemaforge.ErrLoadFailed))
		assert.Contains(t, err.Error(), "app.json")
	})

	t.Run("missing root is a load error", func(t *testing.T) {
		_, err := Dir(filepath.Join(t.TempDir(), "nope"))

		assert.True(t, schemaforge.IsLoadError(err))
	})

	t.Run("malformed file reports path and line", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{
			"app.json":            appJSON,
			"entities/users.json": "{\n  \"columns\": {\n",
		})

		_, err := Dir(root)
		require.Error(t, err)

		var le *schemaforge.LoadError
		require.True(t, errors.As(err, &le))
		assert.Contains(t, le.Path, "users.json")
		assert.Greater(t, le.Line, 0)
	})

	t.Run("non-json files are skipped", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{
			"app.json":            appJSON,
			"entities/users.json": `{"columns": {}}`,
			"entities/README.md":  "docs",
			"entities/draft.tmp":  "wip",
		})

		set, err := Dir(root)
		require.NoError(t, err)

		entities, _, _ := set.Counts()
		assert.Equal(t, 1, entities)
	})
}

// rejectValidator fails every file whose path contains a marker.
type rejectValidator struct {
	marker string
}

func (v *rejectValidator) ValidateFile(_ schema.Kind, _ []byte, path string) []schemaforge.ValidationIssue {
	if v.marker != "" && filepath.Base(path) == v.marker {
		return []schemaforge.ValidationIssue{{Message: "rejected by validator", Path: path, Line: 3}}
	}
	return nil
}

func (v *rejectValidator) ValidateSet(_ *schema.Set) []schemaforge.ValidationIssue {
	return nil
}

func TestValidator(t *testing.T) {
	t.Run("file issues fail the load", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{
			"app.json":            appJSON,
			"entities/users.json": `{"columns": {}}`,
		})
		cfg := &Config{Root: root, Validator: &rejectValidator{marker: "users.json"}}

		_, err := cfg.Load(context.Background())
		require.Error(t, err)

		var le *schemaforge.LoadError
		require.True(t, errors.As(err, &le))
		assert.Contains(t, le.Message, "rejected by validator")
		assert.Equal(t, 3, le.Line)
	})

	t.Run("clean validator passes", func(t *testing.T) {
		root := writeSchemaDir(t, map[string]string{
			"app.json":            appJSON,
			"entities/users.json": `{"columns": {}}`,
		})
		cfg := &Config{Root: root, Validator: &rejectValidator{}}

		_, err := cfg.Load(context.Background())
		assert.NoError(t, err)
	})
}
