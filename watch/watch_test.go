package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/schema"
)

const testDebounce = 50 * time.Millisecond

// writeWatchRoot lays out a schema root for watcher tests.
func writeWatchRoot(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func baseFiles() map[string]string {
	return map[string]string{
		"app.json":            `{"name": "crm", "url": "https://crm.example.com"}`,
		"entities/users.json": `{"columns": {"id": {"type": "uuid", "primaryKey": true}}}`,
		"enums/status.json":   `{"values": {"ACTIVE": {"label": "Active"}}}`,
	}
}

func startWatcher(t *testing.T, root string, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithDebounce(testDebounce)}, opts...)
	w, err := New(root, opts...)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { w.Stop() })
	return w
}

// nextEvent blocks until the watcher emits or the deadline passes.
func nextEvent(t *testing.T, w *Watcher, timeout time.Duration) Event {
	t.Helper()
	select {
	case e, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return e
	case <-time.After(timeout):
		t.Fatal("timed out waiting for watcher event")
		return Event{}
	}
}

// expectQuiet asserts no event arrives within the window.
func expectQuiet(t *testing.T, w *Watcher, window time.Duration) {
	t.Helper()
	select {
	case e := <-w.Events():
		t.Fatalf("unexpected %s event", e.Kind)
	case <-time.After(window):
	}
}

func TestStart(t *testing.T) {
	t.Run("emits ready and snapshots the initial load", func(t *testing.T) {
		w := startWatcher(t, writeWatchRoot(t, baseFiles()))

		e := nextEvent(t, w, time.Second)
		assert.Equal(t, Ready, e.Kind)
		assert.True(t, w.IsWatching())

		snap := w.Snapshot()
		require.NotNil(t, snap)
		entities, enums, _ := snap.Counts()
		assert.Equal(t, 1, entities)
		assert.Equal(t, 1, enums)
	})

	t.Run("fails when the initial load fails", func(t *testing.T) {
		root := writeWatchRoot(t, map[string]string{
			"entities/users.json": `{"columns": {}}`,
		})
		w, err := New(root, WithDebounce(testDebounce))
		require.NoError(t, err)

		err = w.Start(context.Background())

		assert.True(t, schemaforge.IsLoadError(err))
		assert.False(t, w.IsWatching())
	})

	t.Run("starting twice fails", func(t *testing.T) {
		w := startWatcher(t, writeWatchRoot(t, baseFiles()))

		err := w.Start(context.Background())

		assert.True(t, errors.Is(err, ErrAlreadyWatching))
	})
}

func TestDebounce(t *testing.T) {
	t.Run("rapid writes coalesce into one change event", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second) // ready

		for i := 0; i < 5; i++ {
			writeFile(t, root, "entities/users.json", `{"columns": {"id": {"type": "uuid", "primaryKey": true}, "email": {"type": "string"}}}`)
			time.Sleep(5 * time.Millisecond)
		}

		e := nextEvent(t, w, time.Second)
		assert.Equal(t, Change, e.Kind)
		require.NotNil(t, e.Result)
		require.Len(t, e.Changes, 1)
		assert.Equal(t, schemaforge.ChangeUpdated, e.Changes[0].Type)
		assert.Equal(t, "users", e.Changes[0].Name)

		expectQuiet(t, w, 4*testDebounce)
	})

	t.Run("a new window opens after a flush", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second)

		writeFile(t, root, "enums/status.json", `{"values": {"ACTIVE": {"label": "Active"}, "SUSPENDED": {}}}`)
		first := nextEvent(t, w, time.Second)
		assert.Equal(t, Change, first.Kind)

		writeFile(t, root, "enums/status.json", `{"values": {"ACTIVE": {"label": "Active"}}}`)
		second := nextEvent(t, w, time.Second)
		assert.Equal(t, Change, second.Kind)
	})
}

func TestChangeEnrichment(t *testing.T) {
	t.Run("created entity", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second)

		writeFile(t, root, "entities/posts.json", `{"columns": {"id": {"type": "uuid", "primaryKey": true}}}`)

		e := nextEvent(t, w, time.Second)
		require.Equal(t, Change, e.Kind)
		require.Len(t, e.Changes, 1)
		c := e.Changes[0]
		assert.Equal(t, schemaforge.ChangeCreated, c.Type)
		assert.Equal(t, schema.KindEntity, c.Kind)
		assert.Equal(t, "posts", c.Name)
		assert.NotNil(t, c.Current)

		require.NotNil(t, e.Result)
		assert.False(t, e.Result.HasBreakingChanges)
		assert.Contains(t, e.Result.AffectedGenerators, "models")
		assert.NotEmpty(t, e.Result.AffectedFiles)

		// The snapshot advanced with the flush.
		assert.NotNil(t, w.Snapshot().Entity("posts"))
	})

	t.Run("deleted entity is breaking", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second)

		require.NoError(t, os.Remove(filepath.Join(root, "entities", "users.json")))

		e := nextEvent(t, w, time.Second)
		require.Equal(t, Change, e.Kind)
		require.Len(t, e.Changes, 1)
		assert.Equal(t, schemaforge.ChangeDeleted, e.Changes[0].Type)
		require.NotNil(t, e.Result)
		assert.True(t, e.Result.HasBreakingChanges)
	})

	t.Run("failed reload emits an error and keeps the snapshot", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second)
		before := w.Snapshot()

		writeFile(t, root, "entities/users.json", `{"columns": {`)

		e := nextEvent(t, w, time.Second)
		assert.Equal(t, Error, e.Kind)
		assert.True(t, schemaforge.IsWatchError(e.Err))
		assert.True(t, errors.Is(e.Err, schemaforge.ErrLoadFailed))
		// Raw records still identify what moved.
		require.Len(t, e.Changes, 1)
		assert.Equal(t, "users", e.Changes[0].Name)
		assert.Same(t, before, w.Snapshot())

		// The watcher recovers once the file is valid again.
		writeFile(t, root, "entities/users.json", `{"columns": {"id": {"type": "uuid"}, "name": {"type": "string"}}}`)
		recovered := nextEvent(t, w, time.Second)
		assert.Equal(t, Change, recovered.Kind)
	})
}

func TestEventFiltering(t *testing.T) {
	t.Run("non-json files are ignored", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second)

		writeFile(t, root, "entities/notes.txt", "scratch")
		writeFile(t, root, "entities/users.json.swp", "editor junk")

		expectQuiet(t, w, 4*testDebounce)
	})

	t.Run("ignore globs drop matching paths", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root, WithIgnore("*.draft.json"))
		nextEvent(t, w, time.Second)

		writeFile(t, root, "entities/users.draft.json", `{"columns": {}}`)

		expectQuiet(t, w, 4*testDebounce)
	})

	t.Run("unknown directories are ignored", func(t *testing.T) {
		root := writeWatchRoot(t, baseFiles())
		w := startWatcher(t, root)
		nextEvent(t, w, time.Second)

		writeFile(t, root, "other.json", `{}`)

		expectQuiet(t, w, 4*testDebounce)
	})
}

func TestStop(t *testing.T) {
	t.Run("closes the events channel", func(t *testing.T) {
		w := startWatcher(t, writeWatchRoot(t, baseFiles()))
		nextEvent(t, w, time.Second)

		require.NoError(t, w.Stop())

		assert.False(t, w.IsWatching())
		_, ok := <-w.Events()
		assert.False(t, ok)
	})

	t.Run("is safe to call twice", func(t *testing.T) {
		w := startWatcher(t, writeWatchRoot(t, baseFiles()))
		nextEvent(t, w, time.Second)

		require.NoError(t, w.Stop())
		assert.NoError(t, w.Stop())
	})
}

func TestSnapshotCatchUp(t *testing.T) {
	root := writeWatchRoot(t, baseFiles())
	store := NewFileSnapshotStore(filepath.Join(t.TempDir(), "snapshot.bin"))

	first := startWatcher(t, root, WithSnapshotStore(store))
	nextEvent(t, first, time.Second)
	require.NoError(t, first.Stop())

	// The schema changes while no watcher is running.
	writeFile(t, root, "entities/posts.json", `{"columns": {"id": {"type": "uuid"}}}`)

	second := startWatcher(t, root, WithSnapshotStore(store))

	ready := nextEvent(t, second, time.Second)
	assert.Equal(t, Ready, ready.Kind)

	e := nextEvent(t, second, time.Second)
	require.Equal(t, Change, e.Kind)
	require.Len(t, e.Changes, 1)
	assert.Equal(t, schemaforge.ChangeCreated, e.Changes[0].Type)
	assert.Equal(t, "posts", e.Changes[0].Name)
}
