// Package watch monitors a schema directory and emits diff-enriched
// change notifications.
//
// A Watcher owns the last successfully loaded schema set (its snapshot).
// Filesystem events under entities/, enums/, pages/, and app.json are
// coalesced in a debounce window; when the window closes, the watcher
// reloads the schema set from disk, diffs it against the snapshot,
// replaces the snapshot, and emits exactly one change notification for
// the window. A failed reload or diff emits an error notification and
// keeps the last good snapshot for the next cycle.
//
// Cycles are strictly serialized: the debounce timer is re-armed only by
// events processed after the current flush completes, so a reload never
// runs concurrently with another.
package watch

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/syssam/schemaforge"
	"github.com/syssam/schemaforge/compiler/diff"
	"github.com/syssam/schemaforge/compiler/load"
	"github.com/syssam/schemaforge/schema"
)

// DefaultDebounce is the quiet period after the last filesystem event
// before a change batch is processed.
const DefaultDebounce = 300 * time.Millisecond

// ErrAlreadyWatching is returned by Start when the watcher is running.
var ErrAlreadyWatching = errors.New("schemaforge: watcher already running")

// EventKind discriminates the notification variants.
type EventKind int

const (
	// Ready signals the initial schema load succeeded and events flow.
	Ready EventKind = iota
	// Change carries the coalesced changes of one debounce window.
	Change
	// Error reports a failed refresh cycle; the watcher keeps running.
	Error
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case Ready:
		return "ready"
	case Change:
		return "change"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from the watcher.
type Event struct {
	Kind EventKind

	// Changes holds the change records of the window. For Change
	// events with a non-nil Result these are diff-enriched; otherwise
	// they are raw filesystem-derived records (degraded fallback).
	Changes []*schemaforge.Change

	// Result is the full diff outcome for enriched Change events.
	Result *diff.Result

	// Err is set on Error events.
	Err error
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			return schemaforge.NewWatchError("config", "debounce interval must be positive", nil)
		}
		w.interval = d
		return nil
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) error {
		w.logger = logger
		return nil
	}
}

// WithSnapshotStore persists the last good schema set so a restarted
// watcher can report changes made while it was down.
func WithSnapshotStore(store schemaforge.SnapshotStore) Option {
	return func(w *Watcher) error {
		w.store = store
		return nil
	}
}

// WithIgnore adds glob patterns (matched against schema-root-relative
// paths and base names) whose events are dropped.
func WithIgnore(globs ...string) Option {
	return func(w *Watcher) error {
		w.ignore = append(w.ignore, globs...)
		return nil
	}
}

// WithValidator sets the validator used on every reload.
func WithValidator(v schemaforge.Validator) Option {
	return func(w *Watcher) error {
		w.validator = v
		return nil
	}
}

// Watcher monitors one schema root. Create with New, drive with Start
// and Stop, consume notifications from Events.
type Watcher struct {
	root      string
	interval  time.Duration
	ignore    []string
	logger    zerolog.Logger
	store     schemaforge.SnapshotStore
	validator schemaforge.Validator

	mu       sync.Mutex
	watching bool
	fsw      *fsnotify.Watcher
	events   chan Event
	done     chan struct{}
	wg       sync.WaitGroup

	// Owned by the run goroutine after Start.
	pending  map[string]*schemaforge.Change
	timer    *time.Timer
	snapshot *schema.Set
}

// New creates a Watcher for the given schema root. An optional
// .schemaforge.yaml in the root supplies defaults; explicit options win.
func New(root string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		root:     root,
		interval: DefaultDebounce,
		logger:   zerolog.Nop(),
	}
	if err := w.applyFileConfig(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Events returns the notification channel. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Snapshot returns the last successfully loaded schema set.
func (w *Watcher) Snapshot() *schema.Set {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// IsWatching reports whether the watcher is running.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// Start loads the initial schema set and begins watching. It fails with
// ErrAlreadyWatching when running, and with the load error when the
// initial load fails; in both cases the watcher remains stopped.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return ErrAlreadyWatching
	}

	set, err := w.load(ctx)
	if err != nil {
		return err
	}

	// A persisted snapshot lets us report what changed while the
	// watcher was down.
	var initial *diff.Result
	if w.store != nil {
		prev, serr := w.store.Load()
		switch {
		case serr != nil:
			w.logger.Warn().Err(serr).Msg("snapshot load failed; starting fresh")
		case prev != nil:
			if d := diff.Compare(prev, set); !d.Empty() {
				initial = d
			}
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return schemaforge.NewWatchError("fsnotify", "creating watcher", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return schemaforge.NewWatchError("fsnotify", "watching schema root", err)
	}
	for _, sub := range []string{"entities", "enums", "pages"} {
		dir := filepath.Join(w.root, sub)
		if _, serr := os.Stat(dir); serr == nil {
			if aerr := fsw.Add(dir); aerr != nil {
				fsw.Close()
				return schemaforge.NewWatchError("fsnotify", "watching "+sub, aerr)
			}
		}
	}

	w.fsw = fsw
	w.snapshot = set
	w.saveSnapshot(set)
	w.pending = make(map[string]*schemaforge.Change)
	w.timer = time.NewTimer(time.Hour)
	w.timer.Stop()
	w.events = make(chan Event, 16)
	w.done = make(chan struct{})
	w.watching = true

	w.events <- Event{Kind: Ready}
	if initial != nil {
		w.events <- Event{Kind: Change, Changes: initial.Changes, Result: initial}
	}

	w.wg.Add(1)
	go w.run(ctx)
	w.logger.Info().Str("root", w.root).Dur("debounce", w.interval).Msg("watching schema directory")
	return nil
}

// Stop stops watching. It is always safe to call: it cancels a pending
// debounce timer, releases the filesystem watch, clears pending state,
// and closes the events channel. An in-flight refresh cycle is allowed
// to finish; its notification is dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = false
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.timer.Stop()
	w.pending = nil
	close(w.events)
	if err != nil {
		return schemaforge.NewWatchError("fsnotify", "closing watcher", err)
	}
	return nil
}

// run is the event loop. All pending-map and timer access happens here,
// which serializes debounce cycles without locks.
func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.emit(Event{Kind: Error, Err: schemaforge.NewWatchError("fsnotify", "watch error", err)})

		case <-w.timer.C:
			w.flush(ctx)
		}
	}
}

// handleFsEvent translates one filesystem event into a pending change
// and (re)starts the debounce timer. Later events for the same path
// overwrite earlier ones within the window.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) {
	// A schema subdirectory created after Start must be watched too.
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			base := filepath.Base(ev.Name)
			if base == "entities" || base == "enums" || base == "pages" {
				if err := w.fsw.Add(ev.Name); err != nil {
					w.logger.Warn().Err(err).Str("dir", ev.Name).Msg("cannot watch new schema directory")
				}
			}
			return
		}
	}

	ch, key, ok := w.translate(ev)
	if !ok {
		return
	}
	w.logger.Debug().Str("path", key).Str("type", string(ch.Type)).Msg("schema file event")
	w.pending[key] = ch
	w.resetTimer()
}

// resetTimer restarts the debounce timer, draining a fired-but-unread
// tick first.
func (w *Watcher) resetTimer() {
	if !w.timer.Stop() {
		select {
		case <-w.timer.C:
		default:
		}
	}
	w.timer.Reset(w.interval)
}

// translate converts an fsnotify event into a raw schema change.
// Non-JSON files, ignored globs, and paths outside the schema layout
// produce no change.
func (w *Watcher) translate(ev fsnotify.Event) (*schemaforge.Change, string, bool) {
	var typ schemaforge.ChangeType
	switch {
	case ev.Has(fsnotify.Create):
		typ = schemaforge.ChangeCreated
	case ev.Has(fsnotify.Write):
		typ = schemaforge.ChangeUpdated
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// A rename shows up as delete; the new name arrives as create.
		typ = schemaforge.ChangeDeleted
	default:
		return nil, "", false
	}

	if !strings.HasSuffix(ev.Name, ".json") {
		return nil, "", false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, "", false
	}
	rel = filepath.ToSlash(rel)
	for _, glob := range w.ignore {
		if ok, _ := path.Match(glob, rel); ok {
			return nil, "", false
		}
		if ok, _ := path.Match(glob, path.Base(rel)); ok {
			return nil, "", false
		}
	}

	var kind schema.Kind
	var name string
	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, ".json")
	switch strings.TrimSuffix(dir, "/") {
	case "":
		if file != "app.json" {
			return nil, "", false
		}
		kind, name = schema.KindApp, stem
	case "entities":
		kind, name = schema.KindEntity, stem
	case "enums":
		kind, name = schema.KindEnum, stem
	case "pages":
		kind, name = schema.KindPage, stem
	default:
		return nil, "", false
	}

	return &schemaforge.Change{Type: typ, Kind: kind, Name: name}, rel, true
}

// flush processes one debounce window: drain the pending map, reload,
// diff against the snapshot, replace it, and emit one notification.
func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	// Swap-and-clear before any blocking work so events arriving
	// mid-reload land in a fresh map and trigger the next cycle.
	batch := w.pending
	w.pending = make(map[string]*schemaforge.Change)
	raw := rawChanges(batch)

	current, err := w.load(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("schema reload failed; keeping last snapshot")
		w.emit(Event{
			Kind:    Error,
			Changes: raw,
			Err:     schemaforge.NewWatchError("load", "schema reload failed", err),
		})
		return
	}

	result, derr := safeCompare(w.snapshot, current)
	if derr != nil {
		// Degraded fallback: the reload succeeded but diffing failed.
		// Surface the raw records and keep the old snapshot.
		w.logger.Warn().Err(derr).Msg("schema diff failed; emitting raw changes")
		w.emit(Event{
			Kind:    Error,
			Changes: raw,
			Err:     schemaforge.NewWatchError("diff", "schema diff failed", derr),
		})
		return
	}

	w.mu.Lock()
	w.snapshot = current
	w.mu.Unlock()
	w.saveSnapshot(current)
	w.emit(Event{Kind: Change, Changes: result.Changes, Result: result})
}

// emit delivers an event unless the watcher is shutting down.
func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	case <-w.done:
	}
}

// load reads the schema root from disk.
func (w *Watcher) load(ctx context.Context) (*schema.Set, error) {
	cfg := &load.Config{Root: w.root, Validator: w.validator}
	return cfg.Load(ctx)
}

// saveSnapshot persists the snapshot when a store is configured.
// Persistence failures are logged, never fatal.
func (w *Watcher) saveSnapshot(set *schema.Set) {
	if w.store == nil {
		return
	}
	if err := w.store.Save(set); err != nil {
		w.logger.Warn().Err(err).Msg("snapshot save failed")
	}
}

// rawChanges flattens a pending batch into change records sorted by
// source path for deterministic output.
func rawChanges(batch map[string]*schemaforge.Change) []*schemaforge.Change {
	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*schemaforge.Change, 0, len(batch))
	for _, k := range keys {
		out = append(out, batch[k])
	}
	return out
}

// safeCompare runs the differ, converting a panic into an error so a
// malformed document cannot kill the watch session.
func safeCompare(old, new *schema.Set) (result *diff.Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			result = nil
			err = schemaforge.NewWatchError("diff", "comparison panicked", nil)
		}
	}()
	return diff.Compare(old, new), nil
}
