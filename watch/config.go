package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaforge"
)

// ConfigFileName is the optional per-root watcher configuration file.
const ConfigFileName = ".schemaforge.yaml"

// fileConfig is the on-disk watcher configuration. All fields are
// optional; explicit Watcher options override them.
type fileConfig struct {
	// Debounce is a Go duration string, e.g. "300ms".
	Debounce string `yaml:"debounce"`

	// Ignore lists glob patterns whose events are dropped.
	Ignore []string `yaml:"ignore"`

	// Snapshot is a path (relative to the schema root unless absolute)
	// for persisting the last good schema set.
	Snapshot string `yaml:"snapshot"`
}

// applyFileConfig loads .schemaforge.yaml from the schema root when
// present. A missing file is fine; a malformed one fails New.
func (w *Watcher) applyFileConfig() error {
	p := filepath.Join(w.root, ConfigFileName)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return schemaforge.NewWatchError("config", "reading "+ConfigFileName, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return schemaforge.NewWatchError("config", "parsing "+ConfigFileName, err)
	}

	if cfg.Debounce != "" {
		d, derr := time.ParseDuration(cfg.Debounce)
		if derr != nil || d <= 0 {
			return schemaforge.NewWatchError("config", "invalid debounce "+cfg.Debounce, derr)
		}
		w.interval = d
	}
	w.ignore = append(w.ignore, cfg.Ignore...)
	if cfg.Snapshot != "" {
		sp := cfg.Snapshot
		if !filepath.IsAbs(sp) {
			sp = filepath.Join(w.root, sp)
		}
		w.store = NewFileSnapshotStore(sp)
	}
	return nil
}
