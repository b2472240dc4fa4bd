package watch

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/schemaforge/schema"
)

// FileSnapshotStore persists the watcher's last good schema set to a
// single msgpack-encoded file. It stores the raw schema documents, so a
// restored set diffs identically to a freshly loaded one.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a store writing to the given path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// snapshotDoc is the serialized form: raw documents keyed by name.
type snapshotDoc struct {
	Entities map[string]map[string]any `msgpack:"entities"`
	Enums    map[string]map[string]any `msgpack:"enums"`
	Pages    map[string]map[string]any `msgpack:"pages"`
	App      map[string]any            `msgpack:"app"`
}

// Load reads the persisted schema set. A missing file returns (nil, nil).
func (s *FileSnapshotStore) Load() (*schema.Set, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc snapshotDoc
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	set := schema.NewSet()
	for name, d := range doc.Entities {
		e, perr := parseDoc(d, name, schema.KindEntity)
		if perr != nil {
			return nil, perr
		}
		set.Entities[name] = e.(*schema.Entity)
	}
	for name, d := range doc.Enums {
		e, perr := parseDoc(d, name, schema.KindEnum)
		if perr != nil {
			return nil, perr
		}
		set.Enums[name] = e.(*schema.Enum)
	}
	for name, d := range doc.Pages {
		p, perr := parseDoc(d, name, schema.KindPage)
		if perr != nil {
			return nil, perr
		}
		set.Pages[name] = p.(*schema.Page)
	}
	if doc.App != nil {
		a, perr := parseDoc(doc.App, "app", schema.KindApp)
		if perr != nil {
			return nil, perr
		}
		set.App = a.(*schema.App)
	}
	return set, nil
}

// Save atomically replaces the persisted schema set.
func (s *FileSnapshotStore) Save(set *schema.Set) error {
	doc := snapshotDoc{
		Entities: make(map[string]map[string]any, len(set.Entities)),
		Enums:    make(map[string]map[string]any, len(set.Enums)),
		Pages:    make(map[string]map[string]any, len(set.Pages)),
	}
	for name, e := range set.Entities {
		doc.Entities[name] = e.Doc()
	}
	for name, e := range set.Enums {
		doc.Enums[name] = e.Doc()
	}
	for name, p := range set.Pages {
		doc.Pages[name] = p.Doc()
	}
	if set.App != nil {
		doc.App = set.App.Doc()
	}

	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// parseDoc rebuilds a schema object from its raw document by
// round-tripping through JSON, reusing the loader's parse path so the
// document form stays identical to a fresh load.
func parseDoc(doc map[string]any, name string, kind schema.Kind) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	source := schema.SourcePath(kind, name)
	switch kind {
	case schema.KindEntity:
		return schema.ParseEntity(name, data, source)
	case schema.KindEnum:
		return schema.ParseEnum(name, data, source)
	case schema.KindPage:
		return schema.ParsePage(name, data, source)
	default:
		return schema.ParseApp(data, source)
	}
}
