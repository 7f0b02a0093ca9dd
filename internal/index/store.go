package index

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"docqa/internal/util"
)

const manifestVersion = 1

// Manifest describes one published index revision. Writing the manifest is
// the commit point: the entries file it names is already on disk when the
// manifest lands, so readers always see a complete revision.
type Manifest struct {
	Version     int       `json:"version"`
	Dimension   int       `json:"dimension"`
	EmbedModel  string    `json:"embed_model"`
	EntryCount  int       `json:"entry_count"`
	EntriesFile string    `json:"entries_file"`
	DocumentIDs []string  `json:"document_ids"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists one index per project under root/<project_id>/. Saves are
// atomic (entries revision file, then manifest rename) so a crashed writer
// leaves the previous revision readable.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(root string) *Store {
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}
}

// Lock serializes same-process writers for one project and returns the
// unlock func. Read-modify-write sequences (load, merge, save) must run
// under it.
func (s *Store) Lock(projectID string) func() {
	s.mu.Lock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[projectID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Store) projectDir(projectID string) string {
	return util.SafeJoin(s.root, projectID)
}

// LoadManifest reads the current manifest without decoding entries. It is
// the cheap path for the deduplication check before ingestion.
func (s *Store) LoadManifest(projectID string) (Manifest, error) {
	path := filepath.Join(s.projectDir(projectID), "manifest.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: decode manifest: %v", ErrCorrupt, err)
	}
	if m.EntriesFile == "" || m.Dimension <= 0 || m.EntryCount <= 0 {
		return Manifest{}, fmt.Errorf("%w: manifest missing fields", ErrCorrupt)
	}
	return m, nil
}

// Load reads the full index for a project. A missing index is ErrNotFound;
// anything readable-but-broken is ErrCorrupt, never an empty index, since an
// empty index would silently drop the deduplication set.
func (s *Store) Load(projectID string) (*Index, Manifest, error) {
	m, err := s.LoadManifest(projectID)
	if err != nil {
		return nil, Manifest{}, err
	}
	path := filepath.Join(s.projectDir(projectID), m.EntriesFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("%w: entries file %s missing: %v", ErrCorrupt, m.EntriesFile, err)
	}
	defer f.Close()

	var entries []Entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return nil, Manifest{}, fmt.Errorf("%w: decode entries: %v", ErrCorrupt, err)
	}
	if len(entries) == 0 {
		return nil, Manifest{}, fmt.Errorf("%w: entries file is empty", ErrCorrupt)
	}
	idx, err := New(entries)
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("%w: rebuild index: %v", ErrCorrupt, err)
	}
	if idx.Dimension() != m.Dimension {
		return nil, Manifest{}, fmt.Errorf("%w: entries dimension %d does not match manifest %d", ErrCorrupt, idx.Dimension(), m.Dimension)
	}
	return idx, m, nil
}

// Save publishes a new revision of the project's index. The entries file is
// written first under a fresh name, then the manifest rename commits it.
// Older revision files are removed best-effort after the commit.
func (s *Store) Save(projectID string, idx *Index, embedModel string) error {
	if idx == nil || idx.Len() == 0 {
		return ErrEmptyInput
	}
	dir := s.projectDir(projectID)
	rev := fmt.Sprintf("entries-%s.gob", uuid.NewString())

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(idx.Entries()); err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := util.WriteFileAtomic(filepath.Join(dir, rev), buf.Bytes()); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}

	m := Manifest{
		Version:     manifestVersion,
		Dimension:   idx.Dimension(),
		EmbedModel:  embedModel,
		EntryCount:  idx.Len(),
		EntriesFile: rev,
		DocumentIDs: idx.DocumentIDs(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := util.WriteJSONAtomic(filepath.Join(dir, "manifest.json"), m); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	s.cleanupStale(dir, rev)
	return nil
}

func (s *Store) cleanupStale(dir, keep string) {
	matches, err := filepath.Glob(filepath.Join(dir, "entries-*.gob"))
	if err != nil {
		return
	}
	for _, path := range matches {
		if filepath.Base(path) == keep {
			continue
		}
		_ = os.Remove(path)
	}
}

// IsNotFound reports whether err means the project has no index yet.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
