// Package cas implements the persisted signature store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SignatureStore = (*Store)(nil)

// file is the on-disk encoding of the store.
type file struct {
	Version    int                           `json:"version"`
	Generation uint64                        `json:"generation"`
	Records    map[string]domain.BuildRecord `json:"records"`
}

// Store implements ports.SignatureStore using a single JSON file.
// The file is read once by NewStore and written whole by Save.
type Store struct {
	path   string
	logger ports.Logger

	mu         sync.RWMutex
	records    map[string]domain.BuildRecord
	generation uint64
	dirty      bool
	// discarded is why the file on disk was not loaded, if it was not.
	discarded error
}

// NewStore loads the store backed by the file at path.
// A missing, unreadable or corrupt file yields an empty store; the latter two are logged.
func NewStore(path string, logger ports.Logger) *Store {
	s := &Store{
		path:    filepath.Clean(path),
		logger:  logger,
		records: make(map[string]domain.BuildRecord),
	}
	if err := s.load(); err != nil {
		s.records = make(map[string]domain.BuildRecord)
		s.generation = 0
		s.discarded = err
		if logger != nil {
			logger.Warn("signature store discarded, every target is stale: " + err.Error())
		}
	}
	return s
}

func (s *Store) load() error {
	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read signature store"), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal signature store"), "path", s.path)
	}
	if f.Version != domain.StoreFormatVersion {
		err := zerr.With(zerr.New("unsupported signature store version"), "version", f.Version)
		return zerr.With(err, "path", s.path)
	}

	for output, record := range f.Records {
		record.Output = output
		s.records[output] = record
	}
	s.generation = f.Generation
	return nil
}

// Discarded reports why an existing store file was ignored. It is nil when
// the file loaded or did not exist.
func (s *Store) Discarded() error {
	return s.discarded
}

// Get returns the record for an output path.
func (s *Store) Get(output string) (domain.BuildRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[output]
	return record, ok
}

// Put replaces the record for record.Output. Nothing is written until Save.
func (s *Store) Put(record domain.BuildRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Output] = record
	s.dirty = true
}

// Delete forgets the record for an output path.
func (s *Store) Delete(output string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[output]; ok {
		delete(s.records, output)
		s.dirty = true
	}
}

// Generation returns the generation records of this run are stamped with.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.generation + 1
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Save writes the store to a temporary file in the same directory, syncs it and
// renames it over the previous file. A failed save leaves the previous file intact.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(file{
		Version:    domain.StoreFormatVersion,
		Generation: s.generation + 1,
		Records:    s.records,
	}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal signature store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory for signature store"), "path", dir)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreSaveFailed.Error()), "path", s.path)
	}

	s.generation++
	s.dirty = false
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Opener opens stores for the logger it was built with.
type Opener struct {
	logger ports.Logger
}

// NewOpener creates a new Opener.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger}
}

// Open loads the store at path.
func (o *Opener) Open(path string) (ports.SignatureStore, error) {
	return NewStore(path, o.logger), nil
}
