// Package store provides a simple JSON-backed store for installs and the
// manifest records they point at.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/glorpus-work/gamekeep/pkg/model"
)

const formatVersion = "1"

type document struct {
	FormatVersion string                  `json:"format_version"`
	LastUpdate    time.Time               `json:"last_update"`
	Installs      []*model.Install        `json:"installs"`
	Manifests     []*model.ManifestRecord `json:"manifests"`
}

// Store keeps installs and manifest records in one JSON file. Every
// mutation is written through atomically.
type Store struct {
	path string
	mu   sync.RWMutex
	doc  document
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("store path must be absolute: %s: %w", path, pkgerrors.ErrInvalidPath)
	}

	s := &Store{path: cleanPath, doc: document{FormatVersion: formatVersion}}

	data, err := os.ReadFile(cleanPath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrStoreLoad, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", pkgerrors.ErrStoreLoad, cleanPath, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// GetInstallByID returns a copy of the install with id.
func (s *Store) GetInstallByID(id string) (*model.Install, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inst := s.findInstall(id); inst != nil {
		c := *inst
		return &c, nil
	}
	return nil, fmt.Errorf("%w: %s", pkgerrors.ErrInstallNotFound, id)
}

// GetManifestByID returns a copy of the manifest record with id.
func (s *Store) GetManifestByID(id string) (*model.ManifestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.doc.Manifests {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", pkgerrors.ErrManifestNotFound, id)
}

// UpdateInstallAfterUpdate applies update to the install with id and saves.
func (s *Store) UpdateInstallAfterUpdate(id string, update model.InstallUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.findInstall(id)
	if inst == nil {
		return fmt.Errorf("%w: %s", pkgerrors.ErrInstallNotFound, id)
	}
	update.Apply(inst)
	return s.saveLocked()
}

// AddInstall inserts a new install and saves.
func (s *Store) AddInstall(inst model.Install) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.ID == "" {
		return fmt.Errorf("install id cannot be empty")
	}
	if s.findInstall(inst.ID) != nil {
		return fmt.Errorf("%w: %s", pkgerrors.ErrInstallExists, inst.ID)
	}
	s.doc.Installs = append(s.doc.Installs, &inst)
	return s.saveLocked()
}

// RemoveInstall deletes the install with id and saves. It reports whether
// the install existed.
func (s *Store) RemoveInstall(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, inst := range s.doc.Installs {
		if inst.ID == id {
			s.doc.Installs = append(s.doc.Installs[:i], s.doc.Installs[i+1:]...)
			return true, s.saveLocked()
		}
	}
	return false, nil
}

// ListInstalls returns copies of every install sorted by id.
func (s *Store) ListInstalls() []model.Install {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Install, 0, len(s.doc.Installs))
	for _, inst := range s.doc.Installs {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PutManifest inserts or replaces a manifest record and saves.
func (s *Store) PutManifest(rec model.ManifestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return fmt.Errorf("manifest id cannot be empty")
	}
	for i, m := range s.doc.Manifests {
		if m.ID == rec.ID {
			s.doc.Manifests[i] = &rec
			return s.saveLocked()
		}
	}
	s.doc.Manifests = append(s.doc.Manifests, &rec)
	return s.saveLocked()
}

// ListManifests returns copies of every manifest record sorted by id.
func (s *Store) ListManifests() []model.ManifestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ManifestRecord, 0, len(s.doc.Manifests))
	for _, m := range s.doc.Manifests {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) findInstall(id string) *model.Install {
	for _, inst := range s.doc.Installs {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

func (s *Store) saveLocked() error {
	s.doc.FormatVersion = formatVersion
	s.doc.LastUpdate = time.Now()

	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal: %w", pkgerrors.ErrStoreSave, err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, fsutil.FileModeSecure); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrStoreSave, err)
	}
	return nil
}
