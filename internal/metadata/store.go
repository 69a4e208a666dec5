package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"dccpipe/internal/fileutil"
	"dccpipe/internal/logging"
	"dccpipe/internal/services"
)

var versionKeyPattern = regexp.MustCompile(`^rsv[0-9]+$`)

// Load reads a manifest. A missing file is ErrNotFound; an empty file yields
// Default().
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "metadata", "load", path, nil)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Default(), nil
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "metadata", "parse", path, err)
	}
	doc.ensureCollections()
	return &doc, nil
}

// Save writes doc to path atomically: the YAML goes to a temporary file in the
// same directory, is synced, and then renamed over path.
func Save(doc *Document, path string) error {
	if doc == nil {
		return errors.New("manifest is nil")
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// Store provides synchronized, write-through access to one manifest.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	doc    *Document
}

// Open loads the manifest at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := newStore(path, doc, logger)
	if keys := s.MalformedVersionKeys(); len(keys) > 0 {
		logging.WarnWithContext(s.logger, "manifest contains malformed render version keys", "manifest_malformed_versions",
			logging.String("path", path),
			logging.Strings("keys", keys),
			logging.String(logging.FieldErrorHint, "rename or remove the keys under renders"),
			logging.String(logging.FieldImpact, "malformed keys are ignored when allocating new versions"),
		)
	}
	if issues := s.ShotIssues(); len(issues) > 0 {
		logging.WarnWithContext(s.logger, "manifest shot list is inconsistent", "manifest_invalid_shots",
			logging.String("path", path),
			logging.Strings("issues", issues),
			logging.String(logging.FieldErrorHint, "edit shots and shot_struct or re-add the shots with dccpipe shot"),
			logging.String(logging.FieldImpact, "renders of the affected shots may fail or cover the wrong frames"),
		)
	}
	return s, nil
}

// Create persists doc at path and returns a store for it.
func Create(path string, doc *Document, logger *slog.Logger) (*Store, error) {
	if doc == nil {
		doc = Default()
	}
	doc = doc.Clone()
	if err := Save(doc, path); err != nil {
		return nil, err
	}
	return newStore(path, doc, logger), nil
}

func newStore(path string, doc *Document, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "metadata"),
		doc:    doc,
	}
}

// Reload replaces the in-memory document with the manifest currently on disk.
// Callers that hold the project lock use it to pick up writes made by other
// handles before the lock was taken.
func (s *Store) Reload() error {
	doc, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// Path returns the manifest location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// View calls fn with the current document under a read lock. fn must not
// retain or modify doc.
func (s *Store) View(fn func(doc *Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Update applies fn to a copy of the document and saves it. The in-memory
// document is replaced only after the save succeeds; if fn or the save fails
// both memory and disk keep their previous state.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := Save(next, s.path); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}
	s.doc = next
	return nil
}

// SetSceneFiles replaces the scene file list.
func (s *Store) SetSceneFiles(files ...string) error {
	return s.Update(func(doc *Document) error {
		doc.SceneFiles = NewSceneFiles(files...)
		return nil
	})
}

// MalformedVersionKeys lists keys under renders that are not rsv<digits>.
func (s *Store) MalformedVersionKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for id := range s.doc.Renders {
		if !versionKeyPattern.MatchString(id) {
			keys = append(keys, id)
		}
	}
	slices.Sort(keys)
	return keys
}
