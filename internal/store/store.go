// Package store persists session artifacts as plain files under one
// directory per session.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrPersistence wraps every write failure so callers can tell disk errors
// apart from backend errors.
var ErrPersistence = errors.New("persistence failure")

// ErrInvalidID is returned for IDs that would escape the sessions root.
var ErrInvalidID = errors.New("invalid session id")

// Artifact names one persisted file of a session.
type Artifact string

const (
	Title      Artifact = "title"
	Transcript Artifact = "transcript"
	Summary    Artifact = "summary"
	Recording  Artifact = "recording"
	// Chunk is the temporary export of the audio currently being transcribed.
	Chunk Artifact = "chunk"
)

// FileName returns the artifact's file name inside a session directory.
func (a Artifact) FileName() string {
	switch a {
	case Recording:
		return "recording.wav"
	case Chunk:
		return "chunk.wav"
	default:
		return string(a) + ".txt"
	}
}

// Store reads and writes session artifacts below a root directory.
type Store struct {
	root string
}

// New returns a store rooted at root. The directory is created lazily.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the sessions directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a session.
func (s *Store) Dir(id ID) string {
	return filepath.Join(s.root, string(id))
}

// Path returns the file path of an artifact.
func (s *Store) Path(id ID, a Artifact) string {
	return filepath.Join(s.Dir(id), a.FileName())
}

// maxSuffix bounds the search for a free directory name in Create.
const maxSuffix = 100

// Create makes the directory of a new session. When id is already taken a
// numeric suffix is appended (2024_01_01_10_00_00_2 and so on) so two
// sessions started within the same second never share artifacts. The ID
// actually created is returned; on failure id itself is returned with the
// error.
func (s *Store) Create(id ID) (ID, error) {
	if err := validate(id); err != nil {
		return id, err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return id, fmt.Errorf("%w: create sessions dir: %v", ErrPersistence, err)
	}

	candidate := id
	for n := 2; n <= maxSuffix; n++ {
		err := os.Mkdir(s.Dir(candidate), 0o755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return id, fmt.Errorf("%w: create session dir: %v", ErrPersistence, err)
		}
		candidate = ID(fmt.Sprintf("%s_%d", id, n))
	}
	return id, fmt.Errorf("%w: no free directory for %s", ErrPersistence, id)
}

// Save overwrites an artifact with content, creating the session directory
// when needed. The new content is written to a temporary file and renamed
// over the old one.
func (s *Store) Save(id ID, a Artifact, content string) error {
	if err := validate(id); err != nil {
		return err
	}

	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create session dir: %v", ErrPersistence, err)
	}

	path := s.Path(id, a)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, a, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", ErrPersistence, a, err)
	}
	return nil
}

// Load returns an artifact's content. A missing artifact or session yields
// an empty string and no error.
func (s *Store) Load(id ID, a Artifact) (string, error) {
	if err := validate(id); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.Path(id, a))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", a, err)
	}
	return string(data), nil
}

// Exists reports whether an artifact file is present.
func (s *Store) Exists(id ID, a Artifact) bool {
	if validate(id) != nil {
		return false
	}
	_, err := os.Stat(s.Path(id, a))
	return err == nil
}

// Remove deletes an artifact if present.
func (s *Store) Remove(id ID, a Artifact) error {
	if err := validate(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id, a)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrPersistence, a, err)
	}
	return nil
}

// List returns the IDs of all session directories, most recent first.
// Directory names that are not timestamps are returned unchanged.
func (s *Store) List() ([]ID, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	var ids []ID
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, ID(e.Name()))
		}
	}

	// Timestamp IDs are zero-padded, so lexical order is chronological.
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] > ids[j]
	})
	return ids, nil
}

func validate(id ID) error {
	name := string(id)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, name)
	}
	return nil
}
