package clips

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when no clip exists for the requested id
var ErrNotFound = errors.New("clip not found")

// Clip is a stored reference clip: raw bytes plus the MIME type inferred
// from how it was stored.
type Clip struct {
	ID   string
	Data []byte
	MIME string
}

// Store resolves reference clip ids to audio bytes. The analysis service
// does not own clip management; this is its read-only view of whatever
// system does.
type Store interface {
	Get(ctx context.Context, id string) (*Clip, error)
}

// FilesystemStore serves clips from a directory, one file per clip named
// <id>.<ext>. Ids are restricted to a safe character set so a crafted id
// cannot escape the clips directory.
type FilesystemStore struct {
	dir string
}

// NewFilesystemStore creates a store rooted at dir
func NewFilesystemStore(dir string) *FilesystemStore {
	return &FilesystemStore{dir: dir}
}

var extensionMIME = map[string]string{
	".mp3": "audio/mpeg",
	".mp4": "audio/mp4",
	".m4a": "audio/mp4",
	".wav": "audio/wav",
}

func safeID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Get looks the clip up by trying each known extension
func (s *FilesystemStore) Get(ctx context.Context, id string) (*Clip, error) {
	if !safeID(id) {
		return nil, ErrNotFound
	}

	for ext, mime := range extensionMIME {
		path := filepath.Join(s.dir, id+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading clip %s: %w", id, err)
		}
		return &Clip{ID: id, Data: data, MIME: mime}, nil
	}

	return nil, ErrNotFound
}

// List returns the ids of every clip in the directory, for startup logging
func (s *FilesystemStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading clips directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := extensionMIME[ext]; ok {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	return ids, nil
}

// MemoryStore is an in-memory Store for tests
type MemoryStore struct {
	mu    sync.RWMutex
	clips map[string]*Clip
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clips: make(map[string]*Clip)}
}

// Put stores a clip
func (s *MemoryStore) Put(clip *Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[clip.ID] = clip
}

// Get returns a stored clip or ErrNotFound
func (s *MemoryStore) Get(ctx context.Context, id string) (*Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clip, ok := s.clips[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clip, nil
}
