package history

import (
	"context"
	"sync"
	"time"

	"github.com/kehngithub111/litalkon/analysis"
)

// Entry is one persisted analysis result
type Entry struct {
	Result    *analysis.Result `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store accepts completed analysis results for later retrieval. Persistence
// is best-effort from the pipeline's point of view: a failed save is logged
// by the caller and never fails the analysis request.
type Store interface {
	Save(ctx context.Context, result *analysis.Result) error
	ListByClip(ctx context.Context, originalClipID string) ([]Entry, error)
}

// MemoryStore keeps the most recent results in memory, bounded so a
// long-running process does not grow without limit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
}

// NewMemoryStore creates a bounded in-memory history store
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryStore{limit: limit}
}

// Save appends a result, evicting the oldest entry at the bound
func (s *MemoryStore) Save(ctx context.Context, result *analysis.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{Result: result, CreatedAt: time.Now()})
	if len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
	}
	return nil
}

// ListByClip returns every stored entry for a reference clip, newest last
func (s *MemoryStore) ListByClip(ctx context.Context, originalClipID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if e.Result.OriginalClipID == originalClipID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
