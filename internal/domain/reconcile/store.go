package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is an identity that was minted but whose record never reached the
// registry
type Entry struct {
	Subject    string    `json:"subject"`
	NaturalKey string    `json:"naturalKey,omitempty"`
	TxHash     string    `json:"txHash"`
	Error      string    `json:"error"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Store keeps unsynced identities until an operator reconciles them
type Store interface {
	// Record upserts an entry keyed by subject
	Record(ctx context.Context, entry Entry) error
	// Resolve removes subject once its record is synced
	Resolve(ctx context.Context, subject string) error
	// Lookup returns the oldest entry minted for naturalKey
	Lookup(ctx context.Context, naturalKey string) (Entry, bool, error)
	// List returns entries, oldest first
	List(ctx context.Context) ([]Entry, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Record(_ context.Context, entry Entry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Subject] = entry
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, subject)
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, naturalKey string) (Entry, bool, error) {
	if naturalKey == "" {
		return Entry{}, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found Entry
	ok := false
	for _, e := range s.entries {
		if e.NaturalKey != naturalKey {
			continue
		}
		if !ok || older(e, found) {
			found, ok = e, true
		}
	}
	return found, ok, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return older(out[i], out[j]) })
	return out, nil
}

func older(a, b Entry) bool {
	if a.RecordedAt.Equal(b.RecordedAt) {
		return a.Subject < b.Subject
	}
	return a.RecordedAt.Before(b.RecordedAt)
}

func (s *MemoryStore) Close() error { return nil }
