package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
)

// Memory is an in-process registry. It mirrors the remote conflict
// behaviour: a sync that adds no new triple fails with an "already exists"
// error. Used for local development and tests.
type Memory struct {
	mu       sync.RWMutex
	subjects map[string][]Triple
	order    []string
	syncs    int
}

// NewMemory creates an empty in-memory registry
func NewMemory() *Memory {
	return &Memory{subjects: make(map[string][]Triple)}
}

// Sync stores the triples of every subject
func (m *Memory) Sync(ctx context.Context, data map[string]*record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++

	subjects := make([]string, 0, len(data))
	for subject := range data {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	added := 0
	var existing []string
	for _, subject := range subjects {
		if _, ok := m.subjects[subject]; !ok {
			m.subjects[subject] = nil
			m.order = append(m.order, subject)
		}
		data[subject].Each(func(key string, value record.Value) {
			for _, item := range value.Strings() {
				t := Triple{Predicate: key, Object: Atom{Data: item}}
				if m.has(subject, t) {
					existing = append(existing, subject+" "+key)
					continue
				}
				m.subjects[subject] = append(m.subjects[subject], t)
				added++
			}
		})
	}

	if added == 0 && len(existing) > 0 {
		return fmt.Errorf("sync rejected: %w", fmt.Errorf("triple already exists: %s", existing[0]))
	}
	return nil
}

// Search returns subjects holding every criterion. Trusted accounts are not
// tracked in memory and are ignored.
func (m *Memory) Search(ctx context.Context, criteria []Criterion, _ []string) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []SearchResult
	for _, subject := range m.order {
		matched := true
		for _, c := range criteria {
			if !m.has(subject, Triple{Predicate: c.Key, Object: Atom{Data: c.Value}}) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, SearchResult{Subject: subject, Triples: m.copyTriples(subject)})
		}
	}
	return out, nil
}

// GetDetails returns the triples stored for subject
func (m *Memory) GetDetails(ctx context.Context, subject string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.subjects[subject]; !ok {
		return nil, ErrNotFound
	}
	return &Entry{Subject: subject, Triples: m.copyTriples(subject)}, nil
}

// Put stores a triple directly, bypassing conflict detection
func (m *Memory) Put(subject string, triples ...Triple) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[subject]; !ok {
		m.order = append(m.order, subject)
	}
	m.subjects[subject] = append(m.subjects[subject], triples...)
}

// SyncCount returns how many Sync calls were made
func (m *Memory) SyncCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.syncs
}

// Len returns the number of stored subjects
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subjects)
}

func (m *Memory) has(subject string, t Triple) bool {
	for _, existing := range m.subjects[subject] {
		if existing.Predicate == t.Predicate && existing.Object.Data == t.Object.Data {
			return true
		}
	}
	return false
}

func (m *Memory) copyTriples(subject string) []Triple {
	src := m.subjects[subject]
	out := make([]Triple, len(src))
	copy(out, src)
	return out
}
