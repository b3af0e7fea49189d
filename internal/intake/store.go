package intake

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/techfest/internal/submission"
)

var (
	// ErrDuplicate is returned by Store.Save when the id is already stored.
	ErrDuplicate = errors.New("intake: registration already stored")
	// ErrNotFound is returned by Store.Get for unknown ids.
	ErrNotFound = errors.New("intake: registration not found")
)

// Record is a stored registration.
type Record struct {
	Payload    submission.Payload `json:"payload"`
	ReceivedAt time.Time          `json:"received_at"`
}

// ID returns the registration id.
func (r Record) ID() string { return r.Payload.ID }

// Store persists accepted registrations.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns the most recent records first.
	List(ctx context.Context, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := strings.TrimSpace(record.ID())
	if id == "" {
		return errors.New("intake: record id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; ok {
		return ErrDuplicate
	}
	m.records[id] = record
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[strings.TrimSpace(id)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

var _ Store = (*MemoryStore)(nil)
