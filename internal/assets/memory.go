package assets

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory asset store for tests and previews.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Asset
	stored  map[string]uuid.UUID
	order   map[uuid.UUID]int
	seq     int
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[uuid.UUID]*Asset),
		stored:  make(map[string]uuid.UUID),
		order:   make(map[uuid.UUID]int),
	}
}

func (m *MemoryRepository) Create(_ context.Context, record *Asset) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.stored[record.StoredFilename]; exists {
		return nil, ErrStoredNameExists
	}
	copied := cloneAsset(record)
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.seq++
	m.records[copied.ID] = copied
	m.stored[copied.StoredFilename] = copied.ID
	m.order[copied.ID] = m.seq
	return cloneAsset(copied), nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, &NotFoundError{Resource: "asset", Key: id.String()}
	}
	return cloneAsset(record), nil
}

func (m *MemoryRepository) GetByStoredFilename(_ context.Context, name string) (*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.stored[name]
	if !ok {
		return nil, &NotFoundError{Resource: "asset", Key: name}
	}
	return cloneAsset(m.records[id]), nil
}

// ListByPage returns the page's assets in creation order.
func (m *MemoryRepository) ListByPage(_ context.Context, pageID uuid.UUID) ([]*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(pageID), nil
}

func (m *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return &NotFoundError{Resource: "asset", Key: id.String()}
	}
	m.removeLocked(record)
	return nil
}

// DeleteByPage removes every asset of the page and returns what was removed.
func (m *MemoryRepository) DeleteByPage(_ context.Context, pageID uuid.UUID) ([]*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.listLocked(pageID)
	for _, record := range removed {
		m.removeLocked(record)
	}
	return removed, nil
}

func (m *MemoryRepository) listLocked(pageID uuid.UUID) []*Asset {
	out := make([]*Asset, 0)
	for _, record := range m.records {
		if record.PageID == pageID {
			out = append(out, cloneAsset(record))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return m.order[out[i].ID] < m.order[out[j].ID]
	})
	return out
}

func (m *MemoryRepository) removeLocked(record *Asset) {
	delete(m.records, record.ID)
	delete(m.stored, record.StoredFilename)
	delete(m.order, record.ID)
}
