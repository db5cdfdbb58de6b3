package pages

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryPageRepository is an in-memory page store for tests and previews.
type MemoryPageRepository struct {
	mu        sync.RWMutex
	pages     map[uuid.UUID]*Page
	slugIndex map[string]uuid.UUID
	views     map[uuid.UUID][]*PageView
}

// NewMemoryPageRepository constructs the repository.
func NewMemoryPageRepository() *MemoryPageRepository {
	return &MemoryPageRepository{
		pages:     make(map[uuid.UUID]*Page),
		slugIndex: make(map[string]uuid.UUID),
		views:     make(map[uuid.UUID][]*PageView),
	}
}

// Create inserts the page, failing with ErrSlugExists on a taken slug.
func (m *MemoryPageRepository) Create(_ context.Context, record *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slugIndex[record.Slug]; taken {
		return nil, ErrSlugExists
	}
	copied := clonePage(record)
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.pages[copied.ID] = copied
	m.slugIndex[copied.Slug] = copied.ID
	return clonePage(copied), nil
}

func (m *MemoryPageRepository) GetByID(_ context.Context, id uuid.UUID) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[id]
	if !ok {
		return nil, &NotFoundError{Resource: "page", Key: id.String()}
	}
	return clonePage(page), nil
}

func (m *MemoryPageRepository) GetBySlug(_ context.Context, slug string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.slugIndex[slug]
	if !ok {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	return clonePage(m.pages[id]), nil
}

func (m *MemoryPageRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.slugIndex[slug]
	return ok, nil
}

// List returns pages newest first along with the total count.
func (m *MemoryPageRepository) List(_ context.Context, opts ListOptions) ([]*Page, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*Page, 0, len(m.pages))
	for _, page := range m.pages {
		all = append(all, clonePage(page))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	return all[start:end], total, nil
}

// Update replaces the mutable fields of an existing page.
func (m *MemoryPageRepository) Update(_ context.Context, record *Page) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.pages[record.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "page", Key: record.ID.String()}
	}
	if record.Slug != current.Slug {
		if _, taken := m.slugIndex[record.Slug]; taken {
			return nil, ErrSlugExists
		}
		delete(m.slugIndex, current.Slug)
		m.slugIndex[record.Slug] = record.ID
	}

	updated := clonePage(current)
	updated.Title = record.Title
	updated.Slug = record.Slug
	updated.Content = record.Content
	updated.Description = cloneString(record.Description)
	updated.IsPublic = record.IsPublic
	updated.IsActive = record.IsActive
	updated.UpdatedAt = record.UpdatedAt
	m.pages[record.ID] = updated
	return clonePage(updated), nil
}

func (m *MemoryPageRepository) IncrementViewCount(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		return 0, &NotFoundError{Resource: "page", Key: id.String()}
	}
	page.ViewCount++
	return page.ViewCount, nil
}

func (m *MemoryPageRepository) RecordView(_ context.Context, view *PageView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[view.PageID]; !ok {
		return &NotFoundError{Resource: "page", Key: view.PageID.String()}
	}
	copied := *view
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.views[view.PageID] = append(m.views[view.PageID], &copied)
	return nil
}

// Views returns the recorded visits of a page.
func (m *MemoryPageRepository) Views(pageID uuid.UUID) []*PageView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*PageView, 0, len(m.views[pageID]))
	for _, view := range m.views[pageID] {
		copied := *view
		out = append(out, &copied)
	}
	return out
}

func (m *MemoryPageRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		return &NotFoundError{Resource: "page", Key: id.String()}
	}
	delete(m.slugIndex, page.Slug)
	delete(m.pages, id)
	delete(m.views, id)
	return nil
}
