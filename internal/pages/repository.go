package pages

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListOptions pages through records newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// PageRepository persists pages and their view log.
type PageRepository interface {
	Create(ctx context.Context, record *Page) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]*Page, int, error)
	Update(ctx context.Context, record *Page) (*Page, error)
	// IncrementViewCount bumps the counter atomically and returns the new
	// value.
	IncrementViewCount(ctx context.Context, id uuid.UUID) (int64, error)
	RecordView(ctx context.Context, view *PageView) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewPageRepository returns the go-repository-bun handlers for pages.
func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Slug
		},
	})
}
