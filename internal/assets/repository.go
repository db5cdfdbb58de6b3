package assets

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists asset rows.
type Repository interface {
	Create(ctx context.Context, record *Asset) (*Asset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetByStoredFilename(ctx context.Context, name string) (*Asset, error)
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]*Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPage(ctx context.Context, pageID uuid.UUID) ([]*Asset, error)
}

// NewAssetRepository returns the go-repository-bun handlers for assets.
func NewAssetRepository(db *bun.DB) repository.Repository[*Asset] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Asset]{
		NewRecord: func() *Asset { return &Asset{} },
		GetID: func(a *Asset) uuid.UUID {
			return a.ID
		},
		SetID: func(a *Asset, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "stored_filename"
		},
		GetIdentifierValue: func(a *Asset) string {
			return a.StoredFilename
		},
	})
}
