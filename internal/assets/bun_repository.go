package assets

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-mdpages/internal/adapters/sqlerr"
)

// BunRepository stores assets through go-repository-bun.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Asset]
}

// NewBunRepository constructs an uncached repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps reads in go-repository-cache when both
// cache arguments are set.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewAssetRepository(db)
	return &BunRepository{
		db:   db,
		repo: wrapWithCache(base, cacheService, keySerializer),
	}
}

func (r *BunRepository) Create(ctx context.Context, record *Asset) (*Asset, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.repo.Create(ctx, record); err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, ErrStoredNameExists
		}
		if sqlerr.IsForeignKeyViolation(err) {
			return nil, &NotFoundError{Resource: "page", Key: record.PageID.String()}
		}
		return nil, fmt.Errorf("asset repository error: %w", err)
	}
	return r.GetByID(ctx, record.ID)
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Asset, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetByStoredFilename(ctx context.Context, name string) (*Asset, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.stored_filename = ?", name)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, name)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "asset", Key: name}
	}
	return records[0], nil
}

func (r *BunRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]*Asset, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", pageID).
				OrderExpr("?TableAlias.created_at ASC, ?TableAlias.stored_filename ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, pageID.String())
	}
	return records, nil
}

func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, record); err != nil {
		return mapRepositoryError(err, id.String())
	}
	return nil
}

func (r *BunRepository) DeleteByPage(ctx context.Context, pageID uuid.UUID) ([]*Asset, error) {
	var removed []*Asset
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&removed).
			Where("?TableAlias.page_id = ?", pageID).
			OrderExpr("?TableAlias.created_at ASC").
			Scan(ctx); err != nil {
			return fmt.Errorf("select page assets: %w", err)
		}
		if err := r.repo.DeleteManyTx(ctx, tx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("?TableAlias.page_id = ?", pageID)
		}); err != nil {
			return fmt.Errorf("delete page assets: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: "asset", Key: key}
	}
	return fmt.Errorf("asset repository error: %w", err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
