package pages

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

// BunPageRepository stores pages through go-repository-bun. Reads may be
// served from go-repository-cache; counters and existence checks always hit
// the database.
type BunPageRepository struct {
	db   *bun.DB
	repo repository.Repository[*Page]
}

func NewBunPageRepository(db *bun.DB) *BunPageRepository {
	return NewBunPageRepositoryWithCache(db, nil, nil)
}

// NewBunPageRepositoryWithCache constructs a PageRepository backed by bun with optional caching.
func NewBunPageRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunPageRepository {
	return &BunPageRepository{
		db:   db,
		repo: wrapWithCache(NewPageRepository(db), cacheService, keySerializer),
	}
}

func (r *BunPageRepository) Create(ctx context.Context, record *Page) (*Page, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	// Writes go through the cached repository so list and slug reads are
	// evicted.
	if _, err := r.repo.Create(ctx, record); err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, fmt.Errorf("page repository error: %w", err)
	}
	return r.GetByID(ctx, record.ID)
}

func (r *BunPageRepository) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	result, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return result, nil
}

func (r *BunPageRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	return records[0], nil
}

func (r *BunPageRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Page)(nil)).
		Where("?TableAlias.slug = ?", slug).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("page slug lookup: %w", err)
	}
	return exists, nil
}

func (r *BunPageRepository) List(ctx context.Context, opts ListOptions) ([]*Page, int, error) {
	newestFirst := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC")
	})
	var (
		records []*Page
		total   int
		err     error
	)
	if opts.Limit > 0 {
		records, total, err = r.repo.List(ctx, newestFirst, repository.SelectPaginate(opts.Limit, max(opts.Offset, 0)))
	} else {
		records, total, err = r.repo.List(ctx, newestFirst)
	}
	if err != nil {
		return nil, 0, mapRepositoryError(err, "")
	}
	return records, total, nil
}

func (r *BunPageRepository) Update(ctx context.Context, record *Page) (*Page, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"title",
			"slug",
			"content",
			"description",
			"is_public",
			"is_active",
			"updated_at",
		),
	)
	if err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, mapRepositoryError(err, record.ID.String())
	}
	return updated, nil
}

func (r *BunPageRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*Page)(nil)).
			Set("view_count = view_count + 1").
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("increment view count: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("view count rows affected: %w", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "page", Key: id.String()}
		}
		return tx.NewSelect().
			Model((*Page)(nil)).
			Column("view_count").
			Where("?TableAlias.id = ?", id).
			Scan(ctx, &count)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BunPageRepository) RecordView(ctx context.Context, view *PageView) error {
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(view).Exec(ctx); err != nil {
		if sqlerr.IsForeignKeyViolation(err) {
			return &NotFoundError{Resource: "page", Key: view.PageID.String()}
		}
		return fmt.Errorf("record page view: %w", err)
	}
	return nil
}

// Delete removes the page with its view log. Asset rows cascade. The page
// row goes through the repository so cached reads are evicted.
func (r *BunPageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.db.NewDelete().
		Model((*PageView)(nil)).
		Where("?TableAlias.page_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete page views: %w", err)
	}
	if err := r.repo.Delete(ctx, record); err != nil {
		return mapRepositoryError(err, id.String())
	}
	return nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: "page", Key: key}
	}
	return fmt.Errorf("page repository error: %w", err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
