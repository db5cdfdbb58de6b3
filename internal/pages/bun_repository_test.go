package pages

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/pkg/testsupport"
)

func newBunRepo(t *testing.T) *BunPageRepository {
	t.Helper()
	return NewBunPageRepository(testsupport.NewBunDB(t, (*Page)(nil), (*PageView)(nil)))
}

func seedPage(t *testing.T, repo PageRepository, slug string, createdAt time.Time) *Page {
	t.Helper()
	page, err := repo.Create(context.Background(), &Page{
		ID:        uuid.New(),
		Title:     slug,
		Slug:      slug,
		Content:   "# " + slug,
		IsPublic:  true,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("Create %s: %v", slug, err)
	}
	return page
}

func TestBunPageRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newBunRepo(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	first := seedPage(t, repo, "first", base)
	seedPage(t, repo, "second", base.Add(time.Minute))

	got, err := repo.GetBySlug(ctx, "first")
	if err != nil || got.ID != first.ID {
		t.Fatalf("GetBySlug: %v %#v", err, got)
	}
	if _, err := repo.GetBySlug(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	taken, err := repo.SlugExists(ctx, "second")
	if err != nil || !taken {
		t.Fatalf("expected taken slug, got %v %v", taken, err)
	}
	free, err := repo.SlugExists(ctx, "third")
	if err != nil || free {
		t.Fatalf("expected free slug, got %v %v", free, err)
	}

	list, total, err := repo.List(ctx, ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(list) != 1 || list[0].Slug != "second" {
		t.Fatalf("expected newest first, got %d %#v", total, list)
	}

	got.Title = "First, renamed"
	got.Slug = "first-renamed"
	got.Description = optionalString("about")
	updated, err := repo.Update(ctx, got)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "first-renamed" || updated.Description == nil || *updated.Description != "about" {
		t.Fatalf("unexpected update %#v", updated)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, first.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestBunPageRepositoryUniqueSlug(t *testing.T) {
	repo := newBunRepo(t)
	now := time.Now().UTC()
	seedPage(t, repo, "taken", now)

	_, err := repo.Create(context.Background(), &Page{
		ID: uuid.New(), Title: "Other", Slug: "taken", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestBunPageRepositoryCountsViews(t *testing.T) {
	ctx := context.Background()
	repo := newBunRepo(t)
	page := seedPage(t, repo, "counted", time.Now().UTC())

	for want := int64(1); want <= 3; want++ {
		count, err := repo.IncrementViewCount(ctx, page.ID)
		if err != nil {
			t.Fatalf("IncrementViewCount: %v", err)
		}
		if count != want {
			t.Fatalf("expected %d, got %d", want, count)
		}
	}
	if _, err := repo.IncrementViewCount(ctx, uuid.New()); !IsNotFound(err) {
		t.Fatalf("expected not found for missing page, got %v", err)
	}

	if err := repo.RecordView(ctx, &PageView{PageID: page.ID, VisitorIP: optionalString("127.0.0.1"), ViewedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	stored, err := repo.GetByID(ctx, page.ID)
	if err != nil || stored.ViewCount != 3 {
		t.Fatalf("expected stored count 3, got %v %v", stored, err)
	}
}

func TestMemoryPageRepositoryUniqueSlug(t *testing.T) {
	repo := NewMemoryPageRepository()
	now := time.Now().UTC()
	seedPage(t, repo, "taken", now)
	other := seedPage(t, repo, "other", now)

	if _, err := repo.Create(context.Background(), &Page{Slug: "taken"}); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists on create, got %v", err)
	}
	other.Slug = "taken"
	if _, err := repo.Update(context.Background(), other); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists on update, got %v", err)
	}
}

func TestCachedBunPageRepositorySeesWrites(t *testing.T) {
	ctx := context.Background()
	cacheService, serializer := testsupport.NewCache(t)
	repo := NewBunPageRepositoryWithCache(testsupport.NewBunDB(t, (*Page)(nil), (*PageView)(nil)), cacheService, serializer)

	if _, err := repo.GetBySlug(ctx, "late"); !IsNotFound(err) {
		t.Fatalf("expected not found before create, got %v", err)
	}
	if _, total, err := repo.List(ctx, ListOptions{Limit: 10}); err != nil || total != 0 {
		t.Fatalf("expected empty dashboard, got %d %v", total, err)
	}

	created := seedPage(t, repo, "late", time.Now().UTC())

	got, err := repo.GetBySlug(ctx, "late")
	if err != nil || got.ID != created.ID {
		t.Fatalf("expected page after create, got %v %v", got, err)
	}
	list, total, err := repo.List(ctx, ListOptions{Limit: 10})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("expected page on dashboard, got %d %v", total, err)
	}

	if _, err := repo.Create(ctx, &Page{
		ID: uuid.New(), Title: "Dup", Slug: "late", IsActive: true, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists through cache, got %v", err)
	}
}

func TestBunPageRepositoryConcurrentViews(t *testing.T) {
	ctx := context.Background()
	repo := newBunRepo(t)
	page := seedPage(t, repo, "busy", time.Now().UTC())

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementViewCount(ctx, page.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementViewCount: %v", err)
	}

	stored, err := repo.GetByID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ViewCount != workers {
		t.Fatalf("expected %d views, got %d", workers, stored.ViewCount)
	}
}
