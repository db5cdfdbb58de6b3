package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/adapters/storage"
)

type pageSet map[uuid.UUID]bool

func (p pageSet) PageExists(_ context.Context, id uuid.UUID) (bool, error) {
	return p[id], nil
}

func newTestService(t *testing.T, opts ...ServiceOption) (Service, *MemoryRepository, *storage.FileStore, uuid.UUID) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	pageID := uuid.New()
	repo := NewMemoryRepository()
	base := []ServiceOption{WithPageChecker(pageSet{pageID: true}), WithBaseURL("https://pages.example.com/")}
	return NewService(repo, store, append(base, opts...)...), repo, store, pageID
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	fixed := uuid.MustParse("3f1d2c4b-0000-4000-8000-00000000abcd")
	svc, _, store, pageID := newTestService(t, WithIDGenerator(func() uuid.UUID { return fixed }))

	asset, err := svc.Upload(context.Background(), UploadRequest{
		PageID:   pageID,
		Filename: "Cat Photo.JPEG",
		MimeType: "image/jpeg",
		Size:     4,
		AltText:  " a cat ",
		Body:     strings.NewReader("meow"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	wantName := fixed.String() + ".jpg"
	if asset.StoredFilename != wantName {
		t.Fatalf("unexpected stored name %q", asset.StoredFilename)
	}
	if asset.PublicURL != "https://pages.example.com/assets/"+wantName {
		t.Fatalf("unexpected public url %q", asset.PublicURL)
	}
	if asset.Filename != "Cat Photo.JPEG" || asset.Category != CategoryImage || asset.Size != 4 {
		t.Fatalf("unexpected asset %#v", asset)
	}
	if asset.AltText == nil || *asset.AltText != "a cat" {
		t.Fatalf("expected trimmed alt text, got %v", asset.AltText)
	}
	if asset.Checksum == "" {
		t.Fatal("expected checksum")
	}
	data, err := os.ReadFile(filepath.Join(store.Dir(), wantName))
	if err != nil || string(data) != "meow" {
		t.Fatalf("expected stored bytes, got %q %v", data, err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, _, store, pageID := newTestService(t)
	_, err := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "a.zip", MimeType: "application/zip", Body: strings.NewReader("x"),
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("expected nothing stored, found %d", len(entries))
	}
}

func TestUploadRejectsDeclaredOversize(t *testing.T) {
	svc, _, _, pageID := newTestService(t)
	_, err := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "big.png", MimeType: "image/png", Size: DefaultMaxBytes + 1, Body: strings.NewReader("x"),
	})
	if !errors.Is(err, ErrAssetTooLarge) {
		t.Fatalf("expected ErrAssetTooLarge, got %v", err)
	}
}

func TestUploadRejectsStreamedOversize(t *testing.T) {
	svc, repo, store, pageID := newTestService(t, WithMaxBytes(8))
	_, err := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "big.txt", MimeType: "text/plain", Body: bytes.NewReader(make([]byte, 9)),
	})
	if !errors.Is(err, ErrAssetTooLarge) {
		t.Fatalf("expected ErrAssetTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("expected no stored file, found %d", len(entries))
	}
	if list, _ := repo.ListByPage(context.Background(), pageID); len(list) != 0 {
		t.Fatalf("expected no rows, got %d", len(list))
	}

	if _, err := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "ok.txt", MimeType: "text/plain", Body: bytes.NewReader(make([]byte, 8)),
	}); err != nil {
		t.Fatalf("expected exact limit to pass: %v", err)
	}
}

func TestUploadRequiresExistingPage(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Upload(context.Background(), UploadRequest{
		PageID: uuid.New(), Filename: "a.png", MimeType: "image/png", Body: strings.NewReader("x"),
	})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), UploadRequest{Filename: "a.png", MimeType: "image/png", Body: strings.NewReader("x")}); !errors.Is(err, ErrPageRequired) {
		t.Fatalf("expected ErrPageRequired, got %v", err)
	}
}

func TestListAndRenderRefsKeepCreationOrder(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, pageID := newTestService(t, WithClock(func() time.Time { return clock }))

	for _, name := range []string{"b.png", "a.png", "c.pdf"} {
		mimeType := "image/png"
		if strings.HasSuffix(name, ".pdf") {
			mimeType = "application/pdf"
		}
		if _, err := svc.Upload(context.Background(), UploadRequest{
			PageID: pageID, Filename: name, MimeType: mimeType, Body: strings.NewReader(name),
		}); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	refs, err := svc.RenderRefs(context.Background(), pageID)
	if err != nil {
		t.Fatalf("RenderRefs: %v", err)
	}
	var names []string
	for _, ref := range refs {
		names = append(names, ref.Filename)
		if !strings.HasPrefix(ref.PublicURL, "https://pages.example.com/assets/") {
			t.Fatalf("unexpected url %q", ref.PublicURL)
		}
	}
	if strings.Join(names, ",") != "b.png,a.png,c.pdf" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestDeleteRemovesRowAndFile(t *testing.T) {
	svc, _, store, pageID := newTestService(t)
	asset, err := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "a.png", MimeType: "image/png", Body: strings.NewReader("x"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(context.Background(), asset.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), asset.StoredFilename)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if _, err := svc.Get(context.Background(), asset.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	svc, _, store, pageID := newTestService(t)
	asset, _ := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "a.png", MimeType: "image/png", Body: strings.NewReader("x"),
	})
	_ = os.Remove(filepath.Join(store.Dir(), asset.StoredFilename))
	if err := svc.Delete(context.Background(), asset.ID); err != nil {
		t.Fatalf("Delete with missing file: %v", err)
	}
}

func TestDeleteByPage(t *testing.T) {
	svc, _, store, pageID := newTestService(t)
	for i := 0; i < 2; i++ {
		if _, err := svc.Upload(context.Background(), UploadRequest{
			PageID: pageID, Filename: "f.txt", MimeType: "text/plain", Body: strings.NewReader("x"),
		}); err != nil {
			t.Fatalf("Upload: %v", err)
		}
	}
	if err := svc.DeleteByPage(context.Background(), pageID); err != nil {
		t.Fatalf("DeleteByPage: %v", err)
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("expected files removed, found %d", len(entries))
	}
	if list, _ := svc.List(context.Background(), pageID); len(list) != 0 {
		t.Fatalf("expected rows removed, got %d", len(list))
	}
}

func TestOpenServesByBaseName(t *testing.T) {
	svc, _, _, pageID := newTestService(t)
	asset, _ := svc.Upload(context.Background(), UploadRequest{
		PageID: pageID, Filename: "doc.pdf", MimeType: "application/pdf", Body: strings.NewReader("%PDF"),
	})

	f, err := svc.Open(context.Background(), "../../"+asset.StoredFilename)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "%PDF" || f.ContentType != "application/pdf" || f.Size != 4 {
		t.Fatalf("unexpected file %q %q %d", data, f.ContentType, f.Size)
	}

	if _, err := svc.Open(context.Background(), "missing.png"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Open(context.Background(), ".."); !IsNotFound(err) {
		t.Fatalf("expected not found for traversal, got %v", err)
	}
}
