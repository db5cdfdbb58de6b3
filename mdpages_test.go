package mdpages_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-mdpages"
	"github.com/goliatone/go-mdpages/internal/logging/console"
)

func newModule(t *testing.T) *mdpages.Module {
	t.Helper()
	cfg := mdpages.DefaultConfig()
	cfg.Assets.Dir = filepath.Join(t.TempDir(), "uploads")
	cfg.Assets.BaseURL = "https://pages.example.com"

	quiet := console.LevelError
	module, err := mdpages.New(context.Background(), cfg,
		mdpages.WithMemoryStorage(),
		mdpages.WithLoggerProvider(console.NewProvider(console.Options{Writer: &strings.Builder{}, MinLevel: &quiet})),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestModulePublishesPageWithAsset(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	page, err := module.Pages().Create(ctx, mdpages.CreatePageRequest{
		Filename: "Trip Report.md",
		Content:  "# Trip\n\n![map](map.png)\n",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	asset, err := module.Assets().Upload(ctx, mdpages.UploadRequest{
		PageID:   page.ID,
		Filename: "map.png",
		MimeType: "image/png",
		Body:     strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	rendered, err := module.Pages().View(ctx, page.Slug, mdpages.ViewOptions{Preview: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !strings.Contains(rendered.HTML, asset.PublicURL) {
		t.Fatalf("expected asset URL in %q", rendered.HTML)
	}
	if !strings.HasPrefix(asset.PublicURL, "https://pages.example.com/assets/") {
		t.Fatalf("unexpected public url %q", asset.PublicURL)
	}

	handler, err := module.Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/trip-report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := mdpages.DefaultConfig()
	cfg.Slugs.Fallback = "random"
	if _, err := mdpages.New(context.Background(), cfg, mdpages.WithMemoryStorage()); !errors.Is(err, mdpages.ErrSlugFallbackUnknown) {
		t.Fatalf("expected ErrSlugFallbackUnknown, got %v", err)
	}
}
