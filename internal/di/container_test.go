package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/logging/gologger"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/internal/runtimeconfig"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

func testConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.Assets.Dir = filepath.Join(t.TempDir(), "uploads")
	return cfg
}

func newContainer(t *testing.T, cfg runtimeconfig.Config, opts ...Option) *Container {
	t.Helper()
	c, err := NewContainer(context.Background(), cfg, append([]Option{WithLoggerProvider(newRecordingProvider())}, opts...)...)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "mysql"
	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestContainerWiresBunStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	rec := newRecordingProvider()
	c := newContainer(t, cfg, WithLoggerProvider(rec))

	if c.BunDB() == nil {
		t.Fatal("expected bun database")
	}
	if _, ok := c.pageRepo.(*pages.BunPageRepository); !ok {
		t.Fatalf("expected bun page repository, got %T", c.pageRepo)
	}
	if c.cacheService == nil || c.keySerializer == nil {
		t.Fatal("expected cache defaults when cache is enabled")
	}

	ctx := context.Background()
	page, err := c.PageService().Create(ctx, pages.CreatePageRequest{Filename: "hello.md", Content: "# Hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if page.Slug != "hello" {
		t.Fatalf("unexpected slug %q", page.Slug)
	}
	if entry := rec.find("storage.configured"); entry == nil || entry.fields["module"] != "mdpages.storage" {
		t.Fatalf("expected storage.configured entry, got %#v", rec.entries)
	}
	if c.Sessions() != nil {
		t.Fatal("expected admin disabled by default")
	}
}

func TestContainerCachedViewPicksUpNewAssets(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	c := newContainer(t, cfg)

	ctx := context.Background()
	page, err := c.PageService().Create(ctx, pages.CreatePageRequest{Filename: "cats.md", Content: "![a](cat.png)"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := c.PageService().View(ctx, page.Slug, pages.ViewOptions{Preview: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if strings.Contains(first.HTML, "/assets/") {
		t.Fatalf("expected unrewritten image before upload, got %s", first.HTML)
	}

	asset, err := c.AssetService().Upload(ctx, assets.UploadRequest{
		PageID:   page.ID,
		Filename: "cat.png",
		MimeType: "image/png",
		Size:     3,
		Body:     strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	second, err := c.PageService().View(ctx, page.Slug, pages.ViewOptions{Preview: true})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !strings.Contains(second.HTML, asset.PublicURL) {
		t.Fatalf("expected %s in cached view, got %s", asset.PublicURL, second.HTML)
	}
}

func TestContainerMemoryStorageServesPages(t *testing.T) {
	cfg := testConfig(t)
	c := newContainer(t, cfg, WithMemoryStorage())
	if c.BunDB() != nil {
		t.Fatal("expected no database in memory mode")
	}

	ctx := context.Background()
	if _, err := c.PageService().Create(ctx, pages.CreatePageRequest{Filename: "intro.md", Content: "# Intro\n\n```go\nfunc main() {}\n```"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	router, err := c.Router()
	if err != nil {
		t.Fatalf("Router: %v", err)
	}
	again, _ := c.Router()
	if again == nil {
		t.Fatal("expected cached router")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/intro", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Intro") {
		t.Fatalf("unexpected page response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "mdpages_page_views_total 1") {
		t.Fatalf("expected counted view in metrics, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected admin routes unmounted, got %d", rec.Code)
	}
}

func TestContainerBootstrapsAdmin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Admin.Email = "Admin@Example.com"
	cfg.Admin.Password = "correct horse"
	cfg.Server.SessionKey = strings.Repeat("s", runtimeconfig.MinSessionKeyLength)
	c := newContainer(t, cfg, WithMemoryStorage())

	if c.Sessions() == nil {
		t.Fatal("expected sessions when admin is configured")
	}
	user, err := c.AuthService().Authenticate(context.Background(), "admin@example.com", "correct horse")
	if err != nil || user == nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if c.Commands() == nil || c.Commands().Import == nil {
		t.Fatal("expected command handlers")
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	c, err := NewContainer(context.Background(), cfg, WithMemoryStorage())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := c.LoggerProvider().(*gologger.Provider); !ok {
		t.Fatalf("expected go-logger provider, got %T", c.LoggerProvider())
	}
}

type recordingProvider struct {
	entries []recordedEntry
}

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{provider: p, fields: map[string]any{"logger": name}}
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	for i := range p.entries {
		if p.entries[i].msg == msg {
			return &p.entries[i]
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	fields   map[string]any
}

func (l *recordingLogger) log(level, msg string, args ...any) {
	fields := make(map[string]any, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.provider.entries = append(l.provider.entries, recordedEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("trace", msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("fatal", msg, args...) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }
