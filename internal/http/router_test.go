package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-mdpages/internal/adapters/storage"
	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/internal/metrics"
	"github.com/goliatone/go-mdpages/internal/pages"
)

const (
	testSessionKey = "0123456789abcdef0123456789abcdef"
	adminEmail     = "admin@example.com"
	adminPassword  = "correct horse battery"
)

type testSite struct {
	handler http.Handler
	pages   pages.Service
	cookie  *http.Cookie
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	var pageSvc pages.Service
	assetSvc := assets.NewService(assets.NewMemoryRepository(), store,
		assets.WithPageChecker(assets.PageCheckerFunc(func(ctx context.Context, id uuid.UUID) (bool, error) {
			return pageSvc.PageExists(ctx, id)
		})),
		assets.WithMaxBytes(16),
	)
	pageSvc = pages.NewService(pages.NewMemoryPageRepository(),
		pages.WithRenderer(markdown.NewRenderer()),
		pages.WithCatalog(assetSvc),
	)

	users := auth.NewMemoryUserStore()
	authSvc := auth.NewService(users, auth.WithBcryptCost(bcrypt.MinCost))
	if _, err := authSvc.EnsureAdmin(ctx, adminEmail, adminPassword); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	sessions, err := auth.NewSessions(testSessionKey, users)
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}

	handler, err := NewRouter(Deps{
		Pages:         pageSvc,
		Assets:        assetSvc,
		Auth:          authSvc,
		Sessions:      sessions,
		Metrics:       metrics.New(),
		MaxAssetBytes: 16,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testSite{handler: handler, pages: pageSvc}
}

func (s *testSite) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testSite) login(t *testing.T) {
	t.Helper()
	body := strings.NewReader(`{"email":"` + adminEmail + `","password":"` + adminPassword + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", body)
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login: expected session cookie")
	}
	s.cookie = cookies[0]
}

func multipartRequest(t *testing.T, path, filename, contentType string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	site := newTestSite(t)
	rec := site.do(t, httptest.NewRequest(http.MethodGet, "/admin/api/pages", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"admin@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := site.do(t, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestUploadViewAndAssetFlow(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	md := []byte("# Cats\n\n![cat](cat.png)\n")
	rec := site.do(t, multipartRequest(t, "/admin/api/pages", "Cat Facts.md", "text/markdown", md, map[string]string{
		"description": "All about cats",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var created pageCreatedResponse
	decodeBody(t, rec, &created)
	if created.Slug != "cat-facts" || !strings.HasSuffix(created.URL, "/pages/cat-facts") {
		t.Fatalf("unexpected create response %#v", created)
	}

	assetPath := "/admin/api/pages/" + created.ID.String() + "/assets"
	rec = site.do(t, multipartRequest(t, assetPath, "cat.png", "image/png", []byte("png!"), map[string]string{"altText": "a cat"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload asset: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		Asset assets.Asset `json:"asset"`
	}
	decodeBody(t, rec, &uploaded)

	rec = site.do(t, httptest.NewRequest(http.MethodGet, "/pages/cat-facts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("view: expected 200, got %d", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, `src="`+uploaded.Asset.PublicURL+`"`) || !strings.Contains(html, "<title>Cat Facts</title>") {
		t.Fatalf("unexpected page html %s", html)
	}

	rec = site.do(t, httptest.NewRequest(http.MethodGet, uploaded.Asset.PublicURL, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png!" {
		t.Fatalf("asset: expected bytes, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" || rec.Header().Get("Cache-Control") != "public, max-age=31536000" {
		t.Fatalf("unexpected asset headers %v", rec.Header())
	}

	site.do(t, httptest.NewRequest(http.MethodGet, "/pages/cat-facts?preview", nil))
	page, err := site.pages.Get(context.Background(), created.ID)
	if err != nil || page.ViewCount != 1 {
		t.Fatalf("expected one counted view, got %v %v", page, err)
	}

	rec = site.do(t, httptest.NewRequest(http.MethodGet, assetPath, nil))
	var listed struct {
		Assets []assets.Asset `json:"assets"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Assets) != 1 || listed.Assets[0].Filename != "cat.png" {
		t.Fatalf("unexpected asset list %#v", listed)
	}

	rec = site.do(t, httptest.NewRequest(http.MethodDelete, "/admin/api/pages/"+created.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := site.do(t, httptest.NewRequest(http.MethodGet, uploaded.Asset.PublicURL, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("asset should be gone, got %d", rec.Code)
	}
	if rec := site.do(t, httptest.NewRequest(http.MethodGet, "/pages/cat-facts", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("page should be gone, got %d", rec.Code)
	}
}

func TestUploadErrorsMapToStatus(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	rec := site.do(t, multipartRequest(t, "/admin/api/pages", "notes.txt", "text/plain", []byte("x"), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-markdown, got %d", rec.Code)
	}

	rec = site.do(t, multipartRequest(t, "/admin/api/pages", "page.md", "", []byte("x"), nil))
	var created pageCreatedResponse
	decodeBody(t, rec, &created)
	assetPath := "/admin/api/pages/" + created.ID.String() + "/assets"

	cases := []struct {
		name        string
		filename    string
		contentType string
		body        []byte
		want        int
	}{
		{name: "unsupported", filename: "a.zip", contentType: "application/zip", body: []byte("zip"), want: http.StatusUnsupportedMediaType},
		{name: "too large", filename: "big.png", contentType: "image/png", body: bytes.Repeat([]byte("x"), 32), want: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		rec := site.do(t, multipartRequest(t, assetPath, tc.filename, tc.contentType, tc.body, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
		var payload errorResponse
		decodeBody(t, rec, &payload)
		if payload.Error == "" {
			t.Fatalf("%s: expected error code", tc.name)
		}
	}

	missing := "/admin/api/pages/00000000-0000-4000-8000-000000000000/assets"
	if rec := site.do(t, multipartRequest(t, missing, "a.png", "image/png", []byte("x"), nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing page, got %d", rec.Code)
	}
}

func TestUpdateSlugConflictAndPreview(t *testing.T) {
	site := newTestSite(t)
	site.login(t)
	ctx := context.Background()
	first, _ := site.pages.Create(ctx, pages.CreatePageRequest{Filename: "first.md"})
	second, _ := site.pages.Create(ctx, pages.CreatePageRequest{Filename: "second.md"})

	req := httptest.NewRequest(http.MethodPut, "/admin/api/pages/"+second.ID.String(), strings.NewReader(`{"slug":"`+first.Slug+`"}`))
	if rec := site.do(t, req); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/admin/api/pages/"+second.ID.String(), strings.NewReader(`{"title":"Renamed","isPublic":false}`))
	rec := site.do(t, req)
	var updated pages.Page
	decodeBody(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.Title != "Renamed" || updated.IsPublic {
		t.Fatalf("unexpected update %d %#v", rec.Code, updated)
	}
	if rec := site.do(t, httptest.NewRequest(http.MethodGet, "/pages/"+second.Slug, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("private page should 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/api/preview", strings.NewReader(`{"content":"**bold**"}`))
	rec = site.do(t, req)
	var preview map[string]string
	decodeBody(t, rec, &preview)
	if !strings.Contains(preview["html"], "<strong>bold</strong>") {
		t.Fatalf("unexpected preview %#v", preview)
	}

	rec = site.do(t, httptest.NewRequest(http.MethodGet, "/admin/api/pages?limit=1", nil))
	var dash dashboardResponse
	decodeBody(t, rec, &dash)
	if dash.Total != 2 || len(dash.Pages) != 1 {
		t.Fatalf("unexpected dashboard %#v", dash)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	site := newTestSite(t)
	site.do(t, httptest.NewRequest(http.MethodGet, "/pages/missing", nil))
	rec := site.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `route="/pages/{slug}",status="404"`) {
		t.Fatalf("expected page route in metrics, got %s", body)
	}
}

func TestNewRouterRequiresServices(t *testing.T) {
	if _, err := NewRouter(Deps{}); err != ErrPagesRequired {
		t.Fatalf("expected ErrPagesRequired, got %v", err)
	}
}
