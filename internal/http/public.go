package http

import (
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/pages"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
</head>
<body>
<article class="markdown-body">
{{.Body}}
</article>
</body>
</html>
`))

type pageDocument struct {
	Title       string
	Description string
	Body        template.HTML
}

func (s *server) handlePageView(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	_, preview := r.URL.Query()["preview"]

	rendered, err := s.pages.View(r.Context(), slug, pages.ViewOptions{
		Preview:   preview,
		VisitorIP: clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})
	if err != nil {
		if pages.IsNotFound(err) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		s.logger.WithContext(r.Context()).Error("http.page_view.failed", "slug", slug, "error", err)
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	}

	doc := pageDocument{
		Title: rendered.Page.Title,
		Body:  template.HTML(rendered.HTML),
	}
	if rendered.Page.Description != nil {
		doc.Description = *rendered.Page.Description
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, doc); err != nil {
		s.logger.WithContext(r.Context()).Warn("http.page_view.write_failed", "slug", slug, "error", err)
	}
}

// handleAsset serves stored bytes. Every failure is a plain 404.
func (s *server) handleAsset(w http.ResponseWriter, r *http.Request) {
	file, err := s.assets.Open(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		if !assets.IsNotFound(err) {
			s.logger.WithContext(r.Context()).Warn("http.asset.open_failed", "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	if _, err := io.Copy(w, file); err != nil {
		s.logger.WithContext(r.Context()).Debug("http.asset.copy_failed", "name", file.Name, "error", err)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
