package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/internal/pages"
)

const multipartMemory = 8 << 20

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type pageUpdatePayload struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

type previewPayload struct {
	Content string     `json:"content"`
	PageID  *uuid.UUID `json:"pageId,omitempty"`
}

type pageCreatedResponse struct {
	Success bool        `json:"success"`
	ID      uuid.UUID   `json:"id"`
	Slug    string      `json:"slug"`
	URL     string      `json:"url"`
	Title   string      `json:"title"`
	Page    *pages.Page `json:"page"`
}

type dashboardResponse struct {
	Pages []*pages.Page `json:"pages"`
	Total int           `json:"total"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &payload); err != nil {
			badRequest(w, "invalid login payload")
			return
		}
	} else {
		payload.Email = r.FormValue("email")
		payload.Password = r.FormValue("password")
	}

	user, err := s.auth.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.WithContext(r.Context()).Error("http.login.failed", "error", err)
		}
		writeError(w, err)
		return
	}
	if err := s.sessions.Login(w, r, user); err != nil {
		s.logger.WithContext(r.Context()).Error("http.login.session_failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	list, total, err := s.pages.Dashboard(r.Context(), parseIntQuery(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*pages.Page{}
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Pages: list, Total: total})
}

func (s *server) handlePageCreate(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r, s.maxPageBytes)
	if !ok {
		return
	}
	defer file.Close()

	if !pages.IsMarkdownFilename(header.Filename) {
		badRequest(w, "only .md files allowed")
		return
	}
	content, err := io.ReadAll(io.LimitReader(file, s.maxPageBytes+1))
	if err != nil {
		writeError(w, err)
		return
	}
	if int64(len(content)) > s.maxPageBytes {
		writeError(w, errPayloadTooLarge)
		return
	}

	req := pages.CreatePageRequest{
		Filename:    header.Filename,
		Content:     string(content),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if raw := r.FormValue("isPublic"); strings.TrimSpace(raw) != "" {
		public := parseBoolField(raw, true)
		req.IsPublic = &public
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		id := user.ID
		req.UploadedBy = &id
	}

	page, err := s.pages.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pageCreatedResponse{
		Success: true,
		ID:      page.ID,
		Slug:    page.Slug,
		URL:     origin(r) + "/pages/" + page.Slug,
		Title:   page.Title,
		Page:    page,
	})
}

func (s *server) handlePageGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	page, err := s.pages.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *server) handlePageUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var payload pageUpdatePayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, err.Error())
		return
	}
	page, err := s.pages.Update(r.Context(), pages.UpdatePageRequest{
		ID:          id,
		Title:       payload.Title,
		Description: payload.Description,
		Content:     payload.Content,
		Slug:        payload.Slug,
		IsPublic:    payload.IsPublic,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *server) handlePageDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := s.pages.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) handleAssetList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if _, err := s.pages.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	list, err := s.assets.List(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*assets.Asset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "assets": list})
}

func (s *server) handleAssetUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	file, header, ok := s.formFile(w, r, s.maxAssetBytes)
	if !ok {
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || assets.NormalizeMIME(mimeType) == "application/octet-stream" {
		mimeType = assets.ContentType(header.Filename)
	}
	asset, err := s.assets.Upload(r.Context(), assets.UploadRequest{
		PageID:   id,
		Filename: header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		AltText:  r.FormValue("altText"),
		Body:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "asset": asset})
}

func (s *server) handleAssetDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := s.assets.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload previewPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid preview payload")
		return
	}
	var refs []markdown.AssetRef
	if payload.PageID != nil && *payload.PageID != uuid.Nil {
		var err error
		refs, err = s.assets.RenderRefs(r.Context(), *payload.PageID)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	html, err := s.pages.Preview(r.Context(), payload.Content, refs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

// formFile parses a multipart body capped at limit plus framing and returns
// its "file" part. It writes the error response itself.
func (s *server) formFile(w http.ResponseWriter, r *http.Request, limit int64) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, err)
			return nil, nil, false
		}
		badRequest(w, "invalid multipart form")
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "no file uploaded")
		return nil, nil, false
	}
	return file, header, true
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
