package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/internal/slugs"
)

var errPayloadTooLarge = errors.New("http: request body too large")

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if pages.IsNotFound(err) || assets.IsNotFound(err) || auth.IsNotFound(err) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	}

	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUnauthenticated) {
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: err.Error()}
	}

	if errors.Is(err, pages.ErrSlugExists) ||
		errors.Is(err, slugs.ErrSlugResolutionExhausted) ||
		errors.Is(err, assets.ErrStoredNameExists) {
		return http.StatusConflict, errorResponse{Error: "conflict", Message: err.Error()}
	}

	var maxBytes *http.MaxBytesError
	if errors.Is(err, assets.ErrAssetTooLarge) || errors.Is(err, errPayloadTooLarge) || errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, errorResponse{Error: "too_large", Message: err.Error()}
	}

	if errors.Is(err, assets.ErrUnsupportedType) {
		return http.StatusUnsupportedMediaType, errorResponse{Error: "unsupported_type", Message: err.Error()}
	}

	if errors.Is(err, pages.ErrInvalidRequest) {
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation_failed", Message: err.Error()}
	}

	if errors.Is(err, pages.ErrPageIDRequired) ||
		errors.Is(err, assets.ErrPageRequired) ||
		errors.Is(err, assets.ErrFileRequired) ||
		errors.Is(err, assets.ErrFilenameRequired) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	}

	if errors.Is(err, markdown.ErrRenderEngineFailure) {
		return http.StatusInternalServerError, errorResponse{Error: "render_failed", Message: "page could not be rendered"}
	}

	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "unexpected error"}
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	return uuid.Parse(trimmed)
}

func parseBoolField(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseIntQuery(value string, defaultValue int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
