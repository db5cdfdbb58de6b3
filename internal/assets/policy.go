package assets

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes is the upload cap: 10 MiB.
const DefaultMaxBytes int64 = 10 << 20

var imageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

var documentTypes = map[string]string{
	"application/pdf":  ".pdf",
	"text/plain":       ".txt",
	"application/json": ".json",
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
}

// NormalizeMIME lowercases mimeType and drops parameters such as charset.
func NormalizeMIME(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(mimeType)
}

// Classify maps a MIME type to its category.
func Classify(mimeType string) Category {
	mt := NormalizeMIME(mimeType)
	if _, ok := imageTypes[mt]; ok {
		return CategoryImage
	}
	if _, ok := documentTypes[mt]; ok {
		return CategoryDocument
	}
	return CategoryOther
}

// Allowed reports whether uploads of mimeType are accepted.
func Allowed(mimeType string) bool {
	return Classify(mimeType) != CategoryOther
}

// Extension returns the storage extension for an accepted MIME type,
// falling back to the extension of the original filename.
func Extension(mimeType, original string) string {
	mt := NormalizeMIME(mimeType)
	if ext, ok := imageTypes[mt]; ok {
		return ext
	}
	if ext, ok := documentTypes[mt]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(original))
}

// ContentType picks the response type for a stored file by its extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
