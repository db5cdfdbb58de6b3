package pages

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/markdown"
)

// MaxTitleLength bounds page titles.
const MaxTitleLength = 200

// CreatePageRequest carries an uploaded markdown file. Empty fields fall back
// to the document front matter, then to defaults.
type CreatePageRequest struct {
	Filename    string
	Content     string
	Title       string
	Description string
	// IsPublic overrides the front matter "public" key. Pages are public
	// when neither says otherwise.
	IsPublic   *bool
	UploadedBy *uuid.UUID
}

// Validate checks the request shape before any parsing happens.
func (req CreatePageRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Filename, validation.Required, validation.By(func(value any) error {
			if !IsMarkdownFilename(value.(string)) {
				return validation.NewError("pages.create.filename_extension", "only .md files are accepted")
			}
			return nil
		})),
		validation.Field(&req.Title, validation.RuneLength(0, MaxTitleLength)),
	)
}

// IsMarkdownFilename reports whether name carries the .md extension.
func IsMarkdownFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".md")
}

// UpdatePageRequest edits an existing page. Nil fields are left alone.
type UpdatePageRequest struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	Content     *string
	Slug        *string
	IsPublic    *bool
	IsActive    *bool
}

func (req UpdatePageRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ID, validation.By(func(value any) error {
			if value.(uuid.UUID) == uuid.Nil {
				return validation.NewError("pages.update.id_required", "page id is required")
			}
			return nil
		})),
		validation.Field(&req.Title, validation.By(func(value any) error {
			title, _ := value.(*string)
			if title == nil {
				return nil
			}
			trimmed := strings.TrimSpace(*title)
			if trimmed == "" {
				return validation.NewError("pages.update.title_blank", "title cannot be blank")
			}
			if len([]rune(trimmed)) > MaxTitleLength {
				return validation.NewError("pages.update.title_length", "title is too long")
			}
			return nil
		})),
	)
}

// ViewOptions tunes a public page view.
type ViewOptions struct {
	// Preview skips view counting.
	Preview bool
	// IncludePrivate lets admins see private and inactive pages.
	IncludePrivate bool
	VisitorIP      string
	UserAgent      string
	Referer        string
}

// RenderedPage is a page plus its HTML.
type RenderedPage struct {
	Page   *Page               `json:"page"`
	HTML   string              `json:"html"`
	Assets []markdown.AssetRef `json:"assets,omitempty"`
}
