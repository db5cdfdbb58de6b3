package pagescmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/pages"
)

const (
	importPageMessageType      = "mdpages.pages.import"
	importDirectoryMessageType = "mdpages.pages.import_directory"
	uploadAssetMessageType     = "mdpages.assets.upload"
)

// ImportPageCommand publishes one markdown file from disk.
type ImportPageCommand struct {
	Path        string     `json:"path"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Public      *bool      `json:"public,omitempty"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`

	// OnCreated receives the stored page.
	OnCreated func(*pages.Page) `json:"-"`
}

// Type implements command.Message.
func (ImportPageCommand) Type() string { return importPageMessageType }

func (cmd ImportPageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(func(value any) error {
			if !pages.IsMarkdownFilename(value.(string)) {
				return validation.NewError("mdpages.pages.import.path_extension", "only .md files can be imported")
			}
			return nil
		})),
		validation.Field(&cmd.Title, validation.RuneLength(0, pages.MaxTitleLength)),
	)
}

// ImportDirectoryCommand publishes every markdown file under Directory.
type ImportDirectoryCommand struct {
	Directory string `json:"directory"`
	// Recursive descends into subdirectories.
	Recursive bool `json:"recursive,omitempty"`
	// DryRun lists the candidate files without creating pages.
	DryRun     bool       `json:"dry_run,omitempty"`
	Public     *bool      `json:"public,omitempty"`
	UploadedBy *uuid.UUID `json:"uploaded_by,omitempty"`

	OnCreated func(*pages.Page) `json:"-"`
}

func (ImportDirectoryCommand) Type() string { return importDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("mdpages.pages.import_directory.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

// UploadAssetCommand attaches a file from disk to an existing page.
type UploadAssetCommand struct {
	PageID  uuid.UUID `json:"page_id"`
	Path    string    `json:"path"`
	AltText string    `json:"alt_text,omitempty"`
	// MimeType overrides detection by extension.
	MimeType string `json:"mime_type,omitempty"`
}

func (UploadAssetCommand) Type() string { return uploadAssetMessageType }

func (cmd UploadAssetCommand) Validate() error {
	errs := validation.Errors{}
	if cmd.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("mdpages.assets.upload.page_id_required", "page_id is required")
	}
	if strings.TrimSpace(cmd.Path) == "" {
		errs["path"] = validation.NewError("mdpages.assets.upload.path_required", "path is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
