package pagescmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/commands"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

const (
	importPageOperation      = "pages.import"
	importDirectoryOperation = "pages.import_directory"
	uploadAssetOperation     = "assets.upload"
)

// DefaultMaxFileBytes caps markdown files read from disk.
const DefaultMaxFileBytes = 5 << 20

var (
	// ErrFileTooLarge is returned for markdown files over the import cap.
	ErrFileTooLarge = errors.New("pages command: markdown file too large")
	// ErrImportIncomplete wraps the per-file failures of a directory import.
	ErrImportIncomplete = errors.New("pages command: directory import incomplete")
)

var (
	_ command.Commander[ImportPageCommand]      = (*ImportPageHandler)(nil)
	_ command.Commander[ImportDirectoryCommand] = (*ImportDirectoryHandler)(nil)
	_ command.Commander[UploadAssetCommand]     = (*UploadAssetHandler)(nil)
)

// ImportPageHandler creates a page from a markdown file.
type ImportPageHandler struct {
	inner *commands.Handler[ImportPageCommand]
}

// NewImportPageHandler binds the handler to service.
func NewImportPageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ImportPageCommand]) *ImportPageHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg ImportPageCommand) error {
		page, err := importFile(ctx, service, msg.Path, pages.CreatePageRequest{
			Title:       msg.Title,
			Description: msg.Description,
			IsPublic:    msg.Public,
			UploadedBy:  msg.UploadedBy,
		})
		if err != nil {
			return err
		}
		logging.WithPageContext(baseLogger, page.ID.String(), page.Slug).Info("pages.command.import.completed")
		if msg.OnCreated != nil {
			msg.OnCreated(page)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportPageCommand]{
		commands.WithLogger[ImportPageCommand](baseLogger),
		commands.WithOperation[ImportPageCommand](importPageOperation),
		commands.WithMessageFields(func(msg ImportPageCommand) map[string]any {
			fields := map[string]any{"path": msg.Path}
			if msg.Public != nil {
				fields["public"] = *msg.Public
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportPageCommand](baseLogger)),
		commands.WithClassifier[ImportPageCommand](classifyImportError),
	}
	return &ImportPageHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[ImportPageCommand].
func (h *ImportPageHandler) Execute(ctx context.Context, msg ImportPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportDirectoryHandler creates one page per markdown file in a directory.
// Files that fail are reported together after the walk finishes.
type ImportDirectoryHandler struct {
	inner *commands.Handler[ImportDirectoryCommand]
}

func NewImportDirectoryHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ImportDirectoryCommand]) *ImportDirectoryHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg ImportDirectoryCommand) error {
		files, err := markdownFiles(msg.Directory, msg.Recursive)
		if err != nil {
			return err
		}

		var (
			created int
			failed  []error
		)
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if msg.DryRun {
				baseLogger.Info("pages.command.import_directory.candidate", "path", path)
				continue
			}
			page, err := importFile(ctx, service, path, pages.CreatePageRequest{
				IsPublic:   msg.Public,
				UploadedBy: msg.UploadedBy,
			})
			if err != nil {
				baseLogger.Warn("pages.command.import_directory.file_failed", "path", path, "error", err)
				failed = append(failed, fmt.Errorf("%s: %w", path, err))
				continue
			}
			created++
			if msg.OnCreated != nil {
				msg.OnCreated(page)
			}
		}

		logging.WithFields(baseLogger, map[string]any{
			"file_count":    len(files),
			"created_count": created,
			"error_count":   len(failed),
			"dry_run":       msg.DryRun,
		}).Info("pages.command.import_directory.completed")
		if len(failed) > 0 {
			return fmt.Errorf("%w: %w", ErrImportIncomplete, errors.Join(failed...))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportDirectoryCommand]{
		commands.WithLogger[ImportDirectoryCommand](baseLogger),
		commands.WithOperation[ImportDirectoryCommand](importDirectoryOperation),
		commands.WithMessageFields(func(msg ImportDirectoryCommand) map[string]any {
			fields := map[string]any{"directory": msg.Directory}
			if msg.Recursive {
				fields["recursive"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportDirectoryCommand](baseLogger)),
		commands.WithClassifier[ImportDirectoryCommand](classifyDirectoryError),
	}
	return &ImportDirectoryHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *ImportDirectoryHandler) Execute(ctx context.Context, msg ImportDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UploadAssetHandler stores a file from disk as a page asset.
type UploadAssetHandler struct {
	inner *commands.Handler[UploadAssetCommand]
}

func NewUploadAssetHandler(service assets.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UploadAssetCommand]) *UploadAssetHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg UploadAssetCommand) error {
		file, err := os.Open(msg.Path)
		if err != nil {
			return err
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return err
		}
		mimeType := msg.MimeType
		if mimeType == "" {
			mimeType = assets.ContentType(msg.Path)
		}

		asset, err := service.Upload(ctx, assets.UploadRequest{
			PageID:   msg.PageID,
			Filename: filepath.Base(msg.Path),
			MimeType: mimeType,
			Size:     info.Size(),
			AltText:  msg.AltText,
			Body:     file,
		})
		if err != nil {
			return err
		}
		baseLogger.Info("assets.command.upload.completed", "asset_id", asset.ID.String(), "url", asset.PublicURL)
		return nil
	}

	handlerOpts := []commands.HandlerOption[UploadAssetCommand]{
		commands.WithLogger[UploadAssetCommand](baseLogger),
		commands.WithOperation[UploadAssetCommand](uploadAssetOperation),
		commands.WithMessageFields(func(msg UploadAssetCommand) map[string]any {
			return map[string]any{"page_id": msg.PageID.String(), "path": msg.Path}
		}),
		commands.WithClassifier[UploadAssetCommand](classifyUploadError),
	}
	return &UploadAssetHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *UploadAssetHandler) Execute(ctx context.Context, msg UploadAssetCommand) error {
	return h.inner.Execute(ctx, msg)
}

func importFile(ctx context.Context, service pages.Service, path string, req pages.CreatePageRequest) (*pages.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > DefaultMaxFileBytes {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	req.Filename = filepath.Base(path)
	req.Content = string(content)
	return service.Create(ctx, req)
}

func markdownFiles(root string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if pages.IsMarkdownFilename(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
