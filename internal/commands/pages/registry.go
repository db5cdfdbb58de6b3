package pagescmd

import (
	"errors"
	"time"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/commands"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers built by RegisterPageCommands.
type HandlerSet struct {
	Import          *ImportPageHandler
	ImportDirectory *ImportDirectoryHandler
	UploadAsset     *UploadAssetHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	importOpts    []commands.HandlerOption[ImportPageCommand]
	directoryOpts []commands.HandlerOption[ImportDirectoryCommand]
	uploadOpts    []commands.HandlerOption[UploadAssetCommand]
}

// WithCommandTimeout applies timeout to every handler.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(cfg *options) {
		cfg.importOpts = append(cfg.importOpts, commands.WithTimeout[ImportPageCommand](timeout))
		cfg.directoryOpts = append(cfg.directoryOpts, commands.WithTimeout[ImportDirectoryCommand](timeout))
		cfg.uploadOpts = append(cfg.uploadOpts, commands.WithTimeout[UploadAssetCommand](timeout))
	}
}

// WithImportHandlerOptions forwards options to NewImportPageHandler.
func WithImportHandlerOptions(opts ...commands.HandlerOption[ImportPageCommand]) Option {
	return func(cfg *options) {
		cfg.importOpts = append(cfg.importOpts, opts...)
	}
}

// RegisterPageCommands builds the page and asset handlers and registers them
// with reg when it is not nil.
func RegisterPageCommands(reg CommandRegistry, pageService pages.Service, assetService assets.Service, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if pageService == nil {
		return nil, errors.New("pages command registration: page service is nil")
	}
	if assetService == nil {
		return nil, errors.New("pages command registration: asset service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := logging.CommandsLogger(provider, "pages")
	set := &HandlerSet{
		Import:          NewImportPageHandler(pageService, logger, cfg.importOpts...),
		ImportDirectory: NewImportDirectoryHandler(pageService, logger, cfg.directoryOpts...),
		UploadAsset:     NewUploadAssetHandler(assetService, logger, cfg.uploadOpts...),
	}
	if reg != nil {
		for _, handler := range []any{set.Import, set.ImportDirectory, set.UploadAsset} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
