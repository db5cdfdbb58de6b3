// Package mdpages publishes uploaded markdown files as web pages with
// unique slugs, attached assets and syntax-highlighted code.
package mdpages

import (
	"context"
	"net/http"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	pagescmd "github.com/goliatone/go-mdpages/internal/commands/pages"
	"github.com/goliatone/go-mdpages/internal/di"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/internal/slugs"
)

// PageService exports the page workflow contract.
type PageService = pages.Service

// AssetService exports the asset contract.
type AssetService = assets.Service

type (
	Page              = pages.Page
	CreatePageRequest = pages.CreatePageRequest
	UpdatePageRequest = pages.UpdatePageRequest
	ViewOptions       = pages.ViewOptions
	RenderedPage      = pages.RenderedPage
	Asset             = assets.Asset
	UploadRequest     = assets.UploadRequest
	AssetRef          = markdown.AssetRef
	Renderer          = markdown.Renderer
)

var (
	ErrSlugExists              = pages.ErrSlugExists
	ErrInvalidTitle            = slugs.ErrInvalidTitle
	ErrSlugResolutionExhausted = slugs.ErrSlugResolutionExhausted
	ErrRenderEngineFailure     = markdown.ErrRenderEngineFailure
	ErrUnsupportedType         = assets.ErrUnsupportedType
	ErrAssetTooLarge           = assets.ErrAssetTooLarge
	ErrInvalidCredentials      = auth.ErrInvalidCredentials
)

// Option overrides container wiring.
type Option = di.Option

var (
	WithBunDB          = di.WithBunDB
	WithMemoryStorage  = di.WithMemoryStorage
	WithLoggerProvider = di.WithLoggerProvider
	WithCache          = di.WithCache
	WithBlobStore      = di.WithBlobStore
	WithMetrics        = di.WithMetrics
)

// Module is the top level runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg. Storage is opened and its schema
// created before New returns.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Pages() PageService {
	return m.container.PageService()
}

func (m *Module) Assets() AssetService {
	return m.container.AssetService()
}

// Renderer returns the configured markdown renderer.
func (m *Module) Renderer() Renderer {
	return m.container.Renderer()
}

// Commands returns the command handlers used by the CLIs.
func (m *Module) Commands() *pagescmd.HandlerSet {
	return m.container.Commands()
}

// Handler returns the HTTP surface.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.Router()
}

// Close releases storage the module opened.
func (m *Module) Close() error {
	return m.container.Close()
}
