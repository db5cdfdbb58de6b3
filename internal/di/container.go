package di

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"sync"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-mdpages/internal/adapters/storage"
	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	pagescmd "github.com/goliatone/go-mdpages/internal/commands/pages"
	mdhttp "github.com/goliatone/go-mdpages/internal/http"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/internal/metrics"
	"github.com/goliatone/go-mdpages/internal/migrations"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/internal/runtimeconfig"
	"github.com/goliatone/go-mdpages/internal/slugs"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// Container wires module dependencies from a runtimeconfig.Config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	memory        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	pageRepo  pages.PageRepository
	assetRepo assets.Repository
	userStore auth.UserStore
	blobs     assets.BlobStore

	resolver *slugs.Resolver
	renderer *markdown.GoldmarkRenderer
	metrics  *metrics.Metrics

	pageSvc  pages.Service
	assetSvc assets.Service
	authSvc  *auth.Service
	sessions *auth.Sessions
	commands *pagescmd.HandlerSet

	routerOnce sync.Once
	router     stdhttp.Handler
	routerErr  error
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an open database. The container creates the schema
// but never closes it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMemoryStorage keeps every record in process memory instead of a
// database.
func WithMemoryStorage() Option {
	return func(c *Container) {
		c.memory = true
	}
}

// WithCache injects a prebuilt cache service for the bun repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithBlobStore replaces the on-disk asset store.
func WithBlobStore(store assets.BlobStore) Option {
	return func(c *Container) {
		c.blobs = store
	}
}

// WithMetrics shares a collector set across containers.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Container) {
		c.metrics = m
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	if err := c.configureServices(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.memory {
		return nil
	}
	if c.bunDB == nil {
		db, err := storage.OpenDB(ctx, c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if err := migrations.EnsureSchema(ctx, c.bunDB); err != nil {
		c.Close()
		return fmt.Errorf("di: ensure schema: %w", err)
	}
	logging.ModuleLogger(c.loggerProvider, "mdpages.storage").
		Info("storage.configured", "driver", c.Config.Storage.Driver, "name", c.Config.Storage.Name)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Cache.DefaultTTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB == nil {
		c.pageRepo = pages.NewMemoryPageRepository()
		c.assetRepo = assets.NewMemoryRepository()
		c.userStore = auth.NewMemoryUserStore()
		return
	}
	c.pageRepo = pages.NewBunPageRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.assetRepo = assets.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.userStore = auth.NewBunUserStore(c.bunDB)
}

func (c *Container) configureServices(ctx context.Context) error {
	cfg := c.Config

	if c.metrics == nil {
		c.metrics = metrics.New()
	}

	if c.blobs == nil {
		store, err := storage.NewFileStore(cfg.Assets.Dir)
		if err != nil {
			return err
		}
		c.blobs = store
	}

	fallback, _ := slugs.ParseFallback(cfg.Slugs.Fallback)
	resolverOpts := []slugs.Option{
		slugs.WithMaxLength(cfg.Slugs.MaxLength),
		slugs.WithMaxAttempts(cfg.Slugs.MaxAttempts),
		slugs.WithFallback(fallback),
		slugs.WithLogger(logging.SlugsLogger(c.loggerProvider)),
	}
	if cfg.Slugs.Transliterate {
		resolverOpts = append(resolverOpts, slugs.WithTransliterator(slugs.DefaultTransliterator()))
	}
	c.resolver = slugs.NewResolver(resolverOpts...)

	c.renderer = markdown.NewRenderer(
		markdown.WithOptions(markdownOptions(cfg.Markdown)),
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
		markdown.WithFailureHook(func(err *markdown.FragmentError) {
			c.metrics.RenderFailed(err.Language)
		}),
	)

	c.assetSvc = assets.NewService(c.assetRepo, c.blobs,
		assets.WithMaxBytes(cfg.Assets.MaxBytes),
		assets.WithBaseURL(cfg.Assets.BaseURL),
		assets.WithLogger(logging.AssetsLogger(c.loggerProvider)),
		assets.WithPageChecker(assets.PageCheckerFunc(func(ctx context.Context, id uuid.UUID) (bool, error) {
			return c.pageSvc.PageExists(ctx, id)
		})),
		assets.WithUploadHook(func(a *assets.Asset) {
			c.metrics.AssetUploaded(string(a.Category), a.Size)
		}),
	)

	c.pageSvc = pages.NewService(c.pageRepo,
		pages.WithResolver(c.resolver),
		pages.WithRenderer(c.renderer),
		pages.WithCatalog(c.assetSvc),
		pages.WithLogger(logging.PagesLogger(c.loggerProvider)),
		pages.WithSlugRetries(cfg.Slugs.Retries),
		pages.WithDashboardLimit(cfg.Pages.DashboardLimit),
		pages.WithViewHook(func(*pages.Page) {
			c.metrics.PageViewed()
		}),
	)

	c.authSvc = auth.NewService(c.userStore, auth.WithLogger(logging.AuthLogger(c.loggerProvider)))
	if cfg.AdminEnabled() {
		if _, err := c.authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
		sessions, err := auth.NewSessions(cfg.Server.SessionKey, c.userStore)
		if err != nil {
			return err
		}
		c.sessions = sessions
	}

	set, err := pagescmd.RegisterPageCommands(nil, c.pageSvc, c.assetSvc, c.loggerProvider,
		pagescmd.WithCommandTimeout(cfg.Commands.Timeout))
	if err != nil {
		return err
	}
	c.commands = set
	return nil
}

func markdownOptions(cfg runtimeconfig.MarkdownConfig) markdown.Options {
	return markdown.Options{
		HardWraps:  cfg.HardWraps,
		UnsafeHTML: cfg.UnsafeHTML,
		Alerts:     cfg.Alerts,
		Sanitize:   cfg.Sanitize,
		Highlight: markdown.HighlightOptions{
			Enabled: cfg.Highlight,
			Theme:   cfg.HighlightTheme,
			Classes: cfg.HighlightClasses,
		},
	}
}

// Router builds the HTTP handler once.
func (c *Container) Router() (stdhttp.Handler, error) {
	c.routerOnce.Do(func() {
		deps := mdhttp.Deps{
			Pages:         c.pageSvc,
			Assets:        c.assetSvc,
			Logger:        logging.HTTPLogger(c.loggerProvider),
			MaxPageBytes:  c.Config.Pages.MaxBytes,
			MaxAssetBytes: c.Config.Assets.MaxBytes,
		}
		if c.Config.Server.Metrics {
			deps.Metrics = c.metrics
		}
		if c.sessions != nil {
			deps.Auth = c.authSvc
			deps.Sessions = c.sessions
		}
		c.router, c.routerErr = mdhttp.NewRouter(deps)
	})
	return c.router, c.routerErr
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) BunDB() *bun.DB { return c.bunDB }

func (c *Container) PageService() pages.Service { return c.pageSvc }

func (c *Container) AssetService() assets.Service { return c.assetSvc }

func (c *Container) AuthService() *auth.Service { return c.authSvc }

// Sessions is nil while the admin API is disabled.
func (c *Container) Sessions() *auth.Sessions { return c.sessions }

func (c *Container) Renderer() markdown.Renderer { return c.renderer }

func (c *Container) Resolver() *slugs.Resolver { return c.resolver }

func (c *Container) Metrics() *metrics.Metrics { return c.metrics }

func (c *Container) Commands() *pagescmd.HandlerSet { return c.commands }
