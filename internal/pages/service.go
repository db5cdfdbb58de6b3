package pages

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/markdown"
	"github.com/goliatone/go-mdpages/internal/slugs"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

const (
	// DefaultSlugRetries is how many times Create re-resolves a slug after
	// losing an insert race.
	DefaultSlugRetries = 3
	// DefaultDashboardLimit caps the admin listing.
	DefaultDashboardLimit = 50
)

// Service is the page workflow used by the HTTP layer and the commands.
type Service interface {
	Create(ctx context.Context, req CreatePageRequest) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	View(ctx context.Context, slug string, opts ViewOptions) (*RenderedPage, error)
	Update(ctx context.Context, req UpdatePageRequest) (*Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Dashboard(ctx context.Context, limit int) ([]*Page, int, error)
	Preview(ctx context.Context, content string, assets []markdown.AssetRef) (string, error)
	PageExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AssetCatalog exposes the assets of a page. The asset service satisfies
// it.
type AssetCatalog interface {
	RenderRefs(ctx context.Context, pageID uuid.UUID) ([]markdown.AssetRef, error)
	DeleteByPage(ctx context.Context, pageID uuid.UUID) error
}

// IDGenerator produces page identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures the page service.
type ServiceOption func(*service)

// WithResolver replaces the default slug resolver.
func WithResolver(resolver *slugs.Resolver) ServiceOption {
	return func(s *service) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithRenderer sets the markdown renderer used by View and Preview.
func WithRenderer(renderer markdown.Renderer) ServiceOption {
	return func(s *service) {
		s.renderer = renderer
	}
}

// WithCatalog wires the asset lookup used when rendering and deleting.
func WithCatalog(catalog AssetCatalog) ServiceOption {
	return func(s *service) {
		s.catalog = catalog
	}
}

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.OrNoOp(logger)
	}
}

// WithSlugRetries overrides DefaultSlugRetries. Negative values are ignored.
func WithSlugRetries(n int) ServiceOption {
	return func(s *service) {
		if n >= 0 {
			s.slugRetries = n
		}
	}
}

// WithDashboardLimit overrides DefaultDashboardLimit.
func WithDashboardLimit(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.dashboardLimit = n
		}
	}
}

// WithViewHook registers fn to run after a view has been counted.
func WithViewHook(fn func(*Page)) ServiceOption {
	return func(s *service) {
		s.onView = fn
	}
}

type service struct {
	repo           PageRepository
	resolver       *slugs.Resolver
	renderer       markdown.Renderer
	catalog        AssetCatalog
	now            func() time.Time
	id             IDGenerator
	logger         interfaces.Logger
	slugRetries    int
	dashboardLimit int
	onView         func(*Page)
}

// NewService constructs the page service over repo.
func NewService(repo PageRepository, opts ...ServiceOption) Service {
	s := &service{
		repo:           repo,
		resolver:       slugs.NewResolver(),
		now:            func() time.Time { return time.Now().UTC() },
		id:             uuid.New,
		logger:         logging.NoOp(),
		slugRetries:    DefaultSlugRetries,
		dashboardLimit: DefaultDashboardLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	meta, body, err := markdown.ParseFrontMatter([]byte(req.Content))
	if err != nil {
		// A leading thematic break is valid markdown; keep the document as is.
		s.logger.Warn("pages.create.frontmatter_ignored", "filename", req.Filename, "error", err)
		meta, body = markdown.FrontMatter{}, []byte(req.Content)
	}

	title := firstNonBlank(req.Title, meta.Title, filenameStem(req.Filename))
	if len([]rune(title)) > MaxTitleLength {
		title = string([]rune(title)[:MaxTitleLength])
	}
	slugSource := firstNonBlank(meta.Slug, title)

	isPublic := true
	switch {
	case req.IsPublic != nil:
		isPublic = *req.IsPublic
	case meta.Public != nil:
		isPublic = *meta.Public
	}

	now := s.now()
	record := &Page{
		Title:       title,
		Content:     string(body),
		Description: optionalString(firstNonBlank(req.Description, meta.Description)),
		IsPublic:    isPublic,
		IsActive:    true,
		UploadedBy:  req.UploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt <= s.slugRetries; attempt++ {
		slug, err := s.resolver.Resolve(ctx, slugSource, s.repo.SlugExists)
		if err != nil {
			if errors.Is(err, slugs.ErrInvalidTitle) {
				return nil, &ValidationError{Err: err}
			}
			return nil, err
		}
		record.ID = s.id()
		record.Slug = slug

		created, err := s.repo.Create(ctx, record)
		if err == nil {
			logging.WithPageContext(s.logger, created.ID.String(), created.Slug).
				Info("pages.created", "title", created.Title, "public", created.IsPublic)
			return created, nil
		}
		if !errors.Is(err, ErrSlugExists) {
			return nil, err
		}
		s.logger.Debug("pages.create.slug_conflict", "slug", slug, "attempt", attempt+1)
	}
	return nil, ErrSlugExists
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	if id == uuid.Nil {
		return nil, ErrPageIDRequired
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, &NotFoundError{Resource: "page"}
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) View(ctx context.Context, slug string, opts ViewOptions) (*RenderedPage, error) {
	if s.renderer == nil {
		return nil, ErrRendererMissing
	}
	page, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !opts.IncludePrivate && (!page.IsActive || !page.IsPublic) {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	logger := logging.WithPageContext(s.logger, page.ID.String(), page.Slug)

	if !opts.Preview {
		s.countView(ctx, logger, page, opts)
	}

	var refs []markdown.AssetRef
	if s.catalog != nil {
		refs, err = s.catalog.RenderRefs(ctx, page.ID)
		if err != nil {
			logger.Error("pages.view.assets_failed", "error", err)
			return nil, err
		}
	}

	html, err := s.renderer.Render(ctx, page.Content, refs)
	if err != nil {
		logger.Error("pages.view.render_failed", "error", err)
		return nil, err
	}
	return &RenderedPage{Page: page, HTML: html, Assets: refs}, nil
}

// countView logs the visit and bumps the counter. Failures are logged and
// never hide the page.
func (s *service) countView(ctx context.Context, logger interfaces.Logger, page *Page, opts ViewOptions) {
	view := &PageView{
		ID:        s.id(),
		PageID:    page.ID,
		VisitorIP: optionalString(strings.TrimSpace(opts.VisitorIP)),
		UserAgent: optionalString(strings.TrimSpace(opts.UserAgent)),
		Referer:   optionalString(strings.TrimSpace(opts.Referer)),
		ViewedAt:  s.now(),
	}
	if err := s.repo.RecordView(ctx, view); err != nil {
		logger.Warn("pages.view.record_failed", "error", err)
	}
	count, err := s.repo.IncrementViewCount(ctx, page.ID)
	if err != nil {
		logger.Warn("pages.view.increment_failed", "error", err)
		return
	}
	page.ViewCount = count
	if s.onView != nil {
		s.onView(page)
	}
}

func (s *service) Update(ctx context.Context, req UpdatePageRequest) (*Page, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}
	page, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		page.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		page.Description = optionalString(strings.TrimSpace(*req.Description))
	}
	if req.Content != nil {
		page.Content = *req.Content
	}
	if req.IsPublic != nil {
		page.IsPublic = *req.IsPublic
	}
	if req.IsActive != nil {
		page.IsActive = *req.IsActive
	}
	if req.Slug != nil {
		slug := slugs.Normalize(*req.Slug)
		if slug == "" {
			return nil, &ValidationError{Err: ErrInvalidSlug}
		}
		if slug != page.Slug {
			taken, err := s.repo.SlugExists(ctx, slug)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrSlugExists
			}
			page.Slug = slug
		}
	}
	page.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		return nil, err
	}
	logging.WithPageContext(s.logger, updated.ID.String(), updated.Slug).Info("pages.updated")
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrPageIDRequired
	}
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	logger := logging.WithPageContext(s.logger, page.ID.String(), page.Slug)
	if s.catalog != nil {
		if err := s.catalog.DeleteByPage(ctx, page.ID); err != nil {
			logger.Error("pages.delete.assets_failed", "error", err)
			return err
		}
	}
	if err := s.repo.Delete(ctx, page.ID); err != nil {
		return err
	}
	logger.Info("pages.deleted")
	return nil
}

func (s *service) Dashboard(ctx context.Context, limit int) ([]*Page, int, error) {
	if limit <= 0 {
		limit = s.dashboardLimit
	}
	return s.repo.List(ctx, ListOptions{Limit: limit})
}

func (s *service) Preview(ctx context.Context, content string, assets []markdown.AssetRef) (string, error) {
	if s.renderer == nil {
		return "", ErrRendererMissing
	}
	return s.renderer.Render(ctx, content, assets)
}

func (s *service) PageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func filenameStem(name string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
