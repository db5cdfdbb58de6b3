package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-mdpages/internal/assets"
	"github.com/goliatone/go-mdpages/internal/auth"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/metrics"
	"github.com/goliatone/go-mdpages/internal/pages"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// DefaultMaxPageBytes caps uploaded markdown documents.
const DefaultMaxPageBytes = 5 << 20

// formOverhead is the multipart framing allowed on top of the file limit.
const formOverhead = 1 << 20

var (
	ErrPagesRequired  = errors.New("http: page service required")
	ErrAssetsRequired = errors.New("http: asset service required")
)

// Deps are the collaborators behind the router. Admin routes are mounted
// only when both Auth and Sessions are set, and /metrics only with Metrics.
type Deps struct {
	Pages    pages.Service
	Assets   assets.Service
	Auth     *auth.Service
	Sessions *auth.Sessions
	Metrics  *metrics.Metrics
	Logger   interfaces.Logger

	MaxPageBytes  int64
	MaxAssetBytes int64
}

type server struct {
	pages         pages.Service
	assets        assets.Service
	auth          *auth.Service
	sessions      *auth.Sessions
	logger        interfaces.Logger
	maxPageBytes  int64
	maxAssetBytes int64
}

// NewRouter builds the chi router for the public site and the admin API.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Pages == nil {
		return nil, ErrPagesRequired
	}
	if deps.Assets == nil {
		return nil, ErrAssetsRequired
	}
	s := &server{
		pages:         deps.Pages,
		assets:        deps.Assets,
		auth:          deps.Auth,
		sessions:      deps.Sessions,
		logger:        logging.OrNoOp(deps.Logger),
		maxPageBytes:  deps.MaxPageBytes,
		maxAssetBytes: deps.MaxAssetBytes,
	}
	if s.maxPageBytes <= 0 {
		s.maxPageBytes = DefaultMaxPageBytes
	}
	if s.maxAssetBytes <= 0 {
		s.maxAssetBytes = assets.DefaultMaxBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/pages/{slug}", s.handlePageView)
	r.Get("/assets/{filename}", s.handleAsset)

	if s.auth != nil && s.sessions != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Route("/api", func(r chi.Router) {
				r.Use(s.sessions.RequireAdmin)
				r.Get("/pages", s.handleDashboard)
				r.Post("/pages", s.handlePageCreate)
				r.Get("/pages/{id}", s.handlePageGet)
				r.Put("/pages/{id}", s.handlePageUpdate)
				r.Delete("/pages/{id}", s.handlePageDelete)
				r.Get("/pages/{id}/assets", s.handleAssetList)
				r.Post("/pages/{id}/assets", s.handleAssetUpload)
				r.Delete("/assets/{id}", s.handleAssetDelete)
				r.Post("/preview", s.handlePreview)
			})
		})
	}
	return r, nil
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.WithContext(ctx).Debug("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
