package markdown

import (
	"bytes"
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// Renderer converts page markdown plus its assets into HTML.
type Renderer interface {
	Render(ctx context.Context, content string, assets []AssetRef) (string, error)
}

// Result is a rendered document plus the fences that fell back to plain
// output.
type Result struct {
	HTML     string
	Failures []*FragmentError
}

// Option configures a GoldmarkRenderer.
type Option func(*GoldmarkRenderer)

// WithOptions replaces the engine options.
func WithOptions(opts Options) Option {
	return func(r *GoldmarkRenderer) {
		r.opts = opts
	}
}

// WithSanitizer toggles the bluemonday pass over the final HTML.
func WithSanitizer(enabled bool) Option {
	return func(r *GoldmarkRenderer) {
		r.opts.Sanitize = enabled
	}
}

// WithLogger sets the logger used for fragment failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *GoldmarkRenderer) {
		r.logger = logging.OrNoOp(logger)
	}
}

// WithFailureHook registers fn to observe every fence that could not be
// highlighted, for example to count them.
func WithFailureHook(fn func(*FragmentError)) Option {
	return func(r *GoldmarkRenderer) {
		r.onFailure = fn
	}
}

// GoldmarkRenderer is the goldmark and chroma backed Renderer. It holds no
// per-call state and is safe for concurrent use.
type GoldmarkRenderer struct {
	opts      Options
	logger    interfaces.Logger
	onFailure func(*FragmentError)
	sanitizer *bluemonday.Policy
}

var _ Renderer = (*GoldmarkRenderer)(nil)

// NewRenderer builds a renderer using DefaultOptions unless overridden.
func NewRenderer(opts ...Option) *GoldmarkRenderer {
	r := &GoldmarkRenderer{
		opts:   DefaultOptions(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.opts = r.opts.normalized()
	if r.opts.Sanitize {
		r.sanitizer = newSanitizer()
	}
	return r
}

// Render rewrites asset references then converts the result to HTML.
func (r *GoldmarkRenderer) Render(ctx context.Context, content string, assets []AssetRef) (string, error) {
	result, err := r.RenderDetailed(ctx, content, assets)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// RenderDetailed is Render plus the list of fragment failures.
func (r *GoldmarkRenderer) RenderDetailed(ctx context.Context, content string, assets []AssetRef) (*Result, error) {
	rewritten := CompileRewrites(assets).Apply(content)
	return r.convert(ctx, rewritten)
}

// Convert renders content without any asset rewriting.
func (r *GoldmarkRenderer) Convert(ctx context.Context, content string) (string, error) {
	result, err := r.convert(ctx, content)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

func (r *GoldmarkRenderer) convert(ctx context.Context, content string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	engine := newEngine(r.opts, func(fe *FragmentError) {
		result.Failures = append(result.Failures, fe)
		r.logger.Warn("markdown.render.fragment_failed", "language", fe.Language, "error", fe.Err)
		if r.onFailure != nil {
			r.onFailure(fe)
		}
	})

	var buf bytes.Buffer
	if err := engine.Convert([]byte(content), &buf); err != nil {
		r.logger.Error("markdown.render.failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRenderEngineFailure, err)
	}

	out := buf.Bytes()
	if r.sanitizer != nil {
		out = r.sanitizer.SanitizeBytes(out)
	}
	result.HTML = string(out)
	return result, nil
}
