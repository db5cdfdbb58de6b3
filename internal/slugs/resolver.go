package slugs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-mdpages/internal/identity"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
	"github.com/goliatone/go-slug"
)

// DefaultMaxAttempts bounds the number of candidates tried per Resolve.
const DefaultMaxAttempts = 1000

const fallbackPrefix = "page-"

// ExistsFunc reports whether candidate is already taken. It is typically
// backed by a unique index on the slug column.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// FallbackPolicy decides what happens when a title normalizes to nothing.
type FallbackPolicy int

const (
	// FallbackHash substitutes "page-" plus a token derived from the title.
	FallbackHash FallbackPolicy = iota
	// FallbackReject fails with ErrInvalidTitle.
	FallbackReject
)

// ParseFallback maps a config value to a policy.
func ParseFallback(value string) (FallbackPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "hash":
		return FallbackHash, true
	case "reject":
		return FallbackReject, true
	}
	return FallbackHash, false
}

// Transliterator rewrites a title before the strict normalization pass.
// go-slug normalizers satisfy it.
type Transliterator interface {
	Normalize(value string) (string, error)
}

// DefaultTransliterator returns the go-slug default normalizer.
func DefaultTransliterator() Transliterator {
	return slug.Default()
}

// Resolver turns titles into unique slugs.
type Resolver struct {
	maxLength      int
	maxAttempts    int
	fallback       FallbackPolicy
	transliterator Transliterator
	logger         interfaces.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxLength overrides DefaultMaxLength. Values below 1 are ignored.
func WithMaxLength(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxLength = n
		}
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts. Zero or negative removes the
// cap.
func WithMaxAttempts(n int) Option {
	return func(r *Resolver) {
		r.maxAttempts = n
	}
}

// WithFallback selects the empty-base policy.
func WithFallback(policy FallbackPolicy) Option {
	return func(r *Resolver) {
		r.fallback = policy
	}
}

// WithTransliterator runs t on the title before normalization so accented
// letters survive as ASCII. Nil disables it.
func WithTransliterator(t Transliterator) Option {
	return func(r *Resolver) {
		r.transliterator = t
	}
}

// WithLogger sets the logger used for candidate diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.OrNoOp(logger)
	}
}

// NewResolver builds a Resolver with the supplied options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxLength:   DefaultMaxLength,
		maxAttempts: DefaultMaxAttempts,
		fallback:    FallbackHash,
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Base returns the base slug for title after the fallback policy is applied.
func (r *Resolver) Base(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrInvalidTitle
	}

	source := title
	if r.transliterator != nil {
		if out, err := r.transliterator.Normalize(title); err == nil && out != "" {
			source = out
		} else if err != nil {
			r.logger.Debug("slugs.transliterate.failed", "title", title, "error", err)
		}
	}

	if base := normalize(source, r.maxLength); base != "" {
		return base, nil
	}

	if r.fallback == FallbackReject {
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return normalize(fallbackPrefix+identity.TitleToken(title, 12), r.maxLength), nil
}

// Resolve returns the first free candidate among base, base-1, base-2, ...
// Candidates are checked one at a time in that order. Errors from exists are returned
// unchanged. A nil exists treats every candidate as free.
//
// The result is a suggestion: callers must still insert under a unique
// constraint and resolve again on conflict.
func (r *Resolver) Resolve(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base, err := r.Base(title)
	if err != nil {
		return "", err
	}
	if exists == nil {
		return base, nil
	}

	for attempt := 0; r.maxAttempts <= 0 || attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := r.Candidate(base, attempt)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			if attempt > 0 {
				r.logger.Debug("slugs.resolve.suffixed", "base", base, "slug", candidate, "attempts", attempt+1)
			}
			return candidate, nil
		}
	}

	r.logger.Warn("slugs.resolve.exhausted", "base", base, "attempts", r.maxAttempts)
	return "", &ExhaustedError{Base: base, Attempts: r.maxAttempts}
}

// Candidate returns the n-th candidate for base: base itself for 0, otherwise
// base-n. The base is shortened when the suffix would overflow the length
// cap.
func (r *Resolver) Candidate(base string, n int) string {
	if n <= 0 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	head := base
	if len(head)+len(suffix) > r.maxLength {
		cut := max(r.maxLength-len(suffix), 0)
		head = strings.TrimRight(head[:min(cut, len(head))], "-")
	}
	if head == "" {
		return strconv.Itoa(n)
	}
	return head + suffix
}

// MaxLength reports the configured length cap.
func (r *Resolver) MaxLength() int {
	return r.maxLength
}

var defaultResolver = NewResolver()

// Resolve runs the default resolver.
func Resolve(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	return defaultResolver.Resolve(ctx, title, exists)
}
