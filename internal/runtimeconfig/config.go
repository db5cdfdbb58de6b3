package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-mdpages/pkg/storage"
)

var (
	ErrStorageDriverUnknown = errors.New("mdpages config: storage driver is invalid")
	ErrStorageDSNRequired   = errors.New("mdpages config: storage dsn is required")
	// ErrCacheTTLInvalid guards against negative or zero TTLs on an enabled cache.
	ErrCacheTTLInvalid         = errors.New("mdpages config: cache ttl must be positive when cache is enabled")
	ErrSlugMaxLengthInvalid    = errors.New("mdpages config: slug max length must be positive")
	ErrSlugFallbackUnknown     = errors.New("mdpages config: slug fallback is invalid")
	ErrSlugRetriesInvalid      = errors.New("mdpages config: slug retries must be zero or positive")
	ErrAssetsDirRequired       = errors.New("mdpages config: assets directory is required")
	ErrAssetsMaxBytesInvalid   = errors.New("mdpages config: assets max bytes must be positive")
	ErrPagesMaxBytesInvalid    = errors.New("mdpages config: pages max bytes must be positive")
	ErrDashboardLimitInvalid   = errors.New("mdpages config: dashboard limit must be zero or positive")
	ErrLoggingProviderRequired = errors.New("mdpages config: logging provider is required")
	ErrLoggingProviderUnknown  = errors.New("mdpages config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("mdpages config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("mdpages config: logging format is invalid")
	ErrServerAddressRequired   = errors.New("mdpages config: server address is required")
	ErrSessionKeyRequired      = errors.New("mdpages config: session key is required when admin credentials are set")
	ErrSessionKeyTooShort      = errors.New("mdpages config: session key must be at least 32 bytes")
	// ErrAdminCredentialsIncomplete reports an email without a password or
	// the reverse.
	ErrAdminCredentialsIncomplete = errors.New("mdpages config: admin email and password must be set together")
	ErrCommandTimeoutInvalid      = errors.New("mdpages config: command timeout must be zero or positive")
)

// MinSessionKeyLength is the shortest accepted cookie signing key.
const MinSessionKeyLength = 32

// Config aggregates every setting the module reads at start-up.
type Config struct {
	Storage  storage.Config
	Cache    CacheConfig
	Slugs    SlugConfig
	Markdown MarkdownConfig
	Assets   AssetsConfig
	Pages    PagesConfig
	Logging  LoggingConfig
	Server   ServerConfig
	Admin    AdminConfig
	Commands CommandsConfig
}

// CacheConfig toggles the repository read cache.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// SlugConfig tunes slug resolution.
type SlugConfig struct {
	MaxLength   int
	MaxAttempts int
	// Fallback is "hash" or "reject".
	Fallback      string
	Transliterate bool
	// Retries bounds re-resolution after a lost insert race.
	Retries int
}

// MarkdownConfig mirrors markdown.Options.
type MarkdownConfig struct {
	HardWraps        bool
	UnsafeHTML       bool
	Alerts           bool
	Highlight        bool
	HighlightTheme   string
	HighlightClasses bool
	Sanitize         bool
}

// AssetsConfig controls where uploads live and how they are addressed.
type AssetsConfig struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

type PagesConfig struct {
	DashboardLimit int
	MaxBytes       int64
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// ServerConfig configures the HTTP binary.
type ServerConfig struct {
	Address         string
	SessionKey      string
	Metrics         bool
	ShutdownTimeout time.Duration
}

// AdminConfig holds the bootstrap admin account. Both fields empty leaves
// the admin API unmounted.
type AdminConfig struct {
	Email    string
	Password string
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	Timeout time.Duration
}

// DefaultConfig returns a sqlite-backed configuration serving on :3000.
func DefaultConfig() Config {
	return Config{
		Storage: storage.Config{
			Name:   "primary",
			Driver: storage.DriverSQLite,
			DSN:    "file:mdpages.db?cache=shared",
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Slugs: SlugConfig{
			MaxLength:   50,
			MaxAttempts: 1000,
			Fallback:    "hash",
			Retries:     3,
		},
		Markdown: MarkdownConfig{
			HardWraps:      true,
			UnsafeHTML:     true,
			Alerts:         true,
			Highlight:      true,
			HighlightTheme: "monokai",
		},
		Assets: AssetsConfig{
			Dir:      "uploads",
			MaxBytes: 10 << 20,
		},
		Pages: PagesConfig{
			DashboardLimit: 50,
			MaxBytes:       5 << 20,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Server: ServerConfig{
			Address:         ":3000",
			Metrics:         true,
			ShutdownTimeout: 10 * time.Second,
		},
		Commands: CommandsConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch strings.TrimSpace(cfg.Storage.Driver) {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Cache.Enabled && cfg.Cache.DefaultTTL <= 0 {
		return ErrCacheTTLInvalid
	}

	if cfg.Slugs.MaxLength < 1 {
		return ErrSlugMaxLengthInvalid
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Slugs.Fallback)) {
	case "", "hash", "reject":
	default:
		return fmt.Errorf("%w: %s", ErrSlugFallbackUnknown, cfg.Slugs.Fallback)
	}
	if cfg.Slugs.Retries < 0 {
		return ErrSlugRetriesInvalid
	}

	if strings.TrimSpace(cfg.Assets.Dir) == "" {
		return ErrAssetsDirRequired
	}
	if cfg.Assets.MaxBytes <= 0 {
		return ErrAssetsMaxBytesInvalid
	}
	if cfg.Pages.MaxBytes <= 0 {
		return ErrPagesMaxBytesInvalid
	}
	if cfg.Pages.DashboardLimit < 0 {
		return ErrDashboardLimitInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		return ErrServerAddressRequired
	}
	email := strings.TrimSpace(cfg.Admin.Email)
	if (email == "") != (cfg.Admin.Password == "") {
		return ErrAdminCredentialsIncomplete
	}
	if email != "" && cfg.Server.SessionKey == "" {
		return ErrSessionKeyRequired
	}
	if key := cfg.Server.SessionKey; key != "" && len(key) < MinSessionKeyLength {
		return ErrSessionKeyTooShort
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	return nil
}

// AdminEnabled reports whether the admin API should be mounted.
func (cfg Config) AdminEnabled() bool {
	return strings.TrimSpace(cfg.Admin.Email) != "" && cfg.Server.SessionKey != ""
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
