package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/goliatone/go-mdpages"
)

const envPrefix = "MDPAGES"

// loadConfig layers defaults, an optional config file and MDPAGES_*
// environment variables. ADMIN_EMAIL and ADMIN_PASSWORD are accepted
// without the prefix.
func loadConfig(path string) (mdpages.Config, error) {
	cfg := mdpages.DefaultConfig()
	vp := viper.New()
	setDefaults(vp, cfg)

	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	_ = vp.BindEnv("admin.email", envPrefix+"_ADMIN_EMAIL", "ADMIN_EMAIL")
	_ = vp.BindEnv("admin.password", envPrefix+"_ADMIN_PASSWORD", "ADMIN_PASSWORD")

	if path = strings.TrimSpace(path); path != "" {
		vp.SetConfigFile(path)
		if err := vp.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	cfg.Storage.Name = vp.GetString("storage.name")
	cfg.Storage.Driver = vp.GetString("storage.driver")
	cfg.Storage.DSN = vp.GetString("storage.dsn")

	cfg.Cache.Enabled = vp.GetBool("cache.enabled")
	cfg.Cache.DefaultTTL = vp.GetDuration("cache.ttl")

	cfg.Slugs.MaxLength = vp.GetInt("slugs.max_length")
	cfg.Slugs.MaxAttempts = vp.GetInt("slugs.max_attempts")
	cfg.Slugs.Fallback = vp.GetString("slugs.fallback")
	cfg.Slugs.Transliterate = vp.GetBool("slugs.transliterate")
	cfg.Slugs.Retries = vp.GetInt("slugs.retries")

	cfg.Markdown.HardWraps = vp.GetBool("markdown.hard_wraps")
	cfg.Markdown.UnsafeHTML = vp.GetBool("markdown.unsafe_html")
	cfg.Markdown.Alerts = vp.GetBool("markdown.alerts")
	cfg.Markdown.Highlight = vp.GetBool("markdown.highlight")
	cfg.Markdown.HighlightTheme = vp.GetString("markdown.highlight_theme")
	cfg.Markdown.HighlightClasses = vp.GetBool("markdown.highlight_classes")
	cfg.Markdown.Sanitize = vp.GetBool("markdown.sanitize")

	cfg.Assets.Dir = vp.GetString("assets.dir")
	cfg.Assets.BaseURL = vp.GetString("assets.base_url")
	cfg.Assets.MaxBytes = vp.GetInt64("assets.max_bytes")

	cfg.Pages.DashboardLimit = vp.GetInt("pages.dashboard_limit")
	cfg.Pages.MaxBytes = vp.GetInt64("pages.max_bytes")

	cfg.Logging.Provider = vp.GetString("logging.provider")
	cfg.Logging.Level = vp.GetString("logging.level")
	cfg.Logging.Format = vp.GetString("logging.format")
	cfg.Logging.AddSource = vp.GetBool("logging.add_source")
	cfg.Logging.Focus = vp.GetStringSlice("logging.focus")

	cfg.Server.Address = vp.GetString("server.address")
	cfg.Server.SessionKey = vp.GetString("server.session_key")
	cfg.Server.Metrics = vp.GetBool("server.metrics")
	cfg.Server.ShutdownTimeout = vp.GetDuration("server.shutdown_timeout")

	cfg.Admin.Email = vp.GetString("admin.email")
	cfg.Admin.Password = vp.GetString("admin.password")

	cfg.Commands.Timeout = vp.GetDuration("commands.timeout")
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(vp *viper.Viper, cfg mdpages.Config) {
	defaults := map[string]any{
		"storage.name":               cfg.Storage.Name,
		"storage.driver":             cfg.Storage.Driver,
		"storage.dsn":                cfg.Storage.DSN,
		"cache.enabled":              cfg.Cache.Enabled,
		"cache.ttl":                  cfg.Cache.DefaultTTL,
		"slugs.max_length":           cfg.Slugs.MaxLength,
		"slugs.max_attempts":         cfg.Slugs.MaxAttempts,
		"slugs.fallback":             cfg.Slugs.Fallback,
		"slugs.transliterate":        cfg.Slugs.Transliterate,
		"slugs.retries":              cfg.Slugs.Retries,
		"markdown.hard_wraps":        cfg.Markdown.HardWraps,
		"markdown.unsafe_html":       cfg.Markdown.UnsafeHTML,
		"markdown.alerts":            cfg.Markdown.Alerts,
		"markdown.highlight":         cfg.Markdown.Highlight,
		"markdown.highlight_theme":   cfg.Markdown.HighlightTheme,
		"markdown.highlight_classes": cfg.Markdown.HighlightClasses,
		"markdown.sanitize":          cfg.Markdown.Sanitize,
		"assets.dir":                 cfg.Assets.Dir,
		"assets.base_url":            cfg.Assets.BaseURL,
		"assets.max_bytes":           cfg.Assets.MaxBytes,
		"pages.dashboard_limit":      cfg.Pages.DashboardLimit,
		"pages.max_bytes":            cfg.Pages.MaxBytes,
		"logging.provider":           cfg.Logging.Provider,
		"logging.level":              cfg.Logging.Level,
		"logging.format":             cfg.Logging.Format,
		"logging.add_source":         cfg.Logging.AddSource,
		"logging.focus":              cfg.Logging.Focus,
		"server.address":             cfg.Server.Address,
		"server.session_key":         cfg.Server.SessionKey,
		"server.metrics":             cfg.Server.Metrics,
		"server.shutdown_timeout":    cfg.Server.ShutdownTimeout,
		"admin.email":                cfg.Admin.Email,
		"admin.password":             cfg.Admin.Password,
		"commands.timeout":           cfg.Commands.Timeout,
	}
	for key, value := range defaults {
		vp.SetDefault(key, value)
	}
}
