package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// Options captures configuration for markdown CLI bootstraps.
type Options struct {
	DSN            string
	AssetsDir      string
	BaseURL        string
	Memory         bool
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the mdpages module and a CLI logger.
type Module struct {
	Module *mdpages.Module
	Logger interfaces.Logger
}

// BuildModule constructs a module over the database in opts.
func BuildModule(ctx context.Context, opts Options) (*Module, error) {
	cfg := mdpages.DefaultConfig()
	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if dir := strings.TrimSpace(opts.AssetsDir); dir != "" {
		cfg.Assets.Dir = dir
	}
	cfg.Assets.BaseURL = strings.TrimSpace(opts.BaseURL)

	var diOpts []mdpages.Option
	if opts.Memory {
		diOpts = append(diOpts, mdpages.WithMemoryStorage())
	}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, mdpages.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := mdpages.New(ctx, cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise mdpages module: %w", err)
	}
	return &Module{
		Module: module,
		Logger: logging.ModuleLogger(module.Container().LoggerProvider(), "mdpages.cli"),
	}, nil
}

// ParseUUIDPointer returns nil for an empty value.
func ParseUUIDPointer(value string) (*uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseOptionalBool maps "" to nil and anything else through strconv.
func ParseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SplitList parses a comma separated list into a trimmed slice.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
