package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/internal/logging/console"
)

func TestConsoleLoggerWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
	})

	logger := logging.ModuleLogger(provider, "mdpages.pages")
	ctx := logging.WithRequestID(context.Background(), "req-1")
	logger = logger.WithContext(ctx)

	pageID := uuid.MustParse("8a51a9b1-2d30-4b2c-8ecd-2c0b87dfa999")
	logger.Info("pages.created", "page_id", pageID, "slug", "hello-world")

	got := strings.TrimSpace(buf.String())
	want := "2024-03-14T15:09:26Z INFO pages.created logger=mdpages.pages module=mdpages.pages page_id=8a51a9b1-2d30-4b2c-8ecd-2c0b87dfa999 request_id=req-1 slug=hello-world"
	if got != want {
		t.Fatalf("unexpected entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLoggerFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	minLevel := console.LevelWarn
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: &minLevel})

	logger := provider.GetLogger("mdpages.test")
	logger.Info("dropped")
	logger.Warn("kept", "error", errors.New("bad fence"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `error="bad fence"`) {
		t.Fatalf("expected quoted error value, got %s", lines[0])
	}
}

func TestConsoleLoggerKeepsDanglingArgs(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})
	provider.GetLogger("x").Debug("odd", "key", "value", "orphan")

	if !strings.Contains(buf.String(), "arg_2=orphan") {
		t.Fatalf("expected dangling arg to be kept, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]console.Level{
		"trace":   console.LevelTrace,
		"DEBUG":   console.LevelDebug,
		"warning": console.LevelWarn,
		"":        console.LevelInfo,
	}
	for input, want := range cases {
		got, ok := console.ParseLevel(input)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", input, got, ok, want)
		}
	}
	if _, ok := console.ParseLevel("verbose"); ok {
		t.Fatal("expected unknown level to be rejected")
	}
}
