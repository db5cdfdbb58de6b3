package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct {
	Name string
}

func (testMessage) Type() string { return "mdpages.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "mdpages.test.invalid" }

func (invalidMessage) Validate() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerReportsTelemetry(t *testing.T) {
	var got []TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if msg.Name == "fail" {
			return errors.New("boom")
		}
		return nil
	},
		WithOperation[testMessage]("test.run"),
		WithMessageFields(func(msg testMessage) map[string]any {
			return map[string]any{"name": msg.Name}
		}),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) {
			got = append(got, info)
		}),
	)

	_ = h.Execute(context.Background(), testMessage{Name: "ok"})
	_ = h.Execute(context.Background(), testMessage{Name: "fail"})

	if len(got) != 2 {
		t.Fatalf("expected 2 telemetry calls, got %d", len(got))
	}
	if got[0].Status != TelemetryStatusSuccess || got[0].Fields["name"] != "ok" {
		t.Fatalf("unexpected success telemetry %#v", got[0])
	}
	if got[0].Command != "mdpages.test.message" || got[0].Operation != "test.run" {
		t.Fatalf("unexpected command labels %#v", got[0])
	}
	if got[1].Status != TelemetryStatusFailed || got[1].Error == nil {
		t.Fatalf("unexpected failure telemetry %#v", got[1])
	}
}

func TestNewHandlerPanicsOnNilFunction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewHandler[testMessage](nil)
}

func TestHandlerAttachesTextCodes(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	})
	if code := TextCode(h.Execute(context.Background(), testMessage{})); code != TextCodeFailed {
		t.Fatalf("expected %s, got %q", TextCodeFailed, code)
	}

	invalid := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error { return nil })
	if code := TextCode(invalid.Execute(context.Background(), invalidMessage{})); code != TextCodeInvalid {
		t.Fatalf("expected %s, got %q", TextCodeInvalid, code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := TextCode(h.Execute(ctx, testMessage{})); code != TextCodeCanceled {
		t.Fatalf("expected %s, got %q", TextCodeCanceled, code)
	}
}

func TestHandlerClassifiesDomainErrors(t *testing.T) {
	errMissing := errors.New("page missing")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if msg.Name == "missing" {
			return fmt.Errorf("lookup: %w", errMissing)
		}
		return errors.New("other")
	}, WithClassifier[testMessage](Classify(
		nil,
		When(errMissing, Failure{Category: goerrors.CategoryNotFound, TextCode: "MDPAGES_PAGE_NOT_FOUND"}),
	)))

	err := h.Execute(context.Background(), testMessage{Name: "missing"})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}
	if TextCode(err) != "MDPAGES_PAGE_NOT_FOUND" {
		t.Fatalf("unexpected text code %q", TextCode(err))
	}
	if !errors.Is(err, errMissing) {
		t.Fatalf("expected domain error preserved, got %v", err)
	}

	err = h.Execute(context.Background(), testMessage{Name: "other"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) || TextCode(err) != TextCodeFailed {
		t.Fatalf("expected generic failure for unclassified error, got %v", err)
	}
}
