package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(42), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if got := test.class.String(); got != test.expected {
				t.Errorf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"no connection", ErrNoConnection, true},
		{"circuit open", ErrCircuitOpen, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid data", ErrInvalidData, false},
		{"unknown profile", ErrProfileNotFound, false},
		{"timeout in message", fmt.Errorf("read timeout on serial bridge"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("x")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("timeout")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsTransient(test.err); got != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, got, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"profile not found", ErrProfileNotFound, true},
		{"wrapped profile not found", fmt.Errorf("select: %w", ErrProfileNotFound), true},
		{"connection timeout", ErrConnectionTimeout, false},
		{"fatal in message", fmt.Errorf("fatal: catalog empty"), true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("x")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsFatal(test.err); got != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, got, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid data", ErrInvalidData, true},
		{"parsing failed", ErrParsingFailed, true},
		{"connection timeout", ErrConnectionTimeout, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("x")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("x")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsInvalid(test.err); got != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, got, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"connection timeout", ErrConnectionTimeout, ErrorTransient},
		{"invalid config", ErrInvalidConfig, ErrorFatal},
		{"invalid data", ErrInvalidData, ErrorInvalid},
		{"unknown error", fmt.Errorf("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "Catalog", "Select", "lookup") != nil {
		t.Fatal("wrapping nil must return nil")
	}

	base := errors.New("boom")
	err := Wrap(base, "Catalog", "Select", "lookup")
	want := "Catalog.Select: lookup failed: boom"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error must unwrap to base")
	}
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("no such profile")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrap(nil, "c", "m", "a") != nil {
				t.Fatal("wrapping nil must return nil")
			}

			err := test.wrap(base, "Catalog", "Select", "resolve profile")
			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ClassifiedError, got %T", err)
			}
			if ce.Class != test.class {
				t.Errorf("expected class %v, got %v", test.class, ce.Class)
			}
			if ce.Component != "Catalog" || ce.Operation != "Select" {
				t.Errorf("unexpected context %s.%s", ce.Component, ce.Operation)
			}
			if !strings.HasPrefix(err.Error(), "Catalog.Select: resolve profile failed") {
				t.Errorf("unexpected message %q", err.Error())
			}
			if !errors.Is(err, base) {
				t.Error("classified error must unwrap to base")
			}
			if Classify(err) != test.class {
				t.Errorf("Classify disagrees: %v", Classify(err))
			}
		})
	}
}

func TestRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if !cfg.ShouldRetry(ErrConnectionTimeout, 0) {
		t.Error("transient error should be retried")
	}
	if cfg.ShouldRetry(ErrInvalidConfig, 0) {
		t.Error("fatal error should not be retried")
	}
	if cfg.ShouldRetry(ErrConnectionTimeout, cfg.MaxRetries) {
		t.Error("must stop after MaxRetries")
	}

	cfg.RetryableErrors = []error{ErrCircuitOpen}
	if cfg.ShouldRetry(ErrConnectionLost, 0) {
		t.Error("only listed errors should be retried")
	}
	if !cfg.ShouldRetry(fmt.Errorf("connect: %w", ErrCircuitOpen), 0) {
		t.Error("listed error should be retried")
	}

	rc := DefaultRetryConfig().ToRetryConfig()
	if rc.MaxAttempts != 6 {
		t.Errorf("expected 6 attempts, got %d", rc.MaxAttempts)
	}
	if rc.InitialDelay != 200*time.Millisecond || !rc.AddJitter {
		t.Errorf("unexpected retry config %+v", rc)
	}
}
