package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeAmbiguousAuthority, "conflict for %s", "a-0.1-0")

	if err.Code != ErrCodeAmbiguousAuthority {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeAmbiguousAuthority)
	}
	if err.Message != "conflict for a-0.1-0" {
		t.Errorf("Message = %v, want %v", err.Message, "conflict for a-0.1-0")
	}

	expected := "AMBIGUOUS_AUTHORITY: conflict for a-0.1-0"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidConfig, cause, "load sources")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "INVALID_CONFIG: load sources: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeNotImplemented, "perl"), ErrCodeNotImplemented, true},
		{"different code", New(ErrCodeNotImplemented, "perl"), ErrCodeUnsatisfiable, false},
		{"wrapped by fmt", fmt.Errorf("matrix: %w", New(ErrCodeNotImplemented, "r")), ErrCodeNotImplemented, true},
		{"plain error", errors.New("boom"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeMissingArtifact, "rebuild needed"))
	if got := GetCode(err); got != ErrCodeMissingArtifact {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeMissingArtifact)
	}
	if got := UserMessage(err); got != "rebuild needed" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestRecoverable(t *testing.T) {
	if Recoverable(nil) {
		t.Error("Recoverable(nil) = true")
	}
	if !Recoverable(fmt.Errorf("case: %w", New(ErrCodeUnsatisfiable, "no solution"))) {
		t.Error("unsatisfiable should be recoverable")
	}
	if Recoverable(New(ErrCodeAmbiguousAuthority, "x")) {
		t.Error("ambiguous authority should not be recoverable")
	}
	if Recoverable(errors.New("io")) {
		t.Error("uncoded errors should not be recoverable")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "conda-recipes", false},
		{"dotted", "scitools.extra", false},
		{"empty", "", true},
		{"traversal", "..etc", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"space", "a b", true},
		{"control", "a\x01b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("source", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}
