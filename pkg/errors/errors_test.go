package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "unknown format: %s", "gif")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}
	if err.Message != "unknown format: gif" {
		t.Errorf("Message = %q", err.Message)
	}
	if want := "INVALID_FORMAT: unknown format: gif"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapKeepsStageCause(t *testing.T) {
	stage := errors.New("encode: png writer closed")
	err := Wrap(ErrCodeConversion, stage, "cannot convert %s", "mdi:home")

	if errors.Unwrap(err) != stage {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), stage)
	}
	if !errors.Is(err, stage) {
		t.Error("errors.Is(err, stage) = false")
	}
	if want := "CONVERSION_FAILED: cannot convert mdi:home: encode: png writer closed"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	busy := New(ErrCodeBusy, "a generation is already running")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", busy, ErrCodeBusy, true},
		{"other code", busy, ErrCodeDelivery, false},
		{"wrapped by fmt", fmt.Errorf("generate: %w", busy), ErrCodeBusy, true},
		{"outer code wins", Wrap(ErrCodeDelivery, New(ErrCodeNetwork, "inner"), "outer"), ErrCodeDelivery, true},
		{"inner code hidden", Wrap(ErrCodeDelivery, New(ErrCodeNetwork, "inner"), "outer"), ErrCodeNetwork, false},
		{"plain error", errors.New("plain"), ErrCodeBusy, false},
		{"nil", nil, ErrCodeBusy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not found", New(ErrCodeNotFound, "mdi:nope not found"), ErrCodeNotFound},
		{"wrapped delivery", fmt.Errorf("batch: %w", Wrap(ErrCodeDelivery, errors.New("disk full"), "cannot deliver")), ErrCodeDelivery},
		{"template", New(ErrCodeInvalidTemplate, "template without id"), ErrCodeInvalidTemplate},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", Wrap(ErrCodeNetwork, errors.New("dial tcp: refused"), "cannot reach the icon catalog"), "cannot reach the icon catalog"},
		{"wrapped coded", fmt.Errorf("download: %w", New(ErrCodeInvalidSize, "size must be 1..4096")), "size must be 1..4096"},
		{"plain error", errors.New("plain error"), "plain error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
