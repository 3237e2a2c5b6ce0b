package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/generate"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ferrors.Code
		msg    string
		status int
	}{
		{
			name:   "not found",
			err:    fmt.Errorf("fetch: %w", catalog.ErrNotFound),
			code:   ferrors.ErrCodeNotFound,
			msg:    "mdi:home not found",
			status: http.StatusNotFound,
		},
		{
			name:   "network",
			err:    fmt.Errorf("%w: status 503", catalog.ErrNetwork),
			code:   ferrors.ErrCodeNetwork,
			msg:    "cannot reach the icon catalog for mdi:home",
			status: http.StatusBadGateway,
		},
		{
			name:   "conversion",
			err:    &convert.ConversionError{Stage: "decode", Err: convert.ErrDecode},
			code:   ferrors.ErrCodeConversion,
			msg:    "cannot convert mdi:home (decode)",
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "delivery",
			err:    &delivery.DeliveryError{Filename: "mdi-home.png", Fallback: errors.New("no server")},
			code:   ferrors.ErrCodeDelivery,
			msg:    "cannot deliver mdi-home.png",
			status: http.StatusBadGateway,
		},
		{
			name:   "busy",
			err:    generate.ErrBusy,
			code:   ferrors.ErrCodeBusy,
			msg:    "a generation is already running",
			status: http.StatusConflict,
		},
		{
			name:   "already coded",
			err:    ferrors.New(ferrors.ErrCodeInvalidSize, "size too large"),
			code:   ferrors.ErrCodeInvalidSize,
			msg:    "size too large",
			status: http.StatusBadRequest,
		},
		{
			name:   "canceled",
			err:    context.Canceled,
			msg:    "context canceled",
			status: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "mdi:home")
			if got := ferrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
			if got := ferrors.UserMessage(err); got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
			if !errors.Is(err, tt.err) && !errors.Is(tt.err, err) {
				t.Errorf("classified error lost its cause: %v", err)
			}
			if got := statusFor(err); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}

	if classify(nil, "x") != nil {
		t.Error("classify(nil) should be nil")
	}
}
