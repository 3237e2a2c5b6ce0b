package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/generate"
)

// classify attaches an error code to pipeline failures so the CLI and the
// HTTP API report them uniformly. subject names the icon or collection.
// Errors that already carry a code, and cancellations, pass through.
func classify(err error, subject string) error {
	if err == nil || ferrors.GetCode(err) != "" {
		return err
	}
	var convErr *convert.ConversionError
	var delErr *delivery.DeliveryError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return ferrors.Wrap(ferrors.ErrCodeNotFound, err, "%s not found", subject)
	case errors.Is(err, catalog.ErrNetwork):
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "cannot reach the icon catalog for %s", subject)
	case errors.As(err, &convErr):
		return ferrors.Wrap(ferrors.ErrCodeConversion, err, "cannot convert %s (%s)", subject, convErr.Stage)
	case errors.As(err, &delErr):
		return ferrors.Wrap(ferrors.ErrCodeDelivery, err, "cannot deliver %s", delErr.Filename)
	case errors.Is(err, generate.ErrBusy):
		return ferrors.Wrap(ferrors.ErrCodeBusy, err, "a generation is already running")
	}
	return err
}

func statusFor(err error) int {
	switch ferrors.GetCode(err) {
	case ferrors.ErrCodeNotFound:
		return http.StatusNotFound
	case ferrors.ErrCodeConversion:
		return http.StatusUnprocessableEntity
	case ferrors.ErrCodeBusy:
		return http.StatusConflict
	case ferrors.ErrCodeInvalidFormat, ferrors.ErrCodeInvalidSize,
		ferrors.ErrCodeInvalidPrefix, ferrors.ErrCodeInvalidIconName:
		return http.StatusBadRequest
	case "":
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusBadGateway
}
