package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/settings"
)

func TestParseIconArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    catalog.Identifier
		wantErr ferrors.Code
	}{
		{[]string{"mdi:home"}, catalog.Identifier{Prefix: "mdi", Name: "home"}, ""},
		{[]string{"mdi", "home"}, catalog.Identifier{Prefix: "mdi", Name: "home"}, ""},
		{[]string{"custom:a:b"}, catalog.Identifier{Prefix: "custom", Name: "a:b"}, ""},
		{[]string{"mdi"}, catalog.Identifier{}, ferrors.ErrCodeInvalidIconName},
		{[]string{"MDI:home"}, catalog.Identifier{}, ferrors.ErrCodeInvalidPrefix},
		{[]string{"mdi:../etc"}, catalog.Identifier{}, ferrors.ErrCodeInvalidIconName},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.args), func(t *testing.T) {
			got, err := parseIconArgs(tt.args)
			if tt.wantErr != "" {
				if !ferrors.Is(err, tt.wantErr) {
					t.Fatalf("parseIconArgs() error = %v, want code %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIconArgs() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseIconArgs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDownloadOptsResolve(t *testing.T) {
	s := settings.Defaults()
	s.DownloadPath = "/saved"

	format, size, dir, err := (&downloadOpts{}).resolve(s)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if format != convert.FormatSVG || size != 64 || dir != "/saved" {
		t.Errorf("defaults = %s %d %q", format, size, dir)
	}

	format, size, dir, err = (&downloadOpts{format: "jpg", size: 128, out: "./icons"}).resolve(s)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if format != convert.FormatJPEG || size != 128 || dir != "./icons" {
		t.Errorf("flags = %s %d %q", format, size, dir)
	}
}

func TestDownloadOptsResolveSavedWebP(t *testing.T) {
	s := settings.Defaults()
	if err := s.SetField("defaultIconFormat", "webp"); err != nil {
		t.Fatalf("SetField() error: %v", err)
	}

	format, _, _, err := (&downloadOpts{}).resolve(s)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if format != convert.FormatWebP || !format.Raster() {
		t.Errorf("format = %s, want webp", format)
	}
}

func TestDownloadOptsResolveErrors(t *testing.T) {
	s := settings.Defaults()

	_, _, _, err := (&downloadOpts{format: "gif"}).resolve(s)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) || !errors.Is(err, convert.ErrUnsupportedFormat) {
		t.Errorf("gif error = %v", err)
	}

	_, _, _, err = (&downloadOpts{format: "png", size: 10000}).resolve(s)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidSize) {
		t.Errorf("size error = %v", err)
	}

	if _, _, _, err = (&downloadOpts{format: "svg", size: -1}).resolve(s); err != nil {
		t.Errorf("svg ignores size, got %v", err)
	}
}

func TestFailureCause(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&convert.ConversionError{Stage: "decode", Err: convert.ErrDecode}, "conversion failed: " + convert.ErrDecode.Error()},
		{fmt.Errorf("fetch: %w", catalog.ErrNotFound), "not found in catalog"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := failureCause(tt.err); got != tt.want {
			t.Errorf("failureCause(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	delErr := &delivery.DeliveryError{Native: errors.New("read-only"), Fallback: errors.New("no server")}
	if got := failureCause(delErr); got != delErr.Error() {
		t.Errorf("failureCause(DeliveryError) = %q", got)
	}
}
