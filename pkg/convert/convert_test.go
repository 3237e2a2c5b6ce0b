package convert

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	xwebp "golang.org/x/image/webp"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" width="1em" height="1em" viewBox="0 0 24 24"><path fill="currentColor" d="M0 0h24v24H0z"/></svg>`

const centered = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path fill="#000" d="M8 8h8v8H8z"/></svg>`

func TestRasterizePNG(t *testing.T) {
	data, err := Rasterize(context.Background(), square, 32, FormatPNG)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 32x32", b)
	}
	if _, _, _, a := img.At(16, 16).RGBA(); a == 0 {
		t.Error("center pixel is transparent; drawable was not painted")
	}
}

func TestRasterizeJPEGOverWhite(t *testing.T) {
	data, err := Rasterize(context.Background(), centered, 48, FormatJPEG)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 48 {
		t.Errorf("bounds = %v, want 48x48", b)
	}
	if r, g, b, _ := img.At(1, 1).RGBA(); r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("corner = (%d,%d,%d), want white background", r>>8, g>>8, b>>8)
	}
	if r, _, _, _ := img.At(24, 24).RGBA(); r>>8 > 40 {
		t.Errorf("center red = %d, want dark", r>>8)
	}
}

func TestRasterizeWebP(t *testing.T) {
	data, err := Rasterize(context.Background(), centered, 40, FormatWebP)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	cfg, err := xwebp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not WebP: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 40 {
		t.Errorf("size = %dx%d, want 40x40", cfg.Width, cfg.Height)
	}
	img, err := xwebp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, _, _, a := img.At(1, 1).RGBA(); a>>8 > 20 {
		t.Errorf("corner alpha = %d, want transparent", a>>8)
	}
}

func TestRasterizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		svg    string
		size   int
		format Format
		want   error
	}{
		{"malformed markup", `<svg viewBox="0 0 24 24"><path d=`, 32, FormatPNG, ErrDecode},
		{"not svg", `hello`, 32, FormatPNG, ErrDecode},
		{"empty", ``, 32, FormatPNG, ErrDecode},
		{"zero size", square, 0, FormatPNG, ErrInvalidSize},
		{"huge size", square, 100000, FormatPNG, ErrInvalidSize},
		{"svg output", square, 32, FormatSVG, ErrUnsupportedFormat},
		{"unknown format", square, 32, Format("gif"), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Rasterize(context.Background(), tt.svg, tt.size, tt.format)
			if data != nil {
				t.Error("failed conversion must not return data")
			}
			var ce *ConversionError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConversionError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

type fakeSurface struct {
	img image.Image
	err error
}

func (f fakeSurface) Draw(context.Context, []byte, int) (image.Image, error) {
	return f.img, f.err
}

func TestConverterSurfaceFailure(t *testing.T) {
	c := New(fakeSurface{err: errors.New("gpu lost")})
	_, err := c.Rasterize(context.Background(), square, 16, FormatPNG)

	var ce *ConversionError
	if !errors.As(err, &ce) || ce.Stage != "decode" {
		t.Fatalf("err = %v, want decode-stage ConversionError", err)
	}
}

func TestConverterResizesSurfaceOutput(t *testing.T) {
	c := New(fakeSurface{img: image.NewRGBA(image.Rect(0, 0, 100, 50))})
	data, err := c.Rasterize(context.Background(), square, 20, FormatPNG)
	if err != nil {
		t.Fatal(err)
	}
	img, _ := png.Decode(bytes.NewReader(data))
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("bounds = %v, want 20x20", b)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ext  string
		mime string
	}{
		{"svg", FormatSVG, "svg", "image/svg+xml"},
		{"PNG", FormatPNG, "png", "image/png"},
		{"jpg", FormatJPEG, "jpg", "image/jpeg"},
		{"jpeg", FormatJPEG, "jpg", "image/jpeg"},
		{"webp", FormatWebP, "webp", "image/webp"},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			continue
		}
		if got.Ext() != tt.ext || got.MIME() != tt.mime {
			t.Errorf("%q: Ext=%q MIME=%q", tt.in, got.Ext(), got.MIME())
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(gif) err = %v", err)
	}
}

func TestNormalizeDropsUnitDimensions(t *testing.T) {
	out, err := normalize([]byte(square))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if bytes.Contains(out, []byte(`1em`)) {
		t.Errorf("unit dimensions kept: %s", s)
	}
	if bytes.Contains(out, []byte(`currentColor`)) {
		t.Errorf("currentColor kept: %s", s)
	}

	keep, _ := normalize([]byte(`<svg width="24" height="24px" viewBox="0 0 24 24"/>`))
	if !bytes.Contains(keep, []byte(`width="24"`)) {
		t.Errorf("plain dimension dropped: %s", keep)
	}
	if bytes.Contains(keep, []byte(`24px`)) {
		t.Errorf("suffixed dimension kept: %s", keep)
	}
}
