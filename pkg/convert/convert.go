package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"

	ferrors "github.com/enowx/forger/pkg/errors"
)

// Encoder qualities for lossy output.
const (
	JPEGQuality = 90
	WebPQuality = 90
)

// Converter rasterizes vector sources through a [Surface].
type Converter struct {
	surface Surface
}

// New creates a converter. A nil surface means [NativeSurface].
func New(surface Surface) *Converter {
	if surface == nil {
		surface = NativeSurface{}
	}
	return &Converter{surface: surface}
}

// Rasterize draws svg onto a size x size canvas and encodes it as format.
func (c *Converter) Rasterize(ctx context.Context, svg string, size int, format Format) ([]byte, error) {
	if err := ferrors.ValidateSize(size); err != nil {
		return nil, &ConversionError{Stage: "input", Err: fmt.Errorf("%w: %v", ErrInvalidSize, err)}
	}
	if !format.Raster() {
		return nil, &ConversionError{Stage: "input", Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
	}

	img, err := c.surface.Draw(ctx, []byte(svg), size)
	if err != nil {
		return nil, &ConversionError{Stage: "decode", Err: err}
	}
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = imaging.Resize(img, size, size, imaging.Lanczos)
	}

	data, err := encode(img, format)
	if err != nil {
		return nil, &ConversionError{Stage: "encode", Err: err}
	}
	return data, nil
}

func encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	case FormatJPEG:
		b := img.Bounds()
		flat := imaging.New(b.Dx(), b.Dy(), color.White)
		flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)
		if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return nil, err
		}
	case FormatWebP:
		if err := webp.Encode(&buf, img, webp.Options{Quality: WebPQuality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

var defaultConverter = New(nil)

// Rasterize converts with the [NativeSurface].
func Rasterize(ctx context.Context, svg string, size int, format Format) ([]byte, error) {
	return defaultConverter.Rasterize(ctx, svg, size, format)
}
