package convert

import (
	"fmt"
	"strings"
)

// Format is an output file format.
type Format string

const (
	FormatSVG  Format = "svg"  // vector passthrough, not rasterized
	FormatPNG  Format = "png"  // raster, lossless
	FormatJPEG Format = "jpeg" // raster, lossy
	FormatWebP Format = "webp" // raster, lossy with alpha
)

// ParseFormat parses a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: %q (use svg, png, jpeg or webp)", ErrUnsupportedFormat, s)
	}
}

// Raster reports whether f needs rasterization.
func (f Format) Raster() bool {
	return f == FormatPNG || f == FormatJPEG || f == FormatWebP
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// MIME returns the media type of f.
func (f Format) MIME() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
