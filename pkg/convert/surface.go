package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Surface draws vector markup onto a size x size canvas.
type Surface interface {
	Draw(ctx context.Context, svg []byte, size int) (image.Image, error)
}

// NativeSurface renders with oksvg and rasterx.
type NativeSurface struct{}

var (
	rootTagRE  = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	dimAttrRE  = regexp.MustCompile(`\s(width|height)\s*=\s*"([^"]*)"`)
	currentRE  = regexp.MustCompile(`(?i)currentColor`)
	plainDimRE = regexp.MustCompile(`^\s*[0-9.]+\s*$`)
)

// Draw decodes svg and renders it scaled to fill the canvas.
func (NativeSurface) Draw(ctx context.Context, svg []byte, size int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := normalize(svg)
	if err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(src), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, fmt.Errorf("%w: missing or empty viewBox", ErrDecode)
	}

	icon.SetTarget(0, 0, float64(size), float64(size))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

// normalize prepares catalog markup for oksvg: unit-suffixed root
// dimensions ("1em") are dropped in favor of the viewBox, and currentColor
// resolves to black.
func normalize(svg []byte) ([]byte, error) {
	loc := rootTagRE.FindIndex(svg)
	if loc == nil {
		return nil, fmt.Errorf("%w: no <svg> root element", ErrDecode)
	}
	root := dimAttrRE.ReplaceAllFunc(svg[loc[0]:loc[1]], func(attr []byte) []byte {
		m := dimAttrRE.FindSubmatch(attr)
		if plainDimRE.Match(m[2]) {
			return attr
		}
		return nil
	})

	out := make([]byte, 0, len(svg))
	out = append(out, svg[:loc[0]]...)
	out = append(out, root...)
	out = append(out, svg[loc[1]:]...)
	return currentRE.ReplaceAll(out, []byte("#000000")), nil
}

// RSVGSurface renders by piping markup through rsvg-convert.
type RSVGSurface struct {
	// Binary overrides the executable name. Defaults to "rsvg-convert".
	Binary string
}

// Draw runs rsvg-convert and decodes its PNG output.
func (s RSVGSurface) Draw(ctx context.Context, svg []byte, size int) (image.Image, error) {
	bin := s.Binary
	if bin == "" {
		bin = "rsvg-convert"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("rasterizing requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	dim := strconv.Itoa(size)
	cmd := exec.CommandContext(ctx, bin, "-f", "png", "-w", dim, "-h", dim)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: rsvg-convert: %v: %s", ErrDecode, err, strings.TrimSpace(errBuf.String()))
	}
	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: rsvg-convert output: %v", ErrDecode, err)
	}
	return img, nil
}
