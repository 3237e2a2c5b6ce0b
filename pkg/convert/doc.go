// Package convert rasterizes vector icons.
//
// [Converter.Rasterize] decodes SVG markup through a [Surface], draws it
// scaled to a size x size canvas and encodes the canvas as PNG (lossless)
// or JPEG (lossy). Every failure is returned as a [*ConversionError]; an
// unreadable drawable is never turned into an empty image.
//
// Two surfaces are available:
//
//   - [NativeSurface]: pure Go, built on oksvg and rasterx (the default)
//   - [RSVGSurface]: shells out to rsvg-convert for full SVG support
//     (filters, masks, text). Requires librsvg: brew install librsvg
//     (macOS), apt install librsvg2-bin (Linux).
package convert
