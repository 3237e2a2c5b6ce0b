package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode means the vector source could not be decoded.
	ErrDecode = errors.New("cannot decode vector source")

	// ErrInvalidSize means the requested edge length is out of range.
	ErrInvalidSize = errors.New("invalid size")

	// ErrUnsupportedFormat means the output format cannot be produced.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ConversionError reports the pipeline stage that failed.
type ConversionError struct {
	Stage string // "input", "decode", "draw" or "encode"
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert: %s: %v", e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
