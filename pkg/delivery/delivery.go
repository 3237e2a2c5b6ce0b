package delivery

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrInvalidFilename is returned for filenames that are not a single path
// element.
var ErrInvalidFilename = errors.New("invalid filename")

// Method tells how a file reached the user.
type Method int

const (
	MethodNative Method = iota
	MethodFallback
)

func (m Method) String() string {
	if m == MethodFallback {
		return "fallback"
	}
	return "native"
}

// Delivery describes a delivered file. Location is a file path for
// MethodNative and whatever the fallback returned (a URL or path) for
// MethodFallback.
type Delivery struct {
	Method   Method
	Location string
}

// Fallback offers a payload to the user interactively and returns where
// it can be fetched.
type Fallback interface {
	Offer(ctx context.Context, filename, mimeType string, payload []byte) (string, error)
}

// DeliveryError is returned when both the native write and the fallback
// failed. Native is nil when no directory was configured.
type DeliveryError struct {
	Filename string
	Native   error
	Fallback error
}

func (e *DeliveryError) Error() string {
	if e.Native == nil {
		return fmt.Sprintf("deliver %s: fallback: %v", e.Filename, e.Fallback)
	}
	return fmt.Sprintf("deliver %s: native: %v; fallback: %v", e.Filename, e.Native, e.Fallback)
}

func (e *DeliveryError) Unwrap() []error {
	var errs []error
	if e.Native != nil {
		errs = append(errs, e.Native)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// Resolver delivers payloads natively or through a fallback.
type Resolver struct {
	fs       FS
	fallback Fallback
	logger   *log.Logger
}

// NewResolver creates a resolver. A nil fs means [OSFS]; a nil logger
// means log.Default().
func NewResolver(fs FS, fallback Fallback, logger *log.Logger) *Resolver {
	if fs == nil {
		fs = OSFS{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{fs: fs, fallback: fallback, logger: logger}
}

// Deliver writes payload as filename into dir, or offers it through the
// fallback when dir is empty or the write fails.
func (r *Resolver) Deliver(ctx context.Context, dir, filename string, payload []byte) (Delivery, error) {
	if err := checkFilename(filename); err != nil {
		return Delivery{}, &DeliveryError{Filename: filename, Native: err, Fallback: err}
	}

	var nativeErr error
	if dir != "" {
		path, err := r.writeNative(dir, filename, payload)
		if err == nil {
			return Delivery{Method: MethodNative, Location: path}, nil
		}
		nativeErr = err
		r.logger.Warn("native write failed, using fallback", "file", filename, "dir", dir, "err", err)
	}

	if r.fallback == nil {
		return Delivery{}, &DeliveryError{Filename: filename, Native: nativeErr, Fallback: errors.New("no fallback configured")}
	}
	loc, err := r.fallback.Offer(ctx, filename, mimeType(filename), payload)
	if err != nil {
		return Delivery{}, &DeliveryError{Filename: filename, Native: nativeErr, Fallback: err}
	}
	return Delivery{Method: MethodFallback, Location: loc}, nil
}

func (r *Resolver) writeNative(dir, filename string, payload []byte) (string, error) {
	ok, err := r.fs.Exists(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !ok {
		if err := r.fs.MkdirAll(dir); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	path := r.fs.Join(dir, filename)
	if err := r.fs.WriteFile(path, payload); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func checkFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

func mimeType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
