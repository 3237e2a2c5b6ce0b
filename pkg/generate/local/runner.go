// Package local implements the generation job runner in process.
//
// A job decodes the source image once, then resizes and encodes it for every
// icon of the template into <output>/<template>. Progress is emitted before
// each icon and a completion event after the last one.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"

	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/generate"
)

// OutputDirName is the folder created under the documents directory.
const OutputDirName = "enowX-Forger-Output"

// Failure names for job-level errors.
const (
	FailedSource    = "source"
	FailedOutputDir = "output_dir"
)

// ErrSVGOutput is reported for icons requesting vector output.
var ErrSVGOutput = errors.New("SVG generation from raster not supported")

// Runner is an in-process [generate.Runner].
type Runner struct {
	emit    generate.Emitter
	logger  *log.Logger
	homeDir func() (string, error)
	opener  func(path string) *exec.Cmd
}

// Option configures a [Runner].
type Option func(*Runner)

// WithHomeDir overrides the home directory lookup.
func WithHomeDir(fn func() (string, error)) Option {
	return func(r *Runner) { r.homeDir = fn }
}

// WithOpener overrides the command used by OpenFolder.
func WithOpener(fn func(path string) *exec.Cmd) Option {
	return func(r *Runner) { r.opener = fn }
}

// New creates a runner publishing to emit. A nil logger means log.Default().
func New(emit generate.Emitter, logger *log.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		emit:    emit,
		logger:  logger,
		homeDir: os.UserHomeDir,
		opener:  openCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate runs one job. Per-icon problems end up in the result; the error
// is non-nil only when ctx ends before the job finished.
func (r *Runner) Generate(ctx context.Context, req generate.Request) (generate.Result, error) {
	res := generate.Result{
		Generated:    []string{},
		Failed:       []generate.FailedIcon{},
		OutputPath:   req.OutputPath,
		TemplateName: req.TemplateName,
	}

	src, err := decode(req.ImageData)
	if err != nil {
		res.Failed = append(res.Failed, generate.FailedIcon{Name: FailedSource, Error: err.Error()})
		return r.finish(res), nil
	}

	dir := filepath.Join(req.OutputPath, req.TemplateName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Failed = append(res.Failed, generate.FailedIcon{Name: FailedOutputDir, Error: err.Error()})
		return r.finish(res), nil
	}

	for i, icon := range req.Icons {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.emit.EmitProgress(generate.ProgressEvent{
			TemplateName: req.TemplateName,
			Current:      i + 1,
			Total:        len(req.Icons),
			CurrentIcon:  icon.Name,
		})

		if err := writeIcon(src, dir, icon); err != nil {
			r.logger.Debug("icon failed", "template", req.TemplateName, "icon", icon.Name, "err", err)
			res.Failed = append(res.Failed, generate.FailedIcon{Name: icon.Name, Error: err.Error()})
			continue
		}
		res.Generated = append(res.Generated, icon.Name)
	}
	return r.finish(res), nil
}

func (r *Runner) finish(res generate.Result) generate.Result {
	res.Success = len(res.Failed) == 0
	r.emit.EmitComplete(res)
	return res
}

func decode(data string) (image.Image, error) {
	_, raw, err := generate.DecodeDataURI(data)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func writeIcon(src image.Image, dir string, icon generate.IconSize) error {
	if err := ferrors.ValidateRelativePath(icon.Name); err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.FromSlash(icon.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	format := strings.ToLower(icon.Format)
	switch format {
	case "svg":
		return ErrSVGOutput
	case "ico":
		return writeFile(path, func(f *os.File) error { return writeICO(f, src, ICOSizes) })
	case "icns":
		return writeFile(path, func(f *os.File) error { return writeICNS(f, src) })
	case "webp":
		resized := imaging.Resize(src, icon.Width, icon.Height, imaging.Lanczos)
		return writeFile(path, func(f *os.File) error {
			return webp.Encode(f, resized, webp.Options{Lossless: true})
		})
	}

	enc, ok := encoders[format]
	if !ok {
		return fmt.Errorf("unsupported format: %s", icon.Format)
	}
	resized := imaging.Resize(src, icon.Width, icon.Height, imaging.Lanczos)
	return writeFile(path, func(f *os.File) error {
		return imaging.Encode(f, resized, enc, imaging.JPEGQuality(90))
	})
}

var encoders = map[string]imaging.Format{
	"png":  imaging.PNG,
	"jpg":  imaging.JPEG,
	"jpeg": imaging.JPEG,
	"gif":  imaging.GIF,
	"bmp":  imaging.BMP,
	"tiff": imaging.TIFF,
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DefaultOutputPath returns the documents folder output directory, falling
// back to the home directory and finally ./output.
func (r *Runner) DefaultOutputPath(context.Context) (string, error) {
	home, err := r.homeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "output"), nil
	}
	if docs := os.Getenv("XDG_DOCUMENTS_DIR"); docs != "" {
		return filepath.Join(docs, OutputDirName), nil
	}
	docs := filepath.Join(home, "Documents")
	if fi, err := os.Stat(docs); err == nil && fi.IsDir() {
		return filepath.Join(docs, OutputDirName), nil
	}
	return filepath.Join(home, OutputDirName), nil
}

// OpenFolder opens path in the platform file manager without waiting.
func (r *Runner) OpenFolder(_ context.Context, path string) error {
	cmd := r.opener(path)
	if cmd == nil {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open folder: %w", err)
	}
	go cmd.Wait()
	return nil
}

func openCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path)
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", path)
	case "windows":
		return exec.Command("explorer", path)
	default:
		return nil
	}
}
