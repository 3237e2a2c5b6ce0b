package cli

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/enowx/forger/pkg/batch"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/observability/prom"
	"github.com/enowx/forger/pkg/settings"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve icons as browser downloads, with Prometheus metrics",
		Long: `Serve starts the download server in the foreground.

Routes:
  GET  /icons/{prefix}/{name}?format=png&size=256&color=%23000
       converts the icon and redirects to a one-shot download
  POST /collections/{prefix}/download?format=svg
       downloads a collection in paced batches and returns a JSON report
  GET  /downloads/             pending downloads
  GET  /metrics                Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			prom.Register()

			api := &iconAPI{defaults: a.settings.Get, logger: c.Logger}
			srv := delivery.NewDownloadServer(
				delivery.WithServerLogger(c.Logger),
				delivery.WithMetricsHandler(prom.Handler()),
				delivery.WithRoutes(api.mount),
			)
			api.downloader = func(color string) *batch.Downloader {
				return a.downloader("", color, srv)
			}

			if addr == "" {
				addr = a.cfg.DownloadAddr
			}
			if err := srv.Start(addr); err != nil {
				return err
			}
			printSuccess("Serving on %s", StyleLink.Render(srv.BaseURL()))
			printDetail("Metrics: %s/metrics", srv.BaseURL())

			<-ctx.Done()
			printInfo("Shutting down")
			shutdown(srv)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $FORGER_DOWNLOAD_ADDR)")
	return cmd
}

// iconAPI exposes the download pipeline over HTTP. Every download is
// offered through the server itself, so responses carry one-shot URLs.
type iconAPI struct {
	downloader func(color string) *batch.Downloader
	defaults   func() settings.Settings
	logger     *log.Logger
}

func (api *iconAPI) mount(r chi.Router) {
	r.Get("/icons/{prefix}/{name}", api.handleIcon)
	r.Post("/collections/{prefix}/download", api.handleCollection)
}

type deliveredJSON struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type failureJSON struct {
	Name  string `json:"name"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type reportJSON struct {
	Prefix    string          `json:"prefix"`
	Format    string          `json:"format"`
	Total     int             `json:"total"`
	Processed int             `json:"processed"`
	Truncated int             `json:"truncated"`
	Batches   int             `json:"batches"`
	Delivered []deliveredJSON `json:"delivered"`
	Failed    []failureJSON   `json:"failed"`
}

func (api *iconAPI) handleIcon(w http.ResponseWriter, r *http.Request) {
	prefix, name := chi.URLParam(r, "prefix"), chi.URLParam(r, "name")
	if err := ferrors.ValidatePrefix(prefix); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ferrors.ValidateIconName(name); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format, size, err := api.params(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := api.downloader(r.URL.Query().Get("color")).DownloadIcon(r.Context(), prefix, name, format, size)
	if err != nil {
		api.logger.Warn("icon download failed", "icon", prefix+":"+name, "err", err)
		err = classify(err, prefix+":"+name)
		writeError(w, statusFor(err), err)
		return
	}
	http.Redirect(w, r, res.Location, http.StatusFound)
}

func (api *iconAPI) handleCollection(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")
	if err := ferrors.ValidatePrefix(prefix); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format, size, err := api.params(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := api.downloader(r.URL.Query().Get("color")).DownloadCollection(r.Context(), prefix, format, size)
	if err != nil && report.Processed == 0 {
		err = classify(err, prefix)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(report))
}

// params reads format and size, defaulting to the persisted settings.
func (api *iconAPI) params(r *http.Request) (convert.Format, int, error) {
	s := api.defaults()
	q := r.URL.Query()

	name := q.Get("format")
	if name == "" {
		name = s.DefaultIconFormat
	}
	format, err := convert.ParseFormat(name)
	if err != nil {
		return "", 0, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "format %q", name)
	}

	size := s.DefaultIconSize
	if raw := q.Get("size"); raw != "" {
		if size, err = strconv.Atoi(raw); err != nil {
			return "", 0, ferrors.New(ferrors.ErrCodeInvalidSize, "size must be an integer, got %q", raw)
		}
	}
	if format.Raster() {
		if err := ferrors.ValidateSize(size); err != nil {
			return "", 0, err
		}
	}
	return format, size, nil
}

func toReportJSON(r *batch.Report) reportJSON {
	out := reportJSON{
		Prefix:    r.Prefix,
		Format:    string(r.Format),
		Total:     r.Total,
		Processed: r.Processed,
		Truncated: r.Truncated,
		Batches:   r.Batches,
		Delivered: make([]deliveredJSON, len(r.Delivered)),
		Failed:    make([]failureJSON, len(r.Failed)),
	}
	for i, item := range r.Delivered {
		out.Delivered[i] = deliveredJSON{Name: item.Name, URL: item.Delivery.Location}
	}
	for i, f := range r.Failed {
		out.Failed[i] = failureJSON{Name: f.Name, Stage: f.Stage, Error: f.Err.Error()}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": ferrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
