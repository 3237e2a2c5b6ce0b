package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/enowx/forger/pkg/batch"
	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	"github.com/enowx/forger/pkg/discovery"
	"github.com/enowx/forger/pkg/settings"
)

type stubSource struct{ icons []string }

func (s stubSource) FetchAllCollectionIcons(context.Context, string) ([]string, discovery.Outcome) {
	return s.icons, discovery.Outcome{Status: discovery.StatusOK}
}

type stubSVGs struct{}

func (stubSVGs) SVG(_ context.Context, prefix, name, color string) (string, error) {
	if name == "missing" {
		return "", catalog.ErrNotFound
	}
	return fmt.Sprintf(`<svg id="%s:%s" fill="%s"/>`, prefix, name, color), nil
}

type stubRaster struct{}

func (stubRaster) Rasterize(_ context.Context, _ string, size int, format convert.Format) ([]byte, error) {
	return []byte(fmt.Sprintf("%s@%d", format, size)), nil
}

// newTestAPI serves an iconAPI through a download server backed by httptest.
func newTestAPI(t *testing.T, icons ...string) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)

	api := &iconAPI{defaults: settings.Defaults, logger: logger}
	srv := delivery.NewDownloadServer(delivery.WithServerLogger(logger), delivery.WithRoutes(api.mount))
	api.downloader = func(color string) *batch.Downloader {
		resolver := delivery.NewResolver(delivery.OSFS{}, srv, logger)
		return batch.New(stubSource{icons}, stubSVGs{}, stubRaster{}, resolver,
			batch.WithColor(color), batch.WithBatchDelay(time.Millisecond), batch.WithLogger(logger))
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	srv.SetBaseURL(ts.URL)
	return ts
}

func noRedirect(ts *httptest.Server) *http.Client {
	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return client
}

func TestIconAPIRedirectsToDownload(t *testing.T) {
	ts := newTestAPI(t)
	client := noRedirect(ts)

	resp, err := client.Get(ts.URL + "/icons/mdi/home?format=svg&color=red")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, ts.URL+"/downloads/") {
		t.Fatalf("Location = %q", loc)
	}

	resp, err = client.Get(loc)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if want := `<svg id="mdi:home" fill="red"/>`; string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "mdi-home.svg") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestIconAPIRasterDefaults(t *testing.T) {
	ts := newTestAPI(t)

	resp, err := ts.Client().Get(ts.URL + "/icons/mdi/home?format=png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "png@64" {
		t.Errorf("body = %q, want default size 64", body)
	}
}

func TestIconAPIErrors(t *testing.T) {
	ts := newTestAPI(t)
	tests := []struct {
		path string
		want int
	}{
		{"/icons/mdi/missing?format=svg", http.StatusNotFound},
		{"/icons/mdi/home?format=gif", http.StatusBadRequest},
		{"/icons/mdi/home?format=png&size=big", http.StatusBadRequest},
		{"/icons/mdi/home?format=png&size=0", http.StatusBadRequest},
		{"/icons/Bad_Prefix/home", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := noRedirect(ts).Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("error body = %v, %v", body, err)
			}
		})
	}
}

func TestCollectionAPIReport(t *testing.T) {
	icons := make([]string, 12)
	for i := range icons {
		icons[i] = fmt.Sprintf("icon-%02d", i)
	}
	icons[3] = "missing"
	ts := newTestAPI(t, icons...)

	resp, err := ts.Client().Post(ts.URL+"/collections/mdi/download?format=svg", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var report reportJSON
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Total != 12 || report.Processed != 12 || report.Batches != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Delivered) != 11 || len(report.Failed) != 1 {
		t.Fatalf("delivered %d failed %d", len(report.Delivered), len(report.Failed))
	}
	if f := report.Failed[0]; f.Name != "missing" || f.Stage != batch.StageFetch {
		t.Errorf("failure = %+v", f)
	}
	if !strings.HasPrefix(report.Delivered[0].URL, ts.URL+"/downloads/") {
		t.Errorf("delivered url = %q", report.Delivered[0].URL)
	}
}
