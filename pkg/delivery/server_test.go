package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*DownloadServer, *httptest.Server) {
	t.Helper()
	opts = append([]ServerOption{WithServerLogger(quiet())}, opts...)
	s := NewDownloadServer(opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	s.SetBaseURL(ts.URL)
	return s, ts
}

func TestDownloadServerOneShot(t *testing.T) {
	s, ts := newTestServer(t)

	url, err := s.Offer(context.Background(), "mdi-home.svg", "image/svg+xml", []byte("<svg/>"))
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if !strings.HasPrefix(url, ts.URL+"/downloads/") {
		t.Errorf("url = %s", url)
	}

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != "<svg/>" {
		t.Fatalf("status %d body %q", resp.StatusCode, body)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="mdi-home.svg"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}

	again, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Errorf("second fetch status = %d, want 404", again.StatusCode)
	}
}

func TestDownloadServerExpiry(t *testing.T) {
	now := time.Now()
	s, _ := newTestServer(t, WithOfferTTL(time.Minute), WithServerClock(func() time.Time { return now }))

	url, _ := s.Offer(context.Background(), "a.png", "image/png", []byte{1})
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}
	now = now.Add(time.Minute)

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expired fetch status = %d, want 404", resp.StatusCode)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
}

func TestDownloadServerRejectsBadToken(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/downloads/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDownloadServerList(t *testing.T) {
	s, ts := newTestServer(t)
	s.Offer(context.Background(), "b.png", "image/png", []byte{1, 2})
	s.Offer(context.Background(), "a.svg", "image/svg+xml", []byte("x"))

	resp, err := http.Get(ts.URL + "/downloads/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var list []OfferInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Filename != "a.svg" || list[1].Size != 2 {
		t.Errorf("list = %+v", list)
	}
}

func TestDownloadServerNotListening(t *testing.T) {
	s := NewDownloadServer(WithServerLogger(quiet()))
	if _, err := s.Offer(context.Background(), "a.png", "image/png", nil); err == nil {
		t.Error("Offer should fail before the server has an address")
	}
}

func TestDownloadServerStart(t *testing.T) {
	s := NewDownloadServer(WithServerLogger(quiet()))
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Shutdown(context.Background())

	resp, err := http.Get(s.BaseURL() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestDownloadServerMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "forger_up 1\n")
	})
	_, ts := newTestServer(t, WithMetricsHandler(metrics))

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "forger_up") {
		t.Errorf("metrics body = %q", body)
	}
}

func TestDownloadServerExtraRoutes(t *testing.T) {
	_, ts := newTestServer(t, WithRoutes(func(r chi.Router) {
		r.Get("/ping/{name}", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong "+chi.URLParam(r, "name"))
		})
	}))

	resp, err := http.Get(ts.URL + "/ping/forger")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong forger" {
		t.Errorf("body = %q", body)
	}
}
