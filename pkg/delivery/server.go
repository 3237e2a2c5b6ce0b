package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultOfferTTL is how long an unfetched offer stays available.
const DefaultOfferTTL = 10 * time.Minute

type offer struct {
	filename  string
	mimeType  string
	payload   []byte
	expiresAt time.Time
}

// OfferInfo describes a pending offer.
type OfferInfo struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	Size      int       `json:"size"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadServer offers payloads as one-shot HTTP downloads. Each offer
// gets a random token; the first GET /downloads/{token} streams the file
// as an attachment and removes it.
type DownloadServer struct {
	mu      sync.Mutex
	offers  map[string]offer
	baseURL string
	ttl     time.Duration
	now     func() time.Time
	logger  *log.Logger
	metrics http.Handler
	mounts  []func(chi.Router)

	router chi.Router
	srv    *http.Server
}

// ServerOption configures a [DownloadServer].
type ServerOption func(*DownloadServer)

// WithOfferTTL sets how long offers stay available.
func WithOfferTTL(d time.Duration) ServerOption {
	return func(s *DownloadServer) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithServerLogger sets the server logger.
func WithServerLogger(l *log.Logger) ServerOption {
	return func(s *DownloadServer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServerClock replaces time.Now.
func WithServerClock(now func() time.Time) ServerOption {
	return func(s *DownloadServer) { s.now = now }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *DownloadServer) { s.metrics = h }
}

// WithRoutes registers extra routes on the server router.
func WithRoutes(mount func(r chi.Router)) ServerOption {
	return func(s *DownloadServer) { s.mounts = append(s.mounts, mount) }
}

// NewDownloadServer creates a server. Call [DownloadServer.Start] to
// listen, or mount [DownloadServer.Handler] elsewhere and set the public
// address with [DownloadServer.SetBaseURL].
func NewDownloadServer(opts ...ServerOption) *DownloadServer {
	s := &DownloadServer{
		offers: make(map[string]offer),
		ttl:    DefaultOfferTTL,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *DownloadServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Route("/downloads", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{token}", s.handleDownload)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	for _, mount := range s.mounts {
		mount(r)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *DownloadServer) Handler() http.Handler { return s.router }

// SetBaseURL sets the address used in offer URLs, e.g. "http://127.0.0.1:8080".
func (s *DownloadServer) SetBaseURL(u string) {
	s.mu.Lock()
	s.baseURL = u
	s.mu.Unlock()
}

// BaseURL returns the address used in offer URLs.
func (s *DownloadServer) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Start listens on addr ("127.0.0.1:0" picks a free port) and serves in
// the background until [DownloadServer.Shutdown].
func (s *DownloadServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.SetBaseURL("http://" + ln.Addr().String())

	s.srv = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("download server stopped", "err", err)
		}
	}()
	s.logger.Debug("download server listening", "url", s.BaseURL())
	return nil
}

// Shutdown stops a server started with Start.
func (s *DownloadServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Offer registers payload and returns its download URL.
func (s *DownloadServer) Offer(ctx context.Context, filename, mimeType string, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseURL == "" {
		return "", errors.New("download server is not listening")
	}
	s.pruneLocked()

	token := uuid.NewString()
	s.offers[token] = offer{
		filename:  filename,
		mimeType:  mimeType,
		payload:   payload,
		expiresAt: s.now().Add(s.ttl),
	}
	return s.baseURL + "/downloads/" + token, nil
}

// Pending returns the number of offers not yet fetched or expired.
func (s *DownloadServer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.offers)
}

func (s *DownloadServer) pruneLocked() {
	now := s.now()
	for token, o := range s.offers {
		if !now.Before(o.expiresAt) {
			delete(s.offers, token)
		}
	}
}

func (s *DownloadServer) take(token string) (offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[token]
	if !ok {
		return offer{}, false
	}
	delete(s.offers, token)
	if !s.now().Before(o.expiresAt) {
		return offer{}, false
	}
	return o, true
}

func (s *DownloadServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := uuid.Parse(token); err != nil {
		http.Error(w, "invalid download token", http.StatusBadRequest)
		return
	}
	o, ok := s.take(token)
	if !ok {
		http.Error(w, "download not found or already fetched", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", o.mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, o.filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(o.payload)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(o.payload); err != nil {
		s.logger.Warn("download transfer error", "file", o.filename, "err", err)
	}
}

func (s *DownloadServer) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.pruneLocked()
	list := make([]OfferInfo, 0, len(s.offers))
	for token, o := range s.offers {
		list = append(list, OfferInfo{
			Token:     token,
			Filename:  o.filename,
			Size:      len(o.payload),
			URL:       s.baseURL + "/downloads/" + token,
			ExpiresAt: o.expiresAt,
		})
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Filename < list[j].Filename })
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

var _ Fallback = (*DownloadServer)(nil)
