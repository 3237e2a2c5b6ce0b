package discovery

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/enowx/forger/pkg/cache"
	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/events"
	"github.com/enowx/forger/pkg/observability"
)

// ErrCanceled marks a request that was superseded or whose context ended.
var ErrCanceled = errors.New("request canceled")

// Status classifies the outcome of a discovery operation.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Outcome reports how an operation settled.
type Outcome struct {
	Status Status
	Err    error // set for StatusFailed and StatusCanceled
	Cached bool  // served from the TTL cache
}

// OK reports whether the operation produced results.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// SearchResult is one search hit.
type SearchResult = catalog.Identifier

// SplitIdentifier splits "prefix:name" on the first colon only.
func SplitIdentifier(id string) SearchResult {
	return catalog.ParseIdentifier(id)
}

// Catalog is the remote API the service reads from. *catalog.Client
// implements it.
type Catalog interface {
	Collections(ctx context.Context) ([]catalog.Collection, error)
	Collection(ctx context.Context, prefix string) (catalog.IconList, error)
	Search(ctx context.Context, query, prefix string, limit int) ([]catalog.Identifier, error)
}

// Snapshot is the published state.
type Snapshot struct {
	Collections        []catalog.Collection
	SelectedCollection string
	CollectionIcons    []string
	SearchQuery        string
	SearchResults      []SearchResult
	Loading            bool
}

// Service fetches and caches catalog data. It is safe for concurrent use.
type Service struct {
	catalog Catalog
	logger  *log.Logger

	collections *cache.TTL[[]catalog.Collection]
	icons       *cache.TTL[[]string]
	searches    *cache.TTL[[]SearchResult]

	mu           sync.Mutex
	state        Snapshot
	loading      int
	selectGen    uint64
	searchGen    uint64
	cancelSearch context.CancelFunc

	changes *events.Broadcaster[Snapshot]
}

// Option configures a [Service].
type Option func(*config)

type config struct {
	logger *log.Logger
	ttl    time.Duration
	now    func() time.Time
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTTL sets how long results stay cached. Defaults to [cache.DefaultTTL].
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

// WithClock replaces time.Now in the caches.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// New creates a service reading from cat.
func New(cat Catalog, opts ...Option) *Service {
	cfg := config{ttl: cache.DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	clock := cache.WithClock(cfg.now)
	return &Service{
		catalog:     cat,
		logger:      cfg.logger,
		collections: cache.NewTTL[[]catalog.Collection](cfg.ttl, clock),
		icons:       cache.NewTTL[[]string](cfg.ttl, clock),
		searches:    cache.NewTTL[[]SearchResult](cfg.ttl, clock),
		changes:     events.NewBroadcaster[Snapshot](),
	}
}

// =============================================================================
// State
// =============================================================================

// State returns a copy of the published state.
func (s *Service) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change.
// Call the returned function to stop receiving.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	return s.changes.Subscribe()
}

// ClearCache drops every cached result. Published state is untouched.
func (s *Service) ClearCache() {
	s.collections.Clear()
	s.icons.Clear()
	s.searches.Clear()
}

// Close cancels a running search and closes subscriber channels.
func (s *Service) Close() {
	s.mu.Lock()
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}
	s.mu.Unlock()
	s.changes.Close()
}

func (s *Service) snapshotLocked() Snapshot {
	snap := s.state
	snap.Collections = slices.Clone(s.state.Collections)
	snap.CollectionIcons = slices.Clone(s.state.CollectionIcons)
	snap.SearchResults = slices.Clone(s.state.SearchResults)
	snap.Loading = s.loading > 0
	return snap
}

// update applies fn under the lock and publishes the result.
func (s *Service) update(fn func(st *Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

func (s *Service) beginLoading() {
	s.mu.Lock()
	s.loading++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

func (s *Service) endLoading() {
	s.mu.Lock()
	if s.loading > 0 {
		s.loading--
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

func (s *Service) cacheHit(ctx context.Context, keyType string, hit bool) {
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
}

func isCanceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

func countStatus(n int) Status {
	if n == 0 {
		return StatusEmpty
	}
	return StatusOK
}

// =============================================================================
// Collections
// =============================================================================

// FetchCollections loads the collection list, sorted by descending icon
// count, and publishes it. On failure the published list is unchanged.
func (s *Service) FetchCollections(ctx context.Context) Outcome {
	const key = "collections"
	if list, ok := s.collections.Get(key); ok {
		s.cacheHit(ctx, key, true)
		s.update(func(st *Snapshot) { st.Collections = list })
		return Outcome{Status: countStatus(len(list)), Cached: true}
	}
	s.cacheHit(ctx, key, false)

	s.beginLoading()
	defer s.endLoading()

	list, err := s.catalog.Collections(ctx)
	if err != nil {
		if isCanceled(ctx, err) {
			s.logger.Debug("fetch collections canceled")
			return Outcome{Status: StatusCanceled, Err: ErrCanceled}
		}
		s.logger.Warn("fetch collections failed", "err", err)
		return Outcome{Status: StatusFailed, Err: err}
	}

	s.collections.Set(key, list)
	s.update(func(st *Snapshot) { st.Collections = list })
	return Outcome{Status: countStatus(len(list))}
}

// FetchCollectionIcons selects prefix and publishes its icons. Selection
// and icon list are published together. If a newer selection was made
// while this one was loading, the result is cached but not published.
// On failure the selection is published with an empty icon list.
func (s *Service) FetchCollectionIcons(ctx context.Context, prefix string) Outcome {
	key := "collection-" + prefix

	s.mu.Lock()
	s.selectGen++
	gen := s.selectGen
	s.mu.Unlock()

	publish := func(icons []string) {
		s.update(func(st *Snapshot) {
			if s.selectGen != gen {
				return
			}
			st.SelectedCollection = prefix
			st.CollectionIcons = icons
		})
	}

	if icons, ok := s.icons.Get(key); ok {
		s.cacheHit(ctx, "collection", true)
		publish(icons)
		return Outcome{Status: countStatus(len(icons)), Cached: true}
	}
	s.cacheHit(ctx, "collection", false)

	s.beginLoading()
	defer s.endLoading()

	list, err := s.catalog.Collection(ctx, prefix)
	if err != nil {
		if isCanceled(ctx, err) {
			s.logger.Debug("fetch collection icons canceled", "collection", prefix)
			return Outcome{Status: StatusCanceled, Err: ErrCanceled}
		}
		s.logger.Warn("fetch collection icons failed", "collection", prefix, "err", err)
		publish([]string{})
		return Outcome{Status: StatusFailed, Err: err}
	}

	s.icons.Set(key, list.Icons)
	publish(list.Icons)
	return Outcome{Status: countStatus(len(list.Icons))}
}

// FetchAllCollectionIcons returns every icon name of prefix without
// touching the published selection. On failure it returns an empty list.
func (s *Service) FetchAllCollectionIcons(ctx context.Context, prefix string) ([]string, Outcome) {
	key := "collection-full-" + prefix
	if icons, ok := s.icons.Get(key); ok {
		s.cacheHit(ctx, "collection", true)
		return slices.Clone(icons), Outcome{Status: countStatus(len(icons)), Cached: true}
	}
	s.cacheHit(ctx, "collection", false)

	s.beginLoading()
	defer s.endLoading()

	list, err := s.catalog.Collection(ctx, prefix)
	if err != nil {
		if isCanceled(ctx, err) {
			return []string{}, Outcome{Status: StatusCanceled, Err: ErrCanceled}
		}
		s.logger.Warn("fetch all collection icons failed", "collection", prefix, "err", err)
		return []string{}, Outcome{Status: StatusFailed, Err: err}
	}

	s.icons.Set(key, list.Icons)
	return slices.Clone(list.Icons), Outcome{Status: countStatus(len(list.Icons))}
}

// =============================================================================
// Search
// =============================================================================

// SearchIcons runs a search and publishes its results, canceling any
// search still in flight. An empty prefixFilter searches all collections.
// A blank query publishes an empty result without network access.
func (s *Service) SearchIcons(ctx context.Context, query, prefixFilter string) Outcome {
	s.mu.Lock()
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}
	s.searchGen++
	gen := s.searchGen

	if strings.TrimSpace(query) == "" {
		s.state.SearchQuery = query
		s.state.SearchResults = []SearchResult{}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.changes.Publish(snap)
		return Outcome{Status: StatusEmpty}
	}

	filter := prefixFilter
	if filter == "" {
		filter = "all"
	}
	key := "search-" + filter + "-" + query

	if results, ok := s.searches.Get(key); ok {
		s.state.SearchQuery = query
		s.state.SearchResults = results
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.cacheHit(ctx, "search", true)
		s.changes.Publish(snap)
		return Outcome{Status: countStatus(len(results)), Cached: true}
	}

	sctx, cancel := context.WithCancel(ctx)
	s.cancelSearch = cancel
	s.loading++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.cacheHit(ctx, "search", false)
	s.changes.Publish(snap)

	results, err := s.catalog.Search(sctx, query, prefixFilter, catalog.SearchLimit)
	canceled := err != nil && isCanceled(sctx, err)
	cancel()

	if err == nil {
		s.searches.Set(key, results)
	}

	s.mu.Lock()
	if s.loading > 0 {
		s.loading--
	}
	current := s.searchGen == gen
	if current {
		s.cancelSearch = nil
	}

	var out Outcome
	switch {
	case canceled || !current:
		// Superseded: never overwrite newer results.
		out = Outcome{Status: StatusCanceled, Err: ErrCanceled}
	case err != nil:
		s.state.SearchQuery = query
		s.state.SearchResults = []SearchResult{}
		out = Outcome{Status: StatusFailed, Err: err}
	default:
		s.state.SearchQuery = query
		s.state.SearchResults = results
		out = Outcome{Status: countStatus(len(results))}
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)

	switch out.Status {
	case StatusCanceled:
		s.logger.Debug("search superseded", "query", query)
	case StatusFailed:
		s.logger.Warn("search failed", "query", query, "err", err)
	}
	return out
}
