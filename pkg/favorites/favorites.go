// Package favorites keeps the user's favorited icons and collections.
//
// Both sets are loaded once at startup and persisted in full to a [kv.Store]
// after every mutation. Persistence is best effort: a failing store is
// logged and otherwise ignored, so favoriting never fails the caller.
package favorites

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/enowx/forger/pkg/events"
	"github.com/enowx/forger/pkg/kv"
)

// Storage keys.
const (
	IconsKey       = "iconify-favorites"
	CollectionsKey = "iconify-favorite-collections"
)

// Icon is a favorited icon, unique by (Prefix, Name).
type Icon struct {
	Prefix  string `json:"prefix"`
	Name    string `json:"name"`
	AddedAt int64  `json:"addedAt"` // unix millis
}

// Collection is a favorited collection, unique by Prefix.
type Collection struct {
	Prefix  string `json:"prefix"`
	Title   string `json:"title"`
	AddedAt int64  `json:"addedAt"` // unix millis
}

// Snapshot is a copy of both sets, published after every change.
type Snapshot struct {
	Icons       []Icon
	Collections []Collection
}

// Store holds the favorite sets. It is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	kv          kv.Store
	logger      *log.Logger
	now         func() time.Time
	icons       []Icon
	collections []Collection
	changes     *events.Broadcaster[Snapshot]
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for AddedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store backed by backend. Call [Store.Load] to read
// the persisted sets.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      backend,
		logger:  log.Default(),
		now:     time.Now,
		changes: events.NewBroadcaster[Snapshot](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory sets with the persisted ones. A missing,
// unreadable or corrupt value yields an empty set.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.icons = loadList[Icon](ctx, s, IconsKey)
	s.collections = loadList[Collection](ctx, s, CollectionsKey)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Publish(snap)
}

func loadList[T any](ctx context.Context, s *Store, key string) []T {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("load favorites failed", "key", key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	var list []T
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.Warn("discarding corrupt favorites", "key", key, "err", err)
		return nil
	}
	return list
}

// =============================================================================
// Icons
// =============================================================================

// AddIcon favorites (prefix, name). Adding an existing favorite is a no-op.
func (s *Store) AddIcon(ctx context.Context, prefix, name string) {
	s.mu.Lock()
	if s.iconIndex(prefix, name) >= 0 {
		s.mu.Unlock()
		return
	}
	s.icons = append(s.icons, Icon{Prefix: prefix, Name: name, AddedAt: s.now().UnixMilli()})
	s.persist(ctx, IconsKey, s.icons)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Publish(snap)
}

// RemoveIcon removes (prefix, name) if present.
func (s *Store) RemoveIcon(ctx context.Context, prefix, name string) {
	s.mu.Lock()
	i := s.iconIndex(prefix, name)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.icons = slices.Delete(s.icons, i, i+1)
	s.persist(ctx, IconsKey, s.icons)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Publish(snap)
}

// IsFavoriteIcon reports whether (prefix, name) is favorited.
func (s *Store) IsFavoriteIcon(prefix, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iconIndex(prefix, name) >= 0
}

// Icons returns the favorited icons in insertion order.
func (s *Store) Icons() []Icon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.icons)
}

func (s *Store) iconIndex(prefix, name string) int {
	return slices.IndexFunc(s.icons, func(ic Icon) bool {
		return ic.Prefix == prefix && ic.Name == name
	})
}

// =============================================================================
// Collections
// =============================================================================

// AddCollection favorites the collection prefix. Adding an existing
// favorite is a no-op and keeps the original title.
func (s *Store) AddCollection(ctx context.Context, prefix, title string) {
	s.mu.Lock()
	if s.collectionIndex(prefix) >= 0 {
		s.mu.Unlock()
		return
	}
	s.collections = append(s.collections, Collection{Prefix: prefix, Title: title, AddedAt: s.now().UnixMilli()})
	s.persist(ctx, CollectionsKey, s.collections)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Publish(snap)
}

// RemoveCollection removes prefix if present.
func (s *Store) RemoveCollection(ctx context.Context, prefix string) {
	s.mu.Lock()
	i := s.collectionIndex(prefix)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.collections = slices.Delete(s.collections, i, i+1)
	s.persist(ctx, CollectionsKey, s.collections)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.changes.Publish(snap)
}

// IsFavoriteCollection reports whether prefix is favorited.
func (s *Store) IsFavoriteCollection(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionIndex(prefix) >= 0
}

// Collections returns the favorited collections in insertion order.
func (s *Store) Collections() []Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.collections)
}

func (s *Store) collectionIndex(prefix string) int {
	return slices.IndexFunc(s.collections, func(c Collection) bool {
		return c.Prefix == prefix
	})
}

// Subscribe returns a channel receiving a snapshot after every change.
// Call the returned function to stop receiving.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	return s.changes.Subscribe()
}

// persist writes list under key. Called with s.mu held so writes land in
// mutation order.
func (s *Store) persist(ctx context.Context, key string, list any) {
	data, err := json.Marshal(list)
	if err != nil {
		s.logger.Warn("encode favorites failed", "key", key, "err", err)
		return
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.logger.Warn("persist favorites failed", "key", key, "err", err)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Icons:       slices.Clone(s.icons),
		Collections: slices.Clone(s.collections),
	}
}
