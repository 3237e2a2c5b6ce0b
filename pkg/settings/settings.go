// Package settings holds the persisted application preferences.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/enowx/forger/pkg/events"
	"github.com/enowx/forger/pkg/kv"
)

// Key is the storage key of the settings document.
const Key = "app-settings"

// Settings is the application preference bag.
type Settings struct {
	// Download settings
	DefaultIconFormat  string `json:"defaultIconFormat"`
	DefaultIconSize    int    `json:"defaultIconSize"`
	ShowDownloadPrompt bool   `json:"showDownloadPrompt"`
	DownloadPath       string `json:"downloadPath"`

	// Generate settings
	GenerateOutputPath string `json:"generateOutputPath"`

	// Editor settings
	DefaultCanvasSize int  `json:"defaultCanvasSize"`
	ShowRulers        bool `json:"showRulers"`
	ShowGuides        bool `json:"showGuides"`
	SnapToGuides      bool `json:"snapToGuides"`

	// UI settings
	Theme string `json:"theme"`
}

// Defaults returns the settings used when nothing is persisted.
func Defaults() Settings {
	return Settings{
		DefaultIconFormat:  "svg",
		DefaultIconSize:    64,
		ShowDownloadPrompt: true,
		DefaultCanvasSize:  512,
		ShowRulers:         true,
		ShowGuides:         true,
		SnapToGuides:       true,
		Theme:              "dark",
	}
}

// Store owns the current settings. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	kv      kv.Store
	logger  *log.Logger
	current Settings
	changes *events.Broadcaster[Settings]
}

// Load reads the persisted settings, merging them over [Defaults]. Fields
// missing from the stored document keep their default; a corrupt document
// is ignored. A nil logger uses log.Default().
func Load(ctx context.Context, backend kv.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{
		kv:      backend,
		logger:  logger,
		current: Defaults(),
		changes: events.NewBroadcaster[Settings](),
	}

	raw, ok, err := backend.Get(ctx, Key)
	switch {
	case err != nil:
		logger.Warn("load settings failed", "err", err)
	case ok:
		merged := Defaults()
		if err := json.Unmarshal([]byte(raw), &merged); err != nil {
			logger.Warn("ignoring corrupt settings", "err", err)
		} else {
			s.current = merged
		}
	}
	return s
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set replaces the settings and persists them.
func (s *Store) Set(ctx context.Context, v Settings) {
	s.mu.Lock()
	s.current = v
	s.persist(ctx, v)
	s.mu.Unlock()

	s.changes.Publish(v)
}

// Update applies fn to the current settings and persists the result.
func (s *Store) Update(ctx context.Context, fn func(Settings) Settings) Settings {
	s.mu.Lock()
	v := fn(s.current)
	s.current = v
	s.persist(ctx, v)
	s.mu.Unlock()

	s.changes.Publish(v)
	return v
}

// Reset removes the persisted document and restores the defaults.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	if err := s.kv.Delete(ctx, Key); err != nil {
		s.logger.Warn("remove settings failed", "err", err)
	}
	s.current = Defaults()
	v := s.current
	s.mu.Unlock()

	s.changes.Publish(v)
}

// Subscribe returns a channel receiving the settings after every change.
func (s *Store) Subscribe() (<-chan Settings, func()) {
	return s.changes.Subscribe()
}

func (s *Store) persist(ctx context.Context, v Settings) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encode settings failed", "err", err)
		return
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		s.logger.Warn("persist settings failed", "err", err)
	}
}

// Fields lists the names accepted by [Settings.SetField].
var Fields = []string{
	"defaultIconFormat", "defaultIconSize", "showDownloadPrompt", "downloadPath",
	"generateOutputPath", "defaultCanvasSize", "showRulers", "showGuides",
	"snapToGuides", "theme",
}

// SetField parses value and assigns it to the field with the given JSON name.
func (v *Settings) SetField(name, value string) error {
	switch name {
	case "defaultIconFormat":
		switch value {
		case "svg", "png", "jpeg", "webp":
			v.DefaultIconFormat = value
		default:
			return fmt.Errorf("defaultIconFormat: unsupported format %q", value)
		}
	case "defaultIconSize":
		return setInt(&v.DefaultIconSize, name, value)
	case "showDownloadPrompt":
		return setBool(&v.ShowDownloadPrompt, name, value)
	case "downloadPath":
		v.DownloadPath = value
	case "generateOutputPath":
		v.GenerateOutputPath = value
	case "defaultCanvasSize":
		return setInt(&v.DefaultCanvasSize, name, value)
	case "showRulers":
		return setBool(&v.ShowRulers, name, value)
	case "showGuides":
		return setBool(&v.ShowGuides, name, value)
	case "snapToGuides":
		return setBool(&v.SnapToGuides, name, value)
	case "theme":
		if value != "dark" && value != "light" {
			return fmt.Errorf("theme: must be dark or light, got %q", value)
		}
		v.Theme = value
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	return nil
}

func setInt(dst *int, name, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: expected a positive integer, got %q", name, value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, name, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: expected true or false, got %q", name, value)
	}
	*dst = b
	return nil
}
