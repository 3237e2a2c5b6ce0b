package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/enowx/forger/internal/config"
	"github.com/enowx/forger/pkg/batch"
	"github.com/enowx/forger/pkg/buildinfo"
	"github.com/enowx/forger/pkg/cache"
	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	"github.com/enowx/forger/pkg/discovery"
	"github.com/enowx/forger/pkg/favorites"
	"github.com/enowx/forger/pkg/kv"
	"github.com/enowx/forger/pkg/settings"
)

// app wires the services one command needs.
type app struct {
	cfg    config.Config
	logger *log.Logger

	store     kv.Store
	svgCache  cache.Cache
	favorites *favorites.Store
	settings  *settings.Store
	catalog   *catalog.Client
	discovery *discovery.Service
	converter *convert.Converter
}

// openApp builds the services from the loaded configuration.
func (c *CLI) openApp(ctx context.Context) (*app, error) {
	cfg := c.cfg
	store, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	svgCache, err := newSVGCache(ctx, cfg)
	if err != nil {
		c.Logger.Warn("vector cache disabled", "backend", cfg.SVGCache, "err", err)
		svgCache = cache.NewNullCache()
	}

	client := catalog.NewClient(
		catalog.WithBaseURL(cfg.APIBase),
		catalog.WithTimeout(cfg.HTTPTimeout),
		catalog.WithHeaders(map[string]string{"User-Agent": buildinfo.UserAgent()}),
		catalog.WithSVGCache(svgCache, svgCacheTTL),
	)

	fav := favorites.New(store, favorites.WithLogger(c.Logger))
	fav.Load(ctx)

	return &app{
		cfg:       cfg,
		logger:    c.Logger,
		store:     store,
		svgCache:  svgCache,
		favorites: fav,
		settings:  settings.Load(ctx, store, c.Logger),
		catalog:   client,
		discovery: discovery.New(client, discovery.WithLogger(c.Logger), discovery.WithTTL(cfg.CacheTTL)),
		converter: convert.New(newSurface(cfg)),
	}, nil
}

// Close releases the store and cache connections.
func (a *app) Close() error {
	a.discovery.Close()
	return errors.Join(a.svgCache.Close(), a.store.Close())
}

// downloader builds a batch downloader delivering into dir, or through
// fallback when dir is empty or not writable.
func (a *app) downloader(dir, color string, fallback delivery.Fallback, opts ...batch.Option) *batch.Downloader {
	resolver := delivery.NewResolver(delivery.OSFS{}, fallback, a.logger)
	opts = append([]batch.Option{
		batch.WithDestination(func() string { return dir }),
		batch.WithColor(color),
		batch.WithLogger(a.logger),
	}, opts...)
	return batch.New(a.discovery, a.catalog, a.converter, resolver, opts...)
}

func newSVGCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.SVGCache {
	case config.SVGCacheRedis:
		c, err := cache.DialRedisCache(ctx, cfg.RedisAddr, cfg.RedisPrefix+"svg:")
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.SVGCacheNone:
		return cache.NewNullCache(), nil
	default:
		c, err := cache.NewFileCache(svgCacheDir(cfg))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func svgCacheDir(cfg config.Config) string {
	return filepath.Join(cfg.CacheDir, "svg")
}

func newSurface(cfg config.Config) convert.Surface {
	if cfg.Rasterizer == config.RasterizerRSVG {
		return convert.RSVGSurface{Binary: cfg.RSVGBinary}
	}
	return convert.NativeSurface{}
}
