// Package pkg provides the core libraries of Forger, an icon acquisition
// and delivery pipeline.
//
// # Overview
//
// Forger browses a remote icon catalog (Iconify), converts vector icons to
// raster images, delivers the files to disk or to a browser, and generates
// platform icon sets from one source image. The pkg directory is organized
// into four areas:
//
//  1. [catalog], [discovery] - Remote catalog access and the cached discovery service
//  2. [convert], [delivery], [batch] - The download pipeline
//  3. [generate] - Multi-template icon set generation
//  4. [cache], [kv], [favorites], [settings] - Caching and persistence
//
// # Architecture
//
// The typical data flow of a collection download:
//
//	Catalog API
//	     ↓
//	[discovery] (TTL cache, icon list)
//	     ↓
//	[catalog] SVG fetch (optionally cached in a byte [cache.Cache])
//	     ↓
//	[convert] (SVG → PNG/JPEG)
//	     ↓
//	[delivery] (write to disk, or offer as a download)
//
// [batch] drives these steps in paced batches of ten icons.
//
// # Quick Start
//
// Download one icon as a 256px PNG into ./icons:
//
//	import (
//	    "context"
//	    "github.com/enowx/forger/pkg/batch"
//	    "github.com/enowx/forger/pkg/catalog"
//	    "github.com/enowx/forger/pkg/convert"
//	    "github.com/enowx/forger/pkg/delivery"
//	    "github.com/enowx/forger/pkg/discovery"
//	)
//
//	client := catalog.NewClient()
//	svc := discovery.New(client)
//	defer svc.Close()
//
//	resolver := delivery.NewResolver(delivery.OSFS{}, delivery.DirFallback{Dir: delivery.DefaultDownloadsDir()}, nil)
//	dl := batch.New(svc, client, convert.New(convert.NativeSurface{}), resolver,
//	    batch.WithDestination(func() string { return "./icons" }))
//
//	res, err := dl.DownloadIcon(context.Background(), "mdi", "home", convert.FormatPNG, 256)
//
// # Infrastructure
//
// [kv] - Key/value persistence for favorites and settings with file,
// SQLite, Redis and MongoDB backends.
//
// [cache] - Generic in-memory TTL cache plus byte caches (file, Redis, null)
// for fetched vector sources.
//
// [events] - Typed synchronous topics and snapshot broadcasters.
//
// [observability] - Hook registry for HTTP, cache, download and generation
// events; [observability/prom] exports them as Prometheus metrics.
//
// [httputil] - Retry with exponential backoff for transient HTTP failures.
//
// [errors] - Coded errors and input validation.
//
// [buildinfo] - Version information injected at build time.
package pkg
