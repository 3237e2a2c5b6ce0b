// Package catalog is the HTTP client for the remote icon catalog
// (the Iconify API, https://api.iconify.design).
//
// Four endpoints are used:
//
//	GET /collections                         prefix -> collection metadata
//	GET /collection?prefix=P                 icon names of one collection
//	GET /search?query=Q&limit=100[&prefix=P] "prefix:name" identifiers
//	GET /{prefix}/{name}.svg[?color=C]       vector source of one icon
//
// Every response passes through a validating parse step before it reaches
// callers: a payload of the wrong shape is rejected with [ErrMalformed]
// instead of being half-read. Collection contents are returned as an
// [IconList], a tagged union of the flat ("uncategorized") and grouped
// ("categories") forms, flattened in document order.
//
// # Errors
//
//   - [ErrNotFound]: the catalog answered 404
//   - [ErrNetwork]: transport failure, timeout or unexpected status
//   - [ErrMalformed]: the response body had an unexpected shape
//
// Transport failures and 5xx responses are retried with exponential
// backoff. A canceled context is returned as context.Canceled so callers
// can tell cancellation apart from failure.
package catalog
