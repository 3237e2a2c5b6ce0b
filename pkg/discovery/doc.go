// Package discovery is the browse and search service in front of the
// remote catalog.
//
// A [Service] owns a TTL cache of catalog results and a published
// [Snapshot] of what a UI shows: the collection list, the selected
// collection with its icons, the current search results and whether any
// request is in flight. Observers call [Service.Subscribe] to receive a
// snapshot after every change.
//
// Failures never escape as errors. Every operation returns an [Outcome]
// that tells success, empty, failed and canceled apart; on failure the
// published state degrades to "no results" (or stays unchanged for the
// collection list) and the error is logged.
//
// # Search
//
// [Service.SearchIcons] is single-flight: starting a search cancels the
// previous one. Each search takes a generation number; a completion whose
// generation is no longer current is dropped, so published results always
// belong to the most recent query.
//
// # Loading
//
// Loading is reference counted. Each network-bound call increments the
// counter before I/O and decrements it after settling; the snapshot reports
// Loading while the counter is positive, so concurrent operations never
// clear each other's flag.
package discovery
