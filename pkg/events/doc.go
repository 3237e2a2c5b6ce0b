// Package events provides the two in-process notification primitives used by
// Forger's services.
//
// [Topic] delivers every published value synchronously to registered
// handlers, in registration order, on the publisher's goroutine. It is used
// for named job events ("generate-progress", "generate-complete") where the
// subscriber must observe an event before the publisher moves on.
//
// [Broadcaster] fans state snapshots out to buffered channels. Publishing is
// non-blocking: a subscriber that is not keeping up misses intermediate
// snapshots but always sees later ones. Services use it to announce state
// changes to UIs.
package events
