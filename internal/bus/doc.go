// Package bus implements the in-process latest-value message store that
// blocks communicate through. Every channel holds at most one message (the
// most recently published one); there is no history and no queueing.
//
// Channels live in a flat namespace keyed by "<blockId>.<portName>". A read
// never blocks and never consumes the stored value, so repeated reads return
// the same message until the next publish overwrites it.
//
// Payloads are canonicalized once, at the publish boundary: a payload that
// arrives as a serialized JSON object or array string is decoded to its
// structured form so every downstream consumer observes one representation.
// Opaque strings pass through untouched.
//
// The engine ticks blocks strictly sequentially, so the store needs no
// internal locking. If the executor ever grows parallel block execution,
// each channel slot must become independently atomically updatable to keep
// last-write-wins semantics.
package bus
