// Package resolver implements multi-source asset resolution: an ordered,
// priority-tagged chain of helpers queried sequentially with lazy fallback.
//
// # Resolution Chain
//
// A Resolver holds helpers sorted by descending priority. Load walks the
// chain and distinguishes three outcomes at every step:
//
//   - success: the helper produced the asset; the walk stops, earlier
//     recorded failures are discarded, and the asset is promoted into the
//     built-in cache if it came from elsewhere
//   - clean miss: the helper checked and the asset is not there; the walk
//     advances without recording anything
//   - failure: the error is recorded and the walk advances
//
// Only when the whole chain is exhausted do recorded failures surface, as a
// single AggregateError listing them in attempt order. A chain exhausted
// with nothing recorded resolves to (nil, nil): absence is not an error.
//
// Helpers that cannot serve a type at all (CanProvide false) are skipped
// without I/O and without an error. The WebHelper applies the same lazy
// fallback internally across the sources registered for the requested type,
// so the two-level chain behaves uniformly.
//
// # Built-in Cache
//
// Every resolver starts with a BuiltinHelper at priority 100 and a WebHelper
// at priority -100. Successful remote loads and stores write through to the
// cache best-effort; cache write failures never fail the triggering
// operation. Get offers synchronous cache lookup for already-resolved assets.
//
// # Store Routing
//
// Store delegates to the WebHelper, which picks the first registered source
// covering the asset type with the capability the request needs: create when
// no id is given, update otherwise. No matching source fails fast with
// ErrNoAppropriateStore before any network call. Exactly one write is issued;
// there are no retries.
package resolver
