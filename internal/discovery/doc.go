// Package discovery resolves the worker topology a multi-head ingestor or
// retriever routes against. It reads the collaborator's system properties
// to decide whether multi-head routing is enabled at all, builds the
// per-worker endpoint list from either the URL form or the IP/port form of
// the relevant keys, and fetches the shard map that tells the router which
// worker owns which shard.
//
// Every failure here is a configuration error in the sense of §7 kind 1:
// missing keys, inconsistent list lengths, a URL that doesn't match any
// supplied IP regex. All such failures are fatal and reported with
// github.com/pkg/errors so the caller gets a wrapped cause chain instead of
// a bare string.
package discovery
