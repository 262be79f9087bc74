// Package dbapi defines the external collaborator contract (§6): the
// operations this module needs from the database client, and the response
// shapes it reads fields out of. The core depends only on this interface,
// never on a concrete transport — record encoding, connection pooling, and
// retry policy belong to whatever implements Client (§1 Non-goals: the core
// itself has no retry policy).
//
// httpclient.go provides one reference implementation adapted from the
// teacher's cluster.PostJSON/GetJSON helpers, wired to zap for request
// logging and pkg/errors for RPC error wrapping. It is not required by
// internal/ingest or internal/retrieve — either of those only needs a
// Client — but it makes the module runnable end to end against a real
// server without every caller writing their own HTTP plumbing.
package dbapi
