// Package shardrouter is the public facade: given a record type and a
// collaborator dialer, it resolves worker topology, analyzes the record
// type's key schemas, and wires the result into an Ingestor or Retriever
// ready to use. There is no CLI and no on-disk state (§6) — this package
// replaces what would otherwise be a server's main() wiring with a pair of
// importable constructors.
package shardrouter
