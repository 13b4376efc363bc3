// Package eventlog provides the durable, append-only event log behind the
// ledger. Two implementations are offered: a JSONL file-backed log for
// deployments and an in-memory log for tests.
//
// Both assign strictly increasing, gap-free sequence numbers. Because the
// ledger serializes mutating operations, the sequence is also the total
// order of state mutations, which is what off-system observers (indexers,
// the presentation layer) replay.
package eventlog
