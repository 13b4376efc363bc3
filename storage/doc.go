// Package storage provides content-addressed storage for proof attachments
// (transcript files, attendance evidence) with pluggable backends.
//
// The ledger core only ever stores the opaque proof-reference string — the
// hex SHA-256 of the attachment — and never dereferences it. This package is
// the external collaborator that mints those references: the HTTP layer
// stores uploads here and hands the resulting ID to the ledger.
//
// # Storage URI Format
//
// Backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/ledger/attachments/
//   - ipfs://ipfs.example.com:5001/?timeout=30s
//   - s3://bucket-name/prefix/?region=us-west-2
//   - vault://vault.example.com:8200/secret/ledger?token=...
//
// # Content Addressing
//
// Content is stored and retrieved by its SHA-256 hash. Transcript and
// attendance attachments live in separate namespaces (see
// interfaces.ContentType).
//
// The multi-backend aggregates several backends for redundancy: stores go to
// every available backend, fetches return the first hit.
package storage
