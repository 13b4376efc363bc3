// Package httpserver exposes the ledger over HTTP: JSON handlers for every
// ledger operation, attachment upload/download backed by the content store,
// an event log tail for observers, and the liveness/readiness/drain
// lifecycle endpoints.
//
// Caller identity arrives in the X-Ledger-Caller-Address header, set by the
// identity layer in front of the service. Handlers parse it, pass it to the
// ledger as the caller address and otherwise trust it.
package httpserver
