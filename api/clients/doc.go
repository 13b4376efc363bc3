// Package clients provides typed HTTP clients for the ledger API. The
// clients set the caller address header on every request and translate
// non-2xx responses back into the ledger's sentinel errors.
package clients
