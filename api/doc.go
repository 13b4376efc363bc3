// Package api defines the wire types and header constants shared by the
// HTTP server and its clients. Monetary amounts travel as decimal strings
// so arbitrary-precision values survive JSON round-trips.
package api
