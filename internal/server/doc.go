// Package server implements the HTTP server and HTTP handlers for the
// Plugin Hub backend. It wires together the HTTP routes, dependencies
// (metadata store, blob store), and provides lifecycle helpers used by
// tests and the production binary.
package server
