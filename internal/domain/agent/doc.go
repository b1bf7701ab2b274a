// Package agent wires the ingestion pipeline: fetch, normalize, resolve the
// subject identity, sync, and the read paths that map stored entries back to
// views.
package agent
