// Package fetch retrieves agent card and registration documents.
//
// Supported sources are http(s) URLs, ipfs:// URIs (rewritten to the
// configured gateway) and data: URIs with a JSON payload. Failures carry an
// apperr category: timeouts are upstream_timeout (504), non-2xx statuses are
// upstream_fetch_error (502) and bodies that are not JSON are
// unsupported_media_type (415).
//
// Bodies declared in another charset, or undeclared and not valid UTF-8, are
// transcoded before decoding.
package fetch
