// Package syncer writes normalized records to the registry and classifies
// the outcome as created, already_exists (an idempotent no-op) or failure.
package syncer
