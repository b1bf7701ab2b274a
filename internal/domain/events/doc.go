// Package events validates inbound community webhooks against per-type
// schemas and turns them into records keyed by a deterministic subject.
package events
