// Package reconcile tracks identities that were minted while the follow-up
// registry sync failed. Mint and sync are not atomic; entries here are the
// gap an operator has to close by resubmitting the source document.
//
// The in-memory store is used unless DATABASE_URL selects PostgreSQL.
package reconcile
