// Package identity resolves the subject identifier under which a payload is
// stored.
//
// A natural key (the source URL of an agent card) is first looked up in the
// registry under the agent_card_url predicate; a registered composite
// identifier (chainId:contract:tokenId) is reused. Otherwise a new identity
// is minted. Payloads without a natural key always mint.
package identity
