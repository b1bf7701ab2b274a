// Package chain mints agent identities on an ERC-8004 identity registry
// using go-ethereum.
//
// A mint calls register(tokenURI), waits for the receipt and reads the token
// id from the ERC-721 Transfer event emitted with a zero from address. When
// the chain settings are incomplete the server runs with Disabled, which
// fails every mint with a configuration error.
package chain
