/*
Package server assembles the gateway: it builds every collaborator from
config, mounts the routes behind the middleware chain and runs the HTTP
server with graceful shutdown.

Collaborators degrade to local stand-ins when their settings are absent:

	LEDGER_URL unset         in-memory registry
	CHAIN_* incomplete       minting disabled (configuration_error on mint)
	DATABASE_URL unset       in-memory unsynced identity store
*/
package server
