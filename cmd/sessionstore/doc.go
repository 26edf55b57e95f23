// Package main runs the session store server used during development and
// tests. It speaks the same /store/set and /store/get contract as the hosted
// store, keeping entries in memory or in Redis.
//
// Flags
//
//	--addr            listen address (default :8080)
//	--redis           Redis address; empty keeps entries in memory
//	--redis-password  Redis password
//	--log-level       zerolog level (default info)
//
// The server only ever holds opaque encrypted documents and their owners'
// public keys.
package main
