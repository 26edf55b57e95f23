// Package storeserver is a development stand-in for the remote session
// store.
//
// HTTP API
//
//	POST /store/set {key, data, signature, timeout, allowedOrigin}
//	    Verify signature over data against key (uncompressed public key
//	    hex) and store data for timeout seconds, clamped to 30 days.
//
//	POST /store/get {key}
//	    Return {message} for key. The "origin" header must match the
//	    allowedOrigin recorded on set unless that was empty or "*".
//
//	GET /health
//
// Bodies may be JSON or form encoded. The server never sees plaintext; it
// stores opaque ShareMetadata documents.
package storeserver
