// Package relay talks to the remote session store and the project
// configuration service.
//
// The store is an untrusted key/blob service keyed by public-key hex. Writes
// carry a signature by the matching private key; reads carry an origin header
// that the store checks against the origin allowed at write time. This
// package never interprets the blobs it moves.
//
// Contents:
//   - HTTP: the net/http domain.Transport (JSON bodies, 2xx check)
//   - Client: domain.SessionStoreClient on top of any Transport
//   - ClampTTL: bounds the lifetime of a store write
//   - FetchProjectConfig: whitelist and white-label settings per client id
//
// Non-2xx statuses come back as *StatusError with the method, URL and status
// text. Nothing is retried here.
package relay
