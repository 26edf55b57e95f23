// Package handshake implements the session handshake between this process
// and an external, browser-hosted authorizer that communicate through an
// untrusted key/blob store.
//
// # Flow
//
//  1. Begin: generate an ephemeral session key E, seal the request payload
//     under a channel from E to itself, sign the sealed metadata with E and
//     write it to the store under E's public key. The hand-off URL carries
//     b64Params = base64url(JSON{loginId: hex(E), ...}) in its fragment.
//  2. The external flow runs and the redirect channel delivers a callback
//     URL whose fragment is a query string with b64Params (or error).
//  3. OnRedirect decodes {sessionId}, persists it with the origin, reads the
//     store entry under the session's public key and opens it with the
//     session key. The plaintext is the session response.
//  4. Logout overwrites the entry with a sealed empty payload that expires
//     in one second and clears the local session.
//
// # States
//
//	Idle -> Creating -> AwaitingRedirect -> Resuming -> Authorizing -> Established
//	                                                               \-> LoggedOut
//	any failure -> Failed; logout -> LoggedOut
//
// Resume runs Resuming -> Authorizing from the persisted session at start-up.
//
// # Notes
//
// The self-addressed channel used in Begin only keeps the payload opaque in
// transit. Whoever learns the login id can decrypt it, the store operator
// included once the hand-off URL leaks. Confidentiality of the session
// response comes from the second channel, which the authorizer keys to the
// session's public key.
//
// The handshake enforces no timeout of its own. Pending.Wait and every
// blocking method honor ctx.
package handshake
