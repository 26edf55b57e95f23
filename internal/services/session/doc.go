// Package session is the application facing API over the handshake.
//
// It owns the SDK options, merges the project configuration fetched from the
// signer host, builds the {options, params, actionType} payloads for login,
// MFA enrolment and wallet hand-offs, and exposes the keys and profile of the
// established session.
package session
