// Package crypto exposes the primitives used by the session handshake.
//
// Contents
//
//   - secp256k1 session keys: generation, parsing, public-key hex and
//     ECDSA signing over a Keccak-256 digest (GenerateSessionKey,
//     ParseSessionKey, PublicKeyHex, Sign, Verify)
//   - Channel, the per-session AES-256-CBC + HMAC-SHA256 codec keyed by an
//     ECDH shared secret (NewChannel, Encrypt, MAC, Decrypt, Seal, Open)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Key derivation
//
// The ECDH shared secret is the 32-byte X coordinate of priv*Pub. It is hashed
// with SHA-512; the first 32 bytes are the AES-256 key and the last 32 bytes
// are the HMAC-SHA256 key. The raw secret is never used directly as a key.
//
// # Notes
//
// The MAC covers the ciphertext only. Decrypt checks it in constant time and
// refuses to touch the ciphertext when it does not match.
package crypto
