package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short hex fingerprint of a public key given in hex.
//
// It hashes the decoded point with SHA-256 and truncates to 10 bytes (20 hex
// chars). Input that is not valid hex is hashed as text so log lines never
// fail.
func Fingerprint(pubHex string) string {
	raw, err := hex.DecodeString(pubHex)
	if err != nil {
		raw = []byte(pubHex)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:10])
}
