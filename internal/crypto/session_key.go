package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// PrivateKeyBytes is the size of a serialized session key.
const PrivateKeyBytes = 32

// ErrInvalidKey is returned for malformed, zero or out-of-range keys.
var ErrInvalidKey = errors.New("invalid key")

// SessionKey is a secp256k1 private scalar. Its public key, hex encoded, is
// the lookup key in the remote store, and the scalar itself is the ECDH half
// used to reach a counterparty's ephemeral key.
//
// The zero value is not a usable key; every method reports ErrInvalidKey.
type SessionKey struct {
	priv *secp256k1.PrivateKey
}

// GenerateSessionKey returns a fresh key drawn from crypto/rand.
func GenerateSessionKey() (SessionKey, error) {
	return generateSessionKey(rand.Reader)
}

// generateSessionKey rejects candidates that are zero or not below the group
// order instead of reducing them, so the distribution stays uniform.
func generateSessionKey(r io.Reader) (SessionKey, error) {
	var buf [PrivateKeyBytes]byte
	defer Wipe(buf[:])
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return SessionKey{}, fmt.Errorf("generate session key: %w", err)
		}
		var s secp256k1.ModNScalar
		if overflow := s.SetBytes(&buf); overflow != 0 || s.IsZero() {
			continue
		}
		return SessionKey{priv: secp256k1.NewPrivateKey(&s)}, nil
	}
}

// ParseSessionKey parses a private key from hex. Keys written by big-integer
// encoders may have lost their leading zeros; they are left-padded back to 32
// bytes.
func ParseSessionKey(s string) (SessionKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" || len(s) > 2*PrivateKeyBytes {
		return SessionKey{}, fmt.Errorf("%w: want up to %d hex chars, got %d", ErrInvalidKey, 2*PrivateKeyBytes, len(s))
	}
	s = strings.Repeat("0", 2*PrivateKeyBytes-len(s)) + s
	raw, err := hex.DecodeString(s)
	if err != nil {
		return SessionKey{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer Wipe(raw)

	var buf [PrivateKeyBytes]byte
	copy(buf[:], raw)
	defer Wipe(buf[:])

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetBytes(&buf); overflow != 0 {
		return SessionKey{}, fmt.Errorf("%w: scalar not below group order", ErrInvalidKey)
	}
	if scalar.IsZero() {
		return SessionKey{}, fmt.Errorf("%w: zero scalar", ErrInvalidKey)
	}
	return SessionKey{priv: secp256k1.NewPrivateKey(&scalar)}, nil
}

// Valid reports whether k holds a usable scalar.
func (k SessionKey) Valid() bool { return k.priv != nil }

// Hex returns the 64-character, zero-padded private key hex. This is the
// value persisted as the session id and sent as a login id.
func (k SessionKey) Hex() string {
	if k.priv == nil {
		return ""
	}
	b := k.priv.Serialize()
	defer Wipe(b)
	return hex.EncodeToString(b)
}

// PublicKeyHex returns the uncompressed public point (04 || X || Y) in hex.
func (k SessionKey) PublicKeyHex() (string, error) {
	if k.priv == nil {
		return "", ErrInvalidKey
	}
	return hex.EncodeToString(k.priv.PubKey().SerializeUncompressed()), nil
}

// PublicKeyHex derives the store lookup key for a private key given in hex.
func PublicKeyHex(privHex string) (string, error) {
	k, err := ParseSessionKey(privHex)
	if err != nil {
		return "", err
	}
	return k.PublicKeyHex()
}

// ParsePublicKeyHex accepts a compressed (33 byte) or uncompressed (65 byte)
// secp256k1 point in hex.
func ParsePublicKeyHex(s string) (*secp256k1.PublicKey, error) {
	raw, err := DecodeHex("public key", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return pub, nil
}

// Digest is the application digest signed for store writes: Keccak-256 of
// the raw message bytes.
func Digest(message []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(message)
	return h.Sum(nil)
}

// Sign returns a deterministic (RFC 6979) DER-encoded ECDSA signature over
// Digest(message), hex encoded.
func Sign(k SessionKey, message []byte) (string, error) {
	if k.priv == nil {
		return "", ErrInvalidKey
	}
	sig := ecdsa.Sign(k.priv, Digest(message))
	return hex.EncodeToString(sig.Serialize()), nil
}

// Verify checks a hex DER signature produced by Sign against a public key in
// hex.
func Verify(pubHex string, message []byte, sigHex string) (bool, error) {
	pub, err := ParsePublicKeyHex(pubHex)
	if err != nil {
		return false, err
	}
	der, err := DecodeHex("signature", sigHex)
	if err != nil {
		return false, err
	}
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false, fmt.Errorf("parse signature: %w", err)
	}
	return sig.Verify(Digest(message), pub), nil
}

// IsZeroKeyHex reports whether s carries no key material: empty, or only '0'
// characters.
func IsZeroKeyHex(s string) bool {
	return strings.Trim(strings.TrimSpace(s), "0") == ""
}

// sharedSecret returns the X coordinate of k*pub.
func (k SessionKey) sharedSecret(pub *secp256k1.PublicKey) ([]byte, error) {
	if k.priv == nil {
		return nil, ErrInvalidKey
	}
	return secp256k1.GenerateSharedSecret(k.priv, pub), nil
}
