package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// vaultFormatVersion is the newest sealed-file format this build can open.
const vaultFormatVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the sealed
// file has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted session file")

// sealed is the on-disk JSON wrapper around the encrypted key/value map.
type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

type scryptParams struct{ N, R, P int }

// defaultScrypt is used for new files; existing files carry their own.
var defaultScrypt = scryptParams{N: 1 << 15, R: 8, P: 1}

// seal derives a key from passphrase with a fresh salt and encrypts raw.
func seal(passphrase string, raw []byte, kdf scryptParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	aead, err := vaultAEAD(passphrase, salt[:], kdf)
	if err != nil {
		return nil, err
	}
	// A zero nonce is safe: every seal draws a new salt, hence a new key.
	var nonce [chacha20poly1305.NonceSize]byte
	return json.Marshal(sealed{
		V:      vaultFormatVersion,
		Salt:   salt[:],
		N:      kdf.N,
		R:      kdf.R,
		P:      kdf.P,
		Cipher: aead.Seal(nil, nonce[:], raw, salt[:]),
	})
}

// unseal reverses seal using the parameters recorded in the file.
func unseal(passphrase string, b []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if s.V > vaultFormatVersion {
		return nil, fmt.Errorf("unsupported session file version %d", s.V)
	}
	aead, err := vaultAEAD(passphrase, s.Salt, scryptParams{N: s.N, R: s.R, P: s.P})
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], s.Cipher, s.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func vaultAEAD(passphrase string, salt []byte, kdf scryptParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.New(key)
}
