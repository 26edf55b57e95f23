package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"w3session/internal/domain"
)

// IVBytes is the AES-CBC IV size.
const IVBytes = aes.BlockSize

var (
	// ErrAuthenticationFailed means the MAC did not match the ciphertext.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrMalformedCiphertext means the ciphertext length or padding is wrong.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// Channel is the symmetric codec for one session. It is built from our
// private key, the counterparty's public key and the session IV.
type Channel struct {
	macKey   []byte
	iv       []byte
	ephemPub string
	block    cipher.Block
}

// NewChannel performs ECDH between key and counterpartyPubHex and derives the
// encryption and MAC keys from the shared secret (see package doc).
func NewChannel(key SessionKey, counterpartyPubHex, ivHex string) (*Channel, error) {
	pub, err := ParsePublicKeyHex(counterpartyPubHex)
	if err != nil {
		return nil, err
	}
	iv, err := DecodeHex("iv", ivHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	if len(iv) != IVBytes {
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrMalformedCiphertext, len(iv), IVBytes)
	}

	secret, err := key.sharedSecret(pub)
	if err != nil {
		return nil, err
	}
	encKey, macKey := deriveKeys(secret)
	Wipe(secret)

	block, err := aes.NewCipher(encKey)
	Wipe(encKey)
	if err != nil {
		return nil, err
	}
	return &Channel{
		macKey:   macKey,
		iv:       iv,
		ephemPub: counterpartyPubHex,
		block:    block,
	}, nil
}

// deriveKeys splits SHA-512(secret) into a 32-byte AES key and a 32-byte
// HMAC key.
func deriveKeys(secret []byte) (encKey, macKey []byte) {
	sum := sha512.Sum512(secret)
	encKey = append([]byte(nil), sum[:32]...)
	macKey = append([]byte(nil), sum[32:]...)
	Wipe(sum[:])
	return encKey, macKey
}

// RandomIV returns a fresh IV. Every new session must use one.
func RandomIV() ([]byte, error) {
	iv := make([]byte, IVBytes)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Encrypt pads plaintext with PKCS#7 and encrypts it with AES-256-CBC. The
// output is deterministic for a fixed key, IV and plaintext.
func (c *Channel) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	Wipe(padded)
	return out, nil
}

// MAC returns HMAC-SHA256 over ciphertext.
func (c *Channel) MAC(ciphertext []byte) []byte {
	h := hmac.New(sha256.New, c.macKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}

// Decrypt verifies expectedMAC before decrypting. A mismatch returns
// ErrAuthenticationFailed and the ciphertext is never processed.
func (c *Channel) Decrypt(ciphertext, expectedMAC []byte) ([]byte, error) {
	if !hmac.Equal(c.MAC(ciphertext), expectedMAC) {
		return nil, ErrAuthenticationFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", ErrMalformedCiphertext, len(ciphertext), aes.BlockSize)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, ciphertext)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		Wipe(out)
		return nil, err
	}
	return plain, nil
}

// Seal encrypts plaintext and packs it into the wire representation.
func (c *Channel) Seal(plaintext []byte) (domain.ShareMetadata, error) {
	ct, err := c.Encrypt(plaintext)
	if err != nil {
		return domain.ShareMetadata{}, err
	}
	return domain.ShareMetadata{
		IV:             EncodeHex(c.iv),
		EphemPublicKey: c.ephemPub,
		Ciphertext:     EncodeHex(ct),
		MAC:            EncodeHex(c.MAC(ct)),
	}, nil
}

// Open decodes meta's ciphertext and MAC and decrypts them with c.
func (c *Channel) Open(meta domain.ShareMetadata) ([]byte, error) {
	ct, err := DecodeHex("ciphertext", meta.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	mac, err := DecodeHex("mac", meta.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return c.Decrypt(ct, mac)
}

// OpenShare builds the channel described by meta (its ephemeral key and IV)
// and decrypts it with key.
func OpenShare(key SessionKey, meta domain.ShareMetadata) ([]byte, error) {
	ch, err := NewChannel(key, meta.EphemPublicKey, meta.IV)
	if err != nil {
		return nil, err
	}
	return ch.Open(meta)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrMalformedCiphertext
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformedCiphertext)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrMalformedCiphertext)
		}
	}
	return b[:len(b)-n], nil
}
