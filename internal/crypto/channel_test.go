package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"w3session/internal/crypto"
)

// newKey generates a session key or fails the test.
func newKey(t *testing.T) crypto.SessionKey {
	t.Helper()
	k, err := crypto.GenerateSessionKey()
	if err != nil {
		t.Fatalf("GenerateSessionKey: %v", err)
	}
	return k
}

func pubHex(t *testing.T, k crypto.SessionKey) string {
	t.Helper()
	p, err := k.PublicKeyHex()
	if err != nil {
		t.Fatalf("PublicKeyHex: %v", err)
	}
	return p
}

const fixedIV = "000102030405060708090a0b0c0d0e0f"

func TestChannel_RoundTrip(t *testing.T) {
	k := newKey(t)
	ch, err := crypto.NewChannel(k, pubHex(t, k), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	payloads := [][]byte{
		{},
		[]byte("a"),
		[]byte("exactly sixteen!"),
		[]byte(`{"options":{"clientId":"abc"},"actionType":"login"}`),
		bytes.Repeat([]byte{0xff}, 1000),
	}
	for _, p := range payloads {
		ct, err := ch.Encrypt(p)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if len(ct)%16 != 0 || len(ct) <= len(p) {
			t.Fatalf("ciphertext length %d for plaintext %d", len(ct), len(p))
		}
		got, err := ch.Decrypt(ct, ch.MAC(ct))
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, p) {
			t.Fatalf("round trip mismatch: got %q want %q", got, p)
		}
	}
}

func TestChannel_Deterministic(t *testing.T) {
	k := newKey(t)
	a, err := crypto.NewChannel(k, pubHex(t, k), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	b, err := crypto.NewChannel(k, pubHex(t, k), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	ct1, _ := a.Encrypt([]byte("payload"))
	ct2, _ := b.Encrypt([]byte("payload"))
	if !bytes.Equal(ct1, ct2) {
		t.Fatal("same key, iv and plaintext gave different ciphertexts")
	}
}

func TestChannel_BothSidesAgree(t *testing.T) {
	// The session key holder and the remote party's ephemeral key reach the
	// same channel from opposite ends.
	session := newKey(t)
	ephemeral := newKey(t)

	remote, err := crypto.NewChannel(ephemeral, pubHex(t, session), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel remote: %v", err)
	}
	meta, err := remote.Seal([]byte(`{"privKey":"01"}`))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	// The remote side declares its own ephemeral key in the metadata.
	meta.EphemPublicKey = pubHex(t, ephemeral)

	got, err := crypto.OpenShare(session, meta)
	if err != nil {
		t.Fatalf("OpenShare: %v", err)
	}
	if string(got) != `{"privKey":"01"}` {
		t.Fatalf("got %q", got)
	}
}

func TestChannel_BitFlipFailsAuthentication(t *testing.T) {
	k := newKey(t)
	ch, err := crypto.NewChannel(k, pubHex(t, k), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	ct, _ := ch.Encrypt([]byte("some secret session payload"))
	mac := ch.MAC(ct)

	for i := 0; i < len(ct)*8; i++ {
		flipped := append([]byte(nil), ct...)
		flipped[i/8] ^= 1 << (i % 8)
		if _, err := ch.Decrypt(flipped, mac); !errors.Is(err, crypto.ErrAuthenticationFailed) {
			t.Fatalf("ciphertext bit %d: want ErrAuthenticationFailed, got %v", i, err)
		}
	}
	for i := 0; i < len(mac)*8; i++ {
		flipped := append([]byte(nil), mac...)
		flipped[i/8] ^= 1 << (i % 8)
		if _, err := ch.Decrypt(ct, flipped); !errors.Is(err, crypto.ErrAuthenticationFailed) {
			t.Fatalf("mac bit %d: want ErrAuthenticationFailed, got %v", i, err)
		}
	}
}

func TestChannel_MalformedCiphertext(t *testing.T) {
	k := newKey(t)
	ch, err := crypto.NewChannel(k, pubHex(t, k), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	// Authentic but not block aligned.
	short := []byte("not aligned")
	if _, err := ch.Decrypt(short, ch.MAC(short)); !errors.Is(err, crypto.ErrMalformedCiphertext) {
		t.Fatalf("want ErrMalformedCiphertext, got %v", err)
	}

	// Authentic, aligned, but the padding is garbage: encrypt a block that
	// ends in 0x00 without padding by truncating a real ciphertext.
	ct, _ := ch.Encrypt(bytes.Repeat([]byte{0x00}, 16))
	ct = ct[:16]
	if _, err := ch.Decrypt(ct, ch.MAC(ct)); !errors.Is(err, crypto.ErrMalformedCiphertext) {
		t.Fatalf("want ErrMalformedCiphertext for bad padding, got %v", err)
	}
}

func TestChannel_RejectsBadParameters(t *testing.T) {
	k := newKey(t)
	if _, err := crypto.NewChannel(k, "04deadbeef", fixedIV); !errors.Is(err, crypto.ErrInvalidKey) {
		t.Fatalf("bad point: want ErrInvalidKey, got %v", err)
	}
	if _, err := crypto.NewChannel(k, pubHex(t, k), "0011"); !errors.Is(err, crypto.ErrMalformedCiphertext) {
		t.Fatalf("short iv: want ErrMalformedCiphertext, got %v", err)
	}
	if _, err := crypto.NewChannel(crypto.SessionKey{}, pubHex(t, k), fixedIV); !errors.Is(err, crypto.ErrInvalidKey) {
		t.Fatalf("zero key: want ErrInvalidKey, got %v", err)
	}
}

func TestSealOpen_WrongKeyFails(t *testing.T) {
	k := newKey(t)
	other := newKey(t)
	ch, err := crypto.NewChannel(k, pubHex(t, k), fixedIV)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	meta, err := ch.Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := crypto.OpenShare(other, meta); !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Fatalf("want ErrAuthenticationFailed, got %v", err)
	}
}
