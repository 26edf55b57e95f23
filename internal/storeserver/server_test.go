package storeserver_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"w3session/internal/crypto"
	"w3session/internal/domain"
	"w3session/internal/protocol/handshake"
	"w3session/internal/relay"
	"w3session/internal/store"
	"w3session/internal/storeserver"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newServer(t *testing.T) (*httptest.Server, *relay.Client) {
	t.Helper()
	srv := httptest.NewServer(storeserver.New(storeserver.NewMemoryBackend(), zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return srv, relay.NewClient(relay.NewHTTP(srv.URL, 5*time.Second))
}

func signedSet(t *testing.T, signer crypto.SessionKey, key, data, origin string) domain.SetRequest {
	t.Helper()
	sig, err := crypto.Sign(signer, []byte(data))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return domain.SetRequest{Key: key, Data: data, Signature: sig, Timeout: "600", AllowedOrigin: origin}
}

func newKey(t *testing.T) (crypto.SessionKey, string) {
	t.Helper()
	k, err := crypto.GenerateSessionKey()
	if err != nil {
		t.Fatalf("GenerateSessionKey: %v", err)
	}
	pub, err := k.PublicKeyHex()
	if err != nil {
		t.Fatalf("PublicKeyHex: %v", err)
	}
	return k, pub
}

func TestSetGet_RoundTrip(t *testing.T) {
	_, c := newServer(t)
	ctx := context.Background()
	k, pub := newKey(t)

	if err := c.Put(ctx, signedSet(t, k, pub, `{"iv":"00"}`, "*")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, err := c.Get(ctx, pub, "https://anything.example.com")
	if err != nil || e == nil || e.Message != `{"iv":"00"}` {
		t.Fatalf("Get = %+v, %v", e, err)
	}
}

func TestGet_Missing(t *testing.T) {
	_, c := newServer(t)
	_, pub := newKey(t)
	e, err := c.Get(context.Background(), pub, "")
	if err != nil || e != nil {
		t.Fatalf("Get missing = %+v, %v", e, err)
	}
}

func TestSet_RejectsForeignSignature(t *testing.T) {
	_, c := newServer(t)
	_, pub := newKey(t)
	other, _ := newKey(t)

	err := c.Put(context.Background(), signedSet(t, other, pub, "data", "*"))
	var se *relay.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %v", err)
	}
}

func TestGet_EnforcesAllowedOrigin(t *testing.T) {
	_, c := newServer(t)
	ctx := context.Background()
	k, pub := newKey(t)
	const allowed = "https://app.example.com"

	if err := c.Put(ctx, signedSet(t, k, pub, "data", allowed)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := c.Get(ctx, pub, "https://evil.example.com")
	var se *relay.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("foreign origin: %v", err)
	}
	if e, err := c.Get(ctx, pub, allowed); err != nil || e == nil {
		t.Fatalf("allowed origin = %+v, %v", e, err)
	}
}

func TestSet_FormBody(t *testing.T) {
	srv, c := newServer(t)
	k, pub := newKey(t)
	req := signedSet(t, k, pub, "form-data", "")

	resp, err := http.PostForm(srv.URL+"/store/set", url.Values{
		"key":       {req.Key},
		"data":      {req.Data},
		"signature": {req.Signature},
		"timeout":   {req.Timeout},
	})
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %s", resp.Status)
	}
	if e, err := c.Get(context.Background(), pub, ""); err != nil || e == nil || e.Message != "form-data" {
		t.Fatalf("Get = %+v, %v", e, err)
	}
}

func TestSet_BadRequests(t *testing.T) {
	_, c := newServer(t)
	k, pub := newKey(t)

	cases := map[string]domain.SetRequest{
		"missing signature": {Key: pub, Data: "x"},
		"bad key":           signedSet(t, k, "zz", "x", ""),
		"bad timeout":       func() domain.SetRequest { r := signedSet(t, k, pub, "x", ""); r.Timeout = "soon"; return r }(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.Put(context.Background(), req)
			var se *relay.StatusError
			if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %v", err)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %s", resp.Status)
	}
}

func TestHandshake_AgainstServer(t *testing.T) {
	_, c := newServer(t)
	ctx := context.Background()
	kv := store.NewMemoryStore()
	hs := handshake.New(c, kv, handshake.Config{SDKURL: "https://auth.example.com"})
	const origin = "http://127.0.0.1:7777"

	p, err := hs.BeginLogin(ctx, map[string]string{"loginProvider": "google"}, origin)
	if err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}

	// The authorizer reads the request back with the login id.
	u, _ := url.Parse(p.URL)
	raw, err := handshake.DecodeB64Params(strings.TrimPrefix(u.Fragment, "b64Params="))
	if err != nil {
		t.Fatalf("DecodeB64Params: %v", err)
	}
	var ho domain.HandOff
	_ = json.Unmarshal(raw, &ho)
	loginKey, err := crypto.ParseSessionKey(ho.LoginID)
	if err != nil {
		t.Fatalf("login id: %v", err)
	}
	loginPub, _ := loginKey.PublicKeyHex()
	e, err := c.Get(ctx, loginPub, "")
	if err != nil || e == nil {
		t.Fatalf("request entry = %+v, %v", e, err)
	}

	// It answers under a new session key, sealed to that key.
	sess, sessPub := newKey(t)
	eph, ephPub := newKey(t)
	iv, _ := crypto.RandomIV()
	ch, err := crypto.NewChannel(eph, sessPub, crypto.EncodeHex(iv))
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	body, _ := json.Marshal(domain.Web3AuthResponse{PrivKey: "0badc0de", UserInfo: &domain.UserInfo{Email: "a@example.com"}})
	meta, _ := ch.Seal(body)
	meta.EphemPublicKey = ephPub
	data, _ := json.Marshal(meta)
	if err := c.Put(ctx, signedSet(t, sess, sessPub, string(data), origin)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	params, _ := json.Marshal(map[string]string{"sessionId": sess.Hex()})
	if err := hs.OnRedirect(ctx, origin+"#b64Params="+base64.RawURLEncoding.EncodeToString(params)); err != nil {
		t.Fatalf("OnRedirect: %v", err)
	}
	out, err := p.Wait(ctx)
	if err != nil || out.Response.PrivKey != "0badc0de" {
		t.Fatalf("outcome = %+v, %v", out, err)
	}
	if hs.State() != handshake.Established {
		t.Fatalf("state = %s", hs.State())
	}

	if err := hs.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if hs.State() != handshake.LoggedOut {
		t.Fatalf("state after logout = %s", hs.State())
	}
}
