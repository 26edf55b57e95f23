package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"w3session/internal/domain"
	"w3session/internal/relay"
)

func TestClampTTL(t *testing.T) {
	cases := []struct{ in, want int64 }{
		{0, 600},
		{-5, 600},
		{1, 1},
		{86400, 86400},
		{2_592_000, 2_592_000},
		{31_536_000_000, 2_592_000},
	}
	for _, c := range cases {
		if got := relay.ClampTTL(c.in); got != c.want {
			t.Fatalf("ClampTTL(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClient_PutThenGet(t *testing.T) {
	var stored domain.SetRequest
	var gotOrigin string

	mux := http.NewServeMux()
	mux.HandleFunc("/store/set", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("set method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&stored); err != nil {
			t.Errorf("decode set: %v", err)
		}
		_ = json.NewEncoder(w).Encode(domain.SetResponse{Message: "ok"})
	})
	mux.HandleFunc("/store/get", func(w http.ResponseWriter, r *http.Request) {
		gotOrigin = r.Header.Get("origin")
		var req domain.GetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Key != stored.Key {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.StoreEntry{Message: stored.Data})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := relay.NewClient(relay.NewHTTP(srv.URL, 0))
	ctx := context.Background()

	req := domain.SetRequest{Key: "04aa", Data: `{"iv":"00"}`, Signature: "30", Timeout: "600", AllowedOrigin: "*"}
	if err := c.Put(ctx, req); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if stored != req {
		t.Fatalf("server saw %+v", stored)
	}

	entry, err := c.Get(ctx, "04aa", "http://localhost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil || entry.Message != req.Data {
		t.Fatalf("entry = %+v", entry)
	}
	if gotOrigin != "http://localhost" {
		t.Fatalf("origin header = %q", gotOrigin)
	}

	entry, err = c.Get(ctx, "04bb", "")
	if err != nil || entry != nil {
		t.Fatalf("missing key: entry=%+v err=%v", entry, err)
	}
}

func TestClient_ServerErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := relay.NewClient(relay.NewHTTP(srv.URL, 0))
	_, err := c.Get(context.Background(), "04aa", "")
	var se *relay.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("Get: want StatusError 500, got %v", err)
	}
	if err := c.Put(context.Background(), domain.SetRequest{Key: "04aa"}); !errors.As(err, &se) {
		t.Fatalf("Put: want StatusError, got %v", err)
	}
}

func TestFetchProjectConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/configuration" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("project_id") != "client-1" || q.Get("network") != "sapphire_devnet" || q.Get("whitelist") != "true" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{
			"whitelabel": {"appName": "demo"},
			"whitelist": {"urls": ["http://localhost"], "signed_urls": {"http://localhost": "sig"}}
		}`))
	}))
	defer srv.Close()

	cfg, err := relay.FetchProjectConfig(context.Background(), relay.NewHTTP("", 0), srv.URL, "client-1", "sapphire_devnet")
	if err != nil {
		t.Fatalf("FetchProjectConfig: %v", err)
	}
	if cfg.Whitelist.SignedURLs["http://localhost"] != "sig" {
		t.Fatalf("signed urls = %v", cfg.Whitelist.SignedURLs)
	}
	if string(cfg.WhiteLabel) != `{"appName": "demo"}` {
		t.Fatalf("whitelabel = %s", cfg.WhiteLabel)
	}
}

func TestSignerURL(t *testing.T) {
	if u, _ := relay.SignerURL("cyan"); u != "https://signer-polygon.web3auth.io" {
		t.Fatalf("cyan -> %s", u)
	}
	if u, _ := relay.SignerURL("sapphire_mainnet"); u != "https://signer.web3auth.io" {
		t.Fatalf("sapphire_mainnet -> %s", u)
	}
	if _, err := relay.SignerURL("nope"); err == nil {
		t.Fatal("expected error for unknown network")
	}
}
