package storeserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"w3session/internal/crypto"
	"w3session/internal/relay"
)

func TestMemoryBackend_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewMemoryBackend()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "k", Record{Data: "v"}, time.Second); err != nil {
		t.Fatal(err)
	}
	if r, _ := m.Get(ctx, "k"); r == nil || r.Data != "v" {
		t.Fatalf("fresh record = %+v", r)
	}
	now = now.Add(time.Second)
	if r, _ := m.Get(ctx, "k"); r != nil {
		t.Fatalf("expired record = %+v", r)
	}
	if len(m.entries) != 0 {
		t.Fatal("expired record not dropped")
	}
}

func TestSet_ClampsTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Unix(1_700_000_000, 0)
	m := NewMemoryBackend()
	m.now = func() time.Time { return now }
	r := New(m, zerolog.Nop()).Router()

	k, _ := crypto.GenerateSessionKey()
	pub, _ := k.PublicKeyHex()
	sig, _ := crypto.Sign(k, []byte("d"))
	body := `{"key":"` + pub + `","data":"d","signature":"` + sig + `","timeout":"31536000000"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/store/set", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	got := m.entries[pub].expires.Sub(now)
	if got != relay.MaxTTL*time.Second {
		t.Fatalf("ttl = %s, want %ds", got, relay.MaxTTL)
	}
}

func TestOriginAllowed(t *testing.T) {
	cases := []struct {
		allowed, origin string
		want            bool
	}{
		{"", "https://a", true},
		{"*", "", true},
		{"https://a", "https://a", true},
		{"https://a", "https://b", false},
		{"https://a", "", false},
	}
	for _, c := range cases {
		if got := originAllowed(c.allowed, c.origin); got != c.want {
			t.Errorf("originAllowed(%q, %q) = %v", c.allowed, c.origin, got)
		}
	}
}
