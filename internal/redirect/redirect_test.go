package redirect

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoopback_DeliversFragmentOnce(t *testing.T) {
	l, err := NewLoopback("127.0.0.1:0", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLoopback: %v", err)
	}
	defer l.Close()

	if !strings.HasSuffix(l.RedirectURL(), "/complete/") || !strings.HasPrefix(l.RedirectURL(), l.Origin()) {
		t.Fatalf("redirect url = %s origin = %s", l.RedirectURL(), l.Origin())
	}

	resp, err := http.Get(l.RedirectURL())
	if err != nil {
		t.Fatalf("GET complete: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(page), "/auth/?code=") {
		t.Fatal("complete page does not forward the fragment")
	}

	code := "b64Params=eyJzZXNzaW9uSWQiOiJhYmMifQ"
	for i := 0; i < 2; i++ {
		resp, err := http.Get(l.Origin() + "/auth/?code=" + url.QueryEscape(code))
		if err != nil {
			t.Fatalf("GET auth: %v", err)
		}
		resp.Body.Close()
	}

	got, err := l.Await(ctxT(t))
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got != "http://localhost#"+code {
		t.Fatalf("delivered %q", got)
	}

	// The duplicate was dropped.
	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Await(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Await: %v", err)
	}
}

func TestLoopback_CloseUnblocksAwait(t *testing.T) {
	l, err := NewLoopback("127.0.0.1:0", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLoopback: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = l.Close()
	}()
	if _, err := l.Await(ctxT(t)); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestDeepLink_FirstWins(t *testing.T) {
	d := NewDeepLink("myapp://auth")
	if !d.Deliver("myapp://auth#b64Params=first") {
		t.Fatal("first delivery refused")
	}
	if d.Deliver("myapp://auth#b64Params=second") {
		t.Fatal("second delivery accepted")
	}
	got, err := d.Await(ctxT(t))
	if err != nil || got != "myapp://auth#b64Params=first" {
		t.Fatalf("Await = %q, %v", got, err)
	}
}

func TestFragment(t *testing.T) {
	f, err := NewFragment("https://app.example.com/play?x=1#b64Params=e30")
	if err != nil {
		t.Fatalf("NewFragment: %v", err)
	}
	if f.RedirectURL() != "https://app.example.com/play?x=1" {
		t.Fatalf("RedirectURL = %s", f.RedirectURL())
	}
	got, err := f.Await(ctxT(t))
	if err != nil || !strings.HasSuffix(got, "#b64Params=e30") {
		t.Fatalf("Await = %q, %v", got, err)
	}

	empty, _ := NewFragment("https://app.example.com/play")
	if _, err := empty.Await(ctxT(t)); !errors.Is(err, ErrNoCallback) {
		t.Fatalf("want ErrNoCallback, got %v", err)
	}
}

func TestNATS_HandleDeliversFirstMessage(t *testing.T) {
	n := newNATS("w3s.redirect.", "https://relay.example.com/cb/", zerolog.Nop())
	token := strings.TrimPrefix(n.Subject(), "w3s.redirect.")
	if token == n.Subject() || n.RedirectURL() != "https://relay.example.com/cb/"+token {
		t.Fatalf("subject %s redirect %s", n.Subject(), n.RedirectURL())
	}

	n.handle(&nats.Msg{Subject: n.Subject(), Data: []byte("http://localhost#b64Params=e30\n")})
	n.handle(&nats.Msg{Subject: n.Subject(), Data: []byte("http://localhost#b64Params=late")})

	got, err := n.Await(ctxT(t))
	if err != nil || got != "http://localhost#b64Params=e30" {
		t.Fatalf("Await = %q, %v", got, err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
