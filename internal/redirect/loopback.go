package redirect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// completePage runs in the browser at /complete/. The fragment never reaches
// the server, so the page sends it back to /auth/ as a query parameter.
const completePage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width">
  <title>Sign-in</title>
</head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;height:100vh;margin:0">
  <div id="msg">Completing sign-in...</div>
  <script>
    var code = window.location.hash.slice(1);
    fetch("/auth/?code=" + encodeURIComponent(code)).then(function () {
      document.getElementById("msg").textContent = code.trim() === ""
        ? "Authentication failed. Please try again."
        : "Authenticated successfully. You can close this window now.";
    }).catch(function () {
      document.getElementById("msg").textContent = "Authentication failed. Please try again.";
    });
  </script>
</body>
</html>
`

// Loopback listens on a local port for the browser redirect. The remote flow
// is sent to RedirectURL; the page served there forwards the fragment to
// /auth/, which delivers "http://localhost#<fragment>".
type Loopback struct {
	srv  *http.Server
	base string
	slot *slot
	log  zerolog.Logger
}

// NewLoopback starts listening on addr ("127.0.0.1:0" picks a free port).
func NewLoopback(addr string, log zerolog.Logger) (*Loopback, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("loopback listen: %w", err)
	}
	l := &Loopback{
		base: "http://" + ln.Addr().String(),
		slot: newSlot(),
		log:  log.With().Str("component", "loopback").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/complete/", l.handleComplete)
	mux.HandleFunc("/auth/", l.handleAuth)
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error().Err(err).Msg("loopback server stopped")
		}
	}()
	l.log.Debug().Str("addr", l.base).Msg("listening for redirect")
	return l, nil
}

// RedirectURL is where the remote flow sends the browser.
func (l *Loopback) RedirectURL() string { return l.base + "/complete/" }

// Origin is the origin the browser page runs under.
func (l *Loopback) Origin() string { return l.base }

func (l *Loopback) handleComplete(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(completePage))
}

func (l *Loopback) handleAuth(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))

	u := "http://localhost"
	if code != "" {
		u += "#" + code
	}
	if !l.slot.deliver(u) {
		l.log.Debug().Msg("redirect already delivered, ignoring")
	}
}

// Await blocks until the browser reaches /auth/.
func (l *Loopback) Await(ctx context.Context) (string, error) { return l.slot.await(ctx) }

// Close stops the listener.
func (l *Loopback) Close() error {
	l.slot.close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}

var _ Channel = (*Loopback)(nil)
