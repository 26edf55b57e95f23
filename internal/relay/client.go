package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"w3session/internal/domain"
)

const (
	// DefaultTTL is used when the caller asks for no particular lifetime.
	DefaultTTL = 600
	// MaxTTL caps every store write at 30 days.
	MaxTTL = 30 * 24 * 60 * 60

	// DefaultStoreURL is the production session store.
	DefaultStoreURL = "https://session.web3auth.io/v2"

	pathSet = "/store/set"
	pathGet = "/store/get"
)

// ClampTTL returns the lifetime actually requested from the store.
func ClampTTL(seconds int64) int64 {
	if seconds <= 0 {
		return DefaultTTL
	}
	if seconds > MaxTTL {
		return MaxTTL
	}
	return seconds
}

// FormatTTL renders seconds the way the store expects its timeout field.
func FormatTTL(seconds int64) string { return strconv.FormatInt(seconds, 10) }

// Client is the SessionStoreClient over a Transport. It moves opaque blobs
// and never looks inside them.
type Client struct {
	t domain.Transport
}

func NewClient(t domain.Transport) *Client { return &Client{t: t} }

// Get fetches the entry stored under pubKeyHex. A 404 or an empty message
// means there is no entry and yields (nil, nil).
func (c *Client) Get(ctx context.Context, pubKeyHex, origin string) (*domain.StoreEntry, error) {
	header := map[string]string{}
	if origin != "" {
		header["origin"] = origin
	}
	var out domain.StoreEntry
	err := c.t.PostJSON(ctx, pathGet, header, domain.GetRequest{Key: pubKeyHex}, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store get: %w", err)
	}
	if out.Message == "" {
		return nil, nil
	}
	return &out, nil
}

// Put writes req. The signature inside req is what authorizes the write.
func (c *Client) Put(ctx context.Context, req domain.SetRequest) error {
	if err := c.t.PostJSON(ctx, pathSet, nil, req, nil); err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	return nil
}

var _ domain.SessionStoreClient = (*Client)(nil)
