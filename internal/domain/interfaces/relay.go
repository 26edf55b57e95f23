package interfaces

import (
	"context"

	domaintypes "w3session/internal/domain/types"
)

// Transport performs the literal network calls, all with context.
type Transport interface {
	// PostJSON sends in as a JSON body to path and decodes the response
	// into out when out is non-nil.
	PostJSON(ctx context.Context, path string, header map[string]string, in, out any) error
	// GetJSON fetches an absolute URL and decodes the JSON response into out.
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// SessionStoreClient reads and writes the untrusted remote key/blob store.
// It does not interpret payloads.
type SessionStoreClient interface {
	// Get returns the entry stored under pubKeyHex, or nil when there is
	// none. Transport failures are returned as errors.
	Get(ctx context.Context, pubKeyHex, origin string) (*domaintypes.StoreEntry, error)
	// Put writes or overwrites the entry under req.Key.
	Put(ctx context.Context, req domaintypes.SetRequest) error
}
