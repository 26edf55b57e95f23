package types

// SetRequest is the body of a remote store write. Data is a JSON-encoded
// ShareMetadata and Signature authenticates it under Key.
type SetRequest struct {
	Key           string `json:"key" form:"key"`
	Data          string `json:"data" form:"data"`
	Signature     string `json:"signature" form:"signature"`
	Timeout       string `json:"timeout" form:"timeout"`
	AllowedOrigin string `json:"allowedOrigin,omitempty" form:"allowedOrigin"`
}

// GetRequest is the body of a remote store read.
type GetRequest struct {
	Key string `json:"key" form:"key"`
}

// StoreEntry is what the remote store returns for a key. Message is a
// JSON-encoded ShareMetadata.
type StoreEntry struct {
	Message string `json:"message"`
}

// SetResponse acknowledges a store write.
type SetResponse struct {
	Message string `json:"message,omitempty"`
}
