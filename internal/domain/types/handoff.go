package types

// HandOff is encoded into the b64Params fragment of the URL that starts the
// external flow. LoginID is the hex private key of the ephemeral session key.
type HandOff struct {
	LoginID   string `json:"loginId"`
	SessionID string `json:"sessionId,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Request   string `json:"request,omitempty"`
}

// SessionResponse is the b64Params payload of a login callback.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
}
