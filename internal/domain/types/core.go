package types

// Names under which the local key store keeps session state. Recovery shares
// are stored under the verifier name itself.
const (
	KeySessionID   = "sessionId"
	KeyRedirectURL = "redirectUrl"
)

// PlatformTag identifies this SDK in hand-off references for non-login
// actions.
const PlatformTag = "go"
