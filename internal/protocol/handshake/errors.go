package handshake

import "errors"

var (
	ErrStoreWriteFailed = errors.New("session store write failed")
	ErrStoreReadFailed  = errors.New("session store read failed")
	// ErrSessionNotFound means there is no local session key or the store
	// holds nothing usable for it. The caller must log in again.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserCancelled means the redirect carried no fragment.
	ErrUserCancelled = errors.New("user cancelled")
	// ErrBusy is returned when a begin races an in-flight transition.
	ErrBusy = errors.New("handshake busy")
	// ErrUnexpectedRedirect is returned when no hand-off is pending.
	ErrUnexpectedRedirect = errors.New("no hand-off is awaiting a redirect")
	// ErrAbandoned completes a pending hand-off superseded by a newer one.
	ErrAbandoned = errors.New("hand-off abandoned")
	// ErrMalformedParams means the b64Params value could not be decoded.
	ErrMalformedParams = errors.New("malformed b64Params")
	// ErrMalformedPayload means an authenticated payload was not the
	// expected JSON document.
	ErrMalformedPayload = errors.New("malformed session payload")
)

// RemoteError is an error reported by the remote party, message verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return "remote error: " + e.Message }
