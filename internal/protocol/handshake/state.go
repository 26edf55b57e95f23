package handshake

// State is the position of a Handshake in its lifecycle.
type State int32

const (
	Idle State = iota
	Creating
	AwaitingRedirect
	Resuming
	Authorizing
	Established
	Failed
	LoggedOut
)

var stateNames = [...]string{
	Idle:             "idle",
	Creating:         "creating",
	AwaitingRedirect: "awaiting_redirect",
	Resuming:         "resuming",
	Authorizing:      "authorizing",
	Established:      "established",
	Failed:           "failed",
	LoggedOut:        "logged_out",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// busy reports whether a transition is in flight.
func (s State) busy() bool {
	return s == Creating || s == Resuming || s == Authorizing
}

// OutcomeKind says which event a completed hand-off produced.
type OutcomeKind int

const (
	// Login carries an established session.
	Login OutcomeKind = iota + 1
	// MFASetup carries the session returned after enabling MFA.
	MFASetup
	// ActionResult carries the raw result of a wallet request.
	ActionResult
	// Logout means the remote party returned no usable key material.
	Logout
)

func (k OutcomeKind) String() string {
	switch k {
	case Login:
		return "login"
	case MFASetup:
		return "mfa_setup"
	case ActionResult:
		return "action_result"
	case Logout:
		return "logout"
	default:
		return "none"
	}
}
