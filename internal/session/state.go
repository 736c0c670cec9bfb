package session

import "github.com/MrSnakeDoc/gitmark/internal/domain"

// State is the lifecycle state of a Holder.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// EventKind says what changed the session.
type EventKind string

const (
	EventRestored EventKind = "restored"
	EventLogin    EventKind = "login"
	EventSignup   EventKind = "signup"
	EventLogout   EventKind = "logout"
)

// Event tells dependents that the active identity changed and that any view
// derived from it must be rebuilt. Identity is nil when nobody is signed in.
type Event struct {
	Kind     EventKind
	Identity *domain.Identity
}

// Snapshot is the read-only session view handed to front ends.
type Snapshot struct {
	Identity       *domain.Identity `json:"user"`
	Authenticating bool             `json:"is_authenticating"`
	Authenticated  bool             `json:"is_authenticated"`
	State          string           `json:"state"`
}
