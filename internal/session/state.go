package session

import "github.com/dmitrijs2005/shiciyaji/internal/auth"

// State is the authentication status held by a Store.
type State int

const (
	// Unknown is the state before the initial check starts.
	Unknown State = iota
	Checking
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a point-in-time copy of the store. User is nil unless State
// is Authenticated, and is never shared with the store.
type Snapshot struct {
	State     State          `json:"state"`
	User      *auth.Identity `json:"user,omitempty"`
	IsLoading bool           `json:"isLoading"`
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == Authenticated && s.User != nil
}

func (s Snapshot) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}

// Resolved reports whether the state is final, i.e. neither Unknown nor
// Checking.
func (s Snapshot) Resolved() bool {
	return s.State == Authenticated || s.State == Anonymous
}
