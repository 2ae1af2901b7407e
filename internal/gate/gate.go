// Package gate holds the access-control state for the monitored voice
// channel: the mutable allow-list of users and roles, the enforcement flag
// that arms automatic eviction, and the operator guard for privileged
// commands. All state lives in memory and is mirrored write-through into a
// Persister; persistence failures never roll back an in-memory mutation.
package gate

// Kind discriminates allow-list targets. A role target authorizes every
// current and future holder of the role; a user target authorizes exactly
// one identity.
type Kind int

const (
	TargetUser Kind = iota
	TargetRole
)

// Target is a tagged user-or-role identity handed to the permission
// synchronizer when a single allow-list entry changes.
type Target struct {
	Kind Kind
	ID   string
}

func User(id string) Target { return Target{Kind: TargetUser, ID: id} }
func Role(id string) Target { return Target{Kind: TargetRole, ID: id} }

// Persister is the durable mirror of the gate state. *store.Store is the
// production implementation.
type Persister interface {
	SaveUserSet(map[string]struct{}) error
	SaveRoleSet(map[string]struct{}) error
	SaveLockFlag(bool) error
}
