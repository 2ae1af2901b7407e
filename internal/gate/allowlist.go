package gate

import (
	"sort"
	"sync"
)

// AllowList owns the two allow-list sets. Every mutation applies in memory
// first and then persists; the in-memory state stays authoritative when the
// persist fails, so enforcement decisions always reflect the latest command.
// The mutex covers the set+persist pair to prevent lost updates when the
// gateway dispatches handlers concurrently; persistence here is a local file
// write, not a network round-trip, so holding the lock across it is fine.
type AllowList struct {
	mu    sync.Mutex
	users map[string]struct{}
	roles map[string]struct{}
	guard *Guard
	save  Persister
}

// NewAllowList starts from the loaded snapshot sets. Nil sets are treated
// as empty.
func NewAllowList(users, roles map[string]struct{}, guard *Guard, save Persister) *AllowList {
	if users == nil {
		users = make(map[string]struct{})
	}
	if roles == nil {
		roles = make(map[string]struct{})
	}
	return &AllowList{users: users, roles: roles, guard: guard, save: save}
}

// AddUser inserts id into the user set. Adding an existing member is a
// no-op. The returned error is the persistence outcome only.
func (a *AllowList) AddUser(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[id] = struct{}{}
	return a.save.SaveUserSet(a.users)
}

// RemoveUser deletes id from the user set; removing an absent member is a
// no-op.
func (a *AllowList) RemoveUser(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.users, id)
	return a.save.SaveUserSet(a.users)
}

func (a *AllowList) AddRole(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roles[id] = struct{}{}
	return a.save.SaveRoleSet(a.roles)
}

func (a *AllowList) RemoveRole(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.roles, id)
	return a.save.SaveRoleSet(a.roles)
}

// Allowed is the sole authority for whether an identity may be present in
// the monitored channel while enforcement is armed: operators always pass,
// then direct user membership, then any held role in the role set.
func (a *AllowList) Allowed(memberID string, roleIDs []string) bool {
	if a.guard != nil && a.guard.IsOperator(memberID) {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[memberID]; ok {
		return true
	}
	for _, rid := range roleIDs {
		if _, ok := a.roles[rid]; ok {
			return true
		}
	}
	return false
}

// Snapshot returns sorted copies of both sets for reporting.
func (a *AllowList) Snapshot() (users, roles []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	users = sortedKeys(a.users)
	roles = sortedKeys(a.roles)
	return users, roles
}

// Counts returns the set sizes without copying.
func (a *AllowList) Counts() (users, roles int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.users), len(a.roles)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
