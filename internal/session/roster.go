package session

import "sort"

// Roster maps peer identities to usernames for one race. It is built
// incrementally during registration and frozen before the race starts;
// forfeits after the lock remove entries but never reopen registration.
type Roster struct {
	users  map[string]string
	locked bool
}

// NewRoster creates an empty, unlocked roster.
func NewRoster() *Roster {
	return &Roster{users: map[string]string{}}
}

// RosterFrom creates a locked roster from a broadcast user map.
func RosterFrom(users map[string]string) *Roster {
	copied := make(map[string]string, len(users))
	for peer, user := range users {
		copied[peer] = user
	}
	return &Roster{users: copied, locked: true}
}

// Register adds a peer before the lock. It reports whether the entry was
// added; re-registration, post-lock registration, and username collisions
// are no-ops. Usernames must stay unique because race state is keyed by
// them.
func (r *Roster) Register(peerID, user string) bool {
	if r.locked {
		return false
	}
	if _, ok := r.users[peerID]; ok {
		return false
	}
	for _, taken := range r.users {
		if taken == user {
			return false
		}
	}
	r.users[peerID] = user
	return true
}

// Lock freezes the roster for the current race.
func (r *Roster) Lock() {
	r.locked = true
}

// Locked reports whether registration is closed.
func (r *Roster) Locked() bool {
	return r.locked
}

// Lookup resolves a peer identity to its username.
func (r *Roster) Lookup(peerID string) (string, bool) {
	user, ok := r.users[peerID]
	return user, ok
}

// Remove forfeits a peer, returning its username if it was present.
func (r *Roster) Remove(peerID string) (string, bool) {
	user, ok := r.users[peerID]
	if ok {
		delete(r.users, peerID)
	}
	return user, ok
}

// Len returns the number of registered peers.
func (r *Roster) Len() int {
	return len(r.users)
}

// Users returns a copy of the peer-to-username map.
func (r *Roster) Users() map[string]string {
	out := make(map[string]string, len(r.users))
	for peer, user := range r.users {
		out[peer] = user
	}
	return out
}

// Names returns the registered usernames in lexicographic order.
func (r *Roster) Names() []string {
	names := make([]string, 0, len(r.users))
	for _, user := range r.users {
		names = append(names, user)
	}
	sort.Strings(names)
	return names
}
