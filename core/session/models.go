package session

import (
	"github.com/trezcool/elimu/backend"
)

// Roles. A profile holds exactly one of these; access checks are pure set
// intersection with no hierarchy (admin does not imply trainer).
const (
	RoleStudent = "student"
	RoleTrainer = "trainer"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleTrainer, RoleAdmin}

func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is the stored record associated with a principal.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

var profileColumns = []string{"id", "email", "full_name", "role"}

func profileFromRow(row backend.Row) *Profile {
	return &Profile{
		ID:       row.String("id"),
		Email:    row.String("email"),
		FullName: row.String("full_name"),
		Role:     row.String("role"),
	}
}

// State is the combined session/profile/readiness snapshot consumers read on
// every render and re-evaluate on every change.
type State struct {
	Session      *backend.Session
	Profile      *Profile
	Roles        []string
	Loading      bool
	BackendReady bool
}

func (st State) Authenticated() bool { return st.Session != nil }

// HasAnyRole reports whether the state's role set intersects the given roles.
func (st State) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range st.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
