package session

import (
	"github.com/jrsteele09/saas-admin-client/users"
)

// State is the persisted auth-storage record
type State struct {
	AccessToken     string      `json:"accessToken,omitempty"`
	RefreshToken    string      `json:"refreshToken,omitempty"`
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// Paired reports whether the credentials are both present or both absent
func (s State) Paired() bool {
	return (s.AccessToken == "") == (s.RefreshToken == "")
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
