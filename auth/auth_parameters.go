package auth

import (
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/users"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName"`
}

// AcceptInviteRequest completes the sign-up of an invited member
type AcceptInviteRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Tokens is the credential pair issued at sign-in
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by login, register and accept-invite
type AuthResponse struct {
	User    users.User       `json:"user"`
	Tokens  Tokens           `json:"tokens"`
	Company *tenants.Company `json:"company,omitempty"`
}
