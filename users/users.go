package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// RoleType is the user's role inside its company, or platform-wide for super admins
type RoleType string

const (
	RoleSuperAdmin RoleType = "SUPER_ADMIN" // Can manage all companies and subscriptions
	RoleAdmin      RoleType = "ADMIN"       // Can manage members and billing within a company
	RoleMember     RoleType = "MEMBER"      // Regular member of a company
)

// User is the authenticated principal as returned by the backend
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Avatar        string    `json:"avatar,omitempty"`
	Role          RoleType  `json:"role"`
	CompanyID     string    `json:"companyId"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// DisplayName returns "First Last", falling back to the email address
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsSuperAdmin returns true if the user has platform-wide privileges
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// IsAdmin returns true for company admins and super admins
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleSuperAdmin)
}

// CanManageMembers reports whether the user may invite, edit or remove members of companyID.
// The backend enforces this again; the client only uses it to hide actions.
func (u *User) CanManageMembers(companyID string) bool {
	if u.IsSuperAdmin() {
		return true
	}
	return u.IsAdmin() && u.CompanyID == companyID
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
