package auth

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/jrsteele09/saas-admin-client/users"
)

// Validator checks auth forms before they are sent, so obvious mistakes are
// reported without a round trip. The backend validates again.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return PasswordRequiredErr
	}
	return nil
}

func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return EmailRequiredErr
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return InvalidEmailErr
	}
	return nil
}

// ValidateRegistration validates the sign-up form, including password strength
func (v *Validator) ValidateRegistration(req RegisterRequest) error {
	if err := v.ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := v.validateNames(req.FirstName, req.LastName); err != nil {
		return err
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return CompanyNameRequiredErr
	}
	return v.ValidateNewPassword(req.Password)
}

func (v *Validator) ValidateAcceptInvite(req AcceptInviteRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return TokenRequiredErr
	}
	if err := v.validateNames(req.FirstName, req.LastName); err != nil {
		return err
	}
	return v.ValidateNewPassword(req.Password)
}

func (v *Validator) ValidateResetPassword(req ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return TokenRequiredErr
	}
	return v.ValidateNewPassword(req.Password)
}

// ValidateNewPassword applies the strength rules to a password being set
func (v *Validator) ValidateNewPassword(password string) error {
	if password == "" {
		return PasswordRequiredErr
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("%w: %w", WeakPasswordErr, err)
	}
	return nil
}

func (v *Validator) validateNames(firstName, lastName string) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return NameRequiredErr
	}
	return nil
}
