package auth

import "errors"

var (
	EmailRequiredErr       = errors.New("email is required")
	InvalidEmailErr        = errors.New("invalid email format")
	PasswordRequiredErr    = errors.New("password is required")
	NameRequiredErr        = errors.New("first and last name are required")
	CompanyNameRequiredErr = errors.New("company name is required")
	TokenRequiredErr       = errors.New("token is required")
	WeakPasswordErr        = errors.New("password is too weak")
)
