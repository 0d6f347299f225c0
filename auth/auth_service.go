package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is the session store the auth flows start and end
type Session interface {
	SetAuth(user *users.User, accessToken, refreshToken string, company *tenants.Company) error
	SetIdentity(user *users.User)
	Logout() bool
	IsAuthenticated() bool
}

// Service runs the sign-in, sign-up and sign-out flows against the backend and
// records their outcome in the session.
type Service struct {
	api       apiclient.Requester
	session   Session
	validator *Validator
	logger    zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(api apiclient.Requester, session Session, options ...ServiceOption) (*Service, error) {
	if api == nil {
		return nil, errors.New("[auth NewService] api client is required")
	}
	if session == nil {
		return nil, errors.New("[auth NewService] session is required")
	}

	s := &Service{
		api:       api,
		session:   session,
		validator: NewValidator(),
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login exchanges email and password for a session
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	if err := s.validator.ValidateUserCredentials(email, password); err != nil {
		return nil, err
	}
	return s.signIn(ctx, apiclient.AuthLoginRoute, LoginRequest{Email: email, Password: password})
}

// Register creates a company with its first admin and signs them in
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.ValidateRegistration(req); err != nil {
		return nil, err
	}
	return s.signIn(ctx, apiclient.AuthRegisterRoute, req)
}

// AcceptInvite completes an invited member's sign-up and signs them in
func (s *Service) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (*AuthResponse, error) {
	if err := s.validator.ValidateAcceptInvite(req); err != nil {
		return nil, err
	}
	return s.signIn(ctx, apiclient.AuthAcceptInviteRoute, req)
}

func (s *Service) signIn(ctx context.Context, route string, body any) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.api.Anonymous(ctx, http.MethodPost, route, body, &resp); err != nil {
		return nil, err
	}
	if err := s.session.SetAuth(&resp.User, resp.Tokens.AccessToken, resp.Tokens.RefreshToken, resp.Company); err != nil {
		return nil, errors.Wrapf(err, "[auth] %s returned an unusable credential", route)
	}
	s.logger.Info().Str("user_id", resp.User.ID).Str("route", route).Msg("Signed in")
	return &resp, nil
}

// Logout tells the backend to revoke the session, then clears it locally. The
// local teardown happens even when the backend cannot be reached.
func (s *Service) Logout(ctx context.Context) {
	if s.session.IsAuthenticated() {
		if err := s.api.Post(ctx, apiclient.AuthLogoutRoute, nil, nil); err != nil {
			s.logger.Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}
	s.session.Logout()
}

// Me reloads the signed-in user and updates the session identity
func (s *Service) Me(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := s.api.Get(ctx, apiclient.AuthMeRoute, &user); err != nil {
		return nil, err
	}
	s.session.SetIdentity(&user)
	return &user, nil
}

// ForgotPassword requests a reset email. The backend answers the same way
// whether or not the address is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if err := s.validator.ValidateEmail(email); err != nil {
		return err
	}
	return s.api.Anonymous(ctx, http.MethodPost, apiclient.AuthForgotPasswordRoute, map[string]string{"email": email}, nil)
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := s.validator.ValidateResetPassword(req); err != nil {
		return err
	}
	return s.api.Anonymous(ctx, http.MethodPost, apiclient.AuthResetPasswordRoute, req, nil)
}
