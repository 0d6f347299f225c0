package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/saas-admin-client/cookie"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/storage"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/token"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultStorageName = "auth-storage"

// TenantContext is notified when a session starts or ends
type TenantContext interface {
	SetCurrentCompany(company *tenants.Company)
	Clear()
}

// Store holds the current session. It is safe for concurrent use.
type Store struct {
	state       State
	lock        sync.RWMutex
	notify      sync.Mutex // orders tenant updates with their state change
	mirror      cookie.Mirror
	persister   storage.Persister
	writer      *storage.Writer
	tenant      TenantContext
	storageName string
	logger      zerolog.Logger
}

var _ oauth2.TokenSource = (*Store)(nil)

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithTenantContext sets the company context that follows the session
func WithTenantContext(tenant TenantContext) Option {
	return func(s *Store) {
		s.tenant = tenant
	}
}

// WithStorageName overrides the persisted record name (default "auth-storage")
func WithStorageName(name string) Option {
	return func(s *Store) {
		s.storageName = name
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty session store. Call Rehydrate once at startup to load
// the persisted session.
func New(persister storage.Persister, mirror cookie.Mirror, options ...Option) (*Store, error) {
	if persister == nil {
		return nil, errors.New("[session New] persister is required")
	}
	if mirror == nil {
		return nil, errors.New("[session New] cookie mirror is required")
	}

	s := &Store{
		mirror:      mirror,
		persister:   persister,
		storageName: defaultStorageName,
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	s.writer = storage.NewWriter(persister, storage.WithWriterLogger(s.logger))
	return s, nil
}

// SetAuth starts a session after login, registration or invite acceptance.
// company may be nil, in which case the tenant context is pointed at the user's
// own company.
func (s *Store) SetAuth(user *users.User, accessToken, refreshToken string, company *tenants.Company) error {
	if (accessToken == "") != (refreshToken == "") || accessToken == "" {
		return apperrors.ErrUnpairedCredentials
	}

	var copied *users.User
	if user != nil {
		u := *user
		copied = &u
	}

	s.notify.Lock()
	defer s.notify.Unlock()

	s.lock.Lock()
	s.state = State{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		User:            copied,
		IsAuthenticated: true,
	}
	s.mirror.Write(accessToken)
	s.persistLocked()
	s.lock.Unlock()

	s.logger.Debug().Str("user_id", userID(copied)).Msg("Session established")

	if s.tenant != nil {
		if company == nil && copied != nil && copied.CompanyID != "" {
			company = &tenants.Company{ID: copied.CompanyID}
		}
		if company != nil {
			s.tenant.SetCurrentCompany(company)
		}
	}
	return nil
}

// SetCredentials replaces the credential pair after a refresh. Identity is untouched.
func (s *Store) SetCredentials(accessToken, refreshToken string) error {
	if (accessToken == "") != (refreshToken == "") {
		return apperrors.ErrUnpairedCredentials
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.state.AccessToken = accessToken
	s.state.RefreshToken = refreshToken
	s.state.IsAuthenticated = accessToken != ""
	s.mirror.Write(accessToken)
	s.persistLocked()
	return nil
}

// SetIdentity replaces the user after a profile edit. Credentials and the
// cookie mirror are untouched.
func (s *Store) SetIdentity(user *users.User) {
	var copied *users.User
	if user != nil {
		u := *user
		copied = &u
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.state.User = copied
	s.persistLocked()
}

// Logout clears the session, the cookie mirror and the tenant context. It
// returns true only for the call that ended an authenticated session, so
// concurrent failure paths tear the session down exactly once.
func (s *Store) Logout() bool {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.lock.Lock()
	wasAuthenticated := s.state.IsAuthenticated || s.state.AccessToken != "" || s.state.RefreshToken != ""
	s.state = State{}
	s.mirror.Write("")
	s.persistLocked()
	s.lock.Unlock()

	if !wasAuthenticated {
		return false
	}
	s.logger.Debug().Msg("Session cleared")
	if s.tenant != nil {
		s.tenant.Clear()
	}
	return true
}

// Rehydrate loads the persisted session. The cookie mirror is not persisted, so
// it is re-derived here from the loaded access token.
func (s *Store) Rehydrate(ctx context.Context) error {
	var loaded State
	found, err := s.persister.Load(ctx, s.storageName, &loaded)
	if err != nil {
		return errors.Wrap(err, "[session Rehydrate] load")
	}
	if !found {
		return nil
	}
	if !loaded.Paired() {
		s.logger.Warn().Msg("Discarding persisted session with an unpaired credential")
		loaded = State{}
	}
	loaded.IsAuthenticated = loaded.AccessToken != ""

	s.lock.Lock()
	defer s.lock.Unlock()
	s.state = loaded
	if loaded.AccessToken != "" {
		s.mirror.Write(loaded.AccessToken)
	}
	return nil
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.clone()
}

func (s *Store) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.AccessToken
}

func (s *Store) RefreshToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.RefreshToken
}

// User returns a copy of the signed-in user, or nil
func (s *Store) User() *users.User {
	return s.Snapshot().User
}

func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.IsAuthenticated
}

// AccessTokenExpiry reads the unverified exp claim of the access token
func (s *Store) AccessTokenExpiry() (time.Time, bool) {
	info, err := token.Inspect(s.AccessToken())
	if err != nil || info.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return info.ExpiresAt, true
}

// Token implements oauth2.TokenSource over the current credential pair
func (s *Store) Token() (*oauth2.Token, error) {
	snapshot := s.Snapshot()
	if snapshot.AccessToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	tok := &oauth2.Token{
		AccessToken:  snapshot.AccessToken,
		RefreshToken: snapshot.RefreshToken,
		TokenType:    "Bearer",
	}
	if expiry, ok := s.AccessTokenExpiry(); ok {
		tok.Expiry = expiry
	}
	return tok, nil
}

// Flush waits until every change so far has been persisted
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close flushes pending writes and stops the background writer
func (s *Store) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}

func (s *Store) persistLocked() {
	if s.state.AccessToken == "" && s.state.User == nil {
		s.writer.Enqueue(s.storageName, nil)
		return
	}
	s.writer.Enqueue(s.storageName, s.state.clone())
}

func userID(u *users.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
