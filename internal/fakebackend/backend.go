// Package fakebackend is an in-memory implementation of the SaaS backend API
// for tests and local development. It issues real signed JWT access tokens,
// rotates refresh tokens and wraps responses in the backend's envelope.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/saas-admin-client/billing"
	"github.com/jrsteele09/saas-admin-client/files"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/token"
	"github.com/jrsteele09/saas-admin-client/users"
)

// BasePath is where the API is mounted
const BasePath = "/api/v1"

type account struct {
	user     users.User
	password string
}

// Backend holds all state behind one mutex, like the repo fakes it serves.
type Backend struct {
	lock sync.Mutex

	creator       *token.Creator
	accounts      map[string]*account
	companies     map[string]*tenants.Company
	subscriptions map[string]*billing.Subscription
	invoices      map[string][]billing.Invoice
	files         map[string]*files.Record
	accessTokens  map[string]string
	refreshTokens map[string]string
	invites       map[string]string
	resets        map[string]string
	apiCalls      map[string]int64

	envelope     bool
	refreshDelay time.Duration
	nowTime      func() time.Time

	refreshCalls int
	logoutCalls  int

	mux *http.ServeMux
}

// Option defines a function type to modify the Backend instance.
type Option func(*Backend)

// WithEnvelope controls whether payloads are wrapped in {data, timestamp} (default true)
func WithEnvelope(envelope bool) Option {
	return func(b *Backend) {
		b.envelope = envelope
	}
}

// WithRefreshDelay slows down the refresh endpoint so concurrent callers overlap
func WithRefreshDelay(delay time.Duration) Option {
	return func(b *Backend) {
		b.refreshDelay = delay
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(b *Backend) {
		b.nowTime = nowFunc
	}
}

func New(options ...Option) *Backend {
	b := &Backend{
		creator:       token.NewCreator(uuid.NewString(), 15*time.Minute),
		accounts:      make(map[string]*account),
		companies:     make(map[string]*tenants.Company),
		subscriptions: make(map[string]*billing.Subscription),
		invoices:      make(map[string][]billing.Invoice),
		files:         make(map[string]*files.Record),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		invites:       make(map[string]string),
		resets:        make(map[string]string),
		apiCalls:      make(map[string]int64),
		envelope:      true,
		nowTime:       time.Now,
		mux:           http.NewServeMux(),
	}
	for _, opt := range options {
		opt(b)
	}
	b.initRoutes()
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// Start serves the backend on a loopback port. The returned URL includes BasePath.
func (b *Backend) Start() (*httptest.Server, string) {
	server := httptest.NewServer(b)
	return server, server.URL + BasePath
}

func (b *Backend) handle(pattern string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	b.mux.HandleFunc(method+" "+BasePath+path, handler)
}

func (b *Backend) initRoutes() {
	b.initAuthRoutes()
	b.initUserRoutes()
	b.initCompanyRoutes()
	b.initBillingRoutes()
	b.initFileRoutes()
	b.initAdminRoutes()
}

// SeedCompany adds a company with an active subscription
func (b *Backend) SeedCompany(name string) tenants.Company {
	b.lock.Lock()
	defer b.lock.Unlock()
	return *b.createCompanyLocked(name)
}

// SeedUser adds an active, verified user
func (b *Backend) SeedUser(companyID, email, password string, role users.RoleType) users.User {
	b.lock.Lock()
	defer b.lock.Unlock()
	a := b.createAccountLocked(companyID, email, password, role)
	a.user.IsActive = true
	a.user.EmailVerified = true
	return a.user
}

// ExpireAccessTokens invalidates every issued access token, as if they had
// all reached their expiry. Refresh tokens stay valid.
func (b *Backend) ExpireAccessTokens() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.accessTokens = make(map[string]string)
}

// RevokeRefreshTokens invalidates every refresh token
func (b *Backend) RevokeRefreshTokens() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshTokens = make(map[string]string)
}

func (b *Backend) RefreshCalls() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.refreshCalls
}

func (b *Backend) LogoutCalls() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.logoutCalls
}

// InviteToken returns the pending invite token for email
func (b *Backend) InviteToken(email string) (string, bool) {
	return b.pendingToken(b.invites, email)
}

// ResetToken returns the pending password reset token for email
func (b *Backend) ResetToken(email string) (string, bool) {
	return b.pendingToken(b.resets, email)
}

func (b *Backend) pendingToken(tokens map[string]string, email string) (string, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	a := b.accountByEmailLocked(email)
	if a == nil {
		return "", false
	}
	for t, userID := range tokens {
		if userID == a.user.ID {
			return t, true
		}
	}
	return "", false
}

func (b *Backend) createCompanyLocked(name string) *tenants.Company {
	now := b.nowTime()
	company := &tenants.Company{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slugify(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.companies[company.ID] = company
	b.subscriptions[company.ID] = &billing.Subscription{
		ID:                   uuid.NewString(),
		CompanyID:            company.ID,
		PlanID:               starterPlan.ID,
		Plan:                 &starterPlan,
		StripeSubscriptionID: "sub_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Status:               billing.StatusActive,
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.AddDate(0, 1, 0),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	b.invoices[company.ID] = []billing.Invoice{{
		ID:       "in_" + company.Slug,
		Number:   fmt.Sprintf("INV-%04d", len(b.companies)),
		Status:   "paid",
		Amount:   starterPlan.Price,
		Currency: starterPlan.Currency,
		Date:     now,
		PdfURL:   "https://billing.example.test/invoices/" + company.Slug + ".pdf",
	}}
	return company
}

func (b *Backend) createAccountLocked(companyID, email, password string, role users.RoleType) *account {
	now := b.nowTime()
	a := &account{
		user: users.User{
			ID:        uuid.NewString(),
			Email:     email,
			Role:      role,
			CompanyID: companyID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: password,
	}
	b.accounts[a.user.ID] = a
	return a
}

func (b *Backend) accountByEmailLocked(email string) *account {
	for _, a := range b.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}

var starterPlan = billing.Plan{
	ID:              "plan-starter",
	Name:            "Starter",
	Slug:            "starter",
	StripePriceID:   "price_starter_month",
	StripeProductID: "prod_starter",
	Interval:        billing.IntervalMonth,
	Price:           2900,
	Currency:        "usd",
	IsActive:        true,
	Features:        []string{"5 members", "10 GB storage"},
	Limits:          map[string]int64{"users": 5, "storage": 10 << 30, "apiCalls": 100000},
}

func slugify(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// respond writes payload, wrapped in the envelope unless disabled
func (b *Backend) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if b.envelope {
		payload = map[string]any{"data": payload, "timestamp": b.nowTime().UTC().Format(time.RFC3339)}
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (b *Backend) fail(w http.ResponseWriter, status int, message any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":    message,
		"statusCode": status,
		"error":      http.StatusText(status),
	})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
