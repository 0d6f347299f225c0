package fakebackend

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/saas-admin-client/auth"
	"github.com/jrsteele09/saas-admin-client/token"
	"github.com/jrsteele09/saas-admin-client/users"
)

func (b *Backend) initAuthRoutes() {
	b.handle("POST /auth/login", b.handleLogin)
	b.handle("POST /auth/register", b.handleRegister)
	b.handle("POST /auth/accept-invite", b.handleAcceptInvite)
	b.handle("POST /auth/refresh", b.handleRefresh)
	b.handle("POST /auth/logout", b.authenticated(b.handleLogout))
	b.handle("GET /auth/me", b.authenticated(b.handleMe))
	b.handle("POST /auth/forgot-password", b.handleForgotPassword)
	b.handle("POST /auth/reset-password", b.handleResetPassword)
}

type principal struct {
	account     *account
	accessToken string
	companyID   string
}

type authedHandler func(w http.ResponseWriter, r *http.Request, p principal)

// authenticated verifies the bearer token and resolves the company scope from
// X-Company-Id. Only super admins may act for a company other than their own.
func (b *Backend) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			b.fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if _, err := b.creator.Verify(raw); err != nil {
			b.fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		b.lock.Lock()
		userID, ok := b.accessTokens[raw]
		a := b.accounts[userID]
		var user users.User
		if a != nil {
			user = a.user
		}
		b.lock.Unlock()
		if !ok || a == nil || !user.IsActive {
			b.fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		companyID := user.CompanyID
		if requested := r.Header.Get("X-Company-Id"); requested != "" && requested != companyID {
			if !user.IsSuperAdmin() {
				b.fail(w, http.StatusForbidden, "You do not have access to this company")
				return
			}
			companyID = requested
		}
		b.lock.Lock()
		b.apiCalls[companyID]++
		b.lock.Unlock()
		next(w, r, principal{account: a, accessToken: raw, companyID: companyID})
	}
}

// issueLocked mints a fresh credential pair for a
func (b *Backend) issueLocked(a *account) (auth.Tokens, error) {
	accessToken, err := b.creator.CreateAccessToken(token.Subject{
		UserID:    a.user.ID,
		Email:     a.user.Email,
		Role:      string(a.user.Role),
		CompanyID: a.user.CompanyID,
	})
	if err != nil {
		return auth.Tokens{}, err
	}
	refreshToken := uuid.NewString()
	b.accessTokens[accessToken] = a.user.ID
	b.refreshTokens[refreshToken] = a.user.ID
	return auth.Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (b *Backend) authResponseLocked(w http.ResponseWriter, status int, a *account) {
	tokens, err := b.issueLocked(a)
	if err != nil {
		b.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := auth.AuthResponse{User: a.user, Tokens: tokens}
	if company, ok := b.companies[a.user.CompanyID]; ok {
		c := *company
		resp.Company = &c
	}
	b.respond(w, status, resp)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	a := b.accountByEmailLocked(req.Email)
	if a == nil || a.password != req.Password {
		b.fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !a.user.IsActive {
		b.fail(w, http.StatusUnauthorized, "Account is disabled")
		return
	}
	if company := b.companies[a.user.CompanyID]; company != nil && !company.Active() {
		b.fail(w, http.StatusForbidden, "Company has been deactivated")
		return
	}
	b.authResponseLocked(w, http.StatusOK, a)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	var problems []string
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "email must be an email")
	}
	if len(req.Password) < 8 {
		problems = append(problems, "password must be longer than or equal to 8 characters")
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		problems = append(problems, "companyName should not be empty")
	}
	if len(problems) > 0 {
		b.fail(w, http.StatusBadRequest, problems)
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.accountByEmailLocked(req.Email) != nil {
		b.fail(w, http.StatusConflict, "Email already registered")
		return
	}
	company := b.createCompanyLocked(req.CompanyName)
	a := b.createAccountLocked(company.ID, req.Email, req.Password, users.RoleAdmin)
	a.user.FirstName = req.FirstName
	a.user.LastName = req.LastName
	a.user.IsActive = true
	b.authResponseLocked(w, http.StatusCreated, a)
}

func (b *Backend) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req auth.AcceptInviteRequest
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	userID, ok := b.invites[req.Token]
	a := b.accounts[userID]
	if !ok || a == nil {
		b.fail(w, http.StatusBadRequest, "Invite is invalid or has expired")
		return
	}
	delete(b.invites, req.Token)
	a.password = req.Password
	a.user.FirstName = req.FirstName
	a.user.LastName = req.LastName
	a.user.IsActive = true
	a.user.EmailVerified = true
	a.user.UpdatedAt = b.nowTime()
	b.authResponseLocked(w, http.StatusOK, a)
}

// handleRefresh rotates the refresh token: the presented one is spent
func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	b.refreshCalls++
	delay := b.refreshDelay
	b.lock.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	userID, ok := b.refreshTokens[req.RefreshToken]
	a := b.accounts[userID]
	if !ok || a == nil || !a.user.IsActive {
		b.fail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(b.refreshTokens, req.RefreshToken)

	tokens, err := b.issueLocked(a)
	if err != nil {
		b.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	b.respond(w, http.StatusOK, tokens)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.logoutCalls++
	delete(b.accessTokens, p.accessToken)
	for t, userID := range b.refreshTokens {
		if userID == p.account.user.ID {
			delete(b.refreshTokens, t)
		}
	}
	b.respond(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.respond(w, http.StatusOK, p.account.user)
}

func (b *Backend) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if a := b.accountByEmailLocked(req.Email); a != nil {
		b.resets[uuid.NewString()] = a.user.ID
	}
	b.respond(w, http.StatusOK, map[string]string{"message": "If the address is registered, a reset link has been sent"})
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	userID, ok := b.resets[req.Token]
	a := b.accounts[userID]
	if !ok || a == nil {
		b.fail(w, http.StatusBadRequest, "Reset token is invalid or has expired")
		return
	}
	delete(b.resets, req.Token)
	a.password = req.Password
	a.user.UpdatedAt = b.nowTime()
	b.respond(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
