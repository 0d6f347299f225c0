package fakebackend

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/saas-admin-client/users"
)

func (b *Backend) initUserRoutes() {
	b.handle("GET /users/me", b.authenticated(b.handleMe))
	b.handle("PATCH /users/me", b.authenticated(b.handleUpdateMe))
	b.handle("DELETE /users/me", b.authenticated(b.handleDeleteMe))
	b.handle("GET /users", b.authenticated(b.handleListUsers))
	b.handle("POST /users", b.authenticated(b.admin(b.handleInviteUser)))
	b.handle("GET /users/{id}", b.authenticated(b.handleGetUser))
	b.handle("PATCH /users/{id}", b.authenticated(b.admin(b.handleUpdateUser)))
	b.handle("DELETE /users/{id}", b.authenticated(b.admin(b.handleRemoveUser)))
	b.handle("POST /users/{id}/resend-invite", b.authenticated(b.admin(b.handleResendInvite)))
}

// admin restricts a handler to company admins and super admins
func (b *Backend) admin(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, p principal) {
		b.lock.Lock()
		allowed := p.account.user.IsAdmin()
		b.lock.Unlock()
		if !allowed {
			b.fail(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		next(w, r, p)
	}
}

func (b *Backend) handleUpdateMe(w http.ResponseWriter, r *http.Request, p principal) {
	var req users.ProfileUpdate
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	u := &p.account.user
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	u.UpdatedAt = b.nowTime()
	b.respond(w, http.StatusOK, *u)
}

func (b *Backend) handleDeleteMe(w http.ResponseWriter, r *http.Request, p principal) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if p.account.password != req.Password {
		b.fail(w, http.StatusBadRequest, "Password is incorrect")
		return
	}
	b.deleteAccountLocked(p.account.user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleListUsers(w http.ResponseWriter, r *http.Request, p principal) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	role := users.RoleType(q.Get("role"))
	active, activeErr := strconv.ParseBool(q.Get("isActive"))

	b.lock.Lock()
	defer b.lock.Unlock()

	var members []users.User
	for _, a := range b.accounts {
		u := a.user
		if u.CompanyID != p.companyID {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		if activeErr == nil && u.IsActive != active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), search) {
			continue
		}
		members = append(members, u)
	}
	slices.SortFunc(members, func(x, y users.User) int { return strings.Compare(x.Email, y.Email) })
	b.respond(w, http.StatusOK, paginate(r, members))
}

// memberLocked finds a user of the principal's company
func (b *Backend) memberLocked(w http.ResponseWriter, r *http.Request, p principal) *account {
	a := b.accounts[r.PathValue("id")]
	if a == nil || a.user.CompanyID != p.companyID {
		b.fail(w, http.StatusNotFound, "User not found")
		return nil
	}
	return a
}

func (b *Backend) handleGetUser(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if a := b.memberLocked(w, r, p); a != nil {
		b.respond(w, http.StatusOK, a.user)
	}
}

func (b *Backend) handleInviteUser(w http.ResponseWriter, r *http.Request, p principal) {
	var req users.InviteRequest
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if !strings.Contains(req.Email, "@") {
		b.fail(w, http.StatusBadRequest, []string{"email must be an email"})
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if b.accountByEmailLocked(req.Email) != nil {
		b.fail(w, http.StatusConflict, "A user with this email already exists")
		return
	}
	if req.Role == users.RoleSuperAdmin {
		b.fail(w, http.StatusForbidden, "Cannot invite a super admin")
		return
	}
	a := b.createAccountLocked(p.companyID, req.Email, "", req.Role)
	a.user.FirstName = req.FirstName
	a.user.LastName = req.LastName
	b.invites[uuid.NewString()] = a.user.ID
	b.respond(w, http.StatusCreated, a.user)
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request, p principal) {
	var req users.UpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	a := b.memberLocked(w, r, p)
	if a == nil {
		return
	}
	if req.FirstName != nil {
		a.user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		a.user.LastName = *req.LastName
	}
	if req.Role != nil {
		a.user.Role = *req.Role
	}
	if req.IsActive != nil {
		a.user.IsActive = *req.IsActive
	}
	a.user.UpdatedAt = b.nowTime()
	b.respond(w, http.StatusOK, a.user)
}

func (b *Backend) handleRemoveUser(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	a := b.memberLocked(w, r, p)
	if a == nil {
		return
	}
	if a.user.ID == p.account.user.ID {
		b.fail(w, http.StatusBadRequest, "You cannot remove yourself")
		return
	}
	b.deleteAccountLocked(a.user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleResendInvite(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	a := b.memberLocked(w, r, p)
	if a == nil {
		return
	}
	if a.user.IsActive {
		b.fail(w, http.StatusBadRequest, "User has already accepted the invite")
		return
	}
	for t, userID := range b.invites {
		if userID == a.user.ID {
			delete(b.invites, t)
		}
	}
	b.invites[uuid.NewString()] = a.user.ID
	b.respond(w, http.StatusOK, map[string]string{"message": "Invite sent"})
}

func (b *Backend) deleteAccountLocked(userID string) {
	delete(b.accounts, userID)
	for _, tokens := range []map[string]string{b.accessTokens, b.refreshTokens, b.invites, b.resets} {
		for t, id := range tokens {
			if id == userID {
				delete(tokens, t)
			}
		}
	}
}
