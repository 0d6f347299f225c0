package fakebackend

import (
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/saas-admin-client/admin"
	"github.com/jrsteele09/saas-admin-client/billing"
	"github.com/jrsteele09/saas-admin-client/users"
)

func (b *Backend) initAdminRoutes() {
	b.handle("GET /admin/companies", b.authenticated(b.superAdmin(b.handleAdminCompanies)))
	b.handle("GET /admin/companies/{id}", b.authenticated(b.superAdmin(b.handleAdminCompany)))
	b.handle("PATCH /admin/companies/{id}/deactivate", b.authenticated(b.superAdmin(b.handleDeactivate)))
	b.handle("PATCH /admin/companies/{id}/reactivate", b.authenticated(b.superAdmin(b.handleReactivate)))
	b.handle("GET /admin/subscriptions", b.authenticated(b.superAdmin(b.handleAdminSubscriptions)))
}

func (b *Backend) superAdmin(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, p principal) {
		b.lock.Lock()
		allowed := p.account.user.IsSuperAdmin()
		b.lock.Unlock()
		if !allowed {
			b.fail(w, http.StatusForbidden, "Super admin access required")
			return
		}
		next(w, r, p)
	}
}

func (b *Backend) companyDetailsLocked(companyID string, withMembers bool) admin.CompanyDetails {
	details := admin.CompanyDetails{Company: *b.companies[companyID]}
	var members []users.User
	for _, a := range b.accounts {
		if a.user.CompanyID == companyID {
			members = append(members, a.user)
		}
	}
	slices.SortFunc(members, func(x, y users.User) int { return strings.Compare(x.Email, y.Email) })
	if withMembers {
		details.Users = members
	}
	details.Count = &admin.Counts{Users: len(members)}
	if sub, ok := b.subscriptions[companyID]; ok {
		s := *sub
		details.Subscription = &s
	}
	return details
}

func (b *Backend) handleAdminCompanies(w http.ResponseWriter, r *http.Request, p principal) {
	search := strings.ToLower(r.URL.Query().Get("search"))

	b.lock.Lock()
	defer b.lock.Unlock()

	var companies []admin.CompanyDetails
	for id, c := range b.companies {
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Slug), search) {
			continue
		}
		companies = append(companies, b.companyDetailsLocked(id, false))
	}
	slices.SortFunc(companies, func(x, y admin.CompanyDetails) int { return strings.Compare(x.Name, y.Name) })
	b.respond(w, http.StatusOK, paginate(r, companies))
}

func (b *Backend) handleAdminCompany(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	id := r.PathValue("id")
	if _, ok := b.companies[id]; !ok {
		b.fail(w, http.StatusNotFound, "Company not found")
		return
	}
	b.respond(w, http.StatusOK, b.companyDetailsLocked(id, true))
}

func (b *Backend) handleDeactivate(w http.ResponseWriter, r *http.Request, p principal) {
	b.setCompanyActive(w, r, false)
}

func (b *Backend) handleReactivate(w http.ResponseWriter, r *http.Request, p principal) {
	b.setCompanyActive(w, r, true)
}

func (b *Backend) setCompanyActive(w http.ResponseWriter, r *http.Request, active bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	company, ok := b.companies[r.PathValue("id")]
	if !ok {
		b.fail(w, http.StatusNotFound, "Company not found")
		return
	}
	if active {
		company.DeletedAt = nil
	} else {
		now := b.nowTime()
		company.DeletedAt = &now
	}
	company.UpdatedAt = b.nowTime()
	b.respond(w, http.StatusOK, b.companyDetailsLocked(company.ID, false))
}

func (b *Backend) handleAdminSubscriptions(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()

	subs := make([]billing.Subscription, 0, len(b.subscriptions))
	for _, s := range b.subscriptions {
		subs = append(subs, *s)
	}
	slices.SortFunc(subs, func(x, y billing.Subscription) int { return strings.Compare(x.CompanyID, y.CompanyID) })
	b.respond(w, http.StatusOK, paginate(r, subs))
}
