package fakebackend

import (
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/saas-admin-client/tenants"
)

const maxUploadBytes = 8 << 20

func (b *Backend) initCompanyRoutes() {
	b.handle("GET /companies/me", b.authenticated(b.handleCurrentCompany))
	b.handle("GET /companies", b.authenticated(b.handleListCompanies))
	b.handle("PATCH /companies/{id}", b.authenticated(b.admin(b.handleUpdateCompany)))
	b.handle("DELETE /companies/{id}", b.authenticated(b.admin(b.handleDeleteCompany)))
	b.handle("POST /companies/{id}/logo", b.authenticated(b.admin(b.handleUploadLogo)))
}

func (b *Backend) handleCurrentCompany(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	company, ok := b.companies[p.companyID]
	if !ok {
		b.fail(w, http.StatusNotFound, "Company not found")
		return
	}
	b.respond(w, http.StatusOK, company)
}

func (b *Backend) handleListCompanies(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()

	var companies []tenants.Company
	for _, c := range b.companies {
		if p.account.user.IsSuperAdmin() || c.ID == p.account.user.CompanyID {
			companies = append(companies, *c)
		}
	}
	slices.SortFunc(companies, func(x, y tenants.Company) int { return strings.Compare(x.Name, y.Name) })
	b.respond(w, http.StatusOK, companies)
}

// ownCompanyLocked finds the company named in the path, if the principal may manage it
func (b *Backend) ownCompanyLocked(w http.ResponseWriter, r *http.Request, p principal) *tenants.Company {
	company, ok := b.companies[r.PathValue("id")]
	if !ok || (company.ID != p.companyID && !p.account.user.IsSuperAdmin()) {
		b.fail(w, http.StatusNotFound, "Company not found")
		return nil
	}
	return company
}

func (b *Backend) handleUpdateCompany(w http.ResponseWriter, r *http.Request, p principal) {
	var patch tenants.CompanyPatch
	if err := decodeBody(r, &patch); err != nil {
		b.fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		b.fail(w, http.StatusBadRequest, []string{"name should not be empty"})
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	company := b.ownCompanyLocked(w, r, p)
	if company == nil {
		return
	}
	*company = patch.Apply(*company)
	company.UpdatedAt = b.nowTime()
	b.respond(w, http.StatusOK, company)
}

func (b *Backend) handleDeleteCompany(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	company := b.ownCompanyLocked(w, r, p)
	if company == nil {
		return
	}
	now := b.nowTime()
	company.DeletedAt = &now
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleUploadLogo(w http.ResponseWriter, r *http.Request, p principal) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		b.fail(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		b.fail(w, http.StatusBadRequest, "logo file is required")
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)

	b.lock.Lock()
	defer b.lock.Unlock()
	company := b.ownCompanyLocked(w, r, p)
	if company == nil {
		return
	}
	company.LogoURL = "https://cdn.example.test/logos/" + company.ID + "/" + header.Filename
	company.UpdatedAt = b.nowTime()
	b.respond(w, http.StatusCreated, map[string]string{"url": company.LogoURL})
}
