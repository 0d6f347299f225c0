package tenants

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/internal/utils"
	"github.com/pkg/errors"
)

// Service wraps the company endpoints and keeps the company context current
type Service struct {
	api     apiclient.Requester
	current *Context
}

func NewService(api apiclient.Requester, companyContext *Context) (*Service, error) {
	if api == nil {
		return nil, errors.New("[tenants NewService] api client is required")
	}
	if companyContext == nil {
		return nil, errors.New("[tenants NewService] company context is required")
	}
	return &Service{api: api, current: companyContext}, nil
}

// Current fetches the user's company and makes it the current company
func (s *Service) Current(ctx context.Context) (*Company, error) {
	var company Company
	if err := s.api.Get(ctx, apiclient.CompaniesMeRoute, &company); err != nil {
		return nil, err
	}
	s.current.SetCurrentCompany(&company)
	return &company, nil
}

func (s *Service) List(ctx context.Context) ([]Company, error) {
	var companies []Company
	if err := s.api.Get(ctx, apiclient.CompaniesRoute, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Switch makes another company current. Subsequent requests are scoped to it.
func (s *Service) Switch(company Company) {
	s.current.SetCurrentCompany(&company)
}

func (s *Service) Update(ctx context.Context, id string, patch CompanyPatch) (*Company, error) {
	var company Company
	if err := s.api.Patch(ctx, companyPath(id), patch, &company); err != nil {
		return nil, err
	}
	if id == s.current.CurrentCompanyID() {
		s.current.UpdateCurrentCompany(CompanyPatch{Name: utils.Ptr(company.Name), LogoURL: utils.Ptr(company.LogoURL)})
	}
	return &company, nil
}

// UploadLogo replaces the company logo and returns its URL
func (s *Service) UploadLogo(ctx context.Context, id, fileName string, content io.Reader) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := s.api.PostMultipart(ctx, fmt.Sprintf(apiclient.CompanyLogoRoute, url.PathEscape(id)), nil,
		apiclient.FilePart{Field: "logo", FileName: fileName, Content: content}, &out)
	if err != nil {
		return "", err
	}
	if id == s.current.CurrentCompanyID() {
		s.current.UpdateCurrentCompany(CompanyPatch{LogoURL: utils.Ptr(out.URL)})
	}
	return out.URL, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, companyPath(id), nil, nil); err != nil {
		return err
	}
	if id == s.current.CurrentCompanyID() {
		s.current.Clear()
	}
	return nil
}

func companyPath(id string) string {
	return fmt.Sprintf(apiclient.CompanyRoute, url.PathEscape(id))
}
