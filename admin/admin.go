// Package admin wraps the platform administration endpoints. Only super
// admins may call them; the backend answers 403 for everyone else.
package admin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/billing"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/pkg/errors"
)

// CompanyDetails is a company with its members and subscription
type CompanyDetails struct {
	tenants.Company
	Users        []users.User          `json:"users,omitempty"`
	Subscription *billing.Subscription `json:"subscription,omitempty"`
	Count        *Counts               `json:"_count,omitempty"`
}

type Counts struct {
	Users int `json:"users"`
}

// MemberCount prefers the backend's count over the embedded member list
func (c *CompanyDetails) MemberCount() int {
	if c.Count != nil {
		return c.Count.Users
	}
	return len(c.Users)
}

type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) (*Service, error) {
	if api == nil {
		return nil, errors.New("[admin NewService] api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) Companies(ctx context.Context, params apiclient.PageParams) (*apiclient.Page[CompanyDetails], error) {
	var page apiclient.Page[CompanyDetails]
	if err := s.api.Get(ctx, apiclient.AdminCompaniesRoute, &page, apiclient.WithQuery(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) Company(ctx context.Context, id string) (*CompanyDetails, error) {
	return s.companyCall(ctx, s.api.Get, apiclient.AdminCompanyRoute, id)
}

// Deactivate suspends a company; its members can no longer sign in
func (s *Service) Deactivate(ctx context.Context, id string) (*CompanyDetails, error) {
	return s.companyCall(ctx, s.patch, apiclient.AdminDeactivateRoute, id)
}

func (s *Service) Reactivate(ctx context.Context, id string) (*CompanyDetails, error) {
	return s.companyCall(ctx, s.patch, apiclient.AdminReactivateRoute, id)
}

func (s *Service) Subscriptions(ctx context.Context, params apiclient.PageParams) (*apiclient.Page[billing.Subscription], error) {
	var page apiclient.Page[billing.Subscription]
	if err := s.api.Get(ctx, apiclient.AdminSubscriptionsRoute, &page, apiclient.WithQuery(params.Values())); err != nil {
		return nil, err
	}
	return &page, nil
}

type call func(ctx context.Context, path string, out any, options ...apiclient.RequestOption) error

func (s *Service) patch(ctx context.Context, path string, out any, options ...apiclient.RequestOption) error {
	return s.api.Patch(ctx, path, nil, out, options...)
}

func (s *Service) companyCall(ctx context.Context, do call, route, id string) (*CompanyDetails, error) {
	if id == "" {
		return nil, errors.New("company id is required")
	}
	var company CompanyDetails
	if err := do(ctx, fmt.Sprintf(route, url.PathEscape(id)), &company); err != nil {
		return nil, err
	}
	return &company, nil
}
