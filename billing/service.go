package billing

import (
	"context"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/pkg/errors"
)

// Service wraps the billing and usage endpoints of the current company
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) (*Service, error) {
	if api == nil {
		return nil, errors.New("[billing NewService] api client is required")
	}
	return &Service{api: api}, nil
}

func (s *Service) Subscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := s.api.Get(ctx, apiclient.BillingSubscriptionRoute, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Invoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := s.api.Get(ctx, apiclient.BillingInvoicesRoute, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// Checkout starts a hosted checkout for a price and returns its URL
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.PriceID == "" {
		return "", errors.New("price id is required")
	}
	var out RedirectURL
	if err := s.api.Post(ctx, apiclient.BillingCheckoutRoute, req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Portal returns the self-service billing portal URL
func (s *Service) Portal(ctx context.Context) (string, error) {
	var out RedirectURL
	if err := s.api.Post(ctx, apiclient.BillingPortalRoute, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Cancel schedules cancellation at the end of the current period
func (s *Service) Cancel(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := s.api.Post(ctx, apiclient.BillingCancelRoute, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Resume(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := s.api.Post(ctx, apiclient.BillingResumeRoute, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Usage(ctx context.Context) (*UsageStats, error) {
	var stats UsageStats
	if err := s.api.Get(ctx, apiclient.UsageRoute, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
