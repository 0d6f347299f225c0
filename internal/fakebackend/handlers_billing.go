package fakebackend

import (
	"net/http"

	"github.com/jrsteele09/saas-admin-client/billing"
)

func (b *Backend) initBillingRoutes() {
	b.handle("GET /billing/subscription", b.authenticated(b.handleSubscription))
	b.handle("GET /billing/invoices", b.authenticated(b.handleInvoices))
	b.handle("POST /billing/checkout", b.authenticated(b.admin(b.handleCheckout)))
	b.handle("POST /billing/portal", b.authenticated(b.admin(b.handlePortal)))
	b.handle("POST /billing/cancel", b.authenticated(b.admin(b.handleCancel)))
	b.handle("POST /billing/resume", b.authenticated(b.admin(b.handleResume)))
	b.handle("GET /usage", b.authenticated(b.handleUsage))
}

func (b *Backend) subscriptionLocked(w http.ResponseWriter, p principal) *billing.Subscription {
	sub, ok := b.subscriptions[p.companyID]
	if !ok {
		b.fail(w, http.StatusNotFound, "No subscription found")
		return nil
	}
	return sub
}

func (b *Backend) handleSubscription(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if sub := b.subscriptionLocked(w, p); sub != nil {
		b.respond(w, http.StatusOK, sub)
	}
}

func (b *Backend) handleInvoices(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	invoices := b.invoices[p.companyID]
	if invoices == nil {
		invoices = []billing.Invoice{}
	}
	b.respond(w, http.StatusOK, invoices)
}

func (b *Backend) handleCheckout(w http.ResponseWriter, r *http.Request, p principal) {
	var req billing.CheckoutRequest
	if err := decodeBody(r, &req); err != nil || req.PriceID == "" {
		b.fail(w, http.StatusBadRequest, []string{"priceId should not be empty"})
		return
	}
	b.respond(w, http.StatusCreated, billing.RedirectURL{URL: "https://checkout.example.test/session/" + req.PriceID})
}

func (b *Backend) handlePortal(w http.ResponseWriter, r *http.Request, p principal) {
	b.respond(w, http.StatusCreated, billing.RedirectURL{URL: "https://billing.example.test/portal/" + p.companyID})
}

func (b *Backend) handleCancel(w http.ResponseWriter, r *http.Request, p principal) {
	b.setCancelAtPeriodEnd(w, p, true)
}

func (b *Backend) handleResume(w http.ResponseWriter, r *http.Request, p principal) {
	b.setCancelAtPeriodEnd(w, p, false)
}

func (b *Backend) setCancelAtPeriodEnd(w http.ResponseWriter, p principal, cancel bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	sub := b.subscriptionLocked(w, p)
	if sub == nil {
		return
	}
	now := b.nowTime()
	sub.CancelAtPeriodEnd = cancel
	sub.CanceledAt = nil
	if cancel {
		sub.CanceledAt = &now
	}
	sub.UpdatedAt = now
	b.respond(w, http.StatusCreated, sub)
}

func (b *Backend) handleUsage(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()

	stats := billing.UsageStats{}
	if sub, ok := b.subscriptions[p.companyID]; ok {
		if sub.Plan != nil {
			stats.Users.Limit = sub.Plan.Limits["users"]
			stats.Storage.Limit = sub.Plan.Limits["storage"]
			stats.APICalls.Limit = sub.Plan.Limits["apiCalls"]
		}
		stats.Period = billing.Period{Start: sub.CurrentPeriodStart, End: sub.CurrentPeriodEnd}
	}
	for _, a := range b.accounts {
		if a.user.CompanyID == p.companyID {
			stats.Users.Used++
		}
	}
	for _, f := range b.files {
		if f.CompanyID == p.companyID {
			stats.Storage.Used += f.Size
		}
	}
	stats.APICalls.Used = b.apiCalls[p.companyID]
	b.respond(w, http.StatusOK, stats)
}
