package billing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type PlanInterval string

const (
	IntervalMonth PlanInterval = "MONTH"
	IntervalYear  PlanInterval = "YEAR"
)

// Plan is a purchasable price. Price is in minor units (cents).
type Plan struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	StripePriceID   string           `json:"stripePriceId"`
	StripeProductID string           `json:"stripeProductId"`
	Interval        PlanInterval     `json:"interval"`
	Price           int64            `json:"price"`
	Currency        string           `json:"currency"`
	IsActive        bool             `json:"isActive"`
	Features        []string         `json:"features"`
	Limits          map[string]int64 `json:"limits"`
	CreatedAt       time.Time        `json:"createdAt,omitzero"`
	UpdatedAt       time.Time        `json:"updatedAt,omitzero"`
}

type SubscriptionStatus string

const (
	StatusActive     SubscriptionStatus = "ACTIVE"
	StatusPastDue    SubscriptionStatus = "PAST_DUE"
	StatusCanceled   SubscriptionStatus = "CANCELED"
	StatusTrialing   SubscriptionStatus = "TRIALING"
	StatusIncomplete SubscriptionStatus = "INCOMPLETE"
	StatusUnpaid     SubscriptionStatus = "UNPAID"
)

type Subscription struct {
	ID                   string             `json:"id"`
	CompanyID            string             `json:"companyId"`
	PlanID               string             `json:"planId"`
	Plan                 *Plan              `json:"plan,omitempty"`
	StripeSubscriptionID string             `json:"stripeSubscriptionId"`
	Status               SubscriptionStatus `json:"status"`
	CurrentPeriodStart   time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time          `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool               `json:"cancelAtPeriodEnd"`
	CanceledAt           *time.Time         `json:"canceledAt,omitempty"`
	TrialStart           *time.Time         `json:"trialStart,omitempty"`
	TrialEnd             *time.Time         `json:"trialEnd,omitempty"`
	CreatedAt            time.Time          `json:"createdAt,omitzero"`
	UpdatedAt            time.Time          `json:"updatedAt,omitzero"`
}

// Entitled reports whether the subscription currently grants access
func (s *Subscription) Entitled() bool {
	return s != nil && (s.Status == StatusActive || s.Status == StatusTrialing)
}

// Invoice as listed on the billing page
type Invoice struct {
	ID       string    `json:"id"`
	Number   string    `json:"number"`
	Status   string    `json:"status"`
	Amount   int64     `json:"amount"`
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`
	PdfURL   string    `json:"pdfUrl"`
}

type CheckoutRequest struct {
	PriceID    string `json:"priceId"`
	SuccessURL string `json:"successUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

// RedirectURL is a hosted checkout or billing portal page
type RedirectURL struct {
	URL string `json:"url"`
}

type Quota struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// Percent of the limit used, capped at 100. A zero limit means unlimited.
func (q Quota) Percent() int {
	if q.Limit <= 0 {
		return 0
	}
	return int(math.Min(100, math.Round(float64(q.Used)*100/float64(q.Limit))))
}

func (q Quota) Exceeded() bool {
	return q.Limit > 0 && q.Used >= q.Limit
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UsageStats is the company's consumption against its plan limits
type UsageStats struct {
	Users    Quota  `json:"users"`
	Storage  Quota  `json:"storage"`
	APICalls Quota  `json:"apiCalls"`
	Period   Period `json:"period"`
}

// FormatAmount renders minor units as "12.50 USD"
func FormatAmount(amount int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, strings.ToUpper(currency))
}
