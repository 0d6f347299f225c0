package tenants

import "time"

// Company is a tenant of the platform. Every member, file and subscription
// belongs to exactly one company.
type Company struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	LogoURL          string     `json:"logoUrl,omitempty"`
	StripeCustomerID string     `json:"stripeCustomerId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt,omitzero"`
	UpdatedAt        time.Time  `json:"updatedAt,omitzero"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
}

// Active reports whether the company has not been deactivated
func (c *Company) Active() bool {
	return c != nil && c.DeletedAt == nil
}

// CompanyPatch holds the fields of an update; nil fields are left unchanged
type CompanyPatch struct {
	Name    *string `json:"name,omitempty"`
	LogoURL *string `json:"logo,omitempty"`
}

// Apply returns a copy of c with the patch applied
func (p CompanyPatch) Apply(c Company) Company {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.LogoURL != nil {
		c.LogoURL = *p.LogoURL
	}
	return c
}
