package apiclient

// Backend routes, relative to the API base URL
const (
	AuthLoginRoute          = "/auth/login"
	AuthRegisterRoute       = "/auth/register"
	AuthAcceptInviteRoute   = "/auth/accept-invite"
	AuthRefreshRoute        = "/auth/refresh"
	AuthLogoutRoute         = "/auth/logout"
	AuthMeRoute             = "/auth/me"
	AuthForgotPasswordRoute = "/auth/forgot-password"
	AuthResetPasswordRoute  = "/auth/reset-password"

	UsersRoute            = "/users"
	UsersMeRoute          = "/users/me"
	UserRoute             = "/users/%s"
	UserResendInviteRoute = "/users/%s/resend-invite"

	CompaniesRoute   = "/companies"
	CompaniesMeRoute = "/companies/me"
	CompanyRoute     = "/companies/%s"
	CompanyLogoRoute = "/companies/%s/logo"

	BillingSubscriptionRoute = "/billing/subscription"
	BillingInvoicesRoute     = "/billing/invoices"
	BillingCheckoutRoute     = "/billing/checkout"
	BillingPortalRoute       = "/billing/portal"
	BillingCancelRoute       = "/billing/cancel"
	BillingResumeRoute       = "/billing/resume"
	UsageRoute               = "/usage"

	FilesRoute                = "/files"
	FilesPresignedUploadRoute = "/files/presigned-upload"
	FilesConfirmRoute         = "/files/confirm"
	FileRoute                 = "/files/%s"
	FileDownloadRoute         = "/files/%s/download"

	AdminCompaniesRoute     = "/admin/companies"
	AdminCompanyRoute       = "/admin/companies/%s"
	AdminDeactivateRoute    = "/admin/companies/%s/deactivate"
	AdminReactivateRoute    = "/admin/companies/%s/reactivate"
	AdminSubscriptionsRoute = "/admin/subscriptions"
)

// Request headers
const (
	CompanyIDHeader = "X-Company-Id"
	RequestIDHeader = "X-Request-Id"
)
