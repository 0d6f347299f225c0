package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/billing"
	"github.com/jrsteele09/saas-admin-client/files"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":               {summary: "sign in with email and password", run: loginCommand},
	"logout":              {summary: "end the session", run: logoutCommand},
	"whoami":              {summary: "show the signed-in user", run: whoamiCommand},
	"companies":           {summary: "list companies, or --switch to another", run: companiesCommand},
	"members":             {summary: "list members of the current company", run: membersCommand},
	"subscription":        {summary: "show the current subscription", run: subscriptionCommand},
	"invoices":            {summary: "list invoices", run: invoicesCommand},
	"usage":               {summary: "show usage against plan limits", run: usageCommand},
	"files":               {summary: "list stored files", run: filesCommand},
	"dashboard":           {summary: "summarise subscription, usage, members and files", run: dashboardCommand},
	"admin-companies":     {summary: "list all companies (super admin)", run: adminCompaniesCommand},
	"admin-subscriptions": {summary: "list all subscriptions (super admin)", run: adminSubscriptionsCommand},
	"guard":               {summary: "evaluate a path against the route guard", run: guardCommand},
}

func commandFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

// pageFlags registers the common list flags on flagSet
func pageFlags(flagSet *pflag.FlagSet) *apiclient.PageParams {
	params := &apiclient.PageParams{}
	flagSet.IntVar(&params.Page, "page", 0, "page number")
	flagSet.IntVar(&params.Limit, "limit", 0, "page size")
	flagSet.StringVar(&params.Search, "search", "", "search text")
	return params
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *app) requireSession() error {
	if !a.store.IsAuthenticated() {
		return fmt.Errorf("%w: run saasctl login first", apperrors.ErrNotAuthenticated)
	}
	return nil
}

func printMessages(a *app, err error, fallback string) error {
	for _, msg := range apiclient.Messages(err, fallback) {
		fmt.Fprintf(a.out, "error: %s\n", msg)
	}
	return err
}

func loginCommand(ctx context.Context, a *app, args []string) error {
	flagSet := commandFlags("login")
	email := flagSet.String("email", "", "account email")
	password := flagSet.String("password", "", "account password (default $SAAS_PASSWORD)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("SAAS_PASSWORD")
	}

	resp, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return printMessages(a, err, "Login failed. Please try again.")
	}
	company := resp.User.CompanyID
	if resp.Company != nil {
		company = resp.Company.Name
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s) at %s\n", resp.User.DisplayName(), resp.User.Role, company)
	return nil
}

func logoutCommand(ctx context.Context, a *app, _ []string) error {
	a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func whoamiCommand(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	user, err := a.auth.Me(ctx)
	if err != nil {
		return printMessages(a, err, "Could not load your profile.")
	}

	w := a.table()
	fmt.Fprintf(w, "Name:\t%s\n", user.DisplayName())
	fmt.Fprintf(w, "Email:\t%s\n", user.Email)
	fmt.Fprintf(w, "Role:\t%s\n", user.Role)
	fmt.Fprintf(w, "Company:\t%s\n", a.tenant.CurrentCompanyID())
	tok, err := oauth2.ReuseTokenSource(nil, a.store).Token()
	if err != nil {
		return err
	}
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(w, "Token expires:\t%s\n", tok.Expiry.Format(time.RFC3339))
	}
	return w.Flush()
}

func companiesCommand(ctx context.Context, a *app, args []string) error {
	flagSet := commandFlags("companies")
	switchTo := flagSet.String("switch", "", "make the company with this id current")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	companies, err := a.tenants.List(ctx)
	if err != nil {
		return printMessages(a, err, "Could not load companies.")
	}
	if *switchTo != "" {
		for _, c := range companies {
			if c.ID == *switchTo {
				a.tenants.Switch(c)
				fmt.Fprintf(a.out, "Switched to %s\n", c.Name)
				return nil
			}
		}
		return fmt.Errorf("%w: company %s", apperrors.ErrNotFound, *switchTo)
	}

	current := a.tenant.CurrentCompanyID()
	w := a.table()
	fmt.Fprintln(w, "\tID\tNAME\tSLUG")
	for _, c := range companies {
		marker := ""
		if c.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, c.ID, c.Name, c.Slug)
	}
	return w.Flush()
}

func membersCommand(ctx context.Context, a *app, args []string) error {
	flagSet := commandFlags("members")
	params := pageFlags(flagSet)
	role := flagSet.String("role", "", "filter by role")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	page, err := a.users.List(ctx, users.ListParams{PageParams: *params, Role: users.RoleType(*role)})
	if err != nil {
		return printMessages(a, err, "Could not load members.")
	}
	w := a.table()
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE")
	for _, u := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.Email, u.DisplayName(), u.Role, u.IsActive)
	}
	fmt.Fprintf(w, "\npage %d of %d (%d members)\n", page.Page, page.TotalPages, page.Total)
	return w.Flush()
}

func subscriptionCommand(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	sub, err := a.billing.Subscription(ctx)
	if err != nil {
		return printMessages(a, err, "Could not load the subscription.")
	}
	printSubscription(a, sub)
	return nil
}

func printSubscription(a *app, sub *billing.Subscription) {
	plan := sub.PlanID
	price := ""
	if sub.Plan != nil {
		plan = sub.Plan.Name
		price = billing.FormatAmount(sub.Plan.Price, sub.Plan.Currency) + "/" + string(sub.Plan.Interval)
	}
	fmt.Fprintf(a.out, "Plan: %s %s\nStatus: %s\nRenews: %s\n", plan, price, sub.Status, sub.CurrentPeriodEnd.Format(time.DateOnly))
	if sub.CancelAtPeriodEnd {
		fmt.Fprintln(a.out, "Cancels at period end")
	}
}

func invoicesCommand(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	invoices, err := a.billing.Invoices(ctx)
	if err != nil {
		return printMessages(a, err, "Could not load invoices.")
	}
	w := a.table()
	fmt.Fprintln(w, "NUMBER\tDATE\tAMOUNT\tSTATUS")
	for _, inv := range invoices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inv.Number, inv.Date.Format(time.DateOnly), billing.FormatAmount(inv.Amount, inv.Currency), inv.Status)
	}
	return w.Flush()
}

func usageCommand(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	stats, err := a.billing.Usage(ctx)
	if err != nil {
		return printMessages(a, err, "Could not load usage.")
	}
	printUsage(a, stats)
	return nil
}

func printUsage(a *app, stats *billing.UsageStats) {
	w := a.table()
	fmt.Fprintln(w, "QUOTA\tUSED\tLIMIT\t%")
	fmt.Fprintf(w, "users\t%d\t%d\t%d\n", stats.Users.Used, stats.Users.Limit, stats.Users.Percent())
	fmt.Fprintf(w, "storage\t%s\t%s\t%d\n", files.HumanSize(stats.Storage.Used), files.HumanSize(stats.Storage.Limit), stats.Storage.Percent())
	fmt.Fprintf(w, "api calls\t%d\t%d\t%d\n", stats.APICalls.Used, stats.APICalls.Limit, stats.APICalls.Percent())
	_ = w.Flush()
}

func filesCommand(ctx context.Context, a *app, args []string) error {
	flagSet := commandFlags("files")
	params := pageFlags(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	page, err := a.files.List(ctx, files.ListParams{PageParams: *params})
	if err != nil {
		return printMessages(a, err, "Could not load files.")
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE")
	for _, f := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ID, f.OriginalName, f.MimeType, files.HumanSize(f.Size))
	}
	return w.Flush()
}

// dashboardCommand loads the dashboard panels concurrently. A 401 on any of
// them triggers a single shared refresh.
func dashboardCommand(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	var (
		sub     *billing.Subscription
		stats   *billing.UsageStats
		members *apiclient.Page[users.User]
		stored  *apiclient.Page[files.Record]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sub, err = a.billing.Subscription(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats, err = a.billing.Usage(gctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = a.users.List(gctx, users.ListParams{PageParams: apiclient.PageParams{Limit: 5}})
		return err
	})
	g.Go(func() (err error) {
		stored, err = a.files.List(gctx, files.ListParams{PageParams: apiclient.PageParams{Limit: 5}})
		return err
	})
	if err := g.Wait(); err != nil {
		return printMessages(a, err, "Could not load the dashboard.")
	}

	if company := a.tenant.CurrentCompany(); company != nil && company.Name != "" {
		fmt.Fprintf(a.out, "%s\n\n", company.Name)
	}
	printSubscription(a, sub)
	fmt.Fprintln(a.out)
	printUsage(a, stats)
	fmt.Fprintf(a.out, "\nMembers: %d\nFiles: %d\n", members.Total, stored.Total)
	return nil
}

func adminCompaniesCommand(ctx context.Context, a *app, args []string) error {
	flagSet := commandFlags("admin-companies")
	params := pageFlags(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	page, err := a.admin.Companies(ctx, *params)
	if err != nil {
		return printMessages(a, err, "Could not load companies.")
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tSTATUS\tACTIVE")
	for _, c := range page.Data {
		status := ""
		if c.Subscription != nil {
			status = string(c.Subscription.Status)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\n", c.ID, c.Name, c.MemberCount(), status, c.Active())
	}
	fmt.Fprintf(w, "\npage %d of %d (%d companies)\n", page.Page, page.TotalPages, page.Total)
	return w.Flush()
}

func adminSubscriptionsCommand(ctx context.Context, a *app, args []string) error {
	flagSet := commandFlags("admin-subscriptions")
	params := pageFlags(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	page, err := a.admin.Subscriptions(ctx, *params)
	if err != nil {
		return printMessages(a, err, "Could not load subscriptions.")
	}
	w := a.table()
	fmt.Fprintln(w, "COMPANY\tPLAN\tSTATUS\tPERIOD END")
	for _, s := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.CompanyID, s.PlanID, s.Status, s.CurrentPeriodEnd.Format(time.DateOnly))
	}
	return w.Flush()
}

func guardCommand(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: saasctl guard <path>")
	}
	path := args[0]
	_, hasCredential := a.mirror.Read()
	decision := a.rules.Evaluate(path, hasCredential)

	fmt.Fprintf(a.out, "%s %s (%s, credential %s)", decision.Action, path, a.rules.Classify(path), strconv.FormatBool(hasCredential))
	if decision.Location != "" {
		fmt.Fprintf(a.out, " -> %s", decision.Location)
	}
	fmt.Fprintln(a.out)
	return nil
}
