// Package guard decides, from the presence of the mirrored access token
// cookie alone, whether a page navigation may proceed or must be redirected.
// It never validates the token; the backend does that on every API call.
package guard

import (
	"net/url"
	"slices"
	"strings"

	"github.com/jrsteele09/saas-admin-client/internal/config"
)

// Class of a request path
type Class int

const (
	// ClassUnrestricted paths are served to everyone
	ClassUnrestricted Class = iota
	// ClassAuthOnly paths are for signed-out visitors (login, register)
	ClassAuthOnly
	// ClassProtected paths require a credential
	ClassProtected
)

func (c Class) String() string {
	switch c {
	case ClassAuthOnly:
		return "auth-only"
	case ClassProtected:
		return "protected"
	default:
		return "unrestricted"
	}
}

// Action taken for a navigation
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the outcome of evaluating a path
type Decision struct {
	Action   Action
	Location string
}

// Rules describes the route table. Prefixes match whole path segments, so
// "/admin" covers "/admin" and "/admin/companies" but not "/administrator".
type Rules struct {
	AuthOnly  []string
	Public    []string
	Protected []string
	// Skip lists prefixes the guard never inspects (assets, API passthrough)
	Skip []string
	// ProtectRoot makes "/" itself protected
	ProtectRoot   bool
	LoginPath     string
	DashboardPath string
	CallbackParam string
}

// DefaultRules is the admin application's route table
func DefaultRules() Rules {
	return Rules{
		AuthOnly:      []string{"/login", "/register"},
		Public:        []string{"/login", "/register", "/pricing", "/forgot-password", "/reset-password", "/accept-invite"},
		Protected:     []string{"/dashboard", "/admin"},
		Skip:          []string{"/_next/static", "/_next/image", "/favicon.ico", "/public", "/api"},
		ProtectRoot:   true,
		LoginPath:     "/login",
		DashboardPath: "/dashboard",
		CallbackParam: "callbackUrl",
	}
}

// RulesFromConfig applies configured redirect targets to the default table
func RulesFromConfig(cfg config.GuardConfig) Rules {
	rules := DefaultRules()
	rules.LoginPath = cfg.GetLoginPath()
	rules.DashboardPath = cfg.GetDashboardPath()
	rules.CallbackParam = cfg.GetCallbackParam()
	if !slices.Contains(rules.AuthOnly, rules.LoginPath) {
		rules.AuthOnly = append(rules.AuthOnly, rules.LoginPath)
	}
	if !slices.Contains(rules.Public, rules.LoginPath) {
		rules.Public = append(rules.Public, rules.LoginPath)
	}
	return rules
}

// Skipped reports whether path bypasses the guard entirely
func (r Rules) Skipped(path string) bool {
	return matchesAny(path, r.Skip)
}

// Classify maps a path to its class. Public paths are never protected, even
// when they fall under a protected prefix.
func (r Rules) Classify(path string) Class {
	switch {
	case r.Skipped(path):
		return ClassUnrestricted
	case matchesAny(path, r.AuthOnly):
		return ClassAuthOnly
	case matchesAny(path, r.Public):
		return ClassUnrestricted
	case matchesAny(path, r.Protected), r.ProtectRoot && path == "/":
		return ClassProtected
	default:
		return ClassUnrestricted
	}
}

// Evaluate decides what happens to a navigation to path. hasCredential is
// whether the access token cookie is present; its value is never inspected.
func (r Rules) Evaluate(path string, hasCredential bool) Decision {
	switch r.Classify(path) {
	case ClassAuthOnly:
		if hasCredential {
			return Decision{Action: Redirect, Location: r.DashboardPath}
		}
	case ClassProtected:
		if !hasCredential {
			return Decision{Action: Redirect, Location: r.loginLocation(path)}
		}
	}
	return Decision{Action: Allow}
}

func (r Rules) loginLocation(path string) string {
	if r.CallbackParam == "" {
		return r.LoginPath
	}
	return r.LoginPath + "?" + url.Values{r.CallbackParam: {path}}.Encode()
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
