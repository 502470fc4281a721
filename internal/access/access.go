// Package access decides where a request may go based on the signed-in
// identity's role.
package access

import "soda/internal/identity"

const (
	LoginPath     = "/login"
	HomePath      = "/"
	DashboardPath = "/dashboard"
	TaxPath       = "/tax"
)

// Decision is either Allowed or a redirect target.
type Decision struct {
	Allowed  bool
	Redirect string
}

func allow() Decision                  { return Decision{Allowed: true} }
func redirectTo(path string) Decision { return Decision{Redirect: path} }

// Authorize gates a view. A nil identity goes to the login page. When
// required is set and the role differs, tax-only users go to the tax
// calculator and everyone else goes home. An empty required role admits
// any signed-in identity.
func Authorize(id *identity.Identity, required identity.Role) Decision {
	if id == nil {
		return redirectTo(LoginPath)
	}
	if required != "" && id.Role != required {
		if id.Role == identity.RoleTaxOnly {
			return redirectTo(TaxPath)
		}
		return redirectTo(HomePath)
	}
	return allow()
}

// Landing resolves the root path and any unknown path.
func Landing(id *identity.Identity) string {
	switch {
	case id == nil:
		return LoginPath
	case id.Role == identity.RoleTaxOnly:
		return TaxPath
	default:
		return DashboardPath
	}
}
