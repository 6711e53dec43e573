// Package session decides which page requests need an authenticated
// identity and where to send callers that lack one.
package session

import (
	"net/url"
	"path"
	"strings"
)

// ReturnParam is the query parameter carrying the originally requested path.
const ReturnParam = "returnUrl"

type Action int

const (
	// Allow lets the request through untouched.
	Allow Action = iota
	// Redirect sends the caller to Decision.Location.
	Redirect
)

// Decision is the outcome for one request. Protected is set for every path
// under a protected prefix, whatever the action.
type Decision struct {
	Action    Action
	Location  string
	Protected bool
}

type Guard struct {
	prefixes  []string
	loginPath string
}

// NewGuard expects normalized prefixes ("/link", not "link/").
func NewGuard(prefixes []string, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{
		prefixes:  append([]string(nil), prefixes...),
		loginPath: loginPath,
	}
}

func (g *Guard) LoginPath() string { return g.loginPath }

// IsProtected matches whole path segments of the cleaned path, so "/docs"
// covers "/docs/x" and "//docs" but not "/docsy".
func (g *Guard) IsProtected(p string) bool {
	p = cleanPath(p)
	for _, prefix := range g.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// Applies reports whether the guard has an opinion on p. Callers skip
// the session lookup when it does not.
func (g *Guard) Applies(p string) bool {
	return cleanPath(p) == g.loginPath || g.IsProtected(p)
}

// Decide never mutates session state. authed must be false whenever the
// identity provider could not be consulted.
//
// The login redirect keeps the request's other query parameters.
func (g *Guard) Decide(p string, query url.Values, authed bool) Decision {
	p = cleanPath(p)
	if g.IsProtected(p) {
		if authed {
			return Decision{Action: Allow, Protected: true}
		}
		v := url.Values{}
		for k, vals := range query {
			v[k] = append([]string(nil), vals...)
		}
		v.Set(ReturnParam, p)
		return Decision{
			Action:    Redirect,
			Location:  g.loginPath + "?" + v.Encode(),
			Protected: true,
		}
	}

	if p == g.loginPath && authed {
		return Decision{Action: Redirect, Location: g.SafeReturn(query.Get(ReturnParam))}
	}

	return Decision{Action: Allow}
}

// SafeReturn returns the cleaned target when it is a local path under a
// protected prefix and "/" otherwise. Dot segments are resolved first, so
// "/link/../x" is refused.
func (g *Guard) SafeReturn(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if !g.IsProtected(u.Path) {
		return "/"
	}
	u.Path = cleanPath(u.Path)
	u.RawPath = ""
	return u.String()
}

// BackTarget is the history entry the login page must substitute for the
// protected page it was reached from. Empty when no return target is set.
func (g *Guard) BackTarget(query url.Values) string {
	if query.Get(ReturnParam) == "" {
		return ""
	}
	return "/"
}

// cleanPath resolves dot segments and repeated slashes. It always returns
// a rooted path.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
