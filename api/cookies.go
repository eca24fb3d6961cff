package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/boulodrome/clubhouse/config"
)

// Cookie names are part of the wire contract with browser clients.
const (
	authCookieName    = "authToken"
	sessionCookieName = "csrfSessionId"
)

// sessionCookieTTL bounds the life of a CSRF session identifier. Expiry is
// enforced by the browser honoring MaxAge; the server keeps no session table.
const sessionCookieTTL = 24 * time.Hour

// cookiePolicy is the single source of truth for cookie attributes. Every
// Set-Cookie issued by this package goes through it, so httpOnly can never
// be dropped by a call site.
type cookiePolicy struct {
	production bool
	domain     string
	paths      []string
}

func newCookiePolicy(cfg *config.Config) cookiePolicy {
	p := cookiePolicy{
		production: cfg.Production(),
		domain:     cfg.CookieDomain,
		paths:      append([]string(nil), cfg.CookiePaths...),
	}
	if len(p.paths) == 0 {
		p.paths = []string{"/"}
	}
	return p
}

// cookieOverrides carries the per-call attributes a caller may change.
// httpOnly, path, and SameSite are deliberately not representable here.
type cookieOverrides struct {
	MaxAge int
}

// newCookie builds a cookie with the policy's base attributes merged with
// the overrides. In production cookies are always Secure and SameSite=Strict;
// in development Secure follows the request scheme and SameSite relaxes to
// Lax so plain-HTTP local setups still work.
func (p cookiePolicy) newCookie(r *http.Request, name, value string, o cookieOverrides) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.domain,
		HttpOnly: true,
		Secure:   p.production || requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
	}
	if p.production {
		c.SameSite = http.SameSiteStrictMode
	}
	if o.MaxAge > 0 {
		c.MaxAge = o.MaxAge
		c.Expires = time.Now().Add(time.Duration(o.MaxAge) * time.Second)
	}
	return c
}

func (a *API) setAuthCookie(w http.ResponseWriter, r *http.Request, envelope string) {
	c := a.policy.newCookie(r, authCookieName, envelope, cookieOverrides{
		MaxAge: int(a.tokens.TTL().Seconds()),
	})
	removePendingCookie(w, authCookieName)
	http.SetCookie(w, c)
}

func (a *API) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	c := a.policy.newCookie(r, sessionCookieName, sessionID, cookieOverrides{
		MaxAge: int(sessionCookieTTL.Seconds()),
	})
	removePendingCookie(w, sessionCookieName)
	http.SetCookie(w, c)
}

// clearCookie issues a clearing Set-Cookie for name under every configured
// path. A cookie set under one path is invisible to a clear issued under
// another, so a single clear is not enough when the app has ever mounted
// under a sub-path.
func (a *API) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	removePendingCookie(w, name)
	for _, path := range a.policy.paths {
		c := a.policy.newCookie(r, name, "", cookieOverrides{})
		c.Path = path
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
	a.audit.log(AuditCookieCleared, r, slog.String("cookie", name))
}

// removePendingCookie drops any Set-Cookie already queued on the response
// for the named cookie. Header maps append by default, and a response
// carrying two values for the same cookie name leaves the winner up to the
// client; rotation on login and clearing on logout must supersede an
// earlier mint instead.
func removePendingCookie(w http.ResponseWriter, name string) {
	pending := w.Header()["Set-Cookie"]
	if len(pending) == 0 {
		return
	}
	prefix := name + "="
	kept := pending[:0]
	for _, sc := range pending {
		if !strings.HasPrefix(sc, prefix) {
			kept = append(kept, sc)
		}
	}
	w.Header()["Set-Cookie"] = kept
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
