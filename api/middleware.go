package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/boulodrome/clubhouse/auth"
)

type contextKey int

const (
	principalKey contextKey = iota
	sessionIDKey
)

// PrincipalFromContext returns the authenticated principal attached by
// Authenticate or CheckAuth, or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalKey).(*auth.Principal)
	return p
}

func withPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func sessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

func withSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sid)
}

const bearerScheme = "Bearer "

// resolvePrincipal determines the authenticated principal from the auth
// cookie or, failing that, a bearer header. Cookie values are encrypted
// envelopes and get unwrapped first; bearer tokens are the bare signed
// token (non-browser clients never hold the envelope key). It reports
// whether any credential was presented; a presented-but-rejected cookie is
// cleared on w as a side effect. Rejection reasons stay in the audit log
// and are never surfaced to the client.
func (a *API) resolvePrincipal(w http.ResponseWriter, r *http.Request) (principal *auth.Principal, presented bool) {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		signed, err := a.tokens.UnwrapFromCookie(cookie.Value)
		if err != nil {
			a.audit.logFailure(AuditTokenRejected, r, "cookie envelope rejected")
			a.clearCookie(w, r, authCookieName)
			return nil, true
		}
		p, err := a.tokens.Verify(signed)
		if err != nil {
			a.audit.logFailure(AuditTokenRejected, r, rejectReason(err))
			a.clearCookie(w, r, authCookieName)
			return nil, true
		}
		return &p, true
	}

	if h := r.Header.Get("Authorization"); len(h) > len(bearerScheme) && strings.EqualFold(h[:len(bearerScheme)], bearerScheme) {
		p, err := a.tokens.Verify(strings.TrimSpace(h[len(bearerScheme):]))
		if err != nil {
			a.audit.logFailure(AuditTokenRejected, r, rejectReason(err))
			return nil, true
		}
		return &p, true
	}

	return nil, false
}

// rejectReason maps token errors to audit log strings. The distinction is
// for operators only; clients see one uniform rejection.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token malformed"
	case errors.Is(err, auth.ErrBadSignature):
		return "bad signature"
	default:
		return "token invalid"
	}
}

// Authenticate requires a valid credential and attaches the principal to
// the request context. Requests without any credential get 401 with a
// missing-credential code; requests with a rejected credential get 401 with
// an invalid-token code and, when cookie-sourced, the cookie cleared.
func (a *API) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, presented := a.resolvePrincipal(w, r)
		if p == nil {
			if !presented {
				writeError(w, http.StatusUnauthorized, codeMissingCredential, "authentication required")
				return
			}
			writeError(w, http.StatusUnauthorized, codeInvalidToken, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

// CheckAuth resolves the principal like Authenticate but never blocks:
// absence or failure leaves the request anonymous. Invalid cookies are
// still cleared, and a session identifier is still guaranteed so the
// handler can hand out CSRF tokens.
func (a *API) CheckAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, r = a.ensureSession(w, r)
		if p, _ := a.resolvePrincipal(w, r); p != nil {
			r = r.WithContext(withPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole composes Authenticate with a role allow-list. Mismatches get
// 403 disclosing the required and actual roles, which are not sensitive;
// why a token was rejected never is.
func (a *API) RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if !p.Role.In(roles...) {
				a.audit.logEvent(AuditRoleDenied, r, p.Username,
					slog.String("role", string(p.Role)))
				writeRoleError(w, roles, p.Role)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
