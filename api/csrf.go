package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrfToken"
)

// csrfAllowList names the paths exempt from CSRF validation. The login
// endpoint cannot require a token the client does not yet have.
var csrfAllowList = map[string]bool{
	"/auth/login": true,
}

// ensureSession returns the request's CSRF session identifier, minting and
// setting a fresh one when the request carries none. The identifier is also
// stored on the returned request's context so later stages observe the
// minted value instead of re-minting.
func (a *API) ensureSession(w http.ResponseWriter, r *http.Request) (string, *http.Request) {
	if sid := sessionIDFromContext(r.Context()); sid != "" {
		return sid, r
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, r.WithContext(withSessionID(r.Context(), cookie.Value))
	}

	sid, err := a.csrf.NewSessionID()
	if err != nil {
		a.audit.logger.ErrorContext(r.Context(), "session mint failed", "error", err)
		return "", r
	}
	a.setSessionCookie(w, r, sid)
	a.audit.log(AuditSessionMinted, r)
	return sid, r.WithContext(withSessionID(r.Context(), sid))
}

// VerifyCSRF enforces the synchronizer-token discipline. Every request
// passing through gains a session identifier if it lacks one, even
// anonymous GETs and even rejected requests, because the secret must exist
// before any form can be safely rendered. State-changing methods must then
// present a token bound to the session's derived secret.
func (a *API) VerifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, r = a.ensureSession(w, r)

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		path := routePath(r)
		if csrfAllowList[path] {
			next.ServeHTTP(w, r)
			return
		}
		// Logout with no cookies at all has nothing to invalidate and
		// nothing worth forging; let it no-op rather than fail.
		if path == "/auth/logout" && !hasCookie(r, authCookieName) && !hasCookie(r, sessionCookieName) {
			next.ServeHTTP(w, r)
			return
		}

		// Validation reads the session from the request's own cookie. A
		// just-minted identifier cannot have a matching token yet, so
		// such requests fail here and the client recovers by fetching
		// /csrf-token with the new cookie.
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			a.rejectCSRF(w, r, "missing session cookie")
			return
		}
		token := r.Header.Get(csrfHeaderName)
		if token == "" {
			token = r.PostFormValue(csrfFormField)
		}
		if token == "" {
			a.rejectCSRF(w, r, "missing token")
			return
		}
		if err := a.csrf.ValidateForSession(cookie.Value, token); err != nil {
			a.rejectCSRF(w, r, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rejectCSRF answers with a deliberately generic 403. The reason stays in
// the audit log; the client must not learn which check failed.
func (a *API) rejectCSRF(w http.ResponseWriter, r *http.Request, reason string) {
	a.audit.logFailure(AuditCSRFRejected, r, reason)
	writeError(w, http.StatusForbidden, codeCSRFFailed, "CSRF validation failed")
}

// CSRFToken handles GET /csrf-token. It returns a synchronizer token bound
// to the (possibly just-minted) session identifier.
func (a *API) CSRFToken(w http.ResponseWriter, r *http.Request) {
	sessionID, r := a.ensureSession(w, r)
	if sessionID == "" {
		writeInternalError(w, "failed to establish session")
		return
	}
	token, err := a.csrf.TokenForSession(sessionID)
	if err != nil {
		writeInternalError(w, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, CSRFTokenResponse{CSRFToken: token})
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

// routePath returns the path relative to any mount point, so the allow-list
// holds whether the router is mounted at the root or under a prefix.
func routePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath != "" {
		return rctx.RoutePath
	}
	return r.URL.Path
}
