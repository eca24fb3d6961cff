package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/boulodrome/clubhouse/auth"
	"github.com/boulodrome/clubhouse/storage"
)

// Login handles POST /auth/login. On success it sets the encrypted auth
// cookie, rotates the CSRF session identifier (a login must never keep a
// pre-login session, or a fixated identifier would survive into the
// authenticated session), and returns a token bound to the new session.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "username and password are required")
		return
	}

	username := storage.NormalizeUsername(req.Username)
	member, err := a.store.GetMember(r.Context(), username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			writeInternalError(w, "failed to load member")
			return
		}
		// Burn a bcrypt comparison so unknown usernames cost the same
		// as bad passwords.
		auth.DecoyCheck(req.Password)
		a.audit.logFailure(AuditLoginFailure, r, "unknown username")
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(member.PasswordHash, req.Password); err != nil {
		a.audit.logFailure(AuditLoginFailure, r, "bad password",
			slog.String("username", username))
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
		return
	}

	role, err := auth.ParseRole(member.Role)
	if err != nil {
		// A stored role this package does not know means the account
		// record is corrupt, not that the caller did anything wrong.
		writeInternalError(w, "account has an unusable role")
		return
	}
	principal := auth.Principal{
		Username: member.Username,
		Email:    member.Email,
		Role:     role,
	}

	signed, err := a.tokens.Issue(principal)
	if err != nil {
		writeInternalError(w, "failed to issue token")
		return
	}
	envelope, err := a.tokens.WrapForCookie(signed)
	if err != nil {
		writeInternalError(w, "failed to seal token")
		return
	}

	sessionID, err := a.csrf.NewSessionID()
	if err != nil {
		writeInternalError(w, "failed to rotate session")
		return
	}
	csrfToken, err := a.csrf.TokenForSession(sessionID)
	if err != nil {
		writeInternalError(w, "failed to issue token")
		return
	}

	a.setAuthCookie(w, r, envelope)
	a.setSessionCookie(w, r, sessionID)

	a.audit.logEvent(AuditLoginSuccess, r, principal.Username,
		slog.String("role", string(principal.Role)))
	a.audit.logEvent(AuditSessionRotated, r, principal.Username)

	writeJSON(w, http.StatusOK, LoginResponse{
		User: UserInfo{
			Username: principal.Username,
			Email:    principal.Email,
			Role:     string(principal.Role),
		},
		CSRFToken: csrfToken,
	})
}

// Logout handles POST /auth/logout. It clears both cookies across every
// configured path and succeeds even when there was nothing to clear. The
// token itself stays valid until its embedded expiry; there is no
// server-side revocation.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	var username string
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		// Best effort attribution only; an undecryptable cookie still
		// gets cleared below.
		if signed, err := a.tokens.UnwrapFromCookie(cookie.Value); err == nil {
			if p, err := a.tokens.Verify(signed); err == nil {
				username = p.Username
			}
		}
	}

	a.clearCookie(w, r, authCookieName)
	a.clearCookie(w, r, sessionCookieName)

	a.audit.logEvent(AuditLogout, r, username)
	writeJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// Status handles GET /auth/status. It runs behind CheckAuth, so the request
// may or may not carry a principal; either way the response includes a CSRF
// token for the current session.
func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	sessionID, r := a.ensureSession(w, r)

	resp := StatusResponse{}
	if p := PrincipalFromContext(r.Context()); p != nil {
		resp.Authenticated = true
		resp.User = &UserInfo{
			Username: p.Username,
			Email:    p.Email,
			Role:     string(p.Role),
		}
	}
	if sessionID != "" {
		if token, err := a.csrf.TokenForSession(sessionID); err == nil {
			resp.CSRFToken = token
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
