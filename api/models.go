package api

// JSON field names below are part of the wire contract with browser clients
// and intentionally camelCase.

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// LoginResponse is returned from a successful POST /auth/login. The CSRF
// token is bound to the freshly rotated session identifier.
type LoginResponse struct {
	User      UserInfo `json:"user"`
	CSRFToken string   `json:"csrfToken"`
}

// LogoutResponse is returned from POST /auth/logout.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// StatusResponse is returned from GET /auth/status.
type StatusResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserInfo `json:"user,omitempty"`
	CSRFToken     string    `json:"csrfToken,omitempty"`
}

// CSRFTokenResponse is returned from GET /csrf-token.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// ErrorResponse is returned for all error cases. RequiredRoles and
// ActualRole are populated only for role mismatches.
type ErrorResponse struct {
	Error         string   `json:"error"`
	Code          string   `json:"code,omitempty"`
	RequiredRoles []string `json:"required_roles,omitempty"`
	ActualRole    string   `json:"actual_role,omitempty"`
}
