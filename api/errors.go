package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boulodrome/clubhouse/auth"
)

// Error codes carried in ErrorResponse.Code. Authentication failures stay
// deliberately vague; only role mismatches disclose detail (the required
// and actual roles are not sensitive and help client-side UX).
const (
	codeBadRequest         = "BAD_REQUEST"
	codeMissingCredential  = "MISSING_CREDENTIAL"
	codeInvalidToken       = "INVALID_TOKEN"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeInsufficientRole   = "INSUFFICIENT_ROLE"
	codeCSRFFailed         = "CSRF_FAILED"
	codeInternal           = "INTERNAL"
)

// maxAuthBodySize caps login/logout request bodies. Auth payloads are a few
// short strings; anything larger is hostile or broken.
const maxAuthBodySize = 16 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func writeInternalError(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusInternalServerError, codeInternal, msg)
}

// writeRoleError reports a role mismatch, disclosing which roles the route
// accepts and which one the caller holds.
func writeRoleError(w http.ResponseWriter, required []auth.Role, actual auth.Role) {
	names := make([]string, len(required))
	for i, role := range required {
		names[i] = string(role)
	}
	writeJSON(w, http.StatusForbidden, ErrorResponse{
		Error:         fmt.Sprintf("requires role %s", strings.Join(names, " or ")),
		Code:          codeInsufficientRole,
		RequiredRoles: names,
		ActualRole:    string(actual),
	})
}

// decodeJSON reads and decodes a JSON request body into T, enforcing a size
// cap and rejecting unknown fields. On failure it writes the error response
// itself and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}
