package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(production bool, paths ...string) cookiePolicy {
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	return cookiePolicy{production: production, paths: paths}
}

func TestNewCookieAttributes(t *testing.T) {
	tests := []struct {
		name         string
		production   bool
		secureReq    bool
		wantSecure   bool
		wantSameSite http.SameSite
	}{
		{"dev plain http", false, false, false, http.SameSiteLaxMode},
		{"dev behind tls", false, true, true, http.SameSiteLaxMode},
		{"production plain", true, false, true, http.SameSiteStrictMode},
		{"production tls", true, true, true, http.SameSiteStrictMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/auth/status", nil)
			if tt.secureReq {
				r.Header.Set("X-Forwarded-Proto", "https")
			}
			c := testPolicy(tt.production).newCookie(r, "authToken", "v", cookieOverrides{})

			assert.True(t, c.HttpOnly, "httpOnly must never be dropped")
			assert.Equal(t, "/", c.Path)
			assert.Equal(t, tt.wantSecure, c.Secure, "secure")
			assert.Equal(t, tt.wantSameSite, c.SameSite, "sameSite")
		})
	}
}

func TestNewCookieMaxAge(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	session := testPolicy(false).newCookie(r, "csrfSessionId", "v", cookieOverrides{})
	assert.Zero(t, session.MaxAge)
	assert.True(t, session.Expires.IsZero())

	bounded := testPolicy(false).newCookie(r, "csrfSessionId", "v", cookieOverrides{MaxAge: 3600})
	assert.Equal(t, 3600, bounded.MaxAge)
	assert.False(t, bounded.Expires.IsZero(), "bounded cookies carry Expires for old clients")
}

func TestRemovePendingCookie(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Add("Set-Cookie", "csrfSessionId=first; Path=/; HttpOnly")
	w.Header().Add("Set-Cookie", "authToken=abc; Path=/; HttpOnly")
	w.Header().Add("Set-Cookie", "csrfSessionIdLegacy=x; Path=/")

	removePendingCookie(w, "csrfSessionId")

	remaining := w.Header()["Set-Cookie"]
	require.Len(t, remaining, 2)
	assert.Contains(t, remaining[0], "authToken=")
	// Prefix matching is on "name=", so a longer name is not swept up.
	assert.Contains(t, remaining[1], "csrfSessionIdLegacy=")
}

func TestRemovePendingCookieNoPending(t *testing.T) {
	w := httptest.NewRecorder()
	removePendingCookie(w, "authToken")
	assert.Empty(t, w.Header()["Set-Cookie"])
}

func TestClearCookieSweepsAllPaths(t *testing.T) {
	a := &API{
		policy: testPolicy(false, "/", "/club"),
		audit:  newAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/auth/logout", nil)

	// A mint queued earlier in the same response must not survive the clear.
	http.SetCookie(w, &http.Cookie{Name: "csrfSessionId", Value: "fresh", Path: "/"})
	a.clearCookie(w, r, "csrfSessionId")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	paths := make([]string, 0, len(cookies))
	for _, c := range cookies {
		assert.Equal(t, "csrfSessionId", c.Name)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
		paths = append(paths, c.Path)
	}
	assert.ElementsMatch(t, []string{"/", "/club"}, paths)
}

func TestRequestIsSecure(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   bool
	}{
		{"plain", "", "", false},
		{"x-forwarded-proto https", "X-Forwarded-Proto", "https", true},
		{"x-forwarded-proto http", "X-Forwarded-Proto", "http", false},
		{"x-forwarded-proto case", "X-Forwarded-Proto", "HTTPS", true},
		{"forwarded proto", "Forwarded", "for=10.0.0.1;proto=https", true},
		{"forwarded plain", "Forwarded", "for=10.0.0.1;proto=http", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.want, requestIsSecure(r))
		})
	}
}
