package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess   AuditEvent = "login_success"
	AuditLoginFailure   AuditEvent = "login_failure"
	AuditLogout         AuditEvent = "logout"
	AuditCSRFRejected   AuditEvent = "csrf_rejected"
	AuditTokenRejected  AuditEvent = "token_rejected"
	AuditCookieCleared  AuditEvent = "cookie_cleared"
	AuditSessionMinted  AuditEvent = "session_minted"
	AuditSessionRotated AuditEvent = "session_rotated"
	AuditRoleDenied     AuditEvent = "role_denied"
)

// auditLogger wraps slog.Logger for structured security audit logging.
// Events optionally fan out to a metrics collector and an external webhook.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
	webhook *auditWebhook
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry. Attrs must never carry token or
// cookie values; usernames and cookie names are fine.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", timestamp),
	}
	baseAttrs = append(baseAttrs, attrs...)

	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	if al.metrics != nil {
		al.metrics.recordEvent(event)
	}
	if al.webhook != nil {
		al.webhook.enqueue(webhookEventFrom(event, r.RemoteAddr, timestamp, attrs))
	}
}

// webhookEventFrom flattens slog attrs into the webhook payload, lifting
// username into its own field.
func webhookEventFrom(event AuditEvent, remoteAddr, timestamp string, attrs []slog.Attr) webhookEvent {
	evt := webhookEvent{
		Event:      string(event),
		RemoteAddr: remoteAddr,
		Timestamp:  timestamp,
	}
	for _, a := range attrs {
		if a.Key == "username" {
			evt.Username = a.Value.String()
			continue
		}
		if evt.Attrs == nil {
			evt.Attrs = make(map[string]string, len(attrs))
		}
		evt.Attrs[a.Key] = a.Value.String()
	}
	return evt
}

// logEvent is a convenience for events attributable to a username.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, username string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("username", username),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a rejected request with an internal-only reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
