// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ekai/pixelpuzzle/activitylog"
	"github.com/ekai/pixelpuzzle/auth"
	"github.com/ekai/pixelpuzzle/clock"
	"github.com/ekai/pixelpuzzle/models"
)

// SessionCookie holds the anonymous session id.
const SessionCookie = "pp_session"

// The cookie only carries the id; idle expiry is decided from session
// activity, not from the cookie lifetime.
const sessionCookieMaxAge = 24 * time.Hour

// SessionToucher records per-request session activity.
type SessionToucher interface {
	Touch(ctx context.Context, sessionID, ip string, now time.Time) error
}

type identityKey struct{}

// WithSession resolves the caller's identity from the session cookie and
// client IP, issuing a new session when the cookie is missing or invalid.
// Activity is touched once per request and the identity is stored in the
// request context. The IP decides quota and loopback exemption, so proxy
// headers count only when trustProxy is set.
func WithSession(st SessionToucher, clk clock.Clock, trustProxy bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(SessionCookie); err == nil && auth.ValidSessionID(c.Value) {
			sessionID = c.Value
		}
		if sessionID == "" {
			sessionID = auth.NewSessionID()
			SetSessionCookie(w, sessionID)
		}

		id := models.Identity{SessionID: sessionID, IP: GetClientIP(r, trustProxy)}
		if err := st.Touch(r.Context(), id.SessionID, id.IP, clk.Now()); err != nil {
			slog.Error("failed to touch session", "error", err, "session_id", id.SessionID)
			ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	}
}

// IdentityFrom returns the identity stored by WithSession.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

func SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie ends the session on the client; the next request
// starts a new one.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithActivity records each request in the recent activity log with a
// hashed client IP.
func WithActivity(log *activitylog.Log, salt string, trustProxy bool, clk clock.Clock, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Add(activitylog.Entry{
			At:     clk.Now(),
			IPHash: auth.HashIP(GetClientIP(r, trustProxy), salt),
			Method: r.Method,
			Path:   r.URL.Path,
		})
		next(w, r)
	}
}
