// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# Sessions

WithSession assigns every caller an anonymous session. The id lives in the
pp_session cookie; a missing or malformed cookie gets a fresh UUID. The
(session, client IP) pair is the caller's identity:

	id, ok := middleware.IdentityFrom(r.Context())

Each request touches the session's last activity, which the sweeper uses
to lock idle sessions. ClearSessionCookie ends a session on the client.

# Activity Log

WithActivity appends method, path and a salted IP hash to the in-memory
activity log shown on the admin report.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.RejectResponse(w, http.StatusConflict, "conflict", "message")

Parse JSON request bodies:

	var req models.PlacePixelRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the client IP:

	ip := middleware.GetClientIP(r, cfg.TrustProxy)

Without trustProxy only RemoteAddr is used. With it, the last
X-Forwarded-For entry (the one the proxy appended) wins, then X-Real-IP.
The port is stripped, so "[::1]:5000" yields "::1".
*/
package middleware
