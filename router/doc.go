// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pixelpuzzle API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(st, activity, clock.Real{}, cfg)

# Endpoints

Health:

	GET /health

Pixels (session cookie issued on first request):

	POST   /api/pixels          - Claim or recolor {x, y, color}
	DELETE /api/pixels/{x}/{y}  - Release an unlocked own pixel
	POST   /api/pixels/delete   - Same, with {x, y} in the body
	GET    /api/grid            - All claimed pixels
	GET    /api/mine            - Own pixels and remaining quota
	POST   /api/lock            - Lock own pixels and end the session

Bootstrap:

	GET /api/config - Grid size, daily limit, adjacency policy

Admin (requires X-Admin-Key):

	GET /admin/stats - Cell totals and recent activity

# Middleware

Visitor routes run through WithLogging, WithActivity and WithSession, in
that order. Config and admin routes are only logged.
*/
package router
