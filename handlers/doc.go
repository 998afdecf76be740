// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the pixelpuzzle API.

# Handler Types

  - PixelHandler: claim, recolor, release, grid, own pixels, session lock
  - AdminHandler: grid totals and the recent activity log

	pixelHandler := handlers.NewPixelHandler(engine, cfg)

PixelHandler reads the caller's identity from the request context, so its
routes must sit behind middleware.WithSession.

# Error Mapping

Engine rejections become JSON errors with a stable kind:

	validation      400
	conflict        409
	adjacency       422
	locked          423
	quota_exceeded  429
	session_cap     429
	not_found       404

Anything else is a storage failure, logged and returned as 500.

# Status Codes

A new claim returns 201; a recolor of an own pixel returns 200 with
action "updated".
*/
package handlers
