// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Identity: (session_id, ip) pair that owns cells and consumes quota
  - Cell: one grid coordinate and its ownership record
  - Session: activity row used for idle expiry
  - GridStats: total and locked cell counts

Cell owner fields are never serialized; clients only see color, lock
state and coordinates.

# Request Types

  - PlacePixelRequest: x, y, color
  - ReleasePixelRequest: x, y

Coordinates are pointers so a missing field can be told apart from zero.

# Response Types

  - PlaceResult: action ("placed" | "updated"), sessionLocked
  - ReleaseResult: action ("released")
  - GridResponse: "x,y" -> {color, locked}
  - MineResponse: myPixels, remaining, maxPerDay
  - LockSessionResponse: success, locked
  - ConfigResponse: grid size and rules for client bootstrap
  - StatsResponse: admin report
  - ErrorResponse: error, kind, message
*/
package models
