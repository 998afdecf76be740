// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session identifiers, admin key checks and IP hashing.

# Session IDs

Anonymous visitors are identified by a random UUIDv4 stored in a cookie:

	id := auth.NewSessionID()
	ok := auth.ValidSessionID(cookieValue)

# Admin Key

The admin report is guarded by a single configured key, compared in
constant time:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

An empty configured key disables admin routes (ErrAdminDisabled).

# IP Hashing

For the privacy-preserving activity log:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
