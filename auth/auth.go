// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrAdminDisabled   = errors.New("admin access disabled")
)

// NewSessionID creates a random session identifier for an anonymous visitor
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether s looks like an id from NewSessionID.
// Cookies carrying anything else are replaced with a fresh session.
func ValidSessionID(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 4 && len(s) == 36
}

// ValidateAdminKey checks the provided key against the configured one in
// constant time. An empty configured key disables admin access entirely.
func ValidateAdminKey(provided, configured string) error {
	if configured == "" {
		return ErrAdminDisabled
	}
	// Compare digests so the comparison time does not leak the key length
	a := sha256.Sum256([]byte(provided))
	b := sha256.Sum256([]byte(configured))
	if !hmac.Equal(a[:], b[:]) {
		return ErrInvalidAdminKey
	}
	return nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
