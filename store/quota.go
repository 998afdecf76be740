// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"
)

// QuotaCount returns how many cells ip has claimed on day.
func (o ops) QuotaCount(ctx context.Context, ip, day string) (int, error) {
	var n int
	err := o.queryRow(ctx, `
		SELECT count FROM quota_ledger WHERE ip = ? AND day = ?
	`, ip, day).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota count: %w", err)
	}
	return n, nil
}

// Remaining returns max(0, dailyLimit - count) for (ip, day).
func (o ops) Remaining(ctx context.Context, ip, day string, dailyLimit int) (int, error) {
	n, err := o.QuotaCount(ctx, ip, day)
	if err != nil {
		return 0, err
	}
	return max(0, dailyLimit-n), nil
}

// HoldQuota makes sure the (ip, day) row exists and, inside a transaction,
// holds its row lock until commit. Concurrent placements from one ip queue
// behind it.
func (o ops) HoldQuota(ctx context.Context, ip, day string) error {
	_, err := o.exec(ctx, `
		INSERT INTO quota_ledger (ip, day, count) VALUES (?, ?, 0)
		ON CONFLICT (ip, day) DO UPDATE SET count = quota_ledger.count
	`, ip, day)
	if err != nil {
		return fmt.Errorf("hold quota: %w", err)
	}
	return nil
}

// IncrementQuota adds one claim to (ip, day) and returns the new count.
func (o ops) IncrementQuota(ctx context.Context, ip, day string) (int, error) {
	var n int
	err := o.queryRow(ctx, `
		INSERT INTO quota_ledger (ip, day, count) VALUES (?, ?, 1)
		ON CONFLICT (ip, day) DO UPDATE SET count = quota_ledger.count + 1
		RETURNING count
	`, ip, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment quota: %w", err)
	}
	return n, nil
}

// IsExempt reports whether ip is a loopback or local address.
func IsExempt(ip string) bool {
	ip = strings.TrimSpace(ip)
	if strings.EqualFold(ip, "localhost") {
		return true
	}
	parsed := net.ParseIP(strings.Trim(ip, "[]"))
	return parsed != nil && parsed.IsLoopback()
}
