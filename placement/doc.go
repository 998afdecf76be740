// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package placement is the cell ownership state machine.

# Lifecycle

	EMPTY ──claim──▶ OWNED_UNLOCKED ──lock──▶ OWNED_LOCKED
	  ▲                   │  ▲
	  └────release────────┘  └─recolor─┘

OWNED_LOCKED is terminal: no recolor, no release.

# Placing

	res, err := engine.Place(ctx, x, y, "#ff0000", identity)

An empty target is claimed when the identity has quota left today, its
session holds fewer than the daily limit, and the target touches a
reference cell (Chebyshev distance 1). The reference set is the whole
grid or only the caller's cells depending on the adjacency policy; an
empty reference set always allows the claim. The claim that reaches the
daily limit locks the whole session and reports SessionLocked.

Everything from the quota check to the lock runs in one transaction that
first touches the session row and then the (ip, day) quota row, so one
identity's requests are applied one at a time.

# Errors

Rejections are *Error values with a stable Kind:

	if errors.Is(err, placement.ErrQuotaExceeded) { ... }
	kind, ok := placement.KindOf(err)

Anything that is not an *Error is a storage failure.
*/
package placement
