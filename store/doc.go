// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists cells, the daily quota ledger and session activity.

# Operations

The same operations are available on *Store (autocommit) and on *Tx
(inside WithTx):

	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.HoldQuota(ctx, ip, day); err != nil {
			return err
		}
		ok, err := tx.ClaimCell(ctx, cell)
		...
	})

Grid: GetCell, ListCells, ListByIdentity, ClaimCell, RecolorCell,
ReleaseCell, LockBySession, CountBySession, HasAny, HasNeighbor, Stats.

Quota: QuotaCount, Remaining, HoldQuota, IncrementQuota.

Activity: Touch, GetSession, ListIdleSince.

# Atomicity

ClaimCell is INSERT ... ON CONFLICT DO NOTHING, so two claims for one
coordinate cannot both succeed. RecolorCell and ReleaseCell only touch a
row that is owned by the caller and unlocked; when nothing matches they
re-read the row and return ErrNotFound, ErrNotOwner or ErrLocked.
IncrementQuota is a single upsert returning the new count.

# Placeholders

Queries are written with ? placeholders and rewritten to $N for
PostgreSQL.
*/
package store
