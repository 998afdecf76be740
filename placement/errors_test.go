// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package placement

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := reject(KindConflict, "pixel %d,%d is already taken", 1, 2)

	if !errors.Is(err, ErrConflict) {
		t.Error("expected errors.Is to match ErrConflict")
	}
	if errors.Is(err, ErrLocked) {
		t.Error("conflict must not match ErrLocked")
	}
	if err.Error() != "pixel 1,2 is already taken" {
		t.Errorf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped error should still match")
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("x: %w", reject(KindAdjacency, "far")))
	if !ok || kind != KindAdjacency {
		t.Errorf("KindOf = %s, %v", kind, ok)
	}

	if _, ok := KindOf(errors.New("disk on fire")); ok {
		t.Error("plain errors are internal, not rejections")
	}

	if ErrQuotaExceeded.Error() != "quota_exceeded" {
		t.Errorf("sentinel message = %q", ErrQuotaExceeded.Error())
	}
}
