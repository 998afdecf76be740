// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package placement

import (
	"encoding/hex"
	"strings"
)

// DefaultColor replaces any color that is not a hex triplet.
const DefaultColor = "#000000"

// NormalizeColor returns color as lowercase #rrggbb. The leading # is
// optional and #rgb shorthand is expanded. Malformed input yields
// DefaultColor instead of an error.
func NormalizeColor(color string) string {
	s := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return DefaultColor
	}
	if _, err := hex.DecodeString(s); err != nil {
		return DefaultColor
	}
	return "#" + strings.ToLower(s)
}
