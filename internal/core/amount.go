// Package core provides the domain model shared by the ledger, monthly and
// roster components.
//
// This file contains the amount input normalizer. Yen amounts are typed on
// Japanese keyboards as often in full-width digits as in ASCII, so raw input
// is folded to half-width and cleaned before parsing. The normalizer never
// fails: garbage input degrades to "unset".
package core

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// NormalizeAmount converts raw text into a non-negative whole-yen amount.
//
// Full-width digits (０-９) are folded to their ASCII equivalents, every
// remaining non-digit rune is stripped, and the result is parsed base-10.
// An empty result yields nil, meaning "unset" rather than zero. Negative
// numbers and decimals are not representable; yen amounts are always whole.
//
// Examples:
//
//	NormalizeAmount("１２3")  -> 123
//	NormalizeAmount("1,200円") -> 1200
//	NormalizeAmount("abc¥")   -> nil
func NormalizeAmount(raw string) *int64 {
	folded := width.Fold.String(raw)
	var b strings.Builder
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Only possible on overflow; treat as unset rather than failing.
		return nil
	}
	return &n
}

// NormalizeAmountOrZero is NormalizeAmount with unset collapsed to zero,
// used for food-cost line amounts where an empty field means 0 yen.
func NormalizeAmountOrZero(raw string) int64 {
	if v := NormalizeAmount(raw); v != nil {
		return *v
	}
	return 0
}
