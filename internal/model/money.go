// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDecimals bounds the number of fractional digits a currency may use.
const MaxDecimals = 8

// FormatAmount renders an amount stored in minor units with the given number
// of decimal places, e.g. FormatAmount(1250, 2) == "12.50".
func FormatAmount(amount int64, decimals int) string {
	if decimals <= 0 {
		return decimal.NewFromInt(amount).String()
	}
	return decimal.New(amount, -int32(decimals)).StringFixed(int32(decimals))
}

// ParseAmount converts user input into minor units. Inputs with more
// fractional digits than the currency allows are rejected rather than rounded.
func ParseAmount(text string, decimals int) (int64, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if text == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrValidation, text)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrValidation, text, decimals)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrValidation, text)
	}
	return shifted.IntPart(), nil
}
