// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MicroAlgosPerAlgo is the number of microAlgos in one Algo.
const MicroAlgosPerAlgo = 1_000_000

var printer = message.NewPrinter(language.English)

// FormatAlgos renders microAlgos as "1,234.567890 ALGO".
func FormatAlgos(micro uint64) string {
	whole := micro / MicroAlgosPerAlgo
	frac := micro % MicroAlgosPerAlgo
	return fmt.Sprintf("%s.%06d ALGO", printer.Sprintf("%d", whole), frac)
}

// FormatAssetAmount renders a base-unit amount with the asset's decimals.
func FormatAssetAmount(amount uint64, decimals uint32, unit string) string {
	s := printer.Sprintf("%d", amount)
	if decimals > 0 {
		div := uint64(1)
		for i := uint32(0); i < decimals; i++ {
			div *= 10
		}
		s = fmt.Sprintf("%s.%0*d", printer.Sprintf("%d", amount/div), int(decimals), amount%div)
	}
	if unit != "" {
		s += " " + unit
	}
	return s
}
