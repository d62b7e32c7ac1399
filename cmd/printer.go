// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cmd implements the yamato actions on top of the internal packages.
package cmd

import (
	"strings"

	"grimm.is/yamato/internal/i18n"
)

// Printer writes operator-facing output.
var Printer = i18n.NewCLIPrinter()

// splitExtra turns the -e value into worker arguments.
func splitExtra(extra string) []string {
	return strings.Fields(extra)
}
