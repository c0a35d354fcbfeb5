// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Command econbot is the installable binary:
//
//	go install github.com/econbot/econbot/cmd/econbot@latest
package main

import (
	"os"

	"github.com/econbot/econbot/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
