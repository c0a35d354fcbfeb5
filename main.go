// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Econbot.
//
// Usage:
//
//	go run . [flags]
//	./econbot run
//
// This launches the Econbot CLI. See --help for options.
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
