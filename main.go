// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for ChatLocked.
//
// Usage:
//
//	go run . [flags]
//	./chatlocked [command] [flags]
//
// Without a command the interactive TUI starts. See --help for options.
package main

import (
	"os"

	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
