// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for ChatLocked using
// Cobra. It loads configuration, builds the vault service and hands off to
// `core` for account workflows. Running without a subcommand starts the TUI.
package cli
