// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the flightdeck
// unified CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/flightdeck/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3). This is
// implemented in suggest.go.
//
// [NewCommandLogger] builds the slog logger every command shares:
// human-readable text on a terminal, JSON when stderr is piped.
// [FlagsFromParams] binds a params struct's tagged fields to a flag
// set; embedding [JSONOutput] in a params struct adds --json support.
package cli
