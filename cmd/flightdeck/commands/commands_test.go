// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
)

// TestCommandTreeShape walks the full production command tree and
// validates that every node is either a runnable leaf or a group with
// subcommands, that sibling names are unique (ambiguous dispatch), and
// that every command an operator can reach has a summary for help
// output.
func TestCommandTreeShape(t *testing.T) {
	root := Root()
	walkCommands(root, nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: neither runnable nor a group", name)
		}
		if command != root && command.Summary == "" {
			t.Errorf("%s: missing summary", name)
		}

		seen := make(map[string]bool, len(command.Subcommands))
		for _, sub := range command.Subcommands {
			if sub.Name == "" {
				t.Errorf("%s: subcommand with empty name", name)
			}
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

func TestVersionCommand(t *testing.T) {
	root := Root()
	for _, sub := range root.Subcommands {
		if sub.Name != "version" {
			continue
		}
		if err := sub.Run(nil); err != nil {
			t.Fatalf("version: %v", err)
		}
		return
	}
	t.Fatal("version subcommand not found")
}

// walkCommands recursively visits every command in the tree, calling
// visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
