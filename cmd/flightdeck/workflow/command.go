// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Command returns the "workflow" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "workflow",
		Summary: "Work with workflow presets and launch runs",
		Description: `Work with Flightdeck workflow presets.

A preset is a JSONC file describing the stages and jobs of one run:
what to build, where to deploy, which approvals gate it. Presets are
edited interactively in the workbench; these commands cover the
scriptable paths — validating preset files, inspecting derived job
state, and launching runs from scripts or CI.

Preset files use JSONC (JSON with comments): // line comments,
/* block comments */, and trailing commas are allowed and stripped
before parsing.

The launch command needs the Flightdeck configuration file; set
FLIGHTDECK_CONFIG or pass --config. The file-based commands work on
explicit paths with no configuration.`,
		Subcommands: []*cli.Command{
			validateCommand(),
			showCommand(),
			serializeCommand(),
			simulateCommand(),
			launchCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Validate a preset file",
				Command:     "flightdeck workflow validate release-train.jsonc",
			},
			{
				Description: "Show a preset's stages and jobs",
				Command:     "flightdeck workflow show release-train.jsonc",
			},
			{
				Description: "Print the submission body a preset would produce",
				Command:     "flightdeck workflow serialize release-train.jsonc --environment-file staging-eu.json",
			},
			{
				Description: "Inspect every job's derived state",
				Command:     "flightdeck workflow simulate release-train.jsonc --environment-file staging-eu.json",
			},
			{
				Description: "Launch a run through the gateway",
				Command:     "flightdeck workflow launch checkout/release-train --environment staging-eu --ticket CHG-4431",
			},
		},
	}
}

// loadEnvironmentFile reads an environment snapshot from a JSON file.
// An empty path returns a nil snapshot: the session treats missing
// environment data as "not yet available" rather than an error.
func loadEnvironmentFile(path string) (*schema.EnvironmentSnapshot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment snapshot: %w", err)
	}
	var snapshot schema.EnvironmentSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing environment snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}
