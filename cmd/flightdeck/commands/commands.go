// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete Flightdeck CLI command tree.
// The flightdeck binary is a thin wrapper around [Root]; keeping the
// tree in its own package lets tests walk the full production command
// set without going through main.
package commands

import (
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/cli"
	workflowcmd "github.com/flightdeck-foundation/flightdeck/cmd/flightdeck/workflow"
	"github.com/flightdeck-foundation/flightdeck/lib/version"
)

// Root builds and returns the complete Flightdeck CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "flightdeck",
		Description: `Flightdeck: pipeline run workbench.

Validate workflow presets, inspect the derived state of their jobs,
and launch runs through the pipeline gateway. The interactive editing
surface lives in the flightdeck-workbench service; this CLI covers
the scriptable paths.`,
		Subcommands: []*cli.Command{
			workflowcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ []string) error {
					fmt.Printf("flightdeck %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Validate a preset file",
				Command:     "flightdeck workflow validate release-train.jsonc",
			},
			{
				Description: "Inspect every job's derived state",
				Command:     "flightdeck workflow simulate release-train.jsonc --environment-file staging-eu.json",
			},
			{
				Description: "Launch a run through the gateway",
				Command:     "flightdeck workflow launch checkout/release-train --environment staging-eu",
			},
		},
	}
}
