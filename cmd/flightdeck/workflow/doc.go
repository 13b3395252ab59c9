// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow implements the "flightdeck workflow" subcommands
// for working with workflow preset files and launching runs.
//
// A workflow preset is a JSONC file describing the stages and jobs of
// one run: what to build, where to deploy, which approvals gate it.
// The workbench service edits presets interactively; these commands
// cover the scriptable paths.
//
// Subcommands:
//
//   - validate: check a local JSONC preset file for structural
//     correctness without touching the gateway.
//   - show: display a preset's stages and jobs.
//   - serialize: run the full candidate computation and print the
//     canonical submission body without launching.
//   - simulate: build an editing session over a preset and print every
//     job's derived state and validation findings.
//   - launch: fetch a preset, validate it, and submit the run through
//     the configured gateway.
//
// The launch command reads the Flightdeck configuration file (via
// FLIGHTDECK_CONFIG or --config); the file-based commands work on
// explicit paths and need no configuration.
package workflow
