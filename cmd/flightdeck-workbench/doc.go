// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// flightdeck-workbench is the session service behind the workbench
// UI. It exposes a JSON API over HTTP for creating editing sessions
// from stored presets, reading derived job state, applying edits,
// running enrichment and validation, and submitting runs to the
// pipeline gateway.
//
// Sessions live in memory for their lifetime only. A reaper discards
// sessions that have been idle past the configured timeout; a client
// that outlives its session recreates it from the preset and reapplies
// its local state.
//
// Configuration comes from the standard Flightdeck config file
// (FLIGHTDECK_CONFIG or --config).
package main
