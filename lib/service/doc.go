// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides shared HTTP infrastructure for Flightdeck
// services.
//
// A Flightdeck service is a standalone Go binary serving a JSON API
// over TCP. This package extracts the scaffolding every service
// needs: listener lifecycle with graceful shutdown, a readiness
// signal for tests and supervisors, and bearer-token request
// authentication.
//
// Services compose these utilities in their own main() function
// rather than subclassing a framework. The package provides building
// blocks, not a runtime.
package service
