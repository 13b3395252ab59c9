// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Flightdeck's standard CBOR encoding
// configuration.
//
// Flightdeck uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the gateway preset and submission
//     API, the workbench HTTP API, CLI output, and workflow documents
//     authored on disk (JSONC).
//   - CBOR for internal bookkeeping: canonical job snapshots used by
//     the change synchronizer for no-op detection, deep copies of the
//     workflow tree handed to adapters, signature input bytes, and the
//     submission spool index.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Flightdeck package encodes identically without
// duplicating configuration. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes — which is what makes byte comparison a
// valid structural-equality check for job snapshots.
//
// For buffer-oriented operations (snapshots, spool entries):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or appear on a wire boundary.
//     Example: the spool index record.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: every workflow
//     document type (JSON on the gateway wire, CBOR for snapshots),
//     types used in CLI --json output.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
