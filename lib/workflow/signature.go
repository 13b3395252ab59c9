// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Signature is a compact digest of a job's exposed target set, used
// only to answer "did upstream data change enough that dependents
// must recompute". The format is "<count>:<16 hex chars>" — the
// leading count makes cardinality visible in logs without decoding
// anything.
type Signature string

// signatureDomainKey is the BLAKE3 keyed-hash domain for data
// signatures. A fixed constant: the ASCII domain name zero-padded to
// 32 bytes, readable in hex dumps. Changing it changes every
// signature, which only costs one spurious recompute per job.
var signatureDomainKey = [32]byte{
	'f', 'l', 'i', 'g', 'h', 't', 'd', 'e', 'c', 'k', '.',
	's', 'i', 'g', 'n', 'a', 't', 'u', 'r', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// signatureKeyCap bounds each identity key's contribution to the
// digest input. Service and module names are short in practice; the
// cap keeps a pathological preset from making signature computation
// scale with key length.
const signatureKeyCap = 64

// signatureHexLength is how much of the BLAKE3 hex digest the
// signature keeps. 16 characters (64 bits) is far beyond what
// change detection over a handful of jobs needs.
const signatureHexLength = 16

// DataSignature digests job's exposed target set: the sorted identity
// keys of whatever downstream fromjob consumers would read from it,
// plus their count. Two jobs with the same exposed set have the same
// signature regardless of selection order or any non-identity field.
func DataSignature(job *schema.Job) Signature {
	keys := exposedKeys(job)
	sort.Strings(keys)

	hasher, err := blake3.NewKeyed(signatureDomainKey[:])
	if err != nil {
		panic("workflow: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	for _, key := range keys {
		if len(key) > signatureKeyCap {
			key = key[:signatureKeyCap]
		}
		hasher.Write([]byte(key))
		hasher.Write([]byte{0})
	}

	digest := hex.EncodeToString(hasher.Sum(nil))[:signatureHexLength]
	return Signature(strconv.Itoa(len(keys)) + ":" + digest)
}

// exposedKeys returns the identity keys of the data job exposes to
// fromjob consumers: confirmed target and module picks for build,
// deploy, scan, and test jobs; confirmed item picks for config-change
// jobs; the selected connection for db-change jobs. Approval jobs
// expose nothing: neither does a skipped job — a skipped root
// supplies no data, and its signature dropping to empty is what
// prompts dependents to recompute their missing-source state.
func exposedKeys(job *schema.Job) []string {
	if job.Skipped {
		return nil
	}
	var keys []string
	for _, target := range job.Selection.Targets {
		keys = append(keys, target.Key())
	}
	for _, module := range job.Selection.Modules {
		keys = append(keys, module.Key())
	}
	for _, item := range job.Selection.Items {
		keys = append(keys, item.Key())
	}
	if job.Spec.DBChange != nil && job.Spec.DBChange.Connection != "" {
		keys = append(keys, job.Spec.DBChange.Connection)
	}
	return keys
}
