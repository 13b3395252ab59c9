// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"crypto/rand"
	"os"
	"strings"
	"testing"
)

func TestSpoolRoundTrip(t *testing.T) {
	t.Parallel()

	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}

	// JSON-ish repetitive body: should land on zstd.
	body := []byte(strings.Repeat(`{"name":"build-svc","type":"build"},`, 200))
	digest, err := spool.Write(body)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(digest) != 64 {
		t.Errorf("digest %q length = %d, want 64 hex characters", digest, len(digest))
	}

	restored, err := spool.Read(digest)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(restored, body) {
		t.Error("round-tripped body differs from original")
	}

	// The spooled file must actually be smaller than the body (plus
	// header) for compressible input.
	fileInfo, err := os.Stat(spool.path(digest))
	if err != nil {
		t.Fatal(err)
	}
	if fileInfo.Size() >= int64(len(body)) {
		t.Errorf("spool file is %d bytes for a %d byte compressible body", fileInfo.Size(), len(body))
	}
}

func TestSpoolIncompressibleBody(t *testing.T) {
	t.Parallel()

	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}

	// Random bytes defeat both zstd and lz4; the entry must fall
	// back to the raw tag and still round-trip.
	body := make([]byte, 512)
	if _, err := rand.Read(body); err != nil {
		t.Fatal(err)
	}
	digest, err := spool.Write(body)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	restored, err := spool.Read(digest)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(restored, body) {
		t.Error("round-tripped incompressible body differs from original")
	}
}

func TestSpoolIdempotentWrite(t *testing.T) {
	t.Parallel()

	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}

	body := []byte(`{"workflow":"release-train","stages":[]}`)
	first, err := spool.Write(body)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	second, err := spool.Write(body)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if first != second {
		t.Errorf("digests differ across identical writes: %s vs %s", first, second)
	}

	digests, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(digests) != 1 || digests[0] != first {
		t.Errorf("List = %v, want exactly [%s]", digests, first)
	}
}

func TestSpoolReadUnknownDigest(t *testing.T) {
	t.Parallel()

	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	if _, err := spool.Read(strings.Repeat("ab", 32)); err == nil {
		t.Error("Read of an unknown digest returned nil error")
	}
}
