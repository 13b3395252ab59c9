// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"strings"
	"testing"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

func TestDataSignatureShape(t *testing.T) {
	t.Parallel()

	job := buildJob("build-svc",
		schema.Target{ServiceName: "svcA", Module: "modA"},
		schema.Target{ServiceName: "svcB", Module: "modB"},
	)

	signature := string(DataSignature(&job))
	count, digest, found := strings.Cut(signature, ":")
	if !found {
		t.Fatalf("signature %q has no count prefix", signature)
	}
	if count != "2" {
		t.Errorf("signature count = %s, want 2", count)
	}
	if len(digest) != 16 {
		t.Errorf("signature digest length = %d, want 16", len(digest))
	}
}

func TestDataSignatureOrderIndependent(t *testing.T) {
	t.Parallel()

	forward := buildJob("j",
		schema.Target{ServiceName: "svcA", Module: "modA"},
		schema.Target{ServiceName: "svcB", Module: "modB"},
	)
	reversed := buildJob("j",
		schema.Target{ServiceName: "svcB", Module: "modB"},
		schema.Target{ServiceName: "svcA", Module: "modA"},
	)

	if DataSignature(&forward) != DataSignature(&reversed) {
		t.Error("signature depends on selection order")
	}
}

func TestDataSignatureIgnoresNonIdentityFields(t *testing.T) {
	t.Parallel()

	plain := buildJob("j", schema.Target{ServiceName: "svcA", Module: "modA"})
	withRef := buildJob("j", schema.Target{
		ServiceName: "svcA",
		Module:      "modA",
		CodeRef:     &schema.CodeRef{Branch: "main"},
	})

	if DataSignature(&plain) != DataSignature(&withRef) {
		t.Error("signature should depend only on identity keys, not leaf values")
	}
}

func TestDataSignatureDetectsChange(t *testing.T) {
	t.Parallel()

	before := buildJob("j", schema.Target{ServiceName: "svcA", Module: "modA"})
	after := buildJob("j",
		schema.Target{ServiceName: "svcA", Module: "modA"},
		schema.Target{ServiceName: "svcB", Module: "modB"},
	)

	if DataSignature(&before) == DataSignature(&after) {
		t.Error("signature failed to change when the exposed set grew")
	}
}

func TestDataSignatureEmptySet(t *testing.T) {
	t.Parallel()

	job := buildJob("j")
	signature := string(DataSignature(&job))
	if !strings.HasPrefix(signature, "0:") {
		t.Errorf("empty-set signature = %q, want 0: prefix", signature)
	}
}

func TestDataSignatureConfigItems(t *testing.T) {
	t.Parallel()

	job := fromJob("cfg", schema.JobTypeConfigChange, "")
	job.Spec.Source = schema.SourceRuntime
	job.Spec.OriginJobName = ""
	job.Selection.Items = []schema.ConfigItem{
		{Group: "g1", Namespace: "ns", DataID: "d1"},
	}

	withoutItem := fromJob("cfg", schema.JobTypeConfigChange, "")
	withoutItem.Spec.Source = schema.SourceRuntime
	withoutItem.Spec.OriginJobName = ""

	if DataSignature(&job) == DataSignature(&withoutItem) {
		t.Error("signature should cover config item picks")
	}
}

func TestDataSignatureSkippedJobExposesNothing(t *testing.T) {
	t.Parallel()

	job := buildJob("j", schema.Target{ServiceName: "svcA", Module: "modA"})
	skipped := job
	skipped.Skipped = true

	if got := string(DataSignature(&skipped)); !strings.HasPrefix(got, "0:") {
		t.Errorf("skipped job signature = %q, want 0: prefix", got)
	}
	if DataSignature(&job) == DataSignature(&skipped) {
		t.Error("skipping a job must move its signature")
	}
}
