// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBackendRequest(t *testing.T) {
	before := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("GET", "races", "200"))
	RecordBackendRequest("GET", "races", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("GET", "races", "200"))
	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}

	before = testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("GET", "races", "error"))
	RecordBackendRequest("GET", "races", 0, time.Millisecond)
	after = testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("GET", "races", "error"))
	if after-before != 1 {
		t.Errorf("transport error counter delta = %v, want 1", after-before)
	}
}

func TestRecordLogin(t *testing.T) {
	ok := SessionLogins.WithLabelValues("password", "success")
	failed := SessionLogins.WithLabelValues("password", "failure")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordLogin("password", nil)
	RecordLogin("password", errors.New("invalid credentials"))

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("gauge = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("gauge = %v, want %v", got, before)
	}
}
