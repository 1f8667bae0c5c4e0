package domain

import "testing"

func TestNormalizeChargeStatus(t *testing.T) {
	known := []string{
		"pending", "ongoing", "processing", "queued", "pay_offline",
		"send_otp", "success", "failed", "abandoned", "reversed",
	}
	for _, raw := range known {
		if got := NormalizeChargeStatus(raw); string(got) != raw {
			t.Errorf("NormalizeChargeStatus(%q) = %q", raw, got)
		}
	}

	// unknown statuses must collapse to pending, never be acted on
	for _, raw := range []string{"", "SUCCESS", "paid", "weird"} {
		if got := NormalizeChargeStatus(raw); got != ChargePending {
			t.Errorf("NormalizeChargeStatus(%q) = %q, want pending", raw, got)
		}
	}
}

func TestChargeStatusClassifiers(t *testing.T) {
	cases := []struct {
		status     ChargeStatus
		terminal   bool
		retry      bool
		action     bool
		processing bool
		userAction string
	}{
		{ChargePending, false, false, false, true, "wait"},
		{ChargeOngoing, false, false, true, false, "wait"},
		{ChargeProcessing, false, false, false, true, "wait"},
		{ChargeQueued, false, false, false, true, "wait"},
		{ChargePayOffline, false, false, true, false, "authorize"},
		{ChargeSendOTP, false, false, true, false, "enter_otp"},
		{ChargeSuccess, true, false, false, false, "complete"},
		{ChargeFailed, true, true, false, false, "retry"},
		{ChargeAbandoned, true, true, false, false, "retry"},
		{ChargeReversed, true, true, false, false, "contact_support"},
	}

	for _, tc := range cases {
		if got := tc.status.IsTerminal(); got != tc.terminal {
			t.Errorf("%s.IsTerminal() = %v", tc.status, got)
		}
		if got := tc.status.CanRetry(); got != tc.retry {
			t.Errorf("%s.CanRetry() = %v", tc.status, got)
		}
		if got := tc.status.RequiresAction(); got != tc.action {
			t.Errorf("%s.RequiresAction() = %v", tc.status, got)
		}
		if got := tc.status.IsProcessing(); got != tc.processing {
			t.Errorf("%s.IsProcessing() = %v", tc.status, got)
		}
		if got := tc.status.UserAction(); got != tc.userAction {
			t.Errorf("%s.UserAction() = %q, want %q", tc.status, got, tc.userAction)
		}
	}
}

func TestNewSessionUserStripsCredential(t *testing.T) {
	u := User{
		ID:       1,
		Email:    "jane@example.com",
		Password: "$2a$10$somebcrypthash",
		Spins:    10,
	}

	mirror := NewSessionUser(u)
	if mirror.Email != u.Email || mirror.Spins != u.Spins {
		t.Errorf("mirror lost fields: %+v", mirror)
	}
	// SessionUser has no credential field by construction; this test
	// documents that the projection is the only thing sessions may hold
}
