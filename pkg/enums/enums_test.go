package enums

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	for _, raw := range []string{"cash", "card", "mobile"} {
		got, err := ParsePaymentMethod(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got.String() != raw {
			t.Fatalf("expected %q got %q", raw, got)
		}
	}
	if _, err := ParsePaymentMethod("cheque"); err == nil {
		t.Fatal("expected unknown method to fail")
	}
}

func TestPaymentMethodIsAsync(t *testing.T) {
	if PaymentMethodCash.IsAsync() {
		t.Fatal("cash settles at the counter")
	}
	if !PaymentMethodCard.IsAsync() || !PaymentMethodMobile.IsAsync() {
		t.Fatal("card and mobile go through the gateway")
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	tests := map[PaymentStatus]bool{
		PaymentStatusPending:    false,
		PaymentStatusProcessing: false,
		PaymentStatusCompleted:  true,
		PaymentStatusFailed:     true,
	}
	for status, want := range tests {
		if status.IsTerminal() != want {
			t.Fatalf("status %s terminal=%v", status, !want)
		}
		if !status.IsValid() {
			t.Fatalf("status %s should be valid", status)
		}
	}
	if PaymentStatus("paid").IsValid() {
		t.Fatal("unexpected valid status")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("manager"); err != nil || r != RoleManager {
		t.Fatalf("unexpected parse result %q %v", r, err)
	}
	if _, err := ParseRole("Admin"); err == nil {
		t.Fatal("roles are case-sensitive")
	}
}

func TestParseCustomerFilterDefaultsToAll(t *testing.T) {
	got, err := ParseCustomerFilter("")
	if err != nil || got != CustomerFilterAll {
		t.Fatalf("expected all, got %q %v", got, err)
	}
	if _, err := ParseCustomerFilter("blocked"); err == nil {
		t.Fatal("expected unknown filter to fail")
	}
}
