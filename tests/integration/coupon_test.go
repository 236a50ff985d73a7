//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func applyCoupon(t *testing.T, code string, subtotal float64) applyCouponResponse {
	t.Helper()

	req := applyCouponRequest{UserID: testUserID, Code: code, Subtotal: subtotal}
	resp := doPostWithAuth(t, "/api/coupons/apply", req, testToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	return decodeJSON[applyCouponResponse](t, resp)
}

func TestApplyCoupon_Percent(t *testing.T) {
	res := applyCoupon(t, "SAVE10", 1000)

	if !res.OK {
		t.Fatalf("expected ok, got reason %q", res.Reason)
	}
	if res.Discount != 100 {
		t.Errorf("discount: got %v, want 100", res.Discount)
	}
}

func TestApplyCoupon_PercentCapped(t *testing.T) {
	res := applyCoupon(t, "SAVE10", 5000)

	if !res.OK {
		t.Fatalf("expected ok, got reason %q", res.Reason)
	}
	// 10% of 5000 exceeds the 200 cap.
	if res.Discount != 200 {
		t.Errorf("discount: got %v, want 200", res.Discount)
	}
}

func TestApplyCoupon_CaseInsensitive(t *testing.T) {
	res := applyCoupon(t, "  save10  ", 1000)

	if !res.OK {
		t.Fatalf("expected ok, got reason %q", res.Reason)
	}
}

func TestApplyCoupon_NotFound(t *testing.T) {
	res := applyCoupon(t, "NONEXISTENT", 1000)

	if res.OK {
		t.Fatal("expected rejection")
	}
	if res.Reason != "NOT_FOUND" {
		t.Errorf("reason: got %q, want NOT_FOUND", res.Reason)
	}
}

func TestApplyCoupon_Expired(t *testing.T) {
	res := applyCoupon(t, "BYGONE20", 1000)

	if res.OK {
		t.Fatal("expected rejection")
	}
	if res.Reason != "EXPIRED" {
		t.Errorf("reason: got %q, want EXPIRED", res.Reason)
	}
}

func TestApplyCoupon_Inactive(t *testing.T) {
	res := applyCoupon(t, "VAULTED", 1000)

	if res.OK {
		t.Fatal("expected rejection")
	}
	if res.Reason != "INACTIVE" {
		t.Errorf("reason: got %q, want INACTIVE", res.Reason)
	}
}

func TestApplyCoupon_MinSpend(t *testing.T) {
	res := applyCoupon(t, "FREESHIP", 100)

	if res.OK {
		t.Fatal("expected rejection")
	}
	if res.Reason != "MIN_SPEND" {
		t.Errorf("reason: got %q, want MIN_SPEND", res.Reason)
	}
}

func TestApplyCoupon_NoAuth(t *testing.T) {
	req := applyCouponRequest{UserID: testUserID, Code: "SAVE10", Subtotal: 1000}
	resp := doPost(t, "/api/coupons/apply", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	res := decodeJSON[applyCouponResponse](t, resp)
	if res.OK {
		t.Fatal("expected rejection")
	}
	if res.Reason != "UNAUTHORIZED" {
		t.Errorf("reason: got %q, want UNAUTHORIZED", res.Reason)
	}
}
