package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
)

func TestInitiateChargeMapsResponse(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charge" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("bad request body: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Charge attempted",
			"data": map[string]interface{}{
				"reference":    "ref-abc",
				"status":       "pay_offline",
				"display_text": "Complete the payment on your phone",
			},
		})
	}))
	defer ts.Close()

	repo := NewPaystackRepository(PaystackConfig{SecretKey: "sk_test", BaseURL: ts.URL})

	res, err := repo.InitiateCharge(context.Background(), domain.ChargeRequest{
		UserID: 7,
		Email:  "jane@example.com",
		Amount: 150,
		Phone:  "+254712345678",
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if gotAuth != "Bearer sk_test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody["amount"] != float64(15000) {
		t.Errorf("amount = %v, want 15000 subunits", gotBody["amount"])
	}
	if gotBody["currency"] != "KES" {
		t.Errorf("currency = %v", gotBody["currency"])
	}

	if res.Reference != "ref-abc" || res.Status != domain.ChargePayOffline {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.DisplayText != "Complete the payment on your phone" {
		t.Errorf("display text = %q", res.DisplayText)
	}
}

func TestVerifyChargeSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-abc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"reference":        "ref-abc",
				"status":           "success",
				"gateway_response": "Approved",
			},
		})
	}))
	defer ts.Close()

	repo := NewPaystackRepository(PaystackConfig{SecretKey: "sk_test", BaseURL: ts.URL})

	res, err := repo.VerifyCharge(context.Background(), "ref-abc")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if res.Status != domain.ChargeSuccess || res.Message != "Approved" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestGatewayErrorDoesNotLeakRawBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer ts.Close()

	repo := NewPaystackRepository(PaystackConfig{SecretKey: "bad", BaseURL: ts.URL})

	if _, err := repo.VerifyCharge(context.Background(), "ref-abc"); err == nil {
		t.Fatal("expected error on non-2xx")
	}
}

func TestUnknownStatusCollapsesToPending(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"reference": "ref-abc",
				"status":    "something_new",
			},
		})
	}))
	defer ts.Close()

	repo := NewPaystackRepository(PaystackConfig{SecretKey: "sk_test", BaseURL: ts.URL})

	res, err := repo.VerifyCharge(context.Background(), "ref-abc")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if res.Status != domain.ChargePending {
		t.Errorf("status = %q, want pending", res.Status)
	}
}
