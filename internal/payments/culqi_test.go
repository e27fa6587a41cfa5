package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCulqiChargeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/charges" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("authorization = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["amount"].(float64) != 10000 {
			t.Errorf("amount = %v", body["amount"])
		}
		if body["source_id"].(string) != "tkn_1" {
			t.Errorf("source_id = %v", body["source_id"])
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"object":"charge","id":"chr_live_1"}`))
	}))
	defer server.Close()

	client := NewCulqiClient("sk_test_123").WithBaseURL(server.URL)
	res, err := client.Charge(context.Background(), ChargeRequest{
		TokenID:     "tkn_1",
		AmountCents: 10000,
		Currency:    "PEN",
		Email:       "jugador@example.com",
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Status != ChargeSucceeded || res.ProviderRef != "chr_live_1" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCulqiChargeNeedsStepUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"charge","action_code":"REVIEW"}`))
	}))
	defer server.Close()

	client := NewCulqiClient("sk").WithBaseURL(server.URL)
	res, err := client.Charge(context.Background(), ChargeRequest{TokenID: "tkn_1"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Status != ChargeNeedsStepUp {
		t.Fatalf("result = %+v, want needs_step_up", res)
	}
}

func TestCulqiChargeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"object":"error","user_message":"Tarjeta sin fondos.","merchant_message":"insufficient funds"}`))
	}))
	defer server.Close()

	client := NewCulqiClient("sk").WithBaseURL(server.URL)
	res, err := client.Charge(context.Background(), ChargeRequest{TokenID: "tkn_1"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Status != ChargeFailed || res.Message != "Tarjeta sin fondos." {
		t.Fatalf("result = %+v", res)
	}
}

func TestCulqiChargeRejectedWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error"}`))
	}))
	defer server.Close()

	client := NewCulqiClient("sk").WithBaseURL(server.URL)
	res, err := client.Charge(context.Background(), ChargeRequest{TokenID: "tkn_1"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Status != ChargeFailed || res.Message != genericChargeMessage {
		t.Fatalf("result = %+v, want generic fallback message", res)
	}
}

func TestCulqiChargeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewCulqiClient("sk").WithBaseURL(server.URL)
	if _, err := client.Charge(context.Background(), ChargeRequest{TokenID: "tkn_1"}); err == nil {
		t.Fatal("expected error for 5xx response")
	}
}

func TestCulqiChargeSendsAssertion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		auth, ok := body["authentication_3DS"].(map[string]any)
		if !ok || auth["eci"] != "05" {
			t.Errorf("authentication_3DS = %v", body["authentication_3DS"])
		}
		w.Write([]byte(`{"object":"charge","id":"chr_2"}`))
	}))
	defer server.Close()

	client := NewCulqiClient("sk").WithBaseURL(server.URL)
	res, err := client.Charge(context.Background(), ChargeRequest{
		TokenID:         "tkn_1",
		StepUpAssertion: json.RawMessage(`{"eci":"05"}`),
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Status != ChargeSucceeded {
		t.Fatalf("result = %+v", res)
	}
}
