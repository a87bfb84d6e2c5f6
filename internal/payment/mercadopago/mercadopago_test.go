package mercadopago

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1000, "10.00"},
		{12345, "123.45"},
		{7000, "70.00"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.cents); got != tc.want {
			t.Fatalf("FormatAmount(%d) want %s got %s", tc.cents, tc.want, got)
		}
	}
}

func TestCentsFromAmount(t *testing.T) {
	if got := centsFromAmount(float64(123.45)); got != 12345 {
		t.Fatalf("float amount want 12345 got %d", got)
	}
	if got := centsFromAmount("70.00"); got != 7000 {
		t.Fatalf("string amount want 7000 got %d", got)
	}
	if got := centsFromAmount(nil); got != 0 {
		t.Fatalf("nil amount want 0 got %d", got)
	}
}

func TestGetPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v1/payments/555":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":555,"status":"approved","status_detail":"accredited","external_reference":"PD-1-abc","transaction_amount":70.00,"payment_method_id":"pix","date_approved":"2026-08-01T10:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	defer server.Close()

	cfg := &Config{AccessToken: "test-token", BaseURL: server.URL}

	got, err := GetPayment(context.Background(), cfg, "555")
	if err != nil {
		t.Fatalf("get payment failed: %v", err)
	}
	if got.ID != "555" || got.Status != "approved" {
		t.Fatalf("unexpected payment: %+v", got)
	}
	if got.ExternalReference != "PD-1-abc" {
		t.Fatalf("external_reference want PD-1-abc got %s", got.ExternalReference)
	}
	if got.AmountCents != 7000 {
		t.Fatalf("amount cents want 7000 got %d", got.AmountCents)
	}
	if got.PaidAt == nil {
		t.Fatalf("expected paid_at to be parsed")
	}

	_, err = GetPayment(context.Background(), cfg, "999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestGetMerchantOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/merchant_orders/777" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":777,"status":"closed","external_reference":"PD-1-abc","payments":[{"id":555,"status":"approved"},{"id":556,"status":"rejected"}]}`))
	}))
	defer server.Close()

	cfg := &Config{AccessToken: "test-token", BaseURL: server.URL}

	got, err := GetMerchantOrder(context.Background(), cfg, "777")
	if err != nil {
		t.Fatalf("get merchant order failed: %v", err)
	}
	if len(got.PaymentIDs) != 2 || got.PaymentIDs[0] != "555" || got.PaymentIDs[1] != "556" {
		t.Fatalf("payment ids want [555 556] got %v", got.PaymentIDs)
	}
}

func TestCreatePreference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-123","init_point":"https://pago.example/init/pref-123","sandbox_init_point":"https://sandbox.example/init/pref-123"}`))
	}))
	defer server.Close()

	cfg := &Config{AccessToken: "test-token", BaseURL: server.URL}

	got, err := CreatePreference(context.Background(), cfg, CreateInput{
		ExternalReference: "VC-1-abc",
		Items: []PreferenceItem{
			{Title: "Cupom Sonho 50", Quantity: 1, UnitPriceCents: 1000},
		},
	})
	if err != nil {
		t.Fatalf("create preference failed: %v", err)
	}
	if got.PreferenceID != "pref-123" {
		t.Fatalf("preference id want pref-123 got %s", got.PreferenceID)
	}
	if got.InitPoint == "" {
		t.Fatalf("expected init point")
	}
}

func TestCreatePreferenceRejectsInvalidInput(t *testing.T) {
	cfg := &Config{AccessToken: "test-token"}

	_, err := CreatePreference(context.Background(), cfg, CreateInput{ExternalReference: "VC-1-abc"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for empty items got %v", err)
	}

	_, err = CreatePreference(context.Background(), cfg, CreateInput{
		ExternalReference: "VC-1-abc",
		Items:             []PreferenceItem{{Title: "x", Quantity: 0, UnitPriceCents: 100}},
	})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid for zero quantity got %v", err)
	}
}
