package storefront

import (
	"context"
	"encoding/json/v2"
	"errors"
	"net/http"
	"testing"

	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/internal/validation"
)

const testToken = "3b7d0b2c-8f1e-4a4e-9b6e-2f0c55c3f3aa"

func draftCheckout() *checkout.Checkout {
	return &checkout.Checkout{
		Email: "wrench@garage.example",
		LineItems: []checkout.LineItem{
			{VariantID: 31001, Quantity: 2},
		},
	}
}

func TestClient_CreateCheckout(t *testing.T) {
	fixture := loadFixture(t, "checkout_response.json")

	var gotMethod, gotPath string
	var gotBody checkoutEnvelope
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.UnmarshalRead(r.Body, &gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write(fixture)
	})

	created, err := client.CreateCheckout(context.Background(), draftCheckout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/checkouts.json" {
		t.Errorf("expected POST /api/checkouts.json, got %s %s", gotMethod, gotPath)
	}

	// Source tracking is stamped before the request goes out.
	sent := gotBody.Checkout
	if sent == nil {
		t.Fatal("request carried no checkout")
	}
	if sent.SourceName != "mobile_app" {
		t.Errorf("expected source_name mobile_app, got %q", sent.SourceName)
	}
	if sent.ChannelID != "test-channel" || sent.SourceIdentifier != "test-channel" {
		t.Errorf("expected channel stamping, got channel %q identifier %q", sent.ChannelID, sent.SourceIdentifier)
	}
	if sent.Attribution == nil || sent.Attribution.Source != "sdk-tests" || sent.Attribution.Medium != "mobile" {
		t.Errorf("unexpected attribution %+v", sent.Attribution)
	}

	// The server's canonical state comes back.
	if created.Token != testToken {
		t.Errorf("expected token %q, got %q", testToken, created.Token)
	}
	if created.PaymentDue != "99.58" {
		t.Errorf("expected payment due 99.58, got %q", created.PaymentDue)
	}
	if len(created.TaxLines) != 1 || created.TaxLines[0].Rate != 0.06 {
		t.Errorf("unexpected tax lines %+v", created.TaxLines)
	}
	if created.ReservationTime != 300 {
		t.Errorf("expected reservation time 300, got %d", created.ReservationTime)
	}
}

func TestClient_CreateCheckout_InvalidPayload(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid checkout should not reach the server")
	})

	// No line items: rejected locally before any network call.
	_, err := client.CreateCheckout(context.Background(), checkout.New(nil))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	if _, ok := vErr.Fields["line_items"]; !ok {
		t.Errorf("expected line_items in field errors, got %v", vErr.Fields)
	}
}

func TestClient_UpdateCheckout(t *testing.T) {
	fixture := loadFixture(t, "checkout_response.json")

	var gotMethod, gotPath string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write(fixture)
	})

	co := draftCheckout()
	co.Token = testToken
	co.Note = "leave at the service desk"

	updated, err := client.UpdateCheckout(context.Background(), co)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/api/checkouts/"+testToken+".json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if updated.SubtotalPrice != "109.98" {
		t.Errorf("expected recomputed subtotal, got %q", updated.SubtotalPrice)
	}
}

func TestClient_UpdateCheckout_RequiresToken(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("tokenless update should not reach the server")
	})

	_, err := client.UpdateCheckout(context.Background(), draftCheckout())
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestClient_GetCheckout(t *testing.T) {
	fixture := loadFixture(t, "checkout_response.json")

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture)
	})

	co, err := client.GetCheckout(context.Background(), testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if co.Email != "wrench@garage.example" {
		t.Errorf("unexpected email %q", co.Email)
	}
	if co.ShippingAddress == nil || co.ShippingAddress.City != "Hamtramck" {
		t.Errorf("unexpected shipping address %+v", co.ShippingAddress)
	}
	if len(co.GiftCards) != 1 || co.GiftCards[0].LastCharacters != "h4rn" {
		t.Errorf("unexpected gift cards %+v", co.GiftCards)
	}
	if co.CreatedAt.IsZero() {
		t.Error("expected created_at to be parsed")
	}
}

func TestClient_GetShippingRates(t *testing.T) {
	fixture := loadFixture(t, "shipping_rates_response.json")

	var gotPath string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(fixture)
	})

	rates, err := client.GetShippingRates(context.Background(), testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/checkouts/"+testToken+"/shipping_rates.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(rates))
	}
	if rates[0].ID != "rate-standard-us" || rates[0].Price != "8.00" {
		t.Errorf("unexpected first rate %+v", rates[0])
	}
	if len(rates[0].DeliveryRange) != 2 {
		t.Errorf("expected delivery range to be parsed, got %+v", rates[0].DeliveryRange)
	}
}

func TestClient_GetShippingRates_Pending(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	_, err := client.GetShippingRates(context.Background(), testToken)
	if !errors.Is(err, ErrShippingRatesPending) {
		t.Errorf("expected ErrShippingRatesPending, got %v", err)
	}
}

func TestClient_ApplyGiftCard(t *testing.T) {
	fixture := loadFixture(t, "checkout_response.json")

	var gotMethod, gotPath string
	var gotBody struct {
		GiftCard checkout.GiftCard `json:"gift_card"`
	}
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.UnmarshalRead(r.Body, &gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write(fixture)
	})

	co, err := client.ApplyGiftCard(context.Background(), testToken, "WINTERH4RN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/api/checkouts/"+testToken+"/gift_cards.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotBody.GiftCard.Code != "WINTERH4RN" {
		t.Errorf("expected code in request body, got %q", gotBody.GiftCard.Code)
	}
	if co.PaymentDue != "99.58" {
		t.Errorf("expected updated payment due, got %q", co.PaymentDue)
	}
}

func TestClient_ApplyGiftCard_EmptyCode(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty code should not reach the server")
	})

	_, err := client.ApplyGiftCard(context.Background(), testToken, "")
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}

func TestClient_RemoveGiftCard(t *testing.T) {
	fixture := loadFixture(t, "checkout_response.json")

	var gotMethod, gotPath string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write(fixture)
	})

	_, err := client.RemoveGiftCard(context.Background(), testToken, 700101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/api/checkouts/"+testToken+"/gift_cards/700101.json" {
		t.Errorf("unexpected path %q", gotPath)
	}
}
