package mockstore

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/storefront"
)

// Response envelopes mirror the storefront wire format exactly: every
// resource is wrapped in a named object, and errors come back under a
// top-level "errors" key that is either a string or a field map.

type shopEnvelope struct {
	Shop storefront.Shop `json:"shop"`
}

type productEnvelope struct {
	Product *catalog.Product `json:"product"`
}

type productsEnvelope struct {
	Products []catalog.Product `json:"products"`
}

type collectionsEnvelope struct {
	Collections []catalog.Collection `json:"collections"`
}

type checkoutEnvelope struct {
	Checkout *checkout.Checkout `json:"checkout"`
}

type shippingRatesEnvelope struct {
	ShippingRates []checkout.ShippingRate `json:"shipping_rates"`
}

type fieldErrorsEnvelope struct {
	Errors map[string][]string `json:"errors"`
}

type messageErrorEnvelope struct {
	Errors string `json:"errors"`
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.MarshalWrite(w, v); err != nil && logger != nil {
		logger.Error("Failed to write response", "error", err)
	}
}

// writeFieldErrors writes the per-field error envelope, e.g.
// {"errors":{"line_items":["can't be blank"]}}.
func writeFieldErrors(w http.ResponseWriter, status int, fields map[string][]string, logger *slog.Logger) {
	writeJSON(w, status, fieldErrorsEnvelope{Errors: fields}, logger)
}

// writeFieldError writes a single-field error envelope.
func writeFieldError(w http.ResponseWriter, status int, field, message string, logger *slog.Logger) {
	writeFieldErrors(w, status, map[string][]string{field: {message}}, logger)
}

// writeErrorMessage writes the string error envelope, e.g.
// {"errors":"Not Found"}.
func writeErrorMessage(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	writeJSON(w, status, messageErrorEnvelope{Errors: msg}, logger)
}
