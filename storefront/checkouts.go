package storefront

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/msautoparts/buy-sdk-go/checkout"
)

// ErrMissingToken is returned by checkout operations called before the
// checkout has been created server-side.
var ErrMissingToken = errors.New("storefront: checkout token is required")

// attributionMedium tags checkouts created through this SDK.
const attributionMedium = "mobile"

type checkoutEnvelope struct {
	Checkout *checkout.Checkout `json:"checkout"`
}

// CreateCheckout submits a new checkout built from a cart. The payload is
// validated before any network call. Source tracking fields are stamped from
// the client config; the server computes prices, taxes and reservation state
// and returns the canonical checkout carrying its token.
func (c *Client) CreateCheckout(ctx context.Context, co *checkout.Checkout) (*checkout.Checkout, error) {
	const op = "createCheckout"
	if co == nil {
		return nil, wrapError(op, "", ErrBadRequest)
	}

	co.SourceName = checkout.SourceName
	co.ChannelID = c.cfg.ChannelID
	co.SourceIdentifier = c.cfg.ChannelID
	if c.cfg.ApplicationName != "" && co.Attribution == nil {
		co.Attribution = &checkout.MarketingAttribution{
			Source: c.cfg.ApplicationName,
			Medium: attributionMedium,
		}
	}

	if err := c.validate.Validate(co); err != nil {
		return nil, wrapError(op, "", err)
	}

	const path = "/api/checkouts.json"
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, checkoutEnvelope{Checkout: co})
	if err != nil {
		return nil, wrapError(op, path, err)
	}
	return decodeCheckoutEnvelope(op, path, body)
}

// UpdateCheckout pushes local checkout changes (email, addresses, shipping
// rate, discount, note) and returns the recomputed checkout.
func (c *Client) UpdateCheckout(ctx context.Context, co *checkout.Checkout) (*checkout.Checkout, error) {
	const op = "updateCheckout"
	if co == nil {
		return nil, wrapError(op, "", ErrBadRequest)
	}
	if co.Token == "" {
		return nil, wrapError(op, "", ErrMissingToken)
	}

	if err := c.validate.Validate(co); err != nil {
		return nil, wrapError(op, "", err)
	}

	path := checkoutPath(co.Token, "")
	body, err := c.doRequest(ctx, http.MethodPatch, path, nil, checkoutEnvelope{Checkout: co})
	if err != nil {
		return nil, wrapError(op, path, err)
	}
	return decodeCheckoutEnvelope(op, path, body)
}

// GetCheckout retrieves the current server state of a checkout.
func (c *Client) GetCheckout(ctx context.Context, token string) (*checkout.Checkout, error) {
	const op = "getCheckout"
	if token == "" {
		return nil, wrapError(op, "", ErrMissingToken)
	}

	path := checkoutPath(token, "")
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, wrapError(op, path, err)
	}
	return decodeCheckoutEnvelope(op, path, body)
}

// GetShippingRates fetches the shipping rates for a checkout's shipping
// address. Rate calculation is asynchronous server-side: while it is still
// running the server answers 202 and this returns ErrShippingRatesPending.
// Polling cadence is the caller's choice.
func (c *Client) GetShippingRates(ctx context.Context, token string) ([]checkout.ShippingRate, error) {
	const op = "getShippingRates"
	if token == "" {
		return nil, wrapError(op, "", ErrMissingToken)
	}

	path := checkoutPath(token, "/shipping_rates.json")
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, wrapError(op, path, err)
	}

	var resp struct {
		ShippingRates []checkout.ShippingRate `json:"shipping_rates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError(op, path, fmt.Errorf("parse response: %w", err))
	}
	return resp.ShippingRates, nil
}

// ApplyGiftCard redeems a gift card code against a checkout and returns the
// updated checkout with the recomputed payment due.
func (c *Client) ApplyGiftCard(ctx context.Context, token, code string) (*checkout.Checkout, error) {
	const op = "applyGiftCard"
	if token == "" {
		return nil, wrapError(op, "", ErrMissingToken)
	}
	if code == "" {
		return nil, wrapError(op, "", ErrBadRequest)
	}

	payload := struct {
		GiftCard checkout.GiftCard `json:"gift_card"`
	}{GiftCard: checkout.GiftCard{Code: code}}

	path := checkoutPath(token, "/gift_cards.json")
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, wrapError(op, path, err)
	}
	return decodeCheckoutEnvelope(op, path, body)
}

// RemoveGiftCard takes a previously applied gift card off a checkout and
// returns the updated checkout.
func (c *Client) RemoveGiftCard(ctx context.Context, token string, giftCardID int64) (*checkout.Checkout, error) {
	const op = "removeGiftCard"
	if token == "" {
		return nil, wrapError(op, "", ErrMissingToken)
	}

	path := checkoutPath(token, "/gift_cards/"+strconv.FormatInt(giftCardID, 10)+".json")
	body, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return nil, wrapError(op, path, err)
	}
	return decodeCheckoutEnvelope(op, path, body)
}

func checkoutPath(token, suffix string) string {
	if suffix == "" {
		return "/api/checkouts/" + url.PathEscape(token) + ".json"
	}
	return "/api/checkouts/" + url.PathEscape(token) + suffix
}

func decodeCheckoutEnvelope(op, path string, body []byte) (*checkout.Checkout, error) {
	var resp checkoutEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError(op, path, fmt.Errorf("parse response: %w", err))
	}
	if resp.Checkout == nil {
		return nil, wrapError(op, path, fmt.Errorf("parse response: missing checkout"))
	}
	return resp.Checkout, nil
}
