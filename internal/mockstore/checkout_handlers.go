package mockstore

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/internal/id"
	"github.com/msautoparts/buy-sdk-go/internal/region"
	"github.com/msautoparts/buy-sdk-go/internal/validation"
)

// defaultReservationSeconds is how long a new checkout holds inventory.
const defaultReservationSeconds = 300

// rateQuote is the set of rates a checkout was offered, pinned to the
// destination they were computed for. Selected rates are resolved against
// the stored quote, never recomputed, so their IDs stay stable.
type rateQuote struct {
	Country string                  `json:"country"`
	Rates   []checkout.ShippingRate `json:"rates"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	co, err := decodeCheckoutPayload(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid checkout payload", s.logger)
		return
	}
	if err := s.validate.Validate(co); err != nil {
		s.writeCheckoutError(w, err)
		return
	}

	meta, err := s.store.shopMeta(ctx)
	if err != nil {
		s.logger.Error("Failed to load shop meta", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	now := time.Now().UTC()
	co.Token = uuid.NewString()
	co.CreatedAt = now
	co.UpdatedAt = now
	if co.SourceName == "" {
		co.SourceName = checkout.SourceName
	}
	if co.ReservationTime <= 0 {
		co.ReservationTime = defaultReservationSeconds
	}
	co.WebURL = fmt.Sprintf("https://%s/checkout/%s", meta.Domain, co.Token)
	co.PrivacyPolicyURL = meta.PrivacyPolicyURL
	co.RefundPolicyURL = meta.RefundPolicyURL
	co.TermsOfServiceURL = meta.TermsOfServiceURL

	// Gift cards, rates and orders only attach through their own endpoints.
	co.GiftCards = nil
	co.Order = nil
	co.SetShippingRate(nil)

	if err := s.priceCheckout(ctx, co); err != nil {
		s.writeCheckoutError(w, err)
		return
	}
	if err := s.store.checkouts.Put(ctx, co.Token, co); err != nil {
		s.logger.Error("Failed to store checkout", "error", err, "token", co.Token)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	s.logger.Info("Checkout created", "token", co.Token, "line_items", len(co.LineItems))
	refreshReservation(co)
	writeJSON(w, http.StatusCreated, checkoutEnvelope{Checkout: co}, s.logger)
}

func (s *Server) handleUpdateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	stored := s.loadCheckout(w, r)
	if stored == nil {
		return
	}
	in, err := decodeCheckoutPayload(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid checkout payload", s.logger)
		return
	}

	previousCountry := checkoutCountry(stored)
	applyClientFields(stored, in)

	switch {
	case checkoutCountry(stored) != previousCountry:
		// Destination changed: quoted rates no longer apply and the client
		// has to poll for fresh ones.
		if err := s.store.quotes.Delete(ctx, token); err != nil {
			s.logger.Error("Failed to drop rate quote", "error", err, "token", token)
			writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
			return
		}
		s.resetRatesPrimed(token)
		stored.SetShippingRate(nil)
	case in.ShippingRate != nil || in.ShippingRateID != "":
		rateID := in.ShippingRateID
		if rateID == "" {
			rateID = in.ShippingRate.ID
		}
		rate, err := s.quotedRate(ctx, token, rateID)
		if err != nil {
			s.writeCheckoutError(w, err)
			return
		}
		stored.SetShippingRate(rate)
	default:
		stored.SetShippingRate(nil)
	}

	if err := s.validate.Validate(stored); err != nil {
		s.writeCheckoutError(w, err)
		return
	}
	if err := s.priceCheckout(ctx, stored); err != nil {
		s.writeCheckoutError(w, err)
		return
	}

	stored.UpdatedAt = time.Now().UTC()
	if err := s.store.checkouts.Put(ctx, token, stored); err != nil {
		s.logger.Error("Failed to store checkout", "error", err, "token", token)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	refreshReservation(stored)
	writeJSON(w, http.StatusOK, checkoutEnvelope{Checkout: stored}, s.logger)
}

func (s *Server) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	co := s.loadCheckout(w, r)
	if co == nil {
		return
	}
	refreshReservation(co)
	writeJSON(w, http.StatusOK, checkoutEnvelope{Checkout: co}, s.logger)
}

func (s *Server) handleGetShippingRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	co := s.loadCheckout(w, r)
	if co == nil {
		return
	}
	if co.ShippingAddress == nil {
		writeFieldError(w, http.StatusUnprocessableEntity, "shipping_address", "can't be blank", s.logger)
		return
	}
	country := checkoutCountry(co)
	if country == "" {
		writeFieldError(w, http.StatusUnprocessableEntity, "shipping_address", "country is not recognized", s.logger)
		return
	}

	meta, err := s.store.shopMeta(ctx)
	if err != nil {
		s.logger.Error("Failed to load shop meta", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}
	if len(meta.ShipsToCountries) > 0 && !slices.Contains(meta.ShipsToCountries, country) {
		msg := fmt.Sprintf("we do not ship to %s", region.CountryName(country))
		writeFieldError(w, http.StatusUnprocessableEntity, "shipping_address", msg, s.logger)
		return
	}

	if !s.primeRates(token) {
		// First poll answers 202 while rates are "computed", matching the
		// asynchronous behavior clients must handle against the platform.
		writeJSON(w, http.StatusAccepted, shippingRatesEnvelope{ShippingRates: []checkout.ShippingRate{}}, s.logger)
		return
	}

	quote, err := s.store.quotes.Get(ctx, token)
	if errors.Is(err, ErrNotFound) || (err == nil && quote.Country != country) {
		quote, err = s.buildQuote(ctx, token, country)
	}
	if err != nil {
		s.logger.Error("Failed to quote shipping rates", "error", err, "token", token)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	writeJSON(w, http.StatusOK, shippingRatesEnvelope{ShippingRates: quote.Rates}, s.logger)
}

func (s *Server) handleApplyGiftCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	co := s.loadCheckout(w, r)
	if co == nil {
		return
	}

	var payload struct {
		GiftCard *checkout.GiftCard `json:"gift_card"`
	}
	if err := json.UnmarshalRead(r.Body, &payload); err != nil || payload.GiftCard == nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid gift card payload", s.logger)
		return
	}
	code := strings.TrimSpace(payload.GiftCard.Code)
	if code == "" {
		writeFieldError(w, http.StatusUnprocessableEntity, "gift_card", "code can't be blank", s.logger)
		return
	}

	card, err := s.store.giftCards.Get(ctx, normalizeCode(code))
	if errors.Is(err, ErrNotFound) {
		writeFieldError(w, http.StatusUnprocessableEntity, "gift_card", "code is invalid", s.logger)
		return
	}
	if err != nil {
		s.logger.Error("Failed to load gift card", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}
	for i := range co.GiftCards {
		if co.GiftCards[i].ID == card.ID {
			writeFieldError(w, http.StatusUnprocessableEntity, "gift_card", "has already been applied", s.logger)
			return
		}
	}

	co.GiftCards = append(co.GiftCards, checkout.GiftCard{
		ID:             card.ID,
		LastCharacters: lastCharacters(card.Code),
		Balance:        card.Balance,
	})

	if err := s.priceCheckout(ctx, co); err != nil {
		s.writeCheckoutError(w, err)
		return
	}
	co.UpdatedAt = time.Now().UTC()
	if err := s.store.checkouts.Put(ctx, token, co); err != nil {
		s.logger.Error("Failed to store checkout", "error", err, "token", token)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	refreshReservation(co)
	writeJSON(w, http.StatusCreated, checkoutEnvelope{Checkout: co}, s.logger)
}

func (s *Server) handleRemoveGiftCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	co := s.loadCheckout(w, r)
	if co == nil {
		return
	}
	cardID, err := strconv.ParseInt(chi.URLParam(r, "giftCardID"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusNotFound, "Not Found", s.logger)
		return
	}
	idx := slices.IndexFunc(co.GiftCards, func(gc checkout.GiftCard) bool { return gc.ID == cardID })
	if idx < 0 {
		writeErrorMessage(w, http.StatusNotFound, "Not Found", s.logger)
		return
	}
	co.GiftCards = slices.Delete(co.GiftCards, idx, idx+1)

	if err := s.priceCheckout(ctx, co); err != nil {
		s.writeCheckoutError(w, err)
		return
	}
	co.UpdatedAt = time.Now().UTC()
	if err := s.store.checkouts.Put(ctx, token, co); err != nil {
		s.logger.Error("Failed to store checkout", "error", err, "token", token)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	refreshReservation(co)
	writeJSON(w, http.StatusOK, checkoutEnvelope{Checkout: co}, s.logger)
}

// loadCheckout fetches the checkout for a token-scoped handler, answering
// 404 or 500 itself. A nil return means the response was already written.
func (s *Server) loadCheckout(w http.ResponseWriter, r *http.Request) *checkout.Checkout {
	token := chi.URLParam(r, "token")
	co, err := s.store.checkouts.Get(r.Context(), token)
	if errors.Is(err, ErrNotFound) {
		writeErrorMessage(w, http.StatusNotFound, "Not Found", s.logger)
		return nil
	}
	if err != nil {
		s.logger.Error("Failed to load checkout", "error", err, "token", token)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return nil
	}
	return co
}

// priceCheckout reprices co against the current catalog.
func (s *Server) priceCheckout(ctx context.Context, co *checkout.Checkout) error {
	pc, err := s.store.pricingCatalog(ctx)
	if err != nil {
		return err
	}
	return repriceCheckout(co, pc)
}

// writeCheckoutError maps a checkout processing failure to the right
// envelope: payload problems answer 422, everything else 500.
func (s *Server) writeCheckoutError(w http.ResponseWriter, err error) {
	var ferr *fieldError
	if errors.As(err, &ferr) {
		writeFieldError(w, http.StatusUnprocessableEntity, ferr.Field, ferr.Message, s.logger)
		return
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		fields := make(map[string][]string, len(verr.Fields))
		for name, msg := range verr.Fields {
			fields[name] = []string{msg}
		}
		writeFieldErrors(w, http.StatusUnprocessableEntity, fields, s.logger)
		return
	}
	s.logger.Error("Checkout processing failed", "error", err)
	writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
}

// buildQuote computes and stores the shipping rates offered for a
// destination. The quote sticks to the checkout so a rate the client
// selected stays resolvable on later updates.
func (s *Server) buildQuote(ctx context.Context, token, country string) (*rateQuote, error) {
	table, err := s.store.rateTable(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fixtures := table[country]
	rates := make([]checkout.ShippingRate, 0, len(fixtures))
	for _, f := range fixtures {
		rateID, err := id.Short("rate")
		if err != nil {
			return nil, err
		}
		cents, err := parseCents(f.Price)
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", f.Title, err)
		}
		rate := checkout.ShippingRate{
			ID:    rateID,
			Title: f.Title,
			Price: formatCents(cents),
		}
		if f.MaxDays > 0 {
			rate.DeliveryRange = []time.Time{
				now.AddDate(0, 0, f.MinDays),
				now.AddDate(0, 0, f.MaxDays),
			}
		}
		rates = append(rates, rate)
	}

	quote := &rateQuote{Country: country, Rates: rates}
	if err := s.store.quotes.Put(ctx, token, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// quotedRate resolves a rate the client selected against the rates this
// checkout was actually quoted.
func (s *Server) quotedRate(ctx context.Context, token, rateID string) (*checkout.ShippingRate, error) {
	quote, err := s.store.quotes.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, &fieldError{"shipping_rate", "has not been quoted for this checkout"}
	}
	if err != nil {
		return nil, err
	}
	for i := range quote.Rates {
		if quote.Rates[i].ID == rateID {
			return &quote.Rates[i], nil
		}
	}
	return nil, &fieldError{"shipping_rate", "is not valid for this checkout"}
}

// primeRates marks a checkout's rates as requested and reports whether they
// already were.
func (s *Server) primeRates(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	primed := s.ratesPrimed[token]
	s.ratesPrimed[token] = true
	return primed
}

func (s *Server) resetRatesPrimed(token string) {
	s.mu.Lock()
	delete(s.ratesPrimed, token)
	s.mu.Unlock()
}

// applyClientFields copies the client-owned fields of in onto stored.
// Server-owned fields (token, totals, gift cards, policy URLs, timestamps)
// are kept; the shipping rate selection is handled separately because it
// needs quote validation.
func applyClientFields(stored, in *checkout.Checkout) {
	stored.Email = in.Email
	stored.LineItems = in.LineItems
	stored.ShippingAddress = in.ShippingAddress
	stored.BillingAddress = in.BillingAddress
	stored.Discount = in.Discount
	stored.Note = in.Note
	stored.CustomerID = in.CustomerID
	stored.WebReturnToURL = in.WebReturnToURL
	stored.WebReturnToLabel = in.WebReturnToLabel
	stored.Attribution = in.Attribution
	stored.SourceIdentifier = in.SourceIdentifier
	stored.ChannelID = in.ChannelID
	if in.SourceName != "" {
		stored.SourceName = in.SourceName
	}
	if in.ReservationTime > 0 {
		stored.ReservationTime = in.ReservationTime
	}
}

// checkoutCountry normalizes the checkout's destination to an alpha-2 code,
// or "" when there is no shipping address or the country is unrecognized.
func checkoutCountry(co *checkout.Checkout) string {
	if co.ShippingAddress == nil {
		return ""
	}
	if code := region.CountryCode(co.ShippingAddress.CountryCode); code != "" {
		return code
	}
	return region.CountryCode(co.ShippingAddress.Country)
}

// refreshReservation recomputes the inventory hold countdown for serving.
func refreshReservation(co *checkout.Checkout) {
	if co.ReservationTime <= 0 || co.CreatedAt.IsZero() {
		co.ReservationTimeLeft = 0
		return
	}
	left := co.ReservationTime - int64(time.Since(co.CreatedAt).Seconds())
	co.ReservationTimeLeft = max(left, 0)
}

// lastCharacters is how responses identify a card without echoing the code.
func lastCharacters(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) <= 4 {
		return code
	}
	return code[len(code)-4:]
}

func decodeCheckoutPayload(r *http.Request) (*checkout.Checkout, error) {
	var payload struct {
		Checkout *checkout.Checkout `json:"checkout"`
	}
	if err := json.UnmarshalRead(r.Body, &payload); err != nil {
		return nil, err
	}
	if payload.Checkout == nil {
		return nil, errors.New("missing checkout object")
	}
	return payload.Checkout, nil
}
