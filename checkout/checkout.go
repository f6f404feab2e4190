package checkout

import "time"

// SourceName identifies checkouts created through this SDK. The platform
// uses it to attribute orders to the mobile sales channel.
const SourceName = "mobile_app"

// Checkout is the wire representation of an in-progress checkout. The
// server owns every derived field (money totals, reservation timers, web
// URLs); the client fills in line items, customer details and selections,
// then reads the recomputed state back after each create or update.
type Checkout struct {
	Token string `json:"token,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`

	LineItems []LineItem `json:"line_items" validate:"min=1,dive"`

	ShippingAddress *Address `json:"shipping_address,omitempty"`
	BillingAddress  *Address `json:"billing_address,omitempty"`

	// ShippingRate and ShippingRateID travel together; use SetShippingRate
	// to keep them in sync.
	ShippingRate   *ShippingRate `json:"shipping_rate,omitempty"`
	ShippingRateID string        `json:"shipping_rate_id,omitempty"`

	Discount  *Discount  `json:"discount,omitempty"`
	GiftCards []GiftCard `json:"gift_cards,omitempty"`

	RequiresShipping bool   `json:"requires_shipping,omitempty"`
	TaxesIncluded    bool   `json:"taxes_included,omitempty"`
	Currency         string `json:"currency,omitempty"`

	SubtotalPrice string    `json:"subtotal_price,omitempty"`
	TotalTax      string    `json:"total_tax,omitempty"`
	TotalPrice    string    `json:"total_price,omitempty"`
	PaymentDue    string    `json:"payment_due,omitempty"`
	TaxLines      []TaxLine `json:"tax_lines,omitempty"`

	// ReservationTime is how long, in seconds, the server holds inventory
	// for this checkout; ReservationTimeLeft counts down from it.
	ReservationTime     int64 `json:"reservation_time,omitempty"`
	ReservationTimeLeft int64 `json:"reservation_time_left,omitempty"`

	Note       string `json:"note,omitempty"`
	CustomerID int64  `json:"customer_id,omitempty"`

	Order *Order `json:"order,omitempty"`

	WebURL           string `json:"web_url,omitempty"`
	WebReturnToURL   string `json:"web_return_to_url,omitempty"`
	WebReturnToLabel string `json:"web_return_to_label,omitempty"`

	PrivacyPolicyURL  string `json:"privacy_policy_url,omitempty"`
	RefundPolicyURL   string `json:"refund_policy_url,omitempty"`
	TermsOfServiceURL string `json:"terms_of_service_url,omitempty"`

	SourceName       string                `json:"source_name,omitempty"`
	SourceIdentifier string                `json:"source_identifier,omitempty"`
	ChannelID        string                `json:"channel_id,omitempty"`
	Attribution      *MarketingAttribution `json:"marketing_attribution,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// New builds a checkout from the cart's current line items. The copy is
// detached: later cart changes do not affect the checkout.
func New(cart *Cart) *Checkout {
	c := &Checkout{SourceName: SourceName}
	if cart != nil {
		c.LineItems = cart.LineItems()
	}
	return c
}

// SetShippingRate selects a shipping rate and keeps ShippingRateID in sync
// with it. Passing nil clears both.
func (c *Checkout) SetShippingRate(rate *ShippingRate) {
	c.ShippingRate = rate
	if rate == nil {
		c.ShippingRateID = ""
		return
	}
	c.ShippingRateID = rate.ID
}

// SetDiscountCode attaches a discount code for the server to evaluate on
// the next update. An empty code clears the discount.
func (c *Checkout) SetDiscountCode(code string) {
	if code == "" {
		c.Discount = nil
		return
	}
	c.Discount = &Discount{Code: code}
}

// LineItem is one purchasable entry on a checkout. Price and LinePrice are
// decimal strings as transmitted; LinePrice and TaxLines are server-computed.
type LineItem struct {
	ID               string    `json:"id,omitempty"`
	VariantID        int64     `json:"variant_id" validate:"required"`
	ProductID        int64     `json:"product_id,omitempty"`
	Title            string    `json:"title,omitempty"`
	VariantTitle     string    `json:"variant_title,omitempty"`
	Price            string    `json:"price,omitempty"`
	LinePrice        string    `json:"line_price,omitempty"`
	CompareAtPrice   string    `json:"compare_at_price,omitempty"`
	SKU              string    `json:"sku,omitempty"`
	Grams            int       `json:"grams,omitempty"`
	Quantity         int       `json:"quantity" validate:"gte=1"`
	RequiresShipping bool      `json:"requires_shipping,omitempty"`
	Taxable          bool      `json:"taxable,omitempty"`
	TaxLines         []TaxLine `json:"tax_lines,omitempty"`
}

// TaxLine is one tax applied to a checkout or line item.
type TaxLine struct {
	Title string  `json:"title"`
	Price string  `json:"price"`
	Rate  float64 `json:"rate"`
}

// Discount is a discount code and, once the server has evaluated it, the
// amount it takes off.
type Discount struct {
	Code       string `json:"code"`
	Amount     string `json:"amount,omitempty"`
	Applicable bool   `json:"applicable,omitempty"`
}

// GiftCard is a gift card applied to a checkout. Code is only ever sent;
// responses identify cards by ID and last characters.
type GiftCard struct {
	ID             int64  `json:"id,omitempty"`
	Code           string `json:"code,omitempty"`
	LastCharacters string `json:"last_characters,omitempty"`
	Balance        string `json:"balance,omitempty"`
	AmountUsed     string `json:"amount_used,omitempty"`
}

// ShippingRate is one delivery option for a checkout's shipping address.
type ShippingRate struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Price         string      `json:"price"`
	DeliveryRange []time.Time `json:"delivery_range,omitempty"`
}

// Order is the completed order a checkout becomes after payment, reported
// back on the checkout once the platform has processed it.
type Order struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	StatusURL string `json:"status_url,omitempty"`
}

// MarketingAttribution records where a checkout came from for the
// merchant's reporting.
type MarketingAttribution struct {
	Source string `json:"source,omitempty"`
	Medium string `json:"medium,omitempty"`
}
