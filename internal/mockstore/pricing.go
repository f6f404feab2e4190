package mockstore

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/internal/id"
)

// fieldError is a problem with the client's payload that maps to an
// unprocessable-entity envelope keyed by field.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	return e.Field + " " + e.Message
}

// pricingCatalog is a snapshot of everything repricing needs, keyed for
// direct lookup.
type pricingCatalog struct {
	shop      *ShopMeta
	variants  map[int64]variantListing
	discounts map[string]*Discount
}

// variantListing pairs a variant with its owning product.
type variantListing struct {
	product *catalog.Product
	variant *catalog.Variant
}

// pricingCatalog loads the current catalog snapshot used to reprice a
// checkout. Fixture catalogs are small enough to load whole.
func (s *Store) pricingCatalog(ctx context.Context) (*pricingCatalog, error) {
	shop, err := s.shopMeta(ctx)
	if err != nil {
		return nil, err
	}
	pc := &pricingCatalog{
		shop:      shop,
		variants:  make(map[int64]variantListing),
		discounts: make(map[string]*Discount),
	}
	for p, err := range s.products.List(ctx) {
		if err != nil {
			return nil, err
		}
		for i := range p.Variants {
			pc.variants[p.Variants[i].ID] = variantListing{product: p, variant: &p.Variants[i]}
		}
	}
	for d, err := range s.discounts.List(ctx) {
		if err != nil {
			return nil, err
		}
		pc.discounts[normalizeCode(d.Code)] = d
	}
	return pc, nil
}

// repriceCheckout recomputes every server-owned money field on a checkout
// from the catalog snapshot: line item prices, subtotal, discount, tax,
// shipping and gift card usage, down to the final payment due. All
// arithmetic is in integer cents.
//
// A *fieldError return means the payload referenced something the catalog
// cannot price (unknown or unavailable variant); anything else is internal.
func repriceCheckout(co *checkout.Checkout, pc *pricingCatalog) error {
	co.Currency = pc.shop.Currency
	co.TaxesIncluded = false

	subtotal := int64(0)
	taxable := int64(0)
	requiresShipping := false
	for i := range co.LineItems {
		li := &co.LineItems[i]
		listing, ok := pc.variants[li.VariantID]
		if !ok {
			return &fieldError{"line_items", fmt.Sprintf("variant %d is unavailable", li.VariantID)}
		}
		if !listing.variant.Available {
			return &fieldError{"line_items", fmt.Sprintf("variant %d is not available for sale", li.VariantID)}
		}
		if li.Quantity < 1 {
			return &fieldError{"line_items", "quantity must be at least 1"}
		}
		if li.ID == "" {
			liID, err := id.Generate("li")
			if err != nil {
				return err
			}
			li.ID = liID
		}

		v := listing.variant
		price, err := parseCents(v.Price)
		if err != nil {
			return fmt.Errorf("product %s: %w", listing.product.ID, err)
		}
		li.ProductID = v.ProductID
		li.Title = listing.product.Title
		li.VariantTitle = v.Title
		li.Price = formatCents(price)
		li.CompareAtPrice = v.CompareAtPrice
		li.SKU = v.SKU
		li.Grams = v.Grams
		li.RequiresShipping = v.RequiresShipping
		li.Taxable = v.Taxable

		line := price * int64(li.Quantity)
		li.LinePrice = formatCents(line)
		subtotal += line
		if v.Taxable {
			taxable += line
		}
		if v.RequiresShipping {
			requiresShipping = true
		}
	}
	co.RequiresShipping = requiresShipping
	co.SubtotalPrice = formatCents(subtotal)

	discount := int64(0)
	if co.Discount != nil && co.Discount.Code != "" {
		d, ok := pc.discounts[normalizeCode(co.Discount.Code)]
		if !ok {
			co.Discount.Applicable = false
			co.Discount.Amount = formatCents(0)
		} else {
			amount, err := parseCents(d.Amount)
			if err != nil {
				return fmt.Errorf("discount %s: %w", d.Code, err)
			}
			discount = min(amount, subtotal)
			co.Discount.Applicable = true
			co.Discount.Amount = formatCents(discount)
		}
	}

	// Tax applies to taxable goods net of the discount.
	taxBase := max(taxable-discount, 0)
	tax := int64(0)
	co.TaxLines = nil
	if pc.shop.TaxRate > 0 && taxBase > 0 {
		tax = int64(math.Round(float64(taxBase) * pc.shop.TaxRate))
		title := pc.shop.TaxTitle
		if title == "" {
			title = "Tax"
		}
		co.TaxLines = []checkout.TaxLine{{
			Title: title,
			Price: formatCents(tax),
			Rate:  pc.shop.TaxRate,
		}}
	}
	co.TotalTax = formatCents(tax)

	shipping := int64(0)
	if co.ShippingRate != nil {
		amount, err := parseCents(co.ShippingRate.Price)
		if err != nil {
			return fmt.Errorf("shipping rate %s: %w", co.ShippingRate.ID, err)
		}
		shipping = amount
	}

	total := subtotal - discount + tax + shipping
	co.TotalPrice = formatCents(total)

	// Gift cards soak up payment in the order they were applied.
	due := total
	for i := range co.GiftCards {
		gc := &co.GiftCards[i]
		balance, err := parseCents(gc.Balance)
		if err != nil {
			return fmt.Errorf("gift card %d: %w", gc.ID, err)
		}
		used := min(balance, due)
		gc.AmountUsed = formatCents(used)
		due -= used
	}
	co.PaymentDue = formatCents(due)

	return nil
}

// parseCents parses a decimal money string ("54.99", "8.5", "11") into
// cents. The empty string is zero; signs and more than two decimal places
// are rejected.
func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		if len(frac) != 2 {
			return 0, fmt.Errorf("invalid money amount %q", s)
		}
	} else {
		frac = "00"
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("invalid money amount %q", s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q", s)
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	return units*100 + f, nil
}

// formatCents renders cents as the wire's decimal string, always with two
// decimal places.
func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
