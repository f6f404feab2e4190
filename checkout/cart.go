// Package checkout models the buying side of the storefront API: a local
// cart, the checkout created from it, and the supporting value types
// (addresses, shipping rates, gift cards, tax lines).
//
// Unlike catalog entities, a Checkout is mutable client-side state until it
// is submitted; the server recomputes all derived money fields on every
// create and update.
package checkout

import (
	"github.com/msautoparts/buy-sdk-go/catalog"
)

// Cart accumulates variant selections before a checkout exists. It keeps
// one line item per variant and folds repeated adds into the quantity.
// A Cart is not safe for concurrent use.
type Cart struct {
	lineItems []LineItem
}

// AddVariant adds one unit of the variant, merging into the existing line
// item if the variant is already in the cart.
func (c *Cart) AddVariant(v *catalog.Variant) {
	if v == nil {
		return
	}
	if li := c.lineItem(v.ID); li != nil {
		li.Quantity++
		return
	}
	c.lineItems = append(c.lineItems, lineItemFromVariant(v, 1))
}

// DecrementVariant removes one unit of the variant. The line item is
// dropped when its quantity reaches zero; decrementing a variant that is
// not in the cart is a no-op.
func (c *Cart) DecrementVariant(v *catalog.Variant) {
	if v == nil {
		return
	}
	for i := range c.lineItems {
		if c.lineItems[i].VariantID != v.ID {
			continue
		}
		c.lineItems[i].Quantity--
		if c.lineItems[i].Quantity <= 0 {
			c.lineItems = append(c.lineItems[:i], c.lineItems[i+1:]...)
		}
		return
	}
}

// SetVariantQuantity pins the variant's quantity, adding the line item if
// needed. A quantity of zero or less removes the line item.
func (c *Cart) SetVariantQuantity(v *catalog.Variant, quantity int) {
	if v == nil {
		return
	}
	if quantity <= 0 {
		for i := range c.lineItems {
			if c.lineItems[i].VariantID == v.ID {
				c.lineItems = append(c.lineItems[:i], c.lineItems[i+1:]...)
				return
			}
		}
		return
	}
	if li := c.lineItem(v.ID); li != nil {
		li.Quantity = quantity
		return
	}
	c.lineItems = append(c.lineItems, lineItemFromVariant(v, quantity))
}

// LineItems returns a copy of the cart's line items in insertion order.
func (c *Cart) LineItems() []LineItem {
	items := make([]LineItem, len(c.lineItems))
	copy(items, c.lineItems)
	return items
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.lineItems)
}

// TotalQuantity returns the summed quantity across all line items.
func (c *Cart) TotalQuantity() int {
	total := 0
	for i := range c.lineItems {
		total += c.lineItems[i].Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.lineItems) == 0
}

// Clear removes every line item.
func (c *Cart) Clear() {
	c.lineItems = nil
}

func (c *Cart) lineItem(variantID int64) *LineItem {
	for i := range c.lineItems {
		if c.lineItems[i].VariantID == variantID {
			return &c.lineItems[i]
		}
	}
	return nil
}

func lineItemFromVariant(v *catalog.Variant, quantity int) LineItem {
	return LineItem{
		VariantID:        v.ID,
		ProductID:        v.ProductID,
		Title:            v.ProductTitle,
		VariantTitle:     v.Title,
		Price:            v.Price,
		SKU:              v.SKU,
		Grams:            v.Grams,
		RequiresShipping: v.RequiresShipping,
		Taxable:          v.Taxable,
		Quantity:         quantity,
	}
}
