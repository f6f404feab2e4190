package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msautoparts/buy-sdk-go/catalog"
)

func padFront() *catalog.Variant {
	return &catalog.Variant{
		ID:               31001,
		ProductID:        2096063019,
		ProductTitle:     "ProStop Ceramic Brake Pad Set",
		Title:            "Front / Ceramic",
		Price:            "64.95",
		SKU:              "PS-CBP-F-C",
		Grams:            2400,
		RequiresShipping: true,
		Taxable:          true,
	}
}

func padRear() *catalog.Variant {
	return &catalog.Variant{
		ID:           31003,
		ProductID:    2096063019,
		ProductTitle: "ProStop Ceramic Brake Pad Set",
		Title:        "Rear / Ceramic",
		Price:        "59.95",
	}
}

func TestCartAddVariant(t *testing.T) {
	var cart Cart

	cart.AddVariant(padFront())
	require.Equal(t, 1, cart.Len())

	li := cart.LineItems()[0]
	assert.Equal(t, int64(31001), li.VariantID)
	assert.Equal(t, int64(2096063019), li.ProductID)
	assert.Equal(t, "ProStop Ceramic Brake Pad Set", li.Title)
	assert.Equal(t, "Front / Ceramic", li.VariantTitle)
	assert.Equal(t, "64.95", li.Price)
	assert.Equal(t, 2400, li.Grams)
	assert.True(t, li.RequiresShipping)
	assert.Equal(t, 1, li.Quantity)

	// Same variant merges instead of adding a second line.
	cart.AddVariant(padFront())
	require.Equal(t, 1, cart.Len())
	assert.Equal(t, 2, cart.LineItems()[0].Quantity)

	cart.AddVariant(padRear())
	assert.Equal(t, 2, cart.Len())
	assert.Equal(t, 3, cart.TotalQuantity())
}

func TestCartDecrementVariant(t *testing.T) {
	var cart Cart
	cart.AddVariant(padFront())
	cart.AddVariant(padFront())

	cart.DecrementVariant(padFront())
	assert.Equal(t, 1, cart.LineItems()[0].Quantity)

	cart.DecrementVariant(padFront())
	assert.True(t, cart.IsEmpty(), "line item should drop at quantity zero")

	// Decrementing something not in the cart does nothing.
	cart.DecrementVariant(padRear())
	assert.True(t, cart.IsEmpty())
}

func TestCartSetVariantQuantity(t *testing.T) {
	var cart Cart

	cart.SetVariantQuantity(padFront(), 4)
	require.Equal(t, 1, cart.Len())
	assert.Equal(t, 4, cart.LineItems()[0].Quantity)

	cart.SetVariantQuantity(padFront(), 2)
	assert.Equal(t, 2, cart.LineItems()[0].Quantity)

	cart.SetVariantQuantity(padFront(), 0)
	assert.True(t, cart.IsEmpty())

	// Setting zero for an absent variant stays a no-op.
	cart.SetVariantQuantity(padRear(), -1)
	assert.True(t, cart.IsEmpty())
}

func TestCartLineItemsIsACopy(t *testing.T) {
	var cart Cart
	cart.AddVariant(padFront())

	items := cart.LineItems()
	items[0].Quantity = 99

	assert.Equal(t, 1, cart.LineItems()[0].Quantity, "mutating the returned slice must not touch the cart")
}

func TestCartNilVariant(t *testing.T) {
	var cart Cart
	cart.AddVariant(nil)
	cart.DecrementVariant(nil)
	cart.SetVariantQuantity(nil, 3)
	assert.True(t, cart.IsEmpty())
}

func TestCartClear(t *testing.T) {
	var cart Cart
	cart.AddVariant(padFront())
	cart.AddVariant(padRear())

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.TotalQuantity())
}
