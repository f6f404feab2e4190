package mockstore_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/internal/mockstore"
	"github.com/msautoparts/buy-sdk-go/storefront"
)

// startEmulator brings up the emulator on a local port with the embedded
// fixtures, exactly as cmd/mockstore would.
func startEmulator(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := mockstore.NewStore(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ix, err := mockstore.NewIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	fx, err := mockstore.DefaultFixtures()
	require.NoError(t, err)
	require.NoError(t, mockstore.Seed(context.Background(), st, ix, fx))

	srv, err := mockstore.NewServer(mockstore.Options{Store: st, Index: ix, Logger: logger})
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func newEmulatorClient(t *testing.T, ts *httptest.Server) *storefront.Client {
	t.Helper()

	client, err := storefront.New(storefront.Config{
		ShopDomain:      strings.TrimPrefix(ts.URL, "http://"),
		APIKey:          "dev-key",
		ChannelID:       "mobile",
		ApplicationName: "sdk-e2e",
		Logger:          slog.New(slog.DiscardHandler),
		Insecure:        true,
	})
	require.NoError(t, err)
	return client
}

// pollShippingRates polls until the emulator finishes "computing" rates.
func pollShippingRates(t *testing.T, client *storefront.Client, token string) []checkout.ShippingRate {
	t.Helper()

	var rates []checkout.ShippingRate
	var err error
	for attempt := 0; attempt < 50; attempt++ {
		rates, err = client.GetShippingRates(context.Background(), token)
		if !errors.Is(err, storefront.ErrShippingRatesPending) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err)
	return rates
}

// TestEmulator_FullPurchaseFlow walks the whole SDK surface against a live
// emulator: catalog reads, variant and image resolution, then the checkout
// lifecycle through shipping rates, a discount and a gift card. The client's
// politeness limiter paces it, so it runs only outside -short.
func TestEmulator_FullPurchaseFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping emulator round trip in short mode")
	}

	ts := startEmulator(t)
	client := newEmulatorClient(t, ts)
	ctx := context.Background()

	shop, err := client.GetShop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MS Auto Parts", shop.Name)
	assert.Equal(t, "USD", shop.Currency)
	assert.EqualValues(t, 4, shop.PublishedProductsCount)

	// Catalog reads come back normalized.
	brakes, err := client.ListProducts(ctx, storefront.ProductQuery{Tag: "brakes"})
	require.NoError(t, err)
	require.Len(t, brakes, 2)
	for _, p := range brakes {
		assert.True(t, p.TagSet.Has("brakes"), "product %s lost its tag set", p.ID)
	}

	found, err := client.SearchProducts(ctx, "brake")
	require.NoError(t, err)
	ids := make([]string, 0, len(found))
	for _, p := range found {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"2096063019", "2096063020"}, ids)

	collections, err := client.ListCollections(ctx)
	require.NoError(t, err)
	assert.Len(t, collections, 2)

	_, err = client.GetProduct(ctx, "424242")
	assert.ErrorIs(t, err, storefront.ErrNotFound)

	// Variant and image resolution on the fetched products.
	pads, err := client.GetProduct(ctx, "2096063019")
	require.NoError(t, err)
	front := pads.VariantForOptionValues([]catalog.OptionValue{{Value: "Front"}})
	require.NotNil(t, front)
	assert.Equal(t, int64(31001), front.ID)
	assert.Equal(t, int64(2096063019), front.ProductID)

	img := pads.ImageForVariant(front)
	require.NotNil(t, img)
	assert.Contains(t, img.Src, "front")

	rear := pads.VariantForOptionValues([]catalog.OptionValue{{Value: "Rear"}})
	require.NotNil(t, rear)
	fallback := pads.ImageForVariant(rear)
	require.NotNil(t, fallback)
	assert.Equal(t, pads.Images[0].ID, fallback.ID)

	filter, err := client.GetProduct(ctx, "2096070103")
	require.NoError(t, err)
	threePack := filter.VariantForOptionValues([]catalog.OptionValue{
		{Value: "Cartridge"},
		{Value: "3-Pack"},
	})
	require.NotNil(t, threePack)
	assert.Equal(t, int64(32004), threePack.ID)

	rotor, err := client.GetProduct(ctx, "2096063020")
	require.NoError(t, err)
	assert.True(t, rotor.HasDefaultVariant())

	// Build a cart and open the checkout.
	var cart checkout.Cart
	cart.AddVariant(front)
	cart.AddVariant(&rotor.Variants[0])
	require.Equal(t, 2, cart.Len())

	co := checkout.New(&cart)
	co.Email = "buyer@example.com"

	co, err = client.CreateCheckout(ctx, co)
	require.NoError(t, err)
	assert.NotEmpty(t, co.Token)
	assert.Equal(t, "93.74", co.SubtotalPrice) // 54.99 + 38.75
	assert.Equal(t, "5.62", co.TotalTax)
	assert.Equal(t, "99.36", co.TotalPrice)
	assert.Contains(t, co.WebURL, co.Token)

	// Address and discount.
	co.ShippingAddress = &checkout.Address{
		FirstName: "Dana",
		LastName:  "Wheeler",
		Address1:  "11407 Conant St",
		City:      "Hamtramck",
		Province:  "Michigan",
		Country:   "US",
		Zip:       "48212",
	}
	co.SetDiscountCode("FIRSTRIDE")

	co, err = client.UpdateCheckout(ctx, co)
	require.NoError(t, err)
	require.NotNil(t, co.Discount)
	assert.True(t, co.Discount.Applicable)
	assert.Equal(t, "10.00", co.Discount.Amount)
	assert.Equal(t, "5.02", co.TotalTax) // 6% of 83.74
	assert.Equal(t, "88.76", co.TotalPrice)

	// Shipping rates are computed asynchronously: pending first, then the
	// quote for the destination.
	_, err = client.GetShippingRates(ctx, co.Token)
	require.ErrorIs(t, err, storefront.ErrShippingRatesPending)

	rates := pollShippingRates(t, client, co.Token)
	require.Len(t, rates, 2)
	assert.Equal(t, "Standard Ground", rates[0].Title)

	co.SetShippingRate(&rates[0])
	co, err = client.UpdateCheckout(ctx, co)
	require.NoError(t, err)
	require.NotNil(t, co.ShippingRate)
	assert.Equal(t, "8.00", co.ShippingRate.Price)
	assert.Equal(t, "96.76", co.TotalPrice)
	assert.Equal(t, "96.76", co.PaymentDue)

	// Gift card on, then off.
	co, err = client.ApplyGiftCard(ctx, co.Token, "WINTERH4RN")
	require.NoError(t, err)
	require.Len(t, co.GiftCards, 1)
	assert.Equal(t, "h4rn", co.GiftCards[0].LastCharacters)
	assert.Equal(t, "25.00", co.GiftCards[0].AmountUsed)
	assert.Equal(t, "71.76", co.PaymentDue)

	_, err = client.ApplyGiftCard(ctx, co.Token, "BOGUS")
	assert.ErrorIs(t, err, storefront.ErrUnprocessable)

	co, err = client.RemoveGiftCard(ctx, co.Token, co.GiftCards[0].ID)
	require.NoError(t, err)
	assert.Empty(t, co.GiftCards)
	assert.Equal(t, "96.76", co.PaymentDue)

	// The server state is what the client last saw.
	final, err := client.GetCheckout(ctx, co.Token)
	require.NoError(t, err)
	assert.Equal(t, co.TotalPrice, final.TotalPrice)
	assert.Equal(t, "Standard Ground", final.ShippingRate.Title)
	assert.LessOrEqual(t, final.ReservationTimeLeft, final.ReservationTime)
}
