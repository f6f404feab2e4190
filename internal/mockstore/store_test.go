package mockstore

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msautoparts/buy-sdk-go/checkout"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedDefaults(t *testing.T, st *Store) *Fixtures {
	t.Helper()

	fx, err := DefaultFixtures()
	require.NoError(t, err)
	require.NoError(t, Seed(context.Background(), st, nil, fx))
	return fx
}

func TestStore_CheckoutRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	co := &checkout.Checkout{
		Token: "tok-1",
		Email: "wrench@garage.example",
		LineItems: []checkout.LineItem{
			{VariantID: 31001, Quantity: 2},
		},
	}
	require.NoError(t, st.checkouts.Put(ctx, co.Token, co))

	got, err := st.checkouts.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, co.Email, got.Email)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, int64(31001), got.LineItems[0].VariantID)

	require.NoError(t, st.checkouts.Delete(ctx, "tok-1"))
	_, err = st.checkouts.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a key that is already gone is not an error.
	assert.NoError(t, st.checkouts.Delete(ctx, "tok-1"))
}

func TestStore_GetMissing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.products.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplaceCatalog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fx := seedDefaults(t, st)

	count, err := st.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fx.Products), count)

	meta, err := st.shopMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, fx.Shop.Name, meta.Name)

	table, err := st.rateTable(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, table["US"])

	// Check a decoded product made it through storage intact.
	p, err := st.products.Get(ctx, "2096063019")
	require.NoError(t, err)
	assert.Equal(t, "ProStop Ceramic Brake Pad Set", p.Title)
	require.NotEmpty(t, p.Variants)
	assert.Equal(t, int64(2096063019), p.Variants[0].ProductID)
}

func TestStore_ReloadKeepsCheckouts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedDefaults(t, st)

	co := &checkout.Checkout{Token: "tok-keep", LineItems: []checkout.LineItem{{VariantID: 31001, Quantity: 1}}}
	require.NoError(t, st.checkouts.Put(ctx, co.Token, co))

	// A reload with a smaller catalog drops the old products but leaves
	// in-flight checkouts alone.
	smaller, err := DefaultFixtures()
	require.NoError(t, err)
	smaller.Products = smaller.Products[:1]
	require.NoError(t, Seed(ctx, st, nil, smaller))

	count, err := st.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = st.checkouts.Get(ctx, "tok-keep")
	assert.NoError(t, err)
}

func TestStore_ListProducts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	fx := seedDefaults(t, st)

	var ids []string
	for p, err := range st.products.List(ctx) {
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	assert.Len(t, ids, len(fx.Products))

	// Stopping early must not wedge the iterator's transaction.
	for range st.products.List(ctx) {
		break
	}

	count, err := st.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(fx.Products), count)
}

func TestStore_QuoteRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	quote := &rateQuote{
		Country: "US",
		Rates: []checkout.ShippingRate{
			{ID: "rate-abc", Title: "Standard Ground", Price: "8.00"},
		},
	}
	require.NoError(t, st.quotes.Put(ctx, "tok-1", quote))

	got, err := st.quotes.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "US", got.Country)
	require.Len(t, got.Rates, 1)
	assert.Equal(t, "rate-abc", got.Rates[0].ID)
}

func TestStore_RateTableEmptyWhenUnseeded(t *testing.T) {
	st := newTestStore(t)

	table, err := st.rateTable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)
}
