// Package main provides a terminal walkthrough of the SDK against any
// storefront, defaulting to a locally running mockstore.
//
// Usage:
//
//	go run ./cmd/buydemo shop
//	go run ./cmd/buydemo products --tag brakes
//	go run ./cmd/buydemo collections
//	go run ./cmd/buydemo search "ceramic pads"
//	go run ./cmd/buydemo show 2096063019
//	go run ./cmd/buydemo buy 2096063019 Front --gift-card WINTERH4RN
//
// Shop connection flags (--shop-domain, --api-key, --channel-id, --insecure)
// and their SHOP_* environment variables are shared with the rest of the
// tooling; see internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/checkout"
	"github.com/msautoparts/buy-sdk-go/internal/config"
	"github.com/msautoparts/buy-sdk-go/internal/logger"
	"github.com/msautoparts/buy-sdk-go/storefront"
)

// Demo flags beyond the shared shop connection config.
var (
	tag          = flag.String("tag", "", "products: only list products carrying this tag")
	handle       = flag.String("handle", "", "products: only list the product with this handle")
	collectionID = flag.Int64("collection", 0, "products: only list products in this collection id")

	quantity  = flag.Int("qty", 1, "buy: units of the chosen variant")
	email     = flag.String("email", "buyer@example.com", "buy: checkout email")
	country   = flag.String("country", "US", "buy: shipping destination country")
	giftCard  = flag.String("gift-card", "", "buy: gift card code to apply")
	discount  = flag.String("discount", "", "buy: discount code to apply")
	returnURL = flag.String("return-url", "", "buy: web_return_to_url for the checkout")
)

// ratePollInterval paces shipping rate polling; the platform answers 202
// until rates are computed.
const ratePollInterval = 500 * time.Millisecond

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "buydemo: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Writer: os.Stderr,
		Level:  logger.ParseLevel(cfg.Logger.Level),
	})

	client, err := storefront.New(storefront.Config{
		ShopDomain:      cfg.Shop.Domain,
		APIKey:          cfg.Shop.APIKey,
		ChannelID:       cfg.Shop.ChannelID,
		ApplicationName: cfg.Shop.ApplicationName,
		Logger:          log.Logger,
		Insecure:        cfg.Shop.Insecure,
	})
	if err != nil {
		log.Fatal("Failed to create storefront client", "error", err)
	}

	ctx := context.Background()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "shop":
		runShop(ctx, client)
	case "products":
		runProducts(ctx, client)
	case "collections":
		runCollections(ctx, client)
	case "search":
		if len(args) < 2 {
			log.Fatal("search needs a query, e.g.: buydemo search \"brake pads\"")
		}
		runSearch(ctx, client, args[1])
	case "show":
		if len(args) < 2 {
			log.Fatal("show needs a product id, e.g.: buydemo show 2096063019")
		}
		runShow(ctx, client, args[1])
	case "buy":
		if len(args) < 2 {
			log.Fatal("buy needs a product id, e.g.: buydemo buy 2096063019 Front")
		}
		runBuy(ctx, client, log, args[1], args[2:])
	default:
		usage()
		log.Fatal("Unknown command", "command", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `buydemo [flags] <command> [args]

Commands:
  shop                          show storefront metadata
  products                      list published products (--tag, --handle, --collection)
  collections                   list collections
  search <query>                full-text product search
  show <product-id>             product details, variants and images
  buy <product-id> [value ...]  checkout flow for the variant matching the
                                given option values (first variant if none)

Run with -h for the full flag list.`)
}

func runShop(ctx context.Context, client *storefront.Client) {
	shop, err := client.GetShop(ctx)
	if err != nil {
		fail(err)
	}

	fmt.Printf("%s (%s)\n", shop.Name, shop.Domain)
	if shop.Description != "" {
		fmt.Println(shop.Description)
	}
	fmt.Println()
	printKV("Currency", shop.Currency)
	printKV("Contact", shop.ContactEmail)
	if shop.City != "" {
		printKV("Located in", shop.City+", "+shop.Province)
	}
	printKV("Ships to", joinOr(shop.ShipsToCountries, "everywhere"))
	printKV("Products", strconv.FormatInt(shop.PublishedProductsCount, 10))
	printKV("Collections", strconv.FormatInt(shop.PublishedCollectionsCount, 10))
}

func runProducts(ctx context.Context, client *storefront.Client) {
	shop, err := client.GetShop(ctx)
	if err != nil {
		fail(err)
	}
	products, err := client.ListProducts(ctx, storefront.ProductQuery{
		Tag:          *tag,
		Handle:       *handle,
		CollectionID: *collectionID,
	})
	if err != nil {
		fail(err)
	}
	printProductTable(products, shop.Currency)
}

func runCollections(ctx context.Context, client *storefront.Client) {
	collections, err := client.ListCollections(ctx)
	if err != nil {
		fail(err)
	}

	rows := make([][]string, 0, len(collections))
	for _, c := range collections {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.Title,
			c.Handle,
			summarize(c.BodyHTML, 48),
		})
	}
	printTable([]string{"ID", "TITLE", "HANDLE", "DESCRIPTION"}, rows)
}

func runSearch(ctx context.Context, client *storefront.Client, query string) {
	shop, err := client.GetShop(ctx)
	if err != nil {
		fail(err)
	}
	products, err := client.SearchProducts(ctx, query)
	if err != nil {
		fail(err)
	}
	if len(products) == 0 {
		fmt.Printf("No products match %q.\n", query)
		return
	}
	printProductTable(products, shop.Currency)
}

func runShow(ctx context.Context, client *storefront.Client, productID string) {
	shop, err := client.GetShop(ctx)
	if err != nil {
		fail(err)
	}
	p, err := client.GetProduct(ctx, productID)
	if err != nil {
		fail(err)
	}
	printProductDetail(p, shop.Currency)
}

// runBuy walks the whole purchase path: resolve a variant, build a cart,
// create the checkout, attach a shipping address, pick the cheapest quoted
// rate, apply any discount and gift card, and print the final totals.
func runBuy(ctx context.Context, client *storefront.Client, log *logger.Logger, productID string, optionValues []string) {
	shop, err := client.GetShop(ctx)
	if err != nil {
		fail(err)
	}
	product, err := client.GetProduct(ctx, productID)
	if err != nil {
		fail(err)
	}

	variant := resolveVariant(product, optionValues)
	if variant == nil {
		log.Fatal("No variant matches the given option values",
			"product", product.Title,
			"values", optionValues,
		)
	}

	fmt.Printf("Buying %s / %s\n", product.Title, variant.Title)
	if img := product.ImageForVariant(variant); img != nil {
		fmt.Printf("Image: %s\n", img.Src)
	}

	var cart checkout.Cart
	cart.AddVariant(variant)
	if *quantity > 1 {
		cart.SetVariantQuantity(variant, *quantity)
	}

	co := checkout.New(&cart)
	co.Email = *email
	co.WebReturnToURL = *returnURL

	co, err = client.CreateCheckout(ctx, co)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Checkout created: %s\n", co.Token)

	co.ShippingAddress = demoAddress(*country)
	if *discount != "" {
		co.SetDiscountCode(*discount)
	}
	co, err = client.UpdateCheckout(ctx, co)
	if err != nil {
		fail(err)
	}

	if co.RequiresShipping {
		rate := cheapestRate(awaitShippingRates(ctx, client, co.Token))
		if rate != nil {
			fmt.Printf("Shipping via %s\n", rate.Title)
			co.SetShippingRate(rate)
			co, err = client.UpdateCheckout(ctx, co)
			if err != nil {
				fail(err)
			}
		}
	}

	if *giftCard != "" {
		co, err = client.ApplyGiftCard(ctx, co.Token, *giftCard)
		if err != nil {
			fail(err)
		}
	}

	// Re-fetch so the receipt shows the server's canonical state.
	co, err = client.GetCheckout(ctx, co.Token)
	if err != nil {
		fail(err)
	}
	printReceipt(co, shop.Currency)
}

// resolveVariant picks the variant the buyer asked for. With option values
// given it uses positional matching; without, the first variant stands in
// (which for single-variant products is the platform's "Default Title").
func resolveVariant(p *catalog.Product, optionValues []string) *catalog.Variant {
	if len(optionValues) == 0 {
		if len(p.Variants) == 0 {
			return nil
		}
		return &p.Variants[0]
	}
	values := make([]catalog.OptionValue, len(optionValues))
	for i, v := range optionValues {
		values[i] = catalog.OptionValue{Value: v}
	}
	return p.VariantForOptionValues(values)
}

// awaitShippingRates polls until the platform finishes computing rates.
func awaitShippingRates(ctx context.Context, client *storefront.Client, token string) []checkout.ShippingRate {
	for {
		rates, err := client.GetShippingRates(ctx, token)
		if errors.Is(err, storefront.ErrShippingRatesPending) {
			fmt.Println("Shipping rates pending...")
			time.Sleep(ratePollInterval)
			continue
		}
		if err != nil {
			fail(err)
		}
		return rates
	}
}

func cheapestRate(rates []checkout.ShippingRate) *checkout.ShippingRate {
	var best *checkout.ShippingRate
	bestPrice := 0.0
	for i := range rates {
		price, err := strconv.ParseFloat(rates[i].Price, 64)
		if err != nil {
			continue
		}
		if best == nil || price < bestPrice {
			best = &rates[i]
			bestPrice = price
		}
	}
	return best
}

// demoAddress is a fixed shipping address with a pluggable destination
// country, enough for rate lookups against fixture tables.
func demoAddress(country string) *checkout.Address {
	return &checkout.Address{
		FirstName:   "Dana",
		LastName:    "Wheeler",
		Address1:    "11407 Conant St",
		City:        "Hamtramck",
		Province:    "Michigan",
		Country:     country,
		CountryCode: country,
		Zip:         "48212",
		Phone:       "313-555-0142",
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "buydemo: %v\n", err)
	os.Exit(1)
}
