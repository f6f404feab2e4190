package mockstore

import (
	"context"
	"embed"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/msautoparts/buy-sdk-go/catalog"
	"github.com/msautoparts/buy-sdk-go/storefront"
)

//go:embed fixtures
var embeddedFixtures embed.FS

// ShopMeta is the emulator's shop fixture: the public storefront metadata
// plus the knobs that drive checkout pricing and the policy links stamped
// onto new checkouts. Only the embedded Shop is served to clients.
type ShopMeta struct {
	storefront.Shop

	TaxRate           float64 `json:"tax_rate"`
	TaxTitle          string  `json:"tax_title,omitempty"`
	PrivacyPolicyURL  string  `json:"privacy_policy_url,omitempty"`
	RefundPolicyURL   string  `json:"refund_policy_url,omitempty"`
	TermsOfServiceURL string  `json:"terms_of_service_url,omitempty"`
}

// Collection is a catalog collection plus the product memberships the public
// model deliberately leaves out. The emulator needs them to answer
// collection-filtered product listings.
type Collection struct {
	catalog.Collection

	ProductIDs []string `json:"product_ids,omitempty"`
}

// GiftCard is a redeemable card fixture. Balance is the card's face value;
// per-checkout usage is computed at pricing time and never burns the fixture,
// so every checkout sees a fresh card.
type GiftCard struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Balance string `json:"balance"`
}

// Discount is a flat-amount discount code fixture.
type Discount struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
}

// RateFixture describes one shipping rate offered for a destination country.
// Delivery windows are relative so quoted dates stay in the future no matter
// when the fixture was written.
type RateFixture struct {
	Title   string `json:"title"`
	Price   string `json:"price"`
	MinDays int    `json:"min_days"`
	MaxDays int    `json:"max_days"`
}

// rateTable maps ISO 3166-1 alpha-2 country codes to the rates offered there.
type rateTable map[string][]RateFixture

// Fixtures is a complete emulator dataset parsed from a fixture directory.
type Fixtures struct {
	Shop        ShopMeta
	Collections []Collection
	GiftCards   []GiftCard
	Discounts   []Discount
	Rates       rateTable
	Products    []catalog.Product
}

// DefaultFixtures returns the compiled-in sample catalog, used when no
// fixture directory is configured.
func DefaultFixtures() (*Fixtures, error) {
	sub, err := fs.Sub(embeddedFixtures, "fixtures")
	if err != nil {
		return nil, err
	}
	return LoadFixtures(sub)
}

// LoadFixtures parses a fixture directory:
//
//	shop.json            shop metadata and pricing knobs (required)
//	collections.json     collections with product memberships
//	gift_cards.json      redeemable gift cards
//	discounts.json       flat-amount discount codes
//	shipping_rates.json  shipping rates keyed by destination country
//	products/*.json      one product per file, plain storefront product JSON
//
// Products load through the same decoder the client uses, so a fixture file
// is exactly what the product endpoint will serve. Products without a handle
// get one derived from their title.
func LoadFixtures(fsys fs.FS) (*Fixtures, error) {
	fx := &Fixtures{Rates: rateTable{}}

	ok, err := readFixture(fsys, "shop.json", &fx.Shop)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("mockstore: fixture shop.json is required")
	}
	if fx.Shop.Currency == "" {
		return nil, errors.New("mockstore: fixture shop.json has no currency")
	}

	if _, err := readFixture(fsys, "collections.json", &fx.Collections); err != nil {
		return nil, err
	}
	if _, err := readFixture(fsys, "gift_cards.json", &fx.GiftCards); err != nil {
		return nil, err
	}
	if _, err := readFixture(fsys, "discounts.json", &fx.Discounts); err != nil {
		return nil, err
	}
	if _, err := readFixture(fsys, "shipping_rates.json", &fx.Rates); err != nil {
		return nil, err
	}

	if err := loadProducts(fsys, fx); err != nil {
		return nil, err
	}
	if err := validateFixtures(fx); err != nil {
		return nil, err
	}
	return fx, nil
}

// Seed replaces the store's catalog with fx and rebuilds the search index.
// Existing checkouts are untouched.
func Seed(ctx context.Context, st *Store, ix *Index, fx *Fixtures) error {
	if err := st.replaceCatalog(ctx, fx); err != nil {
		return err
	}
	if ix != nil {
		if err := ix.ReplaceAll(fx.Products); err != nil {
			return fmt.Errorf("reindexing products: %w", err)
		}
	}
	return nil
}

func loadProducts(fsys fs.FS, fx *Fixtures) error {
	entries, err := fs.ReadDir(fsys, "products")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading products dir: %w", err)
	}

	// Directory order is not guaranteed on every fs.FS implementation.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := path.Join("products", entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		p, err := catalog.DecodeProduct(data)
		if err != nil {
			return fmt.Errorf("fixture %s: %w", name, err)
		}
		if p.ID == "" {
			return fmt.Errorf("fixture %s: product has no product_id", name)
		}
		if p.Handle == "" {
			p.Handle = slugify(p.Title)
		}
		fx.Products = append(fx.Products, *p)
	}
	return nil
}

func validateFixtures(fx *Fixtures) error {
	seen := make(map[string]bool, len(fx.Products))
	for i := range fx.Products {
		p := &fx.Products[i]
		if seen[p.ID] {
			return fmt.Errorf("mockstore: duplicate product id %s in fixtures", p.ID)
		}
		seen[p.ID] = true
		for j := range p.Variants {
			v := &p.Variants[j]
			if _, err := parseCents(v.Price); err != nil {
				return fmt.Errorf("mockstore: product %s variant %d: %w", p.ID, v.ID, err)
			}
		}
	}

	for i := range fx.GiftCards {
		gc := &fx.GiftCards[i]
		if gc.Code == "" {
			return fmt.Errorf("mockstore: gift card %d has no code", gc.ID)
		}
		if _, err := parseCents(gc.Balance); err != nil {
			return fmt.Errorf("mockstore: gift card %s: %w", gc.Code, err)
		}
	}
	for i := range fx.Discounts {
		d := &fx.Discounts[i]
		if d.Code == "" {
			return errors.New("mockstore: discount with empty code")
		}
		if _, err := parseCents(d.Amount); err != nil {
			return fmt.Errorf("mockstore: discount %s: %w", d.Code, err)
		}
	}
	for country, rates := range fx.Rates {
		if len(country) != 2 {
			return fmt.Errorf("mockstore: shipping rate key %q is not an alpha-2 country code", country)
		}
		for _, r := range rates {
			if _, err := parseCents(r.Price); err != nil {
				return fmt.Errorf("mockstore: shipping rate %q for %s: %w", r.Title, country, err)
			}
			if r.MaxDays < r.MinDays {
				return fmt.Errorf("mockstore: shipping rate %q for %s: max_days before min_days", r.Title, country)
			}
		}
	}
	return nil
}

// readFixture unmarshals one fixture file into out. Missing files are fine;
// the second return reports whether the file existed.
func readFixture(fsys fs.FS, name string, out any) (bool, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("fixture %s: %w", name, err)
	}
	return true, nil
}

var (
	slugSeparators = regexp.MustCompile(`[\s_/]+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashRuns   = regexp.MustCompile(`-+`)
)

// slugify converts a title into a URL handle: lowercased, separators become
// dashes, anything else non-alphanumeric is dropped and dash runs collapse.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugSeparators.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// normalizeCode canonicalizes gift card and discount codes, which are
// matched case-insensitively.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func collectionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
