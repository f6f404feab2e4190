package catalog

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMalformedData marks product JSON that decoded structurally but cannot
// be normalized, such as a non-numeric product identifier on a product
// that has variants to back-link.
var ErrMalformedData = errors.New("catalog: malformed product data")

// TimeLayout is the layout used to parse and format the wire's date
// strings. It is consulted only at the decode/format boundary; entities
// always carry typed time.Time values. Override before decoding if a
// storefront transmits a non-RFC 3339 format.
var TimeLayout = time.RFC3339

// rawProduct mirrors the wire shape of a product publication, dates still
// as strings. All wire irregularity stops here; everything past this type
// works with the typed Product.
type rawProduct struct {
	ID          string       `json:"product_id"`
	ChannelID   string       `json:"channel_id"`
	Title       string       `json:"title"`
	Handle      string       `json:"handle"`
	BodyHTML    string       `json:"body_html"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Tags        string       `json:"tags"`
	PublishedAt string       `json:"published_at"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	Variants    []rawVariant `json:"variants"`
	Images      []rawImage   `json:"images"`
	Options     []Option     `json:"options"`
	Available   bool         `json:"available"`
	Published   bool         `json:"published"`
}

type rawVariant struct {
	ID               int64         `json:"id"`
	ProductID        int64         `json:"product_id"`
	Title            string        `json:"title"`
	Price            string        `json:"price"`
	CompareAtPrice   string        `json:"compare_at_price"`
	SKU              string        `json:"sku"`
	Grams            int           `json:"grams"`
	RequiresShipping bool          `json:"requires_shipping"`
	Taxable          bool          `json:"taxable"`
	Position         int           `json:"position"`
	Available        bool          `json:"available"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
	OptionValues     []OptionValue `json:"option_values"`
}

type rawImage struct {
	ID         int64   `json:"id"`
	Src        string  `json:"src"`
	Position   int     `json:"position"`
	VariantIDs []int64 `json:"variant_ids"`
	CreatedAt  string  `json:"created_at"`
}

// DecodeProduct decodes a single bare product JSON object and normalizes
// it. This is the SDK's input path for product data; unwrap any response
// envelope before calling it.
func DecodeProduct(data []byte) (*Product, error) {
	var raw rawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: decode product: %w", err)
	}
	p, err := rawToProduct(&raw)
	if err != nil {
		return nil, err
	}
	if err := Normalize(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeProducts decodes a JSON array of products, normalizing each.
func DecodeProducts(data []byte) ([]Product, error) {
	var raws []rawProduct
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	products := make([]Product, 0, len(raws))
	for i := range raws {
		p, err := rawToProduct(&raws[i])
		if err != nil {
			return nil, err
		}
		if err := Normalize(p); err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// Normalize makes a decoded product queryable: back-links every variant to
// the parent's parsed identifier and title, and derives TagSet from the
// raw tag string. Safe to call again on an already normalized product; the
// second pass produces identical fields.
func Normalize(p *Product) error {
	if len(p.Variants) > 0 {
		id, err := strconv.ParseInt(p.ID, 10, 64)
		if err != nil {
			return fmt.Errorf("catalog: product id %q is not numeric, cannot back-link variants: %w", p.ID, ErrMalformedData)
		}
		for i := range p.Variants {
			p.Variants[i].ProductID = id
			p.Variants[i].ProductTitle = p.Title
		}
	}
	p.TagSet = ParseTags(p.Tags)
	return nil
}

// FormatTime renders a typed date back into the wire's string format, ""
// for the zero time. Callers needing the legacy string form use this
// instead of keeping a parallel string field.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func rawToProduct(raw *rawProduct) (*Product, error) {
	p := &Product{
		ID:          raw.ID,
		ChannelID:   raw.ChannelID,
		Title:       raw.Title,
		Handle:      raw.Handle,
		BodyHTML:    raw.BodyHTML,
		Vendor:      raw.Vendor,
		ProductType: raw.ProductType,
		Tags:        raw.Tags,
		Options:     raw.Options,
		Available:   raw.Available,
		Published:   raw.Published,
	}

	var err error
	if p.PublishedAt, err = parseTime(raw.PublishedAt); err != nil {
		return nil, fmt.Errorf("catalog: product %q: published_at: %w", raw.ID, err)
	}
	if p.CreatedAt, err = parseTime(raw.CreatedAt); err != nil {
		return nil, fmt.Errorf("catalog: product %q: created_at: %w", raw.ID, err)
	}
	if p.UpdatedAt, err = parseTime(raw.UpdatedAt); err != nil {
		return nil, fmt.Errorf("catalog: product %q: updated_at: %w", raw.ID, err)
	}

	p.Variants = make([]Variant, len(raw.Variants))
	for i := range raw.Variants {
		rv := &raw.Variants[i]
		v := Variant{
			ID:               rv.ID,
			ProductID:        rv.ProductID,
			Title:            rv.Title,
			Price:            rv.Price,
			CompareAtPrice:   rv.CompareAtPrice,
			SKU:              rv.SKU,
			Grams:            rv.Grams,
			RequiresShipping: rv.RequiresShipping,
			Taxable:          rv.Taxable,
			Position:         rv.Position,
			Available:        rv.Available,
			OptionValues:     rv.OptionValues,
		}
		if v.CreatedAt, err = parseTime(rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: variant %d: created_at: %w", rv.ID, err)
		}
		if v.UpdatedAt, err = parseTime(rv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("catalog: variant %d: updated_at: %w", rv.ID, err)
		}
		p.Variants[i] = v
	}

	p.Images = make([]Image, len(raw.Images))
	for i := range raw.Images {
		ri := &raw.Images[i]
		img := Image{
			ID:         ri.ID,
			Src:        ri.Src,
			Position:   ri.Position,
			VariantIDs: ri.VariantIDs,
		}
		if img.CreatedAt, err = parseTime(ri.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: image %d: created_at: %w", ri.ID, err)
		}
		p.Images[i] = img
	}

	return p, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimeLayout, s)
}
