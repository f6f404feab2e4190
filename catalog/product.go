// Package catalog defines the storefront product model: typed entities
// decoded from the product publication API, the normalization step that
// makes them queryable, and the variant/image resolution helpers the rest
// of the SDK builds on.
//
// Entities are write-once. Decode and Normalize fully populate a Product
// before it is handed out; nothing here mutates one afterwards, so a
// normalized Product is safe to share across goroutines.
package catalog

import (
	"slices"
	"time"
)

// Product is a single published product with its variants, images and
// option schema. Field names follow the wire format of the product
// publication endpoints.
type Product struct {
	// ID is the product identifier as transmitted. The wire sends it as a
	// string; Normalize parses it to back-link variants.
	ID          string `json:"product_id"`
	ChannelID   string `json:"channel_id,omitempty"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	BodyHTML    string `json:"body_html,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	ProductType string `json:"product_type,omitempty"`

	// Tags is the raw comma-joined tag string from the wire. TagSet is the
	// parsed form and is the one callers should query; it is never nil
	// after normalization.
	Tags   string `json:"tags,omitempty"`
	TagSet TagSet `json:"-"`

	PublishedAt time.Time `json:"published_at,omitzero"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`

	Variants []Variant `json:"variants"`
	Images   []Image   `json:"images"`
	Options  []Option  `json:"options"`

	Available bool `json:"available"`
	Published bool `json:"published"`
}

// Variant is one purchasable combination of a product's options.
//
// OptionValues is positional: index i selects a value for Options[i] on the
// parent product, and every variant of a product has the same number of
// option values in the same order.
type Variant struct {
	ID int64 `json:"id"`

	// ProductID and ProductTitle identify the owning product. They are
	// denormalized copies written during normalization so a variant handed
	// off on its own still knows where it came from; they are display data,
	// not a live reference.
	ProductID    int64  `json:"product_id,omitempty"`
	ProductTitle string `json:"product_title,omitempty"`

	Title            string    `json:"title"`
	Price            string    `json:"price"`
	CompareAtPrice   string    `json:"compare_at_price,omitempty"`
	SKU              string    `json:"sku,omitempty"`
	Grams            int       `json:"grams,omitempty"`
	RequiresShipping bool      `json:"requires_shipping"`
	Taxable          bool      `json:"taxable"`
	Position         int       `json:"position"`
	Available        bool      `json:"available"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`

	OptionValues []OptionValue `json:"option_values"`
}

// Image is a product photo. VariantIDs lists the variants the image was
// uploaded for; an empty list means the image belongs to the product as a
// whole rather than to no variant.
type Image struct {
	ID         int64     `json:"id"`
	Src        string    `json:"src"`
	Position   int       `json:"position"`
	VariantIDs []int64   `json:"variant_ids"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// Option is one axis of variation (Size, Color, ...) with its ordered
// value domain.
type Option struct {
	ID       int64    `json:"id,omitempty"`
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values,omitempty"`
}

// OptionValue is a single selected value for one option at a fixed
// position in a variant's option list.
type OptionValue struct {
	OptionID int64  `json:"option_id,omitempty"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// ImageForVariant returns the image that represents the given variant.
//
// The first image whose VariantIDs contains the variant wins. When no image
// references the variant the first image in the list is returned as the
// product-level fallback, whatever its own associations are. A product with
// no images returns nil.
//
// Passing a nil variant is a caller bug and panics rather than being folded
// into the "no image" case.
func (p *Product) ImageForVariant(v *Variant) *Image {
	if v == nil {
		panic("catalog: ImageForVariant called with nil variant")
	}
	if len(p.Images) == 0 {
		return nil
	}
	for i := range p.Images {
		if slices.Contains(p.Images[i].VariantIDs, v.ID) {
			return &p.Images[i]
		}
	}
	return &p.Images[0]
}

// VariantForOptionValues returns the first variant whose option values
// match the supplied selection position by position.
//
// Matching compares values only; the option name at each position is
// assumed, not checked, to line up with the product's option order. A nil
// or empty selection matches nothing. Variants with fewer option values
// than the selection are skipped.
func (p *Product) VariantForOptionValues(values []OptionValue) *Variant {
	if len(values) == 0 {
		return nil
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if len(v.OptionValues) < len(values) {
			continue
		}
		matched := true
		for j := range values {
			if v.OptionValues[j].Value != values[j].Value {
				matched = false
				break
			}
		}
		if matched {
			return v
		}
	}
	return nil
}

// HasImage reports whether the product has at least one image with a
// usable source URL.
func (p *Product) HasImage() bool {
	return len(p.Images) > 0 && p.Images[0].Src != ""
}

// HasDefaultVariant reports whether the product has only the placeholder
// variant the platform creates for products sold without options.
func (p *Product) HasDefaultVariant() bool {
	return len(p.Variants) == 1 && p.Variants[0].Title == "Default Title"
}

// OptionValue returns the variant's value for the named option, or "" if
// the variant has no such option. Convenience for display code; use
// Product.VariantForOptionValues for selection matching.
func (v *Variant) OptionValue(name string) string {
	for _, ov := range v.OptionValues {
		if ov.Name == name {
			return ov.Value
		}
	}
	return ""
}
