package storefront

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/msautoparts/buy-sdk-go/catalog"
)

// ProductQuery filters a product listing. Zero-value fields are omitted.
type ProductQuery struct {
	ProductIDs   []string // exact product ids
	Handle       string
	CollectionID int64
	Tag          string
}

func (q ProductQuery) values() url.Values {
	values := url.Values{}
	if len(q.ProductIDs) > 0 {
		values.Set("product_ids", strings.Join(q.ProductIDs, ","))
	}
	if q.Handle != "" {
		values.Set("handle", q.Handle)
	}
	if q.CollectionID != 0 {
		values.Set("collection_id", strconv.FormatInt(q.CollectionID, 10))
	}
	if q.Tag != "" {
		values.Set("tag", q.Tag)
	}
	return values
}

// GetProduct retrieves a single product by id. The returned product is
// normalized: variants are back-linked and the tag set is derived.
func (c *Client) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	if productID == "" {
		return nil, wrapError("getProduct", "", ErrBadRequest)
	}

	path := c.channelPath("/products/" + url.PathEscape(productID) + ".json")
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, wrapError("getProduct", path, err)
	}

	var resp struct {
		Product jsontext.Value `json:"product"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("getProduct", path, fmt.Errorf("parse response: %w", err))
	}

	product, err := catalog.DecodeProduct(resp.Product)
	if err != nil {
		return nil, wrapError("getProduct", path, err)
	}
	return product, nil
}

// ListProducts retrieves the channel's published products, optionally
// filtered. All returned products are normalized.
func (c *Client) ListProducts(ctx context.Context, query ProductQuery) ([]catalog.Product, error) {
	path := c.channelPath("/products.json")
	body, err := c.doRequest(ctx, http.MethodGet, path, query.values(), nil)
	if err != nil {
		return nil, wrapError("listProducts", path, err)
	}
	return decodeProductsEnvelope("listProducts", path, body)
}

// SearchProducts runs a full-text catalog search over titles, vendors,
// product types and tags.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	path := c.channelPath("/products/search.json")

	values := url.Values{}
	values.Set("q", query)

	body, err := c.doRequest(ctx, http.MethodGet, path, values, nil)
	if err != nil {
		return nil, wrapError("searchProducts", path, err)
	}
	return decodeProductsEnvelope("searchProducts", path, body)
}

// ListCollections retrieves the channel's published collections.
func (c *Client) ListCollections(ctx context.Context) ([]catalog.Collection, error) {
	path := c.channelPath("/collections.json")
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, wrapError("listCollections", path, err)
	}

	var resp struct {
		Collections jsontext.Value `json:"collections"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("listCollections", path, fmt.Errorf("parse response: %w", err))
	}

	collections, err := catalog.DecodeCollections(resp.Collections)
	if err != nil {
		return nil, wrapError("listCollections", path, err)
	}
	return collections, nil
}

func decodeProductsEnvelope(op, path string, body []byte) ([]catalog.Product, error) {
	var resp struct {
		Products jsontext.Value `json:"products"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError(op, path, fmt.Errorf("parse response: %w", err))
	}

	products, err := catalog.DecodeProducts(resp.Products)
	if err != nil {
		return nil, wrapError(op, path, err)
	}
	return products, nil
}
