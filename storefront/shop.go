package storefront

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
)

// Shop is the storefront metadata returned by GetShop.
type Shop struct {
	ID                        int64    `json:"id"`
	Name                      string   `json:"name"`
	City                      string   `json:"city,omitempty"`
	Province                  string   `json:"province,omitempty"`
	Country                   string   `json:"country,omitempty"`
	ContactEmail              string   `json:"contact_email,omitempty"`
	Currency                  string   `json:"currency"`
	MoneyFormat               string   `json:"money_format,omitempty"`
	Domain                    string   `json:"domain"`
	URL                       string   `json:"url,omitempty"`
	Description               string   `json:"description,omitempty"`
	ShipsToCountries          []string `json:"ships_to_countries,omitempty"`
	PublishedCollectionsCount int64    `json:"published_collections_count"`
	PublishedProductsCount    int64    `json:"published_products_count"`
}

// GetShop retrieves the shop's storefront metadata.
func (c *Client) GetShop(ctx context.Context) (*Shop, error) {
	const path = "/api/meta.json"

	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, wrapError("getShop", path, err)
	}

	var resp struct {
		Shop Shop `json:"shop"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("getShop", path, fmt.Errorf("parse response: %w", err))
	}

	return &resp.Shop, nil
}
