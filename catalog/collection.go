package catalog

import (
	"encoding/json/v2"
	"fmt"
	"time"
)

// Collection is a curated grouping of products. Products are fetched
// through the product listing endpoint with a collection filter, so the
// collection itself carries no product list.
type Collection struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	BodyHTML    string    `json:"body_html,omitempty"`
	ImageSrc    string    `json:"image_src,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

type rawCollection struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	BodyHTML    string `json:"body_html"`
	ImageSrc    string `json:"image_src"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
}

// DecodeCollections decodes a JSON array of collections.
func DecodeCollections(data []byte) ([]Collection, error) {
	var raws []rawCollection
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("catalog: decode collections: %w", err)
	}
	collections := make([]Collection, 0, len(raws))
	for _, raw := range raws {
		c := Collection{
			ID:       raw.ID,
			Title:    raw.Title,
			Handle:   raw.Handle,
			BodyHTML: raw.BodyHTML,
			ImageSrc: raw.ImageSrc,
		}
		var err error
		if c.PublishedAt, err = parseTime(raw.PublishedAt); err != nil {
			return nil, fmt.Errorf("catalog: collection %d: published_at: %w", raw.ID, err)
		}
		if c.CreatedAt, err = parseTime(raw.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: collection %d: created_at: %w", raw.ID, err)
		}
		collections = append(collections, c)
	}
	return collections, nil
}
