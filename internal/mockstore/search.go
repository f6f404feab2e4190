package mockstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/msautoparts/buy-sdk-go/catalog"
)

// indexBatchSize bounds how many products go into one indexing batch.
const indexBatchSize = 500

// Index answers product search queries for the emulator. The whole catalog
// is reindexed on every fixture load, so the index is held in memory rather
// than on disk; rebuilding a fixture-sized catalog is cheap.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewIndex creates an empty in-memory product index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{index: idx}, nil
}

// buildIndexMapping defines how products are analyzed: titles get full
// English text treatment, vendor and product type are tokenized without
// stemming, and tags are matched exactly.
func buildIndexMapping() mapping.IndexMapping {
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName

	simpleField := bleve.NewTextFieldMapping()
	simpleField.Analyzer = simple.Name

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	productMapping := bleve.NewDocumentMapping()
	productMapping.AddFieldMappingsAt("title", titleField)
	productMapping.AddFieldMappingsAt("vendor", simpleField)
	productMapping.AddFieldMappingsAt("product_type", simpleField)
	productMapping.AddFieldMappingsAt("tags", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = productMapping
	indexMapping.DefaultAnalyzer = en.AnalyzerName
	return indexMapping
}

// productDocument is the indexed projection of a product. Field names line
// up with buildIndexMapping through the json tags.
type productDocument struct {
	Title       string   `json:"title"`
	Vendor      string   `json:"vendor"`
	ProductType string   `json:"product_type"`
	Tags        []string `json:"tags"`
}

// ReplaceAll rebuilds the index from the given products. The fresh index is
// swapped in atomically; searches in flight finish against the old one.
func (ix *Index) ReplaceAll(products []catalog.Product) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}

	batch := fresh.NewBatch()
	for i := range products {
		p := &products[i]
		doc := productDocument{
			Title:       p.Title,
			Vendor:      p.Vendor,
			ProductType: p.ProductType,
			Tags:        p.TagSet.Values(),
		}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("indexing product %s: %w", p.ID, err)
		}
		if batch.Size() >= indexBatchSize {
			if err := fresh.Batch(batch); err != nil {
				return fmt.Errorf("flushing index batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := fresh.Batch(batch); err != nil {
			return fmt.Errorf("flushing index batch: %w", err)
		}
	}

	ix.mu.Lock()
	old := ix.index
	ix.index = fresh
	ix.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search returns the IDs of products matching the query, best first.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	title := bleve.NewMatchQuery(query)
	title.SetField("title")
	title.SetBoost(3.0)

	vendor := bleve.NewMatchQuery(query)
	vendor.SetField("vendor")

	productType := bleve.NewMatchQuery(query)
	productType.SetField("product_type")

	tags := bleve.NewMatchQuery(query)
	tags.SetField("tags")

	// Fuzzy pass picks up near-miss spellings of single terms.
	fuzzy := bleve.NewFuzzyQuery(query)
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)

	disjunction := bleve.NewDisjunctionQuery(title, vendor, productType, tags, fuzzy)
	req := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// DocumentCount returns the number of indexed products.
func (ix *Index) DocumentCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close releases the underlying index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
