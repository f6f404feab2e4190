package mockstore

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/msautoparts/buy-sdk-go/catalog"
)

// searchLimit caps how many products a search answers with.
const searchLimit = 50

func (s *Server) handleGetMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.shopMeta(r.Context())
	if err != nil {
		s.logger.Error("Failed to load shop meta", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "shop not loaded", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, shopEnvelope{Shop: meta.Shop}, s.logger)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := chi.URLParam(r, "channelID")
	query := r.URL.Query()

	var idFilter map[string]bool
	if raw := query.Get("product_ids"); raw != "" {
		idFilter = make(map[string]bool)
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				idFilter[id] = true
			}
		}
	}
	handle := query.Get("handle")
	tag := query.Get("tag")

	var collectionProducts map[string]bool
	if raw := query.Get("collection_id"); raw != "" {
		cid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeFieldError(w, http.StatusBadRequest, "collection_id", "is not a valid collection id", s.logger)
			return
		}
		collectionProducts = make(map[string]bool)
		c, err := s.store.collections.Get(ctx, collectionKey(cid))
		switch {
		case errors.Is(err, ErrNotFound):
			// Unknown collections produce an empty listing, not an error.
		case err != nil:
			s.logger.Error("Failed to load collection", "error", err, "collection_id", cid)
			writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
			return
		default:
			for _, pid := range c.ProductIDs {
				collectionProducts[pid] = true
			}
		}
	}

	products := make([]catalog.Product, 0)
	for p, err := range s.store.products.List(ctx) {
		if err != nil {
			s.logger.Error("Failed to list products", "error", err)
			writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
			return
		}
		if !productVisible(p, channelID) {
			continue
		}
		if idFilter != nil && !idFilter[p.ID] {
			continue
		}
		if handle != "" && p.Handle != handle {
			continue
		}
		if tag != "" && !p.TagSet.Has(tag) {
			continue
		}
		if collectionProducts != nil && !collectionProducts[p.ID] {
			continue
		}
		products = append(products, *p)
	}

	writeJSON(w, http.StatusOK, productsEnvelope{Products: products}, s.logger)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	productID := chi.URLParam(r, "productID")

	p, err := s.store.products.Get(r.Context(), productID)
	if errors.Is(err, ErrNotFound) {
		writeErrorMessage(w, http.StatusNotFound, "Not Found", s.logger)
		return
	}
	if err != nil {
		s.logger.Error("Failed to load product", "error", err, "product_id", productID)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}
	if !productVisible(p, channelID) {
		writeErrorMessage(w, http.StatusNotFound, "Not Found", s.logger)
		return
	}

	writeJSON(w, http.StatusOK, productEnvelope{Product: p}, s.logger)
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := chi.URLParam(r, "channelID")

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeFieldError(w, http.StatusBadRequest, "q", "can't be blank", s.logger)
		return
	}
	if s.index == nil {
		s.logger.Warn("Search requested but no index is configured")
		writeJSON(w, http.StatusOK, productsEnvelope{Products: []catalog.Product{}}, s.logger)
		return
	}

	ids, err := s.index.Search(ctx, q, searchLimit)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", q)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
		return
	}

	products := make([]catalog.Product, 0, len(ids))
	for _, pid := range ids {
		p, err := s.store.products.Get(ctx, pid)
		if errors.Is(err, ErrNotFound) {
			// The index can briefly lag the store around a fixture reload.
			continue
		}
		if err != nil {
			s.logger.Error("Failed to load product", "error", err, "product_id", pid)
			writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
			return
		}
		if !productVisible(p, channelID) {
			continue
		}
		products = append(products, *p)
	}

	writeJSON(w, http.StatusOK, productsEnvelope{Products: products}, s.logger)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections := make([]catalog.Collection, 0)
	for c, err := range s.store.collections.List(r.Context()) {
		if err != nil {
			s.logger.Error("Failed to list collections", "error", err)
			writeErrorMessage(w, http.StatusInternalServerError, "internal server error", s.logger)
			return
		}
		collections = append(collections, c.Collection)
	}

	writeJSON(w, http.StatusOK, collectionsEnvelope{Collections: collections}, s.logger)
}

// productVisible reports whether a product is served on the given channel.
// Products with no channel are published everywhere.
func productVisible(p *catalog.Product, channelID string) bool {
	if !p.Published {
		return false
	}
	return p.ChannelID == "" || p.ChannelID == channelID
}
