package providers

import (
	"github.com/samber/do/v2"

	"github.com/msautoparts/buy-sdk-go/internal/logger"
	"github.com/msautoparts/buy-sdk-go/internal/mockstore"
)

// SearchIndexHandle wraps the product search index with shutdown capability.
type SearchIndexHandle struct {
	*mockstore.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory product search index. It starts
// empty; the catalog provider fills it when fixtures load.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	ix, err := mockstore.NewIndex()
	if err != nil {
		return nil, err
	}

	log.Info("Search index ready")

	return &SearchIndexHandle{Index: ix}, nil
}
