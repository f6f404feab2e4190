package providers

import (
	"context"
	"os"

	"github.com/samber/do/v2"

	"github.com/msautoparts/buy-sdk-go/internal/config"
	"github.com/msautoparts/buy-sdk-go/internal/logger"
	"github.com/msautoparts/buy-sdk-go/internal/mockstore"
)

// CatalogHandle owns the loaded fixture catalog and, when a fixture
// directory is configured, the watcher that hot-reloads it.
type CatalogHandle struct {
	watcher *mockstore.Watcher
	done    chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	if h.watcher == nil {
		return nil
	}
	err := h.watcher.Close()
	<-h.done
	return err
}

// ProvideCatalog loads fixtures into the store and search index. With a
// fixture directory configured it also watches the directory and reloads the
// catalog when files settle; the embedded default catalog is load-once.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	dir := cfg.Emulator.FixturesPath

	fx, err := loadFixtureSet(dir)
	if err != nil {
		return nil, err
	}
	if err := mockstore.Seed(context.Background(), storeHandle.Store, indexHandle.Index, fx); err != nil {
		return nil, err
	}

	handle := &CatalogHandle{done: make(chan struct{})}
	if dir == "" {
		log.Info("Fixtures loaded", "source", "embedded", "products", len(fx.Products))
		close(handle.done)
		return handle, nil
	}
	log.Info("Fixtures loaded", "source", dir, "products", len(fx.Products))

	w, err := mockstore.NewWatcher(dir, 0, log.Logger)
	if err != nil {
		return nil, err
	}
	handle.watcher = w

	go func() {
		defer close(handle.done)
		for range w.Reloads() {
			fx, err := mockstore.LoadFixtures(os.DirFS(dir))
			if err != nil {
				log.Error("Fixture reload failed, keeping previous catalog", "error", err)
				continue
			}
			if err := mockstore.Seed(context.Background(), storeHandle.Store, indexHandle.Index, fx); err != nil {
				log.Error("Fixture reload failed mid-seed", "error", err)
				continue
			}
			log.Info("Fixtures reloaded", "products", len(fx.Products))
		}
	}()

	return handle, nil
}

func loadFixtureSet(dir string) (*mockstore.Fixtures, error) {
	if dir == "" {
		return mockstore.DefaultFixtures()
	}
	return mockstore.LoadFixtures(os.DirFS(dir))
}
