package providers

import (
	"github.com/samber/do/v2"

	"github.com/msautoparts/buy-sdk-go/internal/config"
	"github.com/msautoparts/buy-sdk-go/internal/logger"
	"github.com/msautoparts/buy-sdk-go/internal/mockstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*mockstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the emulator's persistence layer.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := mockstore.NewStore(cfg.Emulator.DataPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Store opened", "path", cfg.Emulator.DataPath)

	return &StoreHandle{Store: st}, nil
}
