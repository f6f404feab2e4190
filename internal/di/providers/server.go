package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/msautoparts/buy-sdk-go/internal/config"
	"github.com/msautoparts/buy-sdk-go/internal/logger"
	"github.com/msautoparts/buy-sdk-go/internal/mockstore"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the emulator's HTTP server, listening as soon
// as it is constructed. The catalog handle is a dependency so fixtures are
// in place before the first request can arrive.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	_ = do.MustInvoke[*CatalogHandle](i)

	handler, err := mockstore.NewServer(mockstore.Options{
		Store:     storeHandle.Store,
		Index:     indexHandle.Index,
		Logger:    log.Logger,
		RateRPS:   float64(cfg.Emulator.RateRPS),
		RateBurst: cfg.Emulator.RateBurst,
	})
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Emulator.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Emulator.ReadTimeout,
		WriteTimeout: cfg.Emulator.WriteTimeout,
		IdleTimeout:  cfg.Emulator.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
