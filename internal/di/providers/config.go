// Package providers contains dependency injection providers for the
// mockstore emulator.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/msautoparts/buy-sdk-go/internal/config"
	"github.com/msautoparts/buy-sdk-go/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	format := "text"
	if cfg.App.Environment == "production" {
		format = "json"
	}

	log := logger.New(logger.Config{
		Writer:    os.Stdout,
		Format:    format,
		Level:     logger.ParseLevel(cfg.Logger.Level),
		AddSource: cfg.App.Environment == "development",
	})

	log.Info("Starting mockstore",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Emulator.DataPath,
	)

	return log, nil
}
