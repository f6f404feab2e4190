// Package config loads configuration for the SDK's commands from flags,
// environment variables, a .env file and defaults, in that precedence.
// The SDK packages themselves never read configuration; they take explicit
// Config structs so embedding applications stay in control.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds everything the buydemo and mockstore commands need.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Shop     ShopConfig
	Emulator EmulatorConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ShopConfig points the demo client at a storefront. The defaults target a
// locally running mockstore.
type ShopConfig struct {
	Domain          string // host[:port] of the storefront API
	APIKey          string
	ChannelID       string
	ApplicationName string
	Insecure        bool // plain http, for local emulator use
}

// EmulatorConfig configures the mockstore server.
type EmulatorConfig struct {
	Port         string
	FixturesPath string // empty means the embedded default catalog
	DataPath     string // badger directory
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RateRPS      int // inbound requests/second per client; 0 disables limiting
	RateBurst    int
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	shopDomain := flag.String("shop-domain", "", "Storefront API host (default: 127.0.0.1:8100)")
	apiKey := flag.String("api-key", "", "Storefront API key")
	channelID := flag.String("channel-id", "", "Sales channel id (default: mobile)")
	appName := flag.String("app-name", "", "Application name for attribution (default: buydemo)")
	insecure := flag.String("insecure", "", "Use plain http to the storefront (default: true)")

	port := flag.String("port", "", "Emulator port (default: 8100)")
	fixtures := flag.String("fixtures", "", "Fixture directory (default: embedded catalog)")
	dataPath := flag.String("data", "", "Emulator data directory")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	rateRPS := flag.String("rate-rps", "", "Inbound requests/second per client, 0 disables (default: 0)")
	rateBurst := flag.String("rate-burst", "", "Inbound burst per client (default: 40)")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Shop: ShopConfig{
			Domain:          getConfigValue(*shopDomain, "SHOP_DOMAIN", "127.0.0.1:8100"),
			APIKey:          getConfigValue(*apiKey, "SHOP_API_KEY", "dev-key"),
			ChannelID:       getConfigValue(*channelID, "SHOP_CHANNEL_ID", "mobile"),
			ApplicationName: getConfigValue(*appName, "SHOP_APP_NAME", "buydemo"),
			Insecure:        getBoolConfigValue(*insecure, "SHOP_INSECURE", true),
		},
		Emulator: EmulatorConfig{
			Port:         getConfigValue(*port, "MOCKSTORE_PORT", "8100"),
			FixturesPath: getConfigValue(*fixtures, "MOCKSTORE_FIXTURES", ""),
			DataPath:     getConfigValue(*dataPath, "MOCKSTORE_DATA", ""),
			RateRPS:      getIntConfigValue(*rateRPS, "MOCKSTORE_RATE_RPS", 0),
			RateBurst:    getIntConfigValue(*rateBurst, "MOCKSTORE_RATE_BURST", 40),
		},
	}

	var err error
	if cfg.Emulator.ReadTimeout, err = parseDurationValue(*readTimeout, "MOCKSTORE_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Emulator.WriteTimeout, err = parseDurationValue(*writeTimeout, "MOCKSTORE_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Emulator.IdleTimeout, err = parseDurationValue(*idleTimeout, "MOCKSTORE_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandFixturesPath(); err != nil {
		return nil, fmt.Errorf("invalid fixtures path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Shop.Domain == "" {
		return errors.New("shop domain cannot be empty")
	}
	if c.Emulator.Port == "" {
		return errors.New("emulator port cannot be empty")
	}
	if c.Emulator.RateRPS < 0 {
		return fmt.Errorf("rate rps cannot be negative: %d", c.Emulator.RateRPS)
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute. Defaults under the
// user's home directory so the emulator keeps state between runs.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".mockstore", "data")

	expanded, err := expandPath(c.Emulator.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Emulator.DataPath = expanded
	return nil
}

// expandFixturesPath expands ~ and makes the path absolute. Empty stays
// empty; it selects the embedded catalog.
func (c *Config) expandFixturesPath() error {
	if c.Emulator.FixturesPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Emulator.FixturesPath, "")
	if err != nil {
		return err
	}
	c.Emulator.FixturesPath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Real environment variables win over .env entries.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
