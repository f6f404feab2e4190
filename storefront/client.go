// Package storefront provides the HTTP client for a shop's storefront API.
// It covers the catalog read endpoints (shop metadata, products, collections,
// search) and the checkout endpoints (create/update, shipping rates, gift
// cards). Responses decode into the catalog and checkout types; failures map
// to sentinel errors wrapped with operation context.
//
// The client is deliberately thin: one request per call, no retries, no
// pagination, no response caching. A keyed token bucket spaces requests per
// shop domain so a busy caller stays polite.
package storefront

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/msautoparts/buy-sdk-go/internal/ratelimit"
	"github.com/msautoparts/buy-sdk-go/internal/validation"
)

const (
	// Rate limit: 4 requests per second per shop domain, burst of 4.
	defaultRPS   = 4.0
	defaultBurst = 4

	// HTTP client settings
	defaultTimeout = 30 * time.Second

	userAgent = "buy-sdk-go/1.0"
)

// Config configures a storefront client.
type Config struct {
	// ShopDomain is the host (and optional port) of the storefront,
	// e.g. "shop.example.com" or "127.0.0.1:8100". Required.
	ShopDomain string

	// APIKey is the static storefront credential. Required.
	APIKey string

	// ChannelID scopes catalog reads and is stamped onto new checkouts.
	// Required.
	ChannelID string

	// ApplicationName identifies the embedding app in the User-Agent and in
	// checkout marketing attribution. Optional.
	ApplicationName string

	// HTTPClient overrides the default client (30s timeout). Optional.
	HTTPClient *http.Client

	// Logger receives debug request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Insecure switches to plain http, for local emulator use.
	Insecure bool
}

// Client is a rate-limited storefront API client.
type Client struct {
	cfg      Config
	baseURL  string
	http     *http.Client
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	validate *validation.Validator
}

// New creates a storefront client. ShopDomain, APIKey and ChannelID are
// required.
func New(cfg Config) (*Client, error) {
	if cfg.ShopDomain == "" {
		return nil, errors.New("storefront: shop domain is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("storefront: api key is required")
	}
	if cfg.ChannelID == "" {
		return nil, errors.New("storefront: channel id is required")
	}

	scheme := "https"
	if cfg.Insecure {
		scheme = "http"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:      cfg,
		baseURL:  scheme + "://" + cfg.ShopDomain,
		http:     httpClient,
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		logger:   logger,
		validate: validation.New(),
	}, nil
}

// channelPath returns the channel-scoped catalog path for suffix,
// e.g. "/api/channels/mobile/products.json".
func (c *Client) channelPath(suffix string) string {
	return "/api/channels/" + url.PathEscape(c.cfg.ChannelID) + suffix
}

// doRequest executes an HTTP request with rate limiting. A non-nil payload
// is marshaled as the JSON request body. The response body is returned for
// 2xx statuses; other statuses map to sentinel errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	// Wait for rate limit
	if err := c.limiter.Wait(ctx, c.cfg.ShopDomain); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.cfg.APIKey)))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("storefront request",
		"method", method,
		"path", path,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return respBody, nil
	case http.StatusAccepted:
		return nil, ErrShippingRatesPending
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, statusError(ErrBadRequest, respBody)
	case http.StatusUnprocessableEntity:
		return nil, statusError(ErrUnprocessable, respBody)
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
}

func (c *Client) userAgent() string {
	if c.cfg.ApplicationName != "" {
		return c.cfg.ApplicationName + " " + userAgent
	}
	return userAgent
}

// statusError attaches the error envelope detail, when present, to a
// sentinel so callers keep errors.Is while logs keep the server's message.
func statusError(sentinel error, body []byte) error {
	if detail := parseErrorBody(body); detail != "" {
		return fmt.Errorf("%w: %s", sentinel, detail)
	}
	return sentinel
}

// parseErrorBody flattens the {"errors": ...} envelope into one line.
// The errors value is either a string or a field -> messages map.
func parseErrorBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var fielded struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &fielded); err == nil && len(fielded.Errors) > 0 {
		parts := make([]string, 0, len(fielded.Errors))
		for _, field := range slices.Sorted(maps.Keys(fielded.Errors)) {
			parts = append(parts, field+" "+strings.Join(fielded.Errors[field], ", "))
		}
		return strings.Join(parts, "; ")
	}

	var flat struct {
		Errors string `json:"errors"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat.Errors
	}
	return ""
}
