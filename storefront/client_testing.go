package storefront

import (
	"log/slog"
	"os"
	"strings"

	"github.com/msautoparts/buy-sdk-go/internal/ratelimit"
)

// Test helpers for unit testing with local HTTP servers.

// newTestClient returns a client bound to a test server URL over plain http,
// with a limiter generous enough that tests never block on politeness.
func newTestClient(serverURL string) *Client {
	c, err := New(Config{
		ShopDomain:      strings.TrimPrefix(serverURL, "http://"),
		APIKey:          "test-key",
		ChannelID:       "test-channel",
		ApplicationName: "sdk-tests",
		Logger:          slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
		Insecure:        true,
	})
	if err != nil {
		panic(err)
	}
	c.limiter = ratelimit.New(1000, 1000)
	return c
}
