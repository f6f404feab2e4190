// Package id generates the identifiers the storefront emulator hands out:
// line item ids ("li-...") and shipping rate ids ("rate-..."). Checkout
// tokens are UUIDs and come from the uuid package instead; these prefixed
// NanoIDs are for values a human might read in a fixture or a log line.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const shortLength = 12

// Generate creates a prefixed unique ID, e.g. "li-V1StGXR8_Z5jdHi6B-myT".
// The random part is a standard 21-character NanoID.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Short creates a prefixed 12-character ID for values that appear on the
// wire a lot, like shipping rate ids.
func Short(prefix string) (string, error) {
	id, err := gonanoid.New(shortLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
