package storefront

import (
	"errors"
	"fmt"
)

// Sentinel errors for storefront API operations.
var (
	ErrNotFound             = errors.New("storefront: not found")
	ErrBadRequest           = errors.New("storefront: bad request")
	ErrUnprocessable        = errors.New("storefront: unprocessable request")
	ErrRateLimited          = errors.New("storefront: rate limited by server")
	ErrServer               = errors.New("storefront: server error")
	ErrShippingRatesPending = errors.New("storefront: shipping rates not ready")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op   string // Operation: "getProduct", "createCheckout", ...
	Path string // Request path, if a request was attempted
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storefront %s [%s]: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storefront %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, path string, err error) error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
