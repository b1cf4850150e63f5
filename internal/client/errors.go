package client

import (
	"errors"

	"github.com/stripe/stripe-go/v82"
)

// IsProviderError reports whether err came from a third-party provider
// rather than from this service.
func IsProviderError(err error) bool {
	if errors.Is(err, ErrPaymentDisabled) || errors.Is(err, ErrChatDisabled) {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return true
	}
	var sbErr *SendbirdError
	return errors.As(err, &sbErr)
}
