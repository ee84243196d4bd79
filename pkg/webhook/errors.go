package webhook

import "errors"

var (
	ErrWebhookDeliveryFailed = errors.New("webhook: delivery failed")
	ErrPermanentFailure      = errors.New("webhook: permanent failure")
	ErrTemporaryFailure      = errors.New("webhook: temporary failure")
	ErrTimeout               = errors.New("webhook: request timeout")
	ErrInvalidURL            = errors.New("webhook: invalid URL")
	ErrInvalidPayload        = errors.New("webhook: invalid payload")
	ErrInvalidConfiguration  = errors.New("webhook: invalid configuration")

	// ErrInvalidSignature covers missing, malformed, stale and mismatching signatures.
	ErrInvalidSignature = errors.New("webhook: invalid signature")
)
