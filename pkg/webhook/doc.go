// Package webhook covers both sides of signed webhook traffic.
//
// Inbound, VerifyMiddleware checks the X-Webhook-Signature and
// X-Webhook-Timestamp headers against an HMAC-SHA256 of
// "<timestamp>.<body>" before the request reaches the ingest handler.
//
// Outbound, Sender posts JSON with retries driven by a BackoffStrategy and
// signs each attempt when WithSignature is given. The same BackoffStrategy
// implementations pace the notification dispatcher's retries.
package webhook
