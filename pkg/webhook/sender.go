package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender posts JSON payloads to webhook endpoints with retries and optional signing.
type Sender struct {
	client *http.Client
}

func NewSender() *Sender {
	return &Sender{client: &http.Client{Timeout: 30 * time.Second}}
}

// NewSenderWithClient uses client for every request. A nil client falls back to NewSender.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		return NewSender()
	}
	return &Sender{client: client}
}

// Send marshals data to JSON and POSTs it to webhookURL. It returns the
// result of the last attempt. 4xx responses other than 408, 425 and 429
// are not retried.
func (s *Sender) Send(ctx context.Context, webhookURL string, data any, opts ...SendOption) (DeliveryResult, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return DeliveryResult{}, errors.Join(ErrInvalidPayload, err)
	}
	return s.SendRaw(ctx, webhookURL, payload, opts...)
}

// SendRaw is Send for an already encoded JSON body.
func (s *Sender) SendRaw(ctx context.Context, webhookURL string, payload []byte, opts ...SendOption) (DeliveryResult, error) {
	if err := validateTarget(webhookURL, payload); err != nil {
		return DeliveryResult{}, err
	}

	options := defaultSendOptions()
	for _, opt := range opts {
		opt(options)
	}
	client := s.client
	if options.httpClient != nil {
		client = options.httpClient
	}

	var (
		result  DeliveryResult
		lastErr error
	)
	for attempt := 0; attempt <= options.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(options.backoffStrategy.NextInterval(attempt)):
			}
		}

		result, lastErr = s.attempt(ctx, client, webhookURL, payload, options)
		result.Attempt = attempt + 1
		if options.onDelivery != nil {
			options.onDelivery(result)
		}
		if lastErr == nil {
			return result, nil
		}
		if isPermanent(result.StatusCode) {
			return result, fmt.Errorf("%w: %w", ErrPermanentFailure, lastErr)
		}
	}

	return result, fmt.Errorf("%w after %d attempts: %w", ErrWebhookDeliveryFailed, options.maxRetries+1, lastErr)
}

func validateTarget(webhookURL string, payload []byte) error {
	if webhookURL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	return nil
}

func (s *Sender) attempt(ctx context.Context, client *http.Client, webhookURL string, payload []byte, options *sendOptions) (DeliveryResult, error) {
	start := time.Now()
	var result DeliveryResult

	reqCtx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		result.Error = err
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "auditoria-webhook/1.0")
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}
	if options.signatureSecret != "" {
		sig, err := SignPayload(options.signatureSecret, payload)
		if err != nil {
			result.Error = err
			return result, err
		}
		sig.Apply(req.Header)
	}

	resp, err := client.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return result, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	result.Body, _ = io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if !result.Success {
		msg := fmt.Sprintf("webhook returned status %d", resp.StatusCode)
		if len(result.Body) > 0 {
			body := strings.ReplaceAll(string(result.Body), "\n", " ")
			if len(body) > 200 {
				body = body[:200] + "..."
			}
			msg += ": " + body
		}
		result.Error = errors.New(msg)
		return result, result.Error
	}
	return result, nil
}

func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
