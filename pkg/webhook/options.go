package webhook

import (
	"net/http"
	"time"
)

// DeliveryResult describes one delivery attempt.
type DeliveryResult struct {
	Success    bool
	StatusCode int
	Attempt    int
	Duration   time.Duration
	Body       []byte
	Error      error
}

// DeliveryHook is called after each delivery attempt.
type DeliveryHook func(result DeliveryResult)

type sendOptions struct {
	timeout         time.Duration
	headers         map[string]string
	httpClient      *http.Client
	maxRetries      int
	backoffStrategy BackoffStrategy
	signatureSecret string
	onDelivery      DeliveryHook
}

func defaultSendOptions() *sendOptions {
	return &sendOptions{
		timeout:         10 * time.Second,
		headers:         make(map[string]string),
		maxRetries:      3,
		backoffStrategy: DefaultBackoffStrategy(),
	}
}

// SendOption configures a single Send call.
type SendOption func(*sendOptions)

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) { o.headers[key] = value }
}

// WithMaxRetries sets how many times a failed delivery is retried.
func WithMaxRetries(n int) SendOption {
	return func(o *sendOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

func WithBackoff(strategy BackoffStrategy) SendOption {
	return func(o *sendOptions) {
		if strategy != nil {
			o.backoffStrategy = strategy
		}
	}
}

// WithSignature signs every attempt with secret.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) { o.signatureSecret = secret }
}

func WithHTTPClient(client *http.Client) SendOption {
	return func(o *sendOptions) { o.httpClient = client }
}

func WithOnDelivery(hook DeliveryHook) SendOption {
	return func(o *sendOptions) { o.onDelivery = hook }
}

// WithNoRetry makes Send give up after the first failure.
func WithNoRetry() SendOption {
	return WithMaxRetries(0)
}
