package taskrecords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/auditoria/auditoria/pkg/requestid"
)

// Fetcher loads the complete task-record dataset.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]Entry, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]Entry, error)

func (f FetcherFunc) FetchAll(ctx context.Context) ([]Entry, error) { return f(ctx) }

const maxErrorBody = 4 << 10

// HTTPFetcher fetches the dataset with a single GET request.
type HTTPFetcher struct {
	url    string
	token  string
	client *http.Client
}

type HTTPFetcherOption func(*HTTPFetcher)

// WithBearerToken sends token in the Authorization header.
func WithBearerToken(token string) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.token = token }
}

func WithHTTPClient(c *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewHTTPFetcher builds a fetcher for url. The default client forwards the
// caller's request id and times out after 30 seconds.
func NewHTTPFetcher(url string, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		url: url,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: requestid.Transport{},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll accepts a bare JSON array or an object wrapping the array under
// "data" or "tasks".
func (f *HTTPFetcher) FetchAll(ctx context.Context) ([]Entry, error) {
	if f.url == "" {
		return nil, &UpstreamFetchError{Err: ErrNoUpstream}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &UpstreamFetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamFetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Err: err}
	}
	entries, err := decodeDataset(body)
	if err != nil {
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Err: err}
	}
	return entries, nil
}

func decodeDataset(body []byte) ([]Entry, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		return entries, nil
	}

	var wrapped struct {
		Data  []Entry `json:"data"`
		Tasks []Entry `json:"tasks"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	if wrapped.Tasks != nil {
		return wrapped.Tasks, nil
	}
	return []Entry{}, nil
}

// upstreamMessage prefers a JSON "message" or "error" field over the raw body.
func upstreamMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		if m.Error != "" {
			return m.Error
		}
	}
	return strings.TrimSpace(string(body))
}
