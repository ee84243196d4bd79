package pager

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/auditoria/auditoria/pkg/requestid"
	"github.com/auditoria/auditoria/pkg/taskrecords"
)

// Fetcher loads one page of task records.
type Fetcher interface {
	Fetch(ctx context.Context, f taskrecords.Filter, page int) (taskrecords.Page, error)
}

type FetcherFunc func(ctx context.Context, f taskrecords.Filter, page int) (taskrecords.Page, error)

func (fn FetcherFunc) Fetch(ctx context.Context, f taskrecords.Filter, page int) (taskrecords.Page, error) {
	return fn(ctx, f, page)
}

// HTTPFetcher queries the /tasks-records endpoint of a running server.
type HTTPFetcher struct {
	endpoint string
	token    string
	client   *http.Client
}

type HTTPOption func(*HTTPFetcher)

func WithToken(token string) HTTPOption {
	return func(f *HTTPFetcher) { f.token = token }
}

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewHTTPFetcher targets baseURL + "/tasks-records".
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		endpoint: strings.TrimRight(baseURL, "/") + "/tasks-records",
		client:   &http.Client{Timeout: 30 * time.Second, Transport: requestid.Transport{}},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, filter taskrecords.Filter, page int) (taskrecords.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	filter.Encode(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return taskrecords.Page{}, err
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return taskrecords.Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&body)
		return taskrecords.Page{}, &FetchError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	var p taskrecords.Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return taskrecords.Page{}, fmt.Errorf("decode page %d: %w", page, err)
	}
	return p, nil
}

// FetchError is a non-200 answer from the search endpoint.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tasks-records responded %d", e.StatusCode)
	}
	return fmt.Sprintf("tasks-records responded %d: %s", e.StatusCode, e.Message)
}
