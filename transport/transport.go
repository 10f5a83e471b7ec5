// Package transport performs single HTTP requests for asset sources,
// translating response status into the outcomes the resolution chain
// distinguishes: payload bytes on 2xx, interfaces.ErrAssetNotFound on 404, a
// StatusError for any other non-2xx status, and the underlying transport
// error for network failure. Request descriptors are opaque to the transport;
// callers attach auth headers or method overrides through RequestDecorator
// functions so credentialed stores work without the transport knowing about
// auth schemes.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// Request describes one HTTP request. Method defaults to GET.
type Request struct {
	URL    string
	Method string
	Header http.Header
	Body   []byte
}

// RequestDecorator mutates a request before it is sent, typically to attach
// credentials or override the method.
type RequestDecorator func(*Request)

// StatusError reports a non-2xx, non-404 response. Body carries a bounded
// prefix of the response body for diagnostics.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %s for %s", e.Status, e.URL)
	}
	return fmt.Sprintf("unexpected status %s for %s: %s", e.Status, e.URL, e.Body)
}

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 512

// Client wraps an http.Client with the status translation asset sources rely
// on. The zero value is not usable; construct with NewClient.
type Client struct {
	client *http.Client
	log    *slog.Logger
}

// NewClient creates a transport client with a 30 second request timeout.
func NewClient(log *slog.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// NewClientWithHTTP creates a transport client around a caller-supplied
// http.Client, primarily for tests.
func NewClientWithHTTP(client *http.Client, log *slog.Logger) *Client {
	return &Client{client: client, log: log}
}

// FetchBytes performs the request and returns the response payload.
func (c *Client) FetchBytes(ctx context.Context, req Request) ([]byte, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug("Fetched bytes",
		slog.String("url", req.URL),
		slog.Int("size", len(data)))

	return data, nil
}

// FetchText performs the request and returns the response payload as text,
// with the same status semantics as FetchBytes.
func (c *Client) FetchText(ctx context.Context, req Request) (string, error) {
	data, err := c.FetchBytes(ctx, req)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Do performs the request and returns the raw response for callers that need
// status and headers, such as write paths parsing backend metadata. The
// response body is open on return; 404 and other non-2xx statuses are already
// translated and return a nil response.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, interfaces.ErrAssetNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL,
			Body:       string(bytes.TrimSpace(errBody)),
		}
	}

	return resp, nil
}
