package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"
)

// Object is a downloaded or stored payload
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// InvoiceFetcher downloads an invoice document from a remote location
type InvoiceFetcher interface {
	Fetch(ctx context.Context, invoiceURL string) (*Object, error)
}

// HTTPInvoiceFetcher implements InvoiceFetcher over plain HTTP(S) with
// retries on transient failures
type HTTPInvoiceFetcher struct {
	client   *http.Client
	maxBytes int64
	attempts int
	backoff  time.Duration
}

// FetcherOption customizes an HTTPInvoiceFetcher
type FetcherOption func(*HTTPInvoiceFetcher)

// WithMaxBytes caps the accepted body size
func WithMaxBytes(n int64) FetcherOption {
	return func(f *HTTPInvoiceFetcher) { f.maxBytes = n }
}

// WithBackoff sets the base delay between attempts (attempt n waits n*base)
func WithBackoff(base time.Duration) FetcherOption {
	return func(f *HTTPInvoiceFetcher) { f.backoff = base }
}

// WithTimeout sets the overall client timeout
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPInvoiceFetcher) { f.client.Timeout = d }
}

// NewHTTPInvoiceFetcher creates an HTTP invoice fetcher
func NewHTTPInvoiceFetcher(opts ...FetcherOption) *HTTPInvoiceFetcher {
	transport := &http.Transport{
		// Connection pooling sized for single document downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	f := &HTTPInvoiceFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: 16 << 20,
		attempts: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the document. 5xx responses and transport errors are
// retried; 4xx responses are not.
func (h *HTTPInvoiceFetcher) Fetch(ctx context.Context, invoiceURL string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, invoiceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, application/pdf, */*")
	req.Header.Set("User-Agent", "Invoice-Inspector/1.0")

	var (
		resp    *http.Response
		lastErr error
	)
	for attempt := 0; attempt < h.attempts; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = err
			resp = nil
		} else if resp.StatusCode == http.StatusOK {
			break
		} else {
			resp.Body.Close()
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, fmt.Errorf("failed to fetch invoice: client error: status code %d", resp.StatusCode)
			}
			if resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
			} else {
				lastErr = fmt.Errorf("unexpected status code %d", resp.StatusCode)
			}
			resp = nil
		}

		if attempt < h.attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	if resp == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("unknown error")
		}
		return nil, fmt.Errorf("failed to fetch invoice after %d attempts: %w", h.attempts, lastErr)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice body: %w", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, fmt.Errorf("invoice exceeds %d bytes", h.maxBytes)
	}

	return &Object{
		Name:        path.Base(req.URL.Path),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
