package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/petasbytes/toolgraph/internal/metrics"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 4 << 20

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Snippet)
}

// httpClient is the shared transport of the HTTP-backed tools.
type httpClient struct {
	client    *http.Client
	userAgent string
}

// HTTPOptions carries the client and User-Agent shared by the HTTP-backed tools.
// A nil *HTTPOptions means http.DefaultClient and no User-Agent override.
type HTTPOptions struct {
	Client    *http.Client
	UserAgent string
}

func (o *HTTPOptions) client() httpClient {
	if o == nil {
		return httpClient{client: http.DefaultClient}
	}
	c := o.Client
	if c == nil {
		c = http.DefaultClient
	}
	return httpClient{client: c, userAgent: o.UserAgent}
}

// do sends req and returns the (size-bounded) body of a 2xx response.
func (h httpClient) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req = req.WithContext(ctx)
	if h.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := metrics.Truncate(strings.TrimSpace(string(body)), 200)
		return nil, &StatusError{StatusCode: resp.StatusCode, Snippet: snippet}
	}
	return body, nil
}

func (h httpClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return h.do(ctx, req)
}
