// Package collaborator holds the HTTP clients for the services the checkout flow calls:
// user, cart and the payment gateway. Clients report the upstream status code and return
// an error only when the call did not complete.
package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns a client with a bounded timeout whose transport emits client spans
// and propagates the trace context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Host
			}),
		),
	}
}

type base struct {
	url    string
	client *http.Client
}

func newBase(rawURL string, client *http.Client) base {
	if client == nil {
		client = http.DefaultClient
	}
	return base{url: strings.TrimRight(rawURL, "/"), client: client}
}

func (b base) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return b.url + "/" + strings.Join(escaped, "/")
}

// do sends the request and returns the status code. The body is drained so the
// connection can be reused.
func (b base) do(ctx context.Context, method, target string, body any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
