package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/storefront-kit/pricing-api/internal/resilience"
)

// RateProvider fetches exchange rates for the primary currency.
type RateProvider interface {
	Latest(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error)
}

// HTTPProvider retrieves rates from a frankfurter-compatible JSON endpoint.
type HTTPProvider struct {
	BaseURL string
	Client  resilience.HTTPClient
}

// NewHTTPProvider constructs a rate provider with an instrumented transport
// behind a retrying circuit breaker.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("rate-provider"),
			MaxAttempts: 3,
			BaseBackoff: 200 * time.Millisecond,
			Jitter:      0.2,
		},
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Latest returns the current rates of symbols against base.
func (p *HTTPProvider) Latest(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		p.BaseURL, url.QueryEscape(base), url.QueryEscape(strings.Join(symbols, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.Client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}
	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	return body.Rates, nil
}

// MockProvider returns static rates and is useful for testing and development.
type MockProvider struct {
	Rates map[string]decimal.Decimal
}

// Latest returns the canned rates regardless of the request.
func (m MockProvider) Latest(_ context.Context, _ string, _ []string) (map[string]decimal.Decimal, error) {
	return m.Rates, nil
}
