// Package httpjson implements provider.Gateway against a retailer search API
// that speaks JSON.
//
// The gateway issues GET {base}/search?q=...&page=... and accepts either
// {"listings":[...]} or a bare array. Prices may be numbers or display text.
// Transport errors and 5xx/429 answers are retried with exponential backoff;
// any other non-2xx answer fails at once.
package httpjson

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/provider"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "cartwise/1.0"
	DefaultAttempts  = 3
	DefaultBaseDelay = 200 * time.Millisecond

	// maxBody caps how much of a response is read.
	maxBody = 8 << 20
)

// Gateway searches one retailer through its JSON API.
type Gateway struct {
	retailer  core.Retailer
	class     core.ShippingClass
	baseURL   string
	client    *http.Client
	userAgent string
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger
}

var _ provider.Gateway = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway) error

// WithClass overrides the retailer's usual shipping class.
func WithClass(class core.ShippingClass) Option {
	return func(g *Gateway) error {
		if class != core.ShippingDomestic && class != core.ShippingInternational {
			return fmt.Errorf("%w: shipping class %q", ErrInvalidConfig, class)
		}
		g.class = class
		return nil
	}
}

// WithTimeout sets the per-request HTTP timeout.
// Default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
		}
		g.client.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) error {
		if c == nil {
			return fmt.Errorf("%w: nil http client", ErrInvalidConfig)
		}
		g.client = c
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) error {
		if ua = strings.TrimSpace(ua); ua != "" {
			g.userAgent = ua
		}
		return nil
	}
}

// WithRetry sets the attempt count and the first backoff delay.
// Default is 3 attempts starting at 200ms.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(g *Gateway) error {
		if attempts <= 0 || baseDelay < 0 {
			return fmt.Errorf("%w: retry attempts %d, delay %s", ErrInvalidConfig, attempts, baseDelay)
		}
		g.attempts = attempts
		g.baseDelay = baseDelay
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) error {
		if l != nil {
			g.logger = l
		}
		return nil
	}
}

// New creates a gateway for retailer rooted at baseURL.
func New(retailer core.Retailer, baseURL string, opts ...Option) (provider.Gateway, error) {
	return newGateway(retailer, baseURL, opts...)
}

func newGateway(retailer core.Retailer, baseURL string, opts ...Option) (*Gateway, error) {
	if !retailer.Valid() {
		return nil, fmt.Errorf("%w: %q", provider.ErrUnknownRetailer, retailer)
	}
	base := strings.TrimSpace(baseURL)
	u, err := url.Parse(base)
	if base == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, baseURL)
	}
	g := &Gateway{
		retailer:  retailer,
		class:     provider.DefaultClass(retailer),
		baseURL:   strings.TrimRight(base, "/"),
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		logger:    slog.Default().With("component", "httpjson", "retailer", string(retailer)),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Gateway) Retailer() core.Retailer   { return g.retailer }
func (g *Gateway) Class() core.ShippingClass { return g.class }

// Search fetches one page of results and normalizes them.
func (g *Gateway) Search(ctx context.Context, query string, page int) ([]core.Listing, error) {
	if page < 1 {
		page = 1
	}
	u, err := url.Parse(g.baseURL + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", strings.TrimSpace(query))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	start := time.Now()
	var body []byte
	err = provider.RetryWithBackoff(ctx, func() error {
		var getErr error
		body, getErr = g.get(ctx, u.String())
		return getErr
	}, g.attempts, g.baseDelay)
	if err != nil {
		g.logger.Warn("search failed", "query", query, "page", page, "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	items, err := decode(body)
	if err != nil {
		return nil, err
	}
	listings := make([]core.Listing, 0, len(items))
	for _, it := range items {
		listings = append(listings, it.listing())
	}
	out := provider.Normalize(g.retailer, g.class, listings)
	g.logger.Debug("search complete", "query", query, "page", page, "listings", len(out), "elapsed", time.Since(start))
	return out, nil
}

func (g *Gateway) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, provider.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return b, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	default:
		return nil, provider.Permanent(fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode))
	}
}
