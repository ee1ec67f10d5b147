// Package crossref is a rate-limited client for the Crossref REST API that
// returns works as source.Record values.
package crossref

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/source"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the polite-pool request rate.
	RateLimit = 10.0

	// DefaultMaxRetries bounds attempts on network errors, 429 and 5xx.
	DefaultMaxRetries = 3

	// DefaultSearchRows is how many candidates a bibliographic query returns.
	DefaultSearchRows = 5

	// DefaultTitleThreshold is the title ratio a search hit needs.
	DefaultTitleThreshold = 90
)

// Client is a rate-limited HTTP client for the Crossref API.
type Client struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	mailto         string
	maxRetries     int
	backoffBase    time.Duration
	titleThreshold int
	log            *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMailto identifies the caller for Crossref's polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithRate sets the request rate in requests per second.
func WithRate(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxRetries sets the number of attempts per request.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay between retries.
func WithBackoff(base time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffBase = base
	}
}

// WithTitleThreshold sets the title ratio search hits must reach.
func WithTitleThreshold(t int) ClientOption {
	return func(c *Client) {
		if t > 0 {
			c.titleThreshold = t
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a new Crossref API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		limiter:        rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:        BaseURL,
		maxRetries:     DefaultMaxRetries,
		backoffBase:    time.Second,
		titleThreshold: DefaultTitleThreshold,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupDOI fetches the work registered for doi.
func (c *Client) LookupDOI(ctx context.Context, doi string) (*source.Record, error) {
	if doi == "" {
		return nil, eris.Wrap(ErrNotFound, "empty doi")
	}
	body, err := c.get(ctx, "/works/"+url.PathEscape(doi), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.DOI = doi
		}
		return nil, err
	}
	recs, err := source.ParseCrossref(body)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidResponse, "doi %s: %v", doi, err)
	}
	if len(recs) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "doi %s", doi)
	}
	return &recs[0], nil
}

// Search runs a bibliographic query and returns up to rows works.
func (c *Client) Search(ctx context.Context, query string, rows int) ([]source.Record, error) {
	if rows <= 0 {
		rows = DefaultSearchRows
	}
	params := url.Values{}
	params.Set("query.bibliographic", query)
	params.Set("rows", strconv.Itoa(rows))
	body, err := c.get(ctx, "/works", params)
	if err != nil {
		return nil, err
	}
	recs, err := source.ParseCrossref(body)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidResponse, "query %q: %v", query, err)
	}
	return recs, nil
}

// Lookup finds the work a tokenized citation refers to: by DOI when it has
// one, otherwise by a bibliographic query whose best hit must agree on
// title and, when both are known, year.
func (c *Client) Lookup(ctx context.Context, tok citation.Tokenized) (*source.Record, error) {
	if tok.DOI != "" {
		return c.LookupDOI(ctx, tok.DOI)
	}
	if tok.Title == "" {
		return nil, eris.Wrap(ErrNotFound, "citation has no doi or title")
	}

	query := tok.Title
	if len(tok.Authors) > 0 {
		query = tok.Authors[0].Last + " " + query
	}
	if tok.Year != 0 {
		query += " " + strconv.Itoa(tok.Year)
	}
	recs, err := c.Search(ctx, query, DefaultSearchRows)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		rec := &recs[i]
		if tok.Year != 0 && rec.Published.Year != 0 && rec.Published.Year != tok.Year {
			continue
		}
		if match.TitlesMatch(rec.Title, tok.Title, c.titleThreshold) {
			return rec, nil
		}
	}
	return nil, eris.Wrapf(ErrNotFound, "no work matching %q", tok.Title)
}

// get performs a rate-limited GET with retry and returns the body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.mailto != "" {
		if params == nil {
			params = url.Values{}
		}
		params.Set("mailto", c.mailto)
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}
	return body, nil
}

func (c *Client) userAgent() string {
	if c.mailto != "" {
		return fmt.Sprintf("pubtrack/1.0 (mailto:%s)", c.mailto)
	}
	return "pubtrack/1.0"
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return eris.Wrapf(ErrNotFound, "%s", resp.Request.URL.Path)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return nil
}

func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	limited := false
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			c.log.Warn("crossref request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			limited = resp.StatusCode == http.StatusTooManyRequests
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, req.URL.Path)
			c.log.Warn("crossref server busy, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1))
			c.backoff(ctx, attempt)
			continue
		}
		return resp, nil
	}

	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "crossref request")
	}
	if limited {
		return nil, eris.Wrapf(ErrRateLimited, "all %d retries exhausted", c.maxRetries)
	}
	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	if c.backoffBase <= 0 {
		return
	}
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(c.backoffBase) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
