// Package helpdesk implements the ticket, message and directory sources over the OmniDesk REST API.
package helpdesk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/httputil"
	"ticket_analyzer/pkg/resilience"
)

const (
	defaultPageSize = 100
	totalCountKey   = "total_count"
	maxErrorBody    = 512
)

// Config holds connection settings for the helpdesk API.
type Config struct {
	BaseURL  string
	Username string
	Password string
	RPS      float64
	PageSize int
}

// Client talks to the helpdesk API with basic auth, a request rate limit and a circuit breaker.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a helpdesk client. A nil httpClient uses the pooled helpdesk defaults.
func NewClient(cfg Config, httpClient *http.Client, log zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if httpClient == nil {
		httpClient = httputil.NewClient(httputil.HelpdeskClientConfig())
	}
	log = log.With().Str("component", "helpdesk").Logger()
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), int(cfg.RPS)+1),
		cb:      resilience.NewBreaker(resilience.DefaultBreakerConfig("helpdesk"), log),
		log:     log,
	}
}

// StatusError is a non-200 helpdesk response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helpdesk returned %d: %s", e.StatusCode, e.Body)
}

// getJSON performs an authenticated GET and decodes the JSON body into dest.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, resilience.NonTripping(fmt.Errorf("create request: %w", err))
		}
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			serr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, resilience.NonTripping(serr)
			}
			return nil, serr
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return nil, resilience.NonTripping(apperr.ParseError("helpdesk response", err))
		}
		return nil, nil
	})
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Str("breaker", c.cb.State().String()).Msg("helpdesk request failed")
		return apperr.ExternalError("helpdesk", err)
	}
	return nil
}

// positional decodes the helpdesk's collection layout: records keyed by position plus a
// "total_count" entry. Records come back in position order.
type positional struct {
	records []json.RawMessage
	total   int
}

func (p *positional) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	keys := make([]string, 0, len(raw))
	for k, v := range raw {
		if k == totalCountKey {
			var total json.Number
			if err := json.Unmarshal(v, &total); err == nil {
				n, _ := total.Int64()
				p.total = int(n)
			}
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return positionLess(keys[i], keys[j]) })

	p.records = make([]json.RawMessage, len(keys))
	for i, k := range keys {
		p.records[i] = raw[k]
	}
	return nil
}

// positionLess orders numeric keys numerically and puts any other key after them.
func positionLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}
