// Package anilist is a small GraphQL client for the AniList catalog.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/anihub/services/api/internal/cache"
)

const (
	DefaultURL = "https://graphql.anilist.co"
	maxSuggest = 5
)

// ErrNotFound is returned by Anime when no media matches the search.
var ErrNotFound = errors.New("anilist: not found")

// ClientConfig holds configurable settings for the AniList client.
type ClientConfig struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	Timeout        time.Duration
}

type Client struct {
	URL        string
	HTTPClient *http.Client
	Config     ClientConfig
	CB         *gobreaker.CircuitBreaker
	Cache      cache.Cache
	Log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

func WithCache(cc cache.Cache) Option {
	return func(c *Client) { c.Cache = cc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTPClient = h }
}

func New(url string, cfg ClientConfig, opts ...Option) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 300 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		URL:        strings.TrimRight(url, "/"),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Config:     cfg,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BreakerSettings are the circuit-breaker settings used for AniList. A
// not-found answer is a healthy upstream and does not count as a failure.
func BreakerSettings(name string, maxRequests uint32, interval, timeout time.Duration, failureThreshold uint32) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
}

// Home fetches the six showcase sections.
func (c *Client) Home(ctx context.Context) (Home, error) {
	const key = "anilist:home"
	var out Home
	if c.cached(ctx, key, &out) {
		return out, nil
	}
	res, err := doWithBreaker[Home](ctx, c, homeQuery, nil)
	if err != nil {
		return EmptyHome(), err
	}
	res.normalize()
	c.store(ctx, key, res)
	return *res, nil
}

// Anime fetches the details of the best match for name.
func (c *Client) Anime(ctx context.Context, name string) (Anime, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Anime{}, ErrNotFound
	}
	key := "anilist:anime:" + strings.ToLower(name)
	var out Anime
	if c.cached(ctx, key, &out) {
		return out, nil
	}
	type payload struct {
		Media *mediaDetail `json:"Media"`
	}
	res, err := doWithBreaker[payload](ctx, c, animeQuery, map[string]any{"search": name})
	if err != nil {
		return Anime{}, err
	}
	if res.Media == nil {
		return Anime{}, ErrNotFound
	}
	out = res.Media.toAnime()
	c.store(ctx, key, out)
	return out, nil
}

// Suggest returns up to five autocomplete entries for term.
func (c *Client) Suggest(ctx context.Context, term string) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Suggestion{}, nil
	}
	key := "anilist:suggest:" + strings.ToLower(term)
	var out []Suggestion
	if c.cached(ctx, key, &out) {
		return out, nil
	}
	type payload struct {
		Page struct {
			Media []Suggestion `json:"media"`
		} `json:"Page"`
	}
	res, err := doWithBreaker[payload](ctx, c, suggestQuery, map[string]any{"search": term})
	if err != nil {
		return []Suggestion{}, err
	}
	out = res.Page.Media
	if out == nil {
		out = []Suggestion{}
	}
	if len(out) > maxSuggest {
		out = out[:maxSuggest]
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) cached(ctx context.Context, key string, dest any) bool {
	if c.Cache == nil {
		return false
	}
	ok, err := c.Cache.Get(ctx, key, dest)
	if err != nil {
		c.Log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (c *Client) store(ctx context.Context, key string, v any) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Set(ctx, key, v); err != nil {
		c.Log.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type gqlResponse[T any] struct {
	Data   *T         `json:"data"`
	Errors []gqlError `json:"errors"`
}

// statusError is a non-200 answer from AniList.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("anilist: status %d body=%q", e.Code, e.Body)
}

func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

func doWithBreaker[T any](ctx context.Context, c *Client, query string, vars map[string]any) (*T, error) {
	if c.CB == nil {
		return doGraphQLWithRetry[T](ctx, c, query, vars)
	}
	result, err := c.CB.Execute(func() (interface{}, error) {
		return doGraphQLWithRetry[T](ctx, c, query, vars)
	})
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

func doGraphQLWithRetry[T any](ctx context.Context, c *Client, query string, vars map[string]any) (*T, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.Config.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			c.Log.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err := doGraphQL[T](ctx, c, query, vars)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
		c.Log.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, lastErr
}

func doGraphQL[T any](ctx context.Context, c *Client, query string, vars map[string]any) (*T, error) {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var out gqlResponse[T]
	decodeErr := json.Unmarshal(b, &out)

	// AniList answers a search without a match with 404 and a GraphQL error.
	if resp.StatusCode == http.StatusNotFound || hasNotFound(out.Errors) {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Code: resp.StatusCode, Body: string(b[:min(len(b), 200)])}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("anilist: decode error: %w", decodeErr)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("anilist: %s", out.Errors[0].Message)
	}
	if out.Data == nil {
		return nil, errors.New("anilist: empty data")
	}
	return out.Data, nil
}

func hasNotFound(errs []gqlError) bool {
	for _, e := range errs {
		if e.Status == http.StatusNotFound {
			return true
		}
	}
	return false
}
