// Package animesonline scrapes animesonlinecc.to: search for the title, pick
// the episode from the anime page, then read the player iframe.
package animesonline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/anihub/services/api/internal/provider"
)

const (
	Name           = "AnimesOnlineCC"
	DefaultBaseURL = "https://animesonlinecc.to"
	// DefaultUserAgent identifies as a desktop browser to reduce bot blocking.
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultRequestTimeout = 8 * time.Second

	maxBodyBytes = 2 << 20
)

// Config holds the static settings of a Scraper.
type Config struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
}

// Scraper implements provider.Provider. All fields are set at construction
// and never mutated, so one Scraper serves concurrent calls.
type Scraper struct {
	cfg      Config
	http     *http.Client
	throttle *provider.Throttle
	limiter  *rate.Limiter
	log      *zap.Logger
}

// Option configures the Scraper.
type Option func(*Scraper)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.http = c }
}

func WithThrottle(t *provider.Throttle) Option {
	return func(s *Scraper) { s.throttle = t }
}

// WithLimiter paces this scraper's requests on top of any shared throttle.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Scraper) { s.log = log }
}

func New(cfg Config, opts ...Option) *Scraper {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	s := &Scraper{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scraper) Identity() provider.Identity {
	return provider.Identity{Name: Name, BaseURL: s.cfg.BaseURL}
}

// Resolve runs search, episode location and player extraction in sequence.
// Each stage needs the previous stage's page, so nothing runs in parallel.
func (s *Scraper) Resolve(ctx context.Context, req provider.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	animeURL, err := s.search(ctx, req.AnimeTitle)
	if err != nil {
		return "", err
	}
	episodeURL, err := s.locateEpisode(ctx, animeURL, req.Episode)
	if err != nil {
		return "", err
	}
	return s.extractPlayer(ctx, episodeURL)
}

// SearchURL builds the site search URL; spaces in the title become '+'.
func (s *Scraper) SearchURL(title string) string {
	return s.cfg.BaseURL + "/?s=" + url.QueryEscape(strings.TrimSpace(title))
}

func (s *Scraper) search(ctx context.Context, title string) (string, error) {
	p, err := s.fetch(ctx, provider.StageSearch, s.SearchURL(title))
	if err != nil {
		return "", err
	}
	if p.status != http.StatusOK {
		return "", s.fail(provider.StageSearch, provider.SiteRejected, p.url.String(), p.status, nil)
	}
	href, err := FindAnimeLink(p.doc)
	if err != nil {
		return "", s.fail(provider.StageSearch, provider.KindOf(err), p.url.String(), p.status, nil)
	}
	animeURL, err := p.resolve(href)
	if err != nil {
		return "", s.fail(provider.StageSearch, provider.ParseFailure, p.url.String(), p.status, err)
	}
	s.log.Debug("anime page found", zap.String("title", title), zap.String("url", animeURL))
	return animeURL, nil
}

func (s *Scraper) locateEpisode(ctx context.Context, animeURL string, episode int) (string, error) {
	p, err := s.fetch(ctx, provider.StageEpisodes, animeURL)
	if err != nil {
		return "", err
	}
	href, err := FindEpisodeLink(p.doc, episode)
	if err != nil {
		return "", s.fail(provider.StageEpisodes, provider.KindOf(err), p.url.String(), p.status, nil)
	}
	episodeURL, err := p.resolve(href)
	if err != nil {
		return "", s.fail(provider.StageEpisodes, provider.ParseFailure, p.url.String(), p.status, err)
	}
	s.log.Debug("episode page found", zap.Int("episode", episode), zap.String("url", episodeURL))
	return episodeURL, nil
}

func (s *Scraper) extractPlayer(ctx context.Context, episodeURL string) (string, error) {
	p, err := s.fetch(ctx, provider.StagePlayer, episodeURL)
	if err != nil {
		return "", err
	}
	src, err := FindPlayerFrame(p.doc)
	if err != nil {
		return "", s.fail(provider.StagePlayer, provider.KindOf(err), p.url.String(), p.status, nil)
	}
	return src, nil
}

type page struct {
	doc    *goquery.Document
	url    *url.URL
	status int
}

// resolve turns an href found on the page into an absolute URL, relative to
// the page's final (post-redirect) location.
func (p *page) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return p.url.ResolveReference(ref).String(), nil
}

func (s *Scraper) fetch(ctx context.Context, stage provider.Stage, target string) (*page, error) {
	release, err := s.throttle.Acquire(ctx)
	if err != nil {
		return nil, s.fail(stage, provider.SiteUnreachable, target, 0, err)
	}
	defer release()
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.fail(stage, provider.SiteUnreachable, target, 0, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, s.fail(stage, provider.ParseFailure, target, 0, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, s.fail(stage, provider.SiteUnreachable, target, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, s.fail(stage, provider.SiteUnreachable, target, resp.StatusCode, err)
	}
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
		s.log.Warn("page truncated",
			zap.String("stage", string(stage)),
			zap.String("url", target),
			zap.Int("limit_bytes", maxBodyBytes))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, s.fail(stage, provider.ParseFailure, target, resp.StatusCode, err)
	}

	final := resp.Request.URL
	s.log.Debug("page fetched",
		zap.String("stage", string(stage)),
		zap.String("url", final.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))
	return &page{doc: doc, url: final, status: resp.StatusCode}, nil
}

func (s *Scraper) fail(stage provider.Stage, kind provider.Kind, target string, status int, cause error) error {
	return &provider.Error{Provider: Name, Stage: stage, Kind: kind, URL: target, Status: status, Err: cause}
}
