package rntree

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
)

const (
	// DefaultUserAgent identifies the fetcher to the in-app server.
	DefaultUserAgent = "gridtree-rn/1.0"
	// DefaultTimeout bounds a single HTTP fetch.
	DefaultTimeout = 5 * time.Second
	// DefaultRateLimit paces requests to the in-app server.
	DefaultRateLimit = rate.Limit(5)
	// DefaultRateBurst is the number of requests allowed back to back.
	DefaultRateBurst = 2
	// MaxBodyBytes caps the size of a response body.
	MaxBodyBytes = 16 << 20
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// Fetcher retrieves RN trees.
type Fetcher struct {
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client

	limiter *rate.Limiter
	logger  *slog.Logger
}

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.Client = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.Timeout = d
	}
}

// WithRateLimit sets the request rate and burst. A limit of rate.Inf
// disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.UserAgent = ua
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(options ...Option) *Fetcher {
	f := &Fetcher{
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		limiter:   rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(f)
	}
	if f.Client == nil {
		f.Client = &http.Client{Timeout: f.Timeout}
	}
	return f
}

// FetchURL retrieves the tree served at url. Network failures, non-2xx
// responses and malformed bodies are returned as REMOTE_FETCH_FAILED.
func (f *Fetcher) FetchURL(ctx context.Context, url string) (*Node, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeRemoteFetch, "rate limiter", err,
			map[string]any{"url": url})
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeRemoteFetch, "failed to create request", err,
			map[string]any{"url": url})
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeRemoteFetch, "request failed", err,
			map[string]any{"url": url})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeRemoteFetch,
			fmt.Sprintf("unexpected status %d", resp.StatusCode),
			map[string]any{"url": url, "status": resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeRemoteFetch, "failed to read body", err,
			map[string]any{"url": url})
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeRemoteFetch, "malformed JSON", err,
			map[string]any{"url": url, "bytes": len(body)})
	}
	tree, err := FromMap(decoded)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeRemoteFetch, "unexpected tree shape", err,
			map[string]any{"url": url})
	}

	f.logger.Debug("fetched rn tree",
		"url", url,
		"nodes", tree.Count(),
		"bytes", len(body),
		"duration", time.Since(start))
	return tree, nil
}

// FetchApplication retrieves the tree from an in-process inspector.
func (f *Fetcher) FetchApplication(ctx context.Context, ins Inspector) (*Node, error) {
	if ins == nil {
		return nil, apperrors.New(apperrors.ErrCodeRemoteFetch, "no inspector available")
	}
	raw, err := ins.RNTree(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRemoteFetch, "inspector failed", err)
	}
	tree, err := FromMap(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRemoteFetch, "unexpected tree shape", err)
	}
	return tree, nil
}
