
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// ErrInvalidURL is returned before any network activity for unusable URLs.
var ErrInvalidURL = errors.New("invalid url")

// Response is a fully read fetch result.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string
	Elapsed     time.Duration
}

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	limiter   *rate.Limiter
	retry     *RetryPolicy
}

// RetryPolicy enables bounded exponential-backoff retries of transport failures.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

type Option func(*HTTPClient)

func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// WithRateLimit paces requests to rps per second. rps <= 0 leaves requests unpaced.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *HTTPClient) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry turns on retries. Without it every fetch is a single attempt.
func WithRetry(p RetryPolicy) Option {
	return func(h *HTTPClient) {
		if p.MaxAttempts > 1 {
			h.retry = &p
		}
	}
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64, opts ...Option) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	h := &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: "modelcat/1.0",
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Fetch GETs rawURL preferring JSON. Any HTTP status is a successful fetch;
// only invalid URLs, transport failures and unreadable bodies are errors.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if h.retry == nil {
		return h.fetchOnce(ctx, u)
	}

	var resp *Response
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.retry.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(h.retry.MaxAttempts-1)), ctx)
	err = backoff.Retry(func() error {
		r, err := h.fetchOnce(ctx, u)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *HTTPClient) fetchOnce(ctx context.Context, u *url.URL) (*Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	// enforce a size cap
	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap))
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Elapsed:     time.Since(start),
	}, nil
}
