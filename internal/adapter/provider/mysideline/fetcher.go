// Package mysideline retrieves the MySideline carnival listing.
package mysideline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime"
	"net"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/config"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/provider"
)

const (
	breakerName = "mysideline"

	// maxBodyBytes bounds the document size read into memory.
	maxBodyBytes = 16 << 20

	acceptHeader = "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.1"
)

var acceptedContentTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"application/json":      true,
	"text/json":             true,
}

// Fetcher downloads the MySideline listing with per-attempt timeouts,
// exponential backoff with jitter, a politeness rate limit and a circuit
// breaker that survives across runs.
type Fetcher struct {
	cfg        config.MySidelineConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*provider.RawPayload]
	log        *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(base time.Duration) time.Duration
	now    func() time.Time
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default bounded client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithSleep replaces the context-aware backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

// WithJitter replaces the random jitter source.
func WithJitter(jitter func(base time.Duration) time.Duration) Option {
	return func(f *Fetcher) { f.jitter = jitter }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher. One Fetcher should be shared by every run so
// that the transport, rate limiter and circuit breaker are shared too.
func NewFetcher(cfg config.MySidelineConfig, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Transport: newTransport(cfg.MaxConnsPerHost)},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:        logger.With("adapter", "mysideline"),
		sleep:      sleepCtx,
		jitter:     uniformJitter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 1
	}
	f.breaker = gobreaker.NewCircuitBreaker[*provider.RawPayload](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return f
}

func newTransport(maxConnsPerHost int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxConnsPerHost = maxConnsPerHost
	t.MaxIdleConnsPerHost = maxConnsPerHost
	return t
}

// BreakerState reports the circuit breaker state: closed, half-open or open.
func (f *Fetcher) BreakerState() string {
	return f.breaker.State().String()
}

// Fetch retrieves the listing document. Failures are *FetchError. In mock
// mode the embedded fixture (or the configured fixture file) is returned
// without touching the network.
func (f *Fetcher) Fetch(ctx context.Context) (*provider.RawPayload, error) {
	if f.cfg.UseMock {
		return f.loadMock()
	}

	payload, err := f.breaker.Execute(func() (*provider.RawPayload, error) {
		return f.fetchWithRetry(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			f.log.WarnContext(ctx, "mysideline fetch rejected by circuit breaker")
			return nil, &FetchError{Kind: KindTransportFailure, Err: err}
		}
		return nil, err
	}
	return payload, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context) (*provider.RawPayload, error) {
	maxAttempts := max(f.cfg.RetryAttempts, 1)

	for attempt := 1; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Kind: KindTimeout, Attempts: attempt - 1, Err: err}
		}

		f.log.DebugContext(ctx, "mysideline request", slog.Int("attempt", attempt), slog.String("url", f.cfg.URL))

		payload, ferr := f.attempt(ctx)
		if ferr == nil {
			payload.Attempts = attempt
			f.log.InfoContext(ctx, "mysideline fetched",
				slog.Int("attempts", attempt),
				slog.Int("bytes", len(payload.Body)),
				slog.String("content_type", payload.ContentType),
			)
			return payload, nil
		}
		ferr.Attempts = attempt

		// The run budget expired: abandon without further attempts.
		if ctx.Err() != nil {
			ferr.Kind = KindTimeout
			ferr.StatusCode = 0
			return nil, ferr
		}

		if !ferr.Retryable() || attempt >= maxAttempts {
			f.log.ErrorContext(ctx, "mysideline fetch failed",
				slog.Int("attempts", attempt),
				slog.String("kind", string(ferr.Kind)),
				slog.Int("status", ferr.StatusCode),
				slog.String("error", ferr.Error()),
			)
			return nil, ferr
		}

		delay := f.backoff(attempt)
		f.log.WarnContext(ctx, "mysideline retry",
			slog.Int("attempt", attempt),
			slog.String("kind", string(ferr.Kind)),
			slog.Int("status", ferr.StatusCode),
			slog.Duration("backoff", delay),
		)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, &FetchError{Kind: KindTimeout, Attempts: attempt, Err: err}
		}
	}
}

// backoff returns the delay before attempt n+1: base * 2^(n-1) + jitter.
func (f *Fetcher) backoff(attempt int) time.Duration {
	base := f.cfg.RetryBackoff
	if base <= 0 {
		return 0
	}
	return base<<(attempt-1) + f.jitter(base)
}

func (f *Fetcher) attempt(ctx context.Context) (*provider.RawPayload, *FetchError) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransportFailure, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Kind: classify(err), Err: fmt.Errorf("read body: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !acceptedContentTypes[mediaType] {
		return nil, &FetchError{
			Kind: KindInvalidContentType,
			Err:  fmt.Errorf("content type %q not accepted", contentType),
		}
	}

	return &provider.RawPayload{
		Body:        body,
		ContentType: mediaType,
		SourceURL:   resp.Request.URL.String(),
		FetchedAt:   f.now().UTC(),
	}, nil
}

func classify(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransportFailure
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// uniformJitter returns a duration in [0, base).
func uniformJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return rand.N(base)
}
