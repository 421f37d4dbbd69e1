package crawler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"mspro-labs/crop-weather/internal/config"
	"mspro-labs/crop-weather/internal/snapshot"
)

// Upper bound on a forecast body; the weekly file is a few hundred KB.
const maxBodyBytes = 32 << 20

var (
	errStatus     = errors.New("unexpected status code")
	errMalformed  = errors.New("malformed JSON body")
	errNoEndpoint = errors.New("endpoint not configured")
)

// FetchError is returned once every attempt has failed. Err is the last cause.
type FetchError struct {
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching CWA data after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads the forecast document with linear backoff between attempts.
type Fetcher struct {
	Client    *http.Client
	Endpoint  string
	UserAgent string
	// Retries is the total number of attempts (at least one is always made).
	Retries int
	// Attempt i (0-based) is followed by a (1+i)*BackoffUnit pause.
	BackoffUnit time.Duration
	// Sleep defaults to a context-aware timer.
	Sleep   func(ctx context.Context, d time.Duration) error
	Breaker *gobreaker.CircuitBreaker
}

// NewFetcher builds a Fetcher from settings.
func NewFetcher(s *config.Settings) *Fetcher {
	return &Fetcher{
		Client:      newHTTPClient(s.Timeout, s.InsecureSkipVerify),
		Endpoint:    s.Endpoint,
		UserAgent:   s.UserAgent,
		Retries:     s.Retries,
		BackoffUnit: s.BackoffUnit,
		Breaker:     NewBreaker(),
	}
}

// BreakerThreshold is the number of consecutive failed fetches that opens the breaker.
const BreakerThreshold = 3

// NewBreaker counts whole fetches, not attempts, so a fetch always gets its
// full retry budget. It opens after BreakerThreshold failed fetches in a row
// and stays open for a minute.
func NewBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cwa-opendata",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("circuit %s: %s -> %s", name, from, to)
		},
	})
}

func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		logger.Println("WARNING: TLS certificate verification is DISABLED for the forecast endpoint (insecure_skip_verify)")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Fetch returns the parsed forecast or a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, apiKey string) (snapshot.Document, error) {
	doc, _, err := f.fetch(ctx, apiKey)
	return doc, err
}

func (f *Fetcher) fetch(ctx context.Context, apiKey string) (snapshot.Document, int, error) {
	if f.Breaker == nil {
		return f.retry(ctx, apiKey)
	}
	attempts := 0
	result, err := f.Breaker.Execute(func() (interface{}, error) {
		doc, n, err := f.retry(ctx, apiKey)
		attempts = n
		return doc, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logger.Printf("Skipping fetch: %v", err)
		return nil, 0, &FetchError{Attempts: 0, Err: err}
	}
	if err != nil {
		return nil, attempts, err
	}
	return result.(snapshot.Document), attempts, nil
}

func (f *Fetcher) retry(ctx context.Context, apiKey string) (snapshot.Document, int, error) {
	attempts := f.Retries
	if attempts < 1 {
		attempts = 1
	}
	sleep := f.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	unit := f.BackoffUnit
	if unit == 0 {
		unit = time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		doc, err := f.get(ctx, apiKey)
		if err == nil {
			return doc, i + 1, nil
		}
		lastErr = err
		logger.Printf("Attempt %d/%d failed: %v", i+1, attempts, err)

		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, time.Duration(1+i)*unit); err != nil {
			return nil, i + 1, &FetchError{Attempts: i + 1, Err: err}
		}
	}
	return nil, attempts, &FetchError{Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) get(ctx context.Context, apiKey string) (snapshot.Document, error) {
	if f.Endpoint == "" {
		return nil, errNoEndpoint
	}
	u, err := url.Parse(f.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("Authorization", apiKey)
	q.Set("downloadType", "WEB")
	q.Set("format", "JSON")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	ua := f.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, redact(err, f.Endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", redact(err, f.Endpoint))
	}
	doc := snapshot.Document(body)
	if !doc.Valid() {
		return nil, errMalformed
	}
	return doc, nil
}

// redact drops the query string (which carries the API key) from URL errors.
func redact(err error, endpoint string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: endpoint, Err: ue.Err}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
