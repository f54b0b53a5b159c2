package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"channel-catalog/catalog"
	"channel-catalog/logger"
	"channel-catalog/metrics"
	"channel-catalog/utils"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// Consecutive failed retrievals before an operation is considered down.
const defaultFailureThreshold = 5

// OpCatalog names the combined channels, streams and logos retrieval. It has
// its own breaker; each auxiliary resource has another.
const OpCatalog = "catalog"

const (
	ResourceChannels   = "channels"
	ResourceStreams    = "streams"
	ResourceLogos      = "logos"
	ResourceCategories = "categories"
	ResourceLanguages  = "languages"
)

// Fetcher retrieves the raw upstream collections. It keeps no state between
// calls.
type Fetcher struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger

	breakers map[string]*gobreaker.CircuitBreaker[struct{}]

	failureThreshold uint32
	cooldown         time.Duration
}

type Option func(*Fetcher)

func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithBreaker configures the circuit breakers guarding the upstream. After
// threshold consecutive failures an operation fails fast for cooldown, then a
// single trial call is let through.
func WithBreaker(threshold uint32, cooldown time.Duration) Option {
	return func(f *Fetcher) {
		f.failureThreshold = threshold
		f.cooldown = cooldown
	}
}

// New returns a Fetcher for the upstream rooted at baseURL. Every single
// retrieval is bounded by timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Default,

		failureThreshold: defaultFailureThreshold,
		cooldown:         30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = utils.NewHTTPClient(timeout)

	f.breakers = make(map[string]*gobreaker.CircuitBreaker[struct{}])
	for _, op := range []string{OpCatalog, ResourceChannels, ResourceCategories, ResourceLanguages} {
		f.breakers[op] = f.newBreaker(op)
	}
	return f
}

func (f *Fetcher) newBreaker(op string) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: 1,
		Timeout:     f.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= f.failureThreshold
		},
		// A caller that gave up says nothing about upstream health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})
}

// BreakerState reports the circuit breaker state of op, either OpCatalog or
// an auxiliary resource name.
func (f *Fetcher) BreakerState(op string) string {
	cb, ok := f.breakers[op]
	if !ok {
		return ""
	}
	return cb.State().String()
}

// guard runs fn through the breaker of op.
func (f *Fetcher) guard(op string, fn func() error) error {
	_, err := f.breakers[op].Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &catalog.FetchError{Resource: op, Err: err}
	}
	return err
}

// FetchRaw retrieves channels, streams and logos concurrently. It fails as a
// whole if any one of them fails. The three retrievals count as one call
// against the catalog breaker.
func (f *Fetcher) FetchRaw(ctx context.Context) (*catalog.Raw, error) {
	raw := &catalog.Raw{}

	err := f.guard(OpCatalog, func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return f.get(gctx, ResourceChannels, &raw.Channels)
		})
		g.Go(func() error {
			return f.get(gctx, ResourceStreams, &raw.Streams)
		})
		g.Go(func() error {
			return f.get(gctx, ResourceLogos, &raw.Logos)
		})
		// Wait reports the first failure, never the cancellation of siblings.
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debugf("Fetched %d channels, %d streams, %d logos",
		len(raw.Channels), len(raw.Streams), len(raw.Logos))

	return raw, nil
}

func (f *Fetcher) FetchChannels(ctx context.Context) ([]catalog.RawChannel, error) {
	var channels []catalog.RawChannel
	err := f.guard(ResourceChannels, func() error {
		return f.get(ctx, ResourceChannels, &channels)
	})
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// FetchCategories returns the upstream category list element by element,
// without interpreting it.
func (f *Fetcher) FetchCategories(ctx context.Context) ([]json.RawMessage, error) {
	var categories []json.RawMessage
	err := f.guard(ResourceCategories, func() error {
		return f.get(ctx, ResourceCategories, &categories)
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (f *Fetcher) FetchLanguages(ctx context.Context) ([]catalog.Language, error) {
	var languages []catalog.Language
	err := f.guard(ResourceLanguages, func() error {
		return f.get(ctx, ResourceLanguages, &languages)
	})
	if err != nil {
		return nil, err
	}
	return languages, nil
}

func (f *Fetcher) get(ctx context.Context, resource string, out any) error {
	started := time.Now()
	err := f.do(ctx, resource, out)
	metrics.RecordUpstreamFetch(resource, time.Since(started), err)
	return err
}

func (f *Fetcher) do(ctx context.Context, resource string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s.json", f.baseURL, resource)
	f.logger.Debugf("Fetching %s from %s", resource, url)

	req, err := utils.NewUpstreamRequest(ctx, url)
	if err != nil {
		return &catalog.FetchError{Resource: resource, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &catalog.FetchError{Resource: resource, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &catalog.FetchError{
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).DecodeContext(ctx, out); err != nil {
		return &catalog.FetchError{Resource: resource, Err: fmt.Errorf("error decoding body: %w", err)}
	}

	return nil
}
