package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"channel-catalog/cache"
	"channel-catalog/catalog"
	"channel-catalog/logger"
	"channel-catalog/metrics"
	"channel-catalog/recommend"

	"github.com/goccy/go-json"
)

// Source is the upstream the store populates its cache from.
type Source interface {
	FetchRaw(ctx context.Context) (*catalog.Raw, error)
	FetchChannels(ctx context.Context) ([]catalog.RawChannel, error)
	FetchCategories(ctx context.Context) ([]json.RawMessage, error)
	FetchLanguages(ctx context.Context) ([]catalog.Language, error)
}

type Options struct {
	Country       string
	TTL           time.Duration
	LanguageCodes []string
	Related       recommend.Options
}

// CatalogStore serves every read operation from cached, normalized data.
// Only cache misses reach the upstream.
type CatalogStore struct {
	source    Source
	cache     *cache.Cache
	recommend *recommend.Engine
	opts      Options
	now       func() time.Time
	logger    logger.Logger
}

type Option func(*CatalogStore)

func WithCache(c *cache.Cache) Option {
	return func(s *CatalogStore) {
		s.cache = c
	}
}

func WithRecommendEngine(e *recommend.Engine) Option {
	return func(s *CatalogStore) {
		s.recommend = e
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CatalogStore) {
		s.now = now
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *CatalogStore) {
		s.logger = l
	}
}

// NewCatalogStore builds a store over source. A zero opts.Related falls back
// to recommend.DefaultOptions.
func NewCatalogStore(source Source, opts Options, options ...Option) *CatalogStore {
	if opts.Related == (recommend.Options{}) {
		opts.Related = recommend.DefaultOptions()
	}
	s := &CatalogStore{
		source: source,
		opts:   opts,
		now:    time.Now,
		logger: logger.Default,
	}
	for _, o := range options {
		o(s)
	}
	if s.cache == nil {
		s.cache = cache.New(cache.WithClock(s.now), cache.WithLogger(s.logger))
	}
	if s.recommend == nil {
		s.recommend = recommend.New(nil)
	}
	return s
}

func (s *CatalogStore) Country() string {
	return s.opts.Country
}

func (s *CatalogStore) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *CatalogStore) catalogKey() string {
	return "country_channels:" + s.opts.Country
}

func (s *CatalogStore) countryStreamsKey() string {
	return "country_streams:" + s.opts.Country
}

// populateCtx detaches populations from the caller so a cancelled request
// does not abort a refresh other callers are waiting on.
func populateCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (s *CatalogStore) buildSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	raw, err := s.source.FetchRaw(populateCtx(ctx))
	if err != nil {
		return nil, err
	}

	channels := catalog.Build(raw.Channels, raw.Streams, raw.Logos, s.opts.Country)
	snap, err := catalog.NewSnapshot(channels, s.now())
	if err != nil {
		return nil, fmt.Errorf("error fingerprinting catalog: %w", err)
	}

	metrics.CatalogChannels.Set(float64(len(snap.Channels)))
	s.logger.Logf("Built %s catalog: %d channels from %d upstream channels",
		s.opts.Country, len(snap.Channels), len(raw.Channels))
	return snap, nil
}

// Catalog returns the normalized catalog for the configured country.
func (s *CatalogStore) Catalog(ctx context.Context) (*catalog.Snapshot, error) {
	return cache.GetOrPopulate(ctx, s.cache, s.catalogKey(), s.opts.TTL, func() (*catalog.Snapshot, error) {
		return s.buildSnapshot(ctx)
	})
}

// Refresh rebuilds the catalog ahead of expiry. The current catalog keeps
// being served until the new one is ready; on failure it is kept.
func (s *CatalogStore) Refresh(ctx context.Context) error {
	_, err := cache.Refresh(ctx, s.cache, s.catalogKey(), s.opts.TTL, func() (*catalog.Snapshot, error) {
		return s.buildSnapshot(ctx)
	})
	if err == nil {
		// Streams follow the catalog they were derived from.
		s.cache.Invalidate(s.countryStreamsKey())
	}
	if pruned := s.cache.Prune(); pruned > 0 {
		s.logger.Debugf("Pruned %d expired cache entries", pruned)
	}
	return err
}

func (s *CatalogStore) Channel(ctx context.Context, id string) (catalog.Channel, error) {
	snap, err := s.Catalog(ctx)
	if err != nil {
		return catalog.Channel{}, err
	}
	ch, ok := snap.Find(id)
	if !ok {
		return catalog.Channel{}, &catalog.NotFoundError{ID: id}
	}
	return ch, nil
}

func (s *CatalogStore) Related(ctx context.Context, id string) ([]catalog.Channel, error) {
	snap, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return s.recommend.Related(id, snap.Channels, s.opts.Related)
}

// AllChannels returns the unfiltered upstream channel list.
func (s *CatalogStore) AllChannels(ctx context.Context) ([]catalog.RawChannel, error) {
	return cache.GetOrPopulate(ctx, s.cache, "all_channels", s.opts.TTL, func() ([]catalog.RawChannel, error) {
		return s.source.FetchChannels(populateCtx(ctx))
	})
}

func (s *CatalogStore) Categories(ctx context.Context) ([]json.RawMessage, error) {
	return cache.GetOrPopulate(ctx, s.cache, "categories", s.opts.TTL, func() ([]json.RawMessage, error) {
		return s.source.FetchCategories(populateCtx(ctx))
	})
}

// Languages returns the upstream languages restricted to the configured codes.
func (s *CatalogStore) Languages(ctx context.Context) ([]catalog.Language, error) {
	return cache.GetOrPopulate(ctx, s.cache, "languages", s.opts.TTL, func() ([]catalog.Language, error) {
		all, err := s.source.FetchLanguages(populateCtx(ctx))
		if err != nil {
			return nil, err
		}
		out := make([]catalog.Language, 0, len(s.opts.LanguageCodes))
		for _, lang := range all {
			if slices.Contains(s.opts.LanguageCodes, lang.Code) {
				out = append(out, lang)
			}
		}
		return out, nil
	})
}

// CountryStreams returns the raw streams of every channel in the country
// catalog.
func (s *CatalogStore) CountryStreams(ctx context.Context) ([]catalog.RawStream, error) {
	return cache.GetOrPopulate(ctx, s.cache, s.countryStreamsKey(), s.opts.TTL, func() ([]catalog.RawStream, error) {
		raw, err := s.source.FetchRaw(populateCtx(ctx))
		if err != nil {
			return nil, err
		}
		return catalog.CountryStreams(raw.Channels, raw.Streams, s.opts.Country), nil
	})
}
