package handlers

import (
	"context"

	"channel-catalog/cache"
	"channel-catalog/catalog"

	"github.com/goccy/go-json"
)

// CatalogReader is the read side of the catalog store.
type CatalogReader interface {
	Country() string
	Catalog(ctx context.Context) (*catalog.Snapshot, error)
	Channel(ctx context.Context, id string) (catalog.Channel, error)
	Related(ctx context.Context, id string) ([]catalog.Channel, error)
	AllChannels(ctx context.Context) ([]catalog.RawChannel, error)
	Categories(ctx context.Context) ([]json.RawMessage, error)
	Languages(ctx context.Context) ([]catalog.Language, error)
	CountryStreams(ctx context.Context) ([]catalog.RawStream, error)
	CacheStats() cache.Stats
}
