package recommend

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"channel-catalog/catalog"
)

const (
	DefaultLimit   = 15
	DefaultMinFill = 10
)

type Options struct {
	// Limit caps the number of returned channels.
	Limit int
	// MinFill is the organic result size below which random channels with a
	// stream are appended until Limit is reached.
	MinFill int
}

func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, MinFill: DefaultMinFill}
}

// Engine computes related channels. Its only state is the random source used
// for backfill.
type Engine struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns an Engine drawing backfill order from src, or from a
// time-seeded source when src is nil.
func New(src rand.Source) *Engine {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	return &Engine{rnd: rand.New(src)}
}

// Related returns up to opts.Limit channels related to channelID: channels
// with a stream sharing the target's network first, then channels with a
// stream sharing at least one category. Within a tier catalog order is kept.
// When fewer than opts.MinFill organic matches exist, the list is backfilled
// from the remaining channels with a stream in random order.
func (e *Engine) Related(channelID string, channels []catalog.Channel, opts Options) ([]catalog.Channel, error) {
	idx := slices.IndexFunc(channels, func(ch catalog.Channel) bool {
		return ch.ID == channelID
	})
	if idx < 0 {
		return nil, &catalog.NotFoundError{ID: channelID}
	}
	target := &channels[idx]

	if opts.Limit <= 0 {
		return []catalog.Channel{}, nil
	}

	seen := map[string]struct{}{target.ID: {}}
	var networkTier, categoryTier []catalog.Channel
	for i := range channels {
		ch := &channels[i]
		if _, dup := seen[ch.ID]; dup || !ch.HasStream() {
			continue
		}
		switch {
		case sameNetwork(ch, target):
			networkTier = append(networkTier, *ch)
		case sharesCategory(ch, target):
			categoryTier = append(categoryTier, *ch)
		default:
			continue
		}
		seen[ch.ID] = struct{}{}
	}

	related := make([]catalog.Channel, 0, opts.Limit)
	related = append(related, networkTier...)
	related = append(related, categoryTier...)
	if len(related) > opts.Limit {
		related = related[:opts.Limit]
	}

	if len(related) < opts.MinFill {
		related = e.backfill(related, channels, target.ID, opts.Limit)
	}

	return related, nil
}

func (e *Engine) backfill(related, channels []catalog.Channel, targetID string, limit int) []catalog.Channel {
	selected := make(map[string]struct{}, len(related)+1)
	selected[targetID] = struct{}{}
	for _, ch := range related {
		selected[ch.ID] = struct{}{}
	}

	pool := make([]catalog.Channel, 0)
	for _, ch := range channels {
		if !ch.HasStream() {
			continue
		}
		if _, ok := selected[ch.ID]; ok {
			continue
		}
		pool = append(pool, ch)
	}

	e.mu.Lock()
	e.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	e.mu.Unlock()

	for _, ch := range pool {
		if len(related) >= limit {
			break
		}
		if _, ok := selected[ch.ID]; ok {
			continue
		}
		selected[ch.ID] = struct{}{}
		related = append(related, ch)
	}
	return related
}

// sameNetwork requires a non-empty network. Two channels that both lack one
// compare equal as strings but are deliberately not grouped as a network.
func sameNetwork(a, b *catalog.Channel) bool {
	return a.Network != "" && a.Network == b.Network
}

func sharesCategory(a, b *catalog.Channel) bool {
	for _, c := range a.Categories {
		if slices.Contains(b.Categories, c) {
			return true
		}
	}
	return false
}
