package filter

import (
	"net/url"
	"slices"
	"strings"

	"channel-catalog/catalog"
)

// all is the placeholder value that disables a filter.
const all = "all"

// Filters holds the recognized catalog filters. Zero values are no-ops.
type Filters struct {
	Category  string
	Search    string
	Language  string
	HasStream bool
}

// FromQuery reads filters from request query parameters. Unrecognized or
// malformed values degrade to no-ops. The search term is used verbatim.
func FromQuery(q url.Values) Filters {
	return Filters{
		Category:  strings.TrimSpace(q.Get("category")),
		Search:    q.Get("search"),
		Language:  strings.TrimSpace(q.Get("language")),
		HasStream: q.Get("hasStream") == "true",
	}
}

type Predicate func(ch *catalog.Channel) bool

func Category(category string) Predicate {
	category = strings.ToLower(category)
	return func(ch *catalog.Channel) bool {
		return slices.Contains(ch.Categories, category)
	}
}

func Search(term string) Predicate {
	term = strings.ToLower(term)
	return func(ch *catalog.Channel) bool {
		if strings.Contains(strings.ToLower(ch.Name), term) {
			return true
		}
		for _, name := range ch.AltNames {
			if strings.Contains(strings.ToLower(name), term) {
				return true
			}
		}
		return false
	}
}

func HasStream() Predicate {
	return func(ch *catalog.Channel) bool {
		return ch.HasStream()
	}
}

func Language(code string) Predicate {
	return func(ch *catalog.Channel) bool {
		return slices.Contains(ch.Languages, code)
	}
}

func isSet(v string) bool {
	return v != "" && !strings.EqualFold(v, all)
}

// Predicates returns one predicate per active filter.
func (f Filters) Predicates() []Predicate {
	var preds []Predicate
	if isSet(f.Category) {
		preds = append(preds, Category(f.Category))
	}
	if f.Search != "" {
		preds = append(preds, Search(f.Search))
	}
	if f.HasStream {
		preds = append(preds, HasStream())
	}
	if isSet(f.Language) {
		preds = append(preds, Language(f.Language))
	}
	return preds
}

// Apply returns the channels matching every active filter, keeping their
// relative order. The input is not modified.
func Apply(channels []catalog.Channel, f Filters) []catalog.Channel {
	return Match(channels, f.Predicates()...)
}

func Match(channels []catalog.Channel, preds ...Predicate) []catalog.Channel {
	out := make([]catalog.Channel, 0, len(channels))
	for i := range channels {
		if matchesAll(&channels[i], preds) {
			out = append(out, channels[i])
		}
	}
	return out
}

func matchesAll(ch *catalog.Channel, preds []Predicate) bool {
	for _, p := range preds {
		if !p(ch) {
			return false
		}
	}
	return true
}
