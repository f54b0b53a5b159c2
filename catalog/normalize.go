package catalog

import (
	"slices"
)

// refIndex maps a channel ref to the position of its first occurrence in the
// source slice. Later entries with the same ref are ignored.
type refIndex map[string]int

func (idx refIndex) insertIfAbsent(ref string, pos int) {
	if ref == "" {
		return
	}
	if _, exists := idx[ref]; !exists {
		idx[ref] = pos
	}
}

func indexStreams(streams []RawStream) refIndex {
	idx := make(refIndex, len(streams))
	for i := range streams {
		idx.insertIfAbsent(streams[i].Channel, i)
	}
	return idx
}

func indexLogos(logos []RawLogo) refIndex {
	idx := make(refIndex, len(logos))
	for i := range logos {
		idx.insertIfAbsent(logos[i].Channel, i)
	}
	return idx
}

// inCountry reports whether a raw channel belongs in the catalog of country.
func inCountry(ch *RawChannel, country string) bool {
	return ch.Country == country && !bool(ch.Closed)
}

// Build joins the raw collections into the catalog for country. Output order
// follows channels; the first stream and first logo per channel win. Inputs
// are not modified and the output shares no slices with them.
func Build(channels []RawChannel, streams []RawStream, logos []RawLogo, country string) []Channel {
	streamIdx := indexStreams(streams)
	logoIdx := indexLogos(logos)

	out := make([]Channel, 0)
	for i := range channels {
		raw := &channels[i]
		if !inCountry(raw, country) {
			continue
		}

		ch := Channel{
			ID:         raw.ID,
			Name:       raw.Name,
			AltNames:   cloneStrings(raw.AltNames),
			Network:    raw.Network,
			Categories: cloneStrings(raw.Categories),
			Languages:  cloneStrings(raw.Languages),
			IsNsfw:     raw.IsNsfw,
			Website:    raw.Website,
		}

		// Only the first logo entry counts, and one without a URL means no logo.
		if pos, ok := logoIdx[raw.ID]; ok && logos[pos].URL != "" {
			url := logos[pos].URL
			ch.Logo = &url
		}
		if pos, ok := streamIdx[raw.ID]; ok {
			s := streams[pos]
			ch.Stream = &Stream{
				URL:       s.URL,
				Quality:   s.Quality,
				Referrer:  s.Referrer,
				UserAgent: s.UserAgent,
			}
		}

		out = append(out, ch)
	}

	return out
}

// CountryStreams returns every raw stream whose channel is part of the
// country catalog, in source order.
func CountryStreams(channels []RawChannel, streams []RawStream, country string) []RawStream {
	ids := make(map[string]struct{})
	for i := range channels {
		if inCountry(&channels[i], country) {
			ids[channels[i].ID] = struct{}{}
		}
	}

	out := make([]RawStream, 0)
	for _, s := range streams {
		if s.Channel == "" {
			continue
		}
		if _, ok := ids[s.Channel]; ok {
			out = append(out, s)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
