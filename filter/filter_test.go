package filter

import (
	"net/url"
	"testing"

	"channel-catalog/catalog"

	"github.com/stretchr/testify/assert"
)

func ids(channels []catalog.Channel) []string {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ch.ID)
	}
	return out
}

func testCatalog() []catalog.Channel {
	stream := &catalog.Stream{URL: "http://example.com/live.m3u8"}
	return []catalog.Channel{
		{ID: "aajtak", Name: "Aaj Tak", AltNames: []string{"AajTak HD"}, Categories: []string{"news"}, Languages: []string{"hin"}, Stream: stream},
		{ID: "cartoon", Name: "Cartoon Network", Categories: []string{"kids", "animation"}, Languages: []string{"eng", "hin"}},
		{ID: "ndtv", Name: "NDTV 24x7", AltNames: []string{"New Delhi Television"}, Categories: []string{"news"}, Languages: []string{"eng"}},
		{ID: "sun", Name: "Sun TV", Categories: []string{"entertainment"}, Languages: []string{"tam"}, Stream: stream},
		{ID: "dd", Name: "DD News", Categories: []string{"news"}, Languages: []string{"hin"}, Stream: stream},
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{"aajtak", "cartoon", "ndtv", "sun", "dd"}},
		{"category", Filters{Category: "news"}, []string{"aajtak", "ndtv", "dd"}},
		{"category is lower-cased", Filters{Category: "NEWS"}, []string{"aajtak", "ndtv", "dd"}},
		{"category all", Filters{Category: "all"}, []string{"aajtak", "cartoon", "ndtv", "sun", "dd"}},
		{"search name", Filters{Search: "tv"}, []string{"ndtv", "sun"}},
		{"search alt name", Filters{Search: "television"}, []string{"ndtv"}},
		{"search case-insensitive", Filters{Search: "AAJTAK"}, []string{"aajtak"}},
		{"has stream", Filters{HasStream: true}, []string{"aajtak", "sun", "dd"}},
		{"language", Filters{Language: "hin"}, []string{"aajtak", "cartoon", "dd"}},
		{"language all", Filters{Language: "all"}, []string{"aajtak", "cartoon", "ndtv", "sun", "dd"}},
		{"unknown language", Filters{Language: "xx"}, []string{}},
		{"combined", Filters{Category: "news", Language: "hin", HasStream: true}, []string{"aajtak", "dd"}},
		{"combined no match", Filters{Category: "kids", HasStream: true}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(testCatalog(), tt.filters)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_CategorySubsetPreservesOrder(t *testing.T) {
	input := testCatalog()
	got := Apply(input, Filters{Category: "news"})

	last := -1
	for _, ch := range got {
		assert.Contains(t, ch.Categories, "news")
		pos := -1
		for i := range input {
			if input[i].ID == ch.ID {
				pos = i
			}
		}
		assert.Greater(t, pos, last)
		last = pos
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	input := testCatalog()
	_ = Apply(input, Filters{Category: "news", HasStream: true})
	assert.Equal(t, testCatalog(), input)
}

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Filters
	}{
		{"empty", "", Filters{}},
		{"all params", "category=news&search=aaj&hasStream=true&language=hin", Filters{Category: "news", Search: "aaj", HasStream: true, Language: "hin"}},
		{"hasStream not true", "hasStream=yes", Filters{}},
		{"hasStream false", "hasStream=false", Filters{}},
		{"search verbatim", "search=%20sun%20", Filters{Search: " sun "}},
		{"category trimmed", "category=%20news%20", Filters{Category: "news"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, FromQuery(q))
		})
	}
}

func TestApply_SearchUsesTermVerbatim(t *testing.T) {
	q, err := url.ParseQuery("search=%20")
	assert.NoError(t, err)

	got := Apply(testCatalog(), FromQuery(q))
	assert.Equal(t, []string{"aajtak", "cartoon", "ndtv", "sun", "dd"}, ids(got), "every name contains a space")

	q, err = url.ParseQuery("search=%20tak")
	assert.NoError(t, err)
	assert.Equal(t, []string{"aajtak"}, ids(Apply(testCatalog(), FromQuery(q))))
}
