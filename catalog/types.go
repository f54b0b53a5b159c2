package catalog

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
)

// RawChannel is one record of the upstream channels.json collection.
type RawChannel struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	AltNames   []string `json:"alt_names"`
	Network    string   `json:"network"`
	Categories []string `json:"categories"`
	Languages  []string `json:"languages"`
	Country    string   `json:"country"`
	Closed     Closed   `json:"closed"`
	IsNsfw     bool     `json:"is_nsfw"`
	Website    string   `json:"website"`
}

// Closed is true when upstream marks a channel as closed. Upstream sends
// either a boolean, null, or the closing date as a string.
type Closed bool

func (c *Closed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = false
	case bytes.Equal(data, []byte("true")):
		*c = true
	case bytes.Equal(data, []byte("false")):
		*c = false
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = s != ""
	}
	return nil
}

// RawStream is one record of the upstream streams.json collection.
type RawStream struct {
	Channel   string `json:"channel"`
	URL       string `json:"url"`
	Quality   string `json:"quality"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user_agent"`
}

// RawLogo is one record of the upstream logos.json collection.
type RawLogo struct {
	Channel string `json:"channel"`
	URL     string `json:"url"`
}

// Raw holds the three collections retrieved by one fetch.
type Raw struct {
	Channels []RawChannel
	Streams  []RawStream
	Logos    []RawLogo
}

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Stream struct {
	URL       string `json:"url"`
	Quality   string `json:"quality"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
}

// Channel is the normalized record served to clients.
type Channel struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	AltNames   []string `json:"altNames"`
	Network    string   `json:"network"`
	Categories []string `json:"categories"`
	Languages  []string `json:"languages"`
	IsNsfw     bool     `json:"isNsfw"`
	Website    string   `json:"website"`
	Logo       *string  `json:"logo"`
	Stream     *Stream  `json:"stream"`
}

func (c Channel) HasStream() bool {
	return c.Stream != nil
}

// Snapshot is an immutable built catalog. It is replaced wholesale on
// refresh, never modified.
type Snapshot struct {
	Channels    []Channel
	Fingerprint string
	BuiltAt     time.Time
}
