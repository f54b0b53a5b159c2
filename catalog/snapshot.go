package catalog

import (
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/sha3"
)

func NewSnapshot(channels []Channel, builtAt time.Time) (*Snapshot, error) {
	fp, err := Fingerprint(channels)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Channels:    channels,
		Fingerprint: fp,
		BuiltAt:     builtAt,
	}, nil
}

// Fingerprint is the hex SHA3-224 digest of the JSON encoding of channels.
func Fingerprint(channels []Channel) (string, error) {
	data, err := json.Marshal(channels)
	if err != nil {
		return "", err
	}
	sum := sha3.Sum224(data)
	return hex.EncodeToString(sum[:]), nil
}

// Find returns the channel with the given id.
func (s *Snapshot) Find(id string) (Channel, bool) {
	for _, ch := range s.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return Channel{}, false
}
