// Package normalize canonicalizes raw play records before they reach the
// progress store: artist-name trimming and alias folding plus validation of
// the mandatory fields. Rejection is per-event and silent; callers count
// skips rather than aborting a batch.
package normalize

import (
	"fmt"
	"strings"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
)

// Normalizer canonicalizes play events. Safe for concurrent readers once
// constructed.
type Normalizer struct {
	// canonical maps lower-cased raw names to a canonical display string.
	canonical map[string]string
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithAliases extends the built-in alias table. Keys are matched
// case-insensitively after trimming; values replace the display name.
func WithAliases(aliases map[string]string) Option {
	return func(n *Normalizer) {
		for raw, canonical := range aliases {
			key := strings.ToLower(strings.TrimSpace(raw))
			if key == "" || strings.TrimSpace(canonical) == "" {
				continue
			}
			n.canonical[key] = strings.TrimSpace(canonical)
		}
	}
}

// New constructs a Normalizer with the default alias table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{canonical: make(map[string]string, len(defaultAliases))}
	for _, a := range defaultAliases {
		n.canonical[strings.ToLower(a.Pattern)] = a.Canonical
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Event validates and canonicalizes a raw play event. An event lacking an
// artist or a positive timestamp is rejected with an error wrapping
// ErrInvalidEvent; nothing else is fatal.
func (n *Normalizer) Event(raw model.PlayEvent) (model.PlayEvent, error) {
	artist := strings.TrimSpace(raw.Artist)
	if artist == "" {
		return model.PlayEvent{}, fmt.Errorf("%w: missing artist", ErrInvalidEvent)
	}
	if raw.Timestamp <= 0 {
		return model.PlayEvent{}, fmt.Errorf("%w: missing or unparseable timestamp", ErrInvalidEvent)
	}

	// Alias folding: a fixed lookup of known spellings, not fuzzy matching.
	// Unmapped names pass through with only trimming applied, preserving
	// original casing for display.
	if canonical, ok := n.canonical[strings.ToLower(artist)]; ok {
		artist = canonical
	}

	out := raw
	out.Artist = artist
	out.Album = strings.TrimSpace(raw.Album)
	out.Title = strings.TrimSpace(raw.Title)
	return out, nil
}

// Key returns the progress-store key for an artist display name.
func Key(artist string) string {
	return strings.ToLower(strings.TrimSpace(artist))
}

// AlbumKey returns the composite key for an album under an artist. The
// artist component keeps same-titled albums by different artists apart.
func AlbumKey(artistKey, album string) string {
	return artistKey + "::" + strings.ToLower(strings.TrimSpace(album))
}
