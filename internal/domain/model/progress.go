package model

// Metrics holds the derived per-artist (or per-album) rate estimates,
// recomputed on every accepted play.
type Metrics struct {
	// Day counts are nil until the matching threshold is reached, then set
	// exactly once.
	DaysToTenPlays     *int64 `json:"days_to_ten_plays"`
	DaysToFiftyPlays   *int64 `json:"days_to_fifty_plays"`
	DaysToHundredPlays *int64 `json:"days_to_hundred_plays"`

	// PlayRate is the average plays per day since first listen.
	PlayRate float64 `json:"play_rate"`

	// AccelerationRate is the normalized change in play rate between the two
	// halves of the listening lifetime, in plays/day². It is 0 until a trend
	// is detectable; it is never NaN.
	AccelerationRate float64 `json:"acceleration_rate"`
}

// MilestoneRecord marks the moment a cumulative play-count threshold was
// first reached. Immutable once created.
type MilestoneRecord struct {
	ID                   string  `json:"id"`
	Artist               string  `json:"artist"`
	Album                string  `json:"album,omitempty"`
	Milestone            int64   `json:"milestone"`
	ReachedAt            int64   `json:"reached_at"` // epoch milliseconds
	DaysSinceFirstListen int64   `json:"days_since_first_listen"`
	PlayRate             float64 `json:"play_rate"`
}

// AlbumProgress accumulates per-album state. Albums track the shorter
// threshold set and carry no acceleration estimate.
type AlbumProgress struct {
	Title           string            `json:"title"`
	FirstListenDate int64             `json:"first_listen_date"`
	TotalPlays      int64             `json:"total_plays"`
	Milestones      []MilestoneRecord `json:"milestones"`
	Metrics         Metrics           `json:"metrics"`
}

// ArtistProgress accumulates per-artist state. Owned exclusively by the
// progress store; readers treat it as a snapshot.
type ArtistProgress struct {
	// Name is the canonical display name preserved from the first accepted
	// play (post alias folding).
	Name            string                    `json:"name"`
	FirstListenDate int64                     `json:"first_listen_date"`
	TotalPlays      int64                     `json:"total_plays"`
	Albums          map[string]*AlbumProgress `json:"albums"`
	Milestones      []MilestoneRecord         `json:"milestones"`
	Metrics         Metrics                   `json:"metrics"`
}
