package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/normalize"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/metrics"
)

// MemStore is the in-memory Store implementation. A single logical writer
// performs mutations; the mutex keeps concurrent readers from observing a
// torn map, not from observing a half-updated record (an accepted property
// of this advisory data).
type MemStore struct {
	mu         sync.RWMutex
	artists    map[string]*model.ArtistProgress
	milestones []model.MilestoneRecord
	newID      func() string
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithIDGenerator overrides milestone record ID generation (deterministic
// IDs in tests).
func WithIDGenerator(gen func() string) Option {
	return func(s *MemStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewMemStore creates an empty in-memory progress store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		artists: make(map[string]*model.ArtistProgress),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordPlay implements Store.
func (s *MemStore) RecordPlay(_ context.Context, e model.PlayEvent) ([]model.MilestoneRecord, error) {
	if e.Artist == "" || e.Timestamp <= 0 {
		return nil, fmt.Errorf("%w: event must be normalized before recording", ErrUnnormalizedEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize.Key(e.Artist)
	p, ok := s.artists[key]
	if !ok {
		p = &model.ArtistProgress{
			Name:            e.Artist,
			FirstListenDate: e.Timestamp,
			Albums:          make(map[string]*model.AlbumProgress),
		}
		s.artists[key] = p
		metrics.UpdateTrackedArtists(len(s.artists))
	}

	p.TotalPlays++
	minted := s.detectArtistMilestones(p, e.Timestamp)
	updateArtistMetrics(p, e.Timestamp)

	if e.Album != "" {
		minted = append(minted, s.recordAlbumPlay(p, key, e)...)
	}

	metrics.RecordPlayProcessed()
	return minted, nil
}

// detectArtistMilestones fires when TotalPlays equals a threshold exactly.
// Jumping past a threshold without equaling it never mints that milestone.
func (s *MemStore) detectArtistMilestones(p *model.ArtistProgress, ts int64) []model.MilestoneRecord {
	var minted []model.MilestoneRecord
	for _, threshold := range model.ArtistThresholds {
		if p.TotalPlays != threshold {
			continue
		}
		days := model.DaysSince(p.FirstListenDate, ts)
		rec := model.MilestoneRecord{
			ID:                   s.newID(),
			Artist:               p.Name,
			Milestone:            threshold,
			ReachedAt:            ts,
			DaysSinceFirstListen: days,
			PlayRate:             float64(threshold) / float64(days),
		}
		p.Milestones = append(p.Milestones, rec)
		s.milestones = append(s.milestones, rec)
		setDayCount(&p.Metrics, threshold, days)
		metrics.RecordMilestone("artist")
		minted = append(minted, rec)
	}
	return minted
}

func (s *MemStore) recordAlbumPlay(p *model.ArtistProgress, artistKey string, e model.PlayEvent) []model.MilestoneRecord {
	albumKey := normalize.AlbumKey(artistKey, e.Album)
	a, ok := p.Albums[albumKey]
	if !ok {
		a = &model.AlbumProgress{
			Title:           e.Album,
			FirstListenDate: e.Timestamp,
		}
		p.Albums[albumKey] = a
	}

	a.TotalPlays++

	var minted []model.MilestoneRecord
	for _, threshold := range model.AlbumThresholds {
		if a.TotalPlays != threshold {
			continue
		}
		days := model.DaysSince(a.FirstListenDate, e.Timestamp)
		rec := model.MilestoneRecord{
			ID:                   s.newID(),
			Artist:               p.Name,
			Album:                a.Title,
			Milestone:            threshold,
			ReachedAt:            e.Timestamp,
			DaysSinceFirstListen: days,
			PlayRate:             float64(threshold) / float64(days),
		}
		a.Milestones = append(a.Milestones, rec)
		s.milestones = append(s.milestones, rec)
		// Album crossings update the album's own day counts only; artist
		// day-count metrics never see album milestones.
		setDayCount(&a.Metrics, threshold, days)
		metrics.RecordMilestone("album")
		minted = append(minted, rec)
	}

	days := model.DaysSince(a.FirstListenDate, e.Timestamp)
	a.Metrics.PlayRate = float64(a.TotalPlays) / float64(days)
	return minted
}

func setDayCount(m *model.Metrics, threshold, days int64) {
	d := days
	switch threshold {
	case 10:
		m.DaysToTenPlays = &d
	case 50:
		m.DaysToFiftyPlays = &d
	case 100:
		m.DaysToHundredPlays = &d
	}
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, artistKey string) (*model.ArtistProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.artists[artistKey]
	return p, ok
}

// All implements Store.
func (s *MemStore) All(_ context.Context) []Tracked {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tracked, 0, len(s.artists))
	for key, p := range s.artists {
		out = append(out, Tracked{Key: key, Progress: p})
	}
	return out
}

// Milestones implements Store.
func (s *MemStore) Milestones(_ context.Context) []model.MilestoneRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MilestoneRecord, len(s.milestones))
	copy(out, s.milestones)
	return out
}

// Count implements Store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artists)
}

// Reset implements Store.
func (s *MemStore) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artists = make(map[string]*model.ArtistProgress)
	s.milestones = nil
	metrics.UpdateTrackedArtists(0)
}

// Restore implements Store.
func (s *MemStore) Restore(_ context.Context, progress map[string]*model.ArtistProgress, milestones []model.MilestoneRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artists = make(map[string]*model.ArtistProgress, len(progress))
	for key, p := range progress {
		if p == nil {
			continue
		}
		if p.Albums == nil {
			p.Albums = make(map[string]*model.AlbumProgress)
		}
		s.artists[key] = p
	}
	s.milestones = make([]model.MilestoneRecord, len(milestones))
	copy(s.milestones, milestones)
	metrics.UpdateTrackedArtists(len(s.artists))
}

// Export implements Store.
func (s *MemStore) Export(_ context.Context) (map[string]*model.ArtistProgress, []model.MilestoneRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress := make(map[string]*model.ArtistProgress, len(s.artists))
	for key, p := range s.artists {
		progress[key] = p
	}
	milestones := make([]model.MilestoneRecord, len(s.milestones))
	copy(milestones, s.milestones)
	return progress, milestones
}
